package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/ariefcatur/go-rental-ledger/internal/apperr"
	"github.com/ariefcatur/go-rental-ledger/internal/audit"
	"github.com/ariefcatur/go-rental-ledger/internal/bookings"
	"github.com/ariefcatur/go-rental-ledger/internal/dates"
	"github.com/ariefcatur/go-rental-ledger/internal/logger"
	"github.com/ariefcatur/go-rental-ledger/internal/money"
	"github.com/go-chi/chi/v5"
)

type BookingLedger interface {
	Create(ctx context.Context, in bookings.CreateInput) (bookings.Receipt, error)
	Cancel(ctx context.Context, bookingID, requesterID string, allowed bookings.Capability) (money.Cents, error)
	ListForRenter(ctx context.Context, renterID string) ([]bookings.View, error)
	ListForAgent(ctx context.Context, ownerID string) ([]bookings.View, error)
}

type HistoryReader interface {
	History(ctx context.Context, bookingID string) ([]audit.Entry, error)
}

type BookingsHandler struct {
	Ledger BookingLedger
	Audit  HistoryReader // optional
	Log    *logger.Logger
}

type createBookingReq struct {
	PropertyID string `json:"property_id"`
	RenterID   string `json:"renter_id"`
	CardID     string `json:"card_id"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
}

type cancelBookingResp struct {
	BookingID string      `json:"booking_id"`
	Status    string      `json:"status"`
	Refund    money.Cents `json:"refund"`
}

func (h *BookingsHandler) Register(r chi.Router) {
	r.Route("/bookings", func(r chi.Router) {
		r.Post("/", h.create)
		r.Get("/renter/{renter_id}", h.listForRenter)
		r.Get("/agent/{owner_id}", h.listForAgent)
		r.Delete("/{id}", h.cancel)
		r.Get("/{id}/events", h.history)
	})
}

func (h *BookingsHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createBookingReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	start, err := dates.Parse(req.StartDate)
	if err != nil {
		writeError(w, r, h.Log, apperr.Validation(err.Error(), map[string]any{"field": "start_date"}))
		return
	}
	end, err := dates.Parse(req.EndDate)
	if err != nil {
		writeError(w, r, h.Log, apperr.Validation(err.Error(), map[string]any{"field": "end_date"}))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	receipt, err := h.Ledger.Create(ctx, bookings.CreateInput{
		PropertyID: req.PropertyID,
		RenterID:   req.RenterID,
		CardID:     req.CardID,
		Start:      start,
		End:        end,
	})
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, receipt)
}

func (h *BookingsHandler) cancel(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id := chi.URLParam(r, "id")
	refund, err := h.Ledger.Cancel(ctx, id, r.URL.Query().Get("requester_id"), bookings.RenterOrOwner)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, cancelBookingResp{BookingID: id, Status: string(bookings.StatusCancelled), Refund: refund})
}

func (h *BookingsHandler) listForRenter(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	views, err := h.Ledger.ListForRenter(ctx, chi.URLParam(r, "renter_id"))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *BookingsHandler) listForAgent(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	views, err := h.Ledger.ListForAgent(ctx, chi.URLParam(r, "owner_id"))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *BookingsHandler) history(w http.ResponseWriter, r *http.Request) {
	if h.Audit == nil {
		writeError(w, r, h.Log, apperr.NotFound("booking history", chi.URLParam(r, "id")))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	entries, err := h.Audit.History(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}
