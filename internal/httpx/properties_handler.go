package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/ariefcatur/go-rental-ledger/internal/apperr"
	"github.com/ariefcatur/go-rental-ledger/internal/bookings"
	"github.com/ariefcatur/go-rental-ledger/internal/catalog"
	"github.com/ariefcatur/go-rental-ledger/internal/logger"
	"github.com/ariefcatur/go-rental-ledger/internal/money"
	"github.com/ariefcatur/go-rental-ledger/internal/search"
	"github.com/go-chi/chi/v5"
)

type PropertyStore interface {
	CreateProperty(ctx context.Context, ownerID string, in catalog.PropertyInput) (string, error)
	UpdateProperty(ctx context.Context, propertyID, ownerID string, in catalog.PropertyInput) error
	DeleteProperty(ctx context.Context, propertyID, ownerID string) ([]bookings.Booking, error)
	SetOwnedPrice(ctx context.Context, propertyID, ownerID string, amount money.Cents) error
	Get(ctx context.Context, propertyID string) (catalog.Property, error)
	ListByOwner(ctx context.Context, ownerID string) ([]catalog.Property, error)
}

type Searcher interface {
	Search(ctx context.Context, f search.Filters) ([]search.PropertyView, error)
}

type PropertiesHandler struct {
	Catalog PropertyStore
	Search  Searcher
	Log     *logger.Logger
}

type propertyReq struct {
	OwnerID string `json:"owner_id"`
	catalog.PropertyInput
}

type priceReq struct {
	OwnerID string       `json:"owner_id"`
	Amount  *money.Cents `json:"amount"`
}

type deletePropertyResp struct {
	PropertyID string             `json:"property_id"`
	Cancelled  []bookings.Booking `json:"cancelled_bookings"`
}

func (h *PropertiesHandler) Register(r chi.Router) {
	r.Route("/properties", func(r chi.Router) {
		r.Post("/", h.create)
		r.Get("/search", h.search)
		r.Get("/agent/{owner_id}", h.listByOwner)
		r.Get("/{id}", h.get)
		r.Put("/{id}", h.update)
		r.Delete("/{id}", h.delete)
		r.Put("/{id}/price", h.setPrice)
	})
}

func (h *PropertiesHandler) create(w http.ResponseWriter, r *http.Request) {
	var req propertyReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id, err := h.Catalog.CreateProperty(ctx, req.OwnerID, req.PropertyInput)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"message": "Property added", "property_id": id})
}

func (h *PropertiesHandler) update(w http.ResponseWriter, r *http.Request) {
	var req propertyReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id := chi.URLParam(r, "id")
	if err := h.Catalog.UpdateProperty(ctx, id, req.OwnerID, req.PropertyInput); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Property updated", "property_id": id})
}

func (h *PropertiesHandler) delete(w http.ResponseWriter, r *http.Request) {
	ownerID := r.URL.Query().Get("owner_id")
	if ownerID == "" {
		writeError(w, r, h.Log, apperr.Validation("owner_id is required", nil))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	id := chi.URLParam(r, "id")
	cancelled, err := h.Catalog.DeleteProperty(ctx, id, ownerID)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	if cancelled == nil {
		cancelled = []bookings.Booking{}
	}
	writeJSON(w, http.StatusOK, deletePropertyResp{PropertyID: id, Cancelled: cancelled})
}

func (h *PropertiesHandler) setPrice(w http.ResponseWriter, r *http.Request) {
	var req priceReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	if req.Amount == nil {
		writeError(w, r, h.Log, apperr.Validation("amount is required", nil))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	id := chi.URLParam(r, "id")
	if err := h.Catalog.SetOwnedPrice(ctx, id, req.OwnerID, *req.Amount); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"property_id": id, "amount": *req.Amount})
}

func (h *PropertiesHandler) get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.Catalog.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *PropertiesHandler) listByOwner(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	ps, err := h.Catalog.ListByOwner(ctx, chi.URLParam(r, "owner_id"))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, ps)
}

func (h *PropertiesHandler) search(w http.ResponseWriter, r *http.Request) {
	f, err := search.FromQuery(r.URL.Query())
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	views, err := h.Search.Search(ctx, f)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, views)
}
