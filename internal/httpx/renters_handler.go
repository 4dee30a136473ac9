package httpx

import (
	"context"
	"net/http"
	"time"

	"github.com/ariefcatur/go-rental-ledger/internal/apperr"
	"github.com/ariefcatur/go-rental-ledger/internal/budget"
	"github.com/ariefcatur/go-rental-ledger/internal/logger"
	"github.com/ariefcatur/go-rental-ledger/internal/money"
	"github.com/go-chi/chi/v5"
)

type BudgetStore interface {
	Open(ctx context.Context, renterID string, initial money.Cents) (budget.Budget, error)
	Get(ctx context.Context, renterID string) (budget.Budget, error)
}

type RentersHandler struct {
	Budgets BudgetStore
	Log     *logger.Logger
}

type openBudgetReq struct {
	Balance *money.Cents `json:"balance"`
}

func (h *RentersHandler) Register(r chi.Router) {
	r.Post("/renters/{id}/budget", h.open)
	r.Get("/renters/{id}/budget", h.get)
}

func (h *RentersHandler) open(w http.ResponseWriter, r *http.Request) {
	var req openBudgetReq
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	if req.Balance == nil {
		writeError(w, r, h.Log, apperr.Validation("balance is required", nil))
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	b, err := h.Budgets.Open(ctx, chi.URLParam(r, "id"), *req.Balance)
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (h *RentersHandler) get(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	b, err := h.Budgets.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, h.Log, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}
