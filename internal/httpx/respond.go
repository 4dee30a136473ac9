package httpx

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/ariefcatur/go-rental-ledger/internal/apperr"
	"github.com/ariefcatur/go-rental-ledger/internal/logger"
	"github.com/go-chi/chi/v5/middleware"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type errorBody struct {
	Error *apperr.Error `json:"error"`
}

// writeError maps err to its status code. Server-side failures are logged
// with their cause and reported without it.
func writeError(w http.ResponseWriter, r *http.Request, log *logger.Logger, err error) {
	appErr := apperr.As(err)
	status := apperr.HTTPStatus(appErr)
	if status >= http.StatusInternalServerError {
		log.Error("request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.GetReqID(r.Context()),
			"error", err,
		)
	}
	writeJSON(w, status, errorBody{Error: appErr})
}

func decodeJSON(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return apperr.Validation("request body is required", nil)
		}
		return apperr.Validation("invalid json", map[string]any{"error": err.Error()})
	}
	return nil
}
