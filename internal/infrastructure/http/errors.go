package httptransport

import (
	"encoding/json"
	"errors"
	"net/http"

	appcart "github.com/storefront-labs/checkout/internal/application/cart"
	"github.com/storefront-labs/checkout/internal/domain/catalog"
	"github.com/storefront-labs/checkout/internal/domain/challenge"
	"github.com/storefront-labs/checkout/internal/domain/order"
)

type errorResponse struct {
	Kind  string `json:"kind"`
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, kind string, err error) {
	writeJSON(w, status, errorResponse{Kind: kind, Error: err.Error()})
}

// writeDomainError maps every failure to a stable machine-readable kind.
func writeDomainError(w http.ResponseWriter, err error) {
	var validationErr *appcart.ValidationError
	var stockErr *appcart.InsufficientStockError

	switch {
	case errors.As(err, &validationErr):
		writeError(w, http.StatusBadRequest, "validation", err)
	case errors.As(err, &stockErr):
		writeError(w, http.StatusBadRequest, "insufficient_stock", err)
	case errors.Is(err, order.ErrNotFound), errors.Is(err, catalog.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err)
	case errors.Is(err, order.ErrAlreadyPaid):
		writeError(w, http.StatusConflict, "already_paid", err)
	case errors.Is(err, challenge.ErrNoChallenge):
		writeError(w, http.StatusBadRequest, "no_challenge", err)
	case errors.Is(err, challenge.ErrExpired):
		writeError(w, http.StatusBadRequest, "challenge_expired", err)
	case errors.Is(err, challenge.ErrCodeMismatch):
		writeError(w, http.StatusBadRequest, "code_mismatch", err)
	case errors.Is(err, catalog.ErrInvalidName),
		errors.Is(err, catalog.ErrInvalidPrice),
		errors.Is(err, catalog.ErrInvalidStock),
		errors.Is(err, catalog.ErrEmptyPatch):
		writeError(w, http.StatusBadRequest, "validation", err)
	case errors.Is(err, order.ErrEmptyItems), errors.Is(err, order.ErrInvalidQuantity):
		writeError(w, http.StatusBadRequest, "validation", err)
	default:
		writeError(w, http.StatusInternalServerError, "internal", err)
	}
}
