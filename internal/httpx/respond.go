package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/dotcomdgadgets/dotcombackend/internal/addresses"
	"github.com/dotcomdgadgets/dotcombackend/internal/cart"
	"github.com/dotcomdgadgets/dotcombackend/internal/catalog"
	"github.com/dotcomdgadgets/dotcombackend/internal/orders"
	"github.com/dotcomdgadgets/dotcombackend/internal/payments"
)

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorMsg(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

// writeError maps domain errors to HTTP statuses. Checkout failures carry a
// specific, actionable message; everything unexpected stays a generic 500
// so internal state never leaks.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	var stockErr *catalog.InsufficientStockError
	switch {
	case errors.Is(err, orders.ErrCartEmpty):
		writeErrorMsg(w, http.StatusBadRequest, "cart is empty")
	case errors.Is(err, addresses.ErrNotFound):
		writeErrorMsg(w, http.StatusNotFound, "address not found")
	case errors.Is(err, orders.ErrOrderNotFound):
		writeErrorMsg(w, http.StatusNotFound, "order not found")
	case errors.Is(err, catalog.ErrProductNotFound):
		writeErrorMsg(w, http.StatusNotFound, "product not found")
	case errors.Is(err, cart.ErrItemNotFound):
		writeErrorMsg(w, http.StatusNotFound, "cart item not found")
	case errors.As(err, &stockErr):
		writeErrorMsg(w, http.StatusConflict, stockErr.Error())
	case errors.Is(err, payments.ErrSignatureMismatch):
		writeErrorMsg(w, http.StatusBadRequest, "invalid payment signature")
	case errors.Is(err, orders.ErrInvalidStatus):
		writeErrorMsg(w, http.StatusBadRequest, "invalid status")
	case errors.Is(err, orders.ErrInvalidTransition):
		writeErrorMsg(w, http.StatusBadRequest, "invalid status transition")
	case errors.Is(err, orders.ErrInvalidPaymentMethod):
		writeErrorMsg(w, http.StatusBadRequest, "payment method must be COD or Online")
	case errors.Is(err, orders.ErrMissingPaymentProof):
		writeErrorMsg(w, http.StatusBadRequest, "payment proof required for online payment")
	case errors.Is(err, orders.ErrForbidden):
		writeErrorMsg(w, http.StatusForbidden, "not allowed")
	default:
		if logger != nil {
			logger.Error("request failed", zap.Error(err))
		}
		writeErrorMsg(w, http.StatusInternalServerError, "server error")
	}
}
