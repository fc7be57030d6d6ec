package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/dotcomdgadgets/dotcombackend/internal/auth"
	"github.com/dotcomdgadgets/dotcombackend/internal/orders"
	"github.com/dotcomdgadgets/dotcombackend/internal/payments"
)

type PaymentsHandler struct {
	Gateway payments.Gateway
	Service OrderService
	Auth    *auth.Middleware
	Logger  *zap.Logger
}

type createIntentReq struct {
	Amount decimal.Decimal `json:"amount"`
}

type verifyReq struct {
	GatewayOrderID   string `json:"gatewayOrderId"`
	GatewayPaymentID string `json:"gatewayPaymentId"`
	Signature        string `json:"signature"`
	AddressID        string `json:"addressId"`
}

func (h *PaymentsHandler) Register(r *chi.Mux) {
	r.Group(func(r chi.Router) {
		r.Use(h.Auth.RequireAuth)
		r.Post("/payments/order", h.createIntent)
		r.Post("/payments/verify", h.verify)
	})
}

func (h *PaymentsHandler) createIntent(w http.ResponseWriter, r *http.Request) {
	var req createIntentReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid json")
		return
	}
	if !req.Amount.IsPositive() {
		writeErrorMsg(w, http.StatusBadRequest, "amount must be positive")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	in, err := h.Gateway.CreateIntent(ctx, req.Amount)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Error("payment intent creation failed", zap.Error(err))
		}
		writeErrorMsg(w, http.StatusInternalServerError, "payment order creation failed")
		return
	}
	writeJSON(w, http.StatusOK, in)
}

// verify confirms the gateway callback and, on a valid signature, places
// the order as an online payment.
func (h *PaymentsHandler) verify(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	var req verifyReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.GatewayOrderID == "" || req.GatewayPaymentID == "" || req.Signature == "" || req.AddressID == "" {
		writeErrorMsg(w, http.StatusBadRequest, "missing fields")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Service.PlaceOrder(ctx, id.UserID, orders.PlaceOrderInput{
		AddressID:     req.AddressID,
		PaymentMethod: orders.PaymentOnline,
		Proof: &payments.Proof{
			GatewayOrderID:   req.GatewayOrderID,
			GatewayPaymentID: req.GatewayPaymentID,
			Signature:        req.Signature,
		},
		TraceID: r.Header.Get("X-Request-Id"),
	})
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"message": "payment verified", "order": o})
}
