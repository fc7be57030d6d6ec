package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dotcomdgadgets/dotcombackend/internal/auth"
	"github.com/dotcomdgadgets/dotcombackend/internal/orders"
	"github.com/dotcomdgadgets/dotcombackend/internal/payments"
	"github.com/dotcomdgadgets/dotcombackend/internal/redisx"
)

// OrderService is the slice of the orders service the handlers need.
type OrderService interface {
	PlaceOrder(ctx context.Context, userID string, in orders.PlaceOrderInput) (*orders.Order, error)
	Get(ctx context.Context, userID string, isAdmin bool, orderID string) (*orders.Order, error)
	ListMine(ctx context.Context, userID string) ([]orders.Order, error)
	UpdateStatus(ctx context.Context, orderID string, to orders.Status, traceID string) (*orders.Order, error)
}

type OrdersHandler struct {
	Service OrderService
	Redis   *redis.Client
	Auth    *auth.Middleware
	Logger  *zap.Logger
}

type createOrderReq struct {
	AddressID     string          `json:"addressId"`
	PaymentMethod string          `json:"paymentMethod"`
	PaymentProof  *payments.Proof `json:"paymentProof,omitempty"`
}

type updateStatusReq struct {
	Status string `json:"status"`
}

func (h *OrdersHandler) Register(r *chi.Mux) {
	r.Group(func(r chi.Router) {
		r.Use(h.Auth.RequireAuth)
		r.Post("/orders", h.create)
		r.Get("/orders/mine", h.listMine)
		r.Get("/orders/{id}", h.get)
		r.Get("/orders/{id}/status", h.getStatus)
		r.With(auth.RequireAdmin).Put("/orders/{id}/status", h.updateStatus)
	})
}

func (h *OrdersHandler) create(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	var req createOrderReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.AddressID == "" || req.PaymentMethod == "" {
		writeErrorMsg(w, http.StatusBadRequest, "addressId and paymentMethod are required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Service.PlaceOrder(ctx, id.UserID, orders.PlaceOrderInput{
		AddressID:     req.AddressID,
		PaymentMethod: orders.PaymentMethod(req.PaymentMethod),
		Proof:         req.PaymentProof,
		TraceID:       r.Header.Get("X-Request-Id"),
	})
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}

	h.cacheStatus(ctx, o)
	writeJSON(w, http.StatusCreated, o)
}

func (h *OrdersHandler) listMine(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	list, err := h.Service.ListMine(ctx, id.UserID)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"orders": list})
}

func (h *OrdersHandler) get(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	orderID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	o, err := h.Service.Get(ctx, id.UserID, id.IsAdmin(), orderID)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"order": o})
}

// getStatus serves the lightweight fulfillment status, cache first.
func (h *OrdersHandler) getStatus(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	orderID := chi.URLParam(r, "id")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if h.Redis != nil {
		if s, err := h.Redis.Get(ctx, statusCacheKey(orderID, id.UserID)).Result(); err == nil && s != "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			_, _ = w.Write([]byte(s))
			return
		}
	}

	o, err := h.Service.Get(ctx, id.UserID, id.IsAdmin(), orderID)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	h.cacheStatus(ctx, o)
	writeJSON(w, http.StatusOK, map[string]string{"status": string(o.Status)})
}

func (h *OrdersHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	orderID := chi.URLParam(r, "id")

	var req updateStatusReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	o, err := h.Service.UpdateStatus(ctx, orderID, orders.Status(req.Status), r.Header.Get("X-Request-Id"))
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}

	h.cacheStatus(ctx, o)
	writeJSON(w, http.StatusOK, map[string]any{"message": "status updated", "order": o})
}

// statusCacheKey scopes cached statuses to the order's owner; any other
// caller misses the cache and goes through the ownership check in the
// service.
func statusCacheKey(orderID, userID string) string {
	return fmt.Sprintf(redisx.KeyOrderStatus, orderID, userID)
}

func (h *OrdersHandler) cacheStatus(ctx context.Context, o *orders.Order) {
	if h.Redis == nil {
		return
	}
	body, _ := json.Marshal(map[string]string{"status": string(o.Status)})
	_ = h.Redis.Set(ctx, statusCacheKey(o.ID, o.UserID), body, redisx.TTLStatusCache).Err()
}
