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
	"github.com/dotcomdgadgets/dotcombackend/internal/cart"
	"github.com/dotcomdgadgets/dotcombackend/internal/catalog"
)

type CartHandler struct {
	Cart    *cart.Store
	Catalog *catalog.Repo
	Auth    *auth.Middleware
	Logger  *zap.Logger
}

type addToCartReq struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
	Size      string `json:"size"`
}

type setQtyReq struct {
	Quantity int `json:"quantity"`
}

type cartLineResp struct {
	ProductID   string          `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	Size        string          `json:"size"`
	PriceAtAdd  decimal.Decimal `json:"priceAtAddTime"`
}

func (h *CartHandler) Register(r *chi.Mux) {
	r.Group(func(r chi.Router) {
		r.Use(h.Auth.RequireAuth)
		r.Post("/cart", h.add)
		r.Get("/cart", h.get)
		r.Put("/cart/{productId}", h.setQuantity)
		r.Delete("/cart/{productId}", h.remove)
	})
}

func (h *CartHandler) add(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	var req addToCartReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.ProductID == "" {
		writeErrorMsg(w, http.StatusBadRequest, "productId is required")
		return
	}
	if req.Quantity < 1 {
		req.Quantity = 1
	}
	if req.Size == "" {
		req.Size = "M"
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	p, err := h.Catalog.Get(ctx, req.ProductID)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}

	err = h.Cart.Add(ctx, id.UserID, cart.Item{
		ProductID:  p.ID,
		Quantity:   req.Quantity,
		Size:       req.Size,
		PriceAtAdd: p.Price, // price snapshot at add time
	})
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}

	h.respondCart(ctx, w, id.UserID)
}

func (h *CartHandler) get(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	h.respondCart(ctx, w, id.UserID)
}

func (h *CartHandler) setQuantity(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	productID := chi.URLParam(r, "productId")

	var req setQtyReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid json")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Cart.SetQuantity(ctx, id.UserID, productID, req.Quantity); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	h.respondCart(ctx, w, id.UserID)
}

func (h *CartHandler) remove(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	productID := chi.URLParam(r, "productId")

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Cart.Remove(ctx, id.UserID, productID); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	h.respondCart(ctx, w, id.UserID)
}

// respondCart returns the cart after a hygiene pass: lines whose product
// was deleted are dropped from storage, not surfaced as errors.
func (h *CartHandler) respondCart(ctx context.Context, w http.ResponseWriter, userID string) {
	items, err := h.Cart.Items(ctx, userID)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}

	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	known, err := h.Catalog.InfoByID(ctx, ids)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}

	var dead []string
	out := make([]cartLineResp, 0, len(items))
	for _, it := range items {
		info, ok := known[it.ProductID]
		if !ok {
			dead = append(dead, it.ProductID)
			continue
		}
		out = append(out, cartLineResp{
			ProductID:   it.ProductID,
			ProductName: info.Name,
			Quantity:    it.Quantity,
			Size:        it.Size,
			PriceAtAdd:  it.PriceAtAdd,
		})
	}
	if len(dead) > 0 {
		if err := h.Cart.RemoveMany(ctx, userID, dead); err != nil && h.Logger != nil {
			h.Logger.Warn("cart hygiene pass", zap.String("user_id", userID), zap.Error(err))
		}
	}

	writeJSON(w, http.StatusOK, out)
}
