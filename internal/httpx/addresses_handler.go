package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/dotcomdgadgets/dotcombackend/internal/addresses"
	"github.com/dotcomdgadgets/dotcombackend/internal/auth"
)

type AddressesHandler struct {
	Addresses *addresses.Repo
	Auth      *auth.Middleware
	Logger    *zap.Logger
}

type createAddressReq struct {
	FullName  string `json:"fullName"`
	Phone     string `json:"phone"`
	HouseNo   string `json:"houseNo"`
	Area      string `json:"area"`
	City      string `json:"city"`
	State     string `json:"state"`
	Pincode   string `json:"pincode"`
	Landmark  string `json:"landmark"`
	IsDefault bool   `json:"isDefault"`
}

func (h *AddressesHandler) Register(r *chi.Mux) {
	r.Group(func(r chi.Router) {
		r.Use(h.Auth.RequireAuth)
		r.Get("/addresses", h.list)
		r.Post("/addresses", h.create)
		r.Delete("/addresses/{id}", h.remove)
	})
}

func (h *AddressesHandler) list(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	list, err := h.Addresses.ListByUser(ctx, id.UserID)
	if err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *AddressesHandler) create(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	var req createAddressReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErrorMsg(w, http.StatusBadRequest, "invalid json")
		return
	}
	if req.FullName == "" || req.Phone == "" || req.HouseNo == "" || req.Area == "" ||
		req.City == "" || req.State == "" || req.Pincode == "" {
		writeErrorMsg(w, http.StatusBadRequest, "missing required address fields")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	a := &addresses.Address{
		UserID:    id.UserID,
		FullName:  req.FullName,
		Phone:     req.Phone,
		HouseNo:   req.HouseNo,
		Area:      req.Area,
		City:      req.City,
		State:     req.State,
		Pincode:   req.Pincode,
		Landmark:  req.Landmark,
		IsDefault: req.IsDefault,
	}
	if err := h.Addresses.Create(ctx, a); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, a)
}

func (h *AddressesHandler) remove(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	if err := h.Addresses.Delete(ctx, id.UserID, chi.URLParam(r, "id")); err != nil {
		writeError(w, h.Logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "address deleted"})
}
