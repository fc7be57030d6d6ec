package httpx

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dotcomdgadgets/dotcombackend/internal/auth"
	"github.com/dotcomdgadgets/dotcombackend/internal/catalog"
	"github.com/dotcomdgadgets/dotcombackend/internal/orders"
)

var testSecret = []byte("debug_secret")

func mintToken(t *testing.T, sub, role string) string {
	t.Helper()
	claims := auth.Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   sub,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testSecret)
	require.NoError(t, err)
	return s
}

type stubOrderService struct {
	placeUser string
	placeIn   orders.PlaceOrderInput
	placeOut  *orders.Order
	placeErr  error

	getOut *orders.Order
	getErr error

	listOut []orders.Order
	listErr error

	updateTo  orders.Status
	updateOut *orders.Order
	updateErr error
}

func (s *stubOrderService) PlaceOrder(_ context.Context, userID string, in orders.PlaceOrderInput) (*orders.Order, error) {
	s.placeUser, s.placeIn = userID, in
	return s.placeOut, s.placeErr
}

func (s *stubOrderService) Get(_ context.Context, _ string, _ bool, _ string) (*orders.Order, error) {
	return s.getOut, s.getErr
}

func (s *stubOrderService) ListMine(_ context.Context, _ string) ([]orders.Order, error) {
	return s.listOut, s.listErr
}

func (s *stubOrderService) UpdateStatus(_ context.Context, _ string, to orders.Status, _ string) (*orders.Order, error) {
	s.updateTo = to
	return s.updateOut, s.updateErr
}

func newTestRouter(svc *stubOrderService) http.Handler {
	r := NewRouter()
	h := &OrdersHandler{Service: svc, Auth: &auth.Middleware{Secret: testSecret}}
	h.Register(r)
	return r
}

func do(t *testing.T, h http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestCreateOrder(t *testing.T) {
	svc := &stubOrderService{placeOut: &orders.Order{
		ID:     "order-1",
		UserID: "user-1",
		Status: orders.StatusPending,
	}}
	router := newTestRouter(svc)

	rec := do(t, router, http.MethodPost, "/orders", mintToken(t, "user-1", "user"),
		`{"addressId":"addr-1","paymentMethod":"COD"}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "user-1", svc.placeUser)
	assert.Equal(t, "addr-1", svc.placeIn.AddressID)
	assert.Equal(t, orders.PaymentCOD, svc.placeIn.PaymentMethod)

	var got orders.Order
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "order-1", got.ID)
}

func TestCreateOrder_MissingFields(t *testing.T) {
	svc := &stubOrderService{}
	router := newTestRouter(svc)

	rec := do(t, router, http.MethodPost, "/orders", mintToken(t, "user-1", "user"),
		`{"paymentMethod":"COD"}`)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, svc.placeUser)
}

func TestCreateOrder_Unauthenticated(t *testing.T) {
	router := newTestRouter(&stubOrderService{})
	rec := do(t, router, http.MethodPost, "/orders", "", `{"addressId":"a","paymentMethod":"COD"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateOrder_ErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
	}{
		{"empty cart", orders.ErrCartEmpty, http.StatusBadRequest},
		{"insufficient stock", &catalog.InsufficientStockError{ProductID: "p1", Requested: 3, Available: 1}, http.StatusConflict},
		{"bad method", orders.ErrInvalidPaymentMethod, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := &stubOrderService{placeErr: tc.err}
			router := newTestRouter(svc)
			rec := do(t, router, http.MethodPost, "/orders", mintToken(t, "user-1", "user"),
				`{"addressId":"addr-1","paymentMethod":"COD"}`)
			assert.Equal(t, tc.code, rec.Code)
		})
	}
}

func TestGetStatus(t *testing.T) {
	svc := &stubOrderService{getOut: &orders.Order{ID: "order-1", UserID: "user-1", Status: orders.StatusShipped}}
	router := newTestRouter(svc)

	rec := do(t, router, http.MethodGet, "/orders/order-1/status", mintToken(t, "user-1", "user"), "")

	require.Equal(t, http.StatusOK, rec.Code)
	var got map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "Shipped", got["status"])
}

func TestGetStatus_OtherUserForbidden(t *testing.T) {
	svc := &stubOrderService{getErr: orders.ErrForbidden}
	router := newTestRouter(svc)

	rec := do(t, router, http.MethodGet, "/orders/order-1/status", mintToken(t, "someone-else", "user"), "")

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestStatusCacheKeyScopedToUser(t *testing.T) {
	// a status cached for the owner must never be a hit for another user
	owner := statusCacheKey("order-1", "owner")
	other := statusCacheKey("order-1", "someone-else")

	assert.NotEqual(t, owner, other)
	assert.Equal(t, owner, statusCacheKey("order-1", "owner"))
}

func TestUpdateStatus_AdminOnly(t *testing.T) {
	svc := &stubOrderService{updateOut: &orders.Order{ID: "order-1", Status: orders.StatusConfirmed}}
	router := newTestRouter(svc)

	rec := do(t, router, http.MethodPut, "/orders/order-1/status", mintToken(t, "user-1", "user"),
		`{"status":"Confirmed"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(t, router, http.MethodPut, "/orders/order-1/status", mintToken(t, "admin-1", auth.RoleAdmin),
		`{"status":"Confirmed"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, orders.StatusConfirmed, svc.updateTo)
}

func TestUpdateStatus_InvalidTransition(t *testing.T) {
	svc := &stubOrderService{updateErr: orders.ErrInvalidTransition}
	router := newTestRouter(svc)

	rec := do(t, router, http.MethodPut, "/orders/order-1/status", mintToken(t, "admin-1", auth.RoleAdmin),
		`{"status":"Delivered"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestListMine(t *testing.T) {
	svc := &stubOrderService{listOut: []orders.Order{{ID: "o1"}, {ID: "o2"}}}
	router := newTestRouter(svc)

	rec := do(t, router, http.MethodGet, "/orders/mine", mintToken(t, "user-1", "user"), "")

	require.Equal(t, http.StatusOK, rec.Code)
	var got struct {
		Orders []orders.Order `json:"orders"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got.Orders, 2)
}
