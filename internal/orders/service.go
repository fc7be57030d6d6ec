package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	kafkago "github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/dotcomdgadgets/dotcombackend/internal/addresses"
	"github.com/dotcomdgadgets/dotcombackend/internal/cart"
	"github.com/dotcomdgadgets/dotcombackend/internal/catalog"
	kafkax "github.com/dotcomdgadgets/dotcombackend/internal/kafka"
	"github.com/dotcomdgadgets/dotcombackend/internal/payments"
	"github.com/dotcomdgadgets/dotcombackend/internal/pricing"
)

type AddressBook interface {
	Get(ctx context.Context, userID, addressID string) (*addresses.Address, error)
}

type CartStore interface {
	Items(ctx context.Context, userID string) ([]cart.Item, error)
	Clear(ctx context.Context, userID string) error
}

type ProductCatalog interface {
	InfoByID(ctx context.Context, ids []string) (map[string]catalog.Info, error)
}

type Store interface {
	Create(ctx context.Context, o *Order) error
	Get(ctx context.Context, orderID string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	SetStatus(ctx context.Context, orderID string, from, to Status) error
}

type PaymentVerifier interface {
	Verify(ctx context.Context, userID string, p payments.Proof) error
}

type Publisher interface {
	Publish(key, value []byte, headers ...kafkago.Header)
}

type Service struct {
	Addresses AddressBook
	Cart      CartStore
	Catalog   ProductCatalog
	Store     Store
	Verifier  PaymentVerifier

	CreatedEvents Publisher
	StatusEvents  Publisher

	ServiceName string
	Logger      *zap.Logger
}

type PlaceOrderInput struct {
	AddressID     string
	PaymentMethod PaymentMethod
	Proof         *payments.Proof
	TraceID       string
}

// PlaceOrder turns the user's mutable cart into an immutable, priced,
// stock-reserved order. Reservation, order persistence and the success
// audit row commit together inside the store; the cart is cleared only
// after that commit.
func (s *Service) PlaceOrder(ctx context.Context, userID string, in PlaceOrderInput) (*Order, error) {
	switch in.PaymentMethod {
	case PaymentCOD:
	case PaymentOnline:
		if in.Proof == nil {
			return nil, ErrMissingPaymentProof
		}
	default:
		return nil, ErrInvalidPaymentMethod
	}

	addr, err := s.Addresses.Get(ctx, userID, in.AddressID)
	if err != nil {
		return nil, err
	}

	lines, err := s.buildSnapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.PaymentMethod == PaymentOnline {
		if err := s.Verifier.Verify(ctx, userID, *in.Proof); err != nil {
			return nil, err
		}
	}

	breakdown := pricing.Compute(toPricingLines(lines))

	o := &Order{
		ID:            uuid.NewString(),
		UserID:        userID,
		Items:         lines,
		Address:       snapshotAddress(addr),
		PaymentMethod: in.PaymentMethod,
		PaymentStatus: PaymentPending,
		Status:        StatusPending,
		Breakdown:     breakdown,
	}
	if in.PaymentMethod == PaymentOnline {
		o.PaymentStatus = PaymentPaid
		o.GatewayOrderID = in.Proof.GatewayOrderID
		o.GatewayPaymentID = in.Proof.GatewayPaymentID
	}

	if err := s.Store.Create(ctx, o); err != nil {
		return nil, err
	}

	if err := s.Cart.Clear(ctx, userID); err != nil && s.Logger != nil {
		// the order stands; a stale cart is recoverable
		s.Logger.Warn("clear cart after order", zap.String("user_id", userID), zap.Error(err))
	}

	s.publishCreated(o, in.TraceID)
	return o, nil
}

// buildSnapshot reads the live cart and freezes it into order lines,
// silently dropping lines whose product no longer exists.
func (s *Service) buildSnapshot(ctx context.Context, userID string) ([]Line, error) {
	items, err := s.Cart.Items(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrCartEmpty
	}

	ids := make([]string, 0, len(items))
	for _, it := range items {
		ids = append(ids, it.ProductID)
	}
	known, err := s.Catalog.InfoByID(ctx, ids)
	if err != nil {
		return nil, err
	}

	lines := make([]Line, 0, len(items))
	for _, it := range items {
		if _, ok := known[it.ProductID]; !ok {
			continue
		}
		lines = append(lines, Line{
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.PriceAtAdd,
			Size:      it.Size,
		})
	}
	if len(lines) == 0 {
		return nil, ErrCartEmpty
	}
	return lines, nil
}

// Get returns one order. Only the owner or an admin may read it.
func (s *Service) Get(ctx context.Context, userID string, isAdmin bool, orderID string) (*Order, error) {
	o, err := s.Store.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if o.UserID != userID && !isAdmin {
		return nil, ErrForbidden
	}
	return o, nil
}

func (s *Service) ListMine(ctx context.Context, userID string) ([]Order, error) {
	return s.Store.ListByUser(ctx, userID)
}

// UpdateStatus moves an order along the fulfillment lifecycle. Jumps the
// transition table does not allow are rejected.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, to Status, traceID string) (*Order, error) {
	if !ValidStatus(to) {
		return nil, ErrInvalidStatus
	}
	o, err := s.Store.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !CanTransition(o.Status, to) {
		return nil, ErrInvalidTransition
	}
	if err := s.Store.SetStatus(ctx, orderID, o.Status, to); err != nil {
		return nil, err
	}
	from := o.Status

	o, err = s.Store.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	s.publishStatusChanged(o, from, to, traceID)
	return o, nil
}

func (s *Service) publishCreated(o *Order, traceID string) {
	if s.CreatedEvents == nil {
		return
	}
	items := make([]ItemQty, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, ItemQty{ProductID: it.ProductID, Qty: it.Quantity})
	}
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     EventOrderCreated,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.ServiceName,
		TraceID:       traceID,
		CorrelationID: o.ID,
		Payload: kafkax.MustMarshal(OrderCreatedPayload{
			OrderID:       o.ID,
			UserID:        o.UserID,
			PaymentMethod: string(o.PaymentMethod),
			PaymentStatus: string(o.PaymentStatus),
			GrandTotal:    o.Breakdown.GrandTotal.String(),
			Items:         items,
		}),
	}
	s.CreatedEvents.Publish(PartitionKey(o.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(EventOrderCreated)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func (s *Service) publishStatusChanged(o *Order, from, to Status, traceID string) {
	if s.StatusEvents == nil {
		return
	}
	ev := Envelope{
		EventID:       uuid.NewString(),
		EventType:     EventOrderStatusChanged,
		EventVersion:  1,
		OccurredAt:    time.Now().UTC(),
		Producer:      s.ServiceName,
		TraceID:       traceID,
		CorrelationID: o.ID,
		Payload: kafkax.MustMarshal(OrderStatusChangedPayload{
			OrderID: o.ID,
			UserID:  o.UserID,
			From:    string(from),
			To:      string(to),
		}),
	}
	s.StatusEvents.Publish(PartitionKey(o.ID), kafkax.MustMarshal(ev),
		kafkago.Header{Key: "x-event-type", Value: []byte(EventOrderStatusChanged)},
		kafkago.Header{Key: "x-event-version", Value: []byte("1")},
	)
}

func toPricingLines(lines []Line) []pricing.Line {
	out := make([]pricing.Line, 0, len(lines))
	for _, l := range lines {
		out = append(out, pricing.Line{Price: l.Price, Quantity: l.Quantity})
	}
	return out
}

func snapshotAddress(a *addresses.Address) AddressSnapshot {
	return AddressSnapshot{
		FullName: a.FullName,
		Phone:    a.Phone,
		HouseNo:  a.HouseNo,
		Area:     a.Area,
		City:     a.City,
		State:    a.State,
		Pincode:  a.Pincode,
		Landmark: a.Landmark,
	}
}
