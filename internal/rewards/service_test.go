package rewards

import (
	"context"
	"errors"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	kafkax "github.com/dotcomdgadgets/dotcombackend/internal/kafka"
	"github.com/dotcomdgadgets/dotcombackend/internal/orders"
)

type mockLedger struct {
	credited map[string]int64 // order_id -> coins
}

func (m *mockLedger) Credit(_ context.Context, _, orderID string, coins int64) (bool, error) {
	if _, ok := m.credited[orderID]; ok {
		return false, nil
	}
	m.credited[orderID] = coins
	return true, nil
}

func createdMessage(t *testing.T, paymentStatus, grandTotal string) kafkago.Message {
	t.Helper()
	ev := orders.Envelope{
		EventID:      "ev-1",
		EventType:    orders.EventOrderCreated,
		EventVersion: 1,
		OccurredAt:   time.Now().UTC(),
		Producer:     "shop-api-test",
		Payload: kafkax.MustMarshal(orders.OrderCreatedPayload{
			OrderID:       "o1",
			UserID:        "user-1",
			PaymentMethod: "Online",
			PaymentStatus: paymentStatus,
			GrandTotal:    grandTotal,
		}),
	}
	return kafkago.Message{Value: kafkax.MustMarshal(ev)}
}

func TestHandleOrderCreated_CreditsPaidOrder(t *testing.T) {
	ledger := &mockLedger{credited: map[string]int64{}}
	svc := &Service{Ledger: ledger, ServiceName: "rewards-test"}

	err := svc.HandleOrderCreated(context.Background(), createdMessage(t, "Paid", "1209"))

	require.NoError(t, err)
	assert.EqualValues(t, 12, ledger.credited["o1"])
}

func TestHandleOrderCreated_SkipsPendingPayment(t *testing.T) {
	ledger := &mockLedger{credited: map[string]int64{}}
	svc := &Service{Ledger: ledger}

	err := svc.HandleOrderCreated(context.Background(), createdMessage(t, "Pending", "1209"))

	require.NoError(t, err)
	assert.Empty(t, ledger.credited)
}

func TestHandleOrderCreated_SmallOrderEarnsNothing(t *testing.T) {
	ledger := &mockLedger{credited: map[string]int64{}}
	svc := &Service{Ledger: ledger}

	err := svc.HandleOrderCreated(context.Background(), createdMessage(t, "Paid", "99.99"))

	require.NoError(t, err)
	assert.Empty(t, ledger.credited)
}

func TestHandleOrderCreated_RedeliveryIsIdempotent(t *testing.T) {
	ledger := &mockLedger{credited: map[string]int64{}}
	svc := &Service{Ledger: ledger}

	msg := createdMessage(t, "Paid", "550")
	require.NoError(t, svc.HandleOrderCreated(context.Background(), msg))
	require.NoError(t, svc.HandleOrderCreated(context.Background(), msg))

	assert.EqualValues(t, 5, ledger.credited["o1"])
	assert.Len(t, ledger.credited, 1)
}

type flakyLedger struct {
	failures int
	credited map[string]int64
}

func (m *flakyLedger) Credit(_ context.Context, _, orderID string, coins int64) (bool, error) {
	if m.failures > 0 {
		m.failures--
		return false, errors.New("ledger tx failed")
	}
	m.credited[orderID] = coins
	return true, nil
}

func TestHandleOrderCreated_TransientCreditErrorRetries(t *testing.T) {
	ledger := &flakyLedger{failures: 1, credited: map[string]int64{}}
	svc := &Service{Ledger: ledger}
	msg := createdMessage(t, "Paid", "1209")

	// the failed attempt must surface so the offset is not committed
	require.Error(t, svc.HandleOrderCreated(context.Background(), msg))

	// the redelivery must still be able to credit
	require.NoError(t, svc.HandleOrderCreated(context.Background(), msg))
	assert.EqualValues(t, 12, ledger.credited["o1"])
}

func TestHandleOrderCreated_IgnoresOtherEvents(t *testing.T) {
	ledger := &mockLedger{credited: map[string]int64{}}
	svc := &Service{Ledger: ledger}

	ev := orders.Envelope{
		EventID:   "ev-2",
		EventType: orders.EventOrderStatusChanged,
		Payload:   kafkax.MustMarshal(orders.OrderStatusChangedPayload{OrderID: "o1"}),
	}
	err := svc.HandleOrderCreated(context.Background(), kafkago.Message{Value: kafkax.MustMarshal(ev)})

	require.NoError(t, err)
	assert.Empty(t, ledger.credited)
}
