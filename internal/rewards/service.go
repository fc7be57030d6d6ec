package rewards

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	kafkax "github.com/dotcomdgadgets/dotcombackend/internal/kafka"
	"github.com/dotcomdgadgets/dotcombackend/internal/orders"
	"github.com/dotcomdgadgets/dotcombackend/internal/redisx"
)

// 1 coin per 100 currency units of the charged amount.
var coinDivisor = decimal.NewFromInt(100)

type Ledger interface {
	Credit(ctx context.Context, userID, orderID string, coins int64) (bool, error)
}

// Service credits reward coins when a paid order is created. It consumes
// order.created and is idempotent: Redis dedups event redeliveries, the
// ledger dedups per order.
type Service struct {
	Ledger      Ledger
	Redis       *redis.Client
	ServiceName string
	Logger      *zap.Logger
}

func (s *Service) HandleOrderCreated(ctx context.Context, m kafkago.Message) error {
	var env orders.Envelope
	if err := json.Unmarshal(m.Value, &env); err != nil {
		return err
	}
	if env.EventType != orders.EventOrderCreated {
		return nil
	}

	dkey := fmt.Sprintf(redisx.KeyDedup, "rewards", env.EventID)
	if s.Redis != nil {
		if exists, _ := redisx.Exists(ctx, s.Redis, dkey); exists {
			return nil
		}
	}

	p, err := kafkax.UnwrapPayload[orders.OrderCreatedPayload](env.Payload)
	if err != nil {
		return err
	}
	if p.PaymentStatus != string(orders.PaymentPaid) {
		return nil // COD earns coins once payment is collected, not at creation
	}

	grand, err := decimal.NewFromString(p.GrandTotal)
	if err != nil {
		return fmt.Errorf("bad grand total %q: %w", p.GrandTotal, err)
	}
	coins := grand.Div(coinDivisor).Floor().IntPart()
	if coins <= 0 {
		return nil
	}

	credited, err := s.Ledger.Credit(ctx, p.UserID, p.OrderID, coins)
	if err != nil {
		// no dedup mark: the redelivery must get another chance to credit
		return err
	}
	if s.Redis != nil {
		_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
	}
	if credited && s.Logger != nil {
		s.Logger.Info("reward coins credited",
			zap.String("order_id", p.OrderID),
			zap.String("user_id", p.UserID),
			zap.Int64("coins", coins),
		)
	}
	return nil
}
