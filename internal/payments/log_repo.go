package payments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	StatusSuccess = "SUCCESS"
	StatusFailed  = "FAILED"
)

// Attempt is one row of the append-only payment audit log. Rows are never
// updated or deleted.
type Attempt struct {
	ID               string    `json:"id"`
	UserID           string    `json:"userId"`
	GatewayOrderID   string    `json:"gatewayOrderId"`
	GatewayPaymentID string    `json:"gatewayPaymentId"`
	Status           string    `json:"status"`
	Reason           string    `json:"reason,omitempty"`
	CreatedAt        time.Time `json:"createdAt"`
}

// Execer lets the same insert run on the pool (FAILED rows must survive any
// enclosing rollback) or inside the checkout transaction (SUCCESS rows).
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

func AppendAttempt(ctx context.Context, db Execer, a Attempt) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	_, err := db.Exec(ctx, `
		INSERT INTO payment_logs(id, user_id, gateway_order_id, gateway_payment_id, status, reason)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		a.ID, a.UserID, a.GatewayOrderID, a.GatewayPaymentID, a.Status, a.Reason)
	return err
}

type LogRepo struct{ DB *pgxpool.Pool }

func (r *LogRepo) Append(ctx context.Context, a Attempt) error {
	return AppendAttempt(ctx, r.DB, a)
}
