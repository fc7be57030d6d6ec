package rewards

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

// Credit adds coins to the user's balance, at most once per order. The
// reward_credits row is the idempotency guard; replays are no-ops.
func (r *Repo) Credit(ctx context.Context, userID, orderID string, coins int64) (bool, error) {
	tx, err := r.DB.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	ct, err := tx.Exec(ctx, `
		INSERT INTO reward_credits(order_id, user_id, coins)
		VALUES ($1, $2, $3)
		ON CONFLICT (order_id) DO NOTHING`, orderID, userID, coins)
	if err != nil {
		return false, err
	}
	if ct.RowsAffected() == 0 {
		return false, nil // already credited for this order
	}

	if _, err := tx.Exec(ctx, `
		INSERT INTO user_rewards(user_id, coins)
		VALUES ($1, $2)
		ON CONFLICT (user_id) DO UPDATE SET coins = user_rewards.coins + EXCLUDED.coins, updated_at = now()`,
		userID, coins); err != nil {
		return false, err
	}

	return true, tx.Commit(ctx)
}

func (r *Repo) Balance(ctx context.Context, userID string) (int64, error) {
	var coins int64
	err := r.DB.QueryRow(ctx, `SELECT coins FROM user_rewards WHERE user_id = $1`, userID).Scan(&coins)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	return coins, err
}
