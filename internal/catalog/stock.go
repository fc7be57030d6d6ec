package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the slice of pgx that stock adjustments need; both *pgxpool.Pool
// and pgx.Tx satisfy it, so reservations can join a caller's transaction.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// InsufficientStockError names the first product that could not be reserved.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// Reservation is one line of a stock reservation request.
type Reservation struct {
	ProductID string
	Quantity  int
}

// Reserve decrements stock for a single product. The guard in the UPDATE is
// what keeps stock non-negative under concurrent checkouts; there is no
// read-then-write anywhere.
func Reserve(ctx context.Context, db DB, productID string, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("invalid quantity %d for product %s", qty, productID)
	}
	ct, err := db.Exec(ctx, `
		UPDATE products SET stock = stock - $2, updated_at = now()
		WHERE id = $1 AND stock >= $2`, productID, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 1 {
		return nil
	}

	available := 0
	err = db.QueryRow(ctx, `SELECT stock FROM products WHERE id = $1`, productID).Scan(&available)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	return &InsufficientStockError{ProductID: productID, Requested: qty, Available: available}
}

// ReserveAll reserves every line or none. It must run inside the caller's
// transaction: the first failing line aborts, and the rollback undoes the
// decrements already applied for earlier lines.
func ReserveAll(ctx context.Context, tx DB, lines []Reservation) error {
	for _, l := range lines {
		if err := Reserve(ctx, tx, l.ProductID, l.Quantity); err != nil {
			return err
		}
	}
	return nil
}

// Restock adds stock back, used by admin restock and order cancellation.
func Restock(ctx context.Context, db DB, productID string, qty int) error {
	if qty <= 0 {
		return fmt.Errorf("invalid quantity %d for product %s", qty, productID)
	}
	ct, err := db.Exec(ctx, `
		UPDATE products SET stock = stock + $2, updated_at = now()
		WHERE id = $1`, productID, qty)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrProductNotFound
	}
	return nil
}
