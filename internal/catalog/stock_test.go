package catalog

import (
	"context"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
)

func startPostgres(t *testing.T) *pgxpool.Pool {
	t.Helper()
	if testing.Short() {
		t.Skip("needs docker")
	}
	ctx := context.Background()

	ctr, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("shop"),
		tcpostgres.WithUsername("app"),
		tcpostgres.WithPassword("secret"),
		tcpostgres.BasicWaitStrategies(),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(ctr) })

	dsn, err := ctr.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	_, err = pool.Exec(ctx, `
		CREATE TABLE products (
			id          TEXT PRIMARY KEY,
			name        TEXT NOT NULL,
			category    TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			price       NUMERIC(12,2) NOT NULL,
			stock       INT NOT NULL DEFAULT 0 CHECK (stock >= 0),
			created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
		)`)
	require.NoError(t, err)
	return pool
}

func seedProduct(t *testing.T, pool *pgxpool.Pool, id string, stock int) {
	t.Helper()
	_, err := pool.Exec(context.Background(), `
		INSERT INTO products(id, name, category, price, stock)
		VALUES ($1, $1, 'gadgets', 100, $2)`, id, stock)
	require.NoError(t, err)
}

func currentStock(t *testing.T, pool *pgxpool.Pool, id string) int {
	t.Helper()
	var stock int
	require.NoError(t, pool.QueryRow(context.Background(), `SELECT stock FROM products WHERE id = $1`, id).Scan(&stock))
	return stock
}

func TestReserve_ConditionalDecrement(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()
	seedProduct(t, pool, "p1", 5)

	require.NoError(t, Reserve(ctx, pool, "p1", 3))
	assert.Equal(t, 2, currentStock(t, pool, "p1"))

	err := Reserve(ctx, pool, "p1", 3)
	var ise *InsufficientStockError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, "p1", ise.ProductID)
	assert.Equal(t, 3, ise.Requested)
	assert.Equal(t, 2, ise.Available)
	assert.Equal(t, 2, currentStock(t, pool, "p1"), "a rejected reserve must not decrement")
}

func TestReserve_ConcurrentSingleUnit(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()
	seedProduct(t, pool, "p1", 1)

	const attempts = 8
	var wg sync.WaitGroup
	results := make(chan error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results <- Reserve(ctx, pool, "p1", 1)
		}()
	}
	wg.Wait()
	close(results)

	won := 0
	for err := range results {
		if err == nil {
			won++
		} else {
			var ise *InsufficientStockError
			require.ErrorAs(t, err, &ise)
		}
	}
	assert.Equal(t, 1, won, "exactly one checkout may win the last unit")
	assert.Equal(t, 0, currentStock(t, pool, "p1"))
}

func TestReserveAll_AllOrNothing(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()
	seedProduct(t, pool, "p1", 5)
	seedProduct(t, pool, "p2", 0)

	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	require.NoError(t, err)

	err = ReserveAll(ctx, tx, []Reservation{
		{ProductID: "p1", Quantity: 2},
		{ProductID: "p2", Quantity: 1},
	})
	var ise *InsufficientStockError
	require.ErrorAs(t, err, &ise)
	assert.Equal(t, "p2", ise.ProductID)
	require.NoError(t, tx.Rollback(ctx))

	assert.Equal(t, 5, currentStock(t, pool, "p1"), "rollback must undo the first line's decrement")
	assert.Equal(t, 0, currentStock(t, pool, "p2"))
}

func TestReserveAll_CommitsWhenAllAvailable(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()
	seedProduct(t, pool, "p1", 5)
	seedProduct(t, pool, "p2", 2)

	tx, err := pool.BeginTx(ctx, pgx.TxOptions{})
	require.NoError(t, err)
	require.NoError(t, ReserveAll(ctx, tx, []Reservation{
		{ProductID: "p1", Quantity: 2},
		{ProductID: "p2", Quantity: 2},
	}))
	require.NoError(t, tx.Commit(ctx))

	assert.Equal(t, 3, currentStock(t, pool, "p1"))
	assert.Equal(t, 0, currentStock(t, pool, "p2"))
}

func TestRestock(t *testing.T) {
	pool := startPostgres(t)
	ctx := context.Background()
	seedProduct(t, pool, "p1", 1)

	require.NoError(t, Restock(ctx, pool, "p1", 4))
	assert.Equal(t, 5, currentStock(t, pool, "p1"))

	assert.ErrorIs(t, Restock(ctx, pool, "missing", 1), ErrProductNotFound)
}
