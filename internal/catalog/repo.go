package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) List(ctx context.Context, category, search string) ([]Product, error) {
	q := `SELECT id, name, category, description, price, stock, created_at, updated_at FROM products`
	args := []any{}
	where := ""
	if category != "" {
		args = append(args, category)
		where = fmt.Sprintf(" WHERE category = $%d", len(args))
	}
	if search != "" {
		args = append(args, "%"+search+"%")
		if where == "" {
			where = fmt.Sprintf(" WHERE name ILIKE $%d", len(args))
		} else {
			where += fmt.Sprintf(" AND name ILIKE $%d", len(args))
		}
	}
	rows, err := r.DB.Query(ctx, q+where+` ORDER BY created_at DESC`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Product
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Category, &p.Description, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *Repo) Get(ctx context.Context, id string) (*Product, error) {
	var p Product
	err := r.DB.QueryRow(ctx, `
		SELECT id, name, category, description, price, stock, created_at, updated_at
		FROM products WHERE id = $1`, id).
		Scan(&p.ID, &p.Name, &p.Category, &p.Description, &p.Price, &p.Stock, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repo) Create(ctx context.Context, p *Product) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	return r.DB.QueryRow(ctx, `
		INSERT INTO products(id, name, category, description, price, stock)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`,
		p.ID, p.Name, p.Category, p.Description, p.Price, p.Stock).
		Scan(&p.CreatedAt, &p.UpdatedAt)
}

// InfoByID resolves which of the given ids still exist, with display names.
// Missing ids are simply absent from the result.
func (r *Repo) InfoByID(ctx context.Context, ids []string) (map[string]Info, error) {
	out := map[string]Info{}
	if len(ids) == 0 {
		return out, nil
	}
	params := ""
	args := make([]any, 0, len(ids))
	for i, id := range ids {
		if i > 0 {
			params += ","
		}
		params += fmt.Sprintf("$%d", i+1)
		args = append(args, id)
	}
	rows, err := r.DB.Query(ctx, `SELECT id, name FROM products WHERE id IN (`+params+`)`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var in Info
		if err := rows.Scan(&in.ID, &in.Name); err != nil {
			return nil, err
		}
		out[in.ID] = in
	}
	return out, rows.Err()
}
