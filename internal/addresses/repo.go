package addresses

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("address not found")

type Address struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	FullName  string    `json:"fullName"`
	Phone     string    `json:"phone"`
	HouseNo   string    `json:"houseNo"`
	Area      string    `json:"area"`
	City      string    `json:"city"`
	State     string    `json:"state"`
	Pincode   string    `json:"pincode"`
	Landmark  string    `json:"landmark"`
	IsDefault bool      `json:"isDefault"`
	CreatedAt time.Time `json:"createdAt"`
}

type Repo struct{ DB *pgxpool.Pool }

func (r *Repo) Create(ctx context.Context, a *Address) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return r.DB.QueryRow(ctx, `
		INSERT INTO addresses(id, user_id, full_name, phone, house_no, area, city, state, pincode, landmark, is_default)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING created_at`,
		a.ID, a.UserID, a.FullName, a.Phone, a.HouseNo, a.Area, a.City, a.State, a.Pincode, a.Landmark, a.IsDefault).
		Scan(&a.CreatedAt)
}

func (r *Repo) ListByUser(ctx context.Context, userID string) ([]Address, error) {
	rows, err := r.DB.Query(ctx, `
		SELECT id, user_id, full_name, phone, house_no, area, city, state, pincode, landmark, is_default, created_at
		FROM addresses WHERE user_id = $1 ORDER BY is_default DESC, created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Address
	for rows.Next() {
		var a Address
		if err := rows.Scan(&a.ID, &a.UserID, &a.FullName, &a.Phone, &a.HouseNo, &a.Area, &a.City,
			&a.State, &a.Pincode, &a.Landmark, &a.IsDefault, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Get looks up one of the user's own saved addresses; other users'
// addresses are not reachable by id.
func (r *Repo) Get(ctx context.Context, userID, addressID string) (*Address, error) {
	var a Address
	err := r.DB.QueryRow(ctx, `
		SELECT id, user_id, full_name, phone, house_no, area, city, state, pincode, landmark, is_default, created_at
		FROM addresses WHERE id = $1 AND user_id = $2`, addressID, userID).
		Scan(&a.ID, &a.UserID, &a.FullName, &a.Phone, &a.HouseNo, &a.Area, &a.City,
			&a.State, &a.Pincode, &a.Landmark, &a.IsDefault, &a.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *Repo) Delete(ctx context.Context, userID, addressID string) error {
	ct, err := r.DB.Exec(ctx, `DELETE FROM addresses WHERE id = $1 AND user_id = $2`, addressID, userID)
	if err != nil {
		return err
	}
	if ct.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
