package cart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/dotcomdgadgets/dotcombackend/internal/redisx"
)

var ErrItemNotFound = errors.New("cart item not found")

// Item is a mutable cart line. PriceAtAdd snapshots the product price at
// the moment the line was added; checkout copies it into the order.
type Item struct {
	ProductID  string          `json:"productId"`
	Quantity   int             `json:"quantity"`
	Size       string          `json:"size"`
	PriceAtAdd decimal.Decimal `json:"priceAtAdd"`
}

// Store keeps each user's cart in its own Redis hash, one field per
// product. Carts are only ever touched by their owning user's requests.
type Store struct{ Redis *redis.Client }

func key(userID string) string { return fmt.Sprintf(redisx.KeyCart, userID) }

// Add inserts a line or bumps the quantity of an existing one. The stored
// price is kept from the first add.
func (s *Store) Add(ctx context.Context, userID string, item Item) error {
	if item.Quantity < 1 {
		item.Quantity = 1
	}
	raw, err := s.Redis.HGet(ctx, key(userID), item.ProductID).Result()
	if err == nil {
		var existing Item
		if err := json.Unmarshal([]byte(raw), &existing); err == nil {
			existing.Quantity += item.Quantity
			item = existing
		}
	} else if !errors.Is(err, redis.Nil) {
		return err
	}
	b, err := json.Marshal(item)
	if err != nil {
		return err
	}
	return s.Redis.HSet(ctx, key(userID), item.ProductID, b).Err()
}

func (s *Store) Items(ctx context.Context, userID string) ([]Item, error) {
	raw, err := s.Redis.HGetAll(ctx, key(userID)).Result()
	if err != nil {
		return nil, err
	}
	out := make([]Item, 0, len(raw))
	for _, v := range raw {
		var it Item
		if err := json.Unmarshal([]byte(v), &it); err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	return out, nil
}

// SetQuantity overwrites a line's quantity, clamped to a minimum of 1.
func (s *Store) SetQuantity(ctx context.Context, userID, productID string, qty int) error {
	if qty < 1 {
		qty = 1
	}
	raw, err := s.Redis.HGet(ctx, key(userID), productID).Result()
	if errors.Is(err, redis.Nil) {
		return ErrItemNotFound
	}
	if err != nil {
		return err
	}
	var it Item
	if err := json.Unmarshal([]byte(raw), &it); err != nil {
		return err
	}
	it.Quantity = qty
	b, err := json.Marshal(it)
	if err != nil {
		return err
	}
	return s.Redis.HSet(ctx, key(userID), productID, b).Err()
}

func (s *Store) Remove(ctx context.Context, userID, productID string) error {
	return s.Redis.HDel(ctx, key(userID), productID).Err()
}

// RemoveMany drops several lines at once (data-hygiene pass for deleted
// products).
func (s *Store) RemoveMany(ctx context.Context, userID string, productIDs []string) error {
	if len(productIDs) == 0 {
		return nil
	}
	return s.Redis.HDel(ctx, key(userID), productIDs...).Err()
}

func (s *Store) Clear(ctx context.Context, userID string) error {
	return s.Redis.Del(ctx, key(userID)).Err()
}
