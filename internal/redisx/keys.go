package redisx

import "time"

const (
	// Cart hash per user: cart:{user_id} -> field product_id, value cart line JSON
	KeyCart = "cart:%s"

	// Cache status order: order_status:{order_id}:{user_id} -> {"status": "..."}
	// The owning user is part of the key so a warm entry is only ever
	// served back to the user it was cached for.
	KeyOrderStatus = "order_status:%s:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
