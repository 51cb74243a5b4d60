package redisx

import "time"

const (
	// Session lookup: session:{token} -> {"user_id": "...", "name": "...", "role": "..."}
	KeySession = "session:%s"

	// Idempotency create order: idem:order:create:{idempotency_key} -> order_id
	KeyIdemOrderCreate = "idem:order:create:%s"

	// Cache status order: order_status:{order_id} -> {"status": "...", "payment_status": "...", "updated_at": "..."}
	KeyOrderStatus = "order_status:%s"

	// Dedup event processing: dedup:{service}:{event_id}
	KeyDedup = "dedup:%s:%s"
)

var (
	TTLIdempotency = 24 * time.Hour
	TTLStatusCache = 5 * time.Minute
	TTLDedup       = 48 * time.Hour
)
