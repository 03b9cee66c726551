package redisx

import "time"

const (
	// Confirm replay fast path: idem:checkout:confirm:{user_id}:{key}:{request_hash} -> cached response JSON.
	// The request hash is part of the key so a mismatched payload always falls
	// through to the database and gets the conflict there.
	KeyConfirmReplay = "idem:checkout:confirm:%d:%s:%s"

	// Order view cache: order:{user_id}:{order_id} -> serialized order view.
	// Keyed per user so a cache hit never leaks another user's order.
	KeyOrderCache = "order:%d:%d"
)

var (
	TTLConfirmReplay = 24 * time.Hour
	TTLOrderCache    = 5 * time.Minute
)
