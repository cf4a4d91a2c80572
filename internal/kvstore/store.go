package kvstore

import (
	"context"
	"errors"
)

var ErrKeyNotFound = errors.New("key not found")

// Well-known keys shared by the stores. The schema is flat on purpose:
// one JSON value per key, last write wins.
const (
	KeyCart         = "cart"
	KeyWishlist     = "wishlist"
	KeyUser         = "user"
	KeyOrders       = "orders"
	KeyCurrentOrder = "currentOrder"
)

// Store is a durable string-keyed blob store. Concurrent writers to the
// same key overwrite each other silently; callers that need ordering must
// serialize their own writes.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}
