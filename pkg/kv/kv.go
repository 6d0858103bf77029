package kv

import (
	"context"
	"errors"
	"time"
)

// ErrKeyNotFound is returned when the requested key does not exist in the store.
var ErrKeyNotFound = errors.New("key not found")

// Store is the narrow key-value contract the session cart layer depends on.
// Implementations must treat Delete of a missing key as a no-op.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
