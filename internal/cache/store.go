package cache

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by a Store when no entry exists for a key.
var ErrNotFound = errors.New("cache entry not found")

// Store is the key-value contract the cache needs from a backend.
//
// Implementations must be safe for concurrent use with distinct keys.
// Expiration is carried on the entry; removing expired rows is the
// backend's business and may lag behind ExpiresAt.
type Store interface {
	// Name identifies the backend in stats and logs.
	Name() string
	// Get returns the entry for key or ErrNotFound.
	Get(ctx context.Context, key Key) (*Entry, error)
	// Put writes e, fully replacing any entry with the same key.
	Put(ctx context.Context, e *Entry) error
	// Delete removes the entry for key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key Key) error
	// Status reports the item count and a backend status string.
	Status(ctx context.Context) (StoreStatus, error)
}

// StoreStatus is the result of a backend status probe.
type StoreStatus struct {
	Name      string
	ItemCount int64
	Status    string
}

// Purger is implemented by backends that delete expired rows themselves.
type Purger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}
