// Package snapshot provides keyed last-value stores. A snapshot store
// keeps only the most recent value per key, with entries expiring after
// a TTL so stale vessels age out of the fleet picture.
//
// Two implementations are provided:
//   - Memory: in-process map with background expiry sweeps
//   - Redis: shared store for multi-process deployments
package snapshot

import (
	"context"
	"time"
)

// DefaultTTL is how long an entry survives without being refreshed.
const DefaultTTL = 10 * time.Minute

// Store keeps the latest value per key. Put overwrites unconditionally
// and refreshes the entry's TTL.
type Store[T any] interface {
	// Put stores or replaces the value for key.
	Put(ctx context.Context, key string, value T) error

	// Get retrieves the value for key. The second return is false when
	// the key is absent or expired.
	Get(ctx context.Context, key string) (T, bool, error)

	// All returns every live value in the store.
	All(ctx context.Context) ([]T, error)

	// Delete removes the entry for key. Returns true if it existed.
	Delete(ctx context.Context, key string) (bool, error)

	// Len returns the number of live entries.
	Len(ctx context.Context) (int, error)

	// Close releases background resources.
	Close() error
}
