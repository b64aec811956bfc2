package shared

import (
	"context"
	"time"
)

// IdempotencyStore remembers request keys that have already been accepted
type IdempotencyStore interface {
	// MarkProcessed records key with a TTL. It returns true if the key was newly
	// marked and false if it was already present.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release forgets key so a failed request can be retried
	Release(ctx context.Context, key string) error
}

// DefaultIdempotencyTTL is how long a request key blocks replays
const DefaultIdempotencyTTL = 24 * time.Hour
