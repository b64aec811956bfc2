package shared

import (
	"context"
	"time"
)

// ErrLockNotObtained is returned when another process holds the lock
var ErrLockNotObtained = NewDomainError("CONCURRENCY_CONFLICT", "Another operation on this resource is in progress")

// Lock is a held distributed lock
type Lock interface {
	Release(ctx context.Context) error
}

// Locker serializes work on a resource across processes
type Locker interface {
	// Obtain acquires key for ttl, returning ErrLockNotObtained when it is held elsewhere
	Obtain(ctx context.Context, key string, ttl time.Duration) (Lock, error)
}
