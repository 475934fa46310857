package driven

import (
	"context"
	"time"
)

// DistributedLock coordinates work across instances, such as the link
// refresh scheduler, so that only one instance runs it at a time.
type DistributedLock interface {
	// Acquire tries to take a named lock for ttl.
	// Returns false without error if another instance holds it.
	Acquire(ctx context.Context, name string, ttl time.Duration) (acquired bool, err error)

	// Release releases a named lock held by this instance.
	// Safe to call if the lock has already expired.
	Release(ctx context.Context, name string) error

	// Extend pushes out the TTL of a lock held by this instance
	Extend(ctx context.Context, name string, ttl time.Duration) error

	// Ping checks if the lock backend is healthy
	Ping(ctx context.Context) error
}
