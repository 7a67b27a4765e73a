package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a lock obtained from a DistributedLocker.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker serializes work on a key across process replicas.
type DistributedLocker interface {
	// Lock blocks until the lock on key is held or ctx is done. The lock
	// expires after ttl if never released. The returned UnlockFunc must be
	// called once the work is done.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
