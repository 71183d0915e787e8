package validation

import (
	"context"
	"time"
)

// Cache is the keyed store behind every validator. Implementations: Redis
// for deployments, in-memory for tests and single-process runs. All
// failures are non-fatal to validation; callers degrade to computing.
type Cache interface {
	// Get returns the stored bytes and whether the key was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores val under key for ttl.
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error

	// IsMember tests membership in a named set (disposable domains).
	IsMember(ctx context.Context, set, member string) (bool, error)

	// AddMembers seeds a named set.
	AddMembers(ctx context.Context, set string, members ...string) error
}
