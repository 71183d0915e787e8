package validation

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"
)

// Store is the read-through layer between validators and the shared cache.
// Hits return the stored bytes verbatim, including the ttl_seconds recorded
// at compute time. Misses compute, return the fresh result immediately and
// write it back on a detached goroutine so a slow or unavailable cache never
// delays the caller. Concurrent computes for the same fingerprint are allowed
// to race; the last write wins and both callers get a correct result.
type Store struct {
	cache        Cache
	logger       *slog.Logger
	metrics      *Metrics
	writeTimeout time.Duration
}

func NewStore(cache Cache, logger *slog.Logger, metrics *Metrics, writeTimeout time.Duration) *Store {
	if writeTimeout <= 0 {
		writeTimeout = 2 * time.Second
	}
	return &Store{
		cache:        cache,
		logger:       logger,
		metrics:      metrics,
		writeTimeout: writeTimeout,
	}
}

func (s *Store) Cache() Cache {
	return s.cache
}

// GetOrCompute looks up the fingerprint and falls back to compute on a miss
// or a cache read error. A cache read error is logged and treated as a miss.
func (s *Store) GetOrCompute(
	ctx context.Context,
	namespace, fingerprint string,
	ttl time.Duration,
	compute func(ctx context.Context) ([]byte, error),
) ([]byte, bool, error) {
	if s.cache != nil {
		raw, ok, err := s.cache.Get(ctx, fingerprint)
		if err != nil {
			s.logger.WarnContext(ctx, "cache read failed",
				"namespace", namespace,
				"error", err,
			)
		} else if ok {
			s.metrics.CacheHit(namespace)
			return raw, true, nil
		}
	}
	s.metrics.CacheMiss(namespace)

	raw, err := compute(ctx)
	if err != nil {
		return nil, false, err
	}

	if s.cache != nil {
		go s.writeBack(namespace, fingerprint, raw, ttl)
	}
	return raw, false, nil
}

// writeBack persists a freshly computed result. It runs detached from the
// request so it uses a background context with its own timeout, and failure
// is only observable through logs and the write-failure counter.
func (s *Store) writeBack(namespace, fingerprint string, raw []byte, ttl time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), s.writeTimeout)
	defer cancel()

	if err := s.cache.Set(ctx, fingerprint, raw, ttl); err != nil {
		s.metrics.WriteFailure(namespace)
		s.logger.Warn("cache write failed",
			"namespace", namespace,
			"error", err,
		)
	}
}

// GetOrComputeJSON is GetOrCompute for values stored as JSON. Cached hits
// are decoded from the stored bytes so a hit round-trips the exact payload
// written at compute time.
func GetOrComputeJSON[T any](
	ctx context.Context,
	s *Store,
	namespace, fingerprint string,
	ttl time.Duration,
	compute func(ctx context.Context) (T, error),
) (T, bool, error) {
	var zero T

	raw, hit, err := s.GetOrCompute(ctx, namespace, fingerprint, ttl, func(ctx context.Context) ([]byte, error) {
		val, err := compute(ctx)
		if err != nil {
			return nil, err
		}
		return json.Marshal(val)
	})
	if err != nil {
		return zero, false, err
	}

	var out T
	if err := json.Unmarshal(raw, &out); err != nil {
		return zero, hit, err
	}
	return out, hit, nil
}
