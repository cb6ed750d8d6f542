// Package cache provides the byte cache used for public site reads.
package cache

import (
	"context"
	"time"
)

// Cache stores opaque byte values by key. Implementations must be safe for
// concurrent use.
type Cache interface {
	// Get returns ErrCacheMiss when key is absent or expired.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value. A zero ttl uses the implementation default.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	Delete(ctx context.Context, key string) error

	// DeletePrefix removes every key starting with prefix.
	DeletePrefix(ctx context.Context, prefix string) error

	Close() error
}

// Error is a constant cache error.
type Error string

func (e Error) Error() string {
	return string(e)
}

const (
	// ErrCacheMiss indicates the key was not found or has expired.
	ErrCacheMiss Error = "cache miss"

	// ErrCacheClosed indicates the cache has been closed.
	ErrCacheClosed Error = "cache closed"
)

// Noop never stores anything. It is used when no cache backend is configured.
type Noop struct{}

func (Noop) Get(context.Context, string) ([]byte, error) {
	return nil, ErrCacheMiss
}

func (Noop) Set(context.Context, string, []byte, time.Duration) error { return nil }

func (Noop) Delete(context.Context, string) error { return nil }

func (Noop) DeletePrefix(context.Context, string) error { return nil }

func (Noop) Close() error { return nil }
