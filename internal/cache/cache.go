package cache

import (
	"context"
	"time"
)

// Cache stores split results keyed by a digest of the source and the split
// settings. Implementations are safe for concurrent use.
type Cache interface {
	// Get returns the cached value and whether it was present.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores val for ttl. A ttl of zero keeps the entry until evicted.
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Close() error
}

// Nop is a Cache that never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, bool, error) { return nil, false, nil }
func (Nop) Set(context.Context, string, []byte, time.Duration) error { return nil }
func (Nop) Close() error { return nil }
