package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/dgraph-io/ristretto/v2"
)

type MemoryOptions struct {
	MaxCost     int64
	NumCounters int64
	TTL         time.Duration
}

// MemoryStore is an in-process Store backed by ristretto. Cost is the
// encoded size in bytes.
type MemoryStore struct {
	cache *ristretto.Cache[string, []byte]
	ttl   time.Duration
}

func NewMemoryStore(opts MemoryOptions) (*MemoryStore, error) {
	if opts.MaxCost <= 0 {
		opts.MaxCost = 256 << 20
	}
	if opts.NumCounters <= 0 {
		opts.NumCounters = 1e5
	}

	c, err := ristretto.NewCache(&ristretto.Config[string, []byte]{
		NumCounters: opts.NumCounters,
		MaxCost:     opts.MaxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create memory cache: %w", err)
	}

	return &MemoryStore{cache: c, ttl: opts.TTL}, nil
}

func (m *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	if value, found := m.cache.Get(key); found {
		return value, nil
	}
	return nil, nil
}

func (m *MemoryStore) Set(ctx context.Context, key string, data []byte) error {
	m.cache.SetWithTTL(key, data, int64(len(data)), m.ttl)
	// Sets are buffered; wait so the next request sees this one.
	m.cache.Wait()
	return nil
}

func (m *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

func (m *MemoryStore) Name() string {
	return "memory"
}

func (m *MemoryStore) Close() error {
	m.cache.Close()
	return nil
}
