// Package backend provides the key-value stores behind the content cache:
// a bounded in-process LRU, SQLite and DynamoDB.
package backend

import (
	"context"
	"fmt"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/ziadkadry99/chunkdoc/internal/cache"
)

// DefaultMemorySize bounds the in-memory store when no size is configured.
const DefaultMemorySize = 10000

// Memory is a bounded in-process store. When full, the least recently used
// entry is evicted.
type Memory struct {
	entries *lru.Cache[cache.Key, *cache.Entry]
}

// NewMemory creates an in-memory store holding at most size entries.
func NewMemory(size int) (*Memory, error) {
	if size <= 0 {
		size = DefaultMemorySize
	}
	entries, err := lru.New[cache.Key, *cache.Entry](size)
	if err != nil {
		return nil, fmt.Errorf("creating lru: %w", err)
	}
	return &Memory{entries: entries}, nil
}

func (m *Memory) Name() string { return "memory" }

func (m *Memory) Get(_ context.Context, key cache.Key) (*cache.Entry, error) {
	e, ok := m.entries.Get(key)
	if !ok {
		return nil, cache.ErrNotFound
	}
	return e.Clone(), nil
}

func (m *Memory) Put(_ context.Context, e *cache.Entry) error {
	m.entries.Add(e.Key, e.Clone())
	return nil
}

func (m *Memory) Delete(_ context.Context, key cache.Key) error {
	m.entries.Remove(key)
	return nil
}

func (m *Memory) Status(context.Context) (cache.StoreStatus, error) {
	return cache.StoreStatus{Name: m.Name(), ItemCount: int64(m.entries.Len()), Status: "ACTIVE"}, nil
}

// PurgeExpired removes entries whose TTL has passed.
func (m *Memory) PurgeExpired(_ context.Context, now time.Time) (int64, error) {
	var n int64
	for _, k := range m.entries.Keys() {
		e, ok := m.entries.Peek(k)
		if ok && e.Expired(now) {
			m.entries.Remove(k)
			n++
		}
	}
	return n, nil
}
