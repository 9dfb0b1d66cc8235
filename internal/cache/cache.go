// Package cache implements a content-addressed documentation cache with
// TTL expiration and optional retention of the source that produced each
// entry.
package cache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

// DefaultTTL is used when a StoreRequest carries no TTL.
const DefaultTTL = 24 * time.Hour

// Options configures a ContentCache.
type Options struct {
	Logger *slog.Logger
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// ContentCache wraps a Store with hashing-agnostic lookup and write
// semantics: lookups never fail, and write failures are reported to the
// caller without being fatal.
type ContentCache struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time

	hits   atomic.Int64
	misses atomic.Int64
	errs   atomic.Int64
}

// New creates a ContentCache over store.
func New(store Store, opts Options) *ContentCache {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	return &ContentCache{
		store:  store,
		logger: logger.With("component", "cache", "backend", store.Name()),
		now:    now,
	}
}

// Backend returns the underlying store.
func (c *ContentCache) Backend() Store { return c.store }

// Lookup returns the live entry for key. A miss, an expired entry and a
// backend failure all report (nil, false); the three cases are logged
// differently and counted separately in Stats.
func (c *ContentCache) Lookup(ctx context.Context, key Key) (*Entry, bool) {
	e, err := c.store.Get(ctx, key)
	switch {
	case errors.Is(err, ErrNotFound):
		c.misses.Add(1)
		c.logger.Debug("cache miss", "key", key.Short())
		return nil, false
	case err != nil:
		c.errs.Add(1)
		c.logger.Warn("cache lookup failed", "key", key.Short(), "error", err)
		return nil, false
	case e == nil:
		c.misses.Add(1)
		c.logger.Debug("cache miss", "key", key.Short())
		return nil, false
	}
	if e.Expired(c.now()) {
		c.misses.Add(1)
		c.logger.Debug("cache entry expired", "key", key.Short(), "expired_at", e.ExpiresAt)
		return nil, false
	}
	c.hits.Add(1)
	c.logger.Debug("cache hit", "key", key.Short(), "path", e.FilePath)
	return e, true
}

// StoreRequest describes one cache write.
type StoreRequest struct {
	Key           Key
	FilePath      string
	Documentation string
	Metadata      Metadata
	// TTL defaults to DefaultTTL when zero.
	TTL time.Duration
	// Source is persisted only when RetainSource is also set.
	Source       *string
	RetainSource bool
}

// TTLFromHours converts a TTL expressed in hours.
func TTLFromHours(hours int) time.Duration {
	return time.Duration(hours) * time.Hour
}

// Store writes an entry. The returned error means the entry was not saved;
// callers carry on as if the result were uncached.
func (c *ContentCache) Store(ctx context.Context, req StoreRequest) error {
	if req.Key == "" {
		return errors.New("storing cache entry: empty key")
	}
	meta, err := req.Metadata.Normalize()
	if err != nil {
		c.errs.Add(1)
		c.logger.Warn("cache store failed", "key", req.Key.Short(), "error", err)
		return fmt.Errorf("storing cache entry %s: %w", req.Key.Short(), err)
	}

	ttl := req.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	now := c.now().UTC()
	e := &Entry{
		Key:           req.Key,
		FilePath:      req.FilePath,
		Documentation: req.Documentation,
		Metadata:      meta,
		CreatedAt:     now,
		ExpiresAt:     now.Add(ttl),
	}
	if req.RetainSource && req.Source != nil {
		s := *req.Source
		e.Source = &s
	}

	if err := c.store.Put(ctx, e); err != nil {
		c.errs.Add(1)
		c.logger.Warn("cache store failed", "key", req.Key.Short(), "path", req.FilePath, "error", err)
		return fmt.Errorf("storing cache entry %s: %w", req.Key.Short(), err)
	}
	c.logger.Debug("cache stored", "key", req.Key.Short(), "path", req.FilePath,
		"expires_at", e.ExpiresAt, "source_retained", e.Source != nil)
	return nil
}

// Exists reports whether Lookup would return an entry for key.
func (c *ContentCache) Exists(ctx context.Context, key Key) bool {
	_, ok := c.Lookup(ctx, key)
	return ok
}

// Remove deletes the entry for key.
func (c *ContentCache) Remove(ctx context.Context, key Key) error {
	if err := c.store.Delete(ctx, key); err != nil {
		c.errs.Add(1)
		c.logger.Warn("cache remove failed", "key", key.Short(), "error", err)
		return fmt.Errorf("removing cache entry %s: %w", key.Short(), err)
	}
	c.logger.Debug("cache removed", "key", key.Short())
	return nil
}

// Stats is a best-effort snapshot of the cache.
type Stats struct {
	Identifier string    `json:"identifier"`
	ItemCount  int64     `json:"item_count"`
	Status     string    `json:"status"`
	Hits       int64     `json:"hits"`
	Misses     int64     `json:"misses"`
	Errors     int64     `json:"errors"`
	Timestamp  time.Time `json:"timestamp"`
	Error      string    `json:"error,omitempty"`
}

// Stats probes the backend. A probe failure is reported in Stats.Error.
func (c *ContentCache) Stats(ctx context.Context) Stats {
	s := Stats{
		Identifier: c.store.Name(),
		Hits:       c.hits.Load(),
		Misses:     c.misses.Load(),
		Errors:     c.errs.Load(),
		Timestamp:  c.now().UTC(),
	}
	st, err := c.store.Status(ctx)
	if err != nil {
		c.logger.Warn("cache stats failed", "error", err)
		s.Status = "UNKNOWN"
		s.Error = err.Error()
		return s
	}
	if st.Name != "" {
		s.Identifier = st.Name
	}
	s.ItemCount = st.ItemCount
	s.Status = st.Status
	return s
}
