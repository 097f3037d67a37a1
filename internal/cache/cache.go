// Package cache holds completed analysis results keyed by normalized chat
// identifier. Concurrent requests for the same chat collapse into a single
// pipeline run; later requests reuse the stored result for the process
// lifetime.
package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Entry is a completed analysis for one chat.
type Entry struct {
	ReportPath string
	ChartPaths map[string]string
	CreatedAt  time.Time
}

// RunFunc executes a full analysis run for a chat key and returns its
// report and chart locations.
type RunFunc func(ctx context.Context) (*Entry, error)

// ResultCache is an in-memory, process-lifetime store of analysis results
// with per-key single-flight execution.
type ResultCache struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	group   singleflight.Group
	log     *slog.Logger
}

// New creates an empty result cache.
func New(log *slog.Logger) *ResultCache {
	return &ResultCache{
		entries: make(map[string]*Entry),
		log:     log.With("component", "result_cache"),
	}
}

// Get returns the cached entry for the key, if any.
func (c *ResultCache) Get(key string) (*Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entry, ok := c.entries[key]
	return entry, ok
}

// Put stores an entry for the key, replacing any previous one.
func (c *ResultCache) Put(key string, entry *Entry) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry
}

// Invalidate removes the entry for the key.
func (c *ResultCache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// GetOrRun returns the cached entry for the key, or executes run exactly
// once - even under concurrent requests for the same key - and caches its
// result. Failed runs are not cached, so a later request retries.
func (c *ResultCache) GetOrRun(ctx context.Context, key string, run RunFunc) (*Entry, error) {
	if entry, ok := c.Get(key); ok {
		c.log.DebugContext(ctx, "Cache hit", "chat_key", key)
		return entry, nil
	}

	v, err, shared := c.group.Do(key, func() (any, error) {
		// Re-check under the flight: another caller may have completed the
		// run between our cache miss and joining the group.
		if entry, ok := c.Get(key); ok {
			return entry, nil
		}

		c.log.InfoContext(ctx, "Cache miss, running analysis", "chat_key", key)
		entry, err := run(ctx)
		if err != nil {
			return nil, err
		}
		c.Put(key, entry)
		return entry, nil
	})
	if err != nil {
		return nil, err
	}
	if shared {
		c.log.DebugContext(ctx, "Joined in-flight analysis", "chat_key", key)
	}
	return v.(*Entry), nil
}
