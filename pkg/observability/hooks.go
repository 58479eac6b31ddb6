// Package observability provides hooks for metrics and tracing.
//
// This package enables optional instrumentation without adding hard
// dependencies on specific observability backends. Consumers register hooks
// at startup to receive events about block rendering and cache lookups.
//
// # Architecture
//
// The package uses a simple hooks pattern:
//   - Define hook interfaces for different event categories
//   - Provide no-op default implementations
//   - Allow registration of custom implementations at startup
//
// Hooks are registered by main, not by libraries, which keeps the core
// packages free of observability framework imports.
//
// # Usage
//
//	func main() {
//	    observability.SetRewriteHooks(&myRewriteHooks{})
//	    // ... run application
//	}
//
// Libraries call hooks to emit events:
//
//	observability.Rewrite().OnBlockStart(engine, key)
//	// ... render ...
//	observability.Rewrite().OnBlockComplete(engine, key, duration, err)
package observability

import (
	"sync"
	"time"
)

// RewriteHooks receives events from the document rewrite pipeline.
type RewriteHooks interface {
	// OnBlockStart records the start of a single diagram block render.
	OnBlockStart(engine, key string)

	// OnBlockComplete records the outcome of a single diagram block render.
	// err is nil on success, including cache hits.
	OnBlockComplete(engine, key string, duration time.Duration, err error)

	// OnDocumentComplete records the end of a full document rewrite.
	OnDocumentComplete(blocks, failures int, duration time.Duration)
}

// CacheHooks receives events from artifact cache lookups.
type CacheHooks interface {
	// OnHit records a cache hit for the given engine.
	OnHit(engine string)

	// OnMiss records a cache miss for the given engine.
	OnMiss(engine string)
}

// NoopRewriteHooks is a no-op implementation of RewriteHooks.
type NoopRewriteHooks struct{}

func (NoopRewriteHooks) OnBlockStart(string, string)                             {}
func (NoopRewriteHooks) OnBlockComplete(string, string, time.Duration, error)    {}
func (NoopRewriteHooks) OnDocumentComplete(int, int, time.Duration)              {}

// NoopCacheHooks is a no-op implementation of CacheHooks.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnHit(string)  {}
func (NoopCacheHooks) OnMiss(string) {}

var (
	mu           sync.RWMutex
	rewriteHooks RewriteHooks = NoopRewriteHooks{}
	cacheHooks   CacheHooks   = NoopCacheHooks{}
)

// SetRewriteHooks registers rewrite hooks. Pass nil to restore the no-op
// implementation. Call this at startup, before the pipeline runs.
func SetRewriteHooks(h RewriteHooks) {
	mu.Lock()
	defer mu.Unlock()
	if h == nil {
		h = NoopRewriteHooks{}
	}
	rewriteHooks = h
}

// SetCacheHooks registers cache hooks. Pass nil to restore the no-op
// implementation.
func SetCacheHooks(h CacheHooks) {
	mu.Lock()
	defer mu.Unlock()
	if h == nil {
		h = NoopCacheHooks{}
	}
	cacheHooks = h
}

// Rewrite returns the registered rewrite hooks.
func Rewrite() RewriteHooks {
	mu.RLock()
	defer mu.RUnlock()
	return rewriteHooks
}

// Cache returns the registered cache hooks.
func Cache() CacheHooks {
	mu.RLock()
	defer mu.RUnlock()
	return cacheHooks
}
