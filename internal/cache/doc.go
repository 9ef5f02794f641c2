// Package cache implements the in-process caching strategies the
// storage orchestrator can activate: a single-level map with age-based
// cleanup, a quality-scored variant with intelligent eviction, a four
// tier hot/warm/cold/archive store, and a hybrid local+durable cache
// with asynchronous batched write-through.
package cache
