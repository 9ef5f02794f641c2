// Package types defines the shared data model of the altseek cache
// subsystem: the alternative entry and cache record shapes, key
// normalization, the quality-scoring function, and the interfaces
// implemented by cache strategies and durable backends.
package types
