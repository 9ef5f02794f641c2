package types

import (
	"strings"
	"time"
)

// Source identifies how a cache record was produced.
type Source string

const (
	// SourceAI marks records produced by an AI provider.
	SourceAI Source = "ai"
	// SourceManual marks records produced from the static catalog.
	SourceManual Source = "manual"
)

// SentinelName is the placeholder entry name returned by the upstream
// generator when no provider is configured. Records whose first entry
// carries this name must never be cached.
const SentinelName = "No AI Available"

// Alternative represents one recommended product.
type Alternative struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Pricing     string   `json:"pricing"`
	Pros        []string `json:"pros"`
	Cons        []string `json:"cons"`
	Rating      float64  `json:"rating"`
	Website     string   `json:"website"`
	Category    string   `json:"category"`
}

// Record wraps the ordered alternatives for one search key together
// with its access-tracking metadata.
type Record struct {
	Alternatives []Alternative `json:"alternatives"`
	CreatedAt    time.Time     `json:"created_at"`
	Source       Source        `json:"source"`
	SearchCount  int           `json:"search_count"`
	LastAccessed time.Time     `json:"last_accessed"`
	Quality      int           `json:"quality,omitempty"`
}

// NewRecord creates a fresh record with SearchCount 1.
func NewRecord(alternatives []Alternative, source Source, now time.Time) *Record {
	return &Record{
		Alternatives: alternatives,
		CreatedAt:    now,
		Source:       source,
		SearchCount:  1,
		LastAccessed: now,
	}
}

// Touch records a cache hit: the search count only ever increases.
func (r *Record) Touch(now time.Time) {
	r.SearchCount++
	r.LastAccessed = now
}

// Cacheable reports whether the alternatives are worth storing at all.
// Empty results and the "no provider" sentinel are rejected.
func Cacheable(alternatives []Alternative) bool {
	if len(alternatives) == 0 {
		return false
	}
	return alternatives[0].Name != SentinelName
}

// NormalizeKey converts a raw product name into the canonical cache
// key. Every component applies the same normalization; two records are
// the same entity iff their normalized keys are equal.
func NormalizeKey(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}
