// Package circuit implements the circuit breaker guarding durable
// backend calls. A backend that keeps failing trips open so the
// storage manager can short-circuit straight to its fallback instead
// of paying the latency of a dead dependency on every request.
package circuit

import (
	"sync"
	"time"
)

// State represents the breaker state.
type State int

const (
	// StateClosed - calls pass through.
	StateClosed State = iota
	// StateOpen - calls are rejected without reaching the backend.
	StateOpen
	// StateHalfOpen - a probe call is allowed to test recovery.
	StateHalfOpen
)

// String returns the string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateOpen:
		return "OPEN"
	case StateHalfOpen:
		return "HALF_OPEN"
	default:
		return "UNKNOWN"
	}
}

// Config contains breaker tuning.
type Config struct {
	// FailureThreshold is the consecutive-failure count that trips the
	// breaker open.
	FailureThreshold int `yaml:"failure_threshold"`

	// CoolDown is how long the breaker stays open before allowing a
	// half-open probe.
	CoolDown time.Duration `yaml:"cool_down"`
}

// Breaker tracks consecutive save/load failures for one backend.
type Breaker struct {
	name   string
	config Config

	mu          sync.Mutex
	state       State
	failures    int
	openedAt    time.Time
	lastAttempt time.Time
}

// New creates a breaker with defaults applied to zero config values.
func New(name string, config Config) *Breaker {
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 5
	}
	if config.CoolDown <= 0 {
		config.CoolDown = 30 * time.Second
	}
	return &Breaker{
		name:   name,
		config: config,
		state:  StateClosed,
	}
}

// Allow reports whether a call may proceed. In the open state it
// returns false until the cool-down elapses, then admits a single
// half-open probe.
func (b *Breaker) Allow() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	b.lastAttempt = now

	switch b.state {
	case StateClosed:
		return true
	case StateOpen:
		if now.Sub(b.openedAt) >= b.config.CoolDown {
			b.state = StateHalfOpen
			return true
		}
		return false
	case StateHalfOpen:
		// Only one probe in flight; further calls wait for its verdict.
		return false
	}
	return true
}

// Success records a successful call and closes the breaker.
func (b *Breaker) Success() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failures = 0
	b.state = StateClosed
}

// Failure records a failed call, tripping the breaker once the
// threshold is reached. A failed half-open probe re-opens immediately.
func (b *Breaker) Failure() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.failures++
	if b.state == StateHalfOpen || b.failures >= b.config.FailureThreshold {
		b.state = StateOpen
		b.openedAt = time.Now()
	}
}

// State returns the current state.
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.state
}

// Name returns the backend name this breaker guards.
func (b *Breaker) Name() string {
	return b.name
}
