// Package resilience guards Muninn's flaky externals, the speech engines and
// the remote skill APIs behind the weather and joke commands, against
// cascading failures.
//
// [Breaker] stops calling an engine after a run of consecutive failures and
// lets a few probe calls through once a cooldown has passed. [Chain] lines up
// interchangeable engines behind per-engine breakers so a dead primary is
// bypassed in favour of a healthy stand-in.
//
// A cancelled context never counts against an engine: an aborted session
// says nothing about the engine's health. All types are safe for concurrent
// use.
package resilience

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

// ErrBreakerOpen is returned by [Breaker.Do] while the breaker refuses calls.
var ErrBreakerOpen = errors.New("resilience: breaker open")

// BreakerState is the operating mode of a [Breaker].
type BreakerState int

const (
	// Closed forwards every call.
	Closed BreakerState = iota

	// Open rejects every call with [ErrBreakerOpen] until the cooldown
	// passes.
	Open

	// Probing lets a bounded number of calls through to test whether the
	// engine has recovered.
	Probing
)

func (s BreakerState) String() string {
	switch s {
	case Closed:
		return "closed"
	case Open:
		return "open"
	case Probing:
		return "probing"
	default:
		return "unknown"
	}
}

// Classifier reports whether an error counts against the engine. Errors it
// rejects neither trip the breaker nor spend a probe.
type Classifier func(error) bool

// countableFailure is the default classifier: everything but context
// cancellation is the engine's fault.
func countableFailure(err error) bool {
	return !errors.Is(err, context.Canceled)
}

// Breaker wraps calls to one engine. Consecutive countable failures trip it
// open; after the cooldown it admits up to its probe budget of calls, closing
// again once that many succeed and reopening on the first probe failure.
type Breaker struct {
	name        string
	tripAfter   int
	cooldown    time.Duration
	probeBudget int
	classify    Classifier
	log         *slog.Logger
	now         func() time.Time

	mu         sync.Mutex
	state      BreakerState
	failures   int
	openedAt   time.Time
	probes     int
	probeFails int
}

// BreakerOption configures a [Breaker].
type BreakerOption func(*Breaker)

// WithTripAfter sets how many consecutive countable failures open the
// breaker. The default is 5.
func WithTripAfter(n int) BreakerOption {
	return func(b *Breaker) {
		if n > 0 {
			b.tripAfter = n
		}
	}
}

// WithCooldown sets how long the breaker stays open before probing. The
// default is 30 seconds.
func WithCooldown(d time.Duration) BreakerOption {
	return func(b *Breaker) {
		if d > 0 {
			b.cooldown = d
		}
	}
}

// WithProbeBudget sets how many probe calls the breaker admits, and how many
// of them must succeed to close it. The default is 3.
func WithProbeBudget(n int) BreakerOption {
	return func(b *Breaker) {
		if n > 0 {
			b.probeBudget = n
		}
	}
}

// WithClassifier replaces the failure classifier.
func WithClassifier(c Classifier) BreakerOption {
	return func(b *Breaker) {
		if c != nil {
			b.classify = c
		}
	}
}

// WithBreakerLogger sets the logger.
func WithBreakerLogger(log *slog.Logger) BreakerOption {
	return func(b *Breaker) {
		if log != nil {
			b.log = log
		}
	}
}

// withClock overrides the time source for tests.
func withClock(now func() time.Time) BreakerOption {
	return func(b *Breaker) { b.now = now }
}

// NewBreaker creates a closed [Breaker] named for log messages.
func NewBreaker(name string, opts ...BreakerOption) *Breaker {
	b := &Breaker{
		name:        name,
		tripAfter:   5,
		cooldown:    30 * time.Second,
		probeBudget: 3,
		classify:    countableFailure,
		log:         slog.Default(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Do runs fn if the breaker admits the call, returning [ErrBreakerOpen]
// otherwise. fn's error is passed through unchanged.
func (b *Breaker) Do(fn func() error) error {
	probe, err := b.admit()
	if err != nil {
		return err
	}
	callErr := fn()
	b.settle(callErr, probe)
	return callErr
}

// admit decides whether a call may proceed and reserves a probe slot when the
// breaker is probing.
func (b *Breaker) admit() (probe bool, err error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.state == Open {
		if b.now().Sub(b.openedAt) < b.cooldown {
			return false, ErrBreakerOpen
		}
		b.state = Probing
		b.probes = 0
		b.probeFails = 0
		b.log.Info("breaker probing", "name", b.name)
	}

	if b.state == Probing {
		if b.probes >= b.probeBudget {
			return false, ErrBreakerOpen
		}
		b.probes++
		return true, nil
	}
	return false, nil
}

// settle books the outcome of an admitted call.
func (b *Breaker) settle(err error, probe bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if err != nil && !b.classify(err) {
		// Not the engine's fault. A reserved probe slot is handed back so
		// cancelled sessions cannot exhaust the budget.
		if probe {
			b.probes--
		}
		return
	}

	switch {
	case err != nil && probe:
		b.probeFails++
		b.state = Open
		b.openedAt = b.now()
		b.failures = b.tripAfter
		b.log.Warn("breaker reopened, probe failed", "name", b.name)
	case err != nil:
		b.failures++
		if b.failures >= b.tripAfter {
			b.state = Open
			b.openedAt = b.now()
			b.log.Warn("breaker tripped", "name", b.name, "failures", b.failures)
		}
	case probe:
		if b.probes-b.probeFails >= b.probeBudget {
			b.state = Closed
			b.failures = 0
			b.log.Info("breaker closed, engine recovered", "name", b.name)
		}
	default:
		b.failures = 0
	}
}

// State reports the breaker's mode. An open breaker whose cooldown has
// elapsed reports [Probing]; the transition itself happens on the next Do.
func (b *Breaker) State() BreakerState {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.state == Open && b.now().Sub(b.openedAt) >= b.cooldown {
		return Probing
	}
	return b.state
}

// Reset forces the breaker closed and clears its counters.
func (b *Breaker) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.state = Closed
	b.failures = 0
	b.probes = 0
	b.probeFails = 0
}
