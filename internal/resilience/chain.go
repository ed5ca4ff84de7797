package resilience

import (
	"errors"
	"fmt"
	"log/slog"
)

// ErrChainExhausted is returned when every engine in a [Chain] failed or sat
// behind an open breaker.
var ErrChainExhausted = errors.New("resilience: every engine failed")

// Chain tries a primary engine and then its stand-ins in order, each behind
// its own [Breaker]. Engines whose breaker is open are skipped without being
// called, so a phrase after a dead primary goes straight to the stand-in.
//
// Extend must not be called concurrently with Do; wire the chain up before
// handing it out.
type Chain[T any] struct {
	links       []link[T]
	breakerOpts []BreakerOption
	log         *slog.Logger
}

type link[T any] struct {
	name    string
	engine  T
	breaker *Breaker
}

// ChainOption configures a [Chain].
type ChainOption[T any] func(*Chain[T])

// WithChainBreaker sets the options applied to every per-engine breaker.
func WithChainBreaker[T any](opts ...BreakerOption) ChainOption[T] {
	return func(c *Chain[T]) { c.breakerOpts = opts }
}

// WithChainLogger sets the logger.
func WithChainLogger[T any](log *slog.Logger) ChainOption[T] {
	return func(c *Chain[T]) {
		if log != nil {
			c.log = log
		}
	}
}

// NewChain creates a chain with the named primary engine.
func NewChain[T any](name string, primary T, opts ...ChainOption[T]) *Chain[T] {
	c := &Chain[T]{log: slog.Default()}
	for _, opt := range opts {
		opt(c)
	}
	c.Extend(name, primary)
	return c
}

// Extend appends a stand-in engine. Stand-ins are tried in the order added.
func (c *Chain[T]) Extend(name string, engine T) {
	opts := append([]BreakerOption{WithBreakerLogger(c.log)}, c.breakerOpts...)
	c.links = append(c.links, link[T]{
		name:    name,
		engine:  engine,
		breaker: NewBreaker(name, opts...),
	})
}

// Do runs fn against each engine in order until one succeeds. When every
// engine fails the last error is wrapped in [ErrChainExhausted].
func (c *Chain[T]) Do(fn func(T) error) error {
	var lastErr error
	for i := range c.links {
		l := &c.links[i]
		err := l.breaker.Do(func() error { return fn(l.engine) })
		if err == nil {
			return nil
		}
		lastErr = err
		if errors.Is(err, ErrBreakerOpen) {
			c.log.Debug("engine skipped, breaker open", "engine", l.name)
		} else {
			c.log.Warn("engine failed, trying next", "engine", l.name, "error", err)
		}
	}
	return fmt.Errorf("%w: %v", ErrChainExhausted, lastErr)
}

// ChainResult runs fn against each engine in c until one succeeds and returns
// its result. A package-level function because Go methods cannot introduce
// type parameters.
func ChainResult[T, R any](c *Chain[T], fn func(T) (R, error)) (R, error) {
	var out R
	err := c.Do(func(engine T) error {
		var innerErr error
		out, innerErr = fn(engine)
		return innerErr
	})
	if err != nil {
		var zero R
		return zero, err
	}
	return out, nil
}
