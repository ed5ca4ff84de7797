package status

import (
	"log/slog"
	"sync"
	"time"
)

// Driver renders a single frame of a state. Implementations must be safe to
// call from the indicator's worker goroutine. Frame is called once for static
// states and once per tick for animated ones, with frame increasing from 0.
type Driver interface {
	Frame(s State, frame int) error
}

// DriverFunc adapts a function to the Driver interface.
type DriverFunc func(s State, frame int) error

func (f DriverFunc) Frame(s State, frame int) error { return f(s, frame) }

var _ Driver = DriverFunc(nil)

const defaultFrameInterval = 120 * time.Millisecond

// Indicator owns a worker goroutine that renders the current state through a
// Driver. Set is cheap and never blocks on the driver.
type Indicator struct {
	driver   Driver
	log      *slog.Logger
	interval time.Duration

	mu      sync.Mutex
	updates chan State
	done    chan struct{}
}

// IndicatorOption configures an Indicator.
type IndicatorOption func(*Indicator)

// WithFrameInterval overrides the animation tick interval.
func WithFrameInterval(d time.Duration) IndicatorOption {
	return func(ind *Indicator) {
		ind.interval = d
	}
}

// WithLogger sets the logger used for driver errors.
func WithLogger(log *slog.Logger) IndicatorOption {
	return func(ind *Indicator) {
		ind.log = log
	}
}

// NewIndicator creates an indicator and starts its worker in state Idle.
func NewIndicator(driver Driver, opts ...IndicatorOption) *Indicator {
	ind := &Indicator{
		driver:   driver,
		log:      slog.Default(),
		interval: defaultFrameInterval,
		updates:  make(chan State, 1),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(ind)
	}
	go ind.run()
	return ind
}

// Set switches the indicator to state s. Pending unrendered states are
// replaced, only the most recent one matters.
func (ind *Indicator) Set(s State) {
	ind.mu.Lock()
	defer ind.mu.Unlock()
	if ind.updates == nil {
		return
	}
	select {
	case ind.updates <- s:
	default:
		// Drain the stale pending state and replace it.
		select {
		case <-ind.updates:
		default:
		}
		ind.updates <- s
	}
}

// Close stops the worker and waits for it to exit. The indicator renders
// Idle once before shutting down. Close is idempotent.
func (ind *Indicator) Close() {
	ind.mu.Lock()
	if ind.updates == nil {
		ind.mu.Unlock()
		return
	}
	close(ind.updates)
	ind.updates = nil
	ind.mu.Unlock()
	<-ind.done
}

func (ind *Indicator) run() {
	defer close(ind.done)

	updates := ind.updates
	ticker := time.NewTicker(ind.interval)
	defer ticker.Stop()

	state := Idle
	frame := 0
	ind.render(state, frame)

	for {
		select {
		case s, ok := <-updates:
			if !ok {
				ind.render(Idle, 0)
				return
			}
			if s == state {
				continue
			}
			state = s
			frame = 0
			ind.render(state, frame)
		case <-ticker.C:
			if !state.Animated() {
				continue
			}
			frame++
			ind.render(state, frame)
		}
	}
}

func (ind *Indicator) render(s State, frame int) {
	if err := ind.driver.Frame(s, frame); err != nil {
		ind.log.Warn("status driver frame failed", "state", s.String(), "error", err)
	}
}
