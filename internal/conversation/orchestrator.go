package conversation

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/bwyatt92/muninn/internal/intent"
	"github.com/bwyatt92/muninn/internal/observe"
	"github.com/bwyatt92/muninn/internal/status"
)

// Prompts are the canned responses the orchestrator speaks itself, outside of
// command handlers.
type Prompts struct {
	// Ready is announced once when the loop starts, before any wake phrase.
	Ready string

	// Greeting opens every session after the wake phrase.
	Greeting string

	// NotUnderstood ends a session whose very first turn produced nothing
	// usable.
	NotUnderstood string

	// Retry asks for another attempt after an unresolved follow-up.
	Retry string

	// TurnCap closes a session that hit the turn limit on a failed turn.
	TurnCap string

	// Apology covers a handler that accepted the command but failed running it.
	Apology string
}

// DefaultPrompts returns the stock phrasing.
func DefaultPrompts() Prompts {
	return Prompts{
		Ready:         "Muninn is ready to serve you. Say my name to begin.",
		Greeting:      "How may I serve you?",
		NotUnderstood: "I did not understand that command. Please try again.",
		Retry:         "I didn't catch that. Please try again.",
		TurnCap:       "That's all for now. Goodbye!",
		Apology:       "Sorry, something went wrong with that one.",
	}
}

// Limits bounds a session. Values come straight from configuration.
type Limits struct {
	WakeTimeout     time.Duration
	CommandTimeout  time.Duration
	FollowUpTimeout time.Duration
	MaxTurns        int
}

// Orchestrator owns the wake-to-idle cycle. It is not safe for concurrent
// Run calls; exactly one of wake-wait, capture, dispatch, and speak is active
// at any moment because they share the audio device.
type Orchestrator struct {
	wake       WakeDetector
	listener   *Listener
	speaker    Speaker
	dispatcher Dispatcher
	indicator  Indicator
	prompts    Prompts
	metrics    *observe.Metrics
	log        *slog.Logger

	// mu guards limits, which SetLimits may swap between sessions.
	mu     sync.RWMutex
	limits Limits
}

// SetLimits replaces the session bounds. A session already in progress keeps
// the bounds it started with.
func (o *Orchestrator) SetLimits(l Limits) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.limits = l
}

func (o *Orchestrator) currentLimits() Limits {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.limits
}

// Option configures an [Orchestrator].
type Option func(*Orchestrator)

// WithPrompts overrides the canned responses.
func WithPrompts(p Prompts) Option {
	return func(o *Orchestrator) { o.prompts = p }
}

// WithMetrics sets the metrics sink. Defaults to [observe.DefaultMetrics].
func WithMetrics(m *observe.Metrics) Option {
	return func(o *Orchestrator) { o.metrics = m }
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(o *Orchestrator) { o.log = log }
}

// NewOrchestrator assembles the state machine over its collaborators.
func NewOrchestrator(wake WakeDetector, listener *Listener, speaker Speaker, dispatcher Dispatcher, indicator Indicator, limits Limits, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		wake:       wake,
		listener:   listener,
		speaker:    speaker,
		dispatcher: dispatcher,
		indicator:  indicator,
		limits:     limits,
		prompts:    DefaultPrompts(),
		log:        slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.metrics == nil {
		o.metrics = observe.DefaultMetrics()
	}
	return o
}

// wakeRetryDelay paces the wake loop after a detector failure so a
// persistently broken microphone cannot spin the loop hot.
const wakeRetryDelay = time.Second

// Run announces readiness, then alternates between waiting for the wake
// phrase and running one session, until ctx is cancelled. Wake-wait failures
// other than timeouts are logged and retried after a short delay; a closed
// wake source (io.EOF) and ctx cancellation stop the loop.
func (o *Orchestrator) Run(ctx context.Context) error {
	if o.prompts.Ready != "" {
		o.speak(ctx, o.prompts.Ready)
	}

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		o.indicator.Set(status.WakeListening)
		wakeCtx, cancel := context.WithTimeout(ctx, o.currentLimits().WakeTimeout)
		err := o.wake.WaitForWake(wakeCtx)
		cancel()

		switch {
		case err == nil:
			o.runSession(ctx)
		case ctx.Err() != nil:
			o.indicator.Set(status.Idle)
			return ctx.Err()
		case errors.Is(err, context.DeadlineExceeded):
			// No wake phrase this window; poll again.
		case errors.Is(err, io.EOF):
			// The wake source is gone for good; retrying cannot help.
			o.indicator.Set(status.Idle)
			o.log.Error("wake source closed", "error", err)
			return err
		default:
			o.log.Warn("wake detector failed", "error", err)
			select {
			case <-ctx.Done():
			case <-time.After(wakeRetryDelay):
			}
		}
	}
}

// RunSession executes exactly one session without waiting for a wake phrase.
// Exposed for tests and for push-to-talk style triggers.
func (o *Orchestrator) RunSession(ctx context.Context) {
	o.runSession(ctx)
}

func (o *Orchestrator) runSession(ctx context.Context) {
	limits := o.currentLimits()
	sess := newSession(limits.MaxTurns, limits.CommandTimeout, limits.FollowUpTimeout)
	o.metrics.ActiveSessions.Add(ctx, 1)
	defer o.metrics.ActiveSessions.Add(ctx, -1)
	defer func() {
		sess.state = StateEnded
		o.log.Info("session ended", "turns", sess.turnCount)
	}()

	o.log.Info("session started")
	o.speak(ctx, o.prompts.Greeting)

	followUp := limits.FollowUpTimeout

	for {
		sess.state = StateListening
		o.indicator.Set(status.CommandListening)

		timeout := sess.timeout()
		if !sess.first() && followUp > 0 {
			timeout = followUp
		}

		start := time.Now()
		res, raw, err := o.listener.Listen(ctx, timeout)
		o.indicator.Set(status.Processing)

		if err != nil {
			if errors.Is(err, ErrListenTimeout) {
				if sess.first() {
					o.speak(ctx, o.prompts.NotUnderstood)
					return
				}
				// A silent follow-up window means the user walked away.
				// Dispatch the timeout pseudo-command so the processor can
				// say goodbye its own way.
				o.dispatchTimeout(ctx)
				return
			}
			if ctx.Err() != nil {
				return
			}
			o.log.Error("capture failed", "error", err)
			return
		}

		if !res.Understood {
			o.metrics.RecordUnresolved(ctx)
			o.log.Info("unresolved utterance", "transcript", raw, "turn", sess.turnCount)
			if sess.first() {
				o.speak(ctx, o.prompts.NotUnderstood)
				return
			}
			sess.consume()
			if sess.exhausted() {
				o.speak(ctx, o.prompts.TurnCap)
				return
			}
			o.speak(ctx, o.prompts.Retry)
			continue
		}

		sess.state = StateDispatching
		o.metrics.RecordResolution(ctx, string(res.Intent), res.Strategy, res.Confidence)
		o.log.Info("command resolved",
			"intent", string(res.Intent),
			"strategy", res.Strategy,
			"confidence", res.Confidence,
			"slots", res.Slots,
			"turn", sess.turnCount,
		)

		outcome, derr := o.dispatcher.Dispatch(ctx, res)
		sess.consume()
		o.metrics.TurnDuration.Record(ctx, time.Since(start).Seconds())

		if derr != nil {
			o.metrics.RecordHandlerFailure(ctx, string(res.Intent))
			o.log.Error("handler failed", "intent", string(res.Intent), "error", derr)
			o.indicator.Set(status.Error)
			o.speak(ctx, o.prompts.Apology)
			if sess.exhausted() {
				return
			}
			continue
		}

		if outcome.Reply != "" {
			o.speak(ctx, outcome.Reply)
		}

		if res.Intent.Terminal() || !outcome.Continue || sess.exhausted() {
			return
		}
		if outcome.NextTimeout > 0 {
			followUp = outcome.NextTimeout
		}
	}
}

// dispatchTimeout reports an expired follow-up window to the command
// processor and speaks whatever farewell it returns.
func (o *Orchestrator) dispatchTimeout(ctx context.Context) {
	outcome, err := o.dispatcher.Dispatch(ctx, intent.TimedOut())
	if err != nil {
		o.log.Warn("timeout dispatch failed", "error", err)
		return
	}
	if outcome.Reply != "" {
		o.speak(ctx, outcome.Reply)
	}
}

// speak renders text, absorbing failures: a broken speaker degrades the
// experience but never ends the process.
func (o *Orchestrator) speak(ctx context.Context, text string) {
	o.indicator.Set(status.Speaking)
	if err := o.speaker.Speak(ctx, text); err != nil {
		o.metrics.SpeakFailures.Add(ctx, 1)
		o.log.Warn("speak failed", "error", err)
	}
}
