// Package mock provides scripted in-memory implementations of the
// conversation collaborator interfaces for tests.
package mock

import (
	"context"
	"sync"

	"github.com/bwyatt92/muninn/internal/conversation"
	"github.com/bwyatt92/muninn/internal/intent"
	"github.com/bwyatt92/muninn/internal/status"
)

// Wake triggers a fixed number of sessions, then either fails every call
// with Err or blocks until the context expires.
type Wake struct {
	// Err, when non-nil, is returned once the scripted wakes are used up.
	Err error

	mu        sync.Mutex
	remaining int
	calls     int
}

var _ conversation.WakeDetector = (*Wake)(nil)

// NewWake returns a detector that fires n times.
func NewWake(n int) *Wake {
	return &Wake{remaining: n}
}

func (w *Wake) WaitForWake(ctx context.Context) error {
	w.mu.Lock()
	w.calls++
	if w.remaining > 0 {
		w.remaining--
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()
	if w.Err != nil {
		return w.Err
	}
	<-ctx.Done()
	return ctx.Err()
}

// Calls reports how many times WaitForWake was invoked.
func (w *Wake) Calls() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.calls
}

// Silence is a script entry that makes the capturer block until the current
// listen window expires. Use it to end a turn whose fragments never resolved.
const Silence = "\x00silence"

// Capturer replays scripted fragments. Each Capture call returns the next
// fragment; once the script is exhausted it blocks until the context expires,
// which is how a silent microphone looks to the listener.
type Capturer struct {
	mu        sync.Mutex
	fragments []string
}

var _ conversation.Capturer = (*Capturer)(nil)

// NewCapturer returns a capturer that will produce the given fragments in
// order.
func NewCapturer(fragments ...string) *Capturer {
	return &Capturer{fragments: fragments}
}

// Append adds more fragments to the script.
func (c *Capturer) Append(fragments ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.fragments = append(c.fragments, fragments...)
}

func (c *Capturer) Capture(ctx context.Context) (string, error) {
	c.mu.Lock()
	if len(c.fragments) > 0 {
		f := c.fragments[0]
		c.fragments = c.fragments[1:]
		c.mu.Unlock()
		if f == Silence {
			<-ctx.Done()
			return "", ctx.Err()
		}
		return f, nil
	}
	c.mu.Unlock()
	<-ctx.Done()
	return "", ctx.Err()
}

// Speaker records everything spoken.
type Speaker struct {
	mu     sync.Mutex
	spoken []string

	// Err, when non-nil, is returned by every Speak call.
	Err error
}

var _ conversation.Speaker = (*Speaker)(nil)

func (s *Speaker) Speak(_ context.Context, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.spoken = append(s.spoken, text)
	return s.Err
}

// Spoken returns a copy of everything spoken so far.
func (s *Speaker) Spoken() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.spoken))
	copy(out, s.spoken)
	return out
}

// Dispatch is one scripted handler verdict.
type Dispatch struct {
	Outcome conversation.Outcome
	Err     error
}

// Dispatcher replays scripted outcomes and records what was dispatched. If
// the script runs out, it returns a continuation-requesting empty outcome.
type Dispatcher struct {
	mu      sync.Mutex
	script  []Dispatch
	results []intent.Result
}

var _ conversation.Dispatcher = (*Dispatcher)(nil)

// NewDispatcher returns a dispatcher that will produce the given verdicts in
// order.
func NewDispatcher(script ...Dispatch) *Dispatcher {
	return &Dispatcher{script: script}
}

func (d *Dispatcher) Dispatch(_ context.Context, res intent.Result) (conversation.Outcome, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.results = append(d.results, res)
	if len(d.script) == 0 {
		return conversation.Outcome{Continue: true}, nil
	}
	verdict := d.script[0]
	d.script = d.script[1:]
	return verdict.Outcome, verdict.Err
}

// Dispatched returns a copy of every result handed to the dispatcher.
func (d *Dispatcher) Dispatched() []intent.Result {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]intent.Result, len(d.results))
	copy(out, d.results)
	return out
}

// Indicator records status transitions.
type Indicator struct {
	mu     sync.Mutex
	states []status.State
}

var _ conversation.Indicator = (*Indicator)(nil)

func (i *Indicator) Set(s status.State) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.states = append(i.states, s)
}

// States returns a copy of every state set so far.
func (i *Indicator) States() []status.State {
	i.mu.Lock()
	defer i.mu.Unlock()
	out := make([]status.State, len(i.states))
	copy(out, i.states)
	return out
}
