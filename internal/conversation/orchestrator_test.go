package conversation_test

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/bwyatt92/muninn/internal/conversation"
	"github.com/bwyatt92/muninn/internal/conversation/mock"
	"github.com/bwyatt92/muninn/internal/intent"
)

func testLimits(maxTurns int) conversation.Limits {
	return conversation.Limits{
		WakeTimeout:     50 * time.Millisecond,
		CommandTimeout:  100 * time.Millisecond,
		FollowUpTimeout: 100 * time.Millisecond,
		MaxTurns:        maxTurns,
	}
}

type fixture struct {
	orch       *conversation.Orchestrator
	capturer   *mock.Capturer
	speaker    *mock.Speaker
	dispatcher *mock.Dispatcher
	indicator  *mock.Indicator
}

func newFixture(maxTurns int, capturer *mock.Capturer, script ...mock.Dispatch) *fixture {
	f := &fixture{
		capturer:   capturer,
		speaker:    &mock.Speaker{},
		dispatcher: mock.NewDispatcher(script...),
		indicator:  &mock.Indicator{},
	}
	f.orch = conversation.NewOrchestrator(
		mock.NewWake(1),
		newListener(capturer, 80),
		f.speaker,
		f.dispatcher,
		f.indicator,
		testLimits(maxTurns),
	)
	return f
}

// spokeCount counts how many times text was spoken verbatim.
func (f *fixture) spokeCount(text string) int {
	n := 0
	for _, s := range f.speaker.Spoken() {
		if s == text {
			n++
		}
	}
	return n
}

func TestOrchestrator_EndsExactlyAtMaxTurns(t *testing.T) {
	t.Parallel()

	// Four commands scripted, but maxTurns is 3: the fourth must never be
	// captured or dispatched.
	mc := mock.NewCapturer(
		"what time is it",
		"what time is it",
		"what time is it",
		"what time is it",
	)
	f := newFixture(3, mc,
		mock.Dispatch{Outcome: conversation.Outcome{Continue: true}},
		mock.Dispatch{Outcome: conversation.Outcome{Continue: true}},
		mock.Dispatch{Outcome: conversation.Outcome{Continue: true}},
		mock.Dispatch{Outcome: conversation.Outcome{Continue: true}},
	)

	f.orch.RunSession(context.Background())

	if got := len(f.dispatcher.Dispatched()); got != 3 {
		t.Fatalf("dispatched %d commands, want exactly 3", got)
	}
}

func TestOrchestrator_UnresolvedFirstTurnEndsSession(t *testing.T) {
	t.Parallel()

	mc := mock.NewCapturer("colorless green ideas")
	f := newFixture(5, mc)

	f.orch.RunSession(context.Background())

	if got := len(f.dispatcher.Dispatched()); got != 0 {
		t.Fatalf("dispatched %d commands, want 0", got)
	}
	prompts := conversation.DefaultPrompts()
	if f.spokeCount(prompts.NotUnderstood) != 1 {
		t.Errorf("expected the not-understood prompt once, spoke %v", f.speaker.Spoken())
	}
}

func TestOrchestrator_SilentFirstTurnEndsSession(t *testing.T) {
	t.Parallel()

	f := newFixture(5, mock.NewCapturer())

	f.orch.RunSession(context.Background())

	if got := len(f.dispatcher.Dispatched()); got != 0 {
		t.Fatalf("dispatched %d commands, want 0", got)
	}
	prompts := conversation.DefaultPrompts()
	if f.spokeCount(prompts.NotUnderstood) != 1 {
		t.Errorf("expected the not-understood prompt once, spoke %v", f.speaker.Spoken())
	}
}

func TestOrchestrator_FollowUpTimeoutDispatchesTimeout(t *testing.T) {
	t.Parallel()

	mc := mock.NewCapturer("what time is it")
	f := newFixture(5, mc,
		mock.Dispatch{Outcome: conversation.Outcome{Reply: "It's noon.", Continue: true}},
		mock.Dispatch{Outcome: conversation.Outcome{Reply: "Goodbye!"}},
	)

	f.orch.RunSession(context.Background())

	dispatched := f.dispatcher.Dispatched()
	if len(dispatched) != 2 {
		t.Fatalf("dispatched %d commands, want 2", len(dispatched))
	}
	if dispatched[1].Intent != intent.Timeout {
		t.Errorf("second dispatch = %v, want Timeout", dispatched[1].Intent)
	}
	if f.spokeCount("Goodbye!") != 1 {
		t.Errorf("farewell not spoken: %v", f.speaker.Spoken())
	}
}

func TestOrchestrator_GibberishFollowUpsRetryThenCap(t *testing.T) {
	t.Parallel()

	// Two understood commands, then three gibberish follow-ups with
	// maxTurns=5: retry prompt on turns 2 and 3, cap message on the third
	// consumed failure when the turn count reaches 5.
	mc := mock.NewCapturer(
		"what time is it",
		"what time is it",
		"blah blah", mock.Silence,
		"blah blah", mock.Silence,
		"blah blah", mock.Silence,
	)
	f := newFixture(5, mc,
		mock.Dispatch{Outcome: conversation.Outcome{Continue: true}},
		mock.Dispatch{Outcome: conversation.Outcome{Continue: true}},
	)

	f.orch.RunSession(context.Background())

	if got := len(f.dispatcher.Dispatched()); got != 2 {
		t.Fatalf("dispatched %d commands, want 2", got)
	}
	prompts := conversation.DefaultPrompts()
	if got := f.spokeCount(prompts.Retry); got != 2 {
		t.Errorf("retry prompt spoken %d times, want 2: %v", got, f.speaker.Spoken())
	}
	if got := f.spokeCount(prompts.TurnCap); got != 1 {
		t.Errorf("cap message spoken %d times, want 1: %v", got, f.speaker.Spoken())
	}
}

func TestOrchestrator_HandlerFailureApologizesAndContinues(t *testing.T) {
	t.Parallel()

	mc := mock.NewCapturer("what time is it", "what time is it")
	f := newFixture(5, mc,
		mock.Dispatch{Err: errors.New("clock service down")},
		mock.Dispatch{Outcome: conversation.Outcome{Reply: "It's noon."}},
	)

	f.orch.RunSession(context.Background())

	if got := len(f.dispatcher.Dispatched()); got != 2 {
		t.Fatalf("dispatched %d commands, want 2 (session must survive the failure)", got)
	}
	prompts := conversation.DefaultPrompts()
	if f.spokeCount(prompts.Apology) != 1 {
		t.Errorf("apology not spoken: %v", f.speaker.Spoken())
	}
	if f.spokeCount("It's noon.") != 1 {
		t.Errorf("second command reply missing: %v", f.speaker.Spoken())
	}
}

func TestOrchestrator_TerminalIntentOverridesContinuation(t *testing.T) {
	t.Parallel()

	// Handler asks to continue, but "stop" is terminal.
	mc := mock.NewCapturer("stop", "what time is it")
	f := newFixture(5, mc,
		mock.Dispatch{Outcome: conversation.Outcome{Reply: "Goodbye.", Continue: true}},
	)

	f.orch.RunSession(context.Background())

	dispatched := f.dispatcher.Dispatched()
	if len(dispatched) != 1 {
		t.Fatalf("dispatched %d commands, want 1", len(dispatched))
	}
	if dispatched[0].Intent != intent.Stop {
		t.Errorf("intent = %v, want Stop", dispatched[0].Intent)
	}
}

func TestOrchestrator_HandlerCanEndSession(t *testing.T) {
	t.Parallel()

	mc := mock.NewCapturer("what time is it", "what time is it")
	f := newFixture(5, mc,
		mock.Dispatch{Outcome: conversation.Outcome{Reply: "It's noon.", Continue: false}},
	)

	f.orch.RunSession(context.Background())

	if got := len(f.dispatcher.Dispatched()); got != 1 {
		t.Fatalf("dispatched %d commands, want 1", got)
	}
}

func TestOrchestrator_RunWakesThenReturnsOnCancel(t *testing.T) {
	t.Parallel()

	mc := mock.NewCapturer("stop")
	f := newFixture(5, mc,
		mock.Dispatch{Outcome: conversation.Outcome{Reply: "Goodbye."}},
	)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	err := f.orch.Run(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Run returned %v, want deadline exceeded", err)
	}
	if got := len(f.dispatcher.Dispatched()); got != 1 {
		t.Fatalf("dispatched %d commands, want 1", got)
	}
}

func TestOrchestrator_RunAnnouncesReadinessOnce(t *testing.T) {
	t.Parallel()

	mc := mock.NewCapturer("stop")
	f := newFixture(5, mc,
		mock.Dispatch{Outcome: conversation.Outcome{Reply: "Goodbye!"}},
	)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	_ = f.orch.Run(ctx)

	prompts := conversation.DefaultPrompts()
	if got := f.spokeCount(prompts.Ready); got != 1 {
		t.Errorf("readiness line spoken %d times, want 1: %v", got, f.speaker.Spoken())
	}
	// The line belongs to the loop, not the session: a session start speaks
	// only the greeting.
	if got := f.spokeCount(prompts.Greeting); got != 1 {
		t.Errorf("greeting spoken %d times, want 1: %v", got, f.speaker.Spoken())
	}
}

func TestOrchestrator_RunStopsWhenWakeSourceCloses(t *testing.T) {
	t.Parallel()

	w := mock.NewWake(0)
	w.Err = io.EOF
	orch := conversation.NewOrchestrator(
		w,
		newListener(mock.NewCapturer(), 80),
		&mock.Speaker{},
		mock.NewDispatcher(),
		&mock.Indicator{},
		testLimits(5),
	)

	err := orch.Run(context.Background())
	if !errors.Is(err, io.EOF) {
		t.Fatalf("Run returned %v, want io.EOF", err)
	}
	if got := w.Calls(); got != 1 {
		t.Errorf("wake polled %d times after EOF, want 1", got)
	}
}

func TestOrchestrator_WakeFailuresBackOff(t *testing.T) {
	t.Parallel()

	w := mock.NewWake(0)
	w.Err = errors.New("i2c glitch")
	orch := conversation.NewOrchestrator(
		w,
		newListener(mock.NewCapturer(), 80),
		&mock.Speaker{},
		mock.NewDispatcher(),
		&mock.Indicator{},
		testLimits(5),
	)

	ctx, cancel := context.WithTimeout(context.Background(), 250*time.Millisecond)
	defer cancel()

	err := orch.Run(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Run returned %v, want deadline exceeded", err)
	}
	if got := w.Calls(); got > 2 {
		t.Errorf("wake retried %d times in 250ms, want the retry delay to hold it to at most 2", got)
	}
}
