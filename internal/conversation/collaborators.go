// Package conversation implements the turn-by-turn state machine that sits
// between the wake detector and the command processor.
//
// A session runs WAKE_LISTEN → GREET → COMMAND_LISTEN → DISPATCH and then
// either loops back to COMMAND_LISTEN for a follow-up or ends and returns to
// WAKE_LISTEN. All audio-facing work goes through the narrow collaborator
// interfaces below so the machine can be driven by real devices or by test
// doubles from the mock subpackage.
package conversation

import (
	"context"
	"time"

	"github.com/bwyatt92/muninn/internal/intent"
	"github.com/bwyatt92/muninn/internal/status"
)

// WakeDetector blocks until the wake phrase is heard.
type WakeDetector interface {
	// WaitForWake returns nil when the wake phrase was detected. It must
	// respect ctx cancellation and deadline; an expired deadline is reported
	// as ctx.Err().
	WaitForWake(ctx context.Context) error
}

// Capturer produces transcript fragments from the speech-to-text engine.
type Capturer interface {
	// Capture blocks until the next fragment of transcribed speech is
	// available or ctx expires. An empty fragment means the engine emitted
	// silence; the caller should keep listening.
	Capture(ctx context.Context) (string, error)
}

// Speaker renders a response out loud.
type Speaker interface {
	// Speak blocks until the text has been rendered. A synthesis or playback
	// failure is returned as an error and is never fatal to the session.
	Speak(ctx context.Context, text string) error
}

// Outcome is a command handler's verdict on how the conversation proceeds.
type Outcome struct {
	// Reply is spoken to the user. Empty means the handler already produced
	// its own audio (e.g. message playback).
	Reply string

	// Continue requests a follow-up listening turn.
	Continue bool

	// NextTimeout overrides the follow-up capture timeout for the next turn
	// when positive.
	NextTimeout time.Duration
}

// Dispatcher executes a resolved intent.
type Dispatcher interface {
	Dispatch(ctx context.Context, res intent.Result) (Outcome, error)
}

// Indicator receives fire-and-forget status updates.
type Indicator interface {
	Set(s status.State)
}

// Normalizer rewrites a raw transcript before resolution.
type Normalizer interface {
	Normalize(text string) string
}

// Resolver classifies a normalized transcript.
type Resolver interface {
	Resolve(text string) intent.Result
}
