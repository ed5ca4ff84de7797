// Package status models the user-visible state of the assistant and drives
// an indicator (LED ring, console line, anything implementing Driver) from a
// background worker so that animated states keep updating while the
// conversation loop is busy.
package status

// State is a user-visible assistant state.
type State int

const (
	// Idle means no session is active and wake listening is off.
	Idle State = iota

	// WakeListening means the assistant is waiting for the wake phrase.
	WakeListening

	// CommandListening means the assistant is capturing an utterance.
	CommandListening

	// Processing means a captured utterance is being resolved or dispatched.
	Processing

	// Speaking means the assistant is rendering speech.
	Speaking

	// Muted means capture is disabled.
	Muted

	// Error means the last operation failed.
	Error
)

var stateNames = map[State]string{
	Idle:             "idle",
	WakeListening:    "wake_listening",
	CommandListening: "command_listening",
	Processing:       "processing",
	Speaking:         "speaking",
	Muted:            "muted",
	Error:            "error",
}

func (s State) String() string {
	if n, ok := stateNames[s]; ok {
		return n
	}
	return "unknown"
}

// Animated reports whether the state is rendered as a repeating animation
// rather than a single frame.
func (s State) Animated() bool {
	switch s {
	case WakeListening, CommandListening, Processing:
		return true
	}
	return false
}
