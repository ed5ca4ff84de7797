package conversation

import "time"

// SessionState labels the orchestrator's position in the turn cycle. It is
// exported for logging and tests only; transitions are owned by the
// orchestrator.
type SessionState int

const (
	StateGreeting SessionState = iota
	StateListening
	StateDispatching
	StateEnded
)

var sessionStateNames = map[SessionState]string{
	StateGreeting:    "greeting",
	StateListening:   "listening",
	StateDispatching: "dispatching",
	StateEnded:       "ended",
}

func (s SessionState) String() string {
	if n, ok := sessionStateNames[s]; ok {
		return n
	}
	return "unknown"
}

// session tracks one wake-to-idle cycle. It is created when the wake phrase
// fires and discarded when the session ends; it is never reused.
type session struct {
	turnCount       int
	maxTurns        int
	commandTimeout  time.Duration
	followUpTimeout time.Duration
	state           SessionState
}

func newSession(maxTurns int, commandTimeout, followUpTimeout time.Duration) *session {
	return &session{
		maxTurns:        maxTurns,
		commandTimeout:  commandTimeout,
		followUpTimeout: followUpTimeout,
		state:           StateGreeting,
	}
}

// first reports whether the session has not yet consumed a turn. The very
// first turn gets the longer command timeout and the stricter failure policy.
func (s *session) first() bool { return s.turnCount == 0 }

// timeout returns the capture timeout for the upcoming turn.
func (s *session) timeout() time.Duration {
	if s.first() {
		return s.commandTimeout
	}
	return s.followUpTimeout
}

// consume marks one turn as used, whether it succeeded or not.
func (s *session) consume() { s.turnCount++ }

// exhausted reports whether the turn cap has been reached.
func (s *session) exhausted() bool { return s.turnCount >= s.maxTurns }
