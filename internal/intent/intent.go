// Package intent classifies normalized transcripts into commands.
//
// The resolver evaluates an explicitly ordered list of strategies against the
// transcript and returns the first sufficiently confident match. The ordering
// is the core design decision — many trigger words overlap across intents
// (most notably "record", which means playback in the past tense and a new
// recording in the present tense) — so it is kept as an inspectable slice of
// named strategies rather than implicit control flow.
package intent

// Kind is the canonical command category a transcript is classified into.
type Kind string

const (
	PlayAllMessages   Kind = "playAllMessages"
	GetMessage        Kind = "getMessage"
	CreateMemory      Kind = "createMemory"
	GetMemory         Kind = "getMemory"
	Stop              Kind = "stop"
	GetTime           Kind = "getTime"
	GetWeather        Kind = "getWeather"
	PlayLastRecording Kind = "playLastRecording"
	ListMessages      Kind = "listMessages"
	ListStories       Kind = "listStories"
	RecordStory       Kind = "recordStory"
	RecordForPerson   Kind = "recordForPerson"
	TellJoke          Kind = "tellJoke"
	TellDadJoke       Kind = "tellDadJoke"

	// Timeout is the pseudo-intent reported when a listening window expires
	// without a confident match.
	Timeout Kind = "timeout"

	// Unknown is reported when no strategy matched.
	Unknown Kind = "unknown"
)

// Terminal reports whether a command always ends the conversation, regardless
// of what the handler requests. Stop and the recording workflows hand the
// audio device over to a blocking flow, so follow-up listening cannot resume.
func (k Kind) Terminal() bool {
	switch k {
	case Stop, CreateMemory, RecordStory, RecordForPerson, Timeout:
		return true
	}
	return false
}

// Slot names extracted alongside intents.
const (
	SlotPerson = "person"
	SlotStory  = "story"
	SlotLength = "length"
)

// Result is the outcome of one resolution pass. Results are produced fresh
// per evaluation and never mutated afterwards.
type Result struct {
	Intent     Kind
	Slots      map[string]string
	Confidence float64
	Understood bool

	// Strategy names the strategy that produced the match; empty when
	// Understood is false. Exposed for logging and metrics.
	Strategy string
}

// unresolved is the canonical no-match result.
func unresolved() Result {
	return Result{Intent: Unknown, Slots: map[string]string{}}
}

// TimedOut returns the canonical timeout result.
func TimedOut() Result {
	return Result{Intent: Timeout, Slots: map[string]string{}}
}
