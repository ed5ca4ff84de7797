package intent

import "github.com/bwyatt92/muninn/internal/lexicon"

// strategy pairs a name (for logging, metrics, and tests) with a matching
// function. A nil return means "no opinion, try the next strategy".
type strategy struct {
	name string
	fn   func(r *Resolver, q *query) *Result
}

// defaultChain returns the production strategy ordering. The order is load-
// bearing: playback disambiguation must run before any record strategy so
// that past-tense mentions of "recorded" are never taken as a new-recording
// command, the entity-request redirect must run before the bare record
// strategy so "record a story" starts the story workflow rather than a plain
// memo, and the list strategies must run before stop because "show" sits
// within one edit of the "shop" stop variant.
func defaultChain() []strategy {
	return []strategy{
		{name: "exact-phrase", fn: exactPhrase},
		{name: "playback-disambiguation", fn: playbackDisambiguation},
		{name: "entity-request", fn: entityRequest},
		{name: "aggregate-playback", fn: aggregatePlayback},
		{name: "person-playback", fn: personPlayback},
		{name: "new-recording", fn: newRecording},
		{name: "list-messages", fn: listMessages},
		{name: "list-stories", fn: listStories},
		{name: "stop", fn: stopCommand},
		{name: "get-time", fn: getTime},
		{name: "get-weather", fn: getWeather},
		{name: "record-for-person", fn: recordForPerson},
		{name: "tell-dad-joke", fn: tellDadJoke},
		{name: "tell-joke", fn: tellJoke},
	}
}

// exactPhrase checks literal substring containment for the lexicon's
// high-specificity phrases and locks the intent immediately.
func exactPhrase(r *Resolver, q *query) *Result {
	for _, e := range r.lex.ExactPhrases {
		for _, p := range e.Phrases {
			if q.contains(p) {
				return &Result{Intent: Kind(e.Intent), Confidence: 0.95}
			}
		}
	}
	return nil
}

// playbackDisambiguation resolves "play" co-occurring with temporal or
// past-tense markers to playback of an existing recording. Evaluated before
// any record strategy by design.
func playbackDisambiguation(r *Resolver, q *query) *Result {
	if !r.group(q, lexicon.GroupPlay) {
		return nil
	}
	if q.containsAny("last", "recent", "latest") || q.contains("recorded") || q.contains("memory") {
		return &Result{Intent: PlayLastRecording, Confidence: 0.95}
	}
	return nil
}

// entityRequest handles story/message/memory requests that carry optional
// person, length, and content-type slots. A record pattern co-occurring with
// a content noun redirects to the record-new-content workflow: recording
// takes precedence over playback whenever both are plausible and no
// playback-disambiguation marker fired earlier in the chain.
func entityRequest(r *Resolver, q *query) *Result {
	hasStory := r.group(q, lexicon.GroupStory)

	length, hasLength := extractKeyword(q.words, r.lex.Lengths)
	storyType, hasType := extractKeyword(q.words, r.lex.ContentTypes)

	if !hasStory {
		// An explicit "get" request only counts when it carries a content cue.
		if !hasToken(q.words, "get") || (!hasLength && !hasType) {
			return nil
		}
	}

	slots := map[string]string{}
	person, _, hasPerson := r.aliases.Resolve(q.words)
	if hasPerson {
		slots[SlotPerson] = person
	}

	if hasStory && r.group(q, lexicon.GroupRecord) {
		return &Result{Intent: RecordStory, Slots: slots, Confidence: 0.95}
	}

	// A bare "list the stories" / "show me the stories" is an inventory
	// request, not content retrieval; leave it for the list strategies.
	if (hasToken(q.words, "list") || hasToken(q.words, "show")) && !hasLength && !hasType && !hasPerson {
		return nil
	}

	if hasLength {
		slots[SlotLength] = length
	}
	if hasType {
		slots[SlotStory] = storyType
	}
	return &Result{Intent: GetMemory, Slots: slots, Confidence: 0.85}
}

// aggregatePlayback resolves "all" + the birthday category to playing the
// whole message collection.
func aggregatePlayback(r *Resolver, q *query) *Result {
	if r.group(q, lexicon.GroupAll) && r.group(q, lexicon.GroupBirthday) {
		return &Result{Intent: PlayAllMessages, Confidence: 0.85}
	}
	return nil
}

// personPlayback resolves a play/message pattern plus a person alias to
// single-person playback.
func personPlayback(r *Resolver, q *query) *Result {
	if !r.group(q, lexicon.GroupPlay) && !r.group(q, lexicon.GroupMessage) {
		return nil
	}
	person, _, ok := r.aliases.Resolve(q.words)
	if !ok {
		return nil
	}
	return &Result{
		Intent:     GetMessage,
		Slots:      map[string]string{SlotPerson: person},
		Confidence: 0.9,
	}
}

// newRecording matches present-tense record commands. The literal token test
// keeps "recorded" (past tense, already rejected here only when "play" is
// absent) from starting a recording.
func newRecording(r *Resolver, q *query) *Result {
	if !r.group(q, lexicon.GroupRecord) || r.group(q, lexicon.GroupPlay) {
		return nil
	}
	if !hasToken(q.words, "record") && !hasToken(q.words, "recording") {
		return nil
	}
	return &Result{Intent: CreateMemory, Confidence: 0.8}
}

func stopCommand(r *Resolver, q *query) *Result {
	if r.groupLoose(q, lexicon.GroupStop) {
		return &Result{Intent: Stop, Confidence: 0.9}
	}
	return nil
}

func getTime(r *Resolver, q *query) *Result {
	if r.groupLoose(q, lexicon.GroupTime) || q.contains("time") {
		return &Result{Intent: GetTime, Confidence: 0.9}
	}
	return nil
}

func getWeather(r *Resolver, q *query) *Result {
	if r.groupLoose(q, lexicon.GroupWeather) || q.contains("weather") {
		return &Result{Intent: GetWeather, Confidence: 0.9}
	}
	return nil
}

func listMessages(r *Resolver, q *query) *Result {
	if !hasToken(q.words, "list") && !hasToken(q.words, "show") {
		return nil
	}
	if !r.groupLoose(q, lexicon.GroupMessage) {
		return nil
	}
	return &Result{Intent: ListMessages, Confidence: 0.9}
}

func listStories(r *Resolver, q *query) *Result {
	if !hasToken(q.words, "list") && !hasToken(q.words, "show") {
		return nil
	}
	if !r.groupLoose(q, lexicon.GroupStory) {
		return nil
	}
	return &Result{Intent: ListStories, Confidence: 0.9}
}

func recordForPerson(r *Resolver, q *query) *Result {
	if !r.groupLoose(q, lexicon.GroupRecordFor) {
		return nil
	}
	person, _, ok := r.aliases.Resolve(q.words)
	if !ok {
		return nil
	}
	return &Result{
		Intent:     RecordForPerson,
		Slots:      map[string]string{SlotPerson: person},
		Confidence: 0.9,
	}
}

// tellDadJoke runs before tellJoke so that "dad joke" requests are not
// swallowed by the generic joke pattern.
func tellDadJoke(r *Resolver, q *query) *Result {
	if r.groupLoose(q, lexicon.GroupDadJoke) || (hasToken(q.words, "dad") && hasToken(q.words, "joke")) {
		return &Result{Intent: TellDadJoke, Confidence: 0.9}
	}
	return nil
}

func tellJoke(r *Resolver, q *query) *Result {
	if r.groupLoose(q, lexicon.GroupJoke) || q.contains("joke") {
		return &Result{Intent: TellJoke, Confidence: 0.9}
	}
	return nil
}

// extractKeyword returns the canonical value for the first word found in the
// keyword table.
func extractKeyword(words []string, table map[string]string) (string, bool) {
	for _, w := range words {
		if v, ok := table[w]; ok {
			return v, true
		}
	}
	return "", false
}
