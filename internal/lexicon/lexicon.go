// Package lexicon holds the static matching tables for the Muninn command
// interpreter: trigger pattern groups, person aliases with their phonetic
// variants, transcript correction rules, and the keyword tables used for
// slot extraction.
//
// A Lexicon is immutable after construction. It is loaded once at process
// start — either the built-in [Default] tables or a YAML file via [Load] —
// and shared read-only by the normalizer and the intent resolver.
package lexicon

// Well-known pattern group names. Strategies in the intent resolver refer to
// groups by these names; [Validate] checks that they all exist.
const (
	GroupPlay      = "play"
	GroupAll       = "all"
	GroupBirthday  = "birthday"
	GroupMessage   = "message"
	GroupRecord    = "record"
	GroupStop      = "stop"
	GroupTime      = "time"
	GroupWeather   = "weather"
	GroupList      = "list"
	GroupRecordFor = "record_for"
	GroupJoke      = "joke"
	GroupDadJoke   = "dad_joke"
	GroupStory     = "story"
)

// requiredGroups is the set of groups the resolver's strategy chain depends on.
var requiredGroups = []string{
	GroupPlay, GroupAll, GroupBirthday, GroupMessage, GroupRecord,
	GroupStop, GroupTime, GroupWeather, GroupList, GroupRecordFor,
	GroupJoke, GroupDadJoke, GroupStory,
}

// CorrectionRule rewrites a known mis-transcription before intent matching.
//
// Trigger is the token sequence the rule fires on. Context optionally
// constrains the tokens immediately preceding the trigger: Context[0] is the
// set of tokens allowed directly before the trigger, Context[1] the set
// allowed one position earlier, and so on. A rule with context only fires
// when every constrained position matches.
type CorrectionRule struct {
	Trigger     []string   `yaml:"trigger"`
	Replacement []string   `yaml:"replacement"`
	Context     [][]string `yaml:"context,omitempty"`
}

// PersonAlias maps a canonical person id to its ordered phonetic variants.
// The canonical id must itself appear in Variants.
type PersonAlias struct {
	ID       string   `yaml:"id"`
	Variants []string `yaml:"variants"`
}

// ExactPhrase maps literal high-specificity phrases to an intent name.
// Phrases are matched by substring containment against the whole transcript.
type ExactPhrase struct {
	Intent  string   `yaml:"intent"`
	Phrases []string `yaml:"phrases"`
}

// Lexicon is the full set of static matching tables.
type Lexicon struct {
	// Patterns maps a group name to the literal trigger words matched with
	// similarity scoring.
	Patterns map[string][]string `yaml:"patterns"`

	// ExactPhrases are checked first by the resolver, before any fuzzy
	// strategy.
	ExactPhrases []ExactPhrase `yaml:"exact_phrases"`

	// Aliases lists known people in iteration order. Order matters: it is
	// the tie-break for equal-scoring alias matches.
	Aliases []PersonAlias `yaml:"aliases"`

	// Corrections are applied by the normalizer in this order, once per
	// pass, left to right.
	Corrections []CorrectionRule `yaml:"corrections"`

	// Lengths maps spoken length keywords to canonical length categories
	// (short, medium, long).
	Lengths map[string]string `yaml:"lengths"`

	// ContentTypes maps spoken content keywords to canonical story types
	// (story, advice, joke, wisdom).
	ContentTypes map[string]string `yaml:"content_types"`
}

// Group returns the trigger words for the named pattern group, or nil when
// the group is unknown.
func (l *Lexicon) Group(name string) []string {
	return l.Patterns[name]
}

// Alias returns the alias entry for the given canonical id, or nil.
func (l *Lexicon) Alias(id string) *PersonAlias {
	for i := range l.Aliases {
		if l.Aliases[i].ID == id {
			return &l.Aliases[i]
		}
	}
	return nil
}

// Default returns the built-in lexicon. The tables mirror the command
// vocabulary and family roster the device ships with; deployments override
// them with a YAML file when the roster changes.
func Default() *Lexicon {
	return &Lexicon{
		Patterns: map[string][]string{
			GroupPlay:      {"play", "played", "playing", "plate", "pale", "clay", "way", "say"},
			GroupAll:       {"all", "old", "hall", "owl", "the", "call", "paul", "wall"},
			GroupBirthday:  {"birthday", "birth day", "berth day", "birthday's", "thursday", "tuesday"},
			GroupMessage:   {"message", "messages", "massage", "msg", "passage", "mess"},
			GroupRecord:    {"record", "recorded", "recording", "report", "recall"},
			GroupStop:      {"stop", "stopped", "stopping", "top", "shop", "step"},
			GroupTime:      {"time", "clock", "what time", "what's the time", "current time"},
			GroupWeather:   {"weather", "temperature", "forecast", "how's the weather", "what's the weather"},
			GroupList:      {"list", "show", "what messages", "who has messages", "message count"},
			GroupRecordFor: {"record for", "record message for", "save for"},
			GroupJoke:      {"joke", "tell me a joke", "tell a joke", "make me laugh", "funny", "humor"},
			GroupDadJoke:   {"dad joke", "tell me a dad joke", "father joke", "cheesy joke"},
			GroupStory:     {"story", "stories", "memory", "memories", "tale", "tales"},
		},
		ExactPhrases: []ExactPhrase{
			{
				Intent:  "playAllMessages",
				Phrases: []string{"play all birthday", "all birthday message", "play birthday message"},
			},
		},
		Aliases: []PersonAlias{
			{ID: "carrie", Variants: []string{"carrie", "carry", "carey", "larry", "marry", "fairy", "mom", "mommy", "mother"}},
			{ID: "cassie", Variants: []string{"cassie", "cass", "cassidy", "sassy", "lassie"}},
			{ID: "scott", Variants: []string{"scott", "scotty", "lot", "bot", "shot", "cot"}},
			{ID: "beau", Variants: []string{"beau", "bo", "low", "sew", "mow", "snow"}},
			{ID: "lizzie", Variants: []string{"lizzie", "liz", "lizzy", "elizabeth", "dizzy", "whizzy", "fizzy", "busy"}},
			{ID: "jean", Variants: []string{"jean", "jeanie", "gene", "jane", "dean"}},
			{ID: "nick", Variants: []string{"nick", "nicky", "nicholas", "nic", "nik", "mick", "pick", "dick"}},
			{ID: "dakota", Variants: []string{"dakota", "de", "kota", "lakota", "tacoma"}},
			{ID: "bea", Variants: []string{"bea", "beatrice", "bee", "b", "tea", "pea"}},
			{ID: "charlie", Variants: []string{"charlie", "charles", "chuck", "charley", "harley", "barley"}},
			{ID: "allie", Variants: []string{"allie", "ally", "allison", "alley", "valley", "sally"}},
			{ID: "luke", Variants: []string{"luke", "lucas", "look", "luca", "duke", "nuke"}},
			{ID: "lyra", Variants: []string{"lyra", "lira", "lyric", "laura", "lara"}},
			{ID: "tui", Variants: []string{"tui", "tooi", "twi", "twee", "too", "two"}},
			{ID: "sevro", Variants: []string{"sevro", "sev", "servo", "severe", "seven"}},
		},
		Corrections: []CorrectionRule{
			// Common STT slips that no fuzzy threshold reliably recovers.
			{Trigger: []string{"massage"}, Replacement: []string{"message"}},
			{Trigger: []string{"massages"}, Replacement: []string{"messages"}},
			{Trigger: []string{"birth", "day"}, Replacement: []string{"birthday"}},
			// "bow" is only Beau when it follows an article after a verb of
			// retrieval ("get a bow story" → "get a beau story"); elsewhere it
			// stays untouched.
			{
				Trigger:     []string{"bow"},
				Replacement: []string{"beau"},
				Context: [][]string{
					{"a", "the"},
					{"get", "got", "give", "play"},
				},
			},
		},
		Lengths: map[string]string{
			"short":  "short",
			"quick":  "short",
			"medium": "medium",
			"long":   "long",
		},
		ContentTypes: map[string]string{
			"advice": "advice",
			"wisdom": "wisdom",
			"lesson": "wisdom",
			"funny":  "joke",
			"joke":   "joke",
			"story":  "story",
		},
	}
}
