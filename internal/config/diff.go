package config

// ConfigDiff describes what changed between two configs.
// Only fields that can be safely hot-reloaded are tracked.
type ConfigDiff struct {
	LogLevelChanged bool
	NewLogLevel     LogLevel

	// ThresholdsChanged means the resolver must be rebuilt with the new
	// cut-offs.
	ThresholdsChanged bool
	NewThresholds     ThresholdsConfig

	// ConversationChanged means new sessions should pick up the new limits.
	// In-flight sessions keep the limits they started with.
	ConversationChanged bool
	NewConversation     ConversationConfig

	// LexiconPathChanged means the vocabulary must be reloaded from disk.
	LexiconPathChanged bool
	NewLexiconPath     string
}

// Empty reports whether the diff contains no reloadable change.
func (d ConfigDiff) Empty() bool {
	return !d.LogLevelChanged && !d.ThresholdsChanged &&
		!d.ConversationChanged && !d.LexiconPathChanged
}

// Diff compares old and new configs and returns what changed.
// Only tracks changes that are safe to apply without restart: driver
// selections and the listen address require a full restart and are ignored.
func Diff(old, new *Config) ConfigDiff {
	d := ConfigDiff{}

	if old.Server.LogLevel != new.Server.LogLevel {
		d.LogLevelChanged = true
		d.NewLogLevel = new.Server.LogLevel
	}

	if old.Thresholds != new.Thresholds {
		d.ThresholdsChanged = true
		d.NewThresholds = new.Thresholds
	}

	if old.Conversation != new.Conversation {
		d.ConversationChanged = true
		d.NewConversation = new.Conversation
	}

	if old.Lexicon.Path != new.Lexicon.Path {
		d.LexiconPathChanged = true
		d.NewLexiconPath = new.Lexicon.Path
	}

	return d
}
