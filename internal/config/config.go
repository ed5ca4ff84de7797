// Package config provides the configuration schema, loader, driver registry,
// and file watcher for the Muninn voice assistant.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"gopkg.in/yaml.v3"
)

// LogLevel controls log verbosity for the Muninn process.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Slog maps l to the corresponding [slog.Level]. Unknown values map to info.
func (l LogLevel) Slog() slog.Level {
	switch l {
	case LogDebug:
		return slog.LevelDebug
	case LogWarn:
		return slog.LevelWarn
	case LogError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Duration wraps [time.Duration] with YAML support for strings like "8s" or
// "1m30s".
type Duration time.Duration

// UnmarshalYAML implements [yaml.Unmarshaler].
func (d *Duration) UnmarshalYAML(node *yaml.Node) error {
	var s string
	if err := node.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements [yaml.Marshaler].
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Std returns the wrapped [time.Duration].
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config is the root configuration structure for Muninn.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Lexicon      LexiconConfig      `yaml:"lexicon"`
	Conversation ConversationConfig `yaml:"conversation"`
	Thresholds   ThresholdsConfig   `yaml:"thresholds"`
	Drivers      DriversConfig      `yaml:"drivers"`
	Skills       SkillsConfig       `yaml:"skills"`
}

// ServerConfig holds network and logging settings for the metrics/health
// endpoint.
type ServerConfig struct {
	// ListenAddr is the TCP address the HTTP server listens on (e.g., ":9090").
	ListenAddr string `yaml:"listen_addr"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`
}

// LexiconConfig locates the vocabulary file.
type LexiconConfig struct {
	// Path is the YAML lexicon file. When empty, the built-in default
	// lexicon is used.
	Path string `yaml:"path"`
}

// ConversationConfig bounds a conversation session.
type ConversationConfig struct {
	// WakeTimeout is how long a single wake-phrase wait may last before the
	// detector is polled again.
	WakeTimeout Duration `yaml:"wake_timeout"`

	// CommandTimeout bounds capture of the first utterance of a session.
	CommandTimeout Duration `yaml:"command_timeout"`

	// FollowUpTimeout bounds capture of each follow-up utterance.
	FollowUpTimeout Duration `yaml:"follow_up_timeout"`

	// MaxTurns is the number of command turns allowed per session.
	MaxTurns int `yaml:"max_turns"`

	// MaxTranscriptLen is the accumulated fragment length past which the
	// working transcript is discarded and capture starts over.
	MaxTranscriptLen int `yaml:"max_transcript_len"`
}

// ThresholdsConfig holds the similarity cut-offs for intent resolution. All
// values are in [0,1]. Zero values fall back to the tuned defaults.
type ThresholdsConfig struct {
	// Pattern is the edit-ratio floor for pattern-group membership tests.
	Pattern float64 `yaml:"pattern"`

	// Strategy is the looser floor used by per-strategy token tests.
	Strategy float64 `yaml:"strategy"`

	// Alias is the edit-ratio floor for person-alias matching without
	// phonetic support.
	Alias float64 `yaml:"alias"`

	// AliasBlend is the floor for the blended edit+phonetic alias score.
	AliasBlend float64 `yaml:"alias_blend"`

	// Accept is the minimum resolution confidence the conversation loop
	// treats as understood.
	Accept float64 `yaml:"accept"`
}

// DriversConfig selects the collaborator implementations by name. Each entry
// is looked up in the [Registry].
type DriversConfig struct {
	Wake    DriverEntry `yaml:"wake"`
	Capture DriverEntry `yaml:"capture"`
	Speech  DriverEntry `yaml:"speech"`
	Status  DriverEntry `yaml:"status"`
}

// DriverEntry is the common configuration block shared by all driver types.
// The Name field is used to look up the constructor in the [Registry].
type DriverEntry struct {
	// Name selects the registered driver implementation (e.g., "console").
	Name string `yaml:"name"`

	// Options holds driver-specific configuration values. Values may be
	// strings, numbers, booleans, or nested maps.
	Options map[string]any `yaml:"options"`
}

// SkillsConfig holds settings for the built-in command skills.
type SkillsConfig struct {
	Weather WeatherConfig `yaml:"weather"`
	Jokes   JokesConfig   `yaml:"jokes"`
}

// WeatherConfig configures the weather skill.
type WeatherConfig struct {
	// BaseURL is the wttr.in-compatible endpoint. Defaults to
	// "https://wttr.in" when empty.
	BaseURL string `yaml:"base_url"`

	// Location is the place reported on (e.g., "Denver"). Empty means the
	// service's IP-based guess.
	Location string `yaml:"location"`

	// Timeout bounds each forecast request.
	Timeout Duration `yaml:"timeout"`
}

// JokesConfig configures the joke skill.
type JokesConfig struct {
	// GeneralURL is the random-joke endpoint. Defaults to the official-joke-api.
	GeneralURL string `yaml:"general_url"`

	// DadURL is the dad-joke endpoint. Defaults to icanhazdadjoke.com.
	DadURL string `yaml:"dad_url"`

	// Timeout bounds each joke request.
	Timeout Duration `yaml:"timeout"`
}

// Default returns a Config populated with the production defaults. Loading a
// file overrides individual fields on top of these values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr: ":9090",
			LogLevel:   LogInfo,
		},
		Conversation: ConversationConfig{
			WakeTimeout:      Duration(30 * time.Second),
			CommandTimeout:   Duration(8 * time.Second),
			FollowUpTimeout:  Duration(8 * time.Second),
			MaxTurns:         5,
			MaxTranscriptLen: 80,
		},
		Thresholds: ThresholdsConfig{
			Pattern:    0.8,
			Strategy:   0.7,
			Alias:      0.75,
			AliasBlend: 0.65,
			Accept:     0.7,
		},
		Drivers: DriversConfig{
			Wake:    DriverEntry{Name: "console"},
			Capture: DriverEntry{Name: "console"},
			Speech:  DriverEntry{Name: "console"},
			Status:  DriverEntry{Name: "log"},
		},
		Skills: SkillsConfig{
			Weather: WeatherConfig{
				BaseURL: "https://wttr.in",
				Timeout: Duration(5 * time.Second),
			},
			Jokes: JokesConfig{
				GeneralURL: "https://official-joke-api.appspot.com/random_joke",
				DadURL:     "https://icanhazdadjoke.com/",
				Timeout:    Duration(5 * time.Second),
			},
		},
	}
}
