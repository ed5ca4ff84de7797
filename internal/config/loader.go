package config

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path and returns a validated
// [Config]. Fields absent from the file keep their [Default] values. It is a
// convenience wrapper around [LoadFromReader].
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r on top of [Default] and
// validates the result. Useful in tests where configs are constructed from
// string literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if cfg.Server.LogLevel != "" && !cfg.Server.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("server.log_level %q is invalid; valid values: debug, info, warn, error", cfg.Server.LogLevel))
	}
	if cfg.Server.ListenAddr == "" {
		errs = append(errs, errors.New("server.listen_addr is required"))
	}

	c := cfg.Conversation
	if c.WakeTimeout <= 0 {
		errs = append(errs, errors.New("conversation.wake_timeout must be positive"))
	}
	if c.CommandTimeout <= 0 {
		errs = append(errs, errors.New("conversation.command_timeout must be positive"))
	}
	if c.FollowUpTimeout <= 0 {
		errs = append(errs, errors.New("conversation.follow_up_timeout must be positive"))
	}
	if c.MaxTurns <= 0 {
		errs = append(errs, errors.New("conversation.max_turns must be positive"))
	}
	if c.MaxTranscriptLen <= 0 {
		errs = append(errs, errors.New("conversation.max_transcript_len must be positive"))
	}

	for name, v := range map[string]float64{
		"thresholds.pattern":     cfg.Thresholds.Pattern,
		"thresholds.strategy":    cfg.Thresholds.Strategy,
		"thresholds.alias":       cfg.Thresholds.Alias,
		"thresholds.alias_blend": cfg.Thresholds.AliasBlend,
		"thresholds.accept":      cfg.Thresholds.Accept,
	} {
		if v <= 0 || v > 1 {
			errs = append(errs, fmt.Errorf("%s %.2f is out of range (0, 1]", name, v))
		}
	}

	for kind, entry := range map[string]DriverEntry{
		"drivers.wake":    cfg.Drivers.Wake,
		"drivers.capture": cfg.Drivers.Capture,
		"drivers.speech":  cfg.Drivers.Speech,
		"drivers.status":  cfg.Drivers.Status,
	} {
		if entry.Name == "" {
			errs = append(errs, fmt.Errorf("%s.name is required", kind))
		}
	}

	return errors.Join(errs...)
}
