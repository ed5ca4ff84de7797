package lexicon

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads the YAML lexicon file at path and returns a validated [Lexicon].
func Load(path string) (*Lexicon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("lexicon: open %q: %w", path, err)
	}
	defer f.Close()

	lex, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("lexicon: parse %q: %w", path, err)
	}
	return lex, nil
}

// LoadFromReader decodes a YAML lexicon from r and validates the result.
// Useful in tests where lexicons are constructed from string literals.
func LoadFromReader(r io.Reader) (*Lexicon, error) {
	lex := &Lexicon{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(lex); err != nil {
		return nil, fmt.Errorf("lexicon: decode yaml: %w", err)
	}
	normalizeTables(lex)
	if err := Validate(lex); err != nil {
		return nil, err
	}
	return lex, nil
}

// normalizeTables lowercases every matchable string so lookups never have to
// fold case at match time.
func normalizeTables(lex *Lexicon) {
	for name, words := range lex.Patterns {
		for i, w := range words {
			words[i] = strings.ToLower(strings.TrimSpace(w))
		}
		lex.Patterns[name] = words
	}
	for i := range lex.Aliases {
		a := &lex.Aliases[i]
		a.ID = strings.ToLower(strings.TrimSpace(a.ID))
		for j, v := range a.Variants {
			a.Variants[j] = strings.ToLower(strings.TrimSpace(v))
		}
	}
	for i := range lex.ExactPhrases {
		for j, p := range lex.ExactPhrases[i].Phrases {
			lex.ExactPhrases[i].Phrases[j] = strings.ToLower(strings.TrimSpace(p))
		}
	}
	for i := range lex.Corrections {
		c := &lex.Corrections[i]
		for j, t := range c.Trigger {
			c.Trigger[j] = strings.ToLower(strings.TrimSpace(t))
		}
		for j, t := range c.Replacement {
			c.Replacement[j] = strings.ToLower(strings.TrimSpace(t))
		}
		for j, set := range c.Context {
			for k, t := range set {
				set[k] = strings.ToLower(strings.TrimSpace(t))
			}
			c.Context[j] = set
		}
	}
}

// Validate checks that lex contains a coherent set of tables.
// It returns a joined error listing all failures found.
func Validate(lex *Lexicon) error {
	var errs []error

	for _, name := range requiredGroups {
		if len(lex.Patterns[name]) == 0 {
			errs = append(errs, fmt.Errorf("patterns.%s is required and must not be empty", name))
		}
	}

	seen := make(map[string]int, len(lex.Aliases))
	for i, a := range lex.Aliases {
		prefix := fmt.Sprintf("aliases[%d]", i)
		if a.ID == "" {
			errs = append(errs, fmt.Errorf("%s.id is required", prefix))
			continue
		}
		if prev, ok := seen[a.ID]; ok {
			errs = append(errs, fmt.Errorf("%s.id %q is a duplicate of aliases[%d]", prefix, a.ID, prev))
		}
		seen[a.ID] = i

		hasSelf := false
		for _, v := range a.Variants {
			if v == a.ID {
				hasSelf = true
				break
			}
		}
		if !hasSelf {
			errs = append(errs, fmt.Errorf("%s (%q) must list its own id among its variants", prefix, a.ID))
		}
	}

	for i, c := range lex.Corrections {
		prefix := fmt.Sprintf("corrections[%d]", i)
		if len(c.Trigger) == 0 {
			errs = append(errs, fmt.Errorf("%s.trigger must not be empty", prefix))
		}
		if len(c.Replacement) == 0 {
			errs = append(errs, fmt.Errorf("%s.replacement must not be empty", prefix))
		}
		for j, set := range c.Context {
			if len(set) == 0 {
				errs = append(errs, fmt.Errorf("%s.context[%d] must not be empty", prefix, j))
			}
		}
	}

	for i, e := range lex.ExactPhrases {
		prefix := fmt.Sprintf("exact_phrases[%d]", i)
		if e.Intent == "" {
			errs = append(errs, fmt.Errorf("%s.intent is required", prefix))
		}
		if len(e.Phrases) == 0 {
			errs = append(errs, fmt.Errorf("%s.phrases must not be empty", prefix))
		}
	}

	return errors.Join(errs...)
}
