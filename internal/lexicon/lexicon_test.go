package lexicon_test

import (
	"strings"
	"testing"

	"github.com/bwyatt92/muninn/internal/lexicon"
)

func TestDefault_IsValid(t *testing.T) {
	t.Parallel()

	if err := lexicon.Validate(lexicon.Default()); err != nil {
		t.Fatalf("Validate(Default()): %v", err)
	}
}

func TestDefault_EveryAliasListsItself(t *testing.T) {
	t.Parallel()

	lex := lexicon.Default()
	for _, a := range lex.Aliases {
		found := false
		for _, v := range a.Variants {
			if v == a.ID {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("alias %q does not list itself among variants %v", a.ID, a.Variants)
		}
	}
}

func TestLoadFromReader_OverridesTables(t *testing.T) {
	t.Parallel()

	doc := `
patterns:
  play: [play]
  all: [all]
  birthday: [birthday]
  message: [message]
  record: [record]
  stop: [stop]
  time: [time]
  weather: [weather]
  list: [list]
  record_for: [record for]
  joke: [joke]
  dad_joke: [dad joke]
  story: [story]
aliases:
  - id: Ada
    variants: [ada, ate a]
corrections:
  - trigger: [massage]
    replacement: [message]
`
	lex, err := lexicon.LoadFromReader(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	if got := lex.Aliases[0].ID; got != "ada" {
		t.Errorf("alias id = %q, want lowercased %q", got, "ada")
	}
	if a := lex.Alias("ada"); a == nil {
		t.Error("Alias(\"ada\") = nil, want entry")
	}
	if got := lex.Group(lexicon.GroupPlay); len(got) != 1 || got[0] != "play" {
		t.Errorf("Group(play) = %v, want [play]", got)
	}
}

func TestLoadFromReader_RejectsUnknownFields(t *testing.T) {
	t.Parallel()

	if _, err := lexicon.LoadFromReader(strings.NewReader("bogus: true")); err == nil {
		t.Fatal("LoadFromReader with unknown field: err = nil, want error")
	}
}

func TestValidate_ReportsAllFailures(t *testing.T) {
	t.Parallel()

	lex := &lexicon.Lexicon{
		Patterns: map[string][]string{lexicon.GroupPlay: {"play"}},
		Aliases: []lexicon.PersonAlias{
			{ID: "carrie", Variants: []string{"carey"}}, // missing self
			{ID: "", Variants: []string{"x"}},           // missing id
		},
		Corrections: []lexicon.CorrectionRule{
			{Trigger: nil, Replacement: []string{"ok"}},
		},
	}

	err := lexicon.Validate(lex)
	if err == nil {
		t.Fatal("Validate: err = nil, want joined errors")
	}
	for _, want := range []string{
		"must list its own id",
		"aliases[1].id is required",
		"corrections[0].trigger",
		"patterns.stop is required",
	} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("Validate error %q missing %q", err, want)
		}
	}
}
