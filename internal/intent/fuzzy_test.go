package intent

import (
	"math"
	"testing"
)

func TestEditRatio(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b string
		want float64
	}{
		{"play", "play", 1},
		{"", "", 1},
		{"darota", "dakota", 1 - 1.0/6},
		{"scawt", "scott", 1 - 2.0/5},
		{"abc", "xyz", 0},
		{"time", "", 0},
	}
	for _, tt := range tests {
		got := editRatio(tt.a, tt.b)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("editRatio(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestEditRatioSymmetric(t *testing.T) {
	t.Parallel()

	pairs := [][2]string{{"memory", "memories"}, {"ply", "play"}, {"scott", "shot"}}
	for _, p := range pairs {
		if editRatio(p[0], p[1]) != editRatio(p[1], p[0]) {
			t.Errorf("editRatio not symmetric for %q / %q", p[0], p[1])
		}
	}
}

func TestSoundexEqual(t *testing.T) {
	t.Parallel()

	tests := []struct {
		a, b string
		want bool
	}{
		{"scott", "scawt", true},
		{"beau", "bow", true},
		{"scott", "beau", false},
		{"", "scott", false},
	}
	for _, tt := range tests {
		if got := soundexEqual(tt.a, tt.b); got != tt.want {
			t.Errorf("soundexEqual(%q, %q) = %v, want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestBlendedScore(t *testing.T) {
	t.Parallel()

	// Phonetic agreement adds a flat 0.4 on top of the weighted edit ratio.
	got := blendedScore("scawt", "scott")
	want := 0.6*(1-2.0/5) + 0.4
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("blendedScore(scawt, scott) = %v, want %v", got, want)
	}

	// No phonetic agreement: only the weighted edit ratio.
	got = blendedScore("abc", "xyz")
	if got != 0 {
		t.Errorf("blendedScore(abc, xyz) = %v, want 0", got)
	}
}

func TestGroupMatch(t *testing.T) {
	t.Parallel()

	patterns := []string{"play", "what time"}

	tests := []struct {
		name string
		text string
		want bool
	}{
		{"exact single word", "play the message", true},
		{"fuzzy single word", "ploy the message", true},
		{"multi-word substring", "what time is it", true},
		{"multi-word not fuzzy", "what tme is it", false},
		{"no match", "hello there", false},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			q := newQuery(tt.text)
			if got := groupMatch(q.text, q.words, patterns, 0.7); got != tt.want {
				t.Errorf("groupMatch(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestHasToken(t *testing.T) {
	t.Parallel()

	words := []string{"record", "a", "story"}
	if !hasToken(words, "record") {
		t.Error("hasToken(record) = false, want true")
	}
	if hasToken(words, "recording") {
		t.Error("hasToken(recording) = true, want false")
	}
}
