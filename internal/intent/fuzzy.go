package intent

import (
	"strings"

	"github.com/antzucaro/matchr"
)

// Thresholds holds the similarity cut-offs used across the resolver. The
// values differ per call site on purpose — they were tuned independently
// against real mis-transcriptions and unifying them changes matching
// behaviour.
type Thresholds struct {
	// Pattern is the edit-ratio floor for pattern-group membership tests.
	Pattern float64

	// Strategy is the looser floor used by per-strategy token tests.
	Strategy float64

	// Alias is the edit-ratio floor for person-alias matching without
	// phonetic support.
	Alias float64

	// AliasBlend is the floor for the blended edit+phonetic alias score.
	// Phonetic agreement substitutes for literal closeness, so this sits
	// below Alias.
	AliasBlend float64
}

// DefaultThresholds returns the tuned production values.
func DefaultThresholds() Thresholds {
	return Thresholds{
		Pattern:    0.8,
		Strategy:   0.7,
		Alias:      0.75,
		AliasBlend: 0.65,
	}
}

// editRatio is a normalized edit-similarity score in [0,1]: 1 for equal
// strings, 0 for strings with nothing in common.
func editRatio(a, b string) float64 {
	if a == b {
		return 1
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	if longest == 0 {
		return 1
	}
	d := matchr.Levenshtein(a, b)
	return 1 - float64(d)/float64(longest)
}

// soundexEqual reports whether two words share a non-empty Soundex code.
func soundexEqual(a, b string) bool {
	ca := matchr.Soundex(a)
	if ca == "" {
		return false
	}
	return ca == matchr.Soundex(b)
}

// blendedScore combines edit similarity (weight 0.6) with phonetic-code
// equality (weight 0.4) into a single alias-matching score.
func blendedScore(word, variant string) float64 {
	score := 0.6 * editRatio(word, variant)
	if soundexEqual(word, variant) {
		score += 0.4
	}
	return score
}

// tokenMatch reports whether word matches pattern: exact equality
// short-circuits true, otherwise the edit ratio must meet threshold.
func tokenMatch(word, pattern string, threshold float64) bool {
	if word == pattern {
		return true
	}
	return editRatio(word, pattern) >= threshold
}

// groupMatch reports whether the transcript matches any pattern in the group.
// Multi-word patterns are tested by substring containment against the full
// text; single-word patterns are fuzzy-tested against each word.
func groupMatch(text string, words []string, patterns []string, threshold float64) bool {
	for _, p := range patterns {
		if strings.ContainsRune(p, ' ') {
			if strings.Contains(text, p) {
				return true
			}
			continue
		}
		for _, w := range words {
			if tokenMatch(w, p, threshold) {
				return true
			}
		}
	}
	return false
}

// hasToken reports whether tok appears literally among words.
func hasToken(words []string, tok string) bool {
	for _, w := range words {
		if w == tok {
			return true
		}
	}
	return false
}
