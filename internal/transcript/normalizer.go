// Package transcript implements the phonetic normalizer: a deterministic
// rewrite of raw speech-to-text output that substitutes known mis-heard
// tokens before intent matching.
//
// Rules are applied in lexicon order, left to right, once per pass,
// non-overlapping: a token consumed by one rule is never reconsidered by a
// later rule in the same pass. Context-sensitive rules additionally require
// specific preceding tokens and consume the matched span when they fire.
// Unmatched input passes through unchanged; normalization has no failure
// modes.
package transcript

import (
	"context"
	"strings"

	"github.com/bwyatt92/muninn/internal/lexicon"
	"github.com/bwyatt92/muninn/internal/observe"
)

// Normalizer rewrites transcripts using the correction rules of a lexicon.
// It is read-only after construction and safe for concurrent use.
type Normalizer struct {
	rules   []lexicon.CorrectionRule
	metrics *observe.Metrics
}

// NormalizerOption configures a [Normalizer].
type NormalizerOption func(*Normalizer)

// WithMetrics records every fired correction rule, labelled by its
// replacement text.
func WithMetrics(m *observe.Metrics) NormalizerOption {
	return func(n *Normalizer) { n.metrics = m }
}

// NewNormalizer returns a Normalizer over the correction rules in lex.
func NewNormalizer(lex *lexicon.Lexicon, opts ...NormalizerOption) *Normalizer {
	n := &Normalizer{rules: lex.Corrections}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Normalize lowercases text and applies the correction rules. It is a pure
// function of its input and the lexicon the Normalizer was built with.
func (n *Normalizer) Normalize(text string) string {
	tokens := strings.Fields(strings.ToLower(text))
	if len(tokens) == 0 {
		return strings.TrimSpace(strings.ToLower(text))
	}

	output := make([]string, 0, len(tokens))

	i := 0
	for i < len(tokens) {
		consumed := 0
		for _, rule := range n.rules {
			if w := matchRule(rule, tokens, i); w > 0 {
				output = append(output, rule.Replacement...)
				consumed = w
				if n.metrics != nil {
					n.metrics.RecordCorrection(context.Background(), strings.Join(rule.Replacement, " "))
				}
				break
			}
		}
		if consumed == 0 {
			output = append(output, tokens[i])
			i++
			continue
		}
		i += consumed
	}

	return strings.Join(output, " ")
}

// matchRule reports how many tokens rule consumes when fired at position pos,
// or 0 when it does not apply. Context constraints are checked against the
// original token stream: Context[0] against tokens[pos-1], Context[1] against
// tokens[pos-2], and so on.
func matchRule(rule lexicon.CorrectionRule, tokens []string, pos int) int {
	if pos+len(rule.Trigger) > len(tokens) {
		return 0
	}
	for j, trig := range rule.Trigger {
		if tokens[pos+j] != trig {
			return 0
		}
	}
	for j, allowed := range rule.Context {
		idx := pos - 1 - j
		if idx < 0 {
			return 0
		}
		if !containsToken(allowed, tokens[idx]) {
			return 0
		}
	}
	return len(rule.Trigger)
}

func containsToken(set []string, tok string) bool {
	for _, s := range set {
		if s == tok {
			return true
		}
	}
	return false
}
