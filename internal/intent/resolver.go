package intent

import (
	"strings"

	"github.com/bwyatt92/muninn/internal/lexicon"
)

// Resolver evaluates the ordered strategy chain against a transcript.
// It is read-only after construction and safe for concurrent use.
type Resolver struct {
	lex     *lexicon.Lexicon
	th      Thresholds
	aliases *AliasResolver
	chain   []strategy
}

// Option is a functional option for configuring a [Resolver].
type Option func(*Resolver)

// WithThresholds overrides [DefaultThresholds].
func WithThresholds(th Thresholds) Option {
	return func(r *Resolver) {
		r.th = th
	}
}

// NewResolver returns a Resolver over lex with the default strategy chain.
func NewResolver(lex *lexicon.Lexicon, opts ...Option) *Resolver {
	r := &Resolver{
		lex: lex,
		th:  DefaultThresholds(),
	}
	for _, o := range opts {
		o(r)
	}
	r.aliases = NewAliasResolver(lex, r.th.Alias, r.th.AliasBlend)
	r.chain = defaultChain()
	return r
}

// ResolveAlias exposes person-alias resolution for callers outside the
// strategy chain (e.g. interactive recording prompts).
func (r *Resolver) ResolveAlias(words []string) (string, float64, bool) {
	return r.aliases.Resolve(words)
}

// Resolve classifies text. Strategies run in chain order; the first match
// wins. When nothing matches the result has Understood=false, intent
// [Unknown] and confidence 0.
func (r *Resolver) Resolve(text string) Result {
	q := newQuery(text)
	if len(q.words) == 0 {
		return unresolved()
	}
	for _, s := range r.chain {
		if res := s.fn(r, q); res != nil {
			res.Understood = true
			res.Strategy = s.name
			if res.Slots == nil {
				res.Slots = map[string]string{}
			}
			return *res
		}
	}
	return unresolved()
}

// query is one pre-tokenized resolution input.
type query struct {
	text  string
	words []string
}

func newQuery(text string) *query {
	text = strings.ToLower(strings.TrimSpace(text))
	raw := strings.Fields(text)
	words := make([]string, 0, len(raw))
	for _, w := range raw {
		if w = cleanToken(w); w != "" {
			words = append(words, w)
		}
	}
	return &query{text: text, words: words}
}

// cleanToken strips surrounding punctuation and a trailing possessive so
// "dad's" matches the alias variant "dad".
func cleanToken(w string) string {
	w = strings.Trim(w, ".,!?;:\"()")
	w = strings.TrimSuffix(w, "'s")
	return strings.Trim(w, "'")
}

func (q *query) contains(sub string) bool {
	return strings.Contains(q.text, sub)
}

func (q *query) containsAny(subs ...string) bool {
	for _, s := range subs {
		if strings.Contains(q.text, s) {
			return true
		}
	}
	return false
}

// group tests pattern-group membership at the strict pattern threshold, used
// by the structural strategies where a false positive flips the intent.
func (r *Resolver) group(q *query, name string) bool {
	return groupMatch(q.text, q.words, r.lex.Group(name), r.th.Pattern)
}

// groupLoose tests membership at the looser strategy threshold, used by the
// bare-action strategies where the group is the whole signal.
func (r *Resolver) groupLoose(q *query, name string) bool {
	return groupMatch(q.text, q.words, r.lex.Group(name), r.th.Strategy)
}
