package intent

import (
	"github.com/bwyatt92/muninn/internal/lexicon"
)

// functionWords are command verbs, articles, and fillers that must never be
// treated as fuzzy name candidates: short grammatical words sit within one or
// two edits of half the roster ("the" is phonetically T000, the same code as
// "twee"). Exact variant hits are checked first and are unaffected, so short
// registered variants such as "bo" or "b" still resolve.
var functionWords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "from": {}, "with": {}, "that": {},
	"this": {}, "are": {}, "was": {}, "did": {}, "can": {}, "could": {},
	"would": {}, "should": {}, "will": {}, "please": {}, "hey": {},
	"okay": {}, "yes": {}, "not": {}, "now": {}, "all": {}, "some": {},
	"any": {}, "what": {}, "whats": {}, "how": {}, "hows": {}, "who": {},
	"when": {}, "where": {}, "why": {}, "you": {}, "your": {}, "they": {},
	"them": {}, "there": {}, "here": {}, "have": {}, "has": {}, "had": {},
	"want": {}, "like": {}, "play": {}, "show": {}, "list": {}, "tell": {},
	"get": {}, "give": {}, "hear": {}, "record": {}, "save": {}, "stop": {},
	"message": {}, "messages": {}, "story": {}, "stories": {}, "memory": {},
	"memories": {}, "joke": {}, "jokes": {}, "birthday": {}, "time": {},
	"weather": {}, "last": {}, "recent": {}, "latest": {}, "one": {},
	"something": {}, "say": {},
}

// AliasResolver maps spoken words to canonical person ids using the alias
// tables of a lexicon. It is read-only after construction and safe for
// concurrent use.
type AliasResolver struct {
	aliases        []lexicon.PersonAlias
	editThreshold  float64
	blendThreshold float64
}

// NewAliasResolver returns an AliasResolver over lex. A candidate is
// accepted when its pure edit ratio reaches editThreshold, or when its
// blended edit+phonetic score reaches the lower blendThreshold — phonetic
// agreement substitutes for literal closeness.
func NewAliasResolver(lex *lexicon.Lexicon, editThreshold, blendThreshold float64) *AliasResolver {
	return &AliasResolver{
		aliases:        lex.Aliases,
		editThreshold:  editThreshold,
		blendThreshold: blendThreshold,
	}
}

// Resolve finds the canonical person id best matching any of words.
//
// An exact variant hit returns immediately with score 1; the tie-break is
// the first matching word, then lexicon order. Otherwise the highest
// blended edit+phonetic score across all words and all variants wins, ties
// broken by earliest word position then earliest lexicon order (enforced by
// strict-greater comparison over an in-order scan). Fuzzy candidacy is
// limited to words of three or more letters that are not function words.
// Returns ok=false when no candidate clears a threshold.
func (r *AliasResolver) Resolve(words []string) (id string, score float64, ok bool) {
	for _, w := range words {
		for _, a := range r.aliases {
			for _, v := range a.Variants {
				if w == v {
					return a.ID, 1, true
				}
			}
		}
	}

	var (
		bestID    string
		bestScore float64
	)
	for _, w := range words {
		if len(w) < 3 {
			continue
		}
		if _, skip := functionWords[w]; skip {
			continue
		}
		for _, a := range r.aliases {
			for _, v := range a.Variants {
				s := blendedScore(w, v)
				if s < r.blendThreshold && editRatio(w, v) < r.editThreshold {
					continue
				}
				if s > bestScore {
					bestID = a.ID
					bestScore = s
				}
			}
		}
	}

	if bestID == "" {
		return "", 0, false
	}
	return bestID, bestScore, true
}
