package engine

import (
	"strings"
	"unicode"
)

// Tokenize lower-cases s, replaces punctuation with spaces, and splits on
// whitespace. Stop words are deliberately kept: the detectors match exact
// everyday words like "stuff" and "things". No stemming.
func Tokenize(s string) []string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}
	return strings.Fields(b.String())
}

// TokenSet returns the distinct tokens of s.
func TokenSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, tok := range Tokenize(s) {
		set[tok] = struct{}{}
	}
	return set
}

// usableNotes trims each note and drops blank entries, preserving order.
func usableNotes(notes []string) []string {
	out := make([]string, 0, len(notes))
	for _, n := range notes {
		if t := strings.TrimSpace(n); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// countTokenHits counts tokens equal to any marker. Repeats count: a note
// that mentions "video" twice scores two hits.
func countTokenHits(tokens []string, markers []string) int {
	n := 0
	for _, tok := range tokens {
		for _, m := range markers {
			if tok == m {
				n++
				break
			}
		}
	}
	return n
}

// countPhraseHits counts whole-word occurrences of multi-word phrases in
// the token stream.
func countPhraseHits(tokens []string, phrases []string) int {
	joined := " " + strings.Join(tokens, " ") + " "
	n := 0
	for _, p := range phrases {
		n += strings.Count(joined, " "+p+" ")
	}
	return n
}
