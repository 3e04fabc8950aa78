package keyword

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// StopWords is the built-in filler set removed before matching. None of these
// may appear in an alias table; [Lint] reports collisions.
var StopWords = []string{
	"a", "an", "the", "and", "or", "but", "so",
	"i", "me", "my", "mine", "you", "your", "we", "our", "he", "his", "she", "her", "they", "their", "it", "its",
	"is", "am", "are", "was", "were", "be", "been",
	"of", "for", "to", "in", "on", "at", "with", "about", "from", "by",
	"this", "that", "these", "those", "what", "how",
	"um", "uh", "er", "like", "just", "really", "very", "please", "okay", "ok",
}

// Token is one normalized word and its byte offset in the lower-cased text.
type Token struct {
	Text   string
	Offset int
}

// Normalizer lower-cases text, splits it into tokens and drops filler words.
// A Normalizer is not safe for concurrent use; give each goroutine its own.
type Normalizer struct {
	lower cases.Caser
	stop  map[string]struct{}
}

// NewNormalizer returns a Normalizer that drops [StopWords] plus extra.
// Extra words are lower-cased before use.
func NewNormalizer(extra ...string) *Normalizer {
	n := &Normalizer{
		lower: cases.Lower(language.English),
		stop:  make(map[string]struct{}, len(StopWords)+len(extra)),
	}
	for _, w := range StopWords {
		n.stop[w] = struct{}{}
	}
	for _, w := range extra {
		if w = strings.TrimSpace(n.lower.String(w)); w != "" {
			n.stop[w] = struct{}{}
		}
	}
	return n
}

// Lower returns the lower-cased form of text.
func (n *Normalizer) Lower(text string) string {
	return n.lower.String(text)
}

// Tokens lower-cases text and returns its non-filler words in order.
// Surrounding punctuation is trimmed from each word. Tokens never fails; an
// empty or whitespace-only input yields nil.
func (n *Normalizer) Tokens(text string) []Token {
	return n.tokens(n.Lower(text))
}

// tokens splits already lower-cased text.
func (n *Normalizer) tokens(lowered string) []Token {
	var out []Token
	start := -1
	for i, r := range lowered {
		if unicode.IsSpace(r) {
			if start >= 0 {
				out = n.appendToken(out, lowered[start:i], start)
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		out = n.appendToken(out, lowered[start:], start)
	}
	return out
}

func (n *Normalizer) appendToken(out []Token, field string, offset int) []Token {
	trimmed := strings.TrimLeftFunc(field, isEdgeRune)
	offset += len(field) - len(trimmed)
	trimmed = strings.TrimRightFunc(trimmed, isEdgeRune)
	if trimmed == "" || !utf8.ValidString(trimmed) {
		return out
	}
	if _, ok := n.stop[trimmed]; ok {
		return out
	}
	return append(out, Token{Text: trimmed, Offset: offset})
}

func isEdgeRune(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSymbol(r) || r == utf8.RuneError
}
