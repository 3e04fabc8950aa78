package keyword

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/MrWong99/starcue/internal/reading"
)

// ParseResult is the outcome of an ingest. It is one of [Success], [Partial]
// or [Empty]; switch on the concrete type.
type ParseResult interface {
	isParseResult()
}

// Success carries the reading computed once all three slots locked.
type Success struct {
	Reading reading.Reading
	Slots   Slots
}

// Partial reports that some but not all categories are locked.
type Partial struct {
	// Missing lists the unlocked categories in priority order.
	Missing []Category

	// Heard is a snapshot of the locked categories.
	Heard Slots
}

// Empty reports that no category has been locked yet.
type Empty struct{}

func (Success) isParseResult() {}
func (Partial) isParseResult() {}
func (Empty) isParseResult()   {}

// MissingCategory pairs an unlocked category with its canonical words for
// display.
type MissingCategory struct {
	Category Category `json:"category"`
	Examples []string `json:"examples"`
}

// Describe returns each missing category with its example words.
func Describe(missing []Category) []MissingCategory {
	out := make([]MissingCategory, 0, len(missing))
	for _, c := range missing {
		out = append(out, MissingCategory{Category: c, Examples: Words(c)})
	}
	return out
}

// MissingMessage renders missing categories for the "no match yet" notice,
// e.g. "Missing: Trimester (Health/Character/Personality)". It returns "" when
// nothing is missing.
func MissingMessage(missing []Category) string {
	if len(missing) == 0 {
		return ""
	}
	title := cases.Title(language.English)
	parts := make([]string, 0, len(missing))
	for _, mc := range Describe(missing) {
		words := make([]string, len(mc.Examples))
		for i, w := range mc.Examples {
			words[i] = title.String(w)
		}
		parts = append(parts, mc.Category.Label()+" ("+strings.Join(words, "/")+")")
	}
	return "Missing: " + strings.Join(parts, ", ")
}
