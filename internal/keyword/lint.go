package keyword

import (
	"fmt"
	"sort"

	"github.com/antzucaro/matchr"
)

// lintSimilarity is the minimum Jaro-Winkler score an alias must reach
// against its canonical word when the two share no Double Metaphone code.
const lintSimilarity = 0.70

// Finding is one alias-table authoring problem.
type Finding struct {
	// Kind is one of "ambiguous", "distant", "stopword" or "unweighted".
	Kind string `json:"kind"`

	// Alias is the offending surface form.
	Alias string `json:"alias"`

	// Detail explains the problem.
	Detail string `json:"detail"`
}

// Blocking reports whether the finding breaks matching. "distant" findings
// are advisory; everything else makes a word unreachable or ambiguous.
func (f Finding) Blocking() bool {
	return f.Kind != "distant"
}

func (f Finding) String() string {
	return fmt.Sprintf("%s: %q: %s", f.Kind, f.Alias, f.Detail)
}

// Lint audits the built-in tables. It reports aliases listed in more than one
// category, stop-words that shadow an alias, aliases whose canonical word
// has no weight, and aliases that neither sound nor look like their canonical
// word. Findings are sorted by kind then alias.
//
// Lint is an authoring aid; the parser never uses phonetic similarity to
// match words.
func Lint() []Finding {
	return lint(tables[:], StopWords)
}

func lint(vocab []vocabulary, stop []string) []Finding {
	var out []Finding

	owner := make(map[string]Category)
	for _, v := range vocab {
		for alias, canonical := range v.aliases {
			if prev, ok := owner[alias]; ok && prev != v.category {
				out = append(out, Finding{
					Kind:   "ambiguous",
					Alias:  alias,
					Detail: fmt.Sprintf("listed under both %s and %s", prev, v.category),
				})
			} else {
				owner[alias] = v.category
			}

			if _, ok := v.weights[canonical]; !ok {
				out = append(out, Finding{
					Kind:   "unweighted",
					Alias:  alias,
					Detail: fmt.Sprintf("canonical word %q has no weight in %s", canonical, v.category),
				})
				continue
			}

			if alias != canonical && !soundsLike(alias, canonical) {
				out = append(out, Finding{
					Kind:   "distant",
					Alias:  alias,
					Detail: fmt.Sprintf("does not resemble %q (jaro-winkler %.2f)", canonical, matchr.JaroWinkler(alias, canonical, false)),
				})
			}
		}
	}

	for _, w := range stop {
		if c, ok := owner[w]; ok {
			out = append(out, Finding{
				Kind:   "stopword",
				Alias:  w,
				Detail: fmt.Sprintf("filler word hides a %s alias", c),
			})
		}
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Kind != out[j].Kind {
			return out[i].Kind < out[j].Kind
		}
		return out[i].Alias < out[j].Alias
	})
	return out
}

// soundsLike reports whether a and b share a Double Metaphone code or are
// close in Jaro-Winkler similarity.
func soundsLike(a, b string) bool {
	ap, as := matchr.DoubleMetaphone(a)
	bp, bs := matchr.DoubleMetaphone(b)
	for _, x := range []string{ap, as} {
		if x == "" {
			continue
		}
		if x == bp || x == bs {
			return true
		}
	}
	return matchr.JaroWinkler(a, b, false) >= lintSimilarity
}
