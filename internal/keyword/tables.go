package keyword

import "github.com/MrWong99/starcue/pkg/types"

// vocabulary is the fixed word list for one category.
type vocabulary struct {
	category Category

	// words are the canonical words in display order.
	words []string

	// weights maps canonical word to its integer weight.
	weights map[string]int

	// aliases maps every accepted surface form (including the canonical word
	// itself) to its canonical word.
	aliases map[string]string
}

var tables = [...]vocabulary{
	{
		category: Trimester,
		words:    []string{"health", "character", "personality"},
		weights: map[string]int{
			"health":      0,
			"character":   4,
			"personality": 8,
		},
		aliases: map[string]string{
			"health": "health", "helth": "health", "helt": "health", "held": "health",
			"heald": "health", "halth": "health",
			"character": "character", "karakter": "character", "charactor": "character",
			"charakter": "character", "carector": "character", "carekter": "character",
			"personality": "personality", "personelity": "personality", "persanality": "personality",
			"persnality": "personality", "personaliti": "personality",
		},
	},
	{
		category: Red,
		words:    []string{"love", "romance", "partnership", "relationships"},
		weights: map[string]int{
			"love":          1,
			"romance":       2,
			"partnership":   3,
			"relationships": 4,
		},
		aliases: map[string]string{
			"love": "love", "luv": "love", "lav": "love", "loove": "love", "lobe": "love",
			"romance": "romance", "romans": "romance", "romanss": "romance", "romanse": "romance",
			"partnership": "partnership", "partnarship": "partnership",
			"relationship": "relationships", "relationships": "relationships",
			"relashanship": "relationships", "relashanships": "relationships",
		},
	},
	{
		category: Economic,
		words:    []string{"job", "work", "money", "career", "finance", "success", "profession", "occupation"},
		weights: map[string]int{
			"job":        2,
			"work":       6,
			"money":      10,
			"career":     14,
			"finance":    18,
			"success":    22,
			"profession": 26,
			"occupation": 30,
		},
		aliases: map[string]string{
			"job": "job", "jaab": "job", "jobe": "job", "jab": "job",
			"work": "work", "vork": "work", "werk": "work", "wok": "work",
			"money": "money", "mony": "money", "mani": "money", "munny": "money",
			"career": "career", "carrier": "career", "karrier": "career", "carrer": "career",
			"carear": "career", "karir": "career", "kareer": "career", "karyar": "career", "careyer": "career",
			"finance": "finance", "finans": "finance", "finence": "finance", "finanss": "finance",
			"success": "success", "sakses": "success", "sucses": "success", "suksess": "success", "succees": "success",
			"profession": "profession", "proffession": "profession", "profesion": "profession",
			"prosession": "profession", "profeshion": "profession",
			"occupation": "occupation", "ocupation": "occupation", "okupation": "occupation", "occupashion": "occupation",
		},
	},
}

// Words returns the canonical words of c in display order. The returned slice
// is a copy.
func Words(c Category) []string {
	for _, t := range tables {
		if t.category == c {
			return append([]string(nil), t.words...)
		}
	}
	return nil
}

// Weight returns the weight of a canonical word in any category.
func Weight(word string) (int, bool) {
	for _, t := range tables {
		if w, ok := t.weights[word]; ok {
			return w, true
		}
	}
	return 0, false
}

// Aliases returns a copy of the surface-form table for c.
func Aliases(c Category) map[string]string {
	for _, t := range tables {
		if t.category != c {
			continue
		}
		out := make(map[string]string, len(t.aliases))
		for k, v := range t.aliases {
			out[k] = v
		}
		return out
	}
	return nil
}

// defaultBoost is the keyword boost applied to canonical words when seeding a
// recogniser.
const defaultBoost = 2

// BoostKeywords returns every canonical word as a recogniser keyword hint.
func BoostKeywords() []types.KeywordBoost {
	var out []types.KeywordBoost
	for _, t := range tables {
		for _, w := range t.words {
			out = append(out, types.KeywordBoost{Keyword: w, Boost: defaultBoost})
		}
	}
	return out
}
