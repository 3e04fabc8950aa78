package keyword

// MatchEvent records one token that resolved to a canonical word.
type MatchEvent struct {
	// Word is the canonical word, e.g. "health".
	Word string `json:"word"`

	// Surface is the token as heard, e.g. "helth".
	Surface string `json:"surface"`

	// Category is the slot the word belongs to.
	Category Category `json:"category"`

	// Weight is the canonical word's weight.
	Weight int `json:"weight"`

	// Position is the byte offset of the surface word's first occurrence in
	// the lower-cased text it was scanned from. Only relative order matters.
	Position int `json:"position"`
}

// Match classifies one normalized token against the alias tables in priority
// order (TRIMESTER, RED, ECONOMIC) and returns the first hit. The returned
// event carries no position; the caller knows the token's offset.
func Match(token string) (MatchEvent, bool) {
	for _, t := range tables {
		canonical, ok := t.aliases[token]
		if !ok {
			continue
		}
		return MatchEvent{
			Word:     canonical,
			Surface:  token,
			Category: t.category,
			Weight:   t.weights[canonical],
		}, true
	}
	return MatchEvent{}, false
}
