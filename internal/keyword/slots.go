package keyword

import "github.com/MrWong99/starcue/internal/reading"

// Slots is the three-category lock record of one listening session. The zero
// value has nothing locked. Locked events are never modified in place; use
// [Slots.Clone] to hand a snapshot to code that outlives the session.
type Slots struct {
	Trimester *MatchEvent `json:"trimester,omitempty"`
	Red       *MatchEvent `json:"red,omitempty"`
	Economic  *MatchEvent `json:"economic,omitempty"`
}

// Get returns the event locked for c, or nil.
func (s Slots) Get(c Category) *MatchEvent {
	switch c {
	case Trimester:
		return s.Trimester
	case Red:
		return s.Red
	case Economic:
		return s.Economic
	}
	return nil
}

func (s *Slots) ref(c Category) **MatchEvent {
	switch c {
	case Trimester:
		return &s.Trimester
	case Red:
		return &s.Red
	case Economic:
		return &s.Economic
	}
	return nil
}

// Lock stores ev in its category unless that category is already locked.
// It reports whether this call locked the slot and whether it was the call
// that completed the record (incomplete before, complete after).
func (s *Slots) Lock(ev MatchEvent) (locked, justCompleted bool) {
	ref := s.ref(ev.Category)
	if ref == nil || *ref != nil {
		return false, false
	}
	wasComplete := s.Complete()
	*ref = &ev
	return true, !wasComplete && s.Complete()
}

// Complete reports whether all three categories are locked.
func (s Slots) Complete() bool {
	return s.Trimester != nil && s.Red != nil && s.Economic != nil
}

// Any reports whether at least one category is locked.
func (s Slots) Any() bool {
	return s.Trimester != nil || s.Red != nil || s.Economic != nil
}

// Missing returns the unlocked categories in priority order.
func (s Slots) Missing() []Category {
	var out []Category
	for _, c := range Categories {
		if s.Get(c) == nil {
			out = append(out, c)
		}
	}
	return out
}

// Clone returns a deep copy so that callers cannot alias the live record.
func (s Slots) Clone() Slots {
	var out Slots
	for _, c := range Categories {
		if ev := s.Get(c); ev != nil {
			cp := *ev
			*out.ref(c) = &cp
		}
	}
	return out
}

// Words returns the locked canonical words, "" for unlocked categories.
func (s Slots) Words() (trimester, red, economic string) {
	if s.Trimester != nil {
		trimester = s.Trimester.Word
	}
	if s.Red != nil {
		red = s.Red.Word
	}
	if s.Economic != nil {
		economic = s.Economic.Word
	}
	return trimester, red, economic
}

// input converts the record into calculator input.
func (s Slots) input() reading.Input {
	var in reading.Input
	if s.Trimester != nil {
		in.Trimester = toSlot(s.Trimester)
	}
	if s.Red != nil {
		in.Red = toSlot(s.Red)
	}
	if s.Economic != nil {
		in.Economic = toSlot(s.Economic)
	}
	return in
}

func toSlot(ev *MatchEvent) *reading.Slot {
	return &reading.Slot{Word: ev.Word, Weight: ev.Weight, Position: ev.Position}
}
