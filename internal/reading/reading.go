// Package reading turns three locked category values into the two-line
// calendar/zodiac result.
//
// The month is the sum of the trimester and red weights, the day is the
// economic weight. When the red word is the last of the three in spoken order
// the day is advanced by two. Line A uses that day, line B the day before;
// each line is normalized against a non-leap calendar and resolved to a sign
// independently, so the two lines may straddle a sign or month boundary.
//
// All functions are pure and safe for concurrent use.
package reading

import (
	"errors"
	"fmt"
)

// ErrIncomplete is returned by [Compute] when any of the three slots is
// missing. It signals a caller bug: a reading is only defined once all three
// categories are locked.
var ErrIncomplete = errors.New("reading: all three slots must be locked")

// redLastOffset is added to the base day when the red word is spoken last.
const redLastOffset = 2

// Slot is one locked category value as seen by the calculator.
type Slot struct {
	// Word is the canonical word that was locked.
	Word string

	// Weight is the canonical word's fixed integer weight.
	Weight int

	// Position is the offset of the word in the text it was matched in.
	// Only relative order matters.
	Position int
}

// Input carries the three slots. A nil slot means the category is not locked.
type Input struct {
	Trimester *Slot
	Red       *Slot
	Economic  *Slot
}

// Complete reports whether all three slots are set.
func (in Input) Complete() bool {
	return in.Trimester != nil && in.Red != nil && in.Economic != nil
}

// Line is one rendered half of a reading.
type Line struct {
	// Label is "R" for the right page (line A) and "L" for the left (line B).
	Label string `json:"label"`

	// Month is the normalized month, 1–12.
	Month int `json:"month"`

	// Day is the normalized day of Month.
	Day int `json:"day"`

	// Sign is the Western zodiac sign of Month/Day.
	Sign Sign `json:"sign"`

	// Keywords is the sign's keyword line.
	Keywords string `json:"keywords"`

	// Vedic is the Sanskrit name of the sidereal sign of Month/Day.
	Vedic string `json:"vedic"`

	// Narrative is the sign's four-part reading.
	Narrative Narrative `json:"narrative"`
}

// Date renders the line's date as e.g. "JAN 16".
func (l Line) Date() string {
	return fmt.Sprintf("%s %d", MonthName(l.Month), l.Day)
}

// String renders the headline, e.g. "R: JAN 16 - CAPRICORN (Makara)".
func (l Line) String() string {
	return fmt.Sprintf("%s: %s - %s (%s)", l.Label, l.Date(), l.Sign, l.Vedic)
}

// Reading is the pair of lines produced for one completed session.
type Reading struct {
	// A is the right-page line for the computed day.
	A Line `json:"a"`

	// B is the left-page line for the day before.
	B Line `json:"b"`

	// Month and BaseDay are the pre-normalization values A was derived from.
	Month   int `json:"month"`
	BaseDay int `json:"base_day"`

	// RedLast reports whether the red-last day offset was applied.
	RedLast bool `json:"red_last"`

	// Words are the canonical words the reading was computed from.
	Words Words `json:"words"`
}

// Words names the canonical word locked in each category.
type Words struct {
	Trimester string `json:"trimester"`
	Red       string `json:"red"`
	Economic  string `json:"economic"`
}

// Compute derives the reading for in. It returns [ErrIncomplete] when any
// slot is nil.
func Compute(in Input) (Reading, error) {
	if !in.Complete() {
		return Reading{}, ErrIncomplete
	}

	month := in.Trimester.Weight + in.Red.Weight
	baseDay := in.Economic.Weight

	redLast := in.Red.Position > in.Trimester.Position && in.Red.Position > in.Economic.Position
	if redLast {
		baseDay += redLastOffset
	}

	return Reading{
		A:       NewLine("R", month, baseDay),
		B:       NewLine("L", month, baseDay-1),
		Month:   month,
		BaseDay: baseDay,
		RedLast: redLast,
		Words: Words{
			Trimester: in.Trimester.Word,
			Red:       in.Red.Word,
			Economic:  in.Economic.Word,
		},
	}, nil
}

// NewLine normalizes month/day and attaches the sign texts.
func NewLine(label string, month, day int) Line {
	m, d := Normalize(month, day)
	sign := SignFor(m, d)
	return Line{
		Label:     label,
		Month:     m,
		Day:       d,
		Sign:      sign,
		Keywords:  sign.Keywords(),
		Vedic:     VedicSignFor(m, d).VedicName(),
		Narrative: sign.Narrative(),
	}
}
