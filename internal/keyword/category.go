package keyword

import "fmt"

// Category is one of the three slots a reading needs. The set is closed.
type Category int

const (
	Trimester Category = iota
	Red
	Economic
)

// Categories lists every category in match priority order.
var Categories = [...]Category{Trimester, Red, Economic}

// String returns the upper-case token, e.g. "TRIMESTER".
func (c Category) String() string {
	switch c {
	case Trimester:
		return "TRIMESTER"
	case Red:
		return "RED"
	case Economic:
		return "ECONOMIC"
	}
	return fmt.Sprintf("Category(%d)", int(c))
}

// Label returns the display label, e.g. "Trimester".
func (c Category) Label() string {
	switch c {
	case Trimester:
		return "Trimester"
	case Red:
		return "Red"
	case Economic:
		return "Economic"
	}
	return c.String()
}

// MarshalText encodes c as its upper-case token so categories render as
// strings in JSON.
func (c Category) MarshalText() ([]byte, error) {
	switch c {
	case Trimester, Red, Economic:
		return []byte(c.String()), nil
	}
	return nil, fmt.Errorf("keyword: invalid category %d", int(c))
}

// UnmarshalText decodes an upper-case category token.
func (c *Category) UnmarshalText(b []byte) error {
	for _, cat := range Categories {
		if cat.String() == string(b) {
			*c = cat
			return nil
		}
	}
	return fmt.Errorf("keyword: unknown category %q", b)
}
