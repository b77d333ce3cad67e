package set

import (
	"fmt"
	"strconv"
	"strings"
)

// Color is the ink a card's symbols are printed in.
type Color string

const (
	Red    = Color("RED")
	Green  = Color("GREEN")
	Purple = Color("PURPLE")
)

// Count is the number of symbols on a card.
type Count int

const (
	One   = Count(1)
	Two   = Count(2)
	Three = Count(3)
)

// Shading is how a card's symbols are filled in.
type Shading string

const (
	Open    = Shading("OPEN")
	Solid   = Shading("SOLID")
	Striped = Shading("STRIPED")
)

// Shape is the symbol printed on a card.
type Shape string

const (
	Diamond = Shape("DIAMOND")
	Oval    = Shape("OVAL")
	Tilde   = Shape("TILDE")
)

var (
	Colors   = []Color{Red, Green, Purple}
	Counts   = []Count{One, Two, Three}
	Shadings = []Shading{Open, Solid, Striped}
	Shapes   = []Shape{Diamond, Oval, Tilde}
)

// NumAttributes is the number of independent attributes on every card.
const NumAttributes = 4

// Card is a single card from the deck. Cards are plain values; two cards are
// the same card if all four attributes are equal.
type Card struct {
	Color   Color   `json:"color"`
	Count   Count   `json:"count"`
	Shading Shading `json:"shading"`
	Shape   Shape   `json:"shape"`
}

// Attributes returns the card's attribute values in a fixed order (color,
// count, shading, shape), for code that treats attributes uniformly.
func (c Card) Attributes() [NumAttributes]string {
	return [NumAttributes]string{
		string(c.Color),
		strconv.Itoa(int(c.Count)),
		string(c.Shading),
		string(c.Shape),
	}
}

// Valid returns an error if any attribute is outside its domain.
func (c Card) Valid() error {
	if !containsColor(c.Color) {
		return fmt.Errorf("invalid color %q", c.Color)
	}
	if c.Count < One || c.Count > Three {
		return fmt.Errorf("invalid count %d", c.Count)
	}
	if !containsShading(c.Shading) {
		return fmt.Errorf("invalid shading %q", c.Shading)
	}
	if !containsShape(c.Shape) {
		return fmt.Errorf("invalid shape %q", c.Shape)
	}
	return nil
}

// String returns a human readable description, like "2 striped red ovals".
func (c Card) String() string {
	shape := strings.ToLower(string(c.Shape))
	if c.Count != One {
		shape += "s"
	}
	return fmt.Sprintf("%d %s %s %s", c.Count, strings.ToLower(string(c.Shading)), strings.ToLower(string(c.Color)), shape)
}

func containsColor(c Color) bool {
	for _, v := range Colors {
		if v == c {
			return true
		}
	}
	return false
}

func containsShading(s Shading) bool {
	for _, v := range Shadings {
		if v == s {
			return true
		}
	}
	return false
}

func containsShape(s Shape) bool {
	for _, v := range Shapes {
		if v == s {
			return true
		}
	}
	return false
}

// IsMatch reports whether the given cards form a set: for every attribute,
// the cards either all share the value or all have different values. With
// three cards, an attribute fails exactly when two cards agree and the third
// doesn't.
func IsMatch(cards ...Card) bool {
	if len(cards) == 0 {
		return false
	}
	for attr := 0; attr < NumAttributes; attr++ {
		distinct := make(map[string]struct{})
		for _, c := range cards {
			distinct[c.Attributes()[attr]] = struct{}{}
		}
		if n := len(distinct); n != 1 && n != len(cards) {
			return false
		}
	}
	return true
}
