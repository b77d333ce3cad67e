package set

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Selection is the player's mark on an occupied slot.
type Selection string

const (
	// NoSelection means the card isn't selected.
	NoSelection = Selection("")
	// Initial means the player has picked the card, but fewer than three cards
	// have been picked so far.
	Initial = Selection("INITIAL")
	// Match means the card belongs to three selected cards that form a set.
	Match = Selection("MATCH")
	// NoMatch means the card belongs to three selected cards that don't.
	NoMatch = Selection("NO_MATCH")
)

func (s Selection) valid() bool {
	switch s {
	case NoSelection, Initial, Match, NoMatch:
		return true
	}
	return false
}

// Slot is a position in the spread. It is either empty, or holds a card that
// may be selected. The zero value is an empty slot. An empty slot can never
// carry a selection.
type Slot struct {
	card     Card
	occupied bool
	sel      Selection
}

// Occupied returns an unselected slot holding c.
func Occupied(c Card) Slot {
	return Slot{card: c, occupied: true}
}

// WithSelection returns a copy of the slot with the given selection. It
// returns the slot unchanged if it's empty.
func (s Slot) WithSelection(sel Selection) Slot {
	if !s.occupied {
		return s
	}
	s.sel = sel
	return s
}

// Empty reports whether the slot holds no card.
func (s Slot) Empty() bool {
	return !s.occupied
}

// Card returns the card in the slot, and false if the slot is empty.
func (s Slot) Card() (Card, bool) {
	return s.card, s.occupied
}

// Selection returns the slot's selection, which is always NoSelection for an
// empty slot.
func (s Slot) Selection() Selection {
	return s.sel
}

// Selected reports whether the slot carries any selection.
func (s Slot) Selected() bool {
	return s.sel != NoSelection
}

type jsonSlot struct {
	Card      *Card     `json:"card"`
	Selection Selection `json:"selection,omitempty"`
}

func (s Slot) MarshalJSON() ([]byte, error) {
	js := jsonSlot{Selection: s.sel}
	if s.occupied {
		c := s.card
		js.Card = &c
	}
	return json.Marshal(js)
}

func (s *Slot) UnmarshalJSON(dat []byte) error {
	var js jsonSlot
	if err := json.Unmarshal(dat, &js); err != nil {
		return err
	}
	if !js.Selection.valid() {
		return fmt.Errorf("unknown selection %q", js.Selection)
	}
	if js.Card == nil {
		if js.Selection != NoSelection {
			return errors.New("empty slot cannot be selected")
		}
		*s = Slot{}
		return nil
	}
	if err := js.Card.Valid(); err != nil {
		return fmt.Errorf("invalid card in slot: %w", err)
	}
	*s = Occupied(*js.Card).WithSelection(js.Selection)
	return nil
}
