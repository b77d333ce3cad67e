package game

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/bcspragu/Set/deckgen"
	"github.com/bcspragu/Set/set"
)

var (
	ErrInvalidSlot      = errors.New("game: slot index out of range")
	ErrInvalidSlotCount = errors.New("game: slot count must be between 1 and the deck size")
	ErrInvalidState     = errors.New("game: invalid state")
)

// Game is a single game of Set. It owns the draw pile, the spread of slots and
// the score, and changes only through Deal and Select. A *Game isn't safe for
// concurrent use.
type Game struct {
	deck  []set.Card
	slots []set.Slot
	score int
}

// New shuffles a full deck with r, lays out slotCount empty slots and deals
// the opening cards into them.
func New(slotCount int, r *rand.Rand) (*Game, error) {
	if slotCount <= 0 || slotCount > set.DeckSize {
		return nil, fmt.Errorf("%w, got %d", ErrInvalidSlotCount, slotCount)
	}

	g := &Game{
		deck:  deckgen.New(r),
		slots: make([]set.Slot, slotCount),
	}
	for i := 0; i < set.InitialDeal/set.GroupSize; i++ {
		g.Deal()
	}
	return g, nil
}

// FromState resumes a game from a stored state. The state is copied, and
// rejected if it couldn't have come from a real game.
func FromState(gs *set.GameState) (*Game, error) {
	if gs == nil {
		return nil, fmt.Errorf("%w: no state given", ErrInvalidState)
	}
	if err := validateState(gs); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidState, err)
	}
	gc := gs.Clone()
	return &Game{
		deck:  gc.Deck,
		slots: gc.Slots,
		score: gc.Score,
	}, nil
}

// validateState checks that every card is accounted for exactly once and that
// the selections make sense.
func validateState(gs *set.GameState) error {
	if len(gs.Slots) == 0 {
		return errors.New("no slots")
	}
	if len(gs.Slots) > set.DeckSize {
		return fmt.Errorf("%d slots, at most %d allowed", len(gs.Slots), set.DeckSize)
	}

	seen := make(map[set.Card]bool)
	see := func(c set.Card) error {
		if err := c.Valid(); err != nil {
			return err
		}
		if seen[c] {
			return fmt.Errorf("card %q appears more than once", c)
		}
		seen[c] = true
		return nil
	}

	for _, c := range gs.Deck {
		if err := see(c); err != nil {
			return fmt.Errorf("draw pile: %v", err)
		}
	}

	var (
		selected []set.Selection
		cards    []set.Card
	)
	for i, s := range gs.Slots {
		c, ok := s.Card()
		if !ok {
			continue
		}
		if err := see(c); err != nil {
			return fmt.Errorf("slot %d: %v", i, err)
		}
		if s.Selected() {
			selected = append(selected, s.Selection())
			cards = append(cards, c)
		}
	}

	if len(seen) != set.DeckSize {
		return fmt.Errorf("found %d cards, want %d", len(seen), set.DeckSize)
	}

	switch n := len(selected); {
	case n > set.GroupSize:
		return fmt.Errorf("%d slots selected, at most %d allowed", n, set.GroupSize)
	case n == set.GroupSize:
		for _, sel := range selected {
			if sel != selected[0] || sel == set.Initial {
				return fmt.Errorf("a full selection must be all %q or all %q", set.Match, set.NoMatch)
			}
		}
		if isMatch := set.IsMatch(cards...); isMatch != (selected[0] == set.Match) {
			return fmt.Errorf("selected cards are tagged %q, but IsMatch is %t", selected[0], isMatch)
		}
	default:
		for _, sel := range selected {
			if sel != set.Initial {
				return fmt.Errorf("only a full selection can be %q", sel)
			}
		}
	}
	return nil
}

// Deal deals cards from the draw pile. A matched set is replaced first; if
// there isn't one, up to three empty slots are filled, lowest index first.
// Deal does nothing if the draw pile is empty or there's nowhere to deal to.
func (g *Game) Deal() {
	if g.DeckIsEmpty() {
		return
	}

	if g.isMatchedSet() {
		for _, idx := range g.selectedIndices() {
			g.slots[idx] = g.draw()
		}
		return
	}

	if !g.vacanciesExist() {
		return
	}

	dealt := 0
	for i := range g.slots {
		if dealt == set.GroupSize || g.DeckIsEmpty() {
			break
		}
		if g.slots[i].Empty() {
			g.slots[i] = g.draw()
			dealt++
		}
	}
}

// draw takes the next card off the draw pile. It returns an empty slot once
// the pile runs out, which only happens part-way through replacing a matched
// set when the slot count isn't a multiple of three.
func (g *Game) draw() set.Slot {
	if len(g.deck) == 0 {
		return set.Slot{}
	}
	c := g.deck[0]
	g.deck = g.deck[1:]
	return set.Occupied(c)
}

// Select handles the player clicking on a slot. Clicking an empty slot does
// nothing. Otherwise, depending on what's already selected, it picks the
// card, unpicks it (at a cost), resolves three picked cards into a match or
// a miss, or clears away a resolved group first.
func (g *Game) Select(idx int) error {
	if idx < 0 || idx >= len(g.slots) {
		return fmt.Errorf("%w: %d is not in [0, %d)", ErrInvalidSlot, idx, len(g.slots))
	}

	if g.slots[idx].Empty() {
		return nil
	}

	if g.hasThreeSelected() && contains(g.selectedIndices(), idx) {
		// Clicked inside a resolved group.
		if g.isMatchedSet() {
			g.dealOrVacate()
		} else {
			g.clearSelection()
			g.mark(idx, set.Initial)
		}
		return nil
	}

	if g.slots[idx].Selected() {
		g.mark(idx, set.NoSelection)
		g.score -= set.DeselectionPenalty
		return nil
	}

	if g.hasThreeSelected() {
		// A fresh card outside a resolved group.
		if g.isMatchedSet() {
			g.dealOrVacate()
		} else {
			g.clearSelection()
		}
		g.mark(idx, set.Initial)
		return nil
	}

	g.mark(idx, set.Initial)
	if !g.hasThreeSelected() {
		return nil
	}

	if set.IsMatch(g.selectedCards()...) {
		g.markSelected(set.Match)
		g.score += set.MatchBonus
	} else {
		g.markSelected(set.NoMatch)
		g.score -= set.NoMatchPenalty
	}
	return nil
}

// dealOrVacate replaces a matched set with new cards, or empties its slots if
// there's nothing left to deal.
func (g *Game) dealOrVacate() {
	if !g.DeckIsEmpty() {
		g.Deal()
		return
	}
	for _, idx := range g.selectedIndices() {
		g.slots[idx] = set.Slot{}
	}
}

func (g *Game) mark(idx int, sel set.Selection) {
	g.slots[idx] = g.slots[idx].WithSelection(sel)
}

func (g *Game) markSelected(sel set.Selection) {
	for _, idx := range g.selectedIndices() {
		g.mark(idx, sel)
	}
}

func (g *Game) clearSelection() {
	g.markSelected(set.NoSelection)
}

func (g *Game) occupiedCount() int {
	n := 0
	for _, s := range g.slots {
		if !s.Empty() {
			n++
		}
	}
	return n
}

func (g *Game) selectedIndices() []int {
	var out []int
	for i, s := range g.slots {
		if s.Selected() {
			out = append(out, i)
		}
	}
	return out
}

func (g *Game) selectedCards() []set.Card {
	var out []set.Card
	for _, idx := range g.selectedIndices() {
		c, _ := g.slots[idx].Card()
		out = append(out, c)
	}
	return out
}

func (g *Game) hasThreeSelected() bool {
	return len(g.selectedIndices()) == set.GroupSize
}

// isMatchedSet is true when three cards are selected and they've been marked
// as a match. All three always carry the same mark.
func (g *Game) isMatchedSet() bool {
	idxs := g.selectedIndices()
	return len(idxs) == set.GroupSize && g.slots[idxs[0]].Selection() == set.Match
}

func (g *Game) vacanciesExist() bool {
	return g.occupiedCount() < len(g.slots)
}

func contains(idxs []int, idx int) bool {
	for _, i := range idxs {
		if i == idx {
			return true
		}
	}
	return false
}
