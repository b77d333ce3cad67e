package game

import (
	"fmt"

	"github.com/bcspragu/Set/set"
)

// Score is the running total of bonuses and penalties. It can go negative.
func (g *Game) Score() int {
	return g.score
}

// SlotCount is the fixed number of places in the spread.
func (g *Game) SlotCount() int {
	return len(g.slots)
}

// Slot returns the slot at idx, or an error if there's no such slot.
func (g *Game) Slot(idx int) (set.Slot, error) {
	if idx < 0 || idx >= len(g.slots) {
		return set.Slot{}, fmt.Errorf("%w: %d is not in [0, %d)", ErrInvalidSlot, idx, len(g.slots))
	}
	return g.slots[idx], nil
}

// Slots returns a copy of the spread.
func (g *Game) Slots() []set.Slot {
	return append([]set.Slot(nil), g.slots...)
}

// DeckIsEmpty reports whether the draw pile has run out.
func (g *Game) DeckIsEmpty() bool {
	return len(g.deck) == 0
}

// DeckSize is the number of cards left in the draw pile.
func (g *Game) DeckSize() int {
	return len(g.deck)
}

// DealingPossible reports whether Deal would do anything: there are cards to
// deal and either an empty slot or a matched set to deal them onto.
func (g *Game) DealingPossible() bool {
	return !g.DeckIsEmpty() && (g.vacanciesExist() || g.isMatchedSet())
}

// Matches returns the slot indices of every set currently in the spread, in
// ascending order. A matched set that hasn't been cleared away yet is
// included.
func (g *Game) Matches() [][]int {
	// Only occupied slots can be part of a set, and there are never more of
	// those than cards in the deck.
	var (
		occ   []int
		cards []set.Card
	)
	for i, s := range g.slots {
		if c, ok := s.Card(); ok {
			occ = append(occ, i)
			cards = append(cards, c)
		}
	}

	var matches [][]int
	group := make([]set.Card, set.GroupSize)
	combinations(len(occ), set.GroupSize, func(combo []int) {
		for i, j := range combo {
			group[i] = cards[j]
		}
		if !set.IsMatch(group...) {
			return
		}
		idxs := make([]int, len(combo))
		for i, j := range combo {
			idxs[i] = occ[j]
		}
		matches = append(matches, idxs)
	})
	return matches
}

// GameOver is true once the draw pile is empty and no sets remain.
func (g *Game) GameOver() bool {
	return g.DeckIsEmpty() && len(g.Matches()) == 0
}

// Status is Finished once GameOver is true, and Playing until then.
func (g *Game) Status() set.GameStatus {
	if g.GameOver() {
		return set.Finished
	}
	return set.Playing
}

// View returns what the player should see.
func (g *Game) View() *set.View {
	return &set.View{
		Score:           g.score,
		Slots:           g.Slots(),
		DealingPossible: g.DealingPossible(),
		DeckIsEmpty:     g.DeckIsEmpty(),
		DeckSize:        g.DeckSize(),
		GameOver:        g.GameOver(),
	}
}

// State returns a copy of the full game state, for storage.
func (g *Game) State() *set.GameState {
	gs := &set.GameState{
		Deck:  g.deck,
		Slots: g.slots,
		Score: g.score,
	}
	return gs.Clone()
}

// combinations calls emit with every ascending m-element combination of
// [0, n). The slice passed to emit is reused between calls.
func combinations(n, m int, emit func([]int)) {
	s := make([]int, m)
	last := m - 1
	var rc func(int, int)
	rc = func(i, next int) {
		for j := next; j < n; j++ {
			s[i] = j
			if i == last {
				emit(s)
			} else {
				rc(i+1, j+1)
			}
		}
	}
	rc(0, 0)
}
