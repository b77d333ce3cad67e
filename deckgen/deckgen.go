package deckgen

import (
	"math/rand"

	"github.com/bcspragu/Set/set"
)

// Full returns every card in the deck, in a fixed order: colors vary slowest,
// shapes fastest.
func Full() []set.Card {
	cards := make([]set.Card, 0, set.DeckSize)
	for _, color := range set.Colors {
		for _, count := range set.Counts {
			for _, shading := range set.Shadings {
				for _, shape := range set.Shapes {
					cards = append(cards, set.Card{
						Color:   color,
						Count:   count,
						Shading: shading,
						Shape:   shape,
					})
				}
			}
		}
	}
	return cards
}

// New returns a full deck shuffled with r, ready to be used as a draw pile.
func New(r *rand.Rand) []set.Card {
	cards := Full()
	r.Shuffle(len(cards), func(i, j int) {
		cards[i], cards[j] = cards[j], cards[i]
	})
	return cards
}
