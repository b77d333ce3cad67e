package io

import (
	"math/rand"

	"github.com/bcspragu/Set/game"
	"github.com/bcspragu/Set/set"
)

// Local is a Session for a game played in this process.
type Local struct {
	g *game.Game
	r *rand.Rand
}

// NewLocal starts a game with the given number of slots, shuffling decks with
// r.
func NewLocal(slots int, r *rand.Rand) (*Local, error) {
	g, err := game.New(slots, r)
	if err != nil {
		return nil, err
	}
	return &Local{g: g, r: r}, nil
}

func (l *Local) View() (*set.View, error) {
	return l.g.View(), nil
}

func (l *Local) Deal() (*set.View, error) {
	l.g.Deal()
	return l.g.View(), nil
}

func (l *Local) Select(slot int) (*set.View, error) {
	if err := l.g.Select(slot); err != nil {
		return nil, err
	}
	return l.g.View(), nil
}

func (l *Local) Restart() (*set.View, error) {
	g, err := game.New(l.g.SlotCount(), l.r)
	if err != nil {
		return nil, err
	}
	l.g = g
	return l.g.View(), nil
}

func (l *Local) Hint() ([][]int, error) {
	return l.g.Matches(), nil
}
