package set

import "errors"

const (
	// GroupSize is the number of cards that are selected, matched, and dealt
	// together.
	GroupSize = 3
	// InitialDeal is the number of cards dealt when a game starts.
	InitialDeal = 12
	// DefaultSlotCount is the size of the spread when none is requested.
	DefaultSlotCount = 24
	// DeckSize is the number of distinct cards, one per attribute combination.
	DeckSize = 81
)

// Scoring.
const (
	DeselectionPenalty = 1
	NoMatchPenalty     = 5
	MatchBonus         = 3
)

var (
	ErrUserNotFound = errors.New("set: user not found")
	ErrGameNotFound = errors.New("set: game not found")
	ErrNotOwner     = errors.New("set: game belongs to another user")
)

type UserID string
type GameID string

type GameStatus string

const (
	// NoStatus is an error case.
	NoStatus = GameStatus("")
	// Playing means there's still something left to do.
	Playing = GameStatus("PLAYING")
	// Finished means the draw pile is empty and no set remains in the spread.
	Finished = GameStatus("FINISHED")
)

type User struct {
	ID UserID `json:"id"`
	// Name is only used for display.
	Name string `json:"name"`
}

func (u *User) Clone() *User {
	uc := *u
	return &uc
}

// Game is a stored game, as kept by a DB.
type Game struct {
	ID        GameID     `json:"id"`
	CreatedBy UserID     `json:"created_by"`
	Status    GameStatus `json:"status"`
	State     *GameState `json:"state"`
}

func (g *Game) Clone() *Game {
	gc := *g
	if g.State != nil {
		gc.State = g.State.Clone()
	}
	return &gc
}

// GameState is everything needed to resume a game. The draw pile order is in
// here, so it shouldn't be shown to players; use View for that.
type GameState struct {
	// Deck is the draw pile, the first card is dealt next.
	Deck  []Card `json:"deck"`
	Slots []Slot `json:"slots"`
	Score int    `json:"score"`
}

func (gs *GameState) Clone() *GameState {
	return &GameState{
		Deck:  append([]Card(nil), gs.Deck...),
		Slots: append([]Slot(nil), gs.Slots...),
		Score: gs.Score,
	}
}

// View is what a player gets to see of a game.
type View struct {
	Score           int    `json:"score"`
	Slots           []Slot `json:"slots"`
	DealingPossible bool   `json:"dealing_possible"`
	DeckIsEmpty     bool   `json:"deck_is_empty"`
	DeckSize        int    `json:"deck_size"`
	GameOver        bool   `json:"game_over"`
}

type DB interface {
	NewUser(*User) (UserID, error)
	User(UserID) (*User, error)

	NewGame(*Game) (GameID, error)
	Game(GameID) (*Game, error)
	GamesForUser(UserID) ([]GameID, error)
	// UpdateGame applies update to the stored game and saves the result, unless
	// update returns an error. No other access to the same game happens while
	// update runs. It returns the saved game.
	UpdateGame(GameID, func(*Game) error) (*Game, error)
}
