package memdb

import (
	"fmt"
	"sync"

	"github.com/bcspragu/Set/set"
)

type idNamespace string

const (
	gameID = idNamespace("game")
	userID = idNamespace("user")
)

// DB is an in-memory set.DB. Everything handed in or out is copied, so
// callers can't reach into stored games.
type DB struct {
	mu    sync.Mutex
	ids   map[idNamespace]int
	games map[set.GameID]*set.Game
	users map[set.UserID]*set.User
}

func New() *DB {
	return &DB{
		ids:   make(map[idNamespace]int),
		games: make(map[set.GameID]*set.Game),
		users: make(map[set.UserID]*set.User),
	}
}

func (db *DB) NewGame(g *set.Game) (set.GameID, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.users[g.CreatedBy]; !ok {
		return "", fmt.Errorf("creator %q: %w", g.CreatedBy, set.ErrUserNotFound)
	}

	gID := set.GameID(db.newID(gameID))

	gc := g.Clone()
	gc.ID = gID
	if gc.Status == set.NoStatus {
		gc.Status = set.Playing
	}
	db.games[gID] = gc

	return gID, nil
}

func (db *DB) Game(gID set.GameID) (*set.Game, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	g, ok := db.games[gID]
	if !ok {
		return nil, set.ErrGameNotFound
	}

	return g.Clone(), nil
}

func (db *DB) NewUser(u *set.User) (set.UserID, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	uID := set.UserID(db.newID(userID))

	uc := u.Clone()
	uc.ID = uID
	db.users[uID] = uc

	return uID, nil
}

func (db *DB) User(uID set.UserID) (*set.User, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	u, ok := db.users[uID]
	if !ok {
		return nil, set.ErrUserNotFound
	}

	return u.Clone(), nil
}

// GamesForUser returns the IDs of every game created by uID, oldest first.
func (db *DB) GamesForUser(uID set.UserID) ([]set.GameID, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	if _, ok := db.users[uID]; !ok {
		return nil, set.ErrUserNotFound
	}

	var out []set.GameID
	for i := 0; i < db.ids[gameID]; i++ {
		gID := set.GameID(fmt.Sprintf("%s_%d", gameID, i))
		if g, ok := db.games[gID]; ok && g.CreatedBy == uID {
			out = append(out, gID)
		}
	}
	return out, nil
}

func (db *DB) UpdateGame(gID set.GameID, update func(*set.Game) error) (*set.Game, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	g, ok := db.games[gID]
	if !ok {
		return nil, set.ErrGameNotFound
	}

	// Work on a copy so a failed update leaves the stored game alone.
	gc := g.Clone()
	if err := update(gc); err != nil {
		return nil, err
	}
	gc.ID = gID
	db.games[gID] = gc

	return gc.Clone(), nil
}

func (db *DB) newID(ns idNamespace) string {
	idx := db.ids[ns]
	id := fmt.Sprintf("%s_%d", ns, idx)
	db.ids[ns]++
	return id
}
