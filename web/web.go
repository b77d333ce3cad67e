package web

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"strings"
	"sync"

	"github.com/bcspragu/Set/game"
	"github.com/bcspragu/Set/hub"
	"github.com/bcspragu/Set/set"
	"github.com/gorilla/mux"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/websocket"
)

type Srv struct {
	sc  *securecookie.SecureCookie
	h   *hub.Hub
	mux *mux.Router
	db  set.DB

	// rmu guards r, which shuffles every new deck.
	rmu sync.Mutex
	r   *rand.Rand

	upgrader websocket.Upgrader
}

// New returns an initialized server.
func New(db set.DB, r *rand.Rand, sc *securecookie.SecureCookie) *Srv {
	s := &Srv{
		sc: sc,
		h:  hub.New(),
		db: db,
		r:  r,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}

	s.mux = s.initMux()

	return s
}

func (s *Srv) initMux() *mux.Router {
	m := mux.NewRouter()
	// New user.
	m.HandleFunc("/api/user", s.handle(s.serveCreateUser)).Methods("POST")
	// Load user.
	m.HandleFunc("/api/user", s.handle(s.serveUser)).Methods("GET")
	// New game.
	m.HandleFunc("/api/game", s.handle(s.serveCreateGame)).Methods("POST")
	// The user's games.
	m.HandleFunc("/api/games", s.handle(s.serveGames)).Methods("GET")
	// Get game.
	m.HandleFunc("/api/game/{id}", s.handle(s.serveGame)).Methods("GET")
	// Deal more cards.
	m.HandleFunc("/api/game/{id}/deal", s.handle(s.serveDeal)).Methods("POST")
	// Click on a slot.
	m.HandleFunc("/api/game/{id}/select", s.handle(s.serveSelect)).Methods("POST")
	// Start over with a fresh deck.
	m.HandleFunc("/api/game/{id}/restart", s.handle(s.serveRestart)).Methods("POST")
	// Sets currently in the spread.
	m.HandleFunc("/api/game/{id}/hint", s.handle(s.serveHint)).Methods("GET")

	// WebSocket handler for game updates.
	m.HandleFunc("/api/game/{id}/ws", s.handle(s.serveData)).Methods("GET")

	return m
}

func (s *Srv) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// httpError is an error with a specific status code for the client.
type httpError struct {
	code int
	msg  string
}

func (e *httpError) Error() string {
	return e.msg
}

func httpErrorf(code int, format string, args ...interface{}) error {
	return &httpError{code: code, msg: fmt.Sprintf(format, args...)}
}

func errorCode(err error) int {
	var herr *httpError
	switch {
	case errors.As(err, &herr):
		return herr.code
	case errors.Is(err, set.ErrGameNotFound):
		return http.StatusNotFound
	case errors.Is(err, set.ErrNotOwner):
		return http.StatusForbidden
	case errors.Is(err, game.ErrInvalidSlot), errors.Is(err, game.ErrInvalidSlotCount):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (s *Srv) handle(fn func(http.ResponseWriter, *http.Request) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := fn(w, r)
		if err == nil {
			return
		}
		code := errorCode(err)
		if code >= http.StatusInternalServerError {
			log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
		}
		http.Error(w, err.Error(), code)
	}
}

func (s *Srv) serveCreateUser(w http.ResponseWriter, r *http.Request) error {
	var req struct {
		Name string `json:"name"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return httpErrorf(http.StatusBadRequest, "malformed request: %v", err)
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return httpErrorf(http.StatusBadRequest, "No name given")
	}

	id, err := s.db.NewUser(&set.User{Name: name})
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	encoded, err := s.sc.Encode("auth", id)
	if err != nil {
		return fmt.Errorf("failed to encode auth cookie: %w", err)
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "Authorization",
		Value:    encoded,
		Path:     "/",
		HttpOnly: true,
	})

	jsonResp(w, struct {
		UserID set.UserID `json:"user_id"`
	}{id})
	return nil
}

func (s *Srv) serveUser(w http.ResponseWriter, r *http.Request) error {
	u, err := s.requireUser(r)
	if err != nil {
		return err
	}

	jsonResp(w, u)
	return nil
}

func (s *Srv) serveCreateGame(w http.ResponseWriter, r *http.Request) error {
	u, err := s.requireUser(r)
	if err != nil {
		return err
	}

	// The body is optional.
	var req struct {
		Slots int `json:"slots"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
		return httpErrorf(http.StatusBadRequest, "malformed request: %v", err)
	}
	if req.Slots == 0 {
		req.Slots = set.DefaultSlotCount
	}

	eng, err := s.newGame(req.Slots)
	if err != nil {
		return err
	}

	id, err := s.db.NewGame(&set.Game{
		CreatedBy: u.ID,
		Status:    eng.Status(),
		State:     eng.State(),
	})
	if err != nil {
		return fmt.Errorf("failed to save game: %w", err)
	}

	jsonResp(w, struct {
		ID set.GameID `json:"id"`
	}{id})
	return nil
}

func (s *Srv) newGame(slots int) (*game.Game, error) {
	s.rmu.Lock()
	defer s.rmu.Unlock()
	return game.New(slots, s.r)
}

func (s *Srv) serveGames(w http.ResponseWriter, r *http.Request) error {
	u, err := s.requireUser(r)
	if err != nil {
		return err
	}

	gIDs, err := s.db.GamesForUser(u.ID)
	if err != nil {
		return fmt.Errorf("failed to load games: %w", err)
	}
	if gIDs == nil {
		gIDs = []set.GameID{}
	}

	jsonResp(w, gIDs)
	return nil
}

func (s *Srv) serveGame(w http.ResponseWriter, r *http.Request) error {
	_, eng, err := s.loadGame(r)
	if err != nil {
		return err
	}

	jsonResp(w, eng.View())
	return nil
}

func (s *Srv) serveDeal(w http.ResponseWriter, r *http.Request) error {
	return s.move(w, r, func(eng *game.Game) (*game.Game, error) {
		eng.Deal()
		return eng, nil
	})
}

func (s *Srv) serveSelect(w http.ResponseWriter, r *http.Request) error {
	var req struct {
		Slot *int `json:"slot"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return httpErrorf(http.StatusBadRequest, "malformed request: %v", err)
	}
	if req.Slot == nil {
		return httpErrorf(http.StatusBadRequest, "No slot given")
	}

	return s.move(w, r, func(eng *game.Game) (*game.Game, error) {
		if err := eng.Select(*req.Slot); err != nil {
			return nil, err
		}
		return eng, nil
	})
}

func (s *Srv) serveRestart(w http.ResponseWriter, r *http.Request) error {
	return s.move(w, r, func(eng *game.Game) (*game.Game, error) {
		return s.newGame(eng.SlotCount())
	})
}

func (s *Srv) serveHint(w http.ResponseWriter, r *http.Request) error {
	_, eng, err := s.loadGame(r)
	if err != nil {
		return err
	}

	matches := eng.Matches()
	if matches == nil {
		matches = [][]int{}
	}
	jsonResp(w, struct {
		Matches [][]int `json:"matches"`
	}{matches})
	return nil
}

func (s *Srv) serveData(w http.ResponseWriter, r *http.Request) error {
	g, _, err := s.loadGame(r)
	if err != nil {
		return err
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client.
		log.Printf("failed to upgrade connection for game %q: %v", g.ID, err)
		return nil
	}

	s.h.Register(ws, g.ID, g.CreatedBy)
	return nil
}

// move runs fn against the requested game and saves the engine it returns,
// which is usually the one it was given. Nothing else touches the game while
// fn runs or while everyone watching the game is sent the new view.
func (s *Srv) move(w http.ResponseWriter, r *http.Request, fn func(*game.Game) (*game.Game, error)) error {
	u, err := s.requireUser(r)
	if err != nil {
		return err
	}

	gID := set.GameID(mux.Vars(r)["id"])
	var view *set.View
	_, err = s.db.UpdateGame(gID, func(g *set.Game) error {
		if g.CreatedBy != u.ID {
			return set.ErrNotOwner
		}
		eng, err := game.FromState(g.State)
		if err != nil {
			return fmt.Errorf("failed to load game %q: %w", gID, err)
		}
		if eng, err = fn(eng); err != nil {
			return err
		}
		g.State = eng.State()
		g.Status = eng.Status()
		view = eng.View()

		// Broadcast before the store lets go of the game, so watchers see
		// moves in the order they were saved.
		if err := s.h.ToGame(gID, &GameUpdate{GameID: gID, View: view}); err != nil {
			log.Printf("failed to broadcast update for game %q: %v", gID, err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	jsonResp(w, view)
	return nil
}

// loadGame loads the requested game, which must belong to the current user.
func (s *Srv) loadGame(r *http.Request) (*set.Game, *game.Game, error) {
	u, err := s.requireUser(r)
	if err != nil {
		return nil, nil, err
	}

	gID := set.GameID(mux.Vars(r)["id"])
	g, err := s.db.Game(gID)
	if err != nil {
		return nil, nil, err
	}
	if g.CreatedBy != u.ID {
		return nil, nil, set.ErrNotOwner
	}

	eng, err := game.FromState(g.State)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load game %q: %w", gID, err)
	}
	return g, eng, nil
}

func jsonResp(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("jsonResp: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
}

func (s *Srv) requireUser(r *http.Request) (*set.User, error) {
	u, err := s.loadUser(r)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, httpErrorf(http.StatusUnauthorized, "Not logged in")
	}
	return u, nil
}

func (s *Srv) loadUser(r *http.Request) (*set.User, error) {
	c, err := r.Cookie("Authorization")
	if err == http.ErrNoCookie {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var uID set.UserID
	if err := s.sc.Decode("auth", c.Value, &uID); err != nil {
		// If we can't parse it, assume it's an old auth cookie and treat them as
		// not logged in.
		return nil, nil
	}

	u, err := s.db.User(uID)
	if errors.Is(err, set.ErrUserNotFound) {
		return nil, nil
	} else if err != nil {
		return nil, err
	}

	return u, nil
}
