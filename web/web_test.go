package web

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/bcspragu/Set/deckgen"
	"github.com/bcspragu/Set/memdb"
	"github.com/bcspragu/Set/set"
	"github.com/google/go-cmp/cmp"
	"github.com/gorilla/mux"
	"github.com/gorilla/securecookie"
	"github.com/gorilla/websocket"
)

func TestBasicallyEverything(t *testing.T) {
	env := setup()

	for i := 0; i < 3; i++ {
		env.createUser(t, fmt.Sprintf("Test%d", i))
	}

	// Sanity check the auth works by requesting a users information back.
	gotUser := env.user(t, 2 /* user index 2 */)
	wantUser := &set.User{
		ID:   "user_2",
		Name: "Test2",
	}
	if diff := cmp.Diff(wantUser, gotUser); diff != "" {
		t.Errorf("unexpected user (-want +got)\n%s", diff)
	}

	gID := env.createGame(t, 1, 15)
	if gID != "game_0" {
		t.Errorf("got game ID %q, want %q", gID, "game_0")
	}

	gotGame, err := env.db.Game(gID)
	if err != nil {
		t.Fatalf("failed to load game %q: %v", gID, err)
	}
	if gotGame.CreatedBy != "user_1" {
		t.Errorf("game was created by %q, want %q", gotGame.CreatedBy, "user_1")
	}
	if gotGame.Status != set.Playing {
		t.Errorf("game status is %q, want %q", gotGame.Status, set.Playing)
	}

	view := env.view(t, gID, 1)
	if got, want := len(view.Slots), 15; got != want {
		t.Errorf("got %d slots, want %d", got, want)
	}
	if got, want := occupied(view), set.InitialDeal; got != want {
		t.Errorf("%d slots are occupied, want %d", got, want)
	}
	if got, want := view.DeckSize, set.DeckSize-set.InitialDeal; got != want {
		t.Errorf("deck has %d cards, want %d", got, want)
	}
	if !view.DealingPossible {
		t.Error("dealing isn't possible with three empty slots")
	}

	// Deal into the three empty slots.
	view = env.deal(t, gID, 1)
	if got, want := occupied(view), 15; got != want {
		t.Errorf("%d slots are occupied after dealing, want %d", got, want)
	}
	if view.DealingPossible {
		t.Error("dealing is possible with a full spread")
	}

	gotGames := env.games(t, 1)
	wantGames := []set.GameID{"game_0"}
	if diff := cmp.Diff(wantGames, gotGames); diff != "" {
		t.Errorf("unexpected game IDs (-want +got)\n%s", diff)
	}
	if diff := cmp.Diff([]set.GameID{}, env.games(t, 0)); diff != "" {
		t.Errorf("unexpected game IDs for another user (-want +got)\n%s", diff)
	}
}

func TestCreateGame_DefaultSlots(t *testing.T) {
	env := setup()
	env.createUser(t, "Test0")

	w := env.do(t, http.MethodPost, "/api/game", 0, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("failed to create game: [%d] %s", w.Code, w.Body)
	}
	var resp struct {
		ID set.GameID `json:"id"`
	}
	fromBody(t, w, &resp)

	view := env.view(t, resp.ID, 0)
	if got, want := len(view.Slots), set.DefaultSlotCount; got != want {
		t.Errorf("got %d slots, want %d", got, want)
	}
}

func TestCreateGame_InvalidSlots(t *testing.T) {
	env := setup()
	env.createUser(t, "Test0")

	for _, slots := range []int{-3, set.DeckSize + 1, 1200} {
		w := env.do(t, http.MethodPost, "/api/game", 0, struct {
			Slots int `json:"slots"`
		}{slots})
		if w.Code != http.StatusBadRequest {
			t.Errorf("slots %d: got status %d, want %d", slots, w.Code, http.StatusBadRequest)
		}
	}

	if gIDs := env.games(t, 0); len(gIDs) != 0 {
		t.Errorf("rejected requests created games %v", gIDs)
	}
}

func TestCreateUser_NoName(t *testing.T) {
	env := setup()

	w := env.do(t, http.MethodPost, "/api/user", -1, struct {
		Name string `json:"name"`
	}{"   "})
	if w.Code != http.StatusBadRequest {
		t.Errorf("got status %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestAccess(t *testing.T) {
	env := setup()
	env.createUser(t, "Owner")
	env.createUser(t, "Stranger")
	gID := env.newGame(t, 0, stackedState())

	tests := []struct {
		desc    string
		method  string
		path    string
		authIdx int
		body    interface{}
		want    int
	}{
		{
			desc:    "not logged in",
			method:  http.MethodGet,
			path:    "/api/game/" + string(gID),
			authIdx: -1,
			want:    http.StatusUnauthorized,
		},
		{
			desc:    "not logged in, user",
			method:  http.MethodGet,
			path:    "/api/user",
			authIdx: -1,
			want:    http.StatusUnauthorized,
		},
		{
			desc:    "someone else's game",
			method:  http.MethodGet,
			path:    "/api/game/" + string(gID),
			authIdx: 1,
			want:    http.StatusForbidden,
		},
		{
			desc:    "someone else's move",
			method:  http.MethodPost,
			path:    "/api/game/" + string(gID) + "/select",
			authIdx: 1,
			body:    selectReq(0),
			want:    http.StatusForbidden,
		},
		{
			desc:    "someone else's hint",
			method:  http.MethodGet,
			path:    "/api/game/" + string(gID) + "/hint",
			authIdx: 1,
			want:    http.StatusForbidden,
		},
		{
			desc:    "unknown game",
			method:  http.MethodGet,
			path:    "/api/game/game_100",
			authIdx: 0,
			want:    http.StatusNotFound,
		},
		{
			desc:    "move in unknown game",
			method:  http.MethodPost,
			path:    "/api/game/game_100/deal",
			authIdx: 0,
			want:    http.StatusNotFound,
		},
		{
			desc:    "slot out of range",
			method:  http.MethodPost,
			path:    "/api/game/" + string(gID) + "/select",
			authIdx: 0,
			body:    selectReq(12),
			want:    http.StatusBadRequest,
		},
		{
			desc:    "no slot",
			method:  http.MethodPost,
			path:    "/api/game/" + string(gID) + "/select",
			authIdx: 0,
			body:    struct{}{},
			want:    http.StatusBadRequest,
		},
	}

	for _, test := range tests {
		t.Run(test.desc, func(t *testing.T) {
			w := env.do(t, test.method, test.path, test.authIdx, test.body)
			if w.Code != test.want {
				t.Errorf("got status %d, want %d, body %q", w.Code, test.want, w.Body)
			}
		})
	}

	// Nothing above should have changed the game.
	g, err := env.db.Game(gID)
	if err != nil {
		t.Fatalf("failed to load game: %v", err)
	}
	if diff := cmp.Diff(stackedState(), g.State, cmp.AllowUnexported(set.Slot{})); diff != "" {
		t.Errorf("unexpected game state (-want +got)\n%s", diff)
	}
}

func TestSelectFlow(t *testing.T) {
	env := setup()
	env.createUser(t, "Test0")
	gID := env.newGame(t, 0, stackedState())
	full := deckgen.Full()

	// The first three cards of a fresh deck differ only by shape.
	var view *set.View
	for _, idx := range []int{0, 1, 2} {
		view = env.selectSlot(t, gID, 0, idx)
	}
	if got, want := view.Score, set.MatchBonus; got != want {
		t.Errorf("got score %d, want %d", got, want)
	}
	wantSels := []set.Selection{set.Match, set.Match, set.Match}
	if diff := cmp.Diff(wantSels, selections(view)[:3]); diff != "" {
		t.Errorf("unexpected selections (-want +got)\n%s", diff)
	}

	// Clicking a matched card swaps the set out for the next three cards.
	view = env.selectSlot(t, gID, 0, 1)
	wantCards := full[12:15]
	var gotCards []set.Card
	for _, s := range view.Slots[:3] {
		c, _ := s.Card()
		gotCards = append(gotCards, c)
	}
	if diff := cmp.Diff(wantCards, gotCards); diff != "" {
		t.Errorf("unexpected replacement cards (-want +got)\n%s", diff)
	}
	if got, want := view.DeckSize, set.DeckSize-15; got != want {
		t.Errorf("deck has %d cards, want %d", got, want)
	}
	for i, s := range view.Slots {
		if s.Selected() {
			t.Errorf("slot %d is still selected", i)
		}
	}

	// Slots 3, 4 and 6 are solid diamond, solid oval, striped diamond: no set.
	for _, idx := range []int{3, 4, 6} {
		view = env.selectSlot(t, gID, 0, idx)
	}
	if got, want := view.Score, set.MatchBonus-set.NoMatchPenalty; got != want {
		t.Errorf("got score %d, want %d", got, want)
	}
	if got := view.Slots[6].Selection(); got != set.NoMatch {
		t.Errorf("slot 6 has selection %q, want %q", got, set.NoMatch)
	}

	// The web view and the broadcast view come from the same place, make sure
	// a fresh load agrees with what the move returned.
	if diff := cmp.Diff(view, env.view(t, gID, 0), cmp.AllowUnexported(set.Slot{})); diff != "" {
		t.Errorf("unexpected stored view (-want +got)\n%s", diff)
	}
}

func TestDeal_FullSpreadIsNoOp(t *testing.T) {
	env := setup()
	env.createUser(t, "Test0")
	gID := env.newGame(t, 0, stackedState())

	before := env.view(t, gID, 0)
	after := env.deal(t, gID, 0)
	if diff := cmp.Diff(before, after, cmp.AllowUnexported(set.Slot{})); diff != "" {
		t.Errorf("dealing into a full spread changed it (-want +got)\n%s", diff)
	}
}

func TestRestart(t *testing.T) {
	env := setup()
	env.createUser(t, "Test0")
	gID := env.newGame(t, 0, stackedState())

	for _, idx := range []int{0, 1, 2} {
		env.selectSlot(t, gID, 0, idx)
	}

	w := env.do(t, http.MethodPost, "/api/game/"+string(gID)+"/restart", 0, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("failed to restart: [%d] %s", w.Code, w.Body)
	}
	var view set.View
	fromBody(t, w, &view)

	if view.Score != 0 {
		t.Errorf("got score %d after restart, want 0", view.Score)
	}
	if got, want := len(view.Slots), 12; got != want {
		t.Errorf("got %d slots after restart, want %d", got, want)
	}
	if got, want := view.DeckSize, set.DeckSize-set.InitialDeal; got != want {
		t.Errorf("deck has %d cards after restart, want %d", got, want)
	}
}

func TestHint(t *testing.T) {
	env := setup()
	env.createUser(t, "Test0")
	gID := env.newGame(t, 0, stackedState())

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/game/"+string(gID)+"/hint", nil)
	r = mux.SetURLVars(r, map[string]string{"id": string(gID)})
	env.addAuth(r, 0)

	if err := env.srv.serveHint(w, r); err != nil {
		t.Fatalf("failed to get hint: %v", err)
	}

	var resp struct {
		Matches [][]int `json:"matches"`
	}
	fromBody(t, w, &resp)

	if len(resp.Matches) == 0 || !cmp.Equal(resp.Matches[0], []int{0, 1, 2}) {
		t.Errorf("got matches %v, want [0 1 2] first", resp.Matches)
	}
}

func TestGameUpdate_MarshalJSON(t *testing.T) {
	gu := &GameUpdate{
		GameID: "game_0",
		View:   &set.View{Score: 3, Slots: []set.Slot{}},
	}
	dat, err := json.Marshal(gu)
	if err != nil {
		t.Fatalf("failed to marshal update: %v", err)
	}

	var got map[string]interface{}
	if err := json.Unmarshal(dat, &got); err != nil {
		t.Fatalf("failed to unmarshal update: %v", err)
	}
	if got["action"] != "GAME_UPDATE" {
		t.Errorf("got action %v, want %q", got["action"], "GAME_UPDATE")
	}
	if got["game_id"] != "game_0" {
		t.Errorf("got game_id %v, want %q", got["game_id"], "game_0")
	}

	var back GameUpdate
	if err := json.Unmarshal(dat, &back); err != nil {
		t.Fatalf("failed to unmarshal into GameUpdate: %v", err)
	}
	if diff := cmp.Diff(gu, &back, cmp.AllowUnexported(set.Slot{})); diff != "" {
		t.Errorf("unexpected update (-want +got)\n%s", diff)
	}
}

// stackedState is a twelve slot game laid out straight from an unshuffled
// deck, so tests know where every card is.
func stackedState() *set.GameState {
	full := deckgen.Full()
	slots := make([]set.Slot, 12)
	for i := range slots {
		slots[i] = set.Occupied(full[i])
	}
	return &set.GameState{
		Deck:  full[12:],
		Slots: slots,
	}
}

func selectReq(idx int) interface{} {
	return struct {
		Slot int `json:"slot"`
	}{idx}
}

func selections(v *set.View) []set.Selection {
	var out []set.Selection
	for _, s := range v.Slots {
		out = append(out, s.Selection())
	}
	return out
}

func occupied(v *set.View) int {
	n := 0
	for _, s := range v.Slots {
		if !s.Empty() {
			n++
		}
	}
	return n
}

func (env *testEnv) createUser(t *testing.T, name string) {
	req := struct {
		Name string `json:"name"`
	}{name}

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/user", toBody(t, req))
	if err := env.srv.serveCreateUser(w, r); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	var auth string
	for _, c := range w.Result().Cookies() {
		if c.Name == "Authorization" {
			auth = c.Value
		}
	}
	if auth == "" {
		t.Fatal("no auth was provided in create user response")
	}
	env.userAuth = append(env.userAuth, auth)
}

func (env *testEnv) user(t *testing.T, authIdx int) *set.User {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/user", nil)
	env.addAuth(r, authIdx)

	if err := env.srv.serveUser(w, r); err != nil {
		t.Fatalf("failed to get user: %v", err)
	}

	var u set.User
	fromBody(t, w, &u)
	return &u
}

func (env *testEnv) createGame(t *testing.T, authIdx, slots int) set.GameID {
	req := struct {
		Slots int `json:"slots"`
	}{slots}

	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/game", toBody(t, req))
	env.addAuth(r, authIdx)

	if err := env.srv.serveCreateGame(w, r); err != nil {
		t.Fatalf("failed to create game: %v", err)
	}

	var resp struct {
		ID string `json:"id"`
	}
	fromBody(t, w, &resp)
	return set.GameID(resp.ID)
}

// newGame stores a game with a known state directly, for tests that need to
// know where the cards are.
func (env *testEnv) newGame(t *testing.T, authIdx int, gs *set.GameState) set.GameID {
	gID, err := env.db.NewGame(&set.Game{
		CreatedBy: set.UserID(fmt.Sprintf("user_%d", authIdx)),
		State:     gs,
	})
	if err != nil {
		t.Fatalf("failed to store game: %v", err)
	}
	return gID
}

func (env *testEnv) games(t *testing.T, authIdx int) []set.GameID {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/games", nil)
	env.addAuth(r, authIdx)

	if err := env.srv.serveGames(w, r); err != nil {
		t.Fatalf("failed to get games: %v", err)
	}

	var resp []set.GameID
	fromBody(t, w, &resp)
	return resp
}

func (env *testEnv) view(t *testing.T, gID set.GameID, authIdx int) *set.View {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodGet, "/api/game/"+string(gID), nil)
	r = mux.SetURLVars(r, map[string]string{"id": string(gID)})
	env.addAuth(r, authIdx)

	if err := env.srv.serveGame(w, r); err != nil {
		t.Fatalf("failed to get game: %v", err)
	}

	var v set.View
	fromBody(t, w, &v)
	return &v
}

func (env *testEnv) deal(t *testing.T, gID set.GameID, authIdx int) *set.View {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/game/"+string(gID)+"/deal", nil)
	r = mux.SetURLVars(r, map[string]string{"id": string(gID)})
	env.addAuth(r, authIdx)

	if err := env.srv.serveDeal(w, r); err != nil {
		t.Fatalf("failed to deal: %v", err)
	}

	var v set.View
	fromBody(t, w, &v)
	return &v
}

func (env *testEnv) selectSlot(t *testing.T, gID set.GameID, authIdx, idx int) *set.View {
	w := httptest.NewRecorder()
	r := httptest.NewRequest(http.MethodPost, "/api/game/"+string(gID)+"/select", toBody(t, selectReq(idx)))
	r = mux.SetURLVars(r, map[string]string{"id": string(gID)})
	env.addAuth(r, authIdx)

	if err := env.srv.serveSelect(w, r); err != nil {
		t.Fatalf("failed to select slot %d: %v", idx, err)
	}

	var v set.View
	fromBody(t, w, &v)
	return &v
}

// do sends a request through the router, so errors get turned into status
// codes. An authIdx of -1 sends no auth.
func (env *testEnv) do(t *testing.T, method, path string, authIdx int, body interface{}) *httptest.ResponseRecorder {
	var rdr io.Reader
	if body != nil {
		rdr = toBody(t, body)
	}
	r := httptest.NewRequest(method, path, rdr)
	if authIdx >= 0 {
		env.addAuth(r, authIdx)
	}

	w := httptest.NewRecorder()
	env.srv.ServeHTTP(w, r)
	return w
}

func (env *testEnv) addAuth(r *http.Request, authIdx int) {
	r.AddCookie(&http.Cookie{
		Name:  "Authorization",
		Value: env.userAuth[authIdx],
	})
}

func toBody(t *testing.T, body interface{}) io.Reader {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(body); err != nil {
		t.Fatalf("failed to encode body: %v", err)
	}
	return &buf
}

func fromBody(t *testing.T, w *httptest.ResponseRecorder, resp interface{}) {
	if err := json.NewDecoder(w.Body).Decode(resp); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
}

type testEnv struct {
	db       *memdb.DB
	srv      *Srv
	userAuth []string
}

func setup() *testEnv {
	db := memdb.New()

	return &testEnv{
		db: db,
		srv: New(
			db,
			rand.New(rand.NewSource(0)),
			setupCookies(),
		),
	}
}

func setupCookies() *securecookie.SecureCookie {
	return securecookie.New(
		[]byte{
			1, 2, 3, 4, 5, 6, 7, 8,
			9, 10, 11, 12, 13, 14, 15, 16,
			17, 18, 19, 20, 21, 22, 23, 24,
			25, 26, 27, 28, 29, 30, 31, 32,
		},
		[]byte{
			33, 34, 35, 36, 37, 38, 39, 40,
			41, 42, 43, 44, 45, 46, 47, 48,
			49, 50, 51, 52, 53, 54, 55, 56,
			57, 58, 59, 60, 61, 62, 63, 64,
		})
}

func TestUpdatesArriveInSaveOrder(t *testing.T) {
	env := setup()
	env.createUser(t, "Test0")
	gID := env.newGame(t, 0, stackedState())

	srv := httptest.NewServer(env.srv)
	t.Cleanup(srv.Close)

	header := http.Header{}
	header.Set("Cookie", "Authorization="+env.userAuth[0])
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/game/" + string(gID) + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		t.Fatalf("failed to dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	updates := make(chan *GameUpdate, 100)
	go func() {
		defer close(updates)
		for {
			var gu GameUpdate
			if err := conn.ReadJSON(&gu); err != nil {
				return
			}
			updates <- &gu
		}
	}()

	// The hub registers the connection in the background, so deal (a no-op on
	// a full spread) until something comes through.
	registered := false
	for i := 0; i < 100 && !registered; i++ {
		env.do(t, http.MethodPost, "/api/game/"+string(gID)+"/deal", 0, nil)
		select {
		case <-updates:
			registered = true
		case <-time.After(50 * time.Millisecond):
		}
	}
	if !registered {
		t.Fatal("never got an update")
	}

	// Race a bunch of moves against each other. Whatever order they're saved
	// in, the last update sent has to be the saved game.
	var wg sync.WaitGroup
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			env.do(t, http.MethodPost, "/api/game/"+string(gID)+"/select", 0, selectReq(idx))
		}(i)
	}
	wg.Wait()

	var last *GameUpdate
	for done := false; !done; {
		select {
		case gu, ok := <-updates:
			if !ok {
				t.Fatal("connection closed")
			}
			last = gu
		case <-time.After(500 * time.Millisecond):
			done = true
		}
	}
	if last == nil {
		t.Fatal("no updates after the moves")
	}

	if diff := cmp.Diff(env.view(t, gID, 0), last.View, cmp.AllowUnexported(set.Slot{})); diff != "" {
		t.Errorf("last update doesn't match the saved game (-want +got)\n%s", diff)
	}
}
