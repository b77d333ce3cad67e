package client

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/ioutil"
	"net/http"
	"net/http/cookiejar"

	"github.com/bcspragu/Set/set"
)

type Client struct {
	scheme string
	addr   string
	http   *http.Client
}

func New(scheme, addr string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %v", err)
	}

	return &Client{
		scheme: scheme,
		addr:   addr,
		http:   &http.Client{Jar: jar},
	}, nil
}

func (c *Client) url(path string) string {
	return c.scheme + "://" + c.addr + path
}

func gamePath(gID set.GameID, action string) string {
	p := "/api/game/" + string(gID)
	if action != "" {
		p += "/" + action
	}
	return p
}

func (c *Client) CreateUser(name string) (set.UserID, error) {
	body := struct {
		Name string `json:"name"`
	}{name}

	req, err := http.NewRequest(http.MethodPost, c.url("/api/user"), toBody(body))
	if err != nil {
		return "", fmt.Errorf("failed to form request: %w", err)
	}

	var resp struct {
		UserID set.UserID `json:"user_id"`
	}
	if err := c.do(req, &resp); err != nil {
		return "", fmt.Errorf("failed to create user: %w", err)
	}
	return resp.UserID, nil
}

func (c *Client) User() (*set.User, error) {
	req, err := http.NewRequest(http.MethodGet, c.url("/api/user"), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to form request: %w", err)
	}

	var u set.User
	if err := c.do(req, &u); err != nil {
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return &u, nil
}

// CreateGame starts a new game with the given number of slots, or the
// server's default if slots is zero.
func (c *Client) CreateGame(slots int) (set.GameID, error) {
	body := struct {
		Slots int `json:"slots,omitempty"`
	}{slots}

	req, err := http.NewRequest(http.MethodPost, c.url("/api/game"), toBody(body))
	if err != nil {
		return "", fmt.Errorf("failed to form request: %w", err)
	}

	var resp struct {
		ID set.GameID `json:"id"`
	}
	if err := c.do(req, &resp); err != nil {
		return "", fmt.Errorf("failed to create game: %w", err)
	}
	return resp.ID, nil
}

func (c *Client) Games() ([]set.GameID, error) {
	req, err := http.NewRequest(http.MethodGet, c.url("/api/games"), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to form request: %w", err)
	}

	var resp []set.GameID
	if err := c.do(req, &resp); err != nil {
		return nil, fmt.Errorf("failed to load games: %w", err)
	}
	return resp, nil
}

func (c *Client) Game(gID set.GameID) (*set.View, error) {
	req, err := http.NewRequest(http.MethodGet, c.url(gamePath(gID, "")), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to form request: %w", err)
	}

	var v set.View
	if err := c.do(req, &v); err != nil {
		return nil, fmt.Errorf("failed to load game: %w", err)
	}
	return &v, nil
}

func (c *Client) Deal(gID set.GameID) (*set.View, error) {
	req, err := http.NewRequest(http.MethodPost, c.url(gamePath(gID, "deal")), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to form request: %w", err)
	}

	var v set.View
	if err := c.do(req, &v); err != nil {
		return nil, fmt.Errorf("failed to deal: %w", err)
	}
	return &v, nil
}

func (c *Client) Select(gID set.GameID, slot int) (*set.View, error) {
	body := struct {
		Slot int `json:"slot"`
	}{slot}

	req, err := http.NewRequest(http.MethodPost, c.url(gamePath(gID, "select")), toBody(body))
	if err != nil {
		return nil, fmt.Errorf("failed to form request: %w", err)
	}

	var v set.View
	if err := c.do(req, &v); err != nil {
		return nil, fmt.Errorf("failed to select slot %d: %w", slot, err)
	}
	return &v, nil
}

func (c *Client) Restart(gID set.GameID) (*set.View, error) {
	req, err := http.NewRequest(http.MethodPost, c.url(gamePath(gID, "restart")), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to form request: %w", err)
	}

	var v set.View
	if err := c.do(req, &v); err != nil {
		return nil, fmt.Errorf("failed to restart game: %w", err)
	}
	return &v, nil
}

// Hint returns the slot indices of every set in the spread.
func (c *Client) Hint(gID set.GameID) ([][]int, error) {
	req, err := http.NewRequest(http.MethodGet, c.url(gamePath(gID, "hint")), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to form request: %w", err)
	}

	var resp struct {
		Matches [][]int `json:"matches"`
	}
	if err := c.do(req, &resp); err != nil {
		return nil, fmt.Errorf("failed to get hint: %w", err)
	}
	return resp.Matches, nil
}

func (c *Client) do(req *http.Request, resp interface{}) error {
	httpResp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer httpResp.Body.Close()
	if httpResp.StatusCode != http.StatusOK {
		return handleError(httpResp)
	}

	if resp != nil {
		if err := json.NewDecoder(httpResp.Body).Decode(resp); err != nil {
			return fmt.Errorf("failed to decode response body: %w", err)
		}
	}

	return nil
}

// StatusCode returns the HTTP status code the server replied with, or zero if
// err didn't come from a server reply.
func StatusCode(err error) int {
	var herr *httpError
	if !errors.As(err, &herr) {
		return 0
	}
	return herr.statusCode
}

type httpError struct {
	statusCode int
	body       string
	err        error
}

func (h *httpError) Error() string {
	if h.err != nil {
		return fmt.Sprintf("[%d] failed to handle error: %v", h.statusCode, h.err)
	}
	return fmt.Sprintf("[%d] error from server: %s", h.statusCode, h.body)
}

func handleError(resp *http.Response) error {
	dat, err := ioutil.ReadAll(resp.Body)
	if err != nil {
		return &httpError{
			statusCode: resp.StatusCode,
			err:        fmt.Errorf("failed to read error response body: %w", err),
		}
	}

	return &httpError{
		statusCode: resp.StatusCode,
		body:       string(bytes.TrimSpace(dat)),
	}
}

func toBody(req interface{}) io.Reader {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(req); err != nil {
		return &errReader{err: err}
	}
	return &buf
}

type errReader struct {
	err error
}

func (e *errReader) Read(_ []byte) (int, error) {
	return 0, e.err
}

// GameSession plays a single game on the server.
type GameSession struct {
	c   *Client
	gID set.GameID
}

func (c *Client) Session(gID set.GameID) *GameSession {
	return &GameSession{c: c, gID: gID}
}

func (s *GameSession) View() (*set.View, error)           { return s.c.Game(s.gID) }
func (s *GameSession) Deal() (*set.View, error)           { return s.c.Deal(s.gID) }
func (s *GameSession) Select(slot int) (*set.View, error) { return s.c.Select(s.gID, slot) }
func (s *GameSession) Restart() (*set.View, error)        { return s.c.Restart(s.gID) }
func (s *GameSession) Hint() ([][]int, error)             { return s.c.Hint(s.gID) }
