package client

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/bcspragu/Set/set"
	"github.com/bcspragu/Set/web"
	"github.com/gorilla/websocket"
)

type wsClient struct {
	conn  *websocket.Conn
	msgs  chan []byte
	done  chan struct{}
	hooks WSHooks
}

// ListenForUpdates connects to a game's update stream and calls hooks as
// messages arrive. It blocks until the connection drops.
func (c *Client) ListenForUpdates(gID set.GameID, hooks WSHooks) error {
	scheme := "ws"
	if c.scheme == "https" {
		scheme = "wss"
	}

	addr := scheme + "://" + c.addr + gamePath(gID, "ws")

	dialer := &websocket.Dialer{
		Proxy:            http.ProxyFromEnvironment,
		HandshakeTimeout: 45 * time.Second,
		Jar:              c.http.Jar,
	}
	conn, _, err := dialer.Dial(addr, nil)
	if err != nil {
		return fmt.Errorf("failed to connect to server: %w", err)
	}
	defer conn.Close()

	if hooks.OnConnect != nil {
		go hooks.OnConnect()
	}

	wsc := &wsClient{
		conn: conn,
		done: make(chan struct{}),
		// We buffer it in case messages come in while we're waiting on user input.
		// We don't want to process messages concurrently, because that seems
		// likely to cause tricky problems.
		msgs:  make(chan []byte, 100),
		hooks: hooks,
	}

	go wsc.handleMessages()

	return wsc.read()
}

func (ws *wsClient) read() error {
	defer close(ws.done)
	for {
		messageType, message, err := ws.conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("ReadMessage: %w", err)
		}

		if messageType != websocket.TextMessage {
			continue
		}

		ws.msgs <- message
	}
}

func (ws *wsClient) handleMessages() {
	for {
		select {
		case <-ws.done:
			return
		case msg := <-ws.msgs:
			var justAction struct {
				Action string `json:"action"`
			}
			if err := json.Unmarshal(msg, &justAction); err != nil {
				log.Printf("failed to unmarshal action from server: %v", err)
				continue
			}

			switch justAction.Action {
			case "GAME_UPDATE":
				ws.handleGameUpdate(msg)
			default:
				log.Printf("unknown message action %q", justAction.Action)
			}
		}
	}
}

func (ws *wsClient) handleGameUpdate(dat []byte) {
	var gu web.GameUpdate
	if err := json.Unmarshal(dat, &gu); err != nil {
		log.Printf("handleGameUpdate: %v", err)
		return
	}

	if ws.hooks.OnUpdate == nil {
		return
	}
	ws.hooks.OnUpdate(&gu)
}

type WSHooks struct {
	OnConnect func()
	OnUpdate  func(*web.GameUpdate)
}
