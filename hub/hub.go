package hub

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math/rand"

	"github.com/bcspragu/Set/set"
	"github.com/gorilla/websocket"
)

// Hub maintains the set of active connections and broadcasts messages to the
// connections.
type Hub struct {
	// Registered connections.
	connections map[set.GameID][]*connection

	// Messages to send to everyone watching a game.
	broadcast chan *broadcastMsg

	// Register requests from the connections.
	register chan *connection

	// Unregister requests from connections.
	unregister chan *connection
}

// New creates a new Hub and starts it in a background Go routine.
func New() *Hub {
	h := &Hub{
		broadcast:   make(chan *broadcastMsg),
		register:    make(chan *connection),
		unregister:  make(chan *connection),
		connections: make(map[set.GameID][]*connection),
	}
	go h.run()
	return h
}

func (h *Hub) run() {
	for {
		select {
		case c := <-h.register:
			conns := h.connections[c.gameID]
			h.connections[c.gameID] = append(conns, c)
		case c := <-h.unregister:
			h.deleteConn(c)
		case m := <-h.broadcast:
			// Iterate over a copy, deleteConn modifies the slice.
			conns := append([]*connection(nil), h.connections[m.gameID]...)
			for _, c := range conns {
				select {
				case c.send <- m.msg:
				default:
					h.deleteConn(c)
				}
			}
		}
	}
}

// deleteConn removes a connection and closes its send channel. It's a no-op
// for a connection that was already removed, which happens when a slow
// connection is dropped and then unregisters itself.
func (h *Hub) deleteConn(c *connection) {
	rconns := h.connections[c.gameID]
	for i, rconn := range rconns {
		if rconn.id != c.id {
			continue
		}
		// Remove the connection.
		copy(rconns[i:], rconns[i+1:])
		rconns[len(rconns)-1] = nil
		rconns = rconns[:len(rconns)-1]
		if len(rconns) == 0 {
			delete(h.connections, c.gameID)
		} else {
			h.connections[c.gameID] = rconns
		}
		close(c.send)
		return
	}
}

type broadcastMsg struct {
	gameID set.GameID
	msg    []byte
}

// ToGame sends a message to everyone watching a game.
func (h *Hub) ToGame(gID set.GameID, msg interface{}) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(msg); err != nil {
		return fmt.Errorf("failed to encode message: %w", err)
	}

	h.broadcast <- &broadcastMsg{
		gameID: gID,
		msg:    buf.Bytes(),
	}

	return nil
}

// Register associates a connection with the hub and a given game. The hub
// takes ownership of ws and closes it when the client goes away.
func (h *Hub) Register(ws *websocket.Conn, gID set.GameID, uID set.UserID) {
	conn := &connection{
		id:     newID(gID),
		h:      h,
		gameID: gID,
		userID: uID,
		send:   make(chan []byte, 256),
		ws:     ws,
	}
	h.register <- conn
	go conn.writePump()
	go conn.readPump()
}

func newID(gID set.GameID) string {
	return fmt.Sprintf("%s-%d", gID, rand.Int63())
}
