package ws

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/playmatatu/eightball/internal/events"
	"github.com/playmatatu/eightball/internal/lobby"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
	sendBuffer = 256
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // origins are checked by middleware.WebSocketCORSCheck
	},
}

// Client represents a connected WebSocket client
type Client struct {
	hub           *Hub
	conn          *websocket.Conn
	participantID string
	send          chan []byte
}

// Hub maintains the set of active clients. Every client is in the lobby;
// room membership follows the scheduler's room events.
type Hub struct {
	clients    map[string]*Client         // participantID -> Client
	rooms      map[string]map[string]bool // room -> participant ids
	register   chan *Client
	unregister chan *Client
	done       chan struct{} // closed when Run returns
	lobby      Lobby
	mu         sync.RWMutex
}

// NewHub creates a new Hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		rooms:      make(map[string]map[string]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// SetLobby wires the command target. Call before serving connections.
func (h *Hub) SetLobby(l Lobby) {
	h.lobby = l
}

// Reachable reports whether the participant has a live connection.
func (h *Hub) Reachable(participantID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[participantID]
	return ok
}

// Connected returns the number of live connections.
func (h *Hub) Connected() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Deliver routes one event envelope to its audience.
func (h *Hub) Deliver(env events.Envelope) {
	switch env.Kind {
	case lobby.EventRoomOpen:
		h.openRoom(env)
		return
	case lobby.EventRoomClose:
		h.mu.Lock()
		delete(h.rooms, env.Target)
		h.mu.Unlock()
		log.Printf("[WS] room %s closed", env.Target)
		return
	}

	frame, err := env.Frame()
	if err != nil {
		log.Printf("[WS] Error marshaling %s: %v", env.Kind, err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	switch env.Scope {
	case lobby.ScopeLobby:
		for _, client := range h.clients {
			h.trySend(client, frame, env.Kind)
		}
	case lobby.ScopeRoom:
		for id := range h.rooms[env.Target] {
			if client, ok := h.clients[id]; ok {
				h.trySend(client, frame, env.Kind)
			}
		}
	case lobby.ScopeParticipant:
		if client, ok := h.clients[env.Target]; ok {
			h.trySend(client, frame, env.Kind)
		} else {
			log.Printf("[WS] no client for participant %s; %s dropped", env.Target, env.Kind)
		}
	default:
		log.Printf("[WS] unknown scope %q for %s", env.Scope, env.Kind)
	}
}

func (h *Hub) openRoom(env events.Envelope) {
	var members lobby.RoomMembers
	if err := json.Unmarshal(env.Data, &members); err != nil {
		log.Printf("[WS] invalid room:open payload: %v", err)
		return
	}

	room := make(map[string]bool, len(members.Members))
	for _, id := range members.Members {
		room[id] = true
	}

	h.mu.Lock()
	h.rooms[env.Target] = room
	h.mu.Unlock()
	log.Printf("[WS] room %s opened (members=%v)", env.Target, members.Members)
}

// trySend never blocks; callers hold h.mu.
func (h *Hub) trySend(client *Client, frame []byte, kind string) {
	select {
	case client.send <- frame:
	default:
		log.Printf("[WS] send buffer full for participant %s, dropping %s", client.participantID, kind)
	}
}

// Message types
type WSMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// writePump writes messages to the WebSocket connection
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Channel closed: connection replaced or cleaned up
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				log.Printf("[WS] write error for participant %s: %v", c.participantID, err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("[WS] ping error for participant %s: %v", c.participantID, err)
				return
			}
		}
	}
}
