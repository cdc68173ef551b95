package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/playmatatu/eightball/internal/game"
)

// Lobby is the command side of the table scheduler.
type Lobby interface {
	Greet(participantID string)
	Enqueue(participantID, name string)
	Dequeue(participantID string)
	CancelHold(participantID string)
	Shoot(participantID string, in game.ShotInput)
	PlaceCueBall(participantID string, x, y float64)
	Disconnect(participantID string)
}

// TokenVerifier resolves a session token to a participant id.
type TokenVerifier interface {
	Verify(token string) (string, error)
}

// Inbound frame types
const (
	MsgQueueJoin  = "queue:join"
	MsgQueueLeave = "queue:leave"
	MsgHoldCancel = "hold:cancel"
	MsgShoot      = "shoot"
	MsgCuePlace   = "cue:place"
)

type QueueJoinData struct {
	Name string `json:"name"`
}

type PlaceCueBallData struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// HandleWebSocket upgrades a connection authenticated by the token query
// parameter.
func (h *Hub) HandleWebSocket(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.Query("token")
		if token == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "token required"})
			return
		}

		participantID, err := verifier.Verify(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("[WS] Upgrade error: %v", err)
			return
		}

		client := &Client{
			hub:           h,
			conn:          conn,
			participantID: participantID,
			send:          make(chan []byte, sendBuffer),
		}

		select {
		case h.register <- client:
		case <-h.done:
			conn.Close()
			return
		}

		go client.writePump()
		go client.readPump()
	}
}

// Run processes connects and disconnects until ctx is done.
// Clients still connected afterwards are closed.
func (h *Hub) Run(ctx context.Context) {
	defer h.shutdown()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			if old, exists := h.clients[client.participantID]; exists {
				log.Printf("[WS] Participant %s reconnecting - closing old connection", client.participantID)
				if err := old.conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "replaced by new connection"), time.Now().Add(5*time.Second)); err != nil {
					log.Printf("[WS] Error writing close control to old client %s: %v", old.participantID, err)
				}
				old.conn.Close()
				close(old.send)
			}
			h.clients[client.participantID] = client
			h.mu.Unlock()

			log.Printf("[WS] Participant %s connected", client.participantID)
			if h.lobby != nil {
				h.lobby.Greet(client.participantID)
			}

		case client := <-h.unregister:
			h.mu.Lock()
			current := false
			if cur, ok := h.clients[client.participantID]; ok && cur == client {
				delete(h.clients, client.participantID)
				close(client.send)
				current = true
			}
			h.mu.Unlock()

			// A replaced connection does not take the participant with it
			if current {
				log.Printf("[WS] Participant %s disconnected", client.participantID)
				if h.lobby != nil {
					h.lobby.Disconnect(client.participantID)
				}
			}
		}
	}
}

// shutdown releases pumps still waiting on the hub and drops every client.
func (h *Hub) shutdown() {
	close(h.done)

	h.mu.Lock()
	defer h.mu.Unlock()
	for id, client := range h.clients {
		client.conn.Close()
		close(client.send)
		delete(h.clients, id)
	}
	log.Printf("[WS] hub stopped")
}

// readPump reads commands until the connection drops.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[WS] unexpected close for participant %s: %v", c.participantID, err)
			}
			break
		}

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}

		if err := dispatch(c.hub.lobby, c.participantID, msg); err != nil {
			log.Printf("[WS] command from %s ignored: %v", c.participantID, err)
		}
	}
}

// dispatch maps one inbound frame to a lobby command. Errors are for logs
// only; clients never see them.
func dispatch(l Lobby, participantID string, msg WSMessage) error {
	if l == nil {
		return fmt.Errorf("lobby not ready")
	}

	switch msg.Type {
	case MsgQueueJoin:
		var data QueueJoinData
		if len(msg.Data) > 0 {
			if err := json.Unmarshal(msg.Data, &data); err != nil {
				return fmt.Errorf("invalid %s data: %w", msg.Type, err)
			}
		}
		l.Enqueue(participantID, data.Name)

	case MsgQueueLeave:
		l.Dequeue(participantID)

	case MsgHoldCancel:
		l.CancelHold(participantID)

	case MsgShoot:
		var data game.ShotInput
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return fmt.Errorf("invalid %s data: %w", msg.Type, err)
		}
		l.Shoot(participantID, data)

	case MsgCuePlace:
		var data PlaceCueBallData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			return fmt.Errorf("invalid %s data: %w", msg.Type, err)
		}
		l.PlaceCueBall(participantID, data.X, data.Y)

	default:
		return fmt.Errorf("unknown message type %q", msg.Type)
	}
	return nil
}
