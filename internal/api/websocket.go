// Package api - WebSocket handler for real-time play
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/luckyreel/rgs/internal/domain"
	"github.com/luckyreel/rgs/internal/session"
	"github.com/luckyreel/rgs/internal/state"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

// WSMessage represents a WebSocket message
type WSMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// WSClient represents a WebSocket client connection
type WSClient struct {
	conn   *websocket.Conn
	send   chan []byte
	claims *session.Claims
	mu     sync.Mutex
}

// HandleWebSocket upgrades a verified session into a real-time play
// channel. Actions arrive as messages and responses go back on the
// same connection.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	claims := sessionClaims(r)

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.WithError(err).Warn("websocket upgrade failed")
		return
	}

	client := &WSClient{
		conn:   conn,
		send:   make(chan []byte, 256),
		claims: claims,
	}

	go client.writePump()
	go h.readPump(client)
}

// writePump pumps messages from the send channel to the WebSocket connection
func (c *WSClient) writePump() {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)
			w.Close()

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readPump pumps messages from the WebSocket connection to the handler
func (h *Handler) readPump(c *WSClient) {
	defer func() {
		close(c.send)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(4096)
	c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	h.sendMessage(c, "connected", map[string]interface{}{
		"gameId":  c.claims.GameID,
		"message": "Connected to game session",
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.WithError(err).Warn("websocket read error")
			}
			break
		}

		var msg WSMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			h.sendError(c, "INVALID_MESSAGE", "Invalid message format")
			continue
		}

		h.handleWSMessage(c, &msg)
	}
}

// handleWSMessage processes incoming WebSocket messages
func (h *Handler) handleWSMessage(c *WSClient, msg *WSMessage) {
	ctx := context.Background()

	switch msg.Type {
	case string(domain.ActionInit):
		data, err := h.dispatcher.Init(ctx, c.claims.UserID, c.claims.GameID)
		if err != nil {
			h.sendError(c, "INIT_ERROR", err.Error())
			return
		}
		h.sendMessage(c, "init", data)

	case string(domain.ActionSpin), string(domain.ActionFreeSpinSelect), string(domain.ActionGamble):
		h.handleAction(c, domain.ActionType(msg.Type), msg.Payload)

	case "balance":
		st, err := h.store.Get(ctx, c.claims.UserID, c.claims.GameID)
		if err != nil {
			if err == state.ErrNotFound {
				h.sendError(c, "STATE_NOT_FOUND", "No live session state")
			} else {
				h.sendError(c, "BALANCE_ERROR", "Failed to get balance")
			}
			return
		}
		h.sendMessage(c, "balance", map[string]interface{}{
			"balance": st.Balance,
			"pending": st.Pending,
		})

	case "ping":
		h.sendMessage(c, "pong", map[string]interface{}{
			"timestamp": time.Now().Unix(),
		})

	default:
		h.sendError(c, "UNKNOWN_MESSAGE", "Unknown message type: "+msg.Type)
	}
}

// handleAction dispatches a game action and sends back the outcome
func (h *Handler) handleAction(c *WSClient, typ domain.ActionType, payload json.RawMessage) {
	act := &domain.Action{
		Type:    typ,
		UserID:  c.claims.UserID,
		GameID:  c.claims.GameID,
		Payload: payload,
	}

	resp, err := h.dispatcher.Dispatch(context.Background(), act)
	if err != nil {
		h.sendError(c, "GAME_ERROR", err.Error())
		return
	}

	h.sendMessage(c, "outcome", resp)
}

// sendMessage sends a message to the client
func (h *Handler) sendMessage(c *WSClient, msgType string, payload interface{}) {
	payloadBytes, _ := json.Marshal(payload)
	msg := WSMessage{
		Type:    msgType,
		Payload: payloadBytes,
	}
	msgBytes, _ := json.Marshal(msg)

	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case c.send <- msgBytes:
	default:
		// Channel full, drop message
	}
}

// sendError sends an error message to the client
func (h *Handler) sendError(c *WSClient, code, message string) {
	h.sendMessage(c, "error", map[string]string{
		"code":    code,
		"message": message,
	})
}
