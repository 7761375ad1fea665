package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/polizadesk/ticketboard/internal/core/domain"
)

const (
	writeWait = 10 * time.Second

	// pongWait bounds how long a silent peer stays connected. pingPeriod
	// must stay under it so the peer always has a ping to answer.
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// Inbound messages are tiny keep-alives; anything bigger is abuse.
	maxMessageSize = 512

	sendBuffer = 256
)

// Client owns one websocket connection. The hub writes outbound events to
// Send; ReadPump and WritePump move bytes on the wire.
type Client struct {
	Hub    *Hub
	Conn   *websocket.Conn
	Send   chan domain.Event
	UserID uuid.UUID

	closeOnce sync.Once
	logger    *slog.Logger
}

// NewClient wraps an upgraded connection for the hub.
func NewClient(hub *Hub, conn *websocket.Conn, userID uuid.UUID, logger *slog.Logger) *Client {
	return &Client{
		Hub:    hub,
		Conn:   conn,
		Send:   make(chan domain.Event, sendBuffer),
		UserID: userID,
		logger: logger.With("user_id", userID.String()),
	}
}

// CloseSend closes the Send channel. Safe to call more than once; the hub
// and the pumps can both reach this on teardown.
func (c *Client) CloseSend() {
	c.closeOnce.Do(func() {
		close(c.Send)
	})
}

// ReadPump consumes inbound frames until the connection dies, then
// unregisters the client. Runs as a goroutine, exactly one per connection.
func (c *Client) ReadPump() {
	defer func() {
		c.Hub.Unregister <- c
		_ = c.Conn.Close()
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	_ = c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		return c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := c.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err,
				websocket.CloseGoingAway,
				websocket.CloseAbnormalClosure,
				websocket.CloseNormalClosure,
			) {
				c.logger.Warn("websocket read error", "error", err)
			}
			return
		}
		c.handleMessage(message)
	}
}

// WritePump drains Send onto the wire and keeps the connection alive with
// pings. Runs as a goroutine, exactly one per connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.Conn.Close()
	}()

	for {
		select {
		case event, ok := <-c.Send:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub dropped us; tell the peer before hanging up.
				_ = c.Conn.WriteMessage(websocket.CloseMessage, nil)
				return
			}
			if err := c.writeEvent(event); err != nil {
				c.logger.Warn("websocket write error", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *Client) writeEvent(event domain.Event) error {
	w, err := c.Conn.NextWriter(websocket.TextMessage)
	if err != nil {
		return err
	}
	if err := json.NewEncoder(w).Encode(event); err != nil {
		_ = w.Close()
		return err
	}
	return w.Close()
}

// ClientMessage is the only inbound payload shape. Clients send keep-alive
// pings; everything else is ignored.
type ClientMessage struct {
	Type string `json:"type"`
}

func (c *Client) handleMessage(message []byte) {
	var msg ClientMessage
	if err := json.Unmarshal(message, &msg); err != nil {
		c.logger.Warn("unparseable client message", "error", err)
		return
	}

	switch msg.Type {
	case "PING":
		select {
		case c.Send <- domain.Event{Type: domain.EventPong}:
		default:
		}
	default:
		c.logger.Debug("ignoring client message", "type", msg.Type)
	}
}
