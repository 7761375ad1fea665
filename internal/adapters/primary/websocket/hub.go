// Package websocket fans invalidation signals out to connected clients.
// There are no per-ticket rooms: every client receives every signal and
// reacts by refetching its own view over HTTP.
package websocket

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/polizadesk/ticketboard/internal/core/domain"
	"github.com/polizadesk/ticketboard/internal/core/ports"
)

const broadcastBuffer = 256

// Hub tracks active clients, keyed by user so one person's multiple tabs and
// devices each get their own connection entry.
type Hub struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]map[*Client]bool

	broadcast chan domain.Event

	// Register and Unregister carry client lifecycle requests into Run.
	Register   chan *Client
	Unregister chan *Client

	logger *slog.Logger
}

// In single-instance deployments the hub doubles as the change feed
// mutations publish to directly.
var (
	_ ports.EventBroadcaster = (*Hub)(nil)
	_ ports.ChangeFeed       = (*Hub)(nil)
)

// NewHub creates a hub. Call Run in a goroutine before registering clients.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]bool),
		broadcast:  make(chan domain.Event, broadcastBuffer),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		logger:     logger.With("component", "websocket_hub"),
	}
}

// Run owns the client set. All registration and fan-out is serialized here.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.add(client)
		case client := <-h.Unregister:
			h.remove(client)
		case event := <-h.broadcast:
			h.fanOut(event)
		}
	}
}

// Broadcast queues an event for every connected client. A full queue drops
// the event rather than blocking the caller; clients recover on the next
// signal or refetch.
func (h *Hub) Broadcast(event domain.Event) error {
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("broadcast queue full, dropping event", "event_type", event.Type)
	}
	return nil
}

// Invalidate publishes the canonical invalidation signal.
func (h *Hub) Invalidate(_ context.Context) error {
	return h.Broadcast(domain.InvalidateEvent())
}

func (h *Hub) add(client *Client) {
	h.mu.Lock()
	conns := h.clients[client.UserID]
	if conns == nil {
		conns = make(map[*Client]bool)
		h.clients[client.UserID] = conns
	}
	conns[client] = true
	total := len(conns)
	h.mu.Unlock()

	h.logger.Info("client registered",
		"user_id", client.UserID,
		"total_connections", total,
	)
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	if conns, ok := h.clients[client.UserID]; ok {
		delete(conns, client)
		if len(conns) == 0 {
			delete(h.clients, client.UserID)
		}
	}
	h.mu.Unlock()

	client.CloseSend()

	h.logger.Info("client unregistered", "user_id", client.UserID)
}

func (h *Hub) fanOut(event domain.Event) {
	targets := h.snapshotClients()

	h.logger.Debug("broadcasting event",
		"event_type", event.Type,
		"client_count", len(targets),
	)

	for _, client := range targets {
		select {
		case client.Send <- event:
		default:
			// A client that cannot drain its buffer is dropped. Going
			// through the Unregister channel here would block against the
			// Run loop itself.
			h.logger.Warn("client send buffer full, dropping connection",
				"user_id", client.UserID,
			)
			h.remove(client)
		}
	}
}

// snapshotClients copies the full client list so sends happen outside the
// lock.
func (h *Hub) snapshotClients() []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()

	targets := make([]*Client, 0, len(h.clients))
	for _, conns := range h.clients {
		for client := range conns {
			targets = append(targets, client)
		}
	}
	return targets
}

// GetClientCount returns the total number of open connections.
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for _, conns := range h.clients {
		count += len(conns)
	}
	return count
}

// IsUserConnected reports whether the user has at least one open connection.
func (h *Hub) IsUserConnected(userID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	return len(h.clients[userID]) > 0
}

// SendToUser delivers an event to every connection of one user. Connections
// with full buffers are skipped.
func (h *Hub) SendToUser(userID uuid.UUID, event domain.Event) {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients[userID]))
	for client := range h.clients[userID] {
		targets = append(targets, client)
	}
	h.mu.RUnlock()

	for _, client := range targets {
		select {
		case client.Send <- event:
		default:
		}
	}
}
