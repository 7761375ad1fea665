package http

import (
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"

	wsAdapter "github.com/polizadesk/ticketboard/internal/adapters/primary/websocket"
	"github.com/polizadesk/ticketboard/internal/auth"
	"github.com/polizadesk/ticketboard/internal/config"
)

// WebSocketHandler upgrades authenticated requests into hub clients.
type WebSocketHandler struct {
	hub            *wsAdapter.Hub
	tm             *auth.TokenManager
	allowedOrigins []string
	development    bool
	upgrader       websocket.Upgrader
	logger         *slog.Logger
}

// NewWebSocketHandler creates a new WebSocket handler.
func NewWebSocketHandler(
	hub *wsAdapter.Hub,
	tm *auth.TokenManager,
	cfg *config.Config,
	logger *slog.Logger,
) *WebSocketHandler {
	h := &WebSocketHandler{
		hub:            hub,
		tm:             tm,
		allowedOrigins: cfg.WebSocket.AllowedOrigins,
		development:    cfg.IsDevelopment(),
		logger:         logger.With("handler", "websocket"),
	}

	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  cfg.WebSocket.ReadBufferSize,
		WriteBufferSize: cfg.WebSocket.WriteBufferSize,
		CheckOrigin:     h.checkOrigin,
	}

	return h
}

// checkOrigin enforces the configured origin allowlist. Development mode
// accepts everything; an absent Origin header means a same-origin or
// non-browser caller and is always accepted.
func (h *WebSocketHandler) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")

	if h.development {
		if origin != "" {
			h.logger.Warn("accepting websocket origin in development mode", "origin", origin)
		}
		return true
	}

	if origin == "" {
		return true
	}

	parsed, err := url.Parse(origin)
	if err != nil {
		h.logger.Warn("unparseable websocket origin", "origin", origin, "error", err)
		return false
	}

	if originAllowed(parsed.Host, h.allowedOrigins) {
		return true
	}

	h.logger.Warn("websocket origin rejected",
		"origin", origin,
		"remote_addr", r.RemoteAddr,
	)
	return false
}

// originAllowed matches host against the allowlist. An entry of the form
// "*.example.com" matches any subdomain and the bare apex.
func originAllowed(host string, allowed []string) bool {
	for _, entry := range allowed {
		if wild, ok := strings.CutPrefix(entry, "*."); ok {
			if host == wild || strings.HasSuffix(host, "."+wild) {
				return true
			}
			continue
		}
		if host == entry {
			return true
		}
	}
	return false
}

// ServeHTTP authenticates and upgrades the connection, then hands it to the
// hub. Browsers cannot set headers on websocket handshakes, so the token
// rides in a query parameter.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	tokenString := r.URL.Query().Get("token")
	if tokenString == "" {
		h.logger.Warn("websocket rejected: missing token",
			"request_id", requestID,
			"remote_addr", r.RemoteAddr,
		)
		http.Error(w, "Missing authentication token", http.StatusUnauthorized)
		return
	}

	claims, err := h.tm.ValidateToken(tokenString)
	if err != nil {
		h.logger.Warn("websocket rejected: invalid token",
			"request_id", requestID,
			"remote_addr", r.RemoteAddr,
			"error", err,
		)
		http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the handshake failure response.
		h.logger.Error("websocket upgrade failed",
			"request_id", requestID,
			"user_id", claims.UserID,
			"error", err,
		)
		return
	}

	h.logger.Info("websocket connected",
		"request_id", requestID,
		"user_id", claims.UserID,
	)

	client := wsAdapter.NewClient(h.hub, conn, claims.UserID, h.logger)
	h.hub.Register <- client

	go client.WritePump()
	go client.ReadPump()
}
