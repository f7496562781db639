package http

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/gorilla/websocket"
	wsAdapter "github.com/mineboard/mineboard-backend/internal/adapters/primary/websocket"
	"github.com/mineboard/mineboard-backend/internal/config"
	"github.com/mineboard/mineboard-backend/internal/core/domain"
	apperrors "github.com/mineboard/mineboard-backend/internal/core/errors"
	"github.com/mineboard/mineboard-backend/internal/core/ports"
)

// metaGreeting is pushed to every freshly established session. The channel
// is push-only; this reminds client developers where mutation lives.
const metaGreeting = "Use HTTP for data manipulation and query"

// WebSocketHandler owns the connection handshake: ticket extraction and
// redemption, the protocol upgrade, the permission snapshot and session
// registration. A connection attempt that fails any step is rejected before
// it ever touches the registry.
type WebSocketHandler struct {
	hub         *wsAdapter.Hub
	tickets     ports.TicketService
	permissions ports.PermissionService
	upgrader    websocket.Upgrader
	logger      *slog.Logger
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(
	hub *wsAdapter.Hub,
	tickets ports.TicketService,
	permissions ports.PermissionService,
	cfg *config.Config,
	logger *slog.Logger,
) *WebSocketHandler {
	handler := &WebSocketHandler{
		hub:         hub,
		tickets:     tickets,
		permissions: permissions,
		logger:      logger,
	}

	handler.upgrader = websocket.Upgrader{
		ReadBufferSize:  cfg.WebSocket.ReadBufferSize,
		WriteBufferSize: cfg.WebSocket.WriteBufferSize,
		CheckOrigin:     handler.makeOriginChecker(cfg),
	}

	return handler
}

// makeOriginChecker creates an origin checking function based on configuration
func (h *WebSocketHandler) makeOriginChecker(cfg *config.Config) func(r *http.Request) bool {
	allowedOrigins := cfg.WebSocket.AllowedOrigins

	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")

		// In development mode, allow all origins (but log a warning)
		if cfg.IsDevelopment() {
			if origin != "" {
				h.logger.Warn("allowing websocket connection in development mode",
					"origin", origin,
					"remote_addr", r.RemoteAddr,
				)
			}
			return true
		}

		// No origin header (same-origin request or non-browser client)
		if origin == "" {
			return true
		}

		parsedOrigin, err := url.Parse(origin)
		if err != nil {
			h.logger.Warn("failed to parse websocket origin",
				"origin", origin,
				"error", err,
			)
			return false
		}

		originHost := parsedOrigin.Host

		for _, allowed := range allowedOrigins {
			// Support wildcard subdomains like "*.example.com"
			if strings.HasPrefix(allowed, "*.") {
				suffix := allowed[1:] // Remove the "*", keep ".example.com"
				if strings.HasSuffix(originHost, suffix) || originHost == allowed[2:] {
					return true
				}
			} else if originHost == allowed {
				return true
			}
		}

		h.logger.Warn("websocket connection rejected due to origin",
			"origin", origin,
			"remote_addr", r.RemoteAddr,
			"allowed_origins", allowedOrigins,
		)
		return false
	}
}

// ServeHTTP handles WebSocket connection requests.
func (h *WebSocketHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := GetRequestID(r.Context())

	// 1. Extract the single-use ticket. It currently travels as a query
	// parameter; only this step knows that, so moving it into a first
	// protocol message later leaves the rest of the handshake alone.
	token := r.URL.Query().Get("ticket")
	if token == "" {
		h.logger.Warn("websocket connection rejected: missing ticket",
			"request_id", requestID,
			"remote_addr", r.RemoteAddr,
		)
		http.Error(w, "Missing ticket parameter", http.StatusUnauthorized)
		return
	}

	// 2. Redeem it. Single-use and TTL live in the store; a replayed or
	// stale ticket fails here no matter how it was captured. Only a ticket
	// the store rejected is the client's fault; a store that is down is ours.
	userID, err := h.tickets.Redeem(r.Context(), token)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidTicket) {
			h.logger.Warn("websocket connection rejected: invalid ticket",
				"request_id", requestID,
				"remote_addr", r.RemoteAddr,
				"error", err,
			)
			http.Error(w, "Invalid or expired ticket", http.StatusUnauthorized)
			return
		}
		h.logger.Error("ticket redemption failed",
			"request_id", requestID,
			"remote_addr", r.RemoteAddr,
			"error", err,
		)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// 3. Snapshot the user's permissions. The session keeps this set for
	// its whole life; permission changes require a reconnect.
	perms, err := h.permissions.Snapshot(r.Context(), userID)
	if err != nil {
		h.logger.Error("failed to snapshot permissions",
			"request_id", requestID,
			"user_id", userID,
			"error", err,
		)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	// 4. Upgrade the connection.
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("failed to upgrade websocket connection",
			"request_id", requestID,
			"user_id", userID,
			"error", err,
		)
		return
	}

	// 5. Create and register the session.
	client := wsAdapter.NewClient(h.hub, conn, userID, perms, h.logger)
	if !h.hub.RegisterClient(client) {
		// Hub is shutting down.
		_ = conn.Close()
		return
	}

	h.logger.Info("websocket session established",
		"request_id", requestID,
		"session_id", client.ID,
		"user_id", userID,
		"remote_addr", r.RemoteAddr,
	)

	client.Queue(domain.NewMetaMessage(metaGreeting).Packet())

	// 6. Start the I/O pumps in new goroutines.
	go client.WritePump()
	go client.ReadPump()
}
