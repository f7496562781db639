package websocket

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/mineboard/mineboard-backend/internal/core/domain"
	"github.com/mineboard/mineboard-backend/internal/core/ports"
)

// Hub is the connection registry and event broadcaster. It tracks live
// authenticated sessions and fans published events out to the subset whose
// permission snapshot authorizes them.
//
// All registry mutation and all fan-out run on the single Run goroutine, so
// packets bound for one session are enqueued in publish order. Delivery
// itself happens on each session's write pump; a slow session fills its own
// send buffer and is torn down without stalling the others.
type Hub struct {
	// sessions maps session IDs to live clients.
	sessions map[uuid.UUID]*Client

	// broadcast carries published events into the run loop.
	broadcast chan domain.Event

	// Register requests from the upgrade handler.
	Register chan *Client

	// Unregister requests from client read pumps.
	Unregister chan *Client

	// mu protects the sessions map. The run loop takes the write lock
	// for mutation; snapshot readers (counts, fan-out) take the read
	// lock briefly and never hold it during socket writes.
	mu sync.RWMutex

	done     chan struct{}
	stopped  chan struct{}
	stopOnce sync.Once

	logger *slog.Logger
}

// Ensure Hub implements the EventBroadcaster interface.
var _ ports.EventBroadcaster = (*Hub)(nil)

// NewHub creates a new WebSocket hub.
func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		sessions:   make(map[uuid.UUID]*Client),
		broadcast:  make(chan domain.Event, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		done:       make(chan struct{}),
		stopped:    make(chan struct{}),
		logger:     logger.With("component", "websocket_hub"),
	}
}

// Publish hands an event to the hub for fan-out. It never blocks the
// producer: if the hub's queue is full the event is dropped with a warning
// (the protocol is fire-and-forget, there is no replay).
func (h *Hub) Publish(event domain.Event) error {
	select {
	case h.broadcast <- event:
		return nil
	case <-h.done:
		return nil
	default:
		h.logger.Warn("broadcast queue full, dropping event",
			"action", event.Action,
			"server_id", event.ServerID,
		)
		return nil
	}
}

// Run starts the hub's event loop. This MUST be run as a goroutine.
func (h *Hub) Run() {
	defer h.closeAllSessions()

	for {
		select {
		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.unregisterClient(client)

		case event := <-h.broadcast:
			h.broadcastEvent(event)

		case <-h.done:
			return
		}
	}
}

// Shutdown stops the run loop and blocks until it has closed every session.
// The run goroutine performs the closes itself, so a broadcast in flight
// finishes before any Send channel goes away. Used on graceful server
// shutdown.
func (h *Hub) Shutdown() {
	h.stopOnce.Do(func() {
		close(h.done)
	})
	<-h.stopped
}

// closeAllSessions is the run goroutine's final act. Every CloseSend in the
// hub happens on that goroutine, so fan-out can never race a closing channel.
func (h *Hub) closeAllSessions() {
	h.mu.Lock()
	for id, client := range h.sessions {
		delete(h.sessions, id)
		client.CloseSend()
	}
	h.mu.Unlock()

	close(h.stopped)
}

// registerClient adds a session to the registry.
func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	h.sessions[client.ID] = client
	total := len(h.sessions)
	h.mu.Unlock()

	h.logger.Info("session registered",
		"session_id", client.ID,
		"user_id", client.UserID,
		"total_sessions", total,
	)
}

// unregisterClient removes a session and closes its send channel. It is a
// no-op for sessions already gone, so racing close signals (read pump error
// plus slow-consumer teardown) are safe.
func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	_, present := h.sessions[client.ID]
	if present {
		delete(h.sessions, client.ID)
	}
	h.mu.Unlock()

	if !present {
		return
	}

	client.CloseSend()

	h.logger.Info("session unregistered",
		"session_id", client.ID,
		"user_id", client.UserID,
	)
}

// RegisterClient hands a new session to the run loop. It reports false when
// the hub has shut down and the session cannot be accepted.
func (h *Hub) RegisterClient(client *Client) bool {
	select {
	case h.Register <- client:
		return true
	case <-h.done:
		return false
	}
}

// requestUnregister hands a teardown request to the run loop without
// blocking forever when the hub has already shut down.
func (h *Hub) requestUnregister(client *Client) {
	select {
	case h.Unregister <- client:
	case <-h.done:
	}
}

// broadcastEvent fans an event out to every authorized session.
func (h *Hub) broadcastEvent(event domain.Event) {
	// Snapshot the authorized recipients so the lock is not held while
	// enqueueing. Registration changes after the snapshot affect only
	// later events.
	h.mu.RLock()
	recipients := make([]*Client, 0, len(h.sessions))
	for _, client := range h.sessions {
		if client.Permissions.Allows(event.Requires) {
			recipients = append(recipients, client)
		}
	}
	h.mu.RUnlock()

	h.logger.Debug("broadcasting event",
		"action", event.Action,
		"server_id", event.ServerID,
		"recipient_count", len(recipients),
	)

	packet := event.Packet()
	var stalled []*Client
	for _, client := range recipients {
		if !client.Queue(packet) {
			// Send buffer full: the session is too slow to keep
			// per-session ordering, so it gets torn down.
			h.logger.Warn("session send buffer full, disconnecting",
				"session_id", client.ID,
				"user_id", client.UserID,
			)
			stalled = append(stalled, client)
		}
	}

	// Tear down directly: we are on the run goroutine, sending to
	// h.Unregister here would deadlock.
	for _, client := range stalled {
		h.unregisterClient(client)
	}
}

// SessionCount returns the number of registered sessions.
func (h *Hub) SessionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// IsUserConnected checks if a user has any active session.
func (h *Hub) IsUserConnected(userID uuid.UUID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.sessions {
		if client.UserID == userID {
			return true
		}
	}
	return false
}
