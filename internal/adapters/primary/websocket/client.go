package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/mineboard/mineboard-backend/internal/core/domain"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer. The protocol is push-only;
	// clients have nothing to say beyond control frames.
	maxMessageSize = 512

	// Outbound buffer per session. A session that falls this far behind
	// is disconnected rather than allowed to stall the hub.
	sendBufferSize = 256
)

// Client is one authenticated live socket session: the connection, the user
// it belongs to and the permission set captured when it connected.
type Client struct {
	// ID identifies the session in the registry.
	ID uuid.UUID

	// UserID is the identity the redeemed ticket was bound to.
	UserID uuid.UUID

	// Permissions is the snapshot taken at connect time. It is never
	// updated; permission changes require a reconnect.
	Permissions domain.PermissionSet

	hub  *Hub
	conn *websocket.Conn

	// Send is the buffered channel of outbound packets.
	Send chan domain.Packet

	// closeOnce ensures the Send channel is only closed once.
	closeOnce sync.Once

	logger *slog.Logger
}

// NewClient creates a session for an upgraded, authenticated connection.
func NewClient(hub *Hub, conn *websocket.Conn, userID uuid.UUID, perms domain.PermissionSet, logger *slog.Logger) *Client {
	id := uuid.New()
	return &Client{
		ID:          id,
		UserID:      userID,
		Permissions: perms,
		hub:         hub,
		conn:        conn,
		Send:        make(chan domain.Packet, sendBufferSize),
		logger:      logger.With("session_id", id.String(), "user_id", userID.String()),
	}
}

// CloseSend safely closes the Send channel exactly once.
func (c *Client) CloseSend() {
	c.closeOnce.Do(func() {
		close(c.Send)
	})
}

// Queue enqueues a packet for delivery without blocking. It reports false
// when the session's buffer is full.
func (c *Client) Queue(p domain.Packet) bool {
	select {
	case c.Send <- p:
		return true
	default:
		return false
	}
}

// ReadPump consumes the connection until it dies. Clients never send
// application packets on this channel, so inbound frames are drained and
// discarded; the pump exists to handle pongs and to detect the close.
// This method runs in its own goroutine.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.requestUnregister(c)
		_ = c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		c.logger.Error("failed to set read deadline", "error", err)
		return
	}

	c.conn.SetPongHandler(func(string) error {
		if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
			c.logger.Error("failed to set read deadline in pong handler", "error", err)
		}
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				c.logger.Warn("websocket read error", "error", err)
			}
			break
		}
		// Data frames are ignored; state mutation goes through HTTP.
	}
}

// WritePump delivers queued packets to the connection and keeps the peer
// alive with periodic pings. This method runs in its own goroutine.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case packet, ok := <-c.Send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error("failed to set write deadline", "error", err)
				return
			}

			if !ok {
				// The hub closed the channel. Send close message.
				if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					c.logger.Debug("failed to send close message", "error", err)
				}
				return
			}

			if err := c.writeJSON(packet); err != nil {
				// Delivery failure is local to this session; the
				// read pump's teardown unregisters us.
				c.logger.Error("failed to write packet", "action", packet.Action, "error", err)
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				c.logger.Error("failed to set write deadline for ping", "error", err)
				return
			}

			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.logger.Debug("failed to send ping", "error", err)
				return
			}
		}
	}
}

// writeJSON writes one packet as a JSON text message.
func (c *Client) writeJSON(packet domain.Packet) error {
	w, err := c.conn.NextWriter(websocket.TextMessage)
	if err != nil {
		return err
	}

	if err := json.NewEncoder(w).Encode(packet); err != nil {
		_ = w.Close()
		return err
	}

	return w.Close()
}
