package http_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	netHTTP "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	gorilla "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	httpAdapter "github.com/mineboard/mineboard-backend/internal/adapters/primary/http"
	"github.com/mineboard/mineboard-backend/internal/adapters/primary/websocket"
	"github.com/mineboard/mineboard-backend/internal/adapters/secondary/memory"
	"github.com/mineboard/mineboard-backend/internal/config"
	"github.com/mineboard/mineboard-backend/internal/core/domain"
	"github.com/mineboard/mineboard-backend/internal/core/mocks"
	"github.com/mineboard/mineboard-backend/internal/core/services"
)

type wirePacket struct {
	Action string          `json:"action"`
	Data   json.RawMessage `json:"data"`
}

type wsTestEnv struct {
	server  *httptest.Server
	hub     *websocket.Hub
	tickets *services.TicketService
	perms   *mocks.MockPermissionRepository
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newWSTestEnv(t *testing.T) *wsTestEnv {
	t.Helper()

	logger := testLogger()
	hub := websocket.NewHub(logger)
	go hub.Run()
	t.Cleanup(hub.Shutdown)

	tickets := services.NewTicketService(memory.NewTicketStore(), time.Minute, logger)
	t.Cleanup(tickets.Shutdown)

	permRepo := mocks.NewMockPermissionRepository()
	permService := services.NewPermissionService(permRepo)

	cfg := &config.Config{}
	cfg.App.Environment = "development"
	cfg.WebSocket.ReadBufferSize = 1024
	cfg.WebSocket.WriteBufferSize = 1024

	handler := httpAdapter.NewWebSocketHandler(hub, tickets, permService, cfg, logger)

	mux := netHTTP.NewServeMux()
	mux.Handle("/api/v1/ws", handler)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	return &wsTestEnv{server: server, hub: hub, tickets: tickets, perms: permRepo}
}

func (env *wsTestEnv) wsURL(ticket string) string {
	url := "ws" + strings.TrimPrefix(env.server.URL, "http") + "/api/v1/ws"
	if ticket != "" {
		url += "?ticket=" + ticket
	}
	return url
}

// connect issues a ticket for a user holding the given permissions and
// completes the upgrade handshake.
func (env *wsTestEnv) connect(t *testing.T, perms domain.PermissionSet) *gorilla.Conn {
	t.Helper()

	userID := uuid.New()
	env.perms.On("GetUserPermissions", mock.Anything, userID).Return(perms, nil)

	ticket, err := env.tickets.Issue(context.Background(), userID)
	require.NoError(t, err)

	conn, resp, err := gorilla.DefaultDialer.Dial(env.wsURL(ticket.Token), nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readPacket(t *testing.T, conn *gorilla.Conn) wirePacket {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))

	var p wirePacket
	require.NoError(t, conn.ReadJSON(&p))
	return p
}

func TestWebSocketHandler_GreetingOnConnect(t *testing.T) {
	env := newWSTestEnv(t)
	conn := env.connect(t, domain.NewPermissionSet())

	p := readPacket(t, conn)
	assert.Equal(t, "META_MESSAGE", p.Action)

	var data struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(p.Data, &data))
	assert.Equal(t, "Use HTTP for data manipulation and query", data.Message)
}

func TestWebSocketHandler_MissingTicket(t *testing.T) {
	env := newWSTestEnv(t)

	_, resp, err := gorilla.DefaultDialer.Dial(env.wsURL(""), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, netHTTP.StatusUnauthorized, resp.StatusCode)
}

func TestWebSocketHandler_InvalidTicket(t *testing.T) {
	env := newWSTestEnv(t)

	_, resp, err := gorilla.DefaultDialer.Dial(env.wsURL("never-issued"), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, netHTTP.StatusUnauthorized, resp.StatusCode)
}

func TestWebSocketHandler_StoreOutageIsServerError(t *testing.T) {
	logger := testLogger()
	hub := websocket.NewHub(logger)
	go hub.Run()
	t.Cleanup(hub.Shutdown)

	// A store that cannot be reached is not the client's fault.
	store := mocks.NewMockTicketStore()
	store.On("Redeem", mock.Anything, "tok").Return(uuid.Nil, errors.New("dial tcp: connection refused"))
	store.On("PurgeExpired", mock.Anything).Return(0, nil).Maybe()

	tickets := services.NewTicketService(store, time.Minute, logger)
	t.Cleanup(tickets.Shutdown)

	permService := services.NewPermissionService(mocks.NewMockPermissionRepository())

	cfg := &config.Config{}
	cfg.App.Environment = "development"
	cfg.WebSocket.ReadBufferSize = 1024
	cfg.WebSocket.WriteBufferSize = 1024

	handler := httpAdapter.NewWebSocketHandler(hub, tickets, permService, cfg, logger)

	mux := netHTTP.NewServeMux()
	mux.Handle("/api/v1/ws", handler)
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/api/v1/ws?ticket=tok"
	_, resp, err := gorilla.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, netHTTP.StatusInternalServerError, resp.StatusCode)
}

func TestWebSocketHandler_TicketIsSingleUse(t *testing.T) {
	env := newWSTestEnv(t)

	userID := uuid.New()
	env.perms.On("GetUserPermissions", mock.Anything, userID).Return(domain.NewPermissionSet(), nil)

	ticket, err := env.tickets.Issue(context.Background(), userID)
	require.NoError(t, err)

	conn, resp, err := gorilla.DefaultDialer.Dial(env.wsURL(ticket.Token), nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	defer conn.Close()

	// Replaying the same ticket must be rejected.
	_, resp, err = gorilla.DefaultDialer.Dial(env.wsURL(ticket.Token), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	defer resp.Body.Close()
	assert.Equal(t, netHTTP.StatusUnauthorized, resp.StatusCode)
}

func TestWebSocketHandler_EventDelivery(t *testing.T) {
	env := newWSTestEnv(t)

	viewer := env.connect(t, domain.NewPermissionSet(domain.PermissionViewEvents))

	// Skip the greeting.
	p := readPacket(t, viewer)
	require.Equal(t, "META_MESSAGE", p.Action)

	require.Eventually(t, func() bool {
		return env.hub.SessionCount() == 1
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, env.hub.Publish(domain.NewConsoleLine("607c71907be61b381db28144", "[INFO] Done (3.456s)!")))

	p = readPacket(t, viewer)
	assert.Equal(t, "CONSOLE_LINE", p.Action)

	var data struct {
		ID      string `json:"id"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(p.Data, &data))
	assert.Equal(t, "607c71907be61b381db28144", data.ID)
	assert.Equal(t, "[INFO] Done (3.456s)!", data.Message)
}

func TestWebSocketHandler_PermissionGate(t *testing.T) {
	env := newWSTestEnv(t)

	bystander := env.connect(t, domain.NewPermissionSet(domain.PermissionLogin))

	p := readPacket(t, bystander)
	require.Equal(t, "META_MESSAGE", p.Action)

	require.Eventually(t, func() bool {
		return env.hub.SessionCount() == 1
	}, time.Second, 5*time.Millisecond)

	// A gated event followed by an unrestricted marker. Receiving the
	// marker first proves the gated event was withheld, not just late.
	require.NoError(t, env.hub.Publish(domain.NewConsoleLine("srv-1", "secret output")))
	require.NoError(t, env.hub.Publish(domain.NewMetaMessage("marker")))

	p = readPacket(t, bystander)
	assert.Equal(t, "META_MESSAGE", p.Action)

	var data struct {
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(p.Data, &data))
	assert.Equal(t, "marker", data.Message)
}

func TestWebSocketHandler_InboundFramesIgnored(t *testing.T) {
	env := newWSTestEnv(t)

	conn := env.connect(t, domain.NewPermissionSet(domain.PermissionViewEvents))

	p := readPacket(t, conn)
	require.Equal(t, "META_MESSAGE", p.Action)

	require.Eventually(t, func() bool {
		return env.hub.SessionCount() == 1
	}, time.Second, 5*time.Millisecond)

	// A client data frame must neither be answered nor kill the session.
	require.NoError(t, conn.WriteMessage(gorilla.TextMessage, []byte(`{"action":"HACK"}`)))

	require.NoError(t, env.hub.Publish(domain.NewMetaMessage("still alive")))
	p = readPacket(t, conn)
	assert.Equal(t, "META_MESSAGE", p.Action)
}

func TestWebSocketHandler_DisconnectUnregisters(t *testing.T) {
	env := newWSTestEnv(t)

	conn := env.connect(t, domain.NewPermissionSet())

	require.Eventually(t, func() bool {
		return env.hub.SessionCount() == 1
	}, time.Second, 5*time.Millisecond)

	conn.Close()

	assert.Eventually(t, func() bool {
		return env.hub.SessionCount() == 0
	}, 2*time.Second, 10*time.Millisecond)
}
