package domain_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mineboard/mineboard-backend/internal/core/domain"
)

func marshalPacket(t *testing.T, e domain.Event) map[string]any {
	t.Helper()

	raw, err := json.Marshal(e.Packet())
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(raw, &decoded))
	return decoded
}

func TestServerStateChange_Packet(t *testing.T) {
	event := domain.NewServerStateChange("607c71907be61b381db28144", map[string]any{
		"onlineStatus": 2,
	})

	assert.Equal(t, domain.ActionServerStateChange, event.Action)
	assert.Equal(t, domain.PermissionViewEvents, event.Requires)

	decoded := marshalPacket(t, event)
	assert.Equal(t, "SERVER_STATE_CHANGE", decoded["action"])

	data := decoded["data"].(map[string]any)
	assert.Equal(t, "607c71907be61b381db28144", data["id"])
	patch := data["patch"].(map[string]any)
	assert.Equal(t, float64(2), patch["onlineStatus"])
}

func TestConsoleLine_Packet(t *testing.T) {
	event := domain.NewConsoleLine("607c71907be61b381db28144", "[INFO] Done (3.456s)!")

	assert.Equal(t, domain.PermissionViewEvents, event.Requires)

	decoded := marshalPacket(t, event)
	assert.Equal(t, "CONSOLE_LINE", decoded["action"])

	data := decoded["data"].(map[string]any)
	assert.Equal(t, "607c71907be61b381db28144", data["id"])
	assert.Equal(t, "[INFO] Done (3.456s)!", data["message"])
}

func TestMetaMessage_Packet(t *testing.T) {
	event := domain.NewMetaMessage("Use HTTP for data manipulation and query")

	// Meta messages are visible to every session.
	assert.Equal(t, domain.Permission(""), event.Requires)

	decoded := marshalPacket(t, event)
	assert.Equal(t, "META_MESSAGE", decoded["action"])

	data := decoded["data"].(map[string]any)
	assert.Equal(t, "Use HTTP for data manipulation and query", data["message"])
}

func TestAddonDelete_Packet(t *testing.T) {
	event := domain.NewAddonDelete("607c71907be61b381db28144", "addon-42")

	decoded := marshalPacket(t, event)
	assert.Equal(t, "ADDON_DELETE", decoded["action"])

	data := decoded["data"].(map[string]any)
	assert.Equal(t, "607c71907be61b381db28144", data["serverId"])
	assert.Equal(t, "addon-42", data["id"])
}

func TestServerDelete_Packet(t *testing.T) {
	event := domain.NewServerDelete("607c71907be61b381db28144")

	decoded := marshalPacket(t, event)
	assert.Equal(t, "SERVER_DELETE", decoded["action"])

	data := decoded["data"].(map[string]any)
	assert.Equal(t, "607c71907be61b381db28144", data["id"])
}

func TestServerAdd_Packet(t *testing.T) {
	server := domain.GameServer{
		ID:          "607c71907be61b381db28144",
		Name:        "survival",
		DisplayName: "Survival",
		Port:        25565,
	}
	event := domain.NewServerAdd(server)

	assert.Equal(t, server.ID, event.ServerID)

	decoded := marshalPacket(t, event)
	assert.Equal(t, "SERVER_ADD", decoded["action"])

	data := decoded["data"].(map[string]any)
	assert.Equal(t, "607c71907be61b381db28144", data["id"])
	assert.Equal(t, "survival", data["name"])
}
