package domain

// Action identifies a packet variant on the wire.
type Action string

const (
	ActionServerStateChange Action = "SERVER_STATE_CHANGE"
	ActionConsoleLine       Action = "CONSOLE_LINE"
	ActionMetaMessage       Action = "META_MESSAGE"
	ActionServerAdd         Action = "SERVER_ADD"
	ActionAddonAdd          Action = "ADDON_ADD"
	ActionAddonDelete       Action = "ADDON_DELETE"
	ActionServerDelete      Action = "SERVER_DELETE"
)

// Packet is the wire representation of an event. Packets flow server to
// client only; clients mutate state through the HTTP API instead.
type Packet struct {
	Action Action `json:"action"`
	Data   any    `json:"data"`
}

// Event is a transient domain event handed to the broadcaster. It is never
// persisted; sessions that are offline when it is published never see it.
type Event struct {
	Action Action

	// ServerID scopes the event to one game server where applicable.
	// Delivery is not narrowed by it; clients filter by id.
	ServerID string

	// Requires is the permission a session must hold to receive the
	// event. Empty means the event is visible to every session.
	Requires Permission

	Data any
}

// Packet returns the wire form of the event.
func (e Event) Packet() Packet {
	return Packet{Action: e.Action, Data: e.Data}
}

type serverPatchData struct {
	ID    string         `json:"id"`
	Patch map[string]any `json:"patch"`
}

type consoleLineData struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

type metaMessageData struct {
	Message string `json:"message"`
}

type addonAddData struct {
	ServerID string `json:"serverId"`
	Addon    Addon  `json:"addon"`
}

type addonDeleteData struct {
	ServerID string `json:"serverId"`
	ID       string `json:"id"`
}

type serverDeleteData struct {
	ID string `json:"id"`
}

// NewServerStateChange announces that attributes of a server object changed.
// Only the changed attributes travel in the patch.
func NewServerStateChange(serverID string, patch map[string]any) Event {
	return Event{
		Action:   ActionServerStateChange,
		ServerID: serverID,
		Requires: PermissionViewEvents,
		Data:     serverPatchData{ID: serverID, Patch: patch},
	}
}

// NewConsoleLine carries one line of server console output.
func NewConsoleLine(serverID, message string) Event {
	return Event{
		Action:   ActionConsoleLine,
		ServerID: serverID,
		Requires: PermissionViewEvents,
		Data:     consoleLineData{ID: serverID, Message: message},
	}
}

// NewMetaMessage carries informational text for client developers. It is
// unrestricted and delivered to every session.
func NewMetaMessage(message string) Event {
	return Event{
		Action: ActionMetaMessage,
		Data:   metaMessageData{Message: message},
	}
}

// NewServerAdd announces a newly created server. The full server object is
// the payload.
func NewServerAdd(server GameServer) Event {
	return Event{
		Action:   ActionServerAdd,
		ServerID: server.ID,
		Requires: PermissionViewEvents,
		Data:     server,
	}
}

// NewAddonAdd announces an addon installed on a server.
func NewAddonAdd(serverID string, addon Addon) Event {
	return Event{
		Action:   ActionAddonAdd,
		ServerID: serverID,
		Requires: PermissionViewEvents,
		Data:     addonAddData{ServerID: serverID, Addon: addon},
	}
}

// NewAddonDelete announces an addon removed from a server.
func NewAddonDelete(serverID, addonID string) Event {
	return Event{
		Action:   ActionAddonDelete,
		ServerID: serverID,
		Requires: PermissionViewEvents,
		Data:     addonDeleteData{ServerID: serverID, ID: addonID},
	}
}

// NewServerDelete announces a removed server.
func NewServerDelete(serverID string) Event {
	return Event{
		Action:   ActionServerDelete,
		ServerID: serverID,
		Requires: PermissionViewEvents,
		Data:     serverDeleteData{ID: serverID},
	}
}
