package domain

// ServerSoftware describes what a game server runs.
type ServerSoftware struct {
	Server           string `json:"server"`
	MajorVersion     string `json:"majorVersion"`
	MinorVersion     string `json:"minorVersion"`
	MinecraftVersion string `json:"minecraftVersion"`
}

// Addon is a plugin or mod installed on a server.
type Addon struct {
	ID      string `json:"id"`
	Source  string `json:"source"`
	Type    string `json:"type"`
	Version string `json:"version"`
}

// GameServer is the server object as it appears in SERVER_ADD payloads.
// Persistence and supervision of servers live outside this service; the
// broker only relays the object the managing collaborator hands it.
type GameServer struct {
	ID           string         `json:"id"`
	Name         string         `json:"name"`
	DisplayName  string         `json:"displayName"`
	Description  string         `json:"description"`
	Port         int            `json:"port"`
	AllocatedRAM int            `json:"allocatedRAM"`
	OnlineStatus int            `json:"onlineStatus"`
	JavaVersion  string         `json:"javaVersion"`
	Software     ServerSoftware `json:"software"`
	Addons       []Addon        `json:"addons"`
}
