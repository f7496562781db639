package domain

// Permission is a named capability from the platform's closed enumeration.
// The broker treats the set as opaque apart from PermissionAdmin's bypass and
// the per-event visibility requirement.
type Permission string

const (
	// Instance-level permissions.
	PermissionCreateUser   Permission = "CREATE_USER"
	PermissionLogin        Permission = "LOGIN"
	PermissionCreateServer Permission = "CREATE_SERVER"
	PermissionDeleteServer Permission = "DELETE_SERVER"
	PermissionManageUser   Permission = "MANAGE_USER"
	PermissionAdmin        Permission = "ADMIN"

	// Server-level permissions.
	PermissionStartServer  Permission = "START_SERVER"
	PermissionStopServer   Permission = "STOP_SERVER"
	PermissionViewServer   Permission = "VIEW_SERVER"
	PermissionViewEvents   Permission = "VIEW_EVENTS"
	PermissionConsole      Permission = "CONSOLE"
	PermissionManageServer Permission = "MANAGE_SERVER"

	// Reserved for upcoming addon, backup and world management.
	PermissionAddAddon       Permission = "ADD_ADDON"
	PermissionRemoveAddon    Permission = "REMOVE_ADDON"
	PermissionDownloadAddons Permission = "DOWNLOAD_ADDONS"
	PermissionCreateBackup   Permission = "CREATE_BACKUP"
	PermissionLoadBackup     Permission = "LOAD_BACKUP"
	PermissionRemoveBackup   Permission = "REMOVE_BACKUP"
	PermissionCreateWorld    Permission = "CREATE_WORLD"
	PermissionChangeWorld    Permission = "CHANGE_WORLD"
	PermissionRemoveWorld    Permission = "REMOVE_WORLD"
)

// PermissionSet is a flat capability set. A session's set is snapshotted at
// connect time and never mutated afterwards; permission changes require a
// reconnect to take effect.
type PermissionSet map[Permission]struct{}

// NewPermissionSet builds a set from the given permissions.
func NewPermissionSet(perms ...Permission) PermissionSet {
	set := make(PermissionSet, len(perms))
	for _, p := range perms {
		set[p] = struct{}{}
	}
	return set
}

// PermissionSetFromStrings builds a set from raw permission names, e.g. as
// loaded from storage.
func PermissionSetFromStrings(names []string) PermissionSet {
	set := make(PermissionSet, len(names))
	for _, n := range names {
		set[Permission(n)] = struct{}{}
	}
	return set
}

// Has reports exact membership, without the ADMIN bypass.
func (s PermissionSet) Has(p Permission) bool {
	_, ok := s[p]
	return ok
}

// Allows reports whether a holder of this set may perform an action gated by
// required. An empty requirement allows everyone; ADMIN allows everything.
func (s PermissionSet) Allows(required Permission) bool {
	if required == "" {
		return true
	}
	if s.Has(PermissionAdmin) {
		return true
	}
	return s.Has(required)
}

// Strings returns the permission names, for storage and serialization.
func (s PermissionSet) Strings() []string {
	names := make([]string, 0, len(s))
	for p := range s {
		names = append(names, string(p))
	}
	return names
}

// DefaultUserPermissions is the grant applied to newly registered users.
func DefaultUserPermissions() []Permission {
	return []Permission{PermissionLogin, PermissionViewServer}
}
