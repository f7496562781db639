package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/mineboard/mineboard-backend/internal/core/domain"
)

// RegisterUserParams defines the input for creating a user account.
type RegisterUserParams struct {
	Name     string
	Email    string
	Password string

	// Permissions granted to the new account. Empty means the default
	// grant for regular users.
	Permissions []domain.Permission
}

// AuthService defines the port for authentication business logic.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*domain.User, error)
	Register(ctx context.Context, params RegisterUserParams) (*domain.User, error)

	// EnsureRootUser creates an ADMIN account on first start when no
	// users exist yet. It is a no-op otherwise.
	EnsureRootUser(ctx context.Context, name, email, password string) error
}

// PermissionService defines the port for permission lookups.
type PermissionService interface {
	// Snapshot captures a user's permission set. Sessions hold the
	// snapshot for their whole lifetime.
	Snapshot(ctx context.Context, userID uuid.UUID) (domain.PermissionSet, error)

	// Can checks whether the user currently holds a permission,
	// honoring the ADMIN bypass.
	Can(ctx context.Context, userID uuid.UUID, permission domain.Permission) (bool, error)
}

// TicketService defines the port for issuing and redeeming socket tickets.
type TicketService interface {
	Issue(ctx context.Context, userID uuid.UUID) (domain.Ticket, error)
	Redeem(ctx context.Context, token string) (uuid.UUID, error)
	Shutdown()
}

// EventBroadcaster is the port event producers publish into. Publish never
// blocks on slow consumers and never returns delivery failures; those are
// scoped to the affected session.
type EventBroadcaster interface {
	Publish(event domain.Event) error
}
