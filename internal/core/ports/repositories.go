package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/mineboard/mineboard-backend/internal/core/domain"
)

// TicketStore persists socket tickets for the short window between issuance
// and redemption. Redeem must be atomic: of two concurrent calls with the
// same token, exactly one succeeds and the other fails with ErrInvalidTicket.
type TicketStore interface {
	// Save records a freshly issued ticket.
	Save(ctx context.Context, ticket domain.Ticket) error

	// Redeem consumes the ticket in a single check-and-remove step and
	// returns the owning user. Unknown, expired and already redeemed
	// tokens all fail with ErrInvalidTicket.
	Redeem(ctx context.Context, token string) (uuid.UUID, error)

	// PurgeExpired deletes tickets past their TTL and reports how many
	// were removed.
	PurgeExpired(ctx context.Context) (int, error)
}

// UserRepository defines the port for user persistence.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	Count(ctx context.Context) (int64, error)
}

// PermissionRepository defines the port for the per-user permission grants.
type PermissionRepository interface {
	// GetUserPermissions returns the user's current grant as a set.
	GetUserPermissions(ctx context.Context, userID uuid.UUID) (domain.PermissionSet, error)

	// Grant adds permissions to a user, ignoring ones already held.
	Grant(ctx context.Context, userID uuid.UUID, perms ...domain.Permission) error
}
