package services

import (
	"context"

	"github.com/google/uuid"
	"github.com/mineboard/mineboard-backend/internal/core/domain"
	"github.com/mineboard/mineboard-backend/internal/core/ports"
)

// PermissionService resolves permission sets for users. Event sessions call
// Snapshot once at connect time and keep the result; a user whose grant
// changes has to reconnect to pick it up.
type PermissionService struct {
	permRepo ports.PermissionRepository
}

var _ ports.PermissionService = (*PermissionService)(nil)

// NewPermissionService creates a new service for permission lookups.
func NewPermissionService(permRepo ports.PermissionRepository) *PermissionService {
	return &PermissionService{permRepo: permRepo}
}

// Snapshot captures the user's current permission set.
func (s *PermissionService) Snapshot(ctx context.Context, userID uuid.UUID) (domain.PermissionSet, error) {
	set, err := s.permRepo.GetUserPermissions(ctx, userID)
	if err != nil {
		// On lookup failure (e.g. db down), deny rather than guess.
		return nil, err
	}
	if set == nil {
		set = domain.NewPermissionSet()
	}
	return set, nil
}

// Can checks a single permission, honoring the ADMIN bypass.
func (s *PermissionService) Can(ctx context.Context, userID uuid.UUID, permission domain.Permission) (bool, error) {
	set, err := s.Snapshot(ctx, userID)
	if err != nil {
		return false, err
	}
	return set.Allows(permission), nil
}
