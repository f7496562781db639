package services

import (
	"context"
	"errors"
	"log/slog"

	"github.com/mineboard/mineboard-backend/internal/core/domain"
	apperrors "github.com/mineboard/mineboard-backend/internal/core/errors"
	"github.com/mineboard/mineboard-backend/internal/core/ports"
)

// AuthService implements authentication business logic
type AuthService struct {
	userRepo ports.UserRepository
	permRepo ports.PermissionRepository
	logger   *slog.Logger
}

var _ ports.AuthService = (*AuthService)(nil)

// NewAuthService creates a new authentication service
func NewAuthService(userRepo ports.UserRepository, permRepo ports.PermissionRepository, logger *slog.Logger) *AuthService {
	return &AuthService{
		userRepo: userRepo,
		permRepo: permRepo,
		logger:   logger.With("component", "auth_service"),
	}
}

// Login authenticates a user with email and password
func (s *AuthService) Login(ctx context.Context, email, password string) (*domain.User, error) {
	if email == "" {
		return nil, apperrors.ErrEmailRequired
	}
	if password == "" {
		return nil, apperrors.ErrPasswordRequired
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			// Don't reveal whether the email exists
			return nil, apperrors.ErrInvalidCredentials
		}
		return nil, err
	}

	if !user.CheckPassword(password) {
		return nil, apperrors.ErrInvalidCredentials
	}

	return user, nil
}

// Register creates a new user account with the requested permission grant.
func (s *AuthService) Register(ctx context.Context, params ports.RegisterUserParams) (*domain.User, error) {
	regParams := domain.UserRegistrationParams{
		Name:     params.Name,
		Email:    params.Email,
		Password: params.Password,
	}

	if err := regParams.Validate(); err != nil {
		return nil, err
	}

	_, err := s.userRepo.GetByEmail(ctx, params.Email)
	if err == nil {
		return nil, apperrors.ErrUserExists
	}
	if !errors.Is(err, apperrors.ErrUserNotFound) {
		return nil, err
	}

	user, err := domain.NewUser(regParams)
	if err != nil {
		return nil, err
	}

	created, err := s.userRepo.Create(ctx, user)
	if err != nil {
		return nil, err
	}

	grant := params.Permissions
	if len(grant) == 0 {
		grant = domain.DefaultUserPermissions()
	}
	if err := s.permRepo.Grant(ctx, created.ID, grant...); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", "user_id", created.ID, "email", created.Email)
	return created, nil
}

// EnsureRootUser creates the initial ADMIN account when the instance has no
// users yet. Subsequent starts leave existing accounts untouched.
func (s *AuthService) EnsureRootUser(ctx context.Context, name, email, password string) error {
	count, err := s.userRepo.Count(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	root, err := s.Register(ctx, ports.RegisterUserParams{
		Name:        name,
		Email:       email,
		Password:    password,
		Permissions: []domain.Permission{domain.PermissionAdmin},
	})
	if err != nil {
		return err
	}

	s.logger.Info("root user created", "user_id", root.ID)
	return nil
}
