package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mineboard/mineboard-backend/internal/core/domain"
	apperrors "github.com/mineboard/mineboard-backend/internal/core/errors"
)

// createTestUser inserts a user with a unique email and returns it.
func createTestUser(t *testing.T) *domain.User {
	t.Helper()
	require.NotNil(t, testPool, "testPool is nil. TestMain may not have run.")

	repo := NewUserRepository(testPool)
	user := &domain.User{
		ID:           uuid.New(),
		Name:         "Test User",
		Email:        fmt.Sprintf("user-%s@example.com", uuid.NewString()),
		PasswordHash: "$2a$10$notarealhashbutlongenough",
		CreatedAt:    time.Now().UTC(),
	}

	created, err := repo.Create(context.Background(), user)
	require.NoError(t, err, "Failed to create user")
	return created
}

func TestUserRepository_CreateGet(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(testPool)

	created := createTestUser(t)

	found, err := repo.GetByEmail(ctx, created.Email)
	require.NoError(t, err, "Failed to get user by email")
	assert.Equal(t, created.ID, found.ID)
	assert.Equal(t, "Test User", found.Name)
	assert.Equal(t, created.Email, found.Email)

	foundByID, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err, "Failed to get user by ID")
	assert.Equal(t, created.ID, foundByID.ID)
}

func TestUserRepository_GetByEmail_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(testPool)

	_, err := repo.GetByEmail(ctx, "nonexistent@example.com")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestUserRepository_GetByID_NotFound(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(testPool)

	_, err := repo.GetByID(ctx, uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
}

func TestUserRepository_Count(t *testing.T) {
	ctx := context.Background()
	repo := NewUserRepository(testPool)

	before, err := repo.Count(ctx)
	require.NoError(t, err)

	createTestUser(t)

	after, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, before+1, after)
}
