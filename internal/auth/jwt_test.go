package auth_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mineboard/mineboard-backend/internal/auth"
)

func TestTokenManager_GenerateAndValidate(t *testing.T) {
	tm := auth.NewTokenManager("test-secret-key-for-unit-tests", time.Hour)
	userID := uuid.New()

	token, err := tm.GenerateToken(userID)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := tm.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, userID, claims.UserID)
	assert.Equal(t, userID.String(), claims.Subject)
}

func TestTokenManager_RejectsWrongSecret(t *testing.T) {
	tm := auth.NewTokenManager("test-secret-key-for-unit-tests", time.Hour)
	other := auth.NewTokenManager("a-completely-different-secret", time.Hour)

	token, err := tm.GenerateToken(uuid.New())
	require.NoError(t, err)

	_, err = other.ValidateToken(token)
	assert.Error(t, err)
}

func TestTokenManager_RejectsExpiredToken(t *testing.T) {
	tm := auth.NewTokenManager("test-secret-key-for-unit-tests", -time.Minute)

	token, err := tm.GenerateToken(uuid.New())
	require.NoError(t, err)

	_, err = tm.ValidateToken(token)
	assert.Error(t, err)
}

func TestTokenManager_RejectsGarbage(t *testing.T) {
	tm := auth.NewTokenManager("test-secret-key-for-unit-tests", time.Hour)

	_, err := tm.ValidateToken("not.a.jwt")
	assert.Error(t, err)

	_, err = tm.ValidateToken("")
	assert.Error(t, err)
}
