package domain_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mineboard/mineboard-backend/internal/core/domain"
	apperrors "github.com/mineboard/mineboard-backend/internal/core/errors"
)

func TestUserRegistrationParams_Validate(t *testing.T) {
	tests := []struct {
		name        string
		params      domain.UserRegistrationParams
		expectError bool
		errorField  string // Field that should have error
	}{
		{
			name: "valid params",
			params: domain.UserRegistrationParams{
				Name:     "Alex",
				Email:    "alex@example.com",
				Password: "correct horse battery",
			},
			expectError: false,
		},
		{
			name: "missing name",
			params: domain.UserRegistrationParams{
				Name:     "",
				Email:    "alex@example.com",
				Password: "correct horse battery",
			},
			expectError: true,
			errorField:  "name",
		},
		{
			name: "name too long",
			params: domain.UserRegistrationParams{
				Name:     strings.Repeat("a", 65),
				Email:    "alex@example.com",
				Password: "correct horse battery",
			},
			expectError: true,
			errorField:  "name",
		},
		{
			name: "invalid email",
			params: domain.UserRegistrationParams{
				Name:     "Alex",
				Email:    "not-an-email",
				Password: "correct horse battery",
			},
			expectError: true,
			errorField:  "email",
		},
		{
			name: "password too short",
			params: domain.UserRegistrationParams{
				Name:     "Alex",
				Email:    "alex@example.com",
				Password: "short",
			},
			expectError: true,
			errorField:  "password",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.params.Validate()

			if tt.expectError {
				require.Error(t, err)

				var validationErr *apperrors.ValidationErrors
				if assert.ErrorAs(t, err, &validationErr) {
					assert.Contains(t, validationErr.Errors, tt.errorField)
				}
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNewUser(t *testing.T) {
	user, err := domain.NewUser(domain.UserRegistrationParams{
		Name:     "Alex",
		Email:    "alex@example.com",
		Password: "correct horse battery",
	})

	require.NoError(t, err)
	require.NotNil(t, user)
	assert.NotEmpty(t, user.ID)
	assert.Equal(t, "Alex", user.Name)
	assert.Equal(t, "alex@example.com", user.Email)
	assert.NotEqual(t, "correct horse battery", user.PasswordHash)
	assert.False(t, user.CreatedAt.IsZero())
}

func TestUser_CheckPassword(t *testing.T) {
	user, err := domain.NewUser(domain.UserRegistrationParams{
		Name:     "Alex",
		Email:    "alex@example.com",
		Password: "correct horse battery",
	})
	require.NoError(t, err)

	assert.True(t, user.CheckPassword("correct horse battery"))
	assert.False(t, user.CheckPassword("wrong password"))
	assert.False(t, user.CheckPassword(""))
}
