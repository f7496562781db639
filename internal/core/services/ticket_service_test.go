package services_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/mineboard/mineboard-backend/internal/adapters/secondary/memory"
	"github.com/mineboard/mineboard-backend/internal/core/domain"
	apperrors "github.com/mineboard/mineboard-backend/internal/core/errors"
	"github.com/mineboard/mineboard-backend/internal/core/mocks"
	"github.com/mineboard/mineboard-backend/internal/core/services"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTicketService_IssueAndRedeem(t *testing.T) {
	store := memory.NewTicketStore()
	svc := services.NewTicketService(store, time.Minute, testLogger())
	defer svc.Shutdown()

	userID := uuid.New()
	ctx := context.Background()

	ticket, err := svc.Issue(ctx, userID)
	require.NoError(t, err)
	assert.NotEmpty(t, ticket.Token)
	assert.Equal(t, userID, ticket.UserID)
	assert.True(t, ticket.ExpiresAt.After(ticket.IssuedAt))

	redeemed, err := svc.Redeem(ctx, ticket.Token)
	require.NoError(t, err)
	assert.Equal(t, userID, redeemed)
}

func TestTicketService_TokensAreUnique(t *testing.T) {
	store := memory.NewTicketStore()
	svc := services.NewTicketService(store, time.Minute, testLogger())
	defer svc.Shutdown()

	ctx := context.Background()
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		ticket, err := svc.Issue(ctx, uuid.New())
		require.NoError(t, err)
		assert.False(t, seen[ticket.Token], "token issued twice")
		seen[ticket.Token] = true
	}
}

func TestTicketService_RedeemUnknownToken(t *testing.T) {
	store := memory.NewTicketStore()
	svc := services.NewTicketService(store, time.Minute, testLogger())
	defer svc.Shutdown()

	_, err := svc.Redeem(context.Background(), "never-issued")
	assert.ErrorIs(t, err, apperrors.ErrInvalidTicket)
}

func TestTicketService_IssueStoreFailure(t *testing.T) {
	store := mocks.NewMockTicketStore()
	store.On("Save", mock.Anything, mock.AnythingOfType("domain.Ticket")).
		Return(errors.New("store unavailable"))
	store.On("PurgeExpired", mock.Anything).Return(0, nil).Maybe()

	svc := services.NewTicketService(store, time.Minute, testLogger())
	defer svc.Shutdown()

	_, err := svc.Issue(context.Background(), uuid.New())
	assert.Error(t, err)
	store.AssertExpectations(t)
}

func TestTicketService_JanitorPurgesExpired(t *testing.T) {
	store := memory.NewTicketStore()
	svc := services.NewTicketService(store, 20*time.Millisecond, testLogger())
	defer svc.Shutdown()

	_, err := svc.Issue(context.Background(), uuid.New())
	require.NoError(t, err)

	// The sweep interval equals the TTL, so after a few intervals the
	// expired ticket must be gone.
	assert.Eventually(t, func() bool {
		return store.Len() == 0
	}, time.Second, 10*time.Millisecond)
}

func TestTicketService_ShutdownIsIdempotent(t *testing.T) {
	svc := services.NewTicketService(memory.NewTicketStore(), time.Minute, testLogger())

	svc.Shutdown()
	svc.Shutdown()
}

func TestTicketService_ExpiredTicketNotRedeemable(t *testing.T) {
	store := memory.NewTicketStore()
	ctx := context.Background()

	expired := domain.Ticket{
		Token:     "stale",
		UserID:    uuid.New(),
		IssuedAt:  time.Now().Add(-2 * time.Minute),
		ExpiresAt: time.Now().Add(-time.Minute),
	}
	require.NoError(t, store.Save(ctx, expired))

	svc := services.NewTicketService(store, time.Minute, testLogger())
	defer svc.Shutdown()

	_, err := svc.Redeem(ctx, "stale")
	assert.ErrorIs(t, err, apperrors.ErrInvalidTicket)
}
