package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mineboard/mineboard-backend/internal/core/domain"
	apperrors "github.com/mineboard/mineboard-backend/internal/core/errors"
)

func saveTicket(t *testing.T, store *TicketStore, userID uuid.UUID, token string, ttl time.Duration) {
	t.Helper()
	now := time.Now().UTC()
	require.NoError(t, store.Save(context.Background(), domain.Ticket{
		Token:     token,
		UserID:    userID,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}))
}

func TestTicketStore_SaveAndRedeem(t *testing.T) {
	ctx := context.Background()
	store := NewTicketStore(testPool)
	user := createTestUser(t)

	token := "pg-" + uuid.NewString()
	saveTicket(t, store, user.ID, token, time.Minute)

	redeemed, err := store.Redeem(ctx, token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, redeemed)

	// A redeemed ticket is gone.
	_, err = store.Redeem(ctx, token)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTicket)
}

func TestTicketStore_RedeemUnknown(t *testing.T) {
	store := NewTicketStore(testPool)

	_, err := store.Redeem(context.Background(), "never-issued")
	assert.ErrorIs(t, err, apperrors.ErrInvalidTicket)
}

func TestTicketStore_RedeemExpired(t *testing.T) {
	ctx := context.Background()
	store := NewTicketStore(testPool)
	user := createTestUser(t)

	token := "pg-" + uuid.NewString()
	saveTicket(t, store, user.ID, token, -time.Minute)

	_, err := store.Redeem(ctx, token)
	assert.ErrorIs(t, err, apperrors.ErrInvalidTicket)
}

func TestTicketStore_ConcurrentRedeemHasOneWinner(t *testing.T) {
	store := NewTicketStore(testPool)
	user := createTestUser(t)

	token := "pg-" + uuid.NewString()
	saveTicket(t, store, user.ID, token, time.Minute)

	const attempts = 8
	var wg sync.WaitGroup
	var mu sync.Mutex
	winners := 0

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := store.Redeem(context.Background(), token); err == nil {
				mu.Lock()
				winners++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, winners)
}

func TestTicketStore_PurgeExpired(t *testing.T) {
	ctx := context.Background()
	store := NewTicketStore(testPool)
	user := createTestUser(t)

	live := "pg-" + uuid.NewString()
	dead := "pg-" + uuid.NewString()
	saveTicket(t, store, user.ID, live, time.Minute)
	saveTicket(t, store, user.ID, dead, -time.Minute)

	removed, err := store.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, removed, 1)

	_, err = store.Redeem(ctx, live)
	assert.NoError(t, err)
}
