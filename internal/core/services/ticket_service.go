package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mineboard/mineboard-backend/internal/core/domain"
	"github.com/mineboard/mineboard-backend/internal/core/ports"
)

// ticketTokenBytes is the entropy of a ticket token. 32 random bytes keep
// tokens unguessable even though they currently travel in a query string.
const ticketTokenBytes = 32

// TicketService issues and redeems socket tickets over a TicketStore.
// Redemption semantics (atomic, single-use) live in the store; the service
// owns token generation, TTL stamping and the expiry janitor.
type TicketService struct {
	store  ports.TicketStore
	ttl    time.Duration
	logger *slog.Logger

	stop     chan struct{}
	stopOnce sync.Once
}

var _ ports.TicketService = (*TicketService)(nil)

// NewTicketService creates the service and starts the janitor that sweeps
// expired tickets, mirroring the session cleanup the platform runs for its
// HTTP sessions.
func NewTicketService(store ports.TicketStore, ttl time.Duration, logger *slog.Logger) *TicketService {
	s := &TicketService{
		store:  store,
		ttl:    ttl,
		logger: logger.With("component", "ticket_service"),
		stop:   make(chan struct{}),
	}
	go s.sweepExpired()
	return s
}

// Issue mints a ticket for the user with a cryptographically random token.
func (s *TicketService) Issue(ctx context.Context, userID uuid.UUID) (domain.Ticket, error) {
	token, err := generateToken()
	if err != nil {
		return domain.Ticket{}, fmt.Errorf("generating ticket token: %w", err)
	}

	now := time.Now().UTC()
	ticket := domain.Ticket{
		Token:     token,
		UserID:    userID,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
	}

	if err := s.store.Save(ctx, ticket); err != nil {
		return domain.Ticket{}, fmt.Errorf("saving ticket: %w", err)
	}

	s.logger.Debug("ticket issued", "user_id", userID, "expires_at", ticket.ExpiresAt)
	return ticket, nil
}

// Redeem consumes the ticket and returns the owning user. It fails with
// ErrInvalidTicket for unknown, expired or already redeemed tokens.
func (s *TicketService) Redeem(ctx context.Context, token string) (uuid.UUID, error) {
	return s.store.Redeem(ctx, token)
}

// Shutdown stops the janitor. Safe to call more than once.
func (s *TicketService) Shutdown() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
}

func (s *TicketService) sweepExpired() {
	ticker := time.NewTicker(s.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			removed, err := s.store.PurgeExpired(ctx)
			cancel()
			if err != nil {
				s.logger.Warn("ticket sweep failed", "error", err)
				continue
			}
			if removed > 0 {
				s.logger.Debug("expired tickets removed", "count", removed)
			}
		case <-s.stop:
			return
		}
	}
}

func generateToken() (string, error) {
	buf := make([]byte, ticketTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
