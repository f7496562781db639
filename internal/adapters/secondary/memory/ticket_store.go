package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mineboard/mineboard-backend/internal/core/domain"
	apperrors "github.com/mineboard/mineboard-backend/internal/core/errors"
	"github.com/mineboard/mineboard-backend/internal/core/ports"
)

// TicketStore is the in-process ticket store. It is the default: tickets
// only live for the handshake window, so a single-instance deployment has no
// reason to persist them. The postgres store exists for multi-instance
// setups.
type TicketStore struct {
	mu      sync.Mutex
	tickets map[string]domain.Ticket
}

var _ ports.TicketStore = (*TicketStore)(nil)

// NewTicketStore creates an empty store.
func NewTicketStore() *TicketStore {
	return &TicketStore{
		tickets: make(map[string]domain.Ticket),
	}
}

// Save records a freshly issued ticket.
func (s *TicketStore) Save(_ context.Context, ticket domain.Ticket) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickets[ticket.Token] = ticket
	return nil
}

// Redeem removes the ticket and returns its owner. The lookup and delete
// happen under one lock acquisition, so concurrent redemptions of the same
// token produce exactly one winner.
func (s *TicketStore) Redeem(_ context.Context, token string) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ticket, ok := s.tickets[token]
	if !ok {
		return uuid.Nil, apperrors.ErrInvalidTicket
	}
	delete(s.tickets, token)

	if ticket.Expired(time.Now().UTC()) {
		return uuid.Nil, apperrors.ErrInvalidTicket
	}
	return ticket.UserID, nil
}

// PurgeExpired drops tickets past their TTL.
func (s *TicketStore) PurgeExpired(_ context.Context) (int, error) {
	now := time.Now().UTC()

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for token, ticket := range s.tickets {
		if ticket.Expired(now) {
			delete(s.tickets, token)
			removed++
		}
	}
	return removed, nil
}

// Len reports the number of stored tickets.
func (s *TicketStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tickets)
}
