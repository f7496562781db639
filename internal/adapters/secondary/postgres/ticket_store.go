package postgres

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/mineboard/mineboard-backend/internal/core/domain"
	apperrors "github.com/mineboard/mineboard-backend/internal/core/errors"
	"github.com/mineboard/mineboard-backend/internal/core/ports"
)

// TicketStore persists socket tickets in postgres so that any instance
// behind a load balancer can redeem a ticket issued by another.
type TicketStore struct {
	pool *pgxpool.Pool
}

var _ ports.TicketStore = (*TicketStore)(nil)

// NewTicketStore creates a postgres-backed ticket store.
func NewTicketStore(pool *pgxpool.Pool) *TicketStore {
	return &TicketStore{pool: pool}
}

// Save records a freshly issued ticket.
func (s *TicketStore) Save(ctx context.Context, ticket domain.Ticket) error {
	query := `
		INSERT INTO ws_tickets (token, user_id, issued_at, expires_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := s.pool.Exec(ctx, query,
		ticket.Token,
		pgtype.UUID{Bytes: ticket.UserID, Valid: true},
		ticket.IssuedAt,
		ticket.ExpiresAt,
	)
	return err
}

// Redeem deletes the ticket row and returns its owner in one statement.
// The row delete is what makes redemption single-use: of two concurrent
// redemptions, only one sees the row.
func (s *TicketStore) Redeem(ctx context.Context, token string) (uuid.UUID, error) {
	query := `
		DELETE FROM ws_tickets
		WHERE token = $1 AND expires_at > now()
		RETURNING user_id
	`

	var userID pgtype.UUID
	err := s.pool.QueryRow(ctx, query, token).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, apperrors.ErrInvalidTicket
		}
		return uuid.Nil, err
	}
	return userID.Bytes, nil
}

// PurgeExpired deletes tickets past their TTL.
func (s *TicketStore) PurgeExpired(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM ws_tickets WHERE expires_at <= now()`)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
