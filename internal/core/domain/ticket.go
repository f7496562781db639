package domain

import (
	"time"

	"github.com/google/uuid"
)

// Ticket is a single-use token bridging an authenticated HTTP action to an
// anonymous socket upgrade. It is redeemable by at most one connection
// attempt and only until it expires, whichever comes first.
type Ticket struct {
	Token     string
	UserID    uuid.UUID
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Expired reports whether the ticket's TTL has passed.
func (t Ticket) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}
