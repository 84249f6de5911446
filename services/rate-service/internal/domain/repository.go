package domain

import (
	"context"
	"time"
)

// RateSource fetches courier offers for a shipment
type RateSource interface {
	FetchRates(ctx context.Context, query RateQuery) (*RateQuote, error)
}

// SessionRepository holds open rate sessions. Update and View run fn while holding
// the session exclusively, so calls for one session never interleave.
type SessionRepository interface {
	Create(ctx context.Context, session *RateSession) error
	Update(ctx context.Context, sessionID string, fn func(*RateSession) error) error
	View(ctx context.Context, sessionID string, fn func(*RateSession) error) error
	Delete(ctx context.Context, sessionID string) error
	DeleteIdleSince(ctx context.Context, cutoff time.Time) ([]*RateSession, error)
}
