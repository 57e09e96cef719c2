package domain

import "time"

type CardStatus string

const (
	CardStatusActive  CardStatus = "ACTIVE"
	CardStatusBlocked CardStatus = "BLOCKED"
	CardStatusExpired CardStatus = "EXPIRED"
)

// Card is issued and managed elsewhere; the core only needs to know whether
// an account holds at least one active, non-expired card before a transfer,
// and how recently a card was added for risk scoring.
type Card struct {
	ID        string
	AccountID string
	Status    CardStatus
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (c Card) Valid(now time.Time) bool {
	return c.Status == CardStatusActive && c.ExpiresAt.After(now)
}
