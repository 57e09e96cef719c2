package repo_interfaces

import (
	"context"
	"time"
)

// CardRepository is the card-management lookup surface the core consumes.
type CardRepository interface {
	// HasValidCard reports whether the account holds at least one active,
	// non-expired card.
	HasValidCard(ctx context.Context, accountID string, now time.Time) (bool, error)
	// HasCardCreatedSince reports whether any active card on the account was
	// created at or after the given instant.
	HasCardCreatedSince(ctx context.Context, accountID string, since time.Time) (bool, error)
}
