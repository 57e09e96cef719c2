package domain

import "time"

// User is the owning identity behind an account. Registration, KYC and
// profile management live in a separate service; the transaction core only
// reads users for ownership checks and risk attribution.
type User struct {
	ID          string
	FirstName   string
	LastName    string
	PhoneNumber string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
