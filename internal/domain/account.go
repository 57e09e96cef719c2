package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type AccountStatus string

const (
	AccountStatusPendingApproval AccountStatus = "PENDING_APPROVAL"
	AccountStatusActive          AccountStatus = "ACTIVE"
	AccountStatusFrozen          AccountStatus = "FROZEN"
	AccountStatusClosed          AccountStatus = "CLOSED"
)

type AccountType string

const (
	AccountTypeRegular AccountType = "REGULAR"
	AccountTypeSavings AccountType = "SAVINGS"
)

// Account is the ledger-side view of a wallet. Balance is mutated only by
// the atomic repository operations and must never go negative from a debit.
type Account struct {
	ID                string
	UserID            string
	AccountNumber     string
	Currency          string
	Balance           decimal.Decimal
	Status            AccountStatus
	Type              AccountType
	DailySpent        decimal.Decimal
	DailySpentResetAt time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
