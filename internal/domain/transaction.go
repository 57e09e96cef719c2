package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionStatus string

const (
	TransactionStatusCreated   TransactionStatus = "CREATED"
	TransactionStatusPending   TransactionStatus = "PENDING"
	TransactionStatusSending   TransactionStatus = "SENDING"
	TransactionStatusCompleted TransactionStatus = "COMPLETED"
	TransactionStatusFailed    TransactionStatus = "FAILED"
	TransactionStatusExpired   TransactionStatus = "EXPIRED"
)

// Terminal reports whether a status has no outgoing transitions.
func (s TransactionStatus) Terminal() bool {
	switch s {
	case TransactionStatusCompleted, TransactionStatusFailed, TransactionStatusExpired:
		return true
	}
	return false
}

type TransactionType string

const (
	TransactionTypeDebit  TransactionType = "DEBIT"
	TransactionTypeCredit TransactionType = "CREDIT"
)

type TransactionCategory string

const (
	CategoryTransfer     TransactionCategory = "TRANSFER"
	CategoryTopUp        TransactionCategory = "TOPUP"
	CategoryWithdraw     TransactionCategory = "WITHDRAW"
	CategoryInterest     TransactionCategory = "INTEREST"
	CategoryRefund       TransactionCategory = "REFUND"
	CategoryBalanceBonus TransactionCategory = "BALANCE_BONUS"
)

type RiskTier string

const (
	RiskTierLow    RiskTier = "LOW"
	RiskTierMedium RiskTier = "MEDIUM"
	RiskTierHigh   RiskTier = "HIGH"
)

// TierForScore buckets a 0-100 risk score.
func TierForScore(score int) RiskTier {
	switch {
	case score <= 30:
		return RiskTierLow
	case score <= 70:
		return RiskTierMedium
	default:
		return RiskTierHigh
	}
}

// Transaction is a single money movement. The destination is held as an
// account number rather than an id because it may be resolved lazily by the
// pending processor.
type Transaction struct {
	ID                       string
	UserID                   string
	SourceAccountID          string
	DestinationAccountNumber string
	Amount                   decimal.Decimal
	Currency                 string
	Type                     TransactionType
	Category                 TransactionCategory
	Status                   TransactionStatus
	Purpose                  string
	IdempotencyKey           *string
	FailureReason            *FailureReason
	FailureMessage           *string
	RetryCount               int
	RiskScore                *int
	RiskTier                 *RiskTier
	StatusChangedAt          time.Time
	PaymentID                *string
	CreatedAt                time.Time
	UpdatedAt                time.Time
}

// StatusHistory is the append-only audit record emitted once per status
// transition of a persisted transaction.
type StatusHistory struct {
	ID            string
	TransactionID string
	OldStatus     TransactionStatus
	NewStatus     TransactionStatus
	ChangedAt     time.Time
	ChangedBy     *string
	Reason        *string
}
