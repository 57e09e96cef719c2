package repo_interfaces

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vaultpay/wallet-core/internal/domain"
)

// CompleteTransferParams carries everything the repository needs to finish a
// transfer as one storage transaction: the transaction record already moved
// to COMPLETED by the status machine, the history rows that movement
// produced, and the two balance legs.
type CompleteTransferParams struct {
	Transaction          domain.Transaction
	History              []domain.StatusHistory
	SourceAccountID      string
	DestinationAccountID string
	Amount               decimal.Decimal
}

type TransactionRepository interface {
	// Create persists a new transaction. When the transaction carries an
	// idempotency key, the storage layer's uniqueness constraint on
	// (source account, key) is the arbiter between concurrent duplicates;
	// a violation surfaces as domain.ErrDuplicateRequest.
	Create(ctx context.Context, tx domain.Transaction) (domain.Transaction, error)

	GetByID(ctx context.Context, id string) (domain.Transaction, error)
	GetByIdempotencyKey(ctx context.Context, sourceAccountID, key string) (domain.Transaction, error)
	ListByAccount(ctx context.Context, accountID string, limit int) ([]domain.Transaction, error)
	ListHistory(ctx context.Context, transactionID string) ([]domain.StatusHistory, error)

	// UpdateStatus persists the transaction's status, failure fields and
	// retry count together with the given history record in one storage
	// transaction. A nil history is allowed for unrecorded movements.
	UpdateStatus(ctx context.Context, tx domain.Transaction, history *domain.StatusHistory) (domain.Transaction, error)

	// CompleteTransfer applies debit, credit and the COMPLETED transition
	// atomically. It re-reads both balances under lock immediately before
	// mutating them and fails with domain.ErrInsufficientBalance when the
	// source no longer covers the amount.
	CompleteTransfer(ctx context.Context, params CompleteTransferParams) error

	// Sweep selections.
	ListPendingForProcessing(ctx context.Context, limit int) ([]domain.Transaction, error)
	ListPendingOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]domain.Transaction, error)
	ListRetryable(ctx context.Context, maxRetries int, limit int) ([]domain.Transaction, error)
	ListAwaitingReview(ctx context.Context, limit int) ([]domain.Transaction, error)

	// Risk-engine aggregates.
	SumCompletedForUserSince(ctx context.Context, userID string, since time.Time) (decimal.Decimal, error)
	CountByAccountSince(ctx context.Context, accountID string, statuses []domain.TransactionStatus, since time.Time) (int, error)
	CountForUserSince(ctx context.Context, userID string, since time.Time) (int, error)
}
