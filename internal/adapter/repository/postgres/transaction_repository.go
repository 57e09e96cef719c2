package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/vaultpay/wallet-core/internal/adapter/repository/repo_interfaces"
	"github.com/vaultpay/wallet-core/internal/domain"
	"github.com/vaultpay/wallet-core/internal/logger"
)

type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const transactionColumns = `id, user_id, source_account_id, destination_account_number, amount, currency, type, category, status, purpose, idempotency_key, failure_reason, failure_message, retry_count, risk_score, risk_tier, status_changed_at, payment_id, created_at, updated_at`

func (r *TransactionRepository) Create(ctx context.Context, tx domain.Transaction) (domain.Transaction, error) {
	logger.Info("transaction repository create", logger.Fields{
		"sourceAccountId": tx.SourceAccountID,
		"destination":     tx.DestinationAccountNumber,
		"category":        tx.Category,
		"status":          tx.Status,
	})

	const query = `
INSERT INTO transactions (
	user_id,
	source_account_id,
	destination_account_number,
	amount,
	currency,
	type,
	category,
	status,
	purpose,
	idempotency_key,
	retry_count,
	risk_score,
	risk_tier,
	status_changed_at,
	payment_id
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15
)
RETURNING id, created_at, updated_at`

	var (
		id        string
		createdAt time.Time
		updatedAt time.Time
	)

	if err := r.db.QueryRowContext(
		ctx,
		query,
		tx.UserID,
		tx.SourceAccountID,
		tx.DestinationAccountNumber,
		tx.Amount,
		tx.Currency,
		tx.Type,
		tx.Category,
		tx.Status,
		tx.Purpose,
		tx.IdempotencyKey,
		tx.RetryCount,
		nullableInt(tx.RiskScore),
		nullableTier(tx.RiskTier),
		tx.StatusChangedAt,
		tx.PaymentID,
	).Scan(&id, &createdAt, &updatedAt); err != nil {
		if isUniqueViolation(err) {
			return domain.Transaction{}, domain.ErrDuplicateRequest
		}
		logger.Error("transaction repository create failed", err, logger.Fields{
			"sourceAccountId": tx.SourceAccountID,
		})
		return domain.Transaction{}, fmt.Errorf("create transaction: %w", tagConflict(err))
	}

	tx.ID = id
	tx.CreatedAt = createdAt
	tx.UpdatedAt = updatedAt

	return tx, nil
}

func (r *TransactionRepository) GetByID(ctx context.Context, id string) (domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE id = $1`
	return scanTransaction(r.db.QueryRowContext(ctx, query, id))
}

func (r *TransactionRepository) GetByIdempotencyKey(ctx context.Context, sourceAccountID, key string) (domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE source_account_id = $1 AND idempotency_key = $2`
	return scanTransaction(r.db.QueryRowContext(ctx, query, sourceAccountID, key))
}

func (r *TransactionRepository) ListByAccount(ctx context.Context, accountID string, limit int) ([]domain.Transaction, error) {
	query := `SELECT ` + transactionColumns + ` FROM transactions WHERE source_account_id = $1 ORDER BY created_at DESC LIMIT $2`
	return r.list(ctx, query, accountID, limit)
}

func (r *TransactionRepository) ListHistory(ctx context.Context, transactionID string) ([]domain.StatusHistory, error) {
	const query = `
SELECT id, transaction_id, old_status, new_status, changed_at, changed_by, reason
FROM transaction_status_history
WHERE transaction_id = $1
ORDER BY changed_at ASC`

	rows, err := r.db.QueryContext(ctx, query, transactionID)
	if err != nil {
		return nil, fmt.Errorf("list status history: %w", err)
	}
	defer rows.Close()

	var history []domain.StatusHistory
	for rows.Next() {
		var h domain.StatusHistory
		if err := rows.Scan(&h.ID, &h.TransactionID, &h.OldStatus, &h.NewStatus, &h.ChangedAt, &h.ChangedBy, &h.Reason); err != nil {
			return nil, fmt.Errorf("scan status history: %w", err)
		}
		history = append(history, h)
	}
	return history, rows.Err()
}

func (r *TransactionRepository) UpdateStatus(ctx context.Context, tx domain.Transaction, history *domain.StatusHistory) (domain.Transaction, error) {
	dbtx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("begin update status: %w", err)
	}
	defer func() {
		_ = dbtx.Rollback()
	}()

	const query = `
UPDATE transactions
SET status = $2,
    failure_reason = $3,
    failure_message = $4,
    retry_count = $5,
    risk_score = $6,
    risk_tier = $7,
    status_changed_at = $8,
    updated_at = NOW()
WHERE id = $1
RETURNING updated_at`

	var updatedAt time.Time
	if err := dbtx.QueryRowContext(
		ctx,
		query,
		tx.ID,
		tx.Status,
		nullableReason(tx.FailureReason),
		tx.FailureMessage,
		tx.RetryCount,
		nullableInt(tx.RiskScore),
		nullableTier(tx.RiskTier),
		tx.StatusChangedAt,
	).Scan(&updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Transaction{}, domain.ErrRecordNotFound
		}
		return domain.Transaction{}, fmt.Errorf("update transaction status: %w", tagConflict(err))
	}

	if history != nil {
		if err := insertHistory(ctx, dbtx, *history); err != nil {
			return domain.Transaction{}, err
		}
	}

	if err := dbtx.Commit(); err != nil {
		return domain.Transaction{}, fmt.Errorf("commit update status: %w", tagConflict(err))
	}

	tx.UpdatedAt = updatedAt
	return tx, nil
}

// CompleteTransfer commits the debit, the credit and the COMPLETED status in
// one storage transaction. Both account rows are locked in id order to keep
// concurrent transfers deadlock-free, and the source balance is re-read
// under that lock immediately before the debit.
func (r *TransactionRepository) CompleteTransfer(ctx context.Context, params repo_interfaces.CompleteTransferParams) error {
	dbtx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin complete transfer: %w", err)
	}
	defer func() {
		_ = dbtx.Rollback()
	}()

	first, second := params.SourceAccountID, params.DestinationAccountID
	if first > second {
		first, second = second, first
	}

	balances := map[string]decimal.Decimal{}
	for _, accountID := range []string{first, second} {
		var balance decimal.Decimal
		err := dbtx.QueryRowContext(ctx, `SELECT balance FROM accounts WHERE id = $1 FOR UPDATE`, accountID).Scan(&balance)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.ErrDestinationNotFound
			}
			return fmt.Errorf("lock account: %w", tagConflict(err))
		}
		balances[accountID] = balance
	}

	if balances[params.SourceAccountID].LessThan(params.Amount) {
		return domain.ErrInsufficientBalance
	}

	const debit = `
UPDATE accounts
SET balance = balance - $2,
    daily_spent = CASE
        WHEN daily_spent_reset_at::date < CURRENT_DATE THEN $2
        ELSE daily_spent + $2
    END,
    daily_spent_reset_at = NOW(),
    updated_at = NOW()
WHERE id = $1`

	if _, err := dbtx.ExecContext(ctx, debit, params.SourceAccountID, params.Amount); err != nil {
		return fmt.Errorf("debit source account: %w", tagConflict(err))
	}

	const credit = `
UPDATE accounts
SET balance = balance + $2,
    updated_at = NOW()
WHERE id = $1`

	if _, err := dbtx.ExecContext(ctx, credit, params.DestinationAccountID, params.Amount); err != nil {
		return fmt.Errorf("credit destination account: %w", tagConflict(err))
	}

	const finish = `
UPDATE transactions
SET status = $2,
    failure_reason = NULL,
    failure_message = NULL,
    retry_count = $3,
    status_changed_at = $4,
    updated_at = NOW()
WHERE id = $1`

	tx := params.Transaction
	if _, err := dbtx.ExecContext(ctx, finish, tx.ID, tx.Status, tx.RetryCount, tx.StatusChangedAt); err != nil {
		return fmt.Errorf("finalize transaction: %w", tagConflict(err))
	}

	for _, h := range params.History {
		if err := insertHistory(ctx, dbtx, h); err != nil {
			return err
		}
	}

	if err := dbtx.Commit(); err != nil {
		return fmt.Errorf("commit complete transfer: %w", tagConflict(err))
	}

	return nil
}

func (r *TransactionRepository) ListPendingForProcessing(ctx context.Context, limit int) ([]domain.Transaction, error) {
	// High-risk transactions are excluded; they wait for manual review.
	query := `
SELECT ` + transactionColumns + `
FROM transactions
WHERE status = $1 AND (risk_tier IS NULL OR risk_tier IN ($2, $3))
ORDER BY created_at ASC
LIMIT $4`
	return r.list(ctx, query, domain.TransactionStatusPending, domain.RiskTierLow, domain.RiskTierMedium, limit)
}

func (r *TransactionRepository) ListPendingOlderThan(ctx context.Context, cutoff time.Time, limit int) ([]domain.Transaction, error) {
	query := `
SELECT ` + transactionColumns + `
FROM transactions
WHERE status = $1 AND status_changed_at < $2
ORDER BY status_changed_at ASC
LIMIT $3`
	return r.list(ctx, query, domain.TransactionStatusPending, cutoff, limit)
}

func (r *TransactionRepository) ListRetryable(ctx context.Context, maxRetries int, limit int) ([]domain.Transaction, error) {
	reasons := make([]string, 0, len(domain.TemporaryFailureReasons))
	for _, reason := range domain.TemporaryFailureReasons {
		reasons = append(reasons, string(reason))
	}

	query := `
SELECT ` + transactionColumns + `
FROM transactions
WHERE status = $1 AND retry_count < $2 AND failure_reason = ANY($3)
ORDER BY status_changed_at ASC
LIMIT $4`
	return r.list(ctx, query, domain.TransactionStatusFailed, maxRetries, pq.Array(reasons), limit)
}

func (r *TransactionRepository) ListAwaitingReview(ctx context.Context, limit int) ([]domain.Transaction, error) {
	query := `
SELECT ` + transactionColumns + `
FROM transactions
WHERE status = $1 AND risk_tier = $2
ORDER BY created_at ASC
LIMIT $3`
	return r.list(ctx, query, domain.TransactionStatusPending, domain.RiskTierHigh, limit)
}

func (r *TransactionRepository) SumCompletedForUserSince(ctx context.Context, userID string, since time.Time) (decimal.Decimal, error) {
	const query = `
SELECT COALESCE(SUM(amount), 0)
FROM transactions
WHERE user_id = $1 AND status = $2 AND created_at >= $3`

	var sum decimal.Decimal
	if err := r.db.QueryRowContext(ctx, query, userID, domain.TransactionStatusCompleted, since).Scan(&sum); err != nil {
		return decimal.Zero, fmt.Errorf("sum completed transactions: %w", err)
	}
	return sum, nil
}

func (r *TransactionRepository) CountByAccountSince(ctx context.Context, accountID string, statuses []domain.TransactionStatus, since time.Time) (int, error) {
	names := make([]string, 0, len(statuses))
	for _, status := range statuses {
		names = append(names, string(status))
	}

	const query = `
SELECT COUNT(1)
FROM transactions
WHERE source_account_id = $1 AND status = ANY($2) AND created_at >= $3`

	var count int
	if err := r.db.QueryRowContext(ctx, query, accountID, pq.Array(names), since).Scan(&count); err != nil {
		return 0, fmt.Errorf("count account transactions: %w", err)
	}
	return count, nil
}

func (r *TransactionRepository) CountForUserSince(ctx context.Context, userID string, since time.Time) (int, error) {
	const query = `SELECT COUNT(1) FROM transactions WHERE user_id = $1 AND created_at >= $2`

	var count int
	if err := r.db.QueryRowContext(ctx, query, userID, since).Scan(&count); err != nil {
		return 0, fmt.Errorf("count user transactions: %w", err)
	}
	return count, nil
}

func (r *TransactionRepository) list(ctx context.Context, query string, args ...any) ([]domain.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var transactions []domain.Transaction
	for rows.Next() {
		tx, err := scanTransactionRow(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, tx)
	}
	return transactions, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTransaction(row *sql.Row) (domain.Transaction, error) {
	tx, err := scanTransactionRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Transaction{}, domain.ErrRecordNotFound
		}
		return domain.Transaction{}, err
	}
	return tx, nil
}

func scanTransactionRow(row rowScanner) (domain.Transaction, error) {
	var (
		tx        domain.Transaction
		reason    sql.NullString
		riskScore sql.NullInt64
		riskTier  sql.NullString
	)

	err := row.Scan(
		&tx.ID,
		&tx.UserID,
		&tx.SourceAccountID,
		&tx.DestinationAccountNumber,
		&tx.Amount,
		&tx.Currency,
		&tx.Type,
		&tx.Category,
		&tx.Status,
		&tx.Purpose,
		&tx.IdempotencyKey,
		&reason,
		&tx.FailureMessage,
		&tx.RetryCount,
		&riskScore,
		&riskTier,
		&tx.StatusChangedAt,
		&tx.PaymentID,
		&tx.CreatedAt,
		&tx.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Transaction{}, err
		}
		return domain.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}

	if reason.Valid {
		value := domain.FailureReason(reason.String)
		tx.FailureReason = &value
	}
	if riskScore.Valid {
		value := int(riskScore.Int64)
		tx.RiskScore = &value
	}
	if riskTier.Valid {
		value := domain.RiskTier(riskTier.String)
		tx.RiskTier = &value
	}

	return tx, nil
}

func insertHistory(ctx context.Context, dbtx *sql.Tx, h domain.StatusHistory) error {
	const query = `
INSERT INTO transaction_status_history (
	transaction_id,
	old_status,
	new_status,
	changed_at,
	changed_by,
	reason
) VALUES ($1, $2, $3, $4, $5, $6)`

	if _, err := dbtx.ExecContext(ctx, query, h.TransactionID, h.OldStatus, h.NewStatus, h.ChangedAt, h.ChangedBy, h.Reason); err != nil {
		return fmt.Errorf("append status history: %w", err)
	}
	return nil
}

func nullableInt(value *int) any {
	if value == nil {
		return nil
	}
	return *value
}

func nullableTier(value *domain.RiskTier) any {
	if value == nil {
		return nil
	}
	return string(*value)
}

func nullableReason(value *domain.FailureReason) any {
	if value == nil {
		return nil
	}
	return string(*value)
}
