package memory

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vaultpay/wallet-core/internal/adapter/repository/repo_interfaces"
	"github.com/vaultpay/wallet-core/internal/domain"
)

type TransactionRepository struct {
	store *Store
}

func NewTransactionRepository(store *Store) *TransactionRepository {
	return &TransactionRepository{store: store}
}

func (r *TransactionRepository) Create(_ context.Context, tx domain.Transaction) (domain.Transaction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if tx.IdempotencyKey != nil {
		for _, existing := range r.store.transactions {
			if existing.SourceAccountID == tx.SourceAccountID &&
				existing.IdempotencyKey != nil && *existing.IdempotencyKey == *tx.IdempotencyKey {
				return domain.Transaction{}, domain.ErrDuplicateRequest
			}
		}
	}

	tx.ID = newID()
	now := time.Now()
	tx.CreatedAt = now
	tx.UpdatedAt = now
	r.store.transactions[tx.ID] = tx
	return tx, nil
}

func (r *TransactionRepository) GetByID(_ context.Context, id string) (domain.Transaction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	tx, ok := r.store.transactions[id]
	if !ok {
		return domain.Transaction{}, domain.ErrRecordNotFound
	}
	return tx, nil
}

func (r *TransactionRepository) GetByIdempotencyKey(_ context.Context, sourceAccountID, key string) (domain.Transaction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, tx := range r.store.transactions {
		if tx.SourceAccountID == sourceAccountID && tx.IdempotencyKey != nil && *tx.IdempotencyKey == key {
			return tx, nil
		}
	}
	return domain.Transaction{}, domain.ErrRecordNotFound
}

func (r *TransactionRepository) ListByAccount(_ context.Context, accountID string, limit int) ([]domain.Transaction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.collect(limit, func(tx domain.Transaction) bool {
		return tx.SourceAccountID == accountID
	}), nil
}

func (r *TransactionRepository) ListHistory(_ context.Context, transactionID string) ([]domain.StatusHistory, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	history := make([]domain.StatusHistory, len(r.store.history[transactionID]))
	copy(history, r.store.history[transactionID])
	return history, nil
}

func (r *TransactionRepository) UpdateStatus(_ context.Context, tx domain.Transaction, history *domain.StatusHistory) (domain.Transaction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.transactions[tx.ID]; !ok {
		return domain.Transaction{}, domain.ErrRecordNotFound
	}

	tx.UpdatedAt = time.Now()
	r.store.transactions[tx.ID] = tx
	if history != nil {
		r.appendHistory(*history)
	}
	return tx, nil
}

func (r *TransactionRepository) CompleteTransfer(_ context.Context, params repo_interfaces.CompleteTransferParams) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	source, ok := r.store.accounts[params.SourceAccountID]
	if !ok {
		return domain.ErrRecordNotFound
	}
	destination, ok := r.store.accounts[params.DestinationAccountID]
	if !ok {
		return domain.ErrDestinationNotFound
	}

	if source.Balance.LessThan(params.Amount) {
		return domain.ErrInsufficientBalance
	}

	now := time.Now()
	source.Balance = source.Balance.Sub(params.Amount)
	if sameCalendarDay(source.DailySpentResetAt, now) {
		source.DailySpent = source.DailySpent.Add(params.Amount)
	} else {
		source.DailySpent = params.Amount
	}
	source.DailySpentResetAt = now
	source.UpdatedAt = now

	destination.Balance = destination.Balance.Add(params.Amount)
	destination.UpdatedAt = now

	r.store.accounts[source.ID] = source
	r.store.accounts[destination.ID] = destination

	tx := params.Transaction
	tx.FailureReason = nil
	tx.FailureMessage = nil
	tx.UpdatedAt = now
	r.store.transactions[tx.ID] = tx

	for _, h := range params.History {
		r.appendHistory(h)
	}

	return nil
}

func (r *TransactionRepository) ListPendingForProcessing(_ context.Context, limit int) ([]domain.Transaction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.collect(limit, func(tx domain.Transaction) bool {
		if tx.Status != domain.TransactionStatusPending {
			return false
		}
		return tx.RiskTier == nil || *tx.RiskTier != domain.RiskTierHigh
	}), nil
}

func (r *TransactionRepository) ListPendingOlderThan(_ context.Context, cutoff time.Time, limit int) ([]domain.Transaction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.collect(limit, func(tx domain.Transaction) bool {
		return tx.Status == domain.TransactionStatusPending && tx.StatusChangedAt.Before(cutoff)
	}), nil
}

func (r *TransactionRepository) ListRetryable(_ context.Context, maxRetries int, limit int) ([]domain.Transaction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.collect(limit, func(tx domain.Transaction) bool {
		if tx.Status != domain.TransactionStatusFailed || tx.RetryCount >= maxRetries || tx.FailureReason == nil {
			return false
		}
		for _, reason := range domain.TemporaryFailureReasons {
			if *tx.FailureReason == reason {
				return true
			}
		}
		return false
	}), nil
}

func (r *TransactionRepository) ListAwaitingReview(_ context.Context, limit int) ([]domain.Transaction, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.collect(limit, func(tx domain.Transaction) bool {
		return tx.Status == domain.TransactionStatusPending && tx.RiskTier != nil && *tx.RiskTier == domain.RiskTierHigh
	}), nil
}

func (r *TransactionRepository) SumCompletedForUserSince(_ context.Context, userID string, since time.Time) (decimal.Decimal, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	sum := decimal.Zero
	for _, tx := range r.store.transactions {
		if tx.UserID == userID && tx.Status == domain.TransactionStatusCompleted && !tx.CreatedAt.Before(since) {
			sum = sum.Add(tx.Amount)
		}
	}
	return sum, nil
}

func (r *TransactionRepository) CountByAccountSince(_ context.Context, accountID string, statuses []domain.TransactionStatus, since time.Time) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	count := 0
	for _, tx := range r.store.transactions {
		if tx.SourceAccountID != accountID || tx.CreatedAt.Before(since) {
			continue
		}
		for _, status := range statuses {
			if tx.Status == status {
				count++
				break
			}
		}
	}
	return count, nil
}

func (r *TransactionRepository) CountForUserSince(_ context.Context, userID string, since time.Time) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	count := 0
	for _, tx := range r.store.transactions {
		if tx.UserID == userID && !tx.CreatedAt.Before(since) {
			count++
		}
	}
	return count, nil
}

// collect assumes the lock is held.
func (r *TransactionRepository) collect(limit int, match func(domain.Transaction) bool) []domain.Transaction {
	var out []domain.Transaction
	for _, tx := range r.store.transactions {
		if match(tx) {
			out = append(out, tx)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// appendHistory assumes the lock is held.
func (r *TransactionRepository) appendHistory(h domain.StatusHistory) {
	h.ID = newID()
	r.store.history[h.TransactionID] = append(r.store.history[h.TransactionID], h)
}

// sameCalendarDay compares local calendar dates, matching the
// CURRENT_DATE semantics of the SQL daily-spent reset.
func sameCalendarDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
