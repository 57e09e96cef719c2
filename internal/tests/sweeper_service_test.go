package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/vaultpay/wallet-core/internal/domain"
)

// seedPendingTransfer plants a PENDING transaction as the engine would have
// left one awaiting processing.
func seedPendingTransfer(t *testing.T, h *harness, source domain.Account, destinationNumber, amount string, statusChangedAt time.Time) domain.Transaction {
	t.Helper()

	tx, err := h.transactions.Create(context.Background(), domain.Transaction{
		UserID:                   source.UserID,
		SourceAccountID:          source.ID,
		DestinationAccountNumber: destinationNumber,
		Amount:                   mustDecimal(t, amount),
		Currency:                 source.Currency,
		Type:                     domain.TransactionTypeDebit,
		Category:                 domain.CategoryTransfer,
		Status:                   domain.TransactionStatusPending,
		StatusChangedAt:          statusChangedAt,
	})
	if err != nil {
		t.Fatalf("seed pending transfer: %v", err)
	}
	return tx
}

func TestSweepPendingAdvancesStalledTransaction(t *testing.T) {
	h := newHarness(t)
	source := h.seedFundedAccount(t, "0123456789", "1000")
	destination := h.seedFundedAccount(t, "9876543210", "0")

	pending := seedPendingTransfer(t, h, source, destination.AccountNumber, "100", time.Now())

	processed, err := h.sweepers.SweepPending(context.Background())
	if err != nil {
		t.Fatalf("sweep pending: %v", err)
	}
	if processed != 1 {
		t.Fatalf("expected 1 processed, got %d", processed)
	}

	advanced := h.transaction(t, pending.ID)
	if advanced.Status != domain.TransactionStatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", advanced.Status)
	}

	assertBalance(t, h.accountBalance(t, source.ID), "900")
	assertBalance(t, h.accountBalance(t, destination.ID), "100")
}

func TestSweepPendingSkipsReviewQueue(t *testing.T) {
	h := newHarness(t)
	source := h.seedFundedAccount(t, "0123456789", "1000")
	destination := h.seedFundedAccount(t, "9876543210", "0")

	tier := domain.RiskTierHigh
	score := 75
	parked, err := h.transactions.Create(context.Background(), domain.Transaction{
		UserID:                   source.UserID,
		SourceAccountID:          source.ID,
		DestinationAccountNumber: destination.AccountNumber,
		Amount:                   mustDecimal(t, "100"),
		Currency:                 source.Currency,
		Type:                     domain.TransactionTypeDebit,
		Category:                 domain.CategoryTransfer,
		Status:                   domain.TransactionStatusPending,
		RiskScore:                &score,
		RiskTier:                 &tier,
		StatusChangedAt:          time.Now(),
	})
	if err != nil {
		t.Fatalf("seed parked transfer: %v", err)
	}

	processed, err := h.sweepers.SweepPending(context.Background())
	if err != nil {
		t.Fatalf("sweep pending: %v", err)
	}
	if processed != 0 {
		t.Fatalf("expected review-queue transaction to be skipped, processed %d", processed)
	}

	untouched := h.transaction(t, parked.ID)
	if untouched.Status != domain.TransactionStatusPending {
		t.Fatalf("expected PENDING, got %s", untouched.Status)
	}
	assertBalance(t, h.accountBalance(t, source.ID), "1000")
}

func TestSweepPendingFailsTransferWithoutDestination(t *testing.T) {
	h := newHarness(t)
	source := h.seedFundedAccount(t, "0123456789", "1000")

	pending := seedPendingTransfer(t, h, source, "1111111111", "100", time.Now())

	if _, err := h.sweepers.SweepPending(context.Background()); err != nil {
		t.Fatalf("sweep pending: %v", err)
	}

	failed := h.transaction(t, pending.ID)
	if failed.Status != domain.TransactionStatusFailed {
		t.Fatalf("expected FAILED, got %s", failed.Status)
	}
	if failed.FailureReason == nil || *failed.FailureReason != domain.FailureInvalidDestination {
		t.Fatalf("expected INVALID_DESTINATION, got %v", failed.FailureReason)
	}
	assertBalance(t, h.accountBalance(t, source.ID), "1000")
}

func TestSweepExpiredMovesAgedPendingToExpired(t *testing.T) {
	h := newHarness(t)
	source := h.seedFundedAccount(t, "0123456789", "1000")
	destination := h.seedFundedAccount(t, "9876543210", "0")

	aged := seedPendingTransfer(t, h, source, destination.AccountNumber, "100", time.Now().Add(-48*time.Hour))
	fresh := seedPendingTransfer(t, h, source, destination.AccountNumber, "200", time.Now())

	processed, err := h.sweepers.SweepExpired(context.Background())
	if err != nil {
		t.Fatalf("sweep expired: %v", err)
	}
	if processed != 1 {
		t.Fatalf("expected 1 expired, got %d", processed)
	}

	expired := h.transaction(t, aged.ID)
	if expired.Status != domain.TransactionStatusExpired {
		t.Fatalf("expected EXPIRED, got %s", expired.Status)
	}
	if expired.FailureReason == nil || *expired.FailureReason != domain.FailureTransactionExpired {
		t.Fatalf("expected TRANSACTION_EXPIRED, got %v", expired.FailureReason)
	}

	untouched := h.transaction(t, fresh.ID)
	if untouched.Status != domain.TransactionStatusPending {
		t.Fatalf("expected fresh transaction to stay PENDING, got %s", untouched.Status)
	}

	// Expiry never moves money.
	assertBalance(t, h.accountBalance(t, source.ID), "1000")
	assertBalance(t, h.accountBalance(t, destination.ID), "0")
}

func TestSweepRetryableReplaysTemporaryFailure(t *testing.T) {
	h := newHarness(t)
	source := h.seedFundedAccount(t, "0123456789", "1000")
	destination := h.seedFundedAccount(t, "9876543210", "0")

	failed := seedFailedTransfer(t, h, source, destination.AccountNumber, "100", domain.FailureNetworkTimeout, 0)

	processed, err := h.sweepers.SweepRetryable(context.Background())
	if err != nil {
		t.Fatalf("sweep retryable: %v", err)
	}
	if processed != 1 {
		t.Fatalf("expected 1 replayed, got %d", processed)
	}

	replayed := h.transaction(t, failed.ID)
	if replayed.Status != domain.TransactionStatusCompleted {
		t.Fatalf("expected COMPLETED, got %s", replayed.Status)
	}
	if replayed.RetryCount != 1 {
		t.Fatalf("expected retry count 1, got %d", replayed.RetryCount)
	}
	if replayed.FailureReason != nil {
		t.Fatalf("expected failure reason cleared, got %v", *replayed.FailureReason)
	}

	assertBalance(t, h.accountBalance(t, source.ID), "900")
	assertBalance(t, h.accountBalance(t, destination.ID), "100")
}

func TestSweepRetryableSkipsPermanentFailure(t *testing.T) {
	h := newHarness(t)
	source := h.seedFundedAccount(t, "0123456789", "1000")
	destination := h.seedFundedAccount(t, "9876543210", "0")

	failed := seedFailedTransfer(t, h, source, destination.AccountNumber, "100", domain.FailureRiskBlocked, 0)

	processed, err := h.sweepers.SweepRetryable(context.Background())
	if err != nil {
		t.Fatalf("sweep retryable: %v", err)
	}
	if processed != 0 {
		t.Fatalf("expected no replays, got %d", processed)
	}

	untouched := h.transaction(t, failed.ID)
	if untouched.Status != domain.TransactionStatusFailed || untouched.RetryCount != 0 {
		t.Fatalf("expected untouched FAILED transaction, got %+v", untouched)
	}
}

func TestSweepRetryableRespectsRetryBudget(t *testing.T) {
	h := newHarness(t)
	source := h.seedFundedAccount(t, "0123456789", "1000")
	destination := h.seedFundedAccount(t, "9876543210", "0")

	failed := seedFailedTransfer(t, h, source, destination.AccountNumber, "100", domain.FailureNetworkTimeout, testMaxRetries)

	processed, err := h.sweepers.SweepRetryable(context.Background())
	if err != nil {
		t.Fatalf("sweep retryable: %v", err)
	}
	if processed != 0 {
		t.Fatalf("expected exhausted transaction to be skipped, got %d", processed)
	}

	untouched := h.transaction(t, failed.ID)
	if untouched.RetryCount != testMaxRetries {
		t.Fatalf("expected retry count %d, got %d", testMaxRetries, untouched.RetryCount)
	}
	assertBalance(t, h.accountBalance(t, source.ID), "1000")
}

func TestSweepRetryableFailsAgainAndStaysFailed(t *testing.T) {
	h := newHarness(t)
	source := h.seedFundedAccount(t, "0123456789", "50")
	destination := h.seedFundedAccount(t, "9876543210", "0")

	failed := seedFailedTransfer(t, h, source, destination.AccountNumber, "100", domain.FailureNetworkTimeout, 0)

	if _, err := h.sweepers.SweepRetryable(context.Background()); err != nil {
		t.Fatalf("sweep retryable: %v", err)
	}

	replayed := h.transaction(t, failed.ID)
	if replayed.Status != domain.TransactionStatusFailed {
		t.Fatalf("expected FAILED after a replay without funds, got %s", replayed.Status)
	}
	if replayed.FailureReason == nil || *replayed.FailureReason != domain.FailureInsufficientFunds {
		t.Fatalf("expected INSUFFICIENT_FUNDS, got %v", replayed.FailureReason)
	}
	if replayed.RetryCount != 1 {
		t.Fatalf("expected retry count 1, got %d", replayed.RetryCount)
	}
	assertBalance(t, h.accountBalance(t, source.ID), "50")
}
