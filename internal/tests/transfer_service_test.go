package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vaultpay/wallet-core/internal/adapter/http/models"
	"github.com/vaultpay/wallet-core/internal/domain"
)

func TestCreateTransferValidationError(t *testing.T) {
	h := newHarness(t)

	_, err := h.transfers.CreateTransfer(context.Background(), models.CreateTransferRequest{})
	if err == nil {
		t.Fatal("expected validation error for empty transfer request")
	}
}

func TestCreateTransferMovesFundsExactlyOnce(t *testing.T) {
	h := newHarness(t)
	source := h.seedFundedAccount(t, "0123456789", "1000")
	destination := h.seedFundedAccount(t, "9876543210", "0")

	req := models.CreateTransferRequest{
		SourceAccountID:          source.ID,
		DestinationAccountNumber: destination.AccountNumber,
		Amount:                   decimal.NewFromInt(100),
		Purpose:                  "rent",
		IdempotencyKey:           "k1",
		RequestingUserID:         source.UserID,
	}

	resp, err := h.transfers.CreateTransfer(context.Background(), req)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !resp.Success || resp.Data == nil {
		t.Fatalf("expected successful response, got %+v", resp)
	}
	if resp.Data.Status != string(domain.TransactionStatusCompleted) {
		t.Fatalf("expected COMPLETED, got %s", resp.Data.Status)
	}

	assertBalance(t, h.accountBalance(t, source.ID), "900")
	assertBalance(t, h.accountBalance(t, destination.ID), "100")

	// Resubmitting the same request must return the same transaction and
	// move no money.
	replay, err := h.transfers.CreateTransfer(context.Background(), req)
	if err != nil {
		t.Fatalf("expected nil error on replay, got %v", err)
	}
	if replay.Data == nil || replay.Data.ID != resp.Data.ID {
		t.Fatalf("expected replay to return transaction %s, got %+v", resp.Data.ID, replay.Data)
	}

	assertBalance(t, h.accountBalance(t, source.ID), "900")
	assertBalance(t, h.accountBalance(t, destination.ID), "100")
}

func TestCreateTransferRecordsStatusHistory(t *testing.T) {
	h := newHarness(t)
	source := h.seedFundedAccount(t, "0123456789", "1000")
	destination := h.seedFundedAccount(t, "9876543210", "0")

	resp, err := h.transfers.CreateTransfer(context.Background(), models.CreateTransferRequest{
		SourceAccountID:          source.ID,
		DestinationAccountNumber: destination.AccountNumber,
		Amount:                   decimal.NewFromInt(50),
		RequestingUserID:         source.UserID,
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	history, err := h.transactions.ListHistory(context.Background(), resp.Data.ID)
	if err != nil {
		t.Fatalf("list history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected 1 history row, got %d", len(history))
	}
	if history[0].OldStatus != domain.TransactionStatusSending || history[0].NewStatus != domain.TransactionStatusCompleted {
		t.Fatalf("unexpected history row: %+v", history[0])
	}
}

func TestCreateTransferInsufficientBalance(t *testing.T) {
	h := newHarness(t)
	source := h.seedFundedAccount(t, "0123456789", "50")
	destination := h.seedFundedAccount(t, "9876543210", "0")

	resp, err := h.transfers.CreateTransfer(context.Background(), models.CreateTransferRequest{
		SourceAccountID:          source.ID,
		DestinationAccountNumber: destination.AccountNumber,
		Amount:                   decimal.NewFromInt(100),
		RequestingUserID:         source.UserID,
	})
	if err == nil {
		t.Fatal("expected insufficient balance error")
	}
	if resp.Message != "Insufficient balance" {
		t.Fatalf("expected Insufficient balance, got %q", resp.Message)
	}

	assertBalance(t, h.accountBalance(t, source.ID), "50")
	assertBalance(t, h.accountBalance(t, destination.ID), "0")

	transactions, err := h.transactions.ListByAccount(context.Background(), source.ID, 10)
	if err != nil {
		t.Fatalf("list transactions: %v", err)
	}
	if len(transactions) != 0 {
		t.Fatalf("expected no transaction persisted for a rejected transfer, got %d", len(transactions))
	}
}

func TestCreateTransferNoActiveCard(t *testing.T) {
	h := newHarness(t)
	destination := h.seedFundedAccount(t, "9876543210", "0")

	user := h.store.SeedUser(domain.User{FirstName: "Ngozi", LastName: "Eze", PhoneNumber: "0800000001"})
	source := h.store.SeedAccount(domain.Account{
		UserID:        user.ID,
		AccountNumber: "0123456789",
		Currency:      "NGN",
		Balance:       decimal.NewFromInt(1000),
		Status:        domain.AccountStatusActive,
		Type:          domain.AccountTypeRegular,
	})

	_, err := h.transfers.CreateTransfer(context.Background(), models.CreateTransferRequest{
		SourceAccountID:          source.ID,
		DestinationAccountNumber: destination.AccountNumber,
		Amount:                   decimal.NewFromInt(100),
		RequestingUserID:         user.ID,
	})
	if err == nil || !errors.Is(err, domain.ErrNoActiveCard) {
		t.Fatalf("expected ErrNoActiveCard, got %v", err)
	}

	assertBalance(t, h.accountBalance(t, source.ID), "1000")
}

func TestCreateTransferFrozenAccount(t *testing.T) {
	h := newHarness(t)
	source := h.seedFundedAccount(t, "0123456789", "1000")
	destination := h.seedFundedAccount(t, "9876543210", "0")

	frozen := source
	frozen.Status = domain.AccountStatusFrozen
	h.store.SeedAccount(frozen)

	_, err := h.transfers.CreateTransfer(context.Background(), models.CreateTransferRequest{
		SourceAccountID:          source.ID,
		DestinationAccountNumber: destination.AccountNumber,
		Amount:                   decimal.NewFromInt(100),
		RequestingUserID:         source.UserID,
	})
	if err == nil || !errors.Is(err, domain.ErrAccountFrozen) {
		t.Fatalf("expected ErrAccountFrozen, got %v", err)
	}
}

func TestCreateTransferNotAccountOwner(t *testing.T) {
	h := newHarness(t)
	source := h.seedFundedAccount(t, "0123456789", "1000")
	destination := h.seedFundedAccount(t, "9876543210", "0")

	_, err := h.transfers.CreateTransfer(context.Background(), models.CreateTransferRequest{
		SourceAccountID:          source.ID,
		DestinationAccountNumber: destination.AccountNumber,
		Amount:                   decimal.NewFromInt(100),
		RequestingUserID:         destination.UserID,
	})
	if err == nil || !errors.Is(err, domain.ErrNotAccountOwner) {
		t.Fatalf("expected ErrNotAccountOwner, got %v", err)
	}
}

func TestCreateTransferDestinationNotFound(t *testing.T) {
	h := newHarness(t)
	source := h.seedFundedAccount(t, "0123456789", "1000")

	_, err := h.transfers.CreateTransfer(context.Background(), models.CreateTransferRequest{
		SourceAccountID:          source.ID,
		DestinationAccountNumber: "1111111111",
		Amount:                   decimal.NewFromInt(100),
		RequestingUserID:         source.UserID,
	})
	if err == nil || !errors.Is(err, domain.ErrDestinationNotFound) {
		t.Fatalf("expected ErrDestinationNotFound, got %v", err)
	}
}

func TestCreateTransferCurrencyMismatch(t *testing.T) {
	h := newHarness(t)
	source := h.seedFundedAccount(t, "0123456789", "1000")

	user := h.store.SeedUser(domain.User{FirstName: "Tayo", LastName: "Ade", PhoneNumber: "0800000002"})
	h.store.SeedAccount(domain.Account{
		UserID:        user.ID,
		AccountNumber: "9876543210",
		Currency:      "USD",
		Balance:       decimal.Zero,
		Status:        domain.AccountStatusActive,
		Type:          domain.AccountTypeRegular,
	})

	_, err := h.transfers.CreateTransfer(context.Background(), models.CreateTransferRequest{
		SourceAccountID:          source.ID,
		DestinationAccountNumber: "9876543210",
		Amount:                   decimal.NewFromInt(100),
		RequestingUserID:         source.UserID,
	})
	if err == nil || !errors.Is(err, domain.ErrCurrencyMismatch) {
		t.Fatalf("expected ErrCurrencyMismatch, got %v", err)
	}
}

func TestCreateTransferRejectsSelfTransfer(t *testing.T) {
	h := newHarness(t)
	source := h.seedFundedAccount(t, "0123456789", "1000")

	_, err := h.transfers.CreateTransfer(context.Background(), models.CreateTransferRequest{
		SourceAccountID:          source.ID,
		DestinationAccountNumber: source.AccountNumber,
		Amount:                   decimal.NewFromInt(100),
		RequestingUserID:         source.UserID,
	})
	if err == nil {
		t.Fatal("expected error for transfer to the same account")
	}

	assertBalance(t, h.accountBalance(t, source.ID), "1000")
}

func TestHighRiskTransferParksForReview(t *testing.T) {
	h := newHarnessWithLimits(t, paranoidLimits())
	source := h.seedFundedAccount(t, "0123456789", "1000")
	destination := h.seedFundedAccount(t, "9876543210", "0")

	resp, err := h.transfers.CreateTransfer(context.Background(), models.CreateTransferRequest{
		SourceAccountID:          source.ID,
		DestinationAccountNumber: destination.AccountNumber,
		Amount:                   decimal.NewFromInt(500),
		RequestingUserID:         source.UserID,
		DeviceID:                 "device-1",
		IPAddress:                "203.0.113.7",
		UserAgent:                "wallet-app/1.0",
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if resp.Data == nil || resp.Data.Status != string(domain.TransactionStatusPending) {
		t.Fatalf("expected PENDING transaction awaiting review, got %+v", resp.Data)
	}
	if resp.Data.RiskTier != string(domain.RiskTierHigh) {
		t.Fatalf("expected HIGH risk tier, got %q", resp.Data.RiskTier)
	}

	// No money moves until review.
	assertBalance(t, h.accountBalance(t, source.ID), "1000")
	assertBalance(t, h.accountBalance(t, destination.ID), "0")

	queue, err := h.transfers.ListReviewQueue(context.Background(), 10)
	if err != nil {
		t.Fatalf("list review queue: %v", err)
	}
	if queue.Data == nil || len(queue.Data.Transactions) != 1 {
		t.Fatalf("expected 1 transaction in review queue, got %+v", queue.Data)
	}
}

func TestReplayOfInFlightLowRiskTransferNotReportedForReview(t *testing.T) {
	h := newHarness(t)
	source := h.seedFundedAccount(t, "0123456789", "1000")
	destination := h.seedFundedAccount(t, "9876543210", "0")

	// A low-tier transfer sitting in PENDING is waiting on the sweeper,
	// not on a reviewer.
	key := "k-inflight"
	tier := domain.RiskTierLow
	if _, err := h.transactions.Create(context.Background(), domain.Transaction{
		UserID:                   source.UserID,
		SourceAccountID:          source.ID,
		DestinationAccountNumber: destination.AccountNumber,
		Amount:                   decimal.NewFromInt(100),
		Currency:                 source.Currency,
		Type:                     domain.TransactionTypeDebit,
		Category:                 domain.CategoryTransfer,
		Status:                   domain.TransactionStatusPending,
		StatusChangedAt:          time.Now(),
		RiskTier:                 &tier,
		IdempotencyKey:           &key,
	}); err != nil {
		t.Fatalf("seed in-flight transfer: %v", err)
	}

	replay, err := h.transfers.CreateTransfer(context.Background(), models.CreateTransferRequest{
		SourceAccountID:          source.ID,
		DestinationAccountNumber: destination.AccountNumber,
		Amount:                   decimal.NewFromInt(100),
		IdempotencyKey:           key,
		RequestingUserID:         source.UserID,
	})
	if err != nil {
		t.Fatalf("expected nil error on replay, got %v", err)
	}
	if replay.Message == "transfer accepted for review" {
		t.Fatalf("low-tier replay misreported as awaiting review: %+v", replay)
	}
	if replay.Data == nil || replay.Data.Status != string(domain.TransactionStatusPending) {
		t.Fatalf("expected the in-flight PENDING transaction, got %+v", replay.Data)
	}
}

func TestReplayOfParkedHighRiskTransferStillReportedForReview(t *testing.T) {
	h := newHarnessWithLimits(t, paranoidLimits())
	source := h.seedFundedAccount(t, "0123456789", "1000")
	destination := h.seedFundedAccount(t, "9876543210", "0")

	req := models.CreateTransferRequest{
		SourceAccountID:          source.ID,
		DestinationAccountNumber: destination.AccountNumber,
		Amount:                   decimal.NewFromInt(500),
		IdempotencyKey:           "k-review",
		RequestingUserID:         source.UserID,
		DeviceID:                 "device-1",
		IPAddress:                "203.0.113.7",
		UserAgent:                "wallet-app/1.0",
	}
	if _, err := h.transfers.CreateTransfer(context.Background(), req); err != nil {
		t.Fatalf("park transfer for review: %v", err)
	}

	replay, err := h.transfers.CreateTransfer(context.Background(), req)
	if err != nil {
		t.Fatalf("expected nil error on replay, got %v", err)
	}
	if replay.Message != "transfer accepted for review" {
		t.Fatalf("expected replay to report the review hold, got %q", replay.Message)
	}
}

func TestReviewApprovalExecutesTransfer(t *testing.T) {
	h := newHarnessWithLimits(t, paranoidLimits())
	source := h.seedFundedAccount(t, "0123456789", "1000")
	destination := h.seedFundedAccount(t, "9876543210", "0")

	parked, err := h.transfers.CreateTransfer(context.Background(), models.CreateTransferRequest{
		SourceAccountID:          source.ID,
		DestinationAccountNumber: destination.AccountNumber,
		Amount:                   decimal.NewFromInt(500),
		RequestingUserID:         source.UserID,
		DeviceID:                 "device-1",
	})
	if err != nil {
		t.Fatalf("park transfer: %v", err)
	}

	resp, err := h.transfers.ReviewTransaction(context.Background(), parked.Data.ID, models.ReviewTransactionRequest{
		Approve:    true,
		ReviewerID: "reviewer-1",
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if resp.Data.Status != string(domain.TransactionStatusCompleted) {
		t.Fatalf("expected COMPLETED after approval, got %s", resp.Data.Status)
	}

	assertBalance(t, h.accountBalance(t, source.ID), "500")
	assertBalance(t, h.accountBalance(t, destination.ID), "500")
}

func TestReviewRejectionFailsTransfer(t *testing.T) {
	h := newHarnessWithLimits(t, paranoidLimits())
	source := h.seedFundedAccount(t, "0123456789", "1000")
	destination := h.seedFundedAccount(t, "9876543210", "0")

	parked, err := h.transfers.CreateTransfer(context.Background(), models.CreateTransferRequest{
		SourceAccountID:          source.ID,
		DestinationAccountNumber: destination.AccountNumber,
		Amount:                   decimal.NewFromInt(500),
		RequestingUserID:         source.UserID,
		DeviceID:                 "device-1",
	})
	if err != nil {
		t.Fatalf("park transfer: %v", err)
	}

	resp, err := h.transfers.ReviewTransaction(context.Background(), parked.Data.ID, models.ReviewTransactionRequest{
		Approve:    false,
		Reason:     "does not match customer profile",
		ReviewerID: "reviewer-1",
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if resp.Data.Status != string(domain.TransactionStatusFailed) {
		t.Fatalf("expected FAILED after rejection, got %s", resp.Data.Status)
	}
	if resp.Data.FailureReason != string(domain.FailureRiskBlocked) {
		t.Fatalf("expected RISK_BLOCKED, got %q", resp.Data.FailureReason)
	}

	assertBalance(t, h.accountBalance(t, source.ID), "1000")
	assertBalance(t, h.accountBalance(t, destination.ID), "0")
}

func TestCreatePayrollCreditSkipsRiskGate(t *testing.T) {
	h := newHarnessWithLimits(t, paranoidLimits())
	source := h.seedFundedAccount(t, "0123456789", "100000")
	destination := h.seedFundedAccount(t, "9876543210", "0")

	resp, err := h.transfers.CreatePayrollCredit(context.Background(), models.PayrollCreditRequest{
		SourceAccountID:          source.ID,
		DestinationAccountNumber: destination.AccountNumber,
		Amount:                   decimal.NewFromInt(5000),
		Purpose:                  "august salary",
		IdempotencyKey:           "payroll-2026-08",
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if resp.Data.Status != string(domain.TransactionStatusCompleted) {
		t.Fatalf("expected COMPLETED payroll credit, got %s", resp.Data.Status)
	}

	assertBalance(t, h.accountBalance(t, source.ID), "95000")
	assertBalance(t, h.accountBalance(t, destination.ID), "5000")
}

func TestManualRetryReplaysTemporaryFailure(t *testing.T) {
	h := newHarness(t)
	source := h.seedFundedAccount(t, "0123456789", "1000")
	destination := h.seedFundedAccount(t, "9876543210", "0")

	failed := seedFailedTransfer(t, h, source, destination.AccountNumber, "100", domain.FailureNetworkTimeout, 0)

	resp, err := h.transfers.RetryTransaction(context.Background(), failed.ID, source.UserID)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if resp.Data.Status != string(domain.TransactionStatusCompleted) {
		t.Fatalf("expected COMPLETED after retry, got %s", resp.Data.Status)
	}
	if resp.Data.RetryCount != 1 {
		t.Fatalf("expected retry count 1, got %d", resp.Data.RetryCount)
	}

	assertBalance(t, h.accountBalance(t, source.ID), "900")
	assertBalance(t, h.accountBalance(t, destination.ID), "100")
}

func TestManualRetryRejectsPermanentFailure(t *testing.T) {
	h := newHarness(t)
	source := h.seedFundedAccount(t, "0123456789", "1000")
	destination := h.seedFundedAccount(t, "9876543210", "0")

	failed := seedFailedTransfer(t, h, source, destination.AccountNumber, "100", domain.FailureInsufficientFunds, 0)

	_, err := h.transfers.RetryTransaction(context.Background(), failed.ID, source.UserID)
	if err == nil {
		t.Fatal("expected error retrying a permanently failed transaction")
	}

	assertBalance(t, h.accountBalance(t, source.ID), "1000")
}

// seedFailedTransfer plants a FAILED transaction as the retry paths would
// have left it.
func seedFailedTransfer(t *testing.T, h *harness, source domain.Account, destinationNumber, amount string, reason domain.FailureReason, retryCount int) domain.Transaction {
	t.Helper()

	message := "planted failure"
	tx, err := h.transactions.Create(context.Background(), domain.Transaction{
		UserID:                   source.UserID,
		SourceAccountID:          source.ID,
		DestinationAccountNumber: destinationNumber,
		Amount:                   mustDecimal(t, amount),
		Currency:                 source.Currency,
		Type:                     domain.TransactionTypeDebit,
		Category:                 domain.CategoryTransfer,
		Status:                   domain.TransactionStatusFailed,
		FailureReason:            &reason,
		FailureMessage:           &message,
		RetryCount:               retryCount,
		StatusChangedAt:          time.Now(),
	})
	if err != nil {
		t.Fatalf("seed failed transfer: %v", err)
	}
	return tx
}
