package domain_test

import (
	"errors"
	"testing"
	"time"

	"github.com/vaultpay/wallet-core/internal/domain"
)

var allStatuses = []domain.TransactionStatus{
	domain.TransactionStatusCreated,
	domain.TransactionStatusPending,
	domain.TransactionStatusSending,
	domain.TransactionStatusCompleted,
	domain.TransactionStatusFailed,
	domain.TransactionStatusExpired,
}

var validTransitions = map[domain.TransactionStatus][]domain.TransactionStatus{
	domain.TransactionStatusCreated: {domain.TransactionStatusPending, domain.TransactionStatusFailed},
	domain.TransactionStatusPending: {domain.TransactionStatusSending, domain.TransactionStatusFailed, domain.TransactionStatusExpired},
	domain.TransactionStatusSending: {domain.TransactionStatusCompleted, domain.TransactionStatusFailed},
}

func isValidPair(from, to domain.TransactionStatus) bool {
	for _, next := range validTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func TestTransitionTableValidPairs(t *testing.T) {
	now := time.Now()

	for from, targets := range validTransitions {
		for _, to := range targets {
			tx := domain.Transaction{ID: "tx-1", Status: from}
			history, err := tx.TransitionTo(to, now, "tester", "unit test")
			if err != nil {
				t.Fatalf("transition %s -> %s: unexpected error %v", from, to, err)
			}
			if tx.Status != to {
				t.Fatalf("transition %s -> %s: status is %s", from, to, tx.Status)
			}
			if !tx.StatusChangedAt.Equal(now) {
				t.Fatalf("transition %s -> %s: status-changed timestamp not updated", from, to)
			}
			if history == nil {
				t.Fatalf("transition %s -> %s: expected history record for persisted transaction", from, to)
			}
			if history.OldStatus != from || history.NewStatus != to {
				t.Fatalf("transition %s -> %s: history records %s -> %s", from, to, history.OldStatus, history.NewStatus)
			}
			if history.ChangedBy == nil || *history.ChangedBy != "tester" {
				t.Fatalf("transition %s -> %s: missing actor on history record", from, to)
			}
		}
	}
}

func TestTransitionTableInvalidPairs(t *testing.T) {
	now := time.Now()

	for _, from := range allStatuses {
		for _, to := range allStatuses {
			if from == to || isValidPair(from, to) {
				continue
			}

			tx := domain.Transaction{ID: "tx-1", Status: from}
			history, err := tx.TransitionTo(to, now, "", "")
			if err == nil {
				t.Fatalf("transition %s -> %s: expected error", from, to)
			}
			var invalid *domain.InvalidTransitionError
			if !errors.As(err, &invalid) {
				t.Fatalf("transition %s -> %s: expected InvalidTransitionError, got %T", from, to, err)
			}
			if history != nil {
				t.Fatalf("transition %s -> %s: history must not be emitted", from, to)
			}
			if tx.Status != from {
				t.Fatalf("transition %s -> %s: stored status changed to %s", from, to, tx.Status)
			}
		}
	}
}

func TestTransitionSameStatusIsNoOp(t *testing.T) {
	before := time.Now().Add(-time.Hour)
	tx := domain.Transaction{ID: "tx-1", Status: domain.TransactionStatusPending, StatusChangedAt: before}

	history, err := tx.TransitionTo(domain.TransactionStatusPending, time.Now(), "", "")
	if err != nil {
		t.Fatalf("same-status transition: unexpected error %v", err)
	}
	if history != nil {
		t.Fatal("same-status transition must not emit history")
	}
	if !tx.StatusChangedAt.Equal(before) {
		t.Fatal("same-status transition must not touch the timestamp")
	}
}

func TestTransitionWithoutPersistedIDEmitsNoHistory(t *testing.T) {
	tx := domain.Transaction{Status: domain.TransactionStatusCreated}

	history, err := tx.TransitionTo(domain.TransactionStatusPending, time.Now(), "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if history != nil {
		t.Fatal("unpersisted transaction must not emit history")
	}
	if tx.Status != domain.TransactionStatusPending {
		t.Fatalf("status is %s, want PENDING", tx.Status)
	}
}

func TestResetForRetry(t *testing.T) {
	reason := domain.FailureNetworkTimeout
	tx := domain.Transaction{
		ID:            "tx-1",
		Status:        domain.TransactionStatusFailed,
		FailureReason: &reason,
		RetryCount:    1,
	}

	history := tx.ResetForRetry(time.Now(), "retry-sweeper")
	if tx.Status != domain.TransactionStatusPending {
		t.Fatalf("status is %s, want PENDING", tx.Status)
	}
	if tx.RetryCount != 2 {
		t.Fatalf("retry count is %d, want 2", tx.RetryCount)
	}
	if history == nil || history.OldStatus != domain.TransactionStatusFailed {
		t.Fatal("expected FAILED -> PENDING history record")
	}
}
