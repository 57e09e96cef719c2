package domain

import (
	"fmt"
	"time"
)

// allowedTransitions is the whole state machine: a status maps to the set of
// statuses it may move to. Terminal statuses have no entry.
var allowedTransitions = map[TransactionStatus][]TransactionStatus{
	TransactionStatusCreated: {TransactionStatusPending, TransactionStatusFailed},
	TransactionStatusPending: {TransactionStatusSending, TransactionStatusFailed, TransactionStatusExpired},
	TransactionStatusSending: {TransactionStatusCompleted, TransactionStatusFailed},
}

// InvalidTransitionError is raised for any (from, to) pair outside the table.
// It indicates a logic bug or a race the caller should have prevented, so
// callers must abort the operation that attempted it.
type InvalidTransitionError struct {
	From TransactionStatus
	To   TransactionStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid status transition %s -> %s", e.From, e.To)
}

// CanTransition reports whether from -> to is allowed. A same-status
// transition is a permitted no-op.
func CanTransition(from, to TransactionStatus) bool {
	if from == to {
		return true
	}
	for _, next := range allowedTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// TransitionTo validates and applies a status transition. On success the
// transaction's status and status-changed timestamp are updated and, only if
// the transaction already has a persisted identity, a history record is
// returned for the caller to append. A transition to the current status
// returns (nil, nil) and changes nothing.
func (t *Transaction) TransitionTo(to TransactionStatus, changedAt time.Time, changedBy, reason string) (*StatusHistory, error) {
	if t.Status == to {
		return nil, nil
	}
	if !CanTransition(t.Status, to) {
		return nil, &InvalidTransitionError{From: t.Status, To: to}
	}

	old := t.Status
	t.Status = to
	t.StatusChangedAt = changedAt

	if t.ID == "" {
		return nil, nil
	}

	history := &StatusHistory{
		TransactionID: t.ID,
		OldStatus:     old,
		NewStatus:     to,
		ChangedAt:     changedAt,
	}
	if changedBy != "" {
		history.ChangedBy = &changedBy
	}
	if reason != "" {
		history.Reason = &reason
	}
	return history, nil
}

// ResetForRetry moves a failed transaction back to PENDING for another
// attempt. This is the one deliberate exception to the transition table:
// FAILED stays terminal for ordinary flow, and only the retry paths (auto
// sweeper, manual retry) may reopen it. The retry count is incremented
// before the attempt so a retry that fails again cannot loop forever.
func (t *Transaction) ResetForRetry(changedAt time.Time, changedBy string) *StatusHistory {
	old := t.Status
	t.Status = TransactionStatusPending
	t.StatusChangedAt = changedAt
	t.RetryCount++

	if t.ID == "" {
		return nil
	}

	reason := "retry attempt"
	history := &StatusHistory{
		TransactionID: t.ID,
		OldStatus:     old,
		NewStatus:     TransactionStatusPending,
		ChangedAt:     changedAt,
		Reason:        &reason,
	}
	if changedBy != "" {
		history.ChangedBy = &changedBy
	}
	return history
}
