package domain

import (
	"context"
	"errors"
	"net"
	"time"
)

type FailureReason string

const (
	FailureNetworkTimeout      FailureReason = "NETWORK_TIMEOUT"
	FailureServiceUnavailable  FailureReason = "SERVICE_UNAVAILABLE"
	FailureConcurrencyConflict FailureReason = "CONCURRENCY_CONFLICT"
	FailureInsufficientFunds   FailureReason = "INSUFFICIENT_FUNDS"
	FailureInvalidDestination  FailureReason = "INVALID_DESTINATION"
	FailureRiskBlocked         FailureReason = "RISK_BLOCKED"
	FailureAccountFrozen       FailureReason = "ACCOUNT_FROZEN"
	FailureAccountClosed       FailureReason = "ACCOUNT_CLOSED"
	FailureTransactionExpired  FailureReason = "TRANSACTION_EXPIRED"
)

// TemporaryFailureReasons is the set the auto-retry sweeper may replay.
var TemporaryFailureReasons = []FailureReason{
	FailureNetworkTimeout,
	FailureServiceUnavailable,
	FailureConcurrencyConflict,
}

// FailureError carries an explicit failure category so infrastructure layers
// can tag errors at the point they occur instead of callers sniffing
// messages.
type FailureError struct {
	Reason FailureReason
	Err    error
}

func (e *FailureError) Error() string {
	if e.Err == nil {
		return string(e.Reason)
	}
	return string(e.Reason) + ": " + e.Err.Error()
}

func (e *FailureError) Unwrap() error { return e.Err }

func NewFailureError(reason FailureReason, err error) *FailureError {
	return &FailureError{Reason: reason, Err: err}
}

// Classification is the verdict on a failed operation: whether the failure
// is temporary (eligible for auto retry) and after how long a retry makes
// sense.
type Classification struct {
	Temporary  bool
	Reason     FailureReason
	Message    string
	RetryAfter time.Duration
}

var classifications = map[FailureReason]Classification{
	FailureNetworkTimeout:      {Temporary: true, Reason: FailureNetworkTimeout, RetryAfter: 10 * time.Second},
	FailureServiceUnavailable:  {Temporary: true, Reason: FailureServiceUnavailable, RetryAfter: 30 * time.Second},
	FailureConcurrencyConflict: {Temporary: true, Reason: FailureConcurrencyConflict, RetryAfter: 5 * time.Second},
	FailureInsufficientFunds:   {Temporary: false, Reason: FailureInsufficientFunds},
	FailureInvalidDestination:  {Temporary: false, Reason: FailureInvalidDestination},
	FailureRiskBlocked:         {Temporary: false, Reason: FailureRiskBlocked},
	FailureAccountFrozen:       {Temporary: false, Reason: FailureAccountFrozen},
	FailureAccountClosed:       {Temporary: false, Reason: FailureAccountClosed},
	FailureTransactionExpired:  {Temporary: false, Reason: FailureTransactionExpired},
}

// Classify maps an error raised during transfer execution to a failure
// classification. Unknown errors default to a retryable service failure so a
// transient infrastructure problem never strands a transfer permanently.
func Classify(err error) Classification {
	reason, known := classifyReason(err)
	c := classifications[reason]
	if !known {
		// Unmatched failures retry sooner than a reported outage.
		c.RetryAfter = 10 * time.Second
	}
	if err != nil {
		c.Message = err.Error()
	}
	return c
}

func classifyReason(err error) (FailureReason, bool) {
	var tagged *FailureError
	if errors.As(err, &tagged) {
		if _, known := classifications[tagged.Reason]; known {
			return tagged.Reason, true
		}
	}

	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return FailureNetworkTimeout, true
	case errors.As(err, &netErr) && netErr.Timeout():
		return FailureNetworkTimeout, true
	case errors.Is(err, ErrConcurrencyConflict):
		return FailureConcurrencyConflict, true
	case errors.Is(err, ErrInsufficientBalance):
		return FailureInsufficientFunds, true
	case errors.Is(err, ErrDestinationNotFound), errors.Is(err, ErrDestinationNotActive):
		return FailureInvalidDestination, true
	case errors.Is(err, ErrRiskBlocked):
		return FailureRiskBlocked, true
	case errors.Is(err, ErrAccountFrozen):
		return FailureAccountFrozen, true
	case errors.Is(err, ErrAccountClosed):
		return FailureAccountClosed, true
	}

	return FailureServiceUnavailable, false
}
