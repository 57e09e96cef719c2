package models

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

type CreateTransferRequest struct {
	SourceAccountID          string          `json:"sourceAccountId"`
	DestinationAccountNumber string          `json:"destinationAccountNumber"`
	Amount                   decimal.Decimal `json:"amount"`
	Purpose                  string          `json:"purpose"`
	IdempotencyKey           string          `json:"idempotencyKey"`

	// Filled in by the controller, not the request body.
	RequestingUserID string `json:"-"`
	DeviceID         string `json:"-"`
	IPAddress        string `json:"-"`
	UserAgent        string `json:"-"`
}

func (r CreateTransferRequest) Validate() error {
	var errs []string

	if strings.TrimSpace(r.SourceAccountID) == "" {
		errs = append(errs, "sourceAccountId is required")
	}
	if !isTenDigits(r.DestinationAccountNumber) {
		errs = append(errs, "destinationAccountNumber must be exactly 10 digits")
	}
	if r.Amount.LessThanOrEqual(decimal.Zero) {
		errs = append(errs, "amount must be greater than zero")
	}
	if strings.TrimSpace(r.RequestingUserID) == "" {
		errs = append(errs, "requesting user is required")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

type PayrollCreditRequest struct {
	SourceAccountID          string          `json:"sourceAccountId"`
	DestinationAccountNumber string          `json:"destinationAccountNumber"`
	Amount                   decimal.Decimal `json:"amount"`
	Purpose                  string          `json:"purpose"`
	IdempotencyKey           string          `json:"idempotencyKey"`
}

func (r PayrollCreditRequest) Validate() error {
	var errs []string

	if strings.TrimSpace(r.SourceAccountID) == "" {
		errs = append(errs, "sourceAccountId is required")
	}
	if !isTenDigits(r.DestinationAccountNumber) {
		errs = append(errs, "destinationAccountNumber must be exactly 10 digits")
	}
	if r.Amount.LessThanOrEqual(decimal.Zero) {
		errs = append(errs, "amount must be greater than zero")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

type ReviewTransactionRequest struct {
	Approve bool   `json:"approve"`
	Reason  string `json:"reason"`

	ReviewerID string `json:"-"`
}

func (r ReviewTransactionRequest) Validate() error {
	if !r.Approve && strings.TrimSpace(r.Reason) == "" {
		return errors.New("reason is required when rejecting")
	}
	if strings.TrimSpace(r.ReviewerID) == "" {
		return errors.New("reviewer is required")
	}
	return nil
}

type TransactionResponse struct {
	ID                       string          `json:"id"`
	SourceAccountID          string          `json:"sourceAccountId"`
	DestinationAccountNumber string          `json:"destinationAccountNumber"`
	Amount                   decimal.Decimal `json:"amount"`
	Currency                 string          `json:"currency"`
	Type                     string          `json:"type"`
	Category                 string          `json:"category"`
	Status                   string          `json:"status"`
	Purpose                  string          `json:"purpose,omitempty"`
	FailureReason            string          `json:"failureReason,omitempty"`
	FailureMessage           string          `json:"failureMessage,omitempty"`
	RetryCount               int             `json:"retryCount"`
	RiskScore                *int            `json:"riskScore,omitempty"`
	RiskTier                 string          `json:"riskTier,omitempty"`
	StatusChangedAt          string          `json:"statusChangedAt"`
	CreatedAt                string          `json:"createdAt"`
}

type TransactionListResponse struct {
	Transactions []TransactionResponse `json:"transactions"`
}

func isTenDigits(value string) bool {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) != 10 {
		return false
	}
	for _, ch := range trimmed {
		if ch < '0' || ch > '9' {
			return false
		}
	}
	return true
}
