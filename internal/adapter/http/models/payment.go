package models

import (
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

type InitiateTopUpRequest struct {
	AccountID string          `json:"accountId"`
	Amount    decimal.Decimal `json:"amount"`
	Currency  string          `json:"currency"`
	ReturnURL string          `json:"returnUrl"`

	RequestingUserID string `json:"-"`
}

func (r InitiateTopUpRequest) Validate() error {
	var errs []string

	if strings.TrimSpace(r.AccountID) == "" {
		errs = append(errs, "accountId is required")
	}
	if r.Amount.LessThanOrEqual(decimal.Zero) {
		errs = append(errs, "amount must be greater than zero")
	}
	if len(strings.TrimSpace(r.Currency)) != 3 {
		errs = append(errs, "currency must be 3 characters")
	}
	if strings.TrimSpace(r.RequestingUserID) == "" {
		errs = append(errs, "requesting user is required")
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

type PaymentResponse struct {
	ID               string          `json:"id"`
	AccountID        string          `json:"accountId"`
	Gateway          string          `json:"gateway"`
	GatewayPaymentID string          `json:"gatewayPaymentId,omitempty"`
	RequestID        string          `json:"requestId"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	Status           string          `json:"status"`
	RedirectURL      string          `json:"redirectUrl,omitempty"`
	TransactionID    string          `json:"transactionId,omitempty"`
	WebhookReceived  bool            `json:"webhookReceived"`
	CreatedAt        string          `json:"createdAt"`
}
