package services

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/vaultpay/wallet-core/internal/adapter/gateway"
	"github.com/vaultpay/wallet-core/internal/adapter/http/models"
	"github.com/vaultpay/wallet-core/internal/adapter/repository/repo_interfaces"
	"github.com/vaultpay/wallet-core/internal/commons"
	"github.com/vaultpay/wallet-core/internal/domain"
	"github.com/vaultpay/wallet-core/internal/logger"
	"github.com/vaultpay/wallet-core/internal/usecase/service_interfaces"
)

// amountTolerance absorbs gateway-side rounding on webhook amounts.
var amountTolerance = decimal.NewFromFloat(0.01)

type PaymentService struct {
	paymentRepo    repo_interfaces.PaymentRepository
	webhookLogRepo repo_interfaces.WebhookLogRepository
	accountRepo    repo_interfaces.AccountRepository
	userRepo       repo_interfaces.UserRepository
	gatewayClient  gateway.Client
	audit          service_interfaces.AuditSink
	metrics        *Metrics
	gatewayName    string
	webhookSecret  string
	notifyURL      string
}

func NewPaymentService(
	paymentRepo repo_interfaces.PaymentRepository,
	webhookLogRepo repo_interfaces.WebhookLogRepository,
	accountRepo repo_interfaces.AccountRepository,
	userRepo repo_interfaces.UserRepository,
	gatewayClient gateway.Client,
	audit service_interfaces.AuditSink,
	metrics *Metrics,
	gatewayName, webhookSecret, notifyURL string,
) *PaymentService {
	return &PaymentService{
		paymentRepo:    paymentRepo,
		webhookLogRepo: webhookLogRepo,
		accountRepo:    accountRepo,
		userRepo:       userRepo,
		gatewayClient:  gatewayClient,
		audit:          audit,
		metrics:        metrics,
		gatewayName:    gatewayName,
		webhookSecret:  webhookSecret,
		notifyURL:      notifyURL,
	}
}

func (s *PaymentService) InitiateTopUp(ctx context.Context, req models.InitiateTopUpRequest) (commons.Response[models.PaymentResponse], error) {
	logger.Info("payment service initiate top-up request", logger.Fields{
		"payload": logger.SanitizePayload(req),
		"userId":  req.RequestingUserID,
	})

	if err := req.Validate(); err != nil {
		return commons.ErrorResponse[models.PaymentResponse]("validation failed", err.Error()), err
	}

	account, err := s.accountRepo.GetByID(ctx, strings.TrimSpace(req.AccountID))
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return commons.ErrorResponse[models.PaymentResponse]("Account not found"), err
		}
		return commons.ErrorResponse[models.PaymentResponse]("failed to initiate top-up", "Unable to initiate top-up right now"), err
	}
	if account.UserID != strings.TrimSpace(req.RequestingUserID) {
		return commons.ErrorResponse[models.PaymentResponse]("validation failed", domain.ErrNotAccountOwner.Error()), domain.ErrNotAccountOwner
	}
	if err := accountUsable(account); err != nil {
		return commons.ErrorResponse[models.PaymentResponse]("validation failed", err.Error()), err
	}
	if !strings.EqualFold(account.Currency, strings.TrimSpace(req.Currency)) {
		return commons.ErrorResponse[models.PaymentResponse]("validation failed", domain.ErrCurrencyMismatch.Error()), domain.ErrCurrencyMismatch
	}

	payment := domain.Payment{
		UserID:    account.UserID,
		AccountID: account.ID,
		Gateway:   s.gatewayName,
		RequestID: uuid.NewString(),
		Amount:    req.Amount,
		Currency:  account.Currency,
		Status:    domain.PaymentStatusPending,
	}

	created, err := s.paymentRepo.Create(ctx, payment)
	if err != nil {
		return commons.ErrorResponse[models.PaymentResponse]("failed to initiate top-up", "Unable to initiate top-up right now"), err
	}

	initiate := gateway.InitiateRequest{
		RequestID: created.RequestID,
		Amount:    created.Amount,
		Currency:  created.Currency,
		ReturnURL: req.ReturnURL,
		NotifyURL: s.notifyURL,
	}
	// Customer details are optional at the gateway; a missing profile must
	// not block the top-up.
	if user, err := s.userRepo.GetByID(ctx, account.UserID); err == nil {
		initiate.CustomerName = strings.TrimSpace(user.FirstName + " " + user.LastName)
		initiate.CustomerPhone = user.PhoneNumber
	}

	result, err := s.gatewayClient.InitiatePayment(ctx, initiate)
	if err != nil {
		logger.Error("payment service gateway initiation failed", err, logger.Fields{
			"paymentId": created.ID,
		})
		created.Status = domain.PaymentStatusFailed
		if _, updateErr := s.paymentRepo.Update(ctx, created); updateErr != nil {
			logger.Error("payment service persist failed payment failed", updateErr, logger.Fields{
				"paymentId": created.ID,
			})
		}
		return commons.ErrorResponse[models.PaymentResponse]("failed to initiate top-up", "Payment gateway is unavailable"), err
	}

	created.GatewayPaymentID = &result.GatewayPaymentID
	created.RedirectURL = &result.PaymentURL
	if result.RawResponse != "" {
		raw := result.RawResponse
		created.GatewayResponse = &raw
	}

	updated, err := s.paymentRepo.Update(ctx, created)
	if err != nil {
		return commons.ErrorResponse[models.PaymentResponse]("failed to initiate top-up", "Unable to initiate top-up right now"), err
	}

	s.audit.LogEvent(ctx, "payment", updated.ID, "topup_initiated", logger.Fields{
		"accountId": updated.AccountID,
		"amount":    updated.Amount.StringFixed(2),
	})

	return commons.SuccessResponse("top-up initiated", mapPaymentToResponse(updated)), nil
}

func (s *PaymentService) GetPayment(ctx context.Context, id string) (commons.Response[models.PaymentResponse], error) {
	payment, err := s.paymentRepo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return commons.ErrorResponse[models.PaymentResponse]("Payment not found"), err
		}
		return commons.ErrorResponse[models.PaymentResponse]("failed to load payment", "Unable to load payment right now"), err
	}

	return commons.SuccessResponse("payment found", mapPaymentToResponse(payment)), nil
}

func (s *PaymentService) CancelPayment(ctx context.Context, id string, requestingUserID string) (commons.Response[models.PaymentResponse], error) {
	payment, err := s.paymentRepo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return commons.ErrorResponse[models.PaymentResponse]("Payment not found"), err
		}
		return commons.ErrorResponse[models.PaymentResponse]("failed to cancel payment", "Unable to cancel payment right now"), err
	}
	if payment.UserID != strings.TrimSpace(requestingUserID) {
		return commons.ErrorResponse[models.PaymentResponse]("validation failed", domain.ErrNotAccountOwner.Error()), domain.ErrNotAccountOwner
	}
	if payment.Status != domain.PaymentStatusPending || payment.WebhookReceived {
		err := fmt.Errorf("payment can no longer be cancelled")
		return commons.ErrorResponse[models.PaymentResponse]("validation failed", err.Error()), err
	}

	// Best effort towards the gateway; local state is authoritative.
	if payment.GatewayPaymentID != nil {
		if err := s.gatewayClient.CancelPayment(ctx, *payment.GatewayPaymentID); err != nil {
			logger.Error("payment service gateway cancel failed", err, logger.Fields{
				"paymentId": payment.ID,
			})
		}
	}

	payment.Status = domain.PaymentStatusCancelled
	updated, err := s.paymentRepo.Update(ctx, payment)
	if err != nil {
		return commons.ErrorResponse[models.PaymentResponse]("failed to cancel payment", "Unable to cancel payment right now"), err
	}

	s.audit.LogEvent(ctx, "payment", updated.ID, "topup_cancelled", nil)

	return commons.SuccessResponse("payment cancelled", mapPaymentToResponse(updated)), nil
}

// VerifyPayment re-polls the gateway for payments whose webhook may have been
// lost, and applies the same completion path the webhook would have taken.
func (s *PaymentService) VerifyPayment(ctx context.Context, id string) (commons.Response[models.PaymentResponse], error) {
	payment, err := s.paymentRepo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return commons.ErrorResponse[models.PaymentResponse]("Payment not found"), err
		}
		return commons.ErrorResponse[models.PaymentResponse]("failed to verify payment", "Unable to verify payment right now"), err
	}

	if payment.Status == domain.PaymentStatusCompleted {
		return commons.SuccessResponse("payment already completed", mapPaymentToResponse(payment)), nil
	}
	if payment.GatewayPaymentID == nil {
		err := fmt.Errorf("payment was never registered with the gateway")
		return commons.ErrorResponse[models.PaymentResponse]("validation failed", err.Error()), err
	}

	result, err := s.gatewayClient.VerifyPayment(ctx, *payment.GatewayPaymentID)
	if err != nil {
		return commons.ErrorResponse[models.PaymentResponse]("failed to verify payment", "Payment gateway is unavailable"), err
	}

	updated, err := s.settlePayment(ctx, payment, normalizeGatewayStatus(result.Status), result.Amount, result.RawResponse)
	if err != nil {
		return commons.ErrorResponse[models.PaymentResponse]("failed to verify payment", err.Error()), err
	}

	return commons.SuccessResponse("payment verified", mapPaymentToResponse(updated)), nil
}

// webhookEnvelope tolerates the gateway's field-name drift across versions.
type webhookEnvelope struct {
	PaymentID     string           `json:"paymentId"`
	ID            string           `json:"id"`
	Status        string           `json:"status"`
	PaymentStatus string           `json:"paymentStatus"`
	Amount        *decimal.Decimal `json:"amount"`
}

func (e webhookEnvelope) gatewayPaymentID() string {
	if e.PaymentID != "" {
		return e.PaymentID
	}
	return e.ID
}

func (e webhookEnvelope) status() string {
	if e.Status != "" {
		return e.Status
	}
	return e.PaymentStatus
}

// ProcessWebhook handles one inbound gateway delivery. Every delivery leaves
// a webhook log row, including forgeries and malformed payloads; only a
// valid, correlated COMPLETED delivery can move money, and only once.
func (s *PaymentService) ProcessWebhook(ctx context.Context, payload []byte, signature string) bool {
	signatureValid := s.verifySignature(payload, signature)

	if !signatureValid {
		logger.Error("payment webhook signature rejected", nil, logger.Fields{
			"payloadSize": len(payload),
		})
		s.recordWebhook(ctx, nil, payload, signature, false, false, "invalid signature")
		s.metrics.ObserveWebhook("invalid_signature")
		return false
	}

	var envelope webhookEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		s.recordWebhook(ctx, nil, payload, signature, true, false, "malformed payload")
		s.metrics.ObserveWebhook("malformed")
		return false
	}

	gatewayPaymentID := strings.TrimSpace(envelope.gatewayPaymentID())
	if gatewayPaymentID == "" {
		s.recordWebhook(ctx, nil, payload, signature, true, false, "missing payment id")
		s.metrics.ObserveWebhook("malformed")
		return false
	}

	payment, err := s.paymentRepo.GetByGatewayPaymentID(ctx, gatewayPaymentID)
	if err != nil {
		s.recordWebhook(ctx, nil, payload, signature, true, false, "unknown payment")
		s.metrics.ObserveWebhook("unknown_payment")
		return false
	}

	if payment.WebhookReceived {
		// Replayed delivery; the first one already settled the payment.
		s.recordWebhook(ctx, &payment.ID, payload, signature, true, true, "")
		s.metrics.ObserveWebhook("replay")
		return true
	}

	status := normalizeGatewayStatus(envelope.status())
	if status == "" {
		s.recordWebhook(ctx, &payment.ID, payload, signature, true, false, "unrecognized status")
		s.metrics.ObserveWebhook("unrecognized_status")
		return false
	}
	if status == domain.PaymentStatusPending {
		// A non-final status carries nothing to settle. Rejecting the
		// delivery makes the gateway redeliver once the outcome is known.
		s.recordWebhook(ctx, &payment.ID, payload, signature, true, false, "non-final status")
		s.metrics.ObserveWebhook("non_final_status")
		return false
	}

	if _, err := s.settlePayment(ctx, payment, status, envelope.Amount, string(payload)); err != nil {
		s.recordWebhook(ctx, &payment.ID, payload, signature, true, false, err.Error())
		s.metrics.ObserveWebhook("error")
		return false
	}

	s.recordWebhook(ctx, &payment.ID, payload, signature, true, true, "")
	s.metrics.ObserveWebhook("processed")
	return true
}

// settlePayment applies a confirmed gateway outcome to a pending payment.
// The COMPLETED branch delegates to the repository's atomic completion, so a
// concurrent webhook or verify call credits the account exactly once.
func (s *PaymentService) settlePayment(ctx context.Context, payment domain.Payment, status domain.PaymentStatus, amount *decimal.Decimal, rawResponse string) (domain.Payment, error) {
	// The reported amount must match before any outcome is applied.
	if amount != nil && amount.Sub(payment.Amount).Abs().GreaterThan(amountTolerance) {
		return domain.Payment{}, fmt.Errorf("amount mismatch: expected %s, gateway reported %s",
			payment.Amount.StringFixed(2), amount.StringFixed(2))
	}

	switch status {
	case domain.PaymentStatusCompleted:
		tx := domain.Transaction{
			UserID:          payment.UserID,
			SourceAccountID: payment.AccountID,
			Amount:          payment.Amount,
			Currency:        payment.Currency,
			Type:            domain.TransactionTypeCredit,
			Category:        domain.CategoryTopUp,
			Status:          domain.TransactionStatusCompleted,
			Purpose:         "wallet top-up",
			StatusChangedAt: time.Now(),
		}

		settled, err := s.paymentRepo.CompleteTopUp(ctx, repo_interfaces.CompleteTopUpParams{
			PaymentID:       payment.ID,
			Transaction:     tx,
			GatewayResponse: rawResponse,
		})
		if err != nil {
			return domain.Payment{}, fmt.Errorf("complete top-up: %w", err)
		}

		s.audit.LogEvent(ctx, "payment", settled.ID, "topup_completed", logger.Fields{
			"accountId": settled.AccountID,
			"amount":    settled.Amount.StringFixed(2),
		})
		return settled, nil

	case domain.PaymentStatusFailed, domain.PaymentStatusCancelled:
		updated, err := s.paymentRepo.RecordGatewayOutcome(ctx, payment.ID, status, rawResponse)
		if err != nil {
			return domain.Payment{}, fmt.Errorf("record gateway outcome: %w", err)
		}

		s.audit.LogEvent(ctx, "payment", updated.ID, "topup_"+strings.ToLower(string(updated.Status)), nil)
		return updated, nil

	case domain.PaymentStatusPending:
		// Gateway still processing; nothing to apply.
		return payment, nil

	default:
		return domain.Payment{}, fmt.Errorf("unsupported gateway status %q", status)
	}
}

func (s *PaymentService) recordWebhook(ctx context.Context, paymentID *string, payload []byte, signature string, valid, processed bool, errorMessage string) {
	log, err := s.webhookLogRepo.Create(ctx, domain.WebhookLog{
		PaymentID:      paymentID,
		Payload:        string(payload),
		Signature:      signature,
		SignatureValid: valid,
	})
	if err != nil {
		logger.Error("payment webhook log create failed", err, nil)
		return
	}
	if err := s.webhookLogRepo.Finish(ctx, log.ID, processed, errorMessage); err != nil {
		logger.Error("payment webhook log finish failed", err, logger.Fields{
			"webhookLogId": log.ID,
		})
	}
}

// verifySignature checks the delivery's HMAC-SHA256 over the raw body.
// Gateways disagree on encoding, so both hex and base64 digests are
// accepted, with or without the "sha256=" prefix. Comparison is constant
// time.
func (s *PaymentService) verifySignature(payload []byte, signature string) bool {
	signature = strings.TrimSpace(signature)
	signature = strings.TrimPrefix(signature, "sha256=")
	if signature == "" || s.webhookSecret == "" {
		return false
	}

	mac := hmac.New(sha256.New, []byte(s.webhookSecret))
	mac.Write(payload)
	expected := mac.Sum(nil)

	if decoded, err := hex.DecodeString(signature); err == nil && hmac.Equal(decoded, expected) {
		return true
	}
	if decoded, err := base64.StdEncoding.DecodeString(signature); err == nil && hmac.Equal(decoded, expected) {
		return true
	}
	return false
}

func normalizeGatewayStatus(status string) domain.PaymentStatus {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case "COMPLETED", "SUCCESS", "SUCCESSFUL", "PAID":
		return domain.PaymentStatusCompleted
	case "FAILED", "DECLINED", "ERROR":
		return domain.PaymentStatusFailed
	case "CANCELLED", "CANCELED":
		return domain.PaymentStatusCancelled
	case "PENDING", "PROCESSING", "INITIATED":
		return domain.PaymentStatusPending
	default:
		return ""
	}
}

func mapPaymentToResponse(payment domain.Payment) models.PaymentResponse {
	response := models.PaymentResponse{
		ID:              payment.ID,
		AccountID:       payment.AccountID,
		Gateway:         payment.Gateway,
		RequestID:       payment.RequestID,
		Amount:          payment.Amount,
		Currency:        payment.Currency,
		Status:          string(payment.Status),
		WebhookReceived: payment.WebhookReceived,
		CreatedAt:       payment.CreatedAt.Format(time.RFC3339),
	}
	if payment.GatewayPaymentID != nil {
		response.GatewayPaymentID = *payment.GatewayPaymentID
	}
	if payment.RedirectURL != nil {
		response.RedirectURL = *payment.RedirectURL
	}
	if payment.TransactionID != nil {
		response.TransactionID = *payment.TransactionID
	}
	return response
}
