package memory

import (
	"context"
	"time"

	"github.com/vaultpay/wallet-core/internal/adapter/repository/repo_interfaces"
	"github.com/vaultpay/wallet-core/internal/domain"
)

type PaymentRepository struct {
	store *Store
}

func NewPaymentRepository(store *Store) *PaymentRepository {
	return &PaymentRepository{store: store}
}

func (r *PaymentRepository) Create(_ context.Context, payment domain.Payment) (domain.Payment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, existing := range r.store.payments {
		if existing.RequestID == payment.RequestID {
			return domain.Payment{}, domain.ErrDuplicateRequest
		}
	}

	payment.ID = newID()
	now := time.Now()
	payment.CreatedAt = now
	payment.UpdatedAt = now
	r.store.payments[payment.ID] = payment
	return payment, nil
}

func (r *PaymentRepository) GetByID(_ context.Context, id string) (domain.Payment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	payment, ok := r.store.payments[id]
	if !ok {
		return domain.Payment{}, domain.ErrRecordNotFound
	}
	return payment, nil
}

func (r *PaymentRepository) GetByGatewayPaymentID(_ context.Context, gatewayPaymentID string) (domain.Payment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, payment := range r.store.payments {
		if payment.GatewayPaymentID != nil && *payment.GatewayPaymentID == gatewayPaymentID {
			return payment, nil
		}
	}
	return domain.Payment{}, domain.ErrRecordNotFound
}

func (r *PaymentRepository) Update(_ context.Context, payment domain.Payment) (domain.Payment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.payments[payment.ID]; !ok {
		return domain.Payment{}, domain.ErrRecordNotFound
	}
	payment.UpdatedAt = time.Now()
	r.store.payments[payment.ID] = payment
	return payment, nil
}

func (r *PaymentRepository) RecordGatewayOutcome(_ context.Context, paymentID string, status domain.PaymentStatus, gatewayResponse string) (domain.Payment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	payment, ok := r.store.payments[paymentID]
	if !ok {
		return domain.Payment{}, domain.ErrRecordNotFound
	}
	if payment.WebhookReceived {
		return payment, nil
	}

	payment.Status = status
	if gatewayResponse != "" {
		payment.GatewayResponse = &gatewayResponse
	}
	payment.WebhookReceived = true
	payment.UpdatedAt = time.Now()
	r.store.payments[paymentID] = payment
	return payment, nil
}

func (r *PaymentRepository) CompleteTopUp(_ context.Context, params repo_interfaces.CompleteTopUpParams) (domain.Payment, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	payment, ok := r.store.payments[params.PaymentID]
	if !ok {
		return domain.Payment{}, domain.ErrRecordNotFound
	}

	if payment.WebhookReceived || payment.TransactionID != nil {
		payment.WebhookReceived = true
		r.store.payments[payment.ID] = payment
		return payment, nil
	}

	account, ok := r.store.accounts[payment.AccountID]
	if !ok {
		return domain.Payment{}, domain.ErrRecordNotFound
	}

	now := time.Now()
	tx := params.Transaction
	tx.ID = newID()
	tx.PaymentID = &payment.ID
	tx.CreatedAt = now
	tx.UpdatedAt = now
	r.store.transactions[tx.ID] = tx

	account.Balance = account.Balance.Add(tx.Amount)
	account.UpdatedAt = now
	r.store.accounts[account.ID] = account

	payment.Status = domain.PaymentStatusCompleted
	payment.TransactionID = &tx.ID
	payment.GatewayResponse = &params.GatewayResponse
	payment.WebhookReceived = true
	payment.UpdatedAt = now
	r.store.payments[payment.ID] = payment

	return payment, nil
}

type WebhookLogRepository struct {
	store *Store
}

func NewWebhookLogRepository(store *Store) *WebhookLogRepository {
	return &WebhookLogRepository{store: store}
}

func (r *WebhookLogRepository) Create(_ context.Context, log domain.WebhookLog) (domain.WebhookLog, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	log.ID = newID()
	now := time.Now()
	log.CreatedAt = now
	log.UpdatedAt = now
	r.store.webhookLogs[log.ID] = log
	return log, nil
}

func (r *WebhookLogRepository) Finish(_ context.Context, id string, processed bool, errorMessage string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	log, ok := r.store.webhookLogs[id]
	if !ok {
		return domain.ErrRecordNotFound
	}
	log.Processed = processed
	if errorMessage != "" {
		log.ErrorMessage = &errorMessage
	}
	log.UpdatedAt = time.Now()
	r.store.webhookLogs[id] = log
	return nil
}
