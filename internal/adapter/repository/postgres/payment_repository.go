package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/vaultpay/wallet-core/internal/adapter/repository/repo_interfaces"
	"github.com/vaultpay/wallet-core/internal/domain"
	"github.com/vaultpay/wallet-core/internal/logger"
)

type PaymentRepository struct {
	db *sql.DB
}

func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const paymentColumns = `id, user_id, account_id, gateway, gateway_payment_id, request_id, amount, currency, status, redirect_url, transaction_id, gateway_response, webhook_received, created_at, updated_at`

func (r *PaymentRepository) Create(ctx context.Context, payment domain.Payment) (domain.Payment, error) {
	const query = `
INSERT INTO payments (
	user_id,
	account_id,
	gateway,
	gateway_payment_id,
	request_id,
	amount,
	currency,
	status,
	redirect_url,
	webhook_received
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
RETURNING id, created_at, updated_at`

	var (
		id        string
		createdAt time.Time
		updatedAt time.Time
	)

	if err := r.db.QueryRowContext(
		ctx,
		query,
		payment.UserID,
		payment.AccountID,
		payment.Gateway,
		payment.GatewayPaymentID,
		payment.RequestID,
		payment.Amount,
		payment.Currency,
		payment.Status,
		payment.RedirectURL,
		payment.WebhookReceived,
	).Scan(&id, &createdAt, &updatedAt); err != nil {
		if isUniqueViolation(err) {
			return domain.Payment{}, domain.ErrDuplicateRequest
		}
		return domain.Payment{}, fmt.Errorf("create payment: %w", err)
	}

	payment.ID = id
	payment.CreatedAt = createdAt
	payment.UpdatedAt = updatedAt

	return payment, nil
}

func (r *PaymentRepository) GetByID(ctx context.Context, id string) (domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	return scanPayment(r.db.QueryRowContext(ctx, query, id))
}

func (r *PaymentRepository) GetByGatewayPaymentID(ctx context.Context, gatewayPaymentID string) (domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE gateway_payment_id = $1`
	return scanPayment(r.db.QueryRowContext(ctx, query, gatewayPaymentID))
}

func (r *PaymentRepository) Update(ctx context.Context, payment domain.Payment) (domain.Payment, error) {
	const query = `
UPDATE payments
SET gateway_payment_id = $2,
    status = $3,
    redirect_url = $4,
    gateway_response = $5,
    webhook_received = $6,
    updated_at = NOW()
WHERE id = $1
RETURNING updated_at`

	var updatedAt time.Time
	if err := r.db.QueryRowContext(
		ctx,
		query,
		payment.ID,
		payment.GatewayPaymentID,
		payment.Status,
		payment.RedirectURL,
		payment.GatewayResponse,
		payment.WebhookReceived,
	).Scan(&updatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Payment{}, domain.ErrRecordNotFound
		}
		if isUniqueViolation(err) {
			return domain.Payment{}, domain.ErrDuplicateRequest
		}
		return domain.Payment{}, fmt.Errorf("update payment: %w", tagConflict(err))
	}

	payment.UpdatedAt = updatedAt
	return payment, nil
}

func (r *PaymentRepository) RecordGatewayOutcome(ctx context.Context, paymentID string, status domain.PaymentStatus, gatewayResponse string) (domain.Payment, error) {
	query := `
UPDATE payments
SET status = $2,
    gateway_response = COALESCE(NULLIF($3, ''), gateway_response),
    webhook_received = TRUE,
    updated_at = NOW()
WHERE id = $1 AND webhook_received = FALSE
RETURNING ` + paymentColumns

	payment, err := scanPaymentRow(r.db.QueryRowContext(ctx, query, paymentID, status, gatewayResponse))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// Lost to an earlier delivery; hand back the settled row.
			return r.GetByID(ctx, paymentID)
		}
		return domain.Payment{}, fmt.Errorf("record gateway outcome: %w", tagConflict(err))
	}
	return payment, nil
}

// CompleteTopUp turns a confirmed gateway payment into ledger state exactly
// once. The payment row is locked before the received flag is read, so a
// replayed webhook either sees the flag already set and leaves everything
// untouched, or wins the lock and performs the single credit.
func (r *PaymentRepository) CompleteTopUp(ctx context.Context, params repo_interfaces.CompleteTopUpParams) (domain.Payment, error) {
	dbtx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Payment{}, fmt.Errorf("begin complete top-up: %w", err)
	}
	defer func() {
		_ = dbtx.Rollback()
	}()

	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1 FOR UPDATE`
	payment, err := scanPaymentRow(dbtx.QueryRowContext(ctx, query, params.PaymentID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Payment{}, domain.ErrRecordNotFound
		}
		return domain.Payment{}, fmt.Errorf("lock payment: %w", tagConflict(err))
	}

	if payment.WebhookReceived || payment.TransactionID != nil {
		logger.Info("payment repository top-up already completed", logger.Fields{
			"paymentId": payment.ID,
		})
		if !payment.WebhookReceived {
			if _, err := dbtx.ExecContext(ctx, `UPDATE payments SET webhook_received = TRUE, updated_at = NOW() WHERE id = $1`, payment.ID); err != nil {
				return domain.Payment{}, fmt.Errorf("mark webhook received: %w", tagConflict(err))
			}
			payment.WebhookReceived = true
		}
		if err := dbtx.Commit(); err != nil {
			return domain.Payment{}, fmt.Errorf("commit complete top-up: %w", tagConflict(err))
		}
		return payment, nil
	}

	tx := params.Transaction
	const insertTx = `
INSERT INTO transactions (
	user_id,
	source_account_id,
	destination_account_number,
	amount,
	currency,
	type,
	category,
	status,
	purpose,
	status_changed_at,
	payment_id
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
RETURNING id`

	var transactionID string
	if err := dbtx.QueryRowContext(
		ctx,
		insertTx,
		tx.UserID,
		tx.SourceAccountID,
		tx.DestinationAccountNumber,
		tx.Amount,
		tx.Currency,
		tx.Type,
		tx.Category,
		tx.Status,
		tx.Purpose,
		tx.StatusChangedAt,
		payment.ID,
	).Scan(&transactionID); err != nil {
		return domain.Payment{}, fmt.Errorf("create top-up transaction: %w", tagConflict(err))
	}

	const credit = `
UPDATE accounts
SET balance = balance + $2,
    updated_at = NOW()
WHERE id = $1`

	if _, err := dbtx.ExecContext(ctx, credit, payment.AccountID, tx.Amount); err != nil {
		return domain.Payment{}, fmt.Errorf("credit account: %w", tagConflict(err))
	}

	const finish = `
UPDATE payments
SET status = $2,
    transaction_id = $3,
    gateway_response = $4,
    webhook_received = TRUE,
    updated_at = NOW()
WHERE id = $1`

	if _, err := dbtx.ExecContext(ctx, finish, payment.ID, domain.PaymentStatusCompleted, transactionID, params.GatewayResponse); err != nil {
		return domain.Payment{}, fmt.Errorf("finalize payment: %w", tagConflict(err))
	}

	if err := dbtx.Commit(); err != nil {
		return domain.Payment{}, fmt.Errorf("commit complete top-up: %w", tagConflict(err))
	}

	payment.Status = domain.PaymentStatusCompleted
	payment.TransactionID = &transactionID
	payment.GatewayResponse = &params.GatewayResponse
	payment.WebhookReceived = true

	return payment, nil
}

func scanPayment(row *sql.Row) (domain.Payment, error) {
	payment, err := scanPaymentRow(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Payment{}, domain.ErrRecordNotFound
		}
		return domain.Payment{}, err
	}
	return payment, nil
}

func scanPaymentRow(row rowScanner) (domain.Payment, error) {
	var payment domain.Payment
	err := row.Scan(
		&payment.ID,
		&payment.UserID,
		&payment.AccountID,
		&payment.Gateway,
		&payment.GatewayPaymentID,
		&payment.RequestID,
		&payment.Amount,
		&payment.Currency,
		&payment.Status,
		&payment.RedirectURL,
		&payment.TransactionID,
		&payment.GatewayResponse,
		&payment.WebhookReceived,
		&payment.CreatedAt,
		&payment.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Payment{}, err
		}
		return domain.Payment{}, fmt.Errorf("scan payment: %w", err)
	}
	return payment, nil
}
