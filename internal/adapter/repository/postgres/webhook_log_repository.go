package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vaultpay/wallet-core/internal/domain"
)

type WebhookLogRepository struct {
	db *sql.DB
}

func NewWebhookLogRepository(db *sql.DB) *WebhookLogRepository {
	return &WebhookLogRepository{db: db}
}

func (r *WebhookLogRepository) Create(ctx context.Context, log domain.WebhookLog) (domain.WebhookLog, error) {
	const query = `
INSERT INTO payment_webhook_logs (
	payment_id,
	payload,
	signature,
	signature_valid,
	processed
) VALUES ($1, $2, $3, $4, $5)
RETURNING id, created_at, updated_at`

	var (
		id        string
		createdAt time.Time
		updatedAt time.Time
	)

	if err := r.db.QueryRowContext(
		ctx,
		query,
		log.PaymentID,
		log.Payload,
		log.Signature,
		log.SignatureValid,
		log.Processed,
	).Scan(&id, &createdAt, &updatedAt); err != nil {
		return domain.WebhookLog{}, fmt.Errorf("create webhook log: %w", err)
	}

	log.ID = id
	log.CreatedAt = createdAt
	log.UpdatedAt = updatedAt

	return log, nil
}

func (r *WebhookLogRepository) Finish(ctx context.Context, id string, processed bool, errorMessage string) error {
	const query = `
UPDATE payment_webhook_logs
SET processed = $2,
    error_message = NULLIF($3, ''),
    updated_at = NOW()
WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, processed, errorMessage)
	if err != nil {
		return fmt.Errorf("finish webhook log: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return domain.ErrRecordNotFound
	}
	return nil
}
