package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/vaultpay/wallet-core/internal/domain"
)

type CardRepository struct {
	db *sql.DB
}

func NewCardRepository(db *sql.DB) *CardRepository {
	return &CardRepository{db: db}
}

func (r *CardRepository) HasValidCard(ctx context.Context, accountID string, now time.Time) (bool, error) {
	const query = `
SELECT EXISTS (
	SELECT 1 FROM cards
	WHERE account_id = $1 AND status = $2 AND expires_at > $3
)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, accountID, domain.CardStatusActive, now).Scan(&exists); err != nil {
		return false, fmt.Errorf("check valid card: %w", err)
	}
	return exists, nil
}

func (r *CardRepository) HasCardCreatedSince(ctx context.Context, accountID string, since time.Time) (bool, error) {
	const query = `
SELECT EXISTS (
	SELECT 1 FROM cards
	WHERE account_id = $1 AND status = $2 AND created_at >= $3
)`

	var exists bool
	if err := r.db.QueryRowContext(ctx, query, accountID, domain.CardStatusActive, since).Scan(&exists); err != nil {
		return false, fmt.Errorf("check recent card: %w", err)
	}
	return exists, nil
}
