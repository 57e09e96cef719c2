package memory

import (
	"context"
	"time"

	"github.com/vaultpay/wallet-core/internal/domain"
)

type CardRepository struct {
	store *Store
}

func NewCardRepository(store *Store) *CardRepository {
	return &CardRepository{store: store}
}

func (r *CardRepository) HasValidCard(_ context.Context, accountID string, now time.Time) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, card := range r.store.cards[accountID] {
		if card.Valid(now) {
			return true, nil
		}
	}
	return false, nil
}

func (r *CardRepository) HasCardCreatedSince(_ context.Context, accountID string, since time.Time) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, card := range r.store.cards[accountID] {
		if card.Status == domain.CardStatusActive && !card.CreatedAt.Before(since) {
			return true, nil
		}
	}
	return false, nil
}
