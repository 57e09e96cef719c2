// Package memory holds in-memory repository implementations sharing one
// store and one lock, so multi-entity operations stay atomic the same way
// the Postgres implementations are. They back the service tests and local
// development without a database.
package memory

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vaultpay/wallet-core/internal/domain"
)

type Store struct {
	mu           sync.Mutex
	accounts     map[string]domain.Account
	users        map[string]domain.User
	cards        map[string][]domain.Card
	transactions map[string]domain.Transaction
	history      map[string][]domain.StatusHistory
	payments     map[string]domain.Payment
	webhookLogs  map[string]domain.WebhookLog
}

func NewStore() *Store {
	return &Store{
		accounts:     map[string]domain.Account{},
		users:        map[string]domain.User{},
		cards:        map[string][]domain.Card{},
		transactions: map[string]domain.Transaction{},
		history:      map[string][]domain.StatusHistory{},
		payments:     map[string]domain.Payment{},
		webhookLogs:  map[string]domain.WebhookLog{},
	}
}

func newID() string {
	return uuid.NewString()
}

// SeedUser, SeedAccount and SeedCard exist for tests and local seeding.

func (s *Store) SeedUser(user domain.User) domain.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if user.ID == "" {
		user.ID = newID()
	}
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	s.users[user.ID] = user
	return user
}

func (s *Store) SeedAccount(account domain.Account) domain.Account {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.putAccount(account)
}

func (s *Store) SeedCard(card domain.Card) domain.Card {
	s.mu.Lock()
	defer s.mu.Unlock()
	if card.ID == "" {
		card.ID = newID()
	}
	if card.CreatedAt.IsZero() {
		card.CreatedAt = time.Now()
	}
	s.cards[card.AccountID] = append(s.cards[card.AccountID], card)
	return card
}

// putAccount assumes the lock is held.
func (s *Store) putAccount(account domain.Account) domain.Account {
	if account.ID == "" {
		account.ID = newID()
	}
	now := time.Now()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	if account.DailySpentResetAt.IsZero() {
		account.DailySpentResetAt = now
	}
	account.UpdatedAt = now
	s.accounts[account.ID] = account
	return account
}

// accountByNumber assumes the lock is held.
func (s *Store) accountByNumber(accountNumber string) (domain.Account, bool) {
	for _, account := range s.accounts {
		if account.AccountNumber == accountNumber {
			return account, true
		}
	}
	return domain.Account{}, false
}
