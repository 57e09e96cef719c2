package repo_interfaces

import (
	"context"

	"github.com/vaultpay/wallet-core/internal/domain"
)

// AccountRepository reads accounts for the transaction core. Balances are
// never written through this interface; every balance mutation happens
// inside the atomic operations on TransactionRepository and
// PaymentRepository so it commits together with its status transition.
type AccountRepository interface {
	Create(ctx context.Context, account domain.Account) (domain.Account, error)
	GetByID(ctx context.Context, id string) (domain.Account, error)
	GetByAccountNumber(ctx context.Context, accountNumber string) (domain.Account, error)
}
