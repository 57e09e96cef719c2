package repo_interfaces

import (
	"context"

	"github.com/vaultpay/wallet-core/internal/domain"
)

type UserRepository interface {
	GetByID(ctx context.Context, id string) (domain.User, error)
}
