package service_interfaces

import (
	"context"

	"github.com/vaultpay/wallet-core/internal/domain"
)

type RiskService interface {
	// Evaluate scores a candidate transaction before it is executed. The
	// transaction may not have a persisted identity yet.
	Evaluate(ctx context.Context, tx domain.Transaction, account domain.Account, signals domain.DeviceSignals) (domain.RiskAssessment, error)
}
