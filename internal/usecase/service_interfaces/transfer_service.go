package service_interfaces

import (
	"context"

	"github.com/vaultpay/wallet-core/internal/adapter/http/models"
	"github.com/vaultpay/wallet-core/internal/commons"
)

type TransferService interface {
	CreateTransfer(ctx context.Context, req models.CreateTransferRequest) (commons.Response[models.TransactionResponse], error)
	CreatePayrollCredit(ctx context.Context, req models.PayrollCreditRequest) (commons.Response[models.TransactionResponse], error)
	GetTransaction(ctx context.Context, id string) (commons.Response[models.TransactionResponse], error)
	ListTransactions(ctx context.Context, accountID string, limit int) (commons.Response[models.TransactionListResponse], error)
	RetryTransaction(ctx context.Context, id string, requestingUserID string) (commons.Response[models.TransactionResponse], error)
	ListReviewQueue(ctx context.Context, limit int) (commons.Response[models.TransactionListResponse], error)
	ReviewTransaction(ctx context.Context, id string, req models.ReviewTransactionRequest) (commons.Response[models.TransactionResponse], error)
}
