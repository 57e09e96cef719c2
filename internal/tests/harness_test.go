package services_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vaultpay/wallet-core/internal/adapter/gateway"
	"github.com/vaultpay/wallet-core/internal/adapter/repository/memory"
	"github.com/vaultpay/wallet-core/internal/domain"
	"github.com/vaultpay/wallet-core/internal/usecase/services"
)

const (
	testWebhookSecret = "test-webhook-secret"
	testMaxRetries    = 3
)

type gatewayStub struct {
	initiateErr  error
	verifyResult gateway.StatusResult
	verifyErr    error
	cancelErr    error
	cancelled    []string
}

func (g *gatewayStub) InitiatePayment(_ context.Context, req gateway.InitiateRequest) (gateway.InitiateResult, error) {
	if g.initiateErr != nil {
		return gateway.InitiateResult{}, g.initiateErr
	}
	return gateway.InitiateResult{
		PaymentURL:       "https://gateway.example/pay/" + req.RequestID,
		GatewayPaymentID: "gw-" + req.RequestID,
		RawResponse:      `{"status":"initiated"}`,
	}, nil
}

func (g *gatewayStub) VerifyPayment(_ context.Context, _ string) (gateway.StatusResult, error) {
	if g.verifyErr != nil {
		return gateway.StatusResult{}, g.verifyErr
	}
	return g.verifyResult, nil
}

func (g *gatewayStub) CancelPayment(_ context.Context, gatewayPaymentID string) error {
	if g.cancelErr != nil {
		return g.cancelErr
	}
	g.cancelled = append(g.cancelled, gatewayPaymentID)
	return nil
}

type harness struct {
	store        *memory.Store
	accounts     *memory.AccountRepository
	cards        *memory.CardRepository
	transactions *memory.TransactionRepository
	paymentsRepo *memory.PaymentRepository
	webhookLogs  *memory.WebhookLogRepository
	gateway      *gatewayStub

	transfers *services.TransferService
	payments  *services.PaymentService
	sweepers  *services.SweeperService
}

type riskLimits struct {
	singleCeiling     decimal.Decimal
	dailyCeiling      decimal.Decimal
	velocityThreshold int
}

// permissiveLimits keeps every transfer in the low tier so tests can focus
// on the money movement.
func permissiveLimits() riskLimits {
	return riskLimits{
		singleCeiling:     decimal.NewFromInt(1_000_000),
		dailyCeiling:      decimal.NewFromInt(2_000_000),
		velocityThreshold: 1000,
	}
}

// paranoidLimits trips the amount, velocity and new-device signals at once,
// pushing any signalling transfer into the high tier.
func paranoidLimits() riskLimits {
	return riskLimits{
		singleCeiling:     decimal.NewFromInt(10),
		dailyCeiling:      decimal.NewFromInt(20),
		velocityThreshold: 0,
	}
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWithLimits(t, permissiveLimits())
}

func newHarnessWithLimits(t *testing.T, limits riskLimits) *harness {
	t.Helper()

	store := memory.NewStore()
	h := &harness{
		store:        store,
		accounts:     memory.NewAccountRepository(store),
		cards:        memory.NewCardRepository(store),
		transactions: memory.NewTransactionRepository(store),
		paymentsRepo: memory.NewPaymentRepository(store),
		webhookLogs:  memory.NewWebhookLogRepository(store),
		gateway:      &gatewayStub{},
	}

	audit := services.NewLoggerAuditSink()
	risk := services.NewRiskService(
		h.transactions,
		h.cards,
		limits.singleCeiling,
		limits.dailyCeiling,
		limits.velocityThreshold,
	)

	h.transfers = services.NewTransferService(
		h.transactions,
		h.accounts,
		h.cards,
		risk,
		audit,
		nil,
		testMaxRetries,
	)
	h.payments = services.NewPaymentService(
		h.paymentsRepo,
		h.webhookLogs,
		h.accounts,
		memory.NewUserRepository(h.store),
		h.gateway,
		audit,
		nil,
		"paystack",
		testWebhookSecret,
		"https://core.example/webhooks/payments",
	)
	h.sweepers = services.NewSweeperService(h.transactions, h.transfers, nil, services.SweeperConfig{
		PendingInterval: time.Minute,
		ExpiryInterval:  time.Hour,
		RetryInterval:   time.Minute,
		MaxPendingAge:   24 * time.Hour,
		MaxRetries:      testMaxRetries,
		BatchSize:       100,
	})

	return h
}

// seedFundedAccount creates a user, an active account with the given balance
// and an active card on it.
func (h *harness) seedFundedAccount(t *testing.T, accountNumber, balance string) domain.Account {
	t.Helper()

	user := h.store.SeedUser(domain.User{FirstName: "Ada", LastName: "Obi", PhoneNumber: "0800000000"})
	account := h.store.SeedAccount(domain.Account{
		UserID:        user.ID,
		AccountNumber: accountNumber,
		Currency:      "NGN",
		Balance:       mustDecimal(t, balance),
		Status:        domain.AccountStatusActive,
		Type:          domain.AccountTypeRegular,
		DailySpent:    decimal.Zero,
	})
	h.store.SeedCard(domain.Card{
		AccountID: account.ID,
		Status:    domain.CardStatusActive,
		ExpiresAt: time.Now().Add(365 * 24 * time.Hour),
		CreatedAt: time.Now().Add(-30 * 24 * time.Hour),
	})
	return account
}

func (h *harness) accountBalance(t *testing.T, accountID string) decimal.Decimal {
	t.Helper()
	account, err := h.accounts.GetByID(context.Background(), accountID)
	if err != nil {
		t.Fatalf("load account %s: %v", accountID, err)
	}
	return account.Balance
}

func (h *harness) transaction(t *testing.T, id string) domain.Transaction {
	t.Helper()
	tx, err := h.transactions.GetByID(context.Background(), id)
	if err != nil {
		t.Fatalf("load transaction %s: %v", id, err)
	}
	return tx
}

func signWebhook(payload []byte) string {
	mac := hmac.New(sha256.New, []byte(testWebhookSecret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func mustDecimal(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("parse decimal %q: %v", value, err)
	}
	return parsed
}

func assertBalance(t *testing.T, got decimal.Decimal, want string) {
	t.Helper()
	if !got.Equal(decimal.RequireFromString(want)) {
		t.Fatalf("expected balance %s, got %s", want, got.StringFixed(2))
	}
}
