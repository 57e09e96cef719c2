package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vaultpay/wallet-core/internal/adapter/http/models"
	"github.com/vaultpay/wallet-core/internal/adapter/repository/repo_interfaces"
	"github.com/vaultpay/wallet-core/internal/commons"
	"github.com/vaultpay/wallet-core/internal/domain"
	"github.com/vaultpay/wallet-core/internal/logger"
	"github.com/vaultpay/wallet-core/internal/usecase/service_interfaces"
)

const systemActor = "system"

type TransferService struct {
	transactionRepo repo_interfaces.TransactionRepository
	accountRepo     repo_interfaces.AccountRepository
	cardRepo        repo_interfaces.CardRepository
	riskService     service_interfaces.RiskService
	audit           service_interfaces.AuditSink
	metrics         *Metrics
	maxRetries      int
}

func NewTransferService(
	transactionRepo repo_interfaces.TransactionRepository,
	accountRepo repo_interfaces.AccountRepository,
	cardRepo repo_interfaces.CardRepository,
	riskService service_interfaces.RiskService,
	audit service_interfaces.AuditSink,
	metrics *Metrics,
	maxRetries int,
) *TransferService {
	return &TransferService{
		transactionRepo: transactionRepo,
		accountRepo:     accountRepo,
		cardRepo:        cardRepo,
		riskService:     riskService,
		audit:           audit,
		metrics:         metrics,
		maxRetries:      maxRetries,
	}
}

func (s *TransferService) CreateTransfer(ctx context.Context, req models.CreateTransferRequest) (commons.Response[models.TransactionResponse], error) {
	logger.Info("transfer service create transfer request", logger.Fields{
		"payload": logger.SanitizePayload(req),
		"userId":  req.RequestingUserID,
	})

	if err := req.Validate(); err != nil {
		return commons.ErrorResponse[models.TransactionResponse]("validation failed", err.Error()), err
	}

	tx, pendingReview, err := s.createTransfer(ctx, transferParams{
		sourceAccountID:   strings.TrimSpace(req.SourceAccountID),
		destinationNumber: strings.TrimSpace(req.DestinationAccountNumber),
		amount:            req.Amount,
		purpose:           strings.TrimSpace(req.Purpose),
		idempotencyKey:    strings.TrimSpace(req.IdempotencyKey),
		requestingUserID:  strings.TrimSpace(req.RequestingUserID),
		signals: domain.DeviceSignals{
			DeviceID:  req.DeviceID,
			IPAddress: req.IPAddress,
			UserAgent: req.UserAgent,
		},
		checkOwnership: true,
	})
	if err != nil {
		s.metrics.ObserveTransfer("rejected")
		return transferErrorResponse(err), err
	}

	if pendingReview {
		s.metrics.ObserveTransfer("pending_review")
		return commons.SuccessResponse("transfer accepted for review", mapTransactionToResponse(tx)), nil
	}
	if tx.Status == domain.TransactionStatusFailed {
		s.metrics.ObserveTransfer("failed")
		return commons.ErrorResponse[models.TransactionResponse]("transfer failed", failureMessage(tx)), errors.New(failureMessage(tx))
	}

	s.metrics.ObserveTransfer("completed")
	return commons.SuccessResponse("transfer completed", mapTransactionToResponse(tx)), nil
}

func (s *TransferService) CreatePayrollCredit(ctx context.Context, req models.PayrollCreditRequest) (commons.Response[models.TransactionResponse], error) {
	logger.Info("transfer service payroll credit request", logger.Fields{
		"payload": logger.SanitizePayload(req),
	})

	if err := req.Validate(); err != nil {
		return commons.ErrorResponse[models.TransactionResponse]("validation failed", err.Error()), err
	}

	tx, _, err := s.createTransfer(ctx, transferParams{
		sourceAccountID:   strings.TrimSpace(req.SourceAccountID),
		destinationNumber: strings.TrimSpace(req.DestinationAccountNumber),
		amount:            req.Amount,
		purpose:           strings.TrimSpace(req.Purpose),
		idempotencyKey:    strings.TrimSpace(req.IdempotencyKey),
		checkOwnership:    false,
	})
	if err != nil {
		s.metrics.ObserveTransfer("rejected")
		return transferErrorResponse(err), err
	}
	if tx.Status == domain.TransactionStatusFailed {
		s.metrics.ObserveTransfer("failed")
		return commons.ErrorResponse[models.TransactionResponse]("transfer failed", failureMessage(tx)), errors.New(failureMessage(tx))
	}

	s.metrics.ObserveTransfer("completed")
	return commons.SuccessResponse("payroll credit completed", mapTransactionToResponse(tx)), nil
}

type transferParams struct {
	sourceAccountID   string
	destinationNumber string
	amount            decimal.Decimal
	purpose           string
	idempotencyKey    string
	requestingUserID  string
	signals           domain.DeviceSignals
	checkOwnership    bool
}

// createTransfer runs the full orchestration: validation, idempotency,
// destination resolution, balance check, risk gate, then the atomic
// execution. The returned flag reports a high-risk transaction parked for
// manual review. Failures after the transaction exists are recorded as a
// FAILED transaction rather than surfaced as bare errors.
func (s *TransferService) createTransfer(ctx context.Context, p transferParams) (domain.Transaction, bool, error) {
	if p.amount.LessThanOrEqual(decimal.Zero) {
		return domain.Transaction{}, false, fmt.Errorf("amount must be greater than zero")
	}

	source, err := s.accountRepo.GetByID(ctx, p.sourceAccountID)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return domain.Transaction{}, false, domain.ErrRecordNotFound
		}
		return domain.Transaction{}, false, fmt.Errorf("load source account: %w", err)
	}

	if p.checkOwnership && source.UserID != p.requestingUserID {
		return domain.Transaction{}, false, domain.ErrNotAccountOwner
	}
	if err := accountUsable(source); err != nil {
		return domain.Transaction{}, false, err
	}

	hasCard, err := s.cardRepo.HasValidCard(ctx, source.ID, time.Now())
	if err != nil {
		return domain.Transaction{}, false, fmt.Errorf("check cards: %w", err)
	}
	if !hasCard {
		return domain.Transaction{}, false, domain.ErrNoActiveCard
	}

	// Exactly-once contract for client retries: an existing transaction for
	// this (account, key) pair is returned unchanged, with no side effects.
	if p.idempotencyKey != "" {
		existing, err := s.transactionRepo.GetByIdempotencyKey(ctx, source.ID, p.idempotencyKey)
		if err == nil {
			logger.Info("transfer service idempotent replay", logger.Fields{
				"transactionId":  existing.ID,
				"idempotencyKey": p.idempotencyKey,
			})
			s.metrics.ObserveTransfer("duplicate")
			return existing, awaitingReview(existing), nil
		}
		if !errors.Is(err, domain.ErrRecordNotFound) {
			return domain.Transaction{}, false, fmt.Errorf("idempotency lookup: %w", err)
		}
	}

	destination, err := s.resolveDestination(ctx, p.destinationNumber)
	if err != nil {
		return domain.Transaction{}, false, err
	}
	if destination.ID == source.ID {
		return domain.Transaction{}, false, fmt.Errorf("source and destination accounts cannot be the same")
	}
	if !strings.EqualFold(source.Currency, destination.Currency) {
		return domain.Transaction{}, false, domain.ErrCurrencyMismatch
	}

	if source.Balance.LessThan(p.amount) {
		return domain.Transaction{}, false, domain.ErrInsufficientBalance
	}

	now := time.Now()
	userID := p.requestingUserID
	if userID == "" {
		userID = source.UserID
	}

	tx := domain.Transaction{
		UserID:                   userID,
		SourceAccountID:          source.ID,
		DestinationAccountNumber: destination.AccountNumber,
		Amount:                   p.amount,
		Currency:                 source.Currency,
		Type:                     domain.TransactionTypeDebit,
		Category:                 domain.CategoryTransfer,
		Status:                   domain.TransactionStatusCreated,
		Purpose:                  p.purpose,
		StatusChangedAt:          now,
	}
	if p.idempotencyKey != "" {
		key := p.idempotencyKey
		tx.IdempotencyKey = &key
	}

	// The risk gate applies to client-initiated transfers only; payroll
	// credits are system-initiated.
	if p.checkOwnership {
		assessment, err := s.riskService.Evaluate(ctx, tx, source, p.signals)
		if err != nil {
			return domain.Transaction{}, false, fmt.Errorf("risk evaluation: %w", err)
		}
		score := assessment.Score
		tier := assessment.Tier
		tx.RiskScore = &score
		tx.RiskTier = &tier

		if tier == domain.RiskTierHigh {
			return s.parkForReview(ctx, tx, assessment)
		}
	}

	// Created -> Pending -> Sending collapsed into the creation step; no
	// history is emitted because the transaction has no identity yet.
	if _, err := tx.TransitionTo(domain.TransactionStatusPending, now, "", ""); err != nil {
		return domain.Transaction{}, false, err
	}
	if _, err := tx.TransitionTo(domain.TransactionStatusSending, now, "", ""); err != nil {
		return domain.Transaction{}, false, err
	}

	created, err := s.transactionRepo.Create(ctx, tx)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateRequest) && p.idempotencyKey != "" {
			// Lost the uniqueness race to a concurrent identical request.
			existing, lookupErr := s.transactionRepo.GetByIdempotencyKey(ctx, source.ID, p.idempotencyKey)
			if lookupErr == nil {
				s.metrics.ObserveTransfer("duplicate")
				return existing, awaitingReview(existing), nil
			}
		}
		return domain.Transaction{}, false, fmt.Errorf("create transaction: %w", err)
	}

	executed, err := s.executeSending(ctx, created, destination.ID, userID)
	if err != nil {
		return executed, false, nil
	}

	s.audit.LogEvent(ctx, "transaction", executed.ID, "transfer_completed", logger.Fields{
		"sourceAccountId": source.ID,
		"destination":     destination.AccountNumber,
		"amount":          p.amount.StringFixed(2),
	})

	return executed, false, nil
}

// parkForReview persists a high-risk transaction in PENDING where only
// manual review can move it.
func (s *TransferService) parkForReview(ctx context.Context, tx domain.Transaction, assessment domain.RiskAssessment) (domain.Transaction, bool, error) {
	if _, err := tx.TransitionTo(domain.TransactionStatusPending, time.Now(), "", ""); err != nil {
		return domain.Transaction{}, false, err
	}

	created, err := s.transactionRepo.Create(ctx, tx)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateRequest) && tx.IdempotencyKey != nil {
			existing, lookupErr := s.transactionRepo.GetByIdempotencyKey(ctx, tx.SourceAccountID, *tx.IdempotencyKey)
			if lookupErr == nil {
				return existing, awaitingReview(existing), nil
			}
		}
		return domain.Transaction{}, false, fmt.Errorf("create transaction: %w", err)
	}

	s.audit.LogEvent(ctx, "transaction", created.ID, "transfer_parked_for_review", logger.Fields{
		"score":   assessment.Score,
		"reasons": assessment.Reasons,
	})

	return created, true, nil
}

// executeSending finishes a transaction already persisted in SENDING: the
// debit, the credit and the COMPLETED transition commit as one unit. On
// failure the transaction is moved to FAILED with a classified reason and
// the FAILED transaction is returned with a nil error consumed by callers
// through the status.
func (s *TransferService) executeSending(ctx context.Context, tx domain.Transaction, destinationAccountID, actor string) (domain.Transaction, error) {
	completed := tx
	history, err := completed.TransitionTo(domain.TransactionStatusCompleted, time.Now(), actor, "")
	if err != nil {
		return s.failTransaction(ctx, tx, err, actor), err
	}

	params := repo_interfaces.CompleteTransferParams{
		Transaction:          completed,
		SourceAccountID:      tx.SourceAccountID,
		DestinationAccountID: destinationAccountID,
		Amount:               tx.Amount,
	}
	if history != nil {
		params.History = []domain.StatusHistory{*history}
	}

	if err := s.transactionRepo.CompleteTransfer(ctx, params); err != nil {
		logger.Error("transfer service execution failed", err, logger.Fields{
			"transactionId": tx.ID,
		})
		return s.failTransaction(ctx, tx, err, actor), err
	}

	completed.FailureReason = nil
	completed.FailureMessage = nil
	return completed, nil
}

// failTransaction classifies the error and records the FAILED state so the
// ledger keeps an explainable terminal state for every attempted transfer.
func (s *TransferService) failTransaction(ctx context.Context, tx domain.Transaction, cause error, actor string) domain.Transaction {
	classification := domain.Classify(cause)

	failed := tx
	history, err := failed.TransitionTo(domain.TransactionStatusFailed, time.Now(), actor, classification.Message)
	if err != nil {
		// Already advanced by a concurrent path; leave it alone.
		logger.Error("transfer service could not record failure", err, logger.Fields{
			"transactionId": tx.ID,
			"status":        tx.Status,
		})
		return tx
	}

	reason := classification.Reason
	message := classification.Message
	failed.FailureReason = &reason
	failed.FailureMessage = &message

	updated, err := s.transactionRepo.UpdateStatus(ctx, failed, history)
	if err != nil {
		logger.Error("transfer service persist failure state failed", err, logger.Fields{
			"transactionId": tx.ID,
		})
		return failed
	}

	s.audit.LogEvent(ctx, "transaction", updated.ID, "transfer_failed", logger.Fields{
		"reason":    reason,
		"temporary": classification.Temporary,
	})

	return updated
}

func (s *TransferService) resolveDestination(ctx context.Context, accountNumber string) (domain.Account, error) {
	destination, err := s.accountRepo.GetByAccountNumber(ctx, accountNumber)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return domain.Account{}, domain.ErrDestinationNotFound
		}
		return domain.Account{}, fmt.Errorf("resolve destination: %w", err)
	}
	if destination.Status != domain.AccountStatusActive {
		return domain.Account{}, domain.ErrDestinationNotActive
	}
	return destination, nil
}

func (s *TransferService) GetTransaction(ctx context.Context, id string) (commons.Response[models.TransactionResponse], error) {
	if strings.TrimSpace(id) == "" {
		return commons.ErrorResponse[models.TransactionResponse]("validation failed", "id is required"), fmt.Errorf("id is required")
	}

	tx, err := s.transactionRepo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return commons.ErrorResponse[models.TransactionResponse]("Transaction not found"), err
		}
		return commons.ErrorResponse[models.TransactionResponse]("failed to load transaction", "Unable to load transaction right now"), err
	}

	return commons.SuccessResponse("transaction found", mapTransactionToResponse(tx)), nil
}

func (s *TransferService) ListTransactions(ctx context.Context, accountID string, limit int) (commons.Response[models.TransactionListResponse], error) {
	if strings.TrimSpace(accountID) == "" {
		return commons.ErrorResponse[models.TransactionListResponse]("validation failed", "accountId is required"), fmt.Errorf("accountId is required")
	}
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	transactions, err := s.transactionRepo.ListByAccount(ctx, strings.TrimSpace(accountID), limit)
	if err != nil {
		return commons.ErrorResponse[models.TransactionListResponse]("failed to list transactions", "Unable to list transactions right now"), err
	}

	return commons.SuccessResponse("transactions found", mapTransactionList(transactions)), nil
}

// RetryTransaction is the manual counterpart of the auto-retry sweeper. It
// honors the same discipline: only temporarily-failed transactions below the
// retry ceiling may be replayed, and the retry count is incremented before
// the attempt.
func (s *TransferService) RetryTransaction(ctx context.Context, id string, requestingUserID string) (commons.Response[models.TransactionResponse], error) {
	logger.Info("transfer service manual retry request", logger.Fields{
		"transactionId": id,
		"userId":        requestingUserID,
	})

	tx, err := s.transactionRepo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return commons.ErrorResponse[models.TransactionResponse]("Transaction not found"), err
		}
		return commons.ErrorResponse[models.TransactionResponse]("failed to retry transaction", "Unable to retry right now"), err
	}

	source, err := s.accountRepo.GetByID(ctx, tx.SourceAccountID)
	if err != nil {
		return commons.ErrorResponse[models.TransactionResponse]("failed to retry transaction", "Unable to retry right now"), err
	}
	if source.UserID != strings.TrimSpace(requestingUserID) {
		return commons.ErrorResponse[models.TransactionResponse]("validation failed", domain.ErrNotAccountOwner.Error()), domain.ErrNotAccountOwner
	}

	if !retryEligible(tx, s.maxRetries) {
		err := fmt.Errorf("transaction is not eligible for retry")
		return commons.ErrorResponse[models.TransactionResponse]("validation failed", err.Error()), err
	}

	retried, err := s.ReplayTransaction(ctx, tx, requestingUserID)
	if err != nil {
		return commons.ErrorResponse[models.TransactionResponse]("failed to retry transaction", "Unable to retry right now"), err
	}
	if retried.Status == domain.TransactionStatusFailed {
		return commons.ErrorResponse[models.TransactionResponse]("transfer failed", failureMessage(retried)), errors.New(failureMessage(retried))
	}

	return commons.SuccessResponse("transfer completed", mapTransactionToResponse(retried)), nil
}

// ReplayTransaction re-runs a failed transaction: retry count up front, back
// to PENDING, destination and balance re-validated, then the normal
// SENDING -> COMPLETED execution. Also used by the auto-retry sweeper.
func (s *TransferService) ReplayTransaction(ctx context.Context, tx domain.Transaction, actor string) (domain.Transaction, error) {
	history := tx.ResetForRetry(time.Now(), actor)
	pending, err := s.transactionRepo.UpdateStatus(ctx, tx, history)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("reset for retry: %w", err)
	}

	return s.AdvancePending(ctx, pending, actor)
}

// AdvancePending pushes a PENDING transaction through SENDING to COMPLETED.
// Used by the pending processor, retries and review approval. A concurrent
// advance surfaces as InvalidTransitionError from the SENDING transition and
// must be treated as a no-op skip by sweepers.
func (s *TransferService) AdvancePending(ctx context.Context, tx domain.Transaction, actor string) (domain.Transaction, error) {
	destination, err := s.resolveDestination(ctx, tx.DestinationAccountNumber)
	if err != nil {
		return s.failTransaction(ctx, tx, err, actor), nil
	}

	source, err := s.accountRepo.GetByID(ctx, tx.SourceAccountID)
	if err != nil {
		return s.failTransaction(ctx, tx, err, actor), nil
	}
	if usableErr := accountUsable(source); usableErr != nil {
		return s.failTransaction(ctx, tx, usableErr, actor), nil
	}
	if source.Balance.LessThan(tx.Amount) {
		return s.failTransaction(ctx, tx, domain.ErrInsufficientBalance, actor), nil
	}

	sending := tx
	history, err := sending.TransitionTo(domain.TransactionStatusSending, time.Now(), actor, "")
	if err != nil {
		return domain.Transaction{}, err
	}
	sending, err = s.transactionRepo.UpdateStatus(ctx, sending, history)
	if err != nil {
		return domain.Transaction{}, fmt.Errorf("advance to sending: %w", err)
	}

	executed, _ := s.executeSending(ctx, sending, destination.ID, actor)
	return executed, nil
}

func (s *TransferService) ListReviewQueue(ctx context.Context, limit int) (commons.Response[models.TransactionListResponse], error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	transactions, err := s.transactionRepo.ListAwaitingReview(ctx, limit)
	if err != nil {
		return commons.ErrorResponse[models.TransactionListResponse]("failed to list review queue", "Unable to list review queue right now"), err
	}

	return commons.SuccessResponse("review queue", mapTransactionList(transactions)), nil
}

// ReviewTransaction resolves a high-risk transaction: approval executes the
// transfer, rejection fails it with a risk-blocked reason.
func (s *TransferService) ReviewTransaction(ctx context.Context, id string, req models.ReviewTransactionRequest) (commons.Response[models.TransactionResponse], error) {
	logger.Info("transfer service review decision", logger.Fields{
		"transactionId": id,
		"approve":       req.Approve,
		"reviewerId":    req.ReviewerID,
	})

	if err := req.Validate(); err != nil {
		return commons.ErrorResponse[models.TransactionResponse]("validation failed", err.Error()), err
	}

	tx, err := s.transactionRepo.GetByID(ctx, strings.TrimSpace(id))
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return commons.ErrorResponse[models.TransactionResponse]("Transaction not found"), err
		}
		return commons.ErrorResponse[models.TransactionResponse]("failed to review transaction", "Unable to review right now"), err
	}

	if tx.Status != domain.TransactionStatusPending || tx.RiskTier == nil || *tx.RiskTier != domain.RiskTierHigh {
		err := fmt.Errorf("transaction is not awaiting review")
		return commons.ErrorResponse[models.TransactionResponse]("validation failed", err.Error()), err
	}

	if req.Approve {
		executed, err := s.AdvancePending(ctx, tx, req.ReviewerID)
		if err != nil {
			return commons.ErrorResponse[models.TransactionResponse]("failed to review transaction", "Unable to review right now"), err
		}

		s.audit.LogEvent(ctx, "transaction", tx.ID, "review_approved", logger.Fields{
			"reviewerId": req.ReviewerID,
		})

		if executed.Status == domain.TransactionStatusFailed {
			return commons.ErrorResponse[models.TransactionResponse]("transfer failed", failureMessage(executed)), errors.New(failureMessage(executed))
		}
		return commons.SuccessResponse("transfer completed", mapTransactionToResponse(executed)), nil
	}

	rejected := s.failTransaction(ctx, tx, domain.NewFailureError(domain.FailureRiskBlocked, errors.New(strings.TrimSpace(req.Reason))), req.ReviewerID)

	s.audit.LogEvent(ctx, "transaction", tx.ID, "review_rejected", logger.Fields{
		"reviewerId": req.ReviewerID,
		"reason":     req.Reason,
	})

	return commons.SuccessResponse("transfer rejected", mapTransactionToResponse(rejected)), nil
}

// awaitingReview reports whether a transaction is parked for manual
// review. Low-tier transactions pass through PENDING while the sweeper
// advances them, so status alone is not enough.
func awaitingReview(tx domain.Transaction) bool {
	return tx.Status == domain.TransactionStatusPending &&
		tx.RiskTier != nil && *tx.RiskTier == domain.RiskTierHigh
}

func accountUsable(account domain.Account) error {
	switch account.Status {
	case domain.AccountStatusActive:
		return nil
	case domain.AccountStatusFrozen:
		return domain.ErrAccountFrozen
	case domain.AccountStatusClosed:
		return domain.ErrAccountClosed
	default:
		return domain.ErrAccountNotActive
	}
}

func retryEligible(tx domain.Transaction, maxRetries int) bool {
	if tx.Status != domain.TransactionStatusFailed || tx.RetryCount >= maxRetries || tx.FailureReason == nil {
		return false
	}
	for _, reason := range domain.TemporaryFailureReasons {
		if *tx.FailureReason == reason {
			return true
		}
	}
	return false
}

func failureMessage(tx domain.Transaction) string {
	if tx.FailureMessage != nil && *tx.FailureMessage != "" {
		return *tx.FailureMessage
	}
	if tx.FailureReason != nil {
		return string(*tx.FailureReason)
	}
	return "transfer failed"
}

func transferErrorResponse(err error) commons.Response[models.TransactionResponse] {
	switch {
	case errors.Is(err, domain.ErrRecordNotFound):
		return commons.ErrorResponse[models.TransactionResponse]("Source account not found")
	case errors.Is(err, domain.ErrDestinationNotFound):
		return commons.ErrorResponse[models.TransactionResponse]("Destination account not found")
	case errors.Is(err, domain.ErrInsufficientBalance):
		return commons.ErrorResponse[models.TransactionResponse]("Insufficient balance", err.Error())
	case errors.Is(err, domain.ErrNoActiveCard),
		errors.Is(err, domain.ErrNotAccountOwner),
		errors.Is(err, domain.ErrAccountFrozen),
		errors.Is(err, domain.ErrAccountClosed),
		errors.Is(err, domain.ErrAccountNotActive),
		errors.Is(err, domain.ErrDestinationNotActive),
		errors.Is(err, domain.ErrCurrencyMismatch):
		return commons.ErrorResponse[models.TransactionResponse]("validation failed", err.Error())
	default:
		return commons.ErrorResponse[models.TransactionResponse]("failed to process transfer", "Unable to process transfer right now")
	}
}

func mapTransactionToResponse(tx domain.Transaction) models.TransactionResponse {
	response := models.TransactionResponse{
		ID:                       tx.ID,
		SourceAccountID:          tx.SourceAccountID,
		DestinationAccountNumber: tx.DestinationAccountNumber,
		Amount:                   tx.Amount,
		Currency:                 tx.Currency,
		Type:                     string(tx.Type),
		Category:                 string(tx.Category),
		Status:                   string(tx.Status),
		Purpose:                  tx.Purpose,
		RetryCount:               tx.RetryCount,
		RiskScore:                tx.RiskScore,
		StatusChangedAt:          tx.StatusChangedAt.Format(time.RFC3339),
		CreatedAt:                tx.CreatedAt.Format(time.RFC3339),
	}
	if tx.FailureReason != nil {
		response.FailureReason = string(*tx.FailureReason)
	}
	if tx.FailureMessage != nil {
		response.FailureMessage = *tx.FailureMessage
	}
	if tx.RiskTier != nil {
		response.RiskTier = string(*tx.RiskTier)
	}
	return response
}

func mapTransactionList(transactions []domain.Transaction) models.TransactionListResponse {
	out := models.TransactionListResponse{Transactions: make([]models.TransactionResponse, 0, len(transactions))}
	for _, tx := range transactions {
		out.Transactions = append(out.Transactions, mapTransactionToResponse(tx))
	}
	return out
}
