package services

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/vaultpay/wallet-core/internal/adapter/repository/repo_interfaces"
	"github.com/vaultpay/wallet-core/internal/domain"
	"github.com/vaultpay/wallet-core/internal/logger"
)

const (
	amountSignalWeight    = 30
	velocitySignalWeight  = 25
	newDeviceSignalWeight = 20
	newCardSignalWeight   = 15

	velocityWindow = time.Minute
	newCardWindow  = 24 * time.Hour
)

// velocityStatuses are the statuses that count towards the velocity signal:
// anything in flight or recently landed.
var velocityStatuses = []domain.TransactionStatus{
	domain.TransactionStatusPending,
	domain.TransactionStatusSending,
	domain.TransactionStatusCompleted,
}

type RiskService struct {
	transactionRepo       repo_interfaces.TransactionRepository
	cardRepo              repo_interfaces.CardRepository
	singleTransferCeiling decimal.Decimal
	dailyTransferCeiling  decimal.Decimal
	velocityThreshold     int
}

func NewRiskService(
	transactionRepo repo_interfaces.TransactionRepository,
	cardRepo repo_interfaces.CardRepository,
	singleTransferCeiling decimal.Decimal,
	dailyTransferCeiling decimal.Decimal,
	velocityThreshold int,
) *RiskService {
	return &RiskService{
		transactionRepo:       transactionRepo,
		cardRepo:              cardRepo,
		singleTransferCeiling: singleTransferCeiling,
		dailyTransferCeiling:  dailyTransferCeiling,
		velocityThreshold:     velocityThreshold,
	}
}

// Evaluate accumulates independently-weighted signals into a score and
// buckets it into a tier. Signals are additive; a transaction that trips
// several checks scores the sum of their weights.
func (s *RiskService) Evaluate(ctx context.Context, tx domain.Transaction, account domain.Account, signals domain.DeviceSignals) (domain.RiskAssessment, error) {
	assessment := domain.RiskAssessment{}
	now := time.Now()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	amountFlag, amountReason, err := s.amountSignal(ctx, tx, startOfDay)
	if err != nil {
		return domain.RiskAssessment{}, err
	}
	if amountFlag {
		assessment.Score += amountSignalWeight
		assessment.Reasons = append(assessment.Reasons, amountReason)
	}

	velocityCount, err := s.transactionRepo.CountByAccountSince(ctx, account.ID, velocityStatuses, now.Add(-velocityWindow))
	if err != nil {
		return domain.RiskAssessment{}, fmt.Errorf("risk velocity check: %w", err)
	}
	if velocityCount >= s.velocityThreshold {
		assessment.Score += velocitySignalWeight
		assessment.Reasons = append(assessment.Reasons, fmt.Sprintf("velocity: %d transactions within the last minute", velocityCount))
	}

	if !signals.Empty() {
		todayCount, err := s.transactionRepo.CountForUserSince(ctx, tx.UserID, startOfDay)
		if err != nil {
			return domain.RiskAssessment{}, fmt.Errorf("risk new-device check: %w", err)
		}
		// First activity of the day from a signalling device looks like a
		// fresh login; real device fingerprinting lives outside the core.
		if todayCount == 0 {
			assessment.Score += newDeviceSignalWeight
			assessment.Reasons = append(assessment.Reasons, "new device: first transaction for user today")
		}
	}

	recentCard, err := s.cardRepo.HasCardCreatedSince(ctx, account.ID, now.Add(-newCardWindow))
	if err != nil {
		return domain.RiskAssessment{}, fmt.Errorf("risk new-card check: %w", err)
	}
	if recentCard {
		assessment.Score += newCardSignalWeight
		assessment.Reasons = append(assessment.Reasons, "new card: active card added within the last 24 hours")
	}

	assessment.Tier = domain.TierForScore(assessment.Score)

	logger.Info("risk service assessment", logger.Fields{
		"accountId": account.ID,
		"userId":    tx.UserID,
		"score":     assessment.Score,
		"tier":      assessment.Tier,
		"reasons":   assessment.Reasons,
	})

	return assessment, nil
}

func (s *RiskService) amountSignal(ctx context.Context, tx domain.Transaction, startOfDay time.Time) (bool, string, error) {
	if tx.Amount.GreaterThan(s.singleTransferCeiling) {
		return true, fmt.Sprintf("amount: single transfer exceeds ceiling of %s", s.singleTransferCeiling.StringFixed(2)), nil
	}

	todaySum, err := s.transactionRepo.SumCompletedForUserSince(ctx, tx.UserID, startOfDay)
	if err != nil {
		return false, "", fmt.Errorf("risk amount check: %w", err)
	}
	if todaySum.Add(tx.Amount).GreaterThan(s.dailyTransferCeiling) {
		return true, fmt.Sprintf("amount: daily total would exceed ceiling of %s", s.dailyTransferCeiling.StringFixed(2)), nil
	}

	return false, "", nil
}
