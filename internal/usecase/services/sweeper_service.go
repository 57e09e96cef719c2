package services

import (
	"context"
	"errors"
	"time"

	"github.com/vaultpay/wallet-core/internal/adapter/repository/repo_interfaces"
	"github.com/vaultpay/wallet-core/internal/domain"
	"github.com/vaultpay/wallet-core/internal/logger"
)

// SweeperConfig carries the cadence and limits for the three background
// sweepers.
type SweeperConfig struct {
	PendingInterval time.Duration
	ExpiryInterval  time.Duration
	RetryInterval   time.Duration
	MaxPendingAge   time.Duration
	MaxRetries      int
	BatchSize       int
}

// SweeperService owns the three maintenance loops: processing stalled
// PENDING transactions, expiring transactions that sat in PENDING too long,
// and replaying temporary failures. All loops are idempotent per item; a
// transaction advanced concurrently is skipped, never double-applied.
type SweeperService struct {
	transactionRepo repo_interfaces.TransactionRepository
	transfers       *TransferService
	metrics         *Metrics
	cfg             SweeperConfig
}

func NewSweeperService(
	transactionRepo repo_interfaces.TransactionRepository,
	transfers *TransferService,
	metrics *Metrics,
	cfg SweeperConfig,
) *SweeperService {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	return &SweeperService{
		transactionRepo: transactionRepo,
		transfers:       transfers,
		metrics:         metrics,
		cfg:             cfg,
	}
}

// RunPendingProcessor blocks until ctx is done, sweeping stalled PENDING
// transactions on every tick.
func (s *SweeperService) RunPendingProcessor(ctx context.Context) error {
	return s.runLoop(ctx, "pending_processor", s.cfg.PendingInterval, s.SweepPending)
}

// RunExpirySweeper blocks until ctx is done, expiring aged PENDING
// transactions on every tick.
func (s *SweeperService) RunExpirySweeper(ctx context.Context) error {
	return s.runLoop(ctx, "expiry_sweeper", s.cfg.ExpiryInterval, s.SweepExpired)
}

// RunRetrySweeper blocks until ctx is done, replaying temporarily-failed
// transactions on every tick.
func (s *SweeperService) RunRetrySweeper(ctx context.Context) error {
	return s.runLoop(ctx, "retry_sweeper", s.cfg.RetryInterval, s.SweepRetryable)
}

func (s *SweeperService) runLoop(ctx context.Context, name string, interval time.Duration, sweep func(context.Context) (int, error)) error {
	logger.Info("sweeper starting", logger.Fields{
		"sweeper":  name,
		"interval": interval.String(),
	})

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("sweeper stopping", logger.Fields{"sweeper": name})
			return ctx.Err()
		case <-ticker.C:
			processed, err := sweep(ctx)
			if err != nil {
				logger.Error("sweeper run failed", err, logger.Fields{"sweeper": name})
				s.metrics.ObserveSweeperRun(name, "error", float64(time.Now().Unix()))
				continue
			}
			if processed > 0 {
				logger.Info("sweeper run finished", logger.Fields{
					"sweeper":   name,
					"processed": processed,
				})
			}
			s.metrics.ObserveSweeperRun(name, "ok", float64(time.Now().Unix()))
		}
	}
}

// SweepPending picks up transactions stuck in PENDING outside the review
// queue and pushes each through the normal execution path. A transaction
// that moved on since the listing is skipped as a no-op.
func (s *SweeperService) SweepPending(ctx context.Context) (int, error) {
	transactions, err := s.transactionRepo.ListPendingForProcessing(ctx, s.cfg.BatchSize)
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, tx := range transactions {
		if ctx.Err() != nil {
			return processed, ctx.Err()
		}

		advanced, err := s.transfers.AdvancePending(ctx, tx, systemActor)
		if err != nil {
			var invalid *domain.InvalidTransitionError
			if errors.As(err, &invalid) {
				s.metrics.ObserveSweeperItem("pending_processor", "skipped")
				continue
			}
			logger.Error("pending processor item failed", err, logger.Fields{
				"transactionId": tx.ID,
			})
			s.metrics.ObserveSweeperItem("pending_processor", "error")
			continue
		}

		processed++
		s.metrics.ObserveSweeperItem("pending_processor", string(advanced.Status))
	}

	return processed, nil
}

// SweepExpired moves transactions that sat in PENDING beyond the maximum age
// to EXPIRED. No balances move; the transaction never reached execution.
func (s *SweeperService) SweepExpired(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-s.cfg.MaxPendingAge)
	transactions, err := s.transactionRepo.ListPendingOlderThan(ctx, cutoff, s.cfg.BatchSize)
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, tx := range transactions {
		if ctx.Err() != nil {
			return processed, ctx.Err()
		}

		expired := tx
		history, err := expired.TransitionTo(domain.TransactionStatusExpired, time.Now(), systemActor, "pending beyond maximum age")
		if err != nil {
			s.metrics.ObserveSweeperItem("expiry_sweeper", "skipped")
			continue
		}

		reason := domain.FailureTransactionExpired
		message := "transaction expired before execution"
		expired.FailureReason = &reason
		expired.FailureMessage = &message

		if _, err := s.transactionRepo.UpdateStatus(ctx, expired, history); err != nil {
			logger.Error("expiry sweeper item failed", err, logger.Fields{
				"transactionId": tx.ID,
			})
			s.metrics.ObserveSweeperItem("expiry_sweeper", "error")
			continue
		}

		logger.Info("transaction expired", logger.Fields{
			"transactionId": tx.ID,
			"pendingSince":  tx.StatusChangedAt.Format(time.RFC3339),
		})
		processed++
		s.metrics.ObserveSweeperItem("expiry_sweeper", "expired")
	}

	return processed, nil
}

// SweepRetryable replays transactions that failed for a temporary reason and
// still have retry budget. A replay that fails again is re-classified and
// stays FAILED for the next pass or for the expiry of its budget.
func (s *SweeperService) SweepRetryable(ctx context.Context) (int, error) {
	transactions, err := s.transactionRepo.ListRetryable(ctx, s.cfg.MaxRetries, s.cfg.BatchSize)
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, tx := range transactions {
		if ctx.Err() != nil {
			return processed, ctx.Err()
		}

		replayed, err := s.transfers.ReplayTransaction(ctx, tx, systemActor)
		if err != nil {
			logger.Error("retry sweeper item failed", err, logger.Fields{
				"transactionId": tx.ID,
			})
			s.metrics.ObserveSweeperItem("retry_sweeper", "error")
			continue
		}

		processed++
		s.metrics.ObserveSweeperItem("retry_sweeper", string(replayed.Status))
	}

	return processed, nil
}
