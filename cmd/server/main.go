package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vaultpay/wallet-core/internal/adapter/gateway"
	"github.com/vaultpay/wallet-core/internal/adapter/http/controller"
	"github.com/vaultpay/wallet-core/internal/adapter/http/middleware"
	"github.com/vaultpay/wallet-core/internal/adapter/http/router"
	"github.com/vaultpay/wallet-core/internal/adapter/repository/postgres"
	"github.com/vaultpay/wallet-core/internal/config"
	"github.com/vaultpay/wallet-core/internal/logger"
	"github.com/vaultpay/wallet-core/internal/usecase/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	migrateCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	if err := postgres.RunMigrations(migrateCtx, db, cfg.MigrationsDir); err != nil {
		cancel()
		log.Fatalf("run migrations: %v", err)
	}
	cancel()

	accountRepo := postgres.NewAccountRepository(db)
	cardRepo := postgres.NewCardRepository(db)
	userRepo := postgres.NewUserRepository(db)
	transactionRepo := postgres.NewTransactionRepository(db)
	paymentRepo := postgres.NewPaymentRepository(db)
	webhookLogRepo := postgres.NewWebhookLogRepository(db)

	metrics := services.NewMetrics()
	audit := services.NewLoggerAuditSink()
	gatewayClient := gateway.NewHTTPClient(cfg.GatewayBaseURL, cfg.GatewayAPIKey)

	riskService := services.NewRiskService(
		transactionRepo,
		cardRepo,
		cfg.SingleTransferCeiling,
		cfg.DailyTransferCeiling,
		cfg.VelocityThreshold,
	)
	transferService := services.NewTransferService(
		transactionRepo,
		accountRepo,
		cardRepo,
		riskService,
		audit,
		metrics,
		cfg.MaxRetries,
	)
	paymentService := services.NewPaymentService(
		paymentRepo,
		webhookLogRepo,
		accountRepo,
		userRepo,
		gatewayClient,
		audit,
		metrics,
		cfg.GatewayName,
		cfg.WebhookSecret,
		cfg.WebhookNotifyURL,
	)
	sweeperService := services.NewSweeperService(transactionRepo, transferService, metrics, services.SweeperConfig{
		PendingInterval: cfg.PendingInterval,
		ExpiryInterval:  cfg.ExpiryInterval,
		RetryInterval:   cfg.RetryInterval,
		MaxPendingAge:   cfg.MaxPendingAge,
		MaxRetries:      cfg.MaxRetries,
		BatchSize:       cfg.SweepBatchSize,
	})

	handler := router.New(
		controller.NewTransactionController(transferService),
		controller.NewPaymentController(paymentService),
		controller.NewWebhookController(paymentService),
		middleware.BasicAuth(cfg.ChannelID, cfg.ChannelKeyHash),
	)

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error { return sweeperService.RunPendingProcessor(groupCtx) })
	group.Go(func() error { return sweeperService.RunExpirySweeper(groupCtx) })
	group.Go(func() error { return sweeperService.RunRetrySweeper(groupCtx) })

	group.Go(func() error {
		logger.Info("http server starting", logger.Fields{"port": cfg.Port})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("server exited: %v", err)
	}

	logger.Info("server stopped", nil)
}
