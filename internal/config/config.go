package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const defaultDSN = "host=localhost port=5432 dbname=wallet_core_db user=postgres sslmode=disable"
const defaultPort = "8080"
const defaultChannelID = "WalletApp"
const defaultGatewayName = "paystack"

type Config struct {
	DatabaseDSN   string
	MigrationsDir string
	Port          string

	ChannelID      string
	ChannelKeyHash string

	WebhookSecret    string
	WebhookNotifyURL string
	GatewayName      string
	GatewayBaseURL   string
	GatewayAPIKey    string

	PendingInterval time.Duration
	ExpiryInterval  time.Duration
	RetryInterval   time.Duration
	MaxPendingAge   time.Duration
	MaxRetries      int
	SweepBatchSize  int

	SingleTransferCeiling decimal.Decimal
	DailyTransferCeiling  decimal.Decimal
	VelocityThreshold     int
}

func Load() (Config, error) {
	cfg := Config{
		DatabaseDSN:    envOrDefault("DATABASE_DSN", defaultDSN),
		MigrationsDir:  envOrDefault("MIGRATIONS_DIR", filepath.Join("migrations")),
		Port:           envOrDefault("SERVER_PORT", defaultPort),
		ChannelID:      envOrDefault("CHANNEL_ID", defaultChannelID),
		ChannelKeyHash: strings.TrimSpace(os.Getenv("CHANNEL_KEY_HASH")),
		WebhookSecret:    strings.TrimSpace(os.Getenv("WEBHOOK_SECRET")),
		WebhookNotifyURL: strings.TrimSpace(os.Getenv("WEBHOOK_NOTIFY_URL")),
		GatewayName:    envOrDefault("GATEWAY_NAME", defaultGatewayName),
		GatewayBaseURL: strings.TrimSpace(os.Getenv("GATEWAY_BASE_URL")),
		GatewayAPIKey:  strings.TrimSpace(os.Getenv("GATEWAY_API_KEY")),
	}

	var err error
	if cfg.PendingInterval, err = durationEnv("PENDING_SWEEP_INTERVAL", time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.ExpiryInterval, err = durationEnv("EXPIRY_SWEEP_INTERVAL", time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.RetryInterval, err = durationEnv("RETRY_SWEEP_INTERVAL", 5*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.MaxPendingAge, err = durationEnv("MAX_PENDING_AGE", 24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.MaxRetries, err = intEnv("MAX_RETRY_COUNT", 3); err != nil {
		return Config{}, err
	}
	if cfg.SweepBatchSize, err = intEnv("SWEEP_BATCH_SIZE", 100); err != nil {
		return Config{}, err
	}
	if cfg.VelocityThreshold, err = intEnv("RISK_VELOCITY_THRESHOLD", 10); err != nil {
		return Config{}, err
	}
	if cfg.SingleTransferCeiling, err = decimalEnv("RISK_SINGLE_TRANSFER_CEILING", "10000"); err != nil {
		return Config{}, err
	}
	if cfg.DailyTransferCeiling, err = decimalEnv("RISK_DAILY_TRANSFER_CEILING", "20000"); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return parsed, nil
}

func intEnv(key string, fallback int) (int, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", key, err)
	}
	return parsed, nil
}

func decimalEnv(key string, fallback string) (decimal.Decimal, error) {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		value = fallback
	}
	parsed, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse %s: %w", key, err)
	}
	return parsed, nil
}
