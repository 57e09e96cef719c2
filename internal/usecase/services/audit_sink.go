package services

import (
	"context"

	"github.com/vaultpay/wallet-core/internal/logger"
)

// LoggerAuditSink writes audit events to the structured log. It satisfies
// the fire-and-forget contract: nothing it does can fail the caller.
type LoggerAuditSink struct{}

func NewLoggerAuditSink() *LoggerAuditSink {
	return &LoggerAuditSink{}
}

func (s *LoggerAuditSink) LogEvent(_ context.Context, entityType, entityID, action string, changes any) {
	logger.Info("audit event", logger.Fields{
		"entityType": entityType,
		"entityId":   entityID,
		"action":     action,
		"changes":    logger.SanitizePayload(changes),
	})
}
