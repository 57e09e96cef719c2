package service_interfaces

import "context"

// AuditSink receives fire-and-forget audit events. Implementations must not
// fail the calling operation.
type AuditSink interface {
	LogEvent(ctx context.Context, entityType, entityID, action string, changes any)
}
