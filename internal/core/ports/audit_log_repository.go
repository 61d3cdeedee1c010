package ports

import (
	"context"

	"labtrack/internal/core/domain/model/auditlog"
	"labtrack/internal/core/domain/model/kernel"
)

// AuditLogRepository appends log entries. Entries are never updated or deleted.
type AuditLogRepository interface {
	Add(ctx context.Context, entry *auditlog.Entry) error

	// ListByOrder returns an order's entries, oldest first.
	ListByOrder(ctx context.Context, orderID kernel.UUID) ([]*auditlog.Entry, error)
}
