package ports

import (
	"context"
)

// UnitOfWorkFactory creates new UnitOfWork instances for each request/command.
type UnitOfWorkFactory interface {
	Create() UnitOfWork
}

// UnitOfWork is a transaction boundary. Repositories it returns are bound to the
// transaction opened by Begin, or to the plain connection before Begin.
type UnitOfWork interface {
	Begin(ctx context.Context) error

	// Commit commits the current transaction and then publishes the domain events
	// recorded by the aggregates written through it.
	Commit(ctx context.Context) error

	Rollback(ctx context.Context) error

	OrderRepository() OrderRepository

	AuditLogRepository() AuditLogRepository
}
