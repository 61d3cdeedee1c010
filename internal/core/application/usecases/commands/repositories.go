// Package commands contains the operations that change lab orders.
// Every handler validates its command, checks the actor's capability before touching
// storage, and runs its writes inside one unit of work.
package commands

import (
	"context"

	"labtrack/internal/core/ports"
)

type (
	// TxManager handles database transaction lifecycle.
	TxManager interface {
		Begin(ctx context.Context) error
		Commit(ctx context.Context) error
		Rollback(ctx context.Context) error
	}

	// OrderRepoFactory provides access to the order repository within a transaction.
	OrderRepoFactory interface {
		OrderRepository() ports.OrderRepository
	}

	// AuditLogRepoFactory provides access to the audit log within a transaction.
	AuditLogRepoFactory interface {
		AuditLogRepository() ports.AuditLogRepository
	}

	// UoW writes an order change and its log entry atomically.
	//
	// Example:
	//   uow := factory.Create()
	//   err := uow.Begin(ctx)
	//   defer uow.Rollback(ctx)
	//
	//   o, err := uow.OrderRepository().Get(ctx, id)
	//   // ... change o
	//   err = uow.OrderRepository().Update(ctx, o)
	//   err = uow.AuditLogRepository().Add(ctx, entry)
	//
	//   err = uow.Commit(ctx)
	UoW interface {
		TxManager
		OrderRepoFactory
		AuditLogRepoFactory
	}

	// UoWFactory creates new unit of work instances.
	UoWFactory interface {
		Create() UoW
	}
)
