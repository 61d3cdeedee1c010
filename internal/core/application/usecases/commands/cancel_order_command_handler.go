package commands

import (
	"context"
	"time"

	"labtrack/internal/core/domain/model/auditlog"
	"labtrack/internal/core/domain/model/kernel"
	"labtrack/internal/core/ports"
	"labtrack/internal/pkg/clock"
)

type CancelOrderResult struct {
	OrderID     kernel.UUID
	CancelledBy kernel.UUID
	CancelledAt time.Time
}

// CancelOrderCommandHandler cancels an order in one transaction. Completed and already
// cancelled orders are rejected with a Conflict error before anything is written.
type CancelOrderCommandHandler struct {
	uowFactory UoWFactory
	locker     ports.OrderLocker
	clock      clock.Clock
}

func NewCancelOrderCommandHandler(
	uowFactory UoWFactory,
	locker ports.OrderLocker,
	clk clock.Clock,
) CancelOrderCommandHandler {
	return CancelOrderCommandHandler{
		uowFactory: uowFactory,
		locker:     locker,
		clock:      clk,
	}
}

func (h CancelOrderCommandHandler) Handle(ctx context.Context, cmd CancelOrderCommand) (CancelOrderResult, error) {
	if err := cmd.Validate(); err != nil {
		return CancelOrderResult{}, err
	}
	if err := cmd.Actor().Require(kernel.CapabilityCancelOrders); err != nil {
		return CancelOrderResult{}, err
	}

	release, err := h.locker.Lock(ctx, cmd.OrderID())
	if err != nil {
		return CancelOrderResult{}, err
	}
	defer func() {
		_ = release(context.WithoutCancel(ctx))
	}()

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return CancelOrderResult{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()

	o, err := orderRepo.Get(ctx, cmd.OrderID())
	if err != nil {
		return CancelOrderResult{}, err
	}

	now := h.clock.Now()
	if err = o.Cancel(cmd.Actor(), cmd.Reason(), now); err != nil {
		return CancelOrderResult{}, err
	}

	if err = orderRepo.Update(ctx, o); err != nil {
		return CancelOrderResult{}, err
	}

	entry, err := auditlog.NewEntry(o.ID(), cmd.Actor().ID(), auditlog.ActionCancelled, cmd.Reason(), now)
	if err != nil {
		return CancelOrderResult{}, err
	}
	if err = uow.AuditLogRepository().Add(ctx, entry); err != nil {
		return CancelOrderResult{}, err
	}

	if err = uow.Commit(ctx); err != nil {
		return CancelOrderResult{}, err
	}

	return CancelOrderResult{
		OrderID:     o.ID(),
		CancelledBy: cmd.Actor().ID(),
		CancelledAt: now,
	}, nil
}
