package commands

import (
	"context"
	"fmt"

	"labtrack/internal/core/domain/model/auditlog"
	"labtrack/internal/core/domain/model/kernel"
	"labtrack/internal/core/domain/model/order"
	"labtrack/internal/core/domain/services"
	"labtrack/internal/core/ports"
	"labtrack/internal/pkg/clock"
)

type UpdateOrderStatusResult struct {
	OrderID        kernel.UUID
	OldStatus      order.Status
	NewStatus      order.Status
	TotalItems     int
	CompletedItems int
	AutoUpdate     bool
}

// UpdateOrderStatusCommandHandler runs the status aggregator on one order, appends the
// optional remarks and logs a "status_updated" entry.
type UpdateOrderStatusCommandHandler struct {
	uowFactory UoWFactory
	locker     ports.OrderLocker
	clock      clock.Clock
}

func NewUpdateOrderStatusCommandHandler(
	uowFactory UoWFactory,
	locker ports.OrderLocker,
	clk clock.Clock,
) UpdateOrderStatusCommandHandler {
	return UpdateOrderStatusCommandHandler{
		uowFactory: uowFactory,
		locker:     locker,
		clock:      clk,
	}
}

func (h UpdateOrderStatusCommandHandler) Handle(
	ctx context.Context,
	cmd UpdateOrderStatusCommand,
) (UpdateOrderStatusResult, error) {
	if err := cmd.Validate(); err != nil {
		return UpdateOrderStatusResult{}, err
	}
	if err := cmd.Actor().Require(kernel.CapabilityManageLabResults); err != nil {
		return UpdateOrderStatusResult{}, err
	}

	release, err := h.locker.Lock(ctx, cmd.OrderID())
	if err != nil {
		return UpdateOrderStatusResult{}, err
	}
	defer func() {
		_ = release(context.WithoutCancel(ctx))
	}()

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return UpdateOrderStatusResult{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()

	o, err := orderRepo.Get(ctx, cmd.OrderID())
	if err != nil {
		return UpdateOrderStatusResult{}, err
	}

	now := h.clock.Now()
	aggregation, err := services.NewOrderStatusAggregator().Apply(o, cmd.Status(), cmd.AutoUpdate(), now)
	if err != nil {
		return UpdateOrderStatusResult{}, err
	}
	o.AppendNote(cmd.Actor().ID(), cmd.Remarks(), now)

	if err = orderRepo.Update(ctx, o); err != nil {
		return UpdateOrderStatusResult{}, err
	}

	detail := fmt.Sprintf("%s -> %s", aggregation.OldStatus, aggregation.NewStatus)
	if aggregation.AutoUpdate {
		detail += " (computed)"
	}
	entry, err := auditlog.NewEntry(o.ID(), cmd.Actor().ID(), auditlog.ActionStatusUpdated, detail, now)
	if err != nil {
		return UpdateOrderStatusResult{}, err
	}
	if err = uow.AuditLogRepository().Add(ctx, entry); err != nil {
		return UpdateOrderStatusResult{}, err
	}

	if err = uow.Commit(ctx); err != nil {
		return UpdateOrderStatusResult{}, err
	}

	return UpdateOrderStatusResult{
		OrderID:        o.ID(),
		OldStatus:      aggregation.OldStatus,
		NewStatus:      aggregation.NewStatus,
		TotalItems:     aggregation.Counts.Total,
		CompletedItems: aggregation.Counts.Completed,
		AutoUpdate:     aggregation.AutoUpdate,
	}, nil
}
