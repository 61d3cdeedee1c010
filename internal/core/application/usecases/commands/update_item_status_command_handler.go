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

// UpdateItemStatusResult reports the item's new status and the recomputed order status.
type UpdateItemStatusResult struct {
	OrderID     kernel.UUID
	ItemStatus  order.ItemStatus
	OrderStatus order.Status
}

// UpdateItemStatusCommandHandler applies an item transition. Persisting the item,
// recomputing the order status and average turnaround time, and logging the change
// happen in one transaction.
type UpdateItemStatusCommandHandler struct {
	uowFactory UoWFactory
	locker     ports.OrderLocker
	clock      clock.Clock
	policy     *order.TransitionPolicy
}

func NewUpdateItemStatusCommandHandler(
	uowFactory UoWFactory,
	locker ports.OrderLocker,
	clk clock.Clock,
	policy *order.TransitionPolicy,
) UpdateItemStatusCommandHandler {
	if policy == nil {
		policy = order.DefaultTransitionPolicy()
	}
	return UpdateItemStatusCommandHandler{
		uowFactory: uowFactory,
		locker:     locker,
		clock:      clk,
		policy:     policy,
	}
}

func (h UpdateItemStatusCommandHandler) Handle(
	ctx context.Context,
	cmd UpdateItemStatusCommand,
) (UpdateItemStatusResult, error) {
	if err := cmd.Validate(); err != nil {
		return UpdateItemStatusResult{}, err
	}
	if err := cmd.Actor().Require(kernel.CapabilityManageLabResults); err != nil {
		return UpdateItemStatusResult{}, err
	}

	uow := h.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return UpdateItemStatusResult{}, err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()

	orderID, err := orderRepo.GetOrderIDByItemID(ctx, cmd.ItemID())
	if err != nil {
		return UpdateItemStatusResult{}, err
	}

	release, err := h.locker.Lock(ctx, orderID)
	if err != nil {
		return UpdateItemStatusResult{}, err
	}
	defer func() {
		_ = release(context.WithoutCancel(ctx))
	}()

	o, err := orderRepo.Get(ctx, orderID)
	if err != nil {
		return UpdateItemStatusResult{}, err
	}

	now := h.clock.Now()
	item, err := o.Item(cmd.ItemID())
	if err != nil {
		return UpdateItemStatusResult{}, err
	}
	from := item.Status()

	if err = o.TransitionItem(cmd.ItemID(), cmd.Status(), cmd.Remarks(), cmd.Actor(), h.policy, now); err != nil {
		return UpdateItemStatusResult{}, err
	}

	aggregation, err := services.NewOrderStatusAggregator().Recompute(o, now)
	if err != nil {
		return UpdateItemStatusResult{}, err
	}
	services.NewTurnaroundCalculator().Recalculate(o)

	if err = orderRepo.Update(ctx, o); err != nil {
		return UpdateItemStatusResult{}, err
	}

	detail := fmt.Sprintf("item %s (%s): %s -> %s", item.ID(), item.TestType(), from, cmd.Status())
	entry, err := auditlog.NewEntry(o.ID(), cmd.Actor().ID(), auditlog.ActionItemStatusUpdated, detail, now)
	if err != nil {
		return UpdateItemStatusResult{}, err
	}
	if err = uow.AuditLogRepository().Add(ctx, entry); err != nil {
		return UpdateItemStatusResult{}, err
	}

	if err = uow.Commit(ctx); err != nil {
		return UpdateItemStatusResult{}, err
	}

	return UpdateItemStatusResult{
		OrderID:     o.ID(),
		ItemStatus:  item.Status(),
		OrderStatus: aggregation.NewStatus,
	}, nil
}
