package commands

import (
	"context"
	"log/slog"
	"time"

	"labtrack/internal/core/domain/model/auditlog"
	"labtrack/internal/core/domain/model/kernel"
	"labtrack/internal/core/ports"
	"labtrack/internal/pkg/clock"
)

// AutoCancelResult lists the orders cancelled by one sweep.
type AutoCancelResult struct {
	CheckTime         time.Time
	CancelledOrderIDs []kernel.UUID
	Failed            int
}

// AutoCancelSettings holds the daily cutoff and the zone it is read in.
type AutoCancelSettings struct {
	Cutoff   kernel.TimeOfDay
	Location *time.Location
}

// AutoCancelOrdersCommandHandler cancels today's unfulfilled orders once the cutoff passed.
// Each order is cancelled in its own transaction; a failing order is logged and skipped.
type AutoCancelOrdersCommandHandler struct {
	uowFactory UoWFactory
	locker     ports.OrderLocker
	clock      clock.Clock
	settings   AutoCancelSettings
	logger     *slog.Logger
}

func NewAutoCancelOrdersCommandHandler(
	uowFactory UoWFactory,
	locker ports.OrderLocker,
	clk clock.Clock,
	settings AutoCancelSettings,
	logger *slog.Logger,
) AutoCancelOrdersCommandHandler {
	if settings.Location == nil {
		settings.Location = time.Local
	}
	return AutoCancelOrdersCommandHandler{
		uowFactory: uowFactory,
		locker:     locker,
		clock:      clk,
		settings:   settings,
		logger:     logger.With("component", "auto_cancel"),
	}
}

func (h AutoCancelOrdersCommandHandler) Handle(ctx context.Context, cmd AutoCancelOrdersCommand) (AutoCancelResult, error) {
	if err := cmd.Validate(); err != nil {
		return AutoCancelResult{}, err
	}
	if err := cmd.Actor().Require(kernel.CapabilityCancelOrders); err != nil {
		return AutoCancelResult{}, err
	}

	now := cmd.At()
	if now.IsZero() {
		now = h.clock.Now()
	}
	now = now.In(h.settings.Location)

	result := AutoCancelResult{CheckTime: now, CancelledOrderIDs: []kernel.UUID{}}
	if !h.settings.Cutoff.Reached(now) {
		return result, nil
	}

	from, to := kernel.DayWindow(now)
	candidates, err := h.uowFactory.Create().OrderRepository().GetAutoCancelCandidates(ctx, from, to)
	if err != nil {
		return AutoCancelResult{}, err
	}

	for _, id := range candidates {
		if err = h.cancel(ctx, id, now); err != nil {
			h.logger.ErrorContext(ctx, "Auto-cancel failed for order", "order_id", id.String(), "error", err)
			result.Failed++
			continue
		}
		result.CancelledOrderIDs = append(result.CancelledOrderIDs, id)
	}

	if len(candidates) > 0 {
		h.logger.InfoContext(ctx, "Auto-cancel sweep finished",
			"candidates", len(candidates),
			"cancelled", len(result.CancelledOrderIDs),
			"failed", result.Failed)
	}
	return result, nil
}

func (h AutoCancelOrdersCommandHandler) cancel(ctx context.Context, orderID kernel.UUID, now time.Time) error {
	release, err := h.locker.Lock(ctx, orderID)
	if err != nil {
		return err
	}
	defer func() {
		_ = release(context.WithoutCancel(ctx))
	}()

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	orderRepo := uow.OrderRepository()

	o, err := orderRepo.Get(ctx, orderID)
	if err != nil {
		return err
	}

	if err = o.AutoCancel(h.settings.Cutoff, now); err != nil {
		return err
	}

	if err = orderRepo.Update(ctx, o); err != nil {
		return err
	}

	entry, err := auditlog.NewEntry(o.ID(), kernel.SystemActorID, auditlog.ActionAutoCancelled,
		"not fulfilled by the "+h.settings.Cutoff.String()+" cutoff", now)
	if err != nil {
		return err
	}
	if err = uow.AuditLogRepository().Add(ctx, entry); err != nil {
		return err
	}

	return uow.Commit(ctx)
}
