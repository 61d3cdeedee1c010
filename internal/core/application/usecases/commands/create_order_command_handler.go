package commands

import (
	"context"
	"strings"

	"labtrack/internal/core/domain/model/auditlog"
	"labtrack/internal/core/domain/model/kernel"
	"labtrack/internal/core/domain/model/order"
	"labtrack/internal/pkg/clock"
)

// CreateOrderCommandHandler places orders. Items start pending and a "created" entry is logged.
type CreateOrderCommandHandler struct {
	uowFactory UoWFactory
	clock      clock.Clock
}

func NewCreateOrderCommandHandler(uowFactory UoWFactory, clk clock.Clock) CreateOrderCommandHandler {
	return CreateOrderCommandHandler{
		uowFactory: uowFactory,
		clock:      clk,
	}
}

func (h CreateOrderCommandHandler) Handle(ctx context.Context, cmd CreateOrderCommand) error {
	if err := cmd.Validate(); err != nil {
		return err
	}
	if err := cmd.Actor().Require(kernel.CapabilityPlaceOrders); err != nil {
		return err
	}

	now := h.clock.Now()
	o, err := order.NewOrder(cmd.OrderID(), cmd.PatientID(), cmd.Actor().ID(), now, cmd.TestTypes())
	if err != nil {
		return err
	}
	o.AppendNote(cmd.Actor().ID(), cmd.Remarks(), now)

	entry, err := auditlog.NewEntry(o.ID(), cmd.Actor().ID(), auditlog.ActionCreated,
		"tests: "+strings.Join(cmd.TestTypes(), ", "), now)
	if err != nil {
		return err
	}

	uow := h.uowFactory.Create()
	if err = uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	if err = uow.OrderRepository().Add(ctx, o); err != nil {
		return err
	}

	if err = uow.AuditLogRepository().Add(ctx, entry); err != nil {
		return err
	}

	return uow.Commit(ctx)
}
