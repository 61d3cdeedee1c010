package commands

import (
	"errors"

	"labtrack/internal/core/domain/model/kernel"
	"labtrack/internal/core/domain/model/order"
	"labtrack/internal/pkg/guard"
)

var ErrUpdateOrderStatusCommandIsNotConstructed = errors.New(
	"UpdateOrderStatusCommand must be created via NewUpdateOrderStatusCommand constructor",
)

// UpdateOrderStatusCommand recomputes an order's status, or overrides it with an explicit
// value when autoUpdate is false.
type UpdateOrderStatusCommand struct { //nolint:recvcheck //using for validation
	orderID    kernel.UUID
	status     order.Status
	remarks    string
	autoUpdate bool
	actor      kernel.Actor

	guard guard.ConstructorGuard
}

// NewUpdateOrderStatusCommand requires a valid status unless autoUpdate is set, in which
// case status is advisory and may be order.Unknown.
func NewUpdateOrderStatusCommand(
	orderID kernel.UUID,
	status order.Status,
	remarks string,
	autoUpdate bool,
	actor kernel.Actor,
) (UpdateOrderStatusCommand, error) {
	var statusErr error
	if !autoUpdate || status != order.Unknown {
		statusErr = status.Validate()
	}
	if err := errors.Join(orderID.Validate(), statusErr, actor.Validate()); err != nil {
		return UpdateOrderStatusCommand{}, err
	}

	return UpdateOrderStatusCommand{
		orderID:    orderID,
		status:     status,
		remarks:    remarks,
		autoUpdate: autoUpdate,
		actor:      actor,
		guard:      guard.NewConstructorGuard(),
	}, nil
}

func (c UpdateOrderStatusCommand) Validate() error {
	return c.guard.Validate(ErrUpdateOrderStatusCommandIsNotConstructed)
}

func (c UpdateOrderStatusCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c UpdateOrderStatusCommand) Status() order.Status {
	return c.status
}

func (c UpdateOrderStatusCommand) Remarks() string {
	return c.remarks
}

func (c UpdateOrderStatusCommand) AutoUpdate() bool {
	return c.autoUpdate
}

func (c UpdateOrderStatusCommand) Actor() kernel.Actor {
	return c.actor
}
