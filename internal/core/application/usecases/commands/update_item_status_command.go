package commands

import (
	"errors"

	"labtrack/internal/core/domain/model/kernel"
	"labtrack/internal/core/domain/model/order"
	"labtrack/internal/pkg/guard"
)

var ErrUpdateItemStatusCommandIsNotConstructed = errors.New(
	"UpdateItemStatusCommand must be created via NewUpdateItemStatusCommand constructor",
)

// UpdateItemStatusCommand moves one test item to a new status.
type UpdateItemStatusCommand struct { //nolint:recvcheck //using for validation
	itemID  kernel.UUID
	status  order.ItemStatus
	remarks string
	actor   kernel.Actor

	guard guard.ConstructorGuard
}

func NewUpdateItemStatusCommand(
	itemID kernel.UUID,
	status order.ItemStatus,
	remarks string,
	actor kernel.Actor,
) (UpdateItemStatusCommand, error) {
	if err := errors.Join(itemID.Validate(), status.Validate(), actor.Validate()); err != nil {
		return UpdateItemStatusCommand{}, err
	}

	return UpdateItemStatusCommand{
		itemID:  itemID,
		status:  status,
		remarks: remarks,
		actor:   actor,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

func (c UpdateItemStatusCommand) Validate() error {
	return c.guard.Validate(ErrUpdateItemStatusCommandIsNotConstructed)
}

func (c UpdateItemStatusCommand) ItemID() kernel.UUID {
	return c.itemID
}

func (c UpdateItemStatusCommand) Status() order.ItemStatus {
	return c.status
}

func (c UpdateItemStatusCommand) Remarks() string {
	return c.remarks
}

func (c UpdateItemStatusCommand) Actor() kernel.Actor {
	return c.actor
}
