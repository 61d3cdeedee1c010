package commands

import (
	"errors"
	"time"

	"labtrack/internal/core/domain/model/kernel"
	"labtrack/internal/pkg/guard"
)

var ErrAutoCancelOrdersCommandIsNotConstructed = errors.New(
	"AutoCancelOrdersCommand must be created via NewAutoCancelOrdersCommand constructor",
)

// AutoCancelOrdersCommand runs the daily sweep. A zero at means "now".
type AutoCancelOrdersCommand struct { //nolint:recvcheck //using for validation
	at    time.Time
	actor kernel.Actor

	guard guard.ConstructorGuard
}

func NewAutoCancelOrdersCommand(at time.Time, actor kernel.Actor) (AutoCancelOrdersCommand, error) {
	if err := actor.Validate(); err != nil {
		return AutoCancelOrdersCommand{}, err
	}

	return AutoCancelOrdersCommand{
		at:    at,
		actor: actor,
		guard: guard.NewConstructorGuard(),
	}, nil
}

func (c AutoCancelOrdersCommand) Validate() error {
	return c.guard.Validate(ErrAutoCancelOrdersCommandIsNotConstructed)
}

func (c AutoCancelOrdersCommand) At() time.Time {
	return c.at
}

func (c AutoCancelOrdersCommand) Actor() kernel.Actor {
	return c.actor
}
