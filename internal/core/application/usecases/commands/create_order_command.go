package commands

import (
	"errors"
	"strings"

	"labtrack/internal/core/domain/model/kernel"
	"labtrack/internal/pkg/guard"
)

var (
	ErrCreateOrderCommandIsNotConstructed = errors.New(
		"CreateOrderCommand must be created via NewCreateOrderCommand constructor",
	)
	ErrTestTypesAreRequired = errors.New("at least one test type is required")
)

// CreateOrderCommand places a new order with one pending item per test type.
type CreateOrderCommand struct { //nolint:recvcheck //using for validation
	orderID   kernel.UUID
	patientID kernel.UUID
	testTypes []string
	remarks   string
	actor     kernel.Actor

	guard guard.ConstructorGuard
}

func NewCreateOrderCommand(
	orderID, patientID kernel.UUID,
	testTypes []string,
	remarks string,
	actor kernel.Actor,
) (CreateOrderCommand, error) {
	cmd := CreateOrderCommand{
		remarks: strings.TrimSpace(remarks),
		guard:   guard.NewConstructorGuard(),
	}

	if err := errors.Join(
		orderID.Validate(),
		patientID.Validate(),
		actor.Validate(),
		cmd.setTestTypes(testTypes),
	); err != nil {
		return CreateOrderCommand{}, err
	}

	cmd.orderID = orderID
	cmd.patientID = patientID
	cmd.actor = actor
	return cmd, nil
}

func (c CreateOrderCommand) Validate() error {
	return c.guard.Validate(ErrCreateOrderCommandIsNotConstructed)
}

func (c CreateOrderCommand) OrderID() kernel.UUID {
	return c.orderID
}

func (c CreateOrderCommand) PatientID() kernel.UUID {
	return c.patientID
}

func (c CreateOrderCommand) TestTypes() []string {
	return append([]string(nil), c.testTypes...)
}

func (c CreateOrderCommand) Remarks() string {
	return c.remarks
}

func (c CreateOrderCommand) Actor() kernel.Actor {
	return c.actor
}

func (c *CreateOrderCommand) setTestTypes(testTypes []string) error {
	cleaned := make([]string, 0, len(testTypes))
	for _, t := range testTypes {
		if t = strings.TrimSpace(t); t != "" {
			cleaned = append(cleaned, t)
		}
	}
	if len(cleaned) == 0 {
		return ErrTestTypesAreRequired
	}

	c.testTypes = cleaned
	return nil
}
