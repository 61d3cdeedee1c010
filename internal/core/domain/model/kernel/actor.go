package kernel

import (
	"fmt"
	"slices"

	"labtrack/internal/pkg/errs"

	"github.com/google/uuid"
)

// Capability is a named permission carried by an actor.
type Capability string

const (
	// CapabilityManageLabResults allows changing item and order statuses.
	CapabilityManageLabResults Capability = "manage_lab_results"

	// CapabilityLabTechnician enables timing capture on the in-lab transitions.
	CapabilityLabTechnician Capability = "lab_technician"

	// CapabilityCancelOrders allows manual cancellation and triggering the sweep.
	CapabilityCancelOrders Capability = "cancel_orders"

	// CapabilityPlaceOrders allows creating orders.
	CapabilityPlaceOrders Capability = "place_orders"
)

// SystemActorID is the reserved identity recorded on automatic changes.
var SystemActorID = UUID{id: uuid.Max}

// ErrActorIsNotConstructed is returned when validating a zero-value Actor.
var ErrActorIsNotConstructed = errs.NewValueIsRequiredError("actor must be created via NewActor")

// Actor is the authenticated principal performing an operation.
type Actor struct {
	id           UUID
	capabilities []Capability
}

func NewActor(id UUID, capabilities ...Capability) (Actor, error) {
	if err := id.Validate(); err != nil {
		return Actor{}, fmt.Errorf("actor id: %w", err)
	}
	for _, c := range capabilities {
		if c == "" {
			return Actor{}, errs.NewValueIsRequiredError("capability")
		}
	}

	return Actor{id: id, capabilities: slices.Clone(capabilities)}, nil
}

// SystemActor performs scheduled work. It holds the order management capabilities
// but not lab_technician, so it never captures item timing.
func SystemActor() Actor {
	return Actor{
		id: SystemActorID,
		capabilities: []Capability{
			CapabilityManageLabResults,
			CapabilityCancelOrders,
			CapabilityPlaceOrders,
		},
	}
}

func (a Actor) ID() UUID {
	return a.id
}

func (a Actor) Capabilities() []Capability {
	return slices.Clone(a.capabilities)
}

func (a Actor) Can(c Capability) bool {
	return slices.Contains(a.capabilities, c)
}

func (a Actor) IsSystem() bool {
	return a.id.IsEqual(SystemActorID)
}

func (a Actor) Validate() error {
	if a.id.Validate() != nil {
		return ErrActorIsNotConstructed
	}
	return nil
}

// Require returns a Forbidden error unless the actor holds c.
func (a Actor) Require(c Capability) error {
	if !a.Can(c) {
		return errs.NewForbiddenError(string(c))
	}
	return nil
}
