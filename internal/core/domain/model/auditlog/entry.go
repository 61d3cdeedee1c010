// Package auditlog models the append-only trail written by every mutating operation.
package auditlog

import (
	"errors"
	"fmt"
	"time"

	"labtrack/internal/core/domain/model/kernel"
	"labtrack/internal/pkg/errs"
)

// Action tags what happened to an order.
type Action string

const (
	ActionCreated           Action = "created"
	ActionItemStatusUpdated Action = "item_status_updated"
	ActionStatusUpdated     Action = "status_updated"
	ActionCancelled         Action = "cancelled"
	ActionAutoCancelled     Action = "auto_cancelled"
)

func (a Action) Validate() error {
	switch a {
	case ActionCreated, ActionItemStatusUpdated, ActionStatusUpdated, ActionCancelled, ActionAutoCancelled:
		return nil
	}
	return errs.NewValueIsInvalidErrorWithCause("action", fmt.Errorf("%q is not a valid log action", string(a)))
}

// ErrEntryIsNotConstructed is returned when an Entry was not created by NewEntry or RestoreEntry.
var ErrEntryIsNotConstructed = errors.New("Entry must be created via NewEntry constructor")

// Entry is an immutable log record.
type Entry struct {
	id        kernel.UUID
	orderID   kernel.UUID
	actorID   kernel.UUID
	action    Action
	detail    string
	createdAt time.Time

	isConstructed bool
}

func NewEntry(orderID, actorID kernel.UUID, action Action, detail string, now time.Time) (*Entry, error) {
	return RestoreEntry(kernel.NewUUID(), orderID, actorID, action, detail, now)
}

func RestoreEntry(id, orderID, actorID kernel.UUID, action Action, detail string, createdAt time.Time) (*Entry, error) {
	if err := errors.Join(id.Validate(), orderID.Validate(), actorID.Validate(), action.Validate()); err != nil {
		return nil, err
	}

	return &Entry{
		id:            id,
		orderID:       orderID,
		actorID:       actorID,
		action:        action,
		detail:        detail,
		createdAt:     createdAt,
		isConstructed: true,
	}, nil
}

func (e *Entry) Validate() error {
	if e == nil || !e.isConstructed {
		return ErrEntryIsNotConstructed
	}
	return nil
}

func (e *Entry) ID() kernel.UUID {
	return e.id
}

func (e *Entry) OrderID() kernel.UUID {
	return e.orderID
}

func (e *Entry) ActorID() kernel.UUID {
	return e.actorID
}

func (e *Entry) Action() Action {
	return e.action
}

func (e *Entry) Detail() string {
	return e.detail
}

func (e *Entry) CreatedAt() time.Time {
	return e.createdAt
}

// IsSystem reports whether the entry was written by the reserved system actor.
func (e *Entry) IsSystem() bool {
	return e.actorID.IsEqual(kernel.SystemActorID)
}
