package order

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"labtrack/internal/core/domain/model/kernel"
	"labtrack/internal/pkg/errs"

	"github.com/shopspring/decimal"
)

// ErrOrderIsNotConstructed is returned when an Order was not created by NewOrder or RestoreOrder.
var ErrOrderIsNotConstructed = errors.New("Order must be created via NewOrder constructor")

// Order is the aggregate root: a laboratory request for one patient grouping one or more
// items. Its status is derived from the items by the aggregator service.
//
// Invariants:
//   - an order owns at least one item
//   - completed holds only while every item is completed
//   - once completed or cancelled, no item moves back to pending or in_progress
//   - notes are append-only
type Order struct {
	id        kernel.UUID
	patientID kernel.UUID
	orderedBy kernel.UUID
	placedAt  time.Time

	status     Status
	notes      []Note
	averageTAT *decimal.Decimal
	items      []*Item

	createdAt time.Time
	updatedAt time.Time

	domainEvents []StatusChanged

	isConstructed bool
}

// NewOrder places an order with one pending item per test type.
func NewOrder(id, patientID, orderedBy kernel.UUID, placedAt time.Time, testTypes []string) (*Order, error) {
	if err := errors.Join(id.Validate(), patientID.Validate(), orderedBy.Validate()); err != nil {
		return nil, err
	}
	if placedAt.IsZero() {
		return nil, errs.NewValueIsRequiredError("placed at")
	}
	if len(testTypes) == 0 {
		return nil, errs.NewValueIsRequiredError("test types")
	}

	items := make([]*Item, 0, len(testTypes))
	for _, testType := range testTypes {
		item, err := NewItem(kernel.NewUUID(), testType, placedAt)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	return &Order{
		id:            id,
		patientID:     patientID,
		orderedBy:     orderedBy,
		placedAt:      placedAt,
		status:        Pending,
		items:         items,
		createdAt:     placedAt,
		updatedAt:     placedAt,
		isConstructed: true,
	}, nil
}

// OrderSnapshot carries persisted order state into RestoreOrder.
type OrderSnapshot struct {
	ID         kernel.UUID
	PatientID  kernel.UUID
	OrderedBy  kernel.UUID
	PlacedAt   time.Time
	Status     Status
	Notes      []Note
	AverageTAT *decimal.Decimal
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// RestoreOrder rebuilds an order and its items from storage without recording events.
func RestoreOrder(s OrderSnapshot, items []*Item) (*Order, error) {
	if err := errors.Join(s.ID.Validate(), s.Status.Validate()); err != nil {
		return nil, err
	}
	for _, item := range items {
		if err := item.Validate(); err != nil {
			return nil, err
		}
	}

	return &Order{
		id:            s.ID,
		patientID:     s.PatientID,
		orderedBy:     s.OrderedBy,
		placedAt:      s.PlacedAt,
		status:        s.Status,
		notes:         slices.Clone(s.Notes),
		averageTAT:    s.AverageTAT,
		items:         slices.Clone(items),
		createdAt:     s.CreatedAt,
		updatedAt:     s.UpdatedAt,
		isConstructed: true,
	}, nil
}

func (o *Order) Validate() error {
	if o == nil || !o.isConstructed {
		return ErrOrderIsNotConstructed
	}
	return nil
}

func (o *Order) IsEqual(other *Order) bool {
	return other != nil && o.id.IsEqual(other.id)
}

func (o *Order) ID() kernel.UUID {
	return o.id
}

func (o *Order) PatientID() kernel.UUID {
	return o.patientID
}

func (o *Order) OrderedBy() kernel.UUID {
	return o.orderedBy
}

func (o *Order) PlacedAt() time.Time {
	return o.placedAt
}

func (o *Order) Status() Status {
	return o.status
}

func (o *Order) Notes() []Note {
	return slices.Clone(o.notes)
}

// Remarks renders the notes for display.
func (o *Order) Remarks() string {
	return RenderRemarks(o.notes)
}

// AverageTAT is nil until at least one item has a turnaround time.
func (o *Order) AverageTAT() *decimal.Decimal {
	return o.averageTAT
}

func (o *Order) Items() []*Item {
	return slices.Clone(o.items)
}

func (o *Order) CreatedAt() time.Time {
	return o.createdAt
}

func (o *Order) UpdatedAt() time.Time {
	return o.updatedAt
}

// Item looks up an item of this order.
func (o *Order) Item(id kernel.UUID) (*Item, error) {
	for _, item := range o.items {
		if item.id.IsEqual(id) {
			return item, nil
		}
	}
	return nil, errs.NewObjectNotFoundError("item", id.String())
}

// ItemCounts tallies items by status.
type ItemCounts struct {
	Total      int
	Pending    int
	InProgress int
	Completed  int
	Cancelled  int
}

func (o *Order) ItemCounts() ItemCounts {
	c := ItemCounts{Total: len(o.items)}
	for _, item := range o.items {
		switch item.status {
		case ItemPending:
			c.Pending++
		case ItemInProgress:
			c.InProgress++
		case ItemCompleted:
			c.Completed++
		case ItemCancelled:
			c.Cancelled++
		case ItemUnknown:
		}
	}
	return c
}

// TransitionItem moves one item to target as permitted by policy and runs the rule's effect.
// The order status is not recomputed here.
func (o *Order) TransitionItem(
	itemID kernel.UUID,
	target ItemStatus,
	remarks string,
	actor kernel.Actor,
	policy *TransitionPolicy,
	now time.Time,
) error {
	if err := target.Validate(); err != nil {
		return err
	}
	item, err := o.Item(itemID)
	if err != nil {
		return err
	}
	// A cancelled order is final. A completed order may not be reopened through
	// one of its completed items.
	switch {
	case o.status == Cancelled:
		return errs.NewConflictError(fmt.Sprintf("order is cancelled, item cannot move to %s", target))
	case o.status.IsTerminal() && !target.IsTerminal():
		return errs.NewConflictError(fmt.Sprintf("order is %s, item cannot move to %s", o.status, target))
	case o.status == Completed && item.status == ItemCompleted && target != ItemCompleted:
		return errs.NewConflictError(fmt.Sprintf("order is completed, completed item cannot move to %s", target))
	}

	rule, err := policy.Resolve(item.status, target, actor)
	if err != nil {
		return err
	}

	item.moveTo(target, now)
	item.setRemarks(remarks)
	if rule.Effect != nil {
		rule.Effect(o, item, now)
	}
	o.updatedAt = now
	return nil
}

// SetStatus stores the aggregate status and records a StatusChanged event when it differs.
func (o *Order) SetStatus(status Status, now time.Time) error {
	if err := status.Validate(); err != nil {
		return err
	}
	o.updatedAt = now
	if status == o.status {
		return nil
	}

	o.domainEvents = append(o.domainEvents, StatusChanged{
		OrderID:    o.id,
		From:       o.status,
		To:         status,
		OccurredAt: now,
	})
	o.status = status
	return nil
}

// ForceItemsTo moves every item not already in status (and not in any of keep) to status,
// returning how many moved.
func (o *Order) ForceItemsTo(status ItemStatus, now time.Time, keep ...ItemStatus) int {
	moved := 0
	for _, item := range o.items {
		if item.status == status || slices.Contains(keep, item.status) {
			continue
		}
		item.moveTo(status, now)
		moved++
	}
	if moved > 0 {
		o.updatedAt = now
	}
	return moved
}

// AppendNote adds a note to the remarks. Blank text is ignored.
func (o *Order) AppendNote(author kernel.UUID, text string, now time.Time) {
	text = strings.TrimSpace(text)
	if text == "" {
		return
	}
	o.notes = append(o.notes, Note{At: now, Author: author, Text: text})
	o.updatedAt = now
}

// SetAverageTAT replaces the stored mean turnaround time.
func (o *Order) SetAverageTAT(avg decimal.Decimal) {
	o.averageTAT = &avg
}

// Cancel cancels the order on behalf of actor. Completed items are kept.
func (o *Order) Cancel(actor kernel.Actor, reason string, now time.Time) error {
	switch o.status {
	case Completed:
		return errs.NewConflictError("cannot cancel a completed order")
	case Cancelled:
		return errs.NewConflictError("order is already cancelled")
	case Unknown, Pending, InProgress, Partial:
	}

	note := "Cancelled by " + actor.ID().String()
	if reason = strings.TrimSpace(reason); reason != "" {
		note += ": " + reason
	}
	o.AppendNote(actor.ID(), note, now)
	o.ForceItemsTo(ItemCancelled, now, ItemCompleted)
	return o.SetStatus(Cancelled, now)
}

// IsAutoCancelEligible reports whether the sweep at now may cancel the order: placed on
// now's calendar day, still pending or in progress, and with no completed item.
func (o *Order) IsAutoCancelEligible(now time.Time) bool {
	from, to := kernel.DayWindow(now)
	placed := o.placedAt.In(now.Location())
	if placed.Before(from) || !placed.Before(to) {
		return false
	}
	if o.status != Pending && o.status != InProgress {
		return false
	}
	return o.ItemCounts().Completed == 0
}

// AutoCancel cancels an unfulfilled order once the daily cutoff has passed.
func (o *Order) AutoCancel(cutoff kernel.TimeOfDay, now time.Time) error {
	if !cutoff.Reached(now) {
		return errs.NewConflictError("auto-cancel cutoff " + cutoff.String() + " not reached")
	}
	if !o.IsAutoCancelEligible(now) {
		return errs.NewConflictError("order is no longer eligible for auto-cancellation")
	}

	o.AppendNote(kernel.SystemActorID, fmt.Sprintf(
		"Automatically cancelled: order was not fulfilled by the %s cutoff deadline", cutoff), now)
	o.ForceItemsTo(ItemCancelled, now, ItemCompleted)
	return o.SetStatus(Cancelled, now)
}

func (o *Order) DomainEvents() []StatusChanged {
	return slices.Clone(o.domainEvents)
}

func (o *Order) ClearDomainEvents() {
	o.domainEvents = nil
}
