package services

import (
	"time"

	"labtrack/internal/core/domain/model/order"
	"labtrack/internal/pkg/errs"
)

// OrderStatusAggregator derives an order's status from its items.
//
// The rule, evaluated over item counts:
//  1. no items -> pending
//  2. every item completed -> completed
//  3. any item completed or in progress -> in_progress
//  4. every item cancelled -> cancelled
//  5. otherwise -> pending
//
// A cancelled order is final: recomputation leaves it cancelled.
type OrderStatusAggregator struct{}

func NewOrderStatusAggregator() OrderStatusAggregator {
	return OrderStatusAggregator{}
}

// Aggregation describes the outcome of applying a status to an order.
type Aggregation struct {
	OldStatus  order.Status
	NewStatus  order.Status
	Counts     order.ItemCounts
	AutoUpdate bool
}

// Compute is the pure aggregation rule.
func (OrderStatusAggregator) Compute(c order.ItemCounts) order.Status {
	switch {
	case c.Total == 0:
		return order.Pending
	case c.Completed == c.Total:
		return order.Completed
	case c.Completed > 0 || c.InProgress > 0:
		return order.InProgress
	case c.Cancelled == c.Total:
		return order.Cancelled
	default:
		return order.Pending
	}
}

// Recompute stores the computed status on o.
func (a OrderStatusAggregator) Recompute(o *order.Order, now time.Time) (Aggregation, error) {
	return a.Apply(o, order.Unknown, true, now)
}

// Apply stores either the computed status (autoUpdate, or no target given) or the explicit
// target. An explicit completed or cancelled target is cascaded to every item not already
// in that state.
func (a OrderStatusAggregator) Apply(o *order.Order, target order.Status, autoUpdate bool, now time.Time) (Aggregation, error) {
	result := Aggregation{
		OldStatus:  o.Status(),
		AutoUpdate: autoUpdate || target == order.Unknown,
	}

	if result.AutoUpdate {
		result.NewStatus = a.Compute(o.ItemCounts())
		if result.OldStatus == order.Cancelled {
			result.NewStatus = order.Cancelled
		}
	} else {
		if err := a.checkOverride(o, target); err != nil {
			return Aggregation{}, err
		}
		switch target {
		case order.Completed:
			o.ForceItemsTo(order.ItemCompleted, now)
		case order.Cancelled:
			o.ForceItemsTo(order.ItemCancelled, now)
		case order.Unknown, order.Pending, order.InProgress, order.Partial:
		}
		result.NewStatus = target
	}

	if err := o.SetStatus(result.NewStatus, now); err != nil {
		return Aggregation{}, err
	}
	result.Counts = o.ItemCounts()
	return result, nil
}

func (OrderStatusAggregator) checkOverride(o *order.Order, target order.Status) error {
	if err := target.Validate(); err != nil {
		return err
	}

	current := o.Status()
	counts := o.ItemCounts()
	switch {
	case current == order.Cancelled && target != order.Cancelled:
		return errs.NewConflictError("order is cancelled")
	case current == order.Completed && !target.IsTerminal():
		return errs.NewConflictError("order is completed, status cannot move to " + target.String())
	case target == order.Completed && counts.Total == 0:
		return errs.NewConflictError("order has no items")
	case target != order.Completed && target != order.Cancelled && counts.Total > 0 && counts.Completed == counts.Total:
		return errs.NewConflictError("every item is completed, status cannot be " + target.String())
	}
	return nil
}
