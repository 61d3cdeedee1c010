package order

import (
	"fmt"

	"labtrack/internal/pkg/errs"
)

// Status is the aggregate state of an order, derived from its items.
//
//	pending ──> in_progress ──> completed
//	   │             │
//	   └─────────────┴────────> cancelled
//
// partial is accepted only as an explicit manual value.
type Status int

const (
	// Unknown catches uninitialized values.
	Unknown Status = iota
	Pending
	InProgress
	Completed
	Cancelled
	Partial
)

var statusNames = map[Status]string{
	Pending:    "pending",
	InProgress: "in_progress",
	Completed:  "completed",
	Cancelled:  "cancelled",
	Partial:    "partial",
}

// ParseStatus maps the wire and storage form to a Status.
func ParseStatus(s string) (Status, error) {
	for status, name := range statusNames {
		if name == s {
			return status, nil
		}
	}
	return Unknown, errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%q is not a valid order status", s))
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return name
	}
	return "unknown"
}

func (s Status) Validate() error {
	if _, ok := statusNames[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%d is not a valid order status", s))
	}
	return nil
}

// IsTerminal reports whether the order is closed for further item progress.
func (s Status) IsTerminal() bool {
	return s == Completed || s == Cancelled
}

// ItemStatus is the state of a single test item.
type ItemStatus int

const (
	ItemUnknown ItemStatus = iota
	ItemPending
	ItemInProgress
	ItemCompleted
	ItemCancelled
)

var itemStatusNames = map[ItemStatus]string{
	ItemPending:    "pending",
	ItemInProgress: "in_progress",
	ItemCompleted:  "completed",
	ItemCancelled:  "cancelled",
}

func ParseItemStatus(s string) (ItemStatus, error) {
	for status, name := range itemStatusNames {
		if name == s {
			return status, nil
		}
	}
	return ItemUnknown, errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%q is not a valid item status", s))
}

func (s ItemStatus) String() string {
	if name, ok := itemStatusNames[s]; ok {
		return name
	}
	return "unknown"
}

func (s ItemStatus) Validate() error {
	if _, ok := itemStatusNames[s]; !ok {
		return errs.NewValueIsInvalidErrorWithCause("status", fmt.Errorf("%d is not a valid item status", s))
	}
	return nil
}

func (s ItemStatus) IsTerminal() bool {
	return s == ItemCompleted || s == ItemCancelled
}
