package queries

import (
	"errors"
	"time"

	"labtrack/internal/core/domain/model/kernel"
	"labtrack/internal/core/domain/model/order"
	"labtrack/internal/pkg/guard"

	"github.com/shopspring/decimal"
)

var (
	ErrGetOrderQueryIsNotConstructed = errors.New(
		"GetOrderQuery must be created via NewGetOrderQuery constructor",
	)
)

// GetOrderQuery loads one order with its items.
type GetOrderQuery struct {
	orderID kernel.UUID
	guard   guard.ConstructorGuard
}

func NewGetOrderQuery(orderID kernel.UUID) (GetOrderQuery, error) {
	if err := orderID.Validate(); err != nil {
		return GetOrderQuery{}, err
	}

	return GetOrderQuery{
		orderID: orderID,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

func (q GetOrderQuery) OrderID() kernel.UUID {
	return q.orderID
}

func (q GetOrderQuery) Validate() error {
	return q.guard.Validate(ErrGetOrderQueryIsNotConstructed)
}

// GetOrderQueryResponse is the read model of an order. Remarks are the order
// notes rendered one per line.
type GetOrderQueryResponse struct {
	ID         kernel.UUID
	PatientID  kernel.UUID
	OrderedBy  kernel.UUID
	PlacedAt   time.Time
	Status     order.Status
	Remarks    string
	AverageTAT *decimal.Decimal
	Items      []GetOrderItemResponse
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// CompletedItems counts the items in the completed status.
func (r GetOrderQueryResponse) CompletedItems() int {
	n := 0
	for _, item := range r.Items {
		if item.Status == order.ItemCompleted {
			n++
		}
	}
	return n
}

type GetOrderItemResponse struct {
	ID             kernel.UUID
	TestType       string
	Status         order.ItemStatus
	StartedAt      *time.Time
	CompletedAt    *time.Time
	WaitingTime    *int
	TurnaroundTime *int
	ResultRef      string
	Remarks        string
}
