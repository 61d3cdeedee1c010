package queries

import (
	"errors"
	"time"

	"labtrack/internal/core/domain/model/auditlog"
	"labtrack/internal/core/domain/model/kernel"
	"labtrack/internal/pkg/guard"
)

var (
	ErrGetOrderLogsQueryIsNotConstructed = errors.New(
		"GetOrderLogsQuery must be created via NewGetOrderLogsQuery constructor",
	)
)

// GetOrderLogsQuery lists the audit trail of one order, oldest entry first.
type GetOrderLogsQuery struct {
	orderID kernel.UUID
	guard   guard.ConstructorGuard
}

func NewGetOrderLogsQuery(orderID kernel.UUID) (GetOrderLogsQuery, error) {
	if err := orderID.Validate(); err != nil {
		return GetOrderLogsQuery{}, err
	}

	return GetOrderLogsQuery{
		orderID: orderID,
		guard:   guard.NewConstructorGuard(),
	}, nil
}

func (q GetOrderLogsQuery) OrderID() kernel.UUID {
	return q.orderID
}

func (q GetOrderLogsQuery) Validate() error {
	return q.guard.Validate(ErrGetOrderLogsQueryIsNotConstructed)
}

type GetOrderLogsQueryResponse struct {
	ID        kernel.UUID
	ActorID   kernel.UUID
	Action    auditlog.Action
	Detail    string
	CreatedAt time.Time
}

// IsSystem reports whether the entry was written by the automated sweep.
func (r GetOrderLogsQueryResponse) IsSystem() bool {
	return r.ActorID.IsEqual(kernel.SystemActorID)
}
