package ports

import (
	"context"

	"labtrack/internal/core/domain/model/kernel"
)

// ReleaseFunc releases a lock obtained from OrderLocker.
type ReleaseFunc func(ctx context.Context) error

// OrderLocker serializes mutating operations on one order across service instances.
// Lock returns a Conflict error when the order is held by someone else.
type OrderLocker interface {
	Lock(ctx context.Context, orderID kernel.UUID) (ReleaseFunc, error)
}
