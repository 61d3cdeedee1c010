package order

import (
	"time"

	"labtrack/internal/core/domain/model/kernel"
)

// StatusChanged is recorded whenever an order's aggregate status changes.
type StatusChanged struct {
	OrderID    kernel.UUID
	From       Status
	To         Status
	OccurredAt time.Time
}
