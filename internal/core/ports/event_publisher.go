package ports

import (
	"context"

	"labtrack/internal/core/domain/model/order"
)

// EventPublisher delivers order status changes to downstream consumers.
type EventPublisher interface {
	Publish(ctx context.Context, events ...order.StatusChanged) error
}
