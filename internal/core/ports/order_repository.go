// Package ports defines the contracts between the lab order core and its adapters.
package ports

import (
	"context"
	"time"

	"labtrack/internal/core/domain/model/kernel"
	"labtrack/internal/core/domain/model/order"
)

// OrderRepository persists order aggregates together with their items.
type OrderRepository interface {
	// Add stores a new order and all of its items.
	Add(ctx context.Context, aggregate *order.Order) error

	// Update writes the order row and every item row. An item row that no longer
	// exists yields a Conflict error.
	Update(ctx context.Context, aggregate *order.Order) error

	// Get loads an order with its items, or returns a NotFound error.
	Get(ctx context.Context, id kernel.UUID) (*order.Order, error)

	// GetOrderIDByItemID resolves the order owning an item, or returns a NotFound error.
	GetOrderIDByItemID(ctx context.Context, itemID kernel.UUID) (kernel.UUID, error)

	// GetAutoCancelCandidates lists orders placed in [from, to) that are pending or in
	// progress and have no completed item.
	GetAutoCancelCandidates(ctx context.Context, from, to time.Time) ([]kernel.UUID, error)
}
