// Package services holds domain logic spanning an order and all of its items.
//
// The package includes:
//   - OrderStatusAggregator: derives and applies the order status from item statuses
//   - TurnaroundCalculator: maintains the mean turnaround time of an order
package services
