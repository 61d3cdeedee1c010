// Package order models laboratory test orders.
//
// The package includes:
//   - Order: the aggregate root owning one or more items, append-only notes and the
//     mean turnaround time
//   - Item: one diagnostic test, tracked from pending through completion or cancellation
//   - Status and ItemStatus: the order and item state sets
//   - TransitionPolicy: the rule table deciding which item transitions an actor may make
//     and which timing effects they carry
//   - StatusChanged: the event recorded when the order status changes
//
// The order status itself is computed by services.OrderStatusAggregator from ItemCounts.
package order
