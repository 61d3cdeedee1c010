package services_test

import (
	"testing"
	"time"

	"labtrack/internal/core/domain/model/kernel"
	"labtrack/internal/core/domain/model/order"
	"labtrack/internal/core/domain/services"
	"labtrack/internal/pkg/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	placedAt = time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	now      = placedAt.Add(2 * time.Hour)
)

var allItemStatuses = []order.ItemStatus{
	order.ItemPending, order.ItemInProgress, order.ItemCompleted, order.ItemCancelled,
}

func restoreOrder(t *testing.T, status order.Status, itemStatuses ...order.ItemStatus) *order.Order {
	t.Helper()
	items := make([]*order.Item, 0, len(itemStatuses))
	for _, s := range itemStatuses {
		item, err := order.RestoreItem(order.ItemSnapshot{ID: kernel.NewUUID(), TestType: "CBC", Status: s})
		require.NoError(t, err)
		items = append(items, item)
	}
	o, err := order.RestoreOrder(order.OrderSnapshot{
		ID:        kernel.NewUUID(),
		PatientID: kernel.NewUUID(),
		OrderedBy: kernel.NewUUID(),
		PlacedAt:  placedAt,
		Status:    status,
	}, items)
	require.NoError(t, err)
	return o
}

// multisets enumerates every item-status multiset up to size n.
func multisets(n int) [][]order.ItemStatus {
	result := [][]order.ItemStatus{{}}
	var build func(prefix []order.ItemStatus, start, left int)
	build = func(prefix []order.ItemStatus, start, left int) {
		if left == 0 {
			return
		}
		for i := start; i < len(allItemStatuses); i++ {
			next := append(append([]order.ItemStatus{}, prefix...), allItemStatuses[i])
			result = append(result, next)
			build(next, i, left-1)
		}
	}
	build(nil, 0, n)
	return result
}

func counts(statuses []order.ItemStatus) order.ItemCounts {
	c := order.ItemCounts{Total: len(statuses)}
	for _, s := range statuses {
		switch s {
		case order.ItemPending:
			c.Pending++
		case order.ItemInProgress:
			c.InProgress++
		case order.ItemCompleted:
			c.Completed++
		case order.ItemCancelled:
			c.Cancelled++
		case order.ItemUnknown:
		}
	}
	return c
}

func TestOrderStatusAggregator_Compute(t *testing.T) {
	aggregator := services.NewOrderStatusAggregator()

	tests := []struct {
		name  string
		items []order.ItemStatus
		want  order.Status
	}{
		{"no items", nil, order.Pending},
		{"all pending", []order.ItemStatus{order.ItemPending, order.ItemPending}, order.Pending},
		{"all completed", []order.ItemStatus{order.ItemCompleted, order.ItemCompleted}, order.Completed},
		{"one in progress", []order.ItemStatus{order.ItemPending, order.ItemInProgress}, order.InProgress},
		{"mixed", []order.ItemStatus{order.ItemPending, order.ItemInProgress, order.ItemCompleted}, order.InProgress},
		{"completed and cancelled", []order.ItemStatus{order.ItemCompleted, order.ItemCancelled}, order.InProgress},
		{"all cancelled", []order.ItemStatus{order.ItemCancelled, order.ItemCancelled}, order.Cancelled},
		{"pending and cancelled", []order.ItemStatus{order.ItemPending, order.ItemCancelled}, order.Pending},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, aggregator.Compute(counts(tt.items)))
		})
	}
}

func TestOrderStatusAggregator_DeterministicAndCompletionInvariant(t *testing.T) {
	aggregator := services.NewOrderStatusAggregator()

	for _, set := range multisets(4) {
		c := counts(set)
		first := aggregator.Compute(c)

		assert.Equal(t, first, aggregator.Compute(c), "%v", set)
		allCompleted := c.Total > 0 && c.Completed == c.Total
		assert.Equal(t, allCompleted, first == order.Completed, "%v", set)
	}
}

func TestOrderStatusAggregator_RecomputeIsIdempotent(t *testing.T) {
	aggregator := services.NewOrderStatusAggregator()

	for _, set := range multisets(3) {
		o := restoreOrder(t, order.Pending, set...)

		first, err := aggregator.Recompute(o, now)
		require.NoError(t, err)
		o.ClearDomainEvents()
		second, err := aggregator.Recompute(o, now.Add(time.Minute))
		require.NoError(t, err)

		assert.Equal(t, first.NewStatus, second.NewStatus, "%v", set)
		assert.Equal(t, second.OldStatus, second.NewStatus, "%v", set)
		assert.Empty(t, o.DomainEvents(), "%v", set)
	}
}

func TestOrderStatusAggregator_Recompute_CancelledIsFinal(t *testing.T) {
	o := restoreOrder(t, order.Cancelled, order.ItemCompleted, order.ItemCancelled)

	result, err := services.NewOrderStatusAggregator().Recompute(o, now)

	require.NoError(t, err)
	assert.Equal(t, order.Cancelled, result.NewStatus)
	assert.Equal(t, order.Cancelled, o.Status())
}

func TestOrderStatusAggregator_Apply_AutoUpdateIgnoresTarget(t *testing.T) {
	o := restoreOrder(t, order.Pending, order.ItemInProgress, order.ItemPending)

	result, err := services.NewOrderStatusAggregator().Apply(o, order.Completed, true, now)

	require.NoError(t, err)
	assert.True(t, result.AutoUpdate)
	assert.Equal(t, order.Pending, result.OldStatus)
	assert.Equal(t, order.InProgress, result.NewStatus)
	assert.Equal(t, order.ItemCounts{Total: 2, Pending: 1, InProgress: 1}, result.Counts)
}

func TestOrderStatusAggregator_Apply_ExplicitCascade(t *testing.T) {
	aggregator := services.NewOrderStatusAggregator()

	t.Run("completed forces every item completed", func(t *testing.T) {
		o := restoreOrder(t, order.InProgress, order.ItemPending, order.ItemInProgress, order.ItemCompleted)

		result, err := aggregator.Apply(o, order.Completed, false, now)

		require.NoError(t, err)
		assert.Equal(t, order.Completed, result.NewStatus)
		assert.Equal(t, order.ItemCounts{Total: 3, Completed: 3}, result.Counts)
	})

	t.Run("cancelled forces every item cancelled", func(t *testing.T) {
		o := restoreOrder(t, order.InProgress, order.ItemPending, order.ItemInProgress)

		result, err := aggregator.Apply(o, order.Cancelled, false, now)

		require.NoError(t, err)
		assert.Equal(t, order.Cancelled, o.Status())
		assert.Equal(t, order.ItemCounts{Total: 2, Cancelled: 2}, result.Counts)
	})

	t.Run("partial is stored without cascade", func(t *testing.T) {
		o := restoreOrder(t, order.InProgress, order.ItemPending, order.ItemCompleted)

		result, err := aggregator.Apply(o, order.Partial, false, now)

		require.NoError(t, err)
		assert.Equal(t, order.Partial, o.Status())
		assert.Equal(t, order.ItemCounts{Total: 2, Pending: 1, Completed: 1}, result.Counts)
	})
}

func TestOrderStatusAggregator_Apply_Conflicts(t *testing.T) {
	aggregator := services.NewOrderStatusAggregator()

	tests := []struct {
		name    string
		current order.Status
		items   []order.ItemStatus
		target  order.Status
	}{
		{"cancelled to pending", order.Cancelled, []order.ItemStatus{order.ItemCancelled}, order.Pending},
		{"cancelled to completed", order.Cancelled, []order.ItemStatus{order.ItemCancelled}, order.Completed},
		{"completed to in progress", order.Completed, []order.ItemStatus{order.ItemCompleted}, order.InProgress},
		{"all completed to partial", order.InProgress, []order.ItemStatus{order.ItemCompleted}, order.Partial},
		{"completed without items", order.Pending, nil, order.Completed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := restoreOrder(t, tt.current, tt.items...)

			_, err := aggregator.Apply(o, tt.target, false, now)

			require.ErrorIs(t, err, errs.ErrConflict)
			assert.Equal(t, tt.current, o.Status())
			assert.Empty(t, o.DomainEvents())
		})
	}
}

func TestOrderStatusAggregator_Apply_InvalidTarget(t *testing.T) {
	o := restoreOrder(t, order.Pending, order.ItemPending)

	_, err := services.NewOrderStatusAggregator().Apply(o, order.Status(99), false, now)

	require.ErrorIs(t, err, errs.ErrValueIsInvalid)
}

// An order with one pending, one in-progress and one completed item stays in progress
// after the technician completes the in-progress item, because a pending item remains.
// Only the item moved by the technician carries timing.
func TestOrderStatusAggregator_TechnicianFlow(t *testing.T) {
	aggregator := services.NewOrderStatusAggregator()
	policy := order.DefaultTransitionPolicy()
	tech, err := kernel.NewActor(kernel.NewUUID(), kernel.CapabilityManageLabResults, kernel.CapabilityLabTechnician)
	require.NoError(t, err)

	o, err := order.NewOrder(kernel.NewUUID(), kernel.NewUUID(), kernel.NewUUID(), placedAt, []string{"CBC", "ESR", "Glucose"})
	require.NoError(t, err)
	items := o.Items()

	require.NoError(t, o.TransitionItem(items[1].ID(), order.ItemInProgress, "", tech, policy, placedAt.Add(10*time.Minute)))
	require.NoError(t, o.TransitionItem(items[2].ID(), order.ItemCompleted, "", tech, policy, placedAt.Add(20*time.Minute)))

	result, err := aggregator.Recompute(o, placedAt.Add(20*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, order.InProgress, result.NewStatus)

	// Items 1 and 2 are completed but item 0 is still pending, so the completion
	// invariant keeps the order in progress until the last item completes.
	require.NoError(t, o.TransitionItem(items[1].ID(), order.ItemCompleted, "", tech, policy, placedAt.Add(70*time.Minute)))
	result, err = aggregator.Recompute(o, placedAt.Add(70*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, order.InProgress, result.NewStatus)

	require.NoError(t, o.TransitionItem(items[0].ID(), order.ItemCompleted, "", tech, policy, placedAt.Add(80*time.Minute)))
	result, err = aggregator.Recompute(o, placedAt.Add(80*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, order.Completed, result.NewStatus)

	err = o.TransitionItem(items[0].ID(), order.ItemCancelled, "", tech, policy, placedAt.Add(90*time.Minute))
	require.ErrorIs(t, err, errs.ErrConflict)
	result, err = aggregator.Recompute(o, placedAt.Add(90*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, order.Completed, result.NewStatus)

	require.NotNil(t, items[1].WaitingTime())
	assert.Equal(t, 10, *items[1].WaitingTime())
	require.NotNil(t, items[1].TurnaroundTime())
	assert.Equal(t, 60, *items[1].TurnaroundTime())
	for _, skipped := range []*order.Item{items[0], items[2]} {
		assert.Nil(t, skipped.WaitingTime())
		assert.Nil(t, skipped.TurnaroundTime())
	}
}
