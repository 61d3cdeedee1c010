package services

import (
	"labtrack/internal/core/domain/model/order"

	"github.com/shopspring/decimal"
)

// TurnaroundCalculator maintains an order's mean turnaround time in minutes.
type TurnaroundCalculator struct{}

func NewTurnaroundCalculator() TurnaroundCalculator {
	return TurnaroundCalculator{}
}

// Average returns the mean of the non-nil turnaround times rounded to two places.
// ok is false when no item has one.
func (TurnaroundCalculator) Average(items []*order.Item) (avg decimal.Decimal, ok bool) {
	sum := decimal.Zero
	n := 0
	for _, item := range items {
		if tat := item.TurnaroundTime(); tat != nil {
			sum = sum.Add(decimal.NewFromInt(int64(*tat)))
			n++
		}
	}
	if n == 0 {
		return decimal.Zero, false
	}
	return sum.Div(decimal.NewFromInt(int64(n))).Round(2), true
}

// Recalculate updates o's average. Without any turnaround time the stored value is kept.
func (c TurnaroundCalculator) Recalculate(o *order.Order) bool {
	avg, ok := c.Average(o.Items())
	if !ok {
		return false
	}
	o.SetAverageTAT(avg)
	return true
}
