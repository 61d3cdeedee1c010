package http

import (
	"time"

	"labtrack/internal/core/application/usecases/commands"
	"labtrack/internal/core/application/usecases/queries"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type createOrderRequest struct {
	PatientID string   `json:"patient_id"`
	TestTypes []string `json:"test_types"`
	Remarks   string   `json:"remarks"`
}

type createOrderData struct {
	OrderID uuid.UUID `json:"order_id"`
}

type updateItemStatusRequest struct {
	ItemID  string `json:"item_id"`
	Status  string `json:"status"`
	Remarks string `json:"remarks"`
}

type updateItemStatusData struct {
	OrderID     uuid.UUID `json:"order_id"`
	ItemStatus  string    `json:"item_status"`
	OrderStatus string    `json:"order_status"`
}

type updateOrderStatusRequest struct {
	OrderID       string `json:"order_id"`
	OverallStatus string `json:"overall_status"`
	Remarks       string `json:"remarks"`
	AutoUpdate    bool   `json:"auto_update"`
}

type updateOrderStatusData struct {
	OrderID        uuid.UUID `json:"order_id"`
	OldStatus      string    `json:"old_status"`
	NewStatus      string    `json:"new_status"`
	TotalItems     int       `json:"total_items"`
	CompletedItems int       `json:"completed_items"`
	AutoUpdate     bool      `json:"auto_update"`
}

type cancelOrderRequest struct {
	OrderID string `json:"order_id"`
	Reason  string `json:"reason"`
}

type cancelOrderResponse struct {
	Success     bool      `json:"success"`
	Message     string    `json:"message"`
	CancelledBy uuid.UUID `json:"cancelled_by"`
	CancelledAt time.Time `json:"cancelled_at"`
}

type autoCancelResponse struct {
	Success         bool        `json:"success"`
	CancelledCount  int         `json:"cancelled_count"`
	CancelledOrders []uuid.UUID `json:"cancelled_orders"`
	FailedCount     int         `json:"failed_count"`
	CheckTime       time.Time   `json:"check_time"`
}

type dataResponse[T any] struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    T      `json:"data"`
}

type itemView struct {
	ID             uuid.UUID  `json:"id"`
	TestType       string     `json:"test_type"`
	Status         string     `json:"status"`
	StartedAt      *time.Time `json:"started_at"`
	CompletedAt    *time.Time `json:"completed_at"`
	WaitingTime    *int       `json:"waiting_time"`
	TurnaroundTime *int       `json:"turnaround_time"`
	ResultRef      string     `json:"result_ref"`
	Remarks        string     `json:"remarks"`
}

// orderView exposes the aggregate status twice: status is canonical and
// overall_status is kept for older clients.
type orderView struct {
	ID             uuid.UUID        `json:"id"`
	PatientID      uuid.UUID        `json:"patient_id"`
	OrderedBy      uuid.UUID        `json:"ordered_by"`
	PlacedAt       time.Time        `json:"placed_at"`
	Status         string           `json:"status"`
	OverallStatus  string           `json:"overall_status"`
	Remarks        string           `json:"remarks"`
	AverageTAT     *decimal.Decimal `json:"average_tat"`
	TotalItems     int              `json:"total_items"`
	CompletedItems int              `json:"completed_items"`
	Items          []itemView       `json:"items"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

type logEntryView struct {
	ID        uuid.UUID `json:"id"`
	ActorID   uuid.UUID `json:"actor_id"`
	System    bool      `json:"system"`
	Action    string    `json:"action"`
	Detail    string    `json:"detail"`
	CreatedAt time.Time `json:"created_at"`
}

func newOrderView(o queries.GetOrderQueryResponse) orderView {
	items := make([]itemView, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, itemView{
			ID:             item.ID.Bytes(),
			TestType:       item.TestType,
			Status:         item.Status.String(),
			StartedAt:      item.StartedAt,
			CompletedAt:    item.CompletedAt,
			WaitingTime:    item.WaitingTime,
			TurnaroundTime: item.TurnaroundTime,
			ResultRef:      item.ResultRef,
			Remarks:        item.Remarks,
		})
	}

	return orderView{
		ID:             o.ID.Bytes(),
		PatientID:      o.PatientID.Bytes(),
		OrderedBy:      o.OrderedBy.Bytes(),
		PlacedAt:       o.PlacedAt,
		Status:         o.Status.String(),
		OverallStatus:  o.Status.String(),
		Remarks:        o.Remarks,
		AverageTAT:     o.AverageTAT,
		TotalItems:     len(o.Items),
		CompletedItems: o.CompletedItems(),
		Items:          items,
		CreatedAt:      o.CreatedAt,
		UpdatedAt:      o.UpdatedAt,
	}
}

func newLogEntryViews(entries []queries.GetOrderLogsQueryResponse) []logEntryView {
	views := make([]logEntryView, 0, len(entries))
	for _, e := range entries {
		views = append(views, logEntryView{
			ID:        e.ID.Bytes(),
			ActorID:   e.ActorID.Bytes(),
			System:    e.IsSystem(),
			Action:    string(e.Action),
			Detail:    e.Detail,
			CreatedAt: e.CreatedAt,
		})
	}
	return views
}

func newAutoCancelResponse(r commands.AutoCancelResult) autoCancelResponse {
	ids := make([]uuid.UUID, 0, len(r.CancelledOrderIDs))
	for _, id := range r.CancelledOrderIDs {
		ids = append(ids, id.Bytes())
	}
	return autoCancelResponse{
		Success:         true,
		CancelledCount:  len(ids),
		CancelledOrders: ids,
		FailedCount:     r.Failed,
		CheckTime:       r.CheckTime,
	}
}
