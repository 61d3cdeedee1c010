package queries

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"labtrack/internal/core/domain/model/kernel"
	"labtrack/internal/core/domain/model/order"
	"labtrack/internal/pkg/errs"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// GetOrderQueryHandler reads orders straight from the orders and order_items tables.
// withAverageTAT must be false on deployments whose orders table lacks average_tat.
type GetOrderQueryHandler struct {
	db             *gorm.DB
	withAverageTAT bool
}

func NewGetOrderQueryHandler(db *gorm.DB, withAverageTAT bool) GetOrderQueryHandler {
	return GetOrderQueryHandler{db: db, withAverageTAT: withAverageTAT}
}

type noteRow struct {
	At     time.Time `json:"at"`
	Author uuid.UUID `json:"author"`
	Text   string    `json:"text"`
}

func (h GetOrderQueryHandler) Handle(ctx context.Context, query GetOrderQuery) (GetOrderQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return GetOrderQueryResponse{}, err
	}

	averageColumn := "NULL::numeric"
	if h.withAverageTAT {
		averageColumn = "average_tat"
	}

	var (
		resp                   GetOrderQueryResponse
		id, patient, orderedBy uuid.UUID
		status                 string
		notes                  datatypes.JSONSlice[noteRow]
		average                decimal.NullDecimal
	)
	row := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			patient_id,
			ordered_by,
			placed_at,
			status,
			COALESCE(notes, '[]'::jsonb),
			`+averageColumn+`,
			created_at,
			updated_at
		FROM orders
		WHERE id = ?
	`, query.OrderID().Bytes()).Row()
	err := row.Scan(&id, &patient, &orderedBy, &resp.PlacedAt, &status, &notes, &average,
		&resp.CreatedAt, &resp.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return GetOrderQueryResponse{}, errs.NewObjectNotFoundError("order", query.OrderID().String())
		}
		return GetOrderQueryResponse{}, err
	}

	if resp.ID, err = kernel.UUIDFromBytes(id[:]); err != nil {
		return GetOrderQueryResponse{}, err
	}
	if resp.PatientID, err = kernel.UUIDFromBytes(patient[:]); err != nil {
		return GetOrderQueryResponse{}, err
	}
	if resp.OrderedBy, err = kernel.UUIDFromBytes(orderedBy[:]); err != nil {
		return GetOrderQueryResponse{}, err
	}
	if resp.Status, err = order.ParseStatus(status); err != nil {
		return GetOrderQueryResponse{}, err
	}
	if average.Valid {
		resp.AverageTAT = &average.Decimal
	}

	rendered := make([]order.Note, 0, len(notes))
	for _, n := range notes {
		rendered = append(rendered, order.Note{At: n.At, Text: n.Text})
	}
	resp.Remarks = order.RenderRemarks(rendered)

	if resp.Items, err = h.items(ctx, query.OrderID()); err != nil {
		return GetOrderQueryResponse{}, err
	}

	return resp, nil
}

func (h GetOrderQueryHandler) items(ctx context.Context, orderID kernel.UUID) ([]GetOrderItemResponse, error) {
	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			test_type,
			status,
			started_at,
			completed_at,
			waiting_time,
			turnaround_time,
			result_ref,
			remarks
		FROM order_items
		WHERE order_id = ?
		ORDER BY created_at, id
	`, orderID.Bytes()).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]GetOrderItemResponse, 0)
	for rows.Next() {
		var (
			item                    GetOrderItemResponse
			id                      uuid.UUID
			status                  string
			waitingTime, turnaround sql.NullInt64
			resultRef, remarks      sql.NullString
		)
		err = rows.Scan(&id, &item.TestType, &status, &item.StartedAt, &item.CompletedAt,
			&waitingTime, &turnaround, &resultRef, &remarks)
		if err != nil {
			return nil, err
		}

		if item.ID, err = kernel.UUIDFromBytes(id[:]); err != nil {
			return nil, err
		}
		if item.Status, err = order.ParseItemStatus(status); err != nil {
			return nil, err
		}
		item.WaitingTime = intPtr(waitingTime)
		item.TurnaroundTime = intPtr(turnaround)
		item.ResultRef = resultRef.String
		item.Remarks = remarks.String

		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
