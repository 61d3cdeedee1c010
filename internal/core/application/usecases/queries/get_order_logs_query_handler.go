package queries

import (
	"context"

	"labtrack/internal/core/domain/model/auditlog"
	"labtrack/internal/core/domain/model/kernel"
	"labtrack/internal/pkg/errs"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type GetOrderLogsQueryHandler struct {
	db *gorm.DB
}

func NewGetOrderLogsQueryHandler(db *gorm.DB) GetOrderLogsQueryHandler {
	return GetOrderLogsQueryHandler{db: db}
}

// Handle returns a NotFound error for an unknown order and an empty list for an
// order without entries.
func (h GetOrderLogsQueryHandler) Handle(
	ctx context.Context,
	query GetOrderLogsQuery,
) ([]GetOrderLogsQueryResponse, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	var exists bool
	err := h.db.WithContext(ctx).
		Raw(`SELECT EXISTS (SELECT 1 FROM orders WHERE id = ?)`, query.OrderID().Bytes()).
		Scan(&exists).Error
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, errs.NewObjectNotFoundError("order", query.OrderID().String())
	}

	rows, err := h.db.WithContext(ctx).Raw(`
		SELECT
			id,
			actor_id,
			action,
			detail,
			created_at
		FROM order_logs
		WHERE order_id = ?
		ORDER BY created_at, id
	`, query.OrderID().Bytes()).Rows()
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]GetOrderLogsQueryResponse, 0)
	for rows.Next() {
		var (
			entry       GetOrderLogsQueryResponse
			id, actorID uuid.UUID
			action      string
		)
		if err = rows.Scan(&id, &actorID, &action, &entry.Detail, &entry.CreatedAt); err != nil {
			return nil, err
		}

		if entry.ID, err = kernel.UUIDFromBytes(id[:]); err != nil {
			return nil, err
		}
		if entry.ActorID, err = kernel.UUIDFromBytes(actorID[:]); err != nil {
			return nil, err
		}
		entry.Action = auditlog.Action(action)

		entries = append(entries, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, err
	}

	return entries, nil
}
