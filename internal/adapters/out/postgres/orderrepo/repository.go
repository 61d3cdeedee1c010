package orderrepo

import (
	"context"
	"errors"
	"time"

	"labtrack/internal/adapters/out/postgres/pgerr"
	"labtrack/internal/core/domain/model/kernel"
	"labtrack/internal/core/domain/model/order"
	"labtrack/internal/pkg/errs"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const averageTATColumn = "average_tat"

// Schema describes optional columns of the deployed orders table.
type Schema struct {
	AverageTAT bool
}

// InspectSchema inspects the orders table. Deployments created before average_tat
// existed keep working; the value is then computed but never stored.
func InspectSchema(db *gorm.DB) Schema {
	return Schema{AverageTAT: db.Migrator().HasColumn(&OrderDTO{}, averageTATColumn)}
}

// GormOrderRepository implements OrderRepository using GORM.
type GormOrderRepository struct {
	db      *gorm.DB
	tracker aggregateTracker
	schema  Schema
}

type aggregateTracker interface {
	TrackAggregate(id kernel.UUID, aggregate any)
}

func NewGormOrderRepository(db *gorm.DB, tracker aggregateTracker, schema Schema) *GormOrderRepository {
	return &GormOrderRepository{
		db:      db,
		tracker: tracker,
		schema:  schema,
	}
}

// Add inserts the order row and its item rows.
func (r *GormOrderRepository) Add(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	query := r.db.WithContext(ctx)
	if !r.schema.AverageTAT {
		query = query.Omit(averageTATColumn)
	}
	if err := query.Create(&dto).Error; err != nil {
		return pgerr.Translate("order", err)
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

// Update writes the order row and every item row. A write affecting zero rows
// is a Conflict.
func (r *GormOrderRepository) Update(ctx context.Context, aggregate *order.Order) error {
	if err := aggregate.Validate(); err != nil {
		return err
	}

	dto := fromDomain(aggregate)
	values := map[string]any{
		"status":     dto.Status,
		"notes":      dto.Notes,
		"updated_at": dto.UpdatedAt,
	}
	if r.schema.AverageTAT && dto.AverageTAT != nil {
		values[averageTATColumn] = dto.AverageTAT
	}

	result := r.db.WithContext(ctx).Model(&OrderDTO{}).Where("id = ?", dto.ID).Updates(values)
	if result.Error != nil {
		return pgerr.Translate("order", result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.NewConflictError("order " + aggregate.ID().String() + " was not updated")
	}

	for _, item := range dto.Items {
		if err := r.updateItem(ctx, item); err != nil {
			return err
		}
	}

	r.tracker.TrackAggregate(aggregate.ID(), aggregate)
	return nil
}

func (r *GormOrderRepository) updateItem(ctx context.Context, item ItemDTO) error {
	result := r.db.WithContext(ctx).Model(&ItemDTO{}).
		Where("id = ? AND order_id = ?", item.ID, item.OrderID).
		Updates(map[string]any{
			"status":          item.Status,
			"started_at":      item.StartedAt,
			"completed_at":    item.CompletedAt,
			"waiting_time":    item.WaitingTime,
			"turnaround_time": item.TurnaroundTime,
			"remarks":         item.Remarks,
			"updated_at":      item.UpdatedAt,
		})
	if result.Error != nil {
		return pgerr.Translate("order item", result.Error)
	}
	if result.RowsAffected == 0 {
		return errs.NewConflictError("order item " + item.ID.String() + " was not updated")
	}
	return nil
}

// Get loads an order and its items. The order row is locked until the
// surrounding transaction ends.
func (r *GormOrderRepository) Get(ctx context.Context, id kernel.UUID) (*order.Order, error) {
	if err := id.Validate(); err != nil {
		return nil, err
	}

	var dto OrderDTO
	err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at, id")
		}).
		Take(&dto, "id = ?", id.Bytes()).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errs.NewObjectNotFoundError("order", id.String())
		}
		return nil, pgerr.Translate("order", err)
	}

	return toDomain(dto)
}

// GetOrderIDByItemID resolves the order owning an item.
func (r *GormOrderRepository) GetOrderIDByItemID(ctx context.Context, itemID kernel.UUID) (kernel.UUID, error) {
	if err := itemID.Validate(); err != nil {
		return kernel.UUID{}, err
	}

	var item ItemDTO
	err := r.db.WithContext(ctx).Select("order_id").Take(&item, "id = ?", itemID.Bytes()).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return kernel.UUID{}, errs.NewObjectNotFoundError("order item", itemID.String())
		}
		return kernel.UUID{}, pgerr.Translate("order item", err)
	}

	return kernel.UUIDFromBytes(item.OrderID[:])
}

// GetAutoCancelCandidates lists open orders placed in [from, to) without a completed item.
func (r *GormOrderRepository) GetAutoCancelCandidates(ctx context.Context, from, to time.Time) ([]kernel.UUID, error) {
	var ids []uuid.UUID
	err := r.db.WithContext(ctx).Model(&OrderDTO{}).
		Where("status IN ?", []string{order.Pending.String(), order.InProgress.String()}).
		Where("placed_at >= ? AND placed_at < ?", from, to).
		Where("NOT EXISTS (SELECT 1 FROM order_items oi WHERE oi.order_id = orders.id AND oi.status = ?)",
			order.ItemCompleted.String()).
		Order("placed_at, id").
		Pluck("id", &ids).Error
	if err != nil {
		return nil, pgerr.Translate("order", err)
	}

	result := make([]kernel.UUID, 0, len(ids))
	for _, id := range ids {
		kid, convErr := kernel.UUIDFromBytes(id[:])
		if convErr != nil {
			return nil, convErr
		}
		result = append(result, kid)
	}
	return result, nil
}
