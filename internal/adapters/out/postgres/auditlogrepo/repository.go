package auditlogrepo

import (
	"context"

	"labtrack/internal/adapters/out/postgres/pgerr"
	"labtrack/internal/core/domain/model/auditlog"
	"labtrack/internal/core/domain/model/kernel"

	"gorm.io/gorm"
)

// GormAuditLogRepository implements AuditLogRepository using GORM.
type GormAuditLogRepository struct {
	db *gorm.DB
}

func NewGormAuditLogRepository(db *gorm.DB) *GormAuditLogRepository {
	return &GormAuditLogRepository{db: db}
}

func (r *GormAuditLogRepository) Add(ctx context.Context, entry *auditlog.Entry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	dto := fromDomain(entry)
	if err := r.db.WithContext(ctx).Create(&dto).Error; err != nil {
		return pgerr.Translate("order log", err)
	}
	return nil
}

// ListByOrder returns the entries of one order, oldest first.
func (r *GormAuditLogRepository) ListByOrder(ctx context.Context, orderID kernel.UUID) ([]*auditlog.Entry, error) {
	if err := orderID.Validate(); err != nil {
		return nil, err
	}

	var dtos []EntryDTO
	err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID.Bytes()).
		Order("created_at, id").
		Find(&dtos).Error
	if err != nil {
		return nil, pgerr.Translate("order log", err)
	}

	entries := make([]*auditlog.Entry, 0, len(dtos))
	for _, dto := range dtos {
		entry, convErr := toDomain(dto)
		if convErr != nil {
			return nil, convErr
		}
		entries = append(entries, entry)
	}
	return entries, nil
}
