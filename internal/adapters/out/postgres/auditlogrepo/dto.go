// Package auditlogrepo persists the append-only order_logs table.
package auditlogrepo

import (
	"time"

	"labtrack/internal/core/domain/model/auditlog"
	"labtrack/internal/core/domain/model/kernel"

	"github.com/google/uuid"
)

// EntryDTO is the order_logs row.
type EntryDTO struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID   uuid.UUID `gorm:"type:uuid;not null;index:idx_order_logs_order_created,priority:1"`
	ActorID   uuid.UUID `gorm:"type:uuid;not null"`
	Action    string    `gorm:"type:varchar(32);not null"`
	Detail    string    `gorm:"type:text"`
	CreatedAt time.Time `gorm:"autoCreateTime:false;index:idx_order_logs_order_created,priority:2"`
}

func (EntryDTO) TableName() string {
	return "order_logs"
}

func fromDomain(entry *auditlog.Entry) EntryDTO {
	return EntryDTO{
		ID:        entry.ID().Bytes(),
		OrderID:   entry.OrderID().Bytes(),
		ActorID:   entry.ActorID().Bytes(),
		Action:    string(entry.Action()),
		Detail:    entry.Detail(),
		CreatedAt: entry.CreatedAt(),
	}
}

func toDomain(dto EntryDTO) (*auditlog.Entry, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	orderID, err := kernel.UUIDFromBytes(dto.OrderID[:])
	if err != nil {
		return nil, err
	}
	actorID, err := kernel.UUIDFromBytes(dto.ActorID[:])
	if err != nil {
		return nil, err
	}

	return auditlog.RestoreEntry(id, orderID, actorID, auditlog.Action(dto.Action), dto.Detail, dto.CreatedAt)
}
