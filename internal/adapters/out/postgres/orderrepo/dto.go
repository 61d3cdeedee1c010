// Package orderrepo maps order aggregates onto the orders and order_items tables.
package orderrepo

import (
	"time"

	"labtrack/internal/core/domain/model/kernel"
	"labtrack/internal/core/domain/model/order"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// OrderDTO is the orders row. Notes are kept as a JSON array so remarks stay append-only.
type OrderDTO struct {
	ID         uuid.UUID                    `gorm:"type:uuid;primaryKey"`
	PatientID  uuid.UUID                    `gorm:"type:uuid;not null;index"`
	OrderedBy  uuid.UUID                    `gorm:"type:uuid;not null"`
	PlacedAt   time.Time                    `gorm:"not null;index"`
	Status     string                       `gorm:"type:varchar(32);not null;index"`
	Notes      datatypes.JSONSlice[NoteDTO] `gorm:"type:jsonb"`
	AverageTAT *decimal.Decimal             `gorm:"type:numeric(10,2)"`
	CreatedAt  time.Time                    `gorm:"autoCreateTime:false"`
	UpdatedAt  time.Time                    `gorm:"autoUpdateTime:false"`
	Items      []ItemDTO                    `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

func (OrderDTO) TableName() string {
	return "orders"
}

// NoteDTO is one element of the orders.notes JSON array.
type NoteDTO struct {
	At     time.Time `json:"at"`
	Author uuid.UUID `json:"author"`
	Text   string    `json:"text"`
}

// ItemDTO is the order_items row.
type ItemDTO struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey"`
	OrderID        uuid.UUID  `gorm:"type:uuid;not null;index"`
	TestType       string     `gorm:"type:varchar(128);not null"`
	Status         string     `gorm:"type:varchar(32);not null;index"`
	StartedAt      *time.Time
	CompletedAt    *time.Time
	WaitingTime    *int
	TurnaroundTime *int
	ResultRef      string    `gorm:"type:varchar(255)"`
	Remarks        string    `gorm:"type:text"`
	CreatedAt      time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime:false"`
}

func (ItemDTO) TableName() string {
	return "order_items"
}

func fromDomain(aggregate *order.Order) OrderDTO {
	notes := make(datatypes.JSONSlice[NoteDTO], 0, len(aggregate.Notes()))
	for _, n := range aggregate.Notes() {
		notes = append(notes, NoteDTO{At: n.At, Author: n.Author.Bytes(), Text: n.Text})
	}

	items := make([]ItemDTO, 0, len(aggregate.Items()))
	for _, item := range aggregate.Items() {
		items = append(items, itemFromDomain(aggregate.ID(), item))
	}

	return OrderDTO{
		ID:         aggregate.ID().Bytes(),
		PatientID:  aggregate.PatientID().Bytes(),
		OrderedBy:  aggregate.OrderedBy().Bytes(),
		PlacedAt:   aggregate.PlacedAt(),
		Status:     aggregate.Status().String(),
		Notes:      notes,
		AverageTAT: aggregate.AverageTAT(),
		CreatedAt:  aggregate.CreatedAt(),
		UpdatedAt:  aggregate.UpdatedAt(),
		Items:      items,
	}
}

func itemFromDomain(orderID kernel.UUID, item *order.Item) ItemDTO {
	return ItemDTO{
		ID:             item.ID().Bytes(),
		OrderID:        orderID.Bytes(),
		TestType:       item.TestType(),
		Status:         item.Status().String(),
		StartedAt:      item.StartedAt(),
		CompletedAt:    item.CompletedAt(),
		WaitingTime:    item.WaitingTime(),
		TurnaroundTime: item.TurnaroundTime(),
		ResultRef:      item.ResultRef(),
		Remarks:        item.Remarks(),
		CreatedAt:      item.CreatedAt(),
		UpdatedAt:      item.UpdatedAt(),
	}
}

func toDomain(dto OrderDTO) (*order.Order, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	patientID, err := kernel.UUIDFromBytes(dto.PatientID[:])
	if err != nil {
		return nil, err
	}
	orderedBy, err := kernel.UUIDFromBytes(dto.OrderedBy[:])
	if err != nil {
		return nil, err
	}
	status, err := order.ParseStatus(dto.Status)
	if err != nil {
		return nil, err
	}

	notes := make([]order.Note, 0, len(dto.Notes))
	for _, n := range dto.Notes {
		author, authorErr := kernel.UUIDFromBytes(n.Author[:])
		if authorErr != nil {
			return nil, authorErr
		}
		notes = append(notes, order.Note{At: n.At, Author: author, Text: n.Text})
	}

	items := make([]*order.Item, 0, len(dto.Items))
	for _, itemDTO := range dto.Items {
		item, itemErr := itemToDomain(itemDTO)
		if itemErr != nil {
			return nil, itemErr
		}
		items = append(items, item)
	}

	return order.RestoreOrder(order.OrderSnapshot{
		ID:         id,
		PatientID:  patientID,
		OrderedBy:  orderedBy,
		PlacedAt:   dto.PlacedAt,
		Status:     status,
		Notes:      notes,
		AverageTAT: dto.AverageTAT,
		CreatedAt:  dto.CreatedAt,
		UpdatedAt:  dto.UpdatedAt,
	}, items)
}

func itemToDomain(dto ItemDTO) (*order.Item, error) {
	id, err := kernel.UUIDFromBytes(dto.ID[:])
	if err != nil {
		return nil, err
	}
	status, err := order.ParseItemStatus(dto.Status)
	if err != nil {
		return nil, err
	}

	return order.RestoreItem(order.ItemSnapshot{
		ID:             id,
		TestType:       dto.TestType,
		Status:         status,
		StartedAt:      dto.StartedAt,
		CompletedAt:    dto.CompletedAt,
		WaitingTime:    dto.WaitingTime,
		TurnaroundTime: dto.TurnaroundTime,
		ResultRef:      dto.ResultRef,
		Remarks:        dto.Remarks,
		CreatedAt:      dto.CreatedAt,
		UpdatedAt:      dto.UpdatedAt,
	})
}
