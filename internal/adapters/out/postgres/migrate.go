package postgres

import (
	"fmt"

	"labtrack/internal/adapters/out/postgres/auditlogrepo"
	"labtrack/internal/adapters/out/postgres/orderrepo"

	"gorm.io/gorm"
)

// Migrate creates or updates the orders, order_items and order_logs tables.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&orderrepo.OrderDTO{}, &orderrepo.ItemDTO{}, &auditlogrepo.EntryDTO{}); err != nil {
		return fmt.Errorf("migrate schema: %w", err)
	}
	return nil
}
