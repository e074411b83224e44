package database

import (
	"github.com/wagateway/pkg/entities"
	"gorm.io/gorm"
)

// AutoMigrate runs database migrations
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entities.Tenant{},
		&entities.Webhook{},
		&entities.Contact{},
		&entities.Message{},
	)
}
