package entities

import (
	"gorm.io/gorm"
)

// Contact is upserted during contact synchronization and used to personalize
// broadcast templates.
type Contact struct {
	gorm.Model
	TenantID  uint   `json:"tenant_id" gorm:"uniqueIndex:idx_tenant_address;not null"`
	Address   string `json:"address" gorm:"type:varchar(255);uniqueIndex:idx_tenant_address;not null"`
	Name      string `json:"name" gorm:"type:varchar(255)"`
	Phone     string `json:"phone" gorm:"type:varchar(32)"`
	AvatarURL string `json:"avatar_url" gorm:"type:text"`

	// Kind is PERSONAL, GROUP or COMMUNITY.
	Kind string `json:"kind" gorm:"type:varchar(16);default:'PERSONAL'"`

	Tenant Tenant `json:"-" gorm:"foreignKey:TenantID"`
}
