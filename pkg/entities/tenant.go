package entities

import (
	"gorm.io/gorm"
)

// Tenant is one managed identity whose messages flow through the gateway.
// The auto-reply configuration lives on the tenant row; a disabled toggle
// keeps its template nulled.
type Tenant struct {
	gorm.Model
	Name        string `json:"name" gorm:"type:varchar(255);not null"`
	Description string `json:"description" gorm:"type:text"`
	SecretKey   string `json:"-" gorm:"type:varchar(255);not null"`

	// SessionFolder is the per-tenant directory holding the connection
	// capability's credential store.
	SessionFolder string `json:"session_folder" gorm:"type:varchar(64);uniqueIndex;not null"`

	// Status is a projection of the live session state:
	// DISCONNECTED | SCANNING | CONNECTED.
	Status string `json:"status" gorm:"type:varchar(16);default:'DISCONNECTED'"`

	// Identity fields cached once the session connects.
	NetworkID   string `json:"network_id" gorm:"type:varchar(255)"`
	DisplayName string `json:"display_name" gorm:"type:varchar(255)"`
	PhoneNumber string `json:"phone_number" gorm:"type:varchar(32)"`
	AvatarURL   string `json:"avatar_url" gorm:"type:text"`

	// Auto-reply toggles and templates per message class.
	ReplyPersonal         bool    `json:"reply_personal" gorm:"default:false"`
	ReplyGroup            bool    `json:"reply_group" gorm:"default:false"`
	ReplyTag              bool    `json:"reply_tag" gorm:"default:false"`
	ReplyTemplatePersonal *string `json:"reply_template_personal" gorm:"type:text"`
	ReplyTemplateGroup    *string `json:"reply_template_group" gorm:"type:text"`
	ReplyTemplateTag      *string `json:"reply_template_tag" gorm:"type:text"`
}
