package entities

import (
	"gorm.io/gorm"
)

// Webhook is one external endpoint an inbound message is fanned out to.
// A webhook fires iff at least one routing flag matches the message's
// classification.
type Webhook struct {
	gorm.Model
	TenantID uint   `json:"tenant_id" gorm:"index;not null"`
	Name     string `json:"name" gorm:"type:varchar(255)"`
	URL      string `json:"url" gorm:"type:text;not null"`

	// SignHeader/Secret form the shared-secret signing header attached to
	// every delivery.
	SignHeader string `json:"sign_header" gorm:"type:varchar(128)"`
	Secret     string `json:"-" gorm:"type:varchar(255)"`

	// Routing flags. OnPersonal defaults to true at creation time; the
	// columns themselves carry no defaults so an explicit false sticks.
	OnPersonal bool `json:"on_personal"`
	OnGroup    bool `json:"on_group"`
	OnTag      bool `json:"on_tag"`

	Tenant Tenant `json:"-" gorm:"foreignKey:TenantID"`
}
