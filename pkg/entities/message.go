package entities

import (
	"time"

	"gorm.io/gorm"
)

// Message is an append-only log row. A SCHEDULED message becomes exactly one
// of SENT/FAILED once its due time passes; it is never re-processed after
// leaving SCHEDULED.
type Message struct {
	gorm.Model
	TenantID uint   `json:"tenant_id" gorm:"index;not null"`
	Address  string `json:"address" gorm:"type:varchar(255);not null"`
	Body     string `json:"body" gorm:"type:text"`

	// Direction is IN or OUT.
	Direction string `json:"direction" gorm:"type:varchar(4);not null"`

	// Status is SENT, SCHEDULED or FAILED.
	Status string `json:"status" gorm:"type:varchar(16);index;not null"`

	ScheduledAt *time.Time `json:"scheduled_at" gorm:"index"`

	Tenant Tenant `json:"-" gorm:"foreignKey:TenantID"`
}
