package dtos

import "time"

// DTO for immediate sends; more than one target makes it a broadcast.
type SendMessageDTO struct {
	Targets []string `json:"targets" binding:"required,min=1,dive,isphone"`
	Body    string   `json:"body" binding:"required"`
	DelayMs int      `json:"delay_ms"`
}

type ScheduleMessageDTO struct {
	To          string    `json:"to" binding:"required,isphone"`
	Body        string    `json:"body" binding:"required"`
	ScheduledAt time.Time `json:"scheduled_at" binding:"required"`
}

type SendMediaMessageDTO struct {
	Targets  []string
	Caption  string
	Filename string
	MimeType string
	Data     []byte
	DelayMs  int
}

type MessageResponseDTO struct {
	ID          uint       `json:"id"`
	Address     string     `json:"address"`
	Body        string     `json:"body"`
	Direction   string     `json:"direction"`
	Status      string     `json:"status"`
	ScheduledAt *time.Time `json:"scheduled_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}
