package models

import "time"

const (
	NotificationQueued = "queued"
	NotificationSent   = "sent"
	NotificationFailed = "failed"
)

type Notification struct {
	ID uint `gorm:"primaryKey" json:"id"`

	AppointmentID *uint  `gorm:"index" json:"appointment_id"`
	Template      string `gorm:"size:50;not null" json:"template"`
	Recipient     string `gorm:"size:100;not null" json:"recipient"`

	Status    string     `gorm:"size:20;index;default:'queued'" json:"status"`
	Attempts  int        `json:"attempts"`
	LastError string     `gorm:"type:text" json:"last_error"`
	SentAt    *time.Time `json:"sent_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NotificationFailure is written once per notification that exhausted its retries.
type NotificationFailure struct {
	ID uint `gorm:"primaryKey" json:"id"`

	NotificationID uint   `gorm:"index" json:"notification_id"`
	Template       string `gorm:"size:50" json:"template"`
	Recipient      string `gorm:"size:100" json:"recipient"`
	Attempts       int    `json:"attempts"`
	Error          string `gorm:"type:text" json:"error"`

	FailedAt time.Time `json:"failed_at"`
}
