package models

import "time"

type Appointment struct {
	ID uint `gorm:"primaryKey" json:"id"`

	ServiceID uint    `gorm:"index;not null" json:"service_id"`
	Service   Service `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"service"`

	ProviderID uint     `gorm:"index;not null" json:"provider_id"`
	Provider   Provider `gorm:"constraint:OnUpdate:CASCADE,OnDelete:RESTRICT;" json:"provider"`

	StartTime time.Time `gorm:"index;not null" json:"start_time"`
	EndTime   time.Time `gorm:"not null" json:"end_time"`

	Status string `gorm:"size:20;index;default:'pending'" json:"status"`

	CustomerName  string `gorm:"size:100;not null" json:"customer_name"`
	CustomerEmail string `gorm:"size:100;index;not null" json:"customer_email"`
	CustomerPhone string `gorm:"size:20" json:"customer_phone"`
	Notes         string `gorm:"size:255" json:"notes"`

	Price         float64 `json:"price"`
	PaymentStatus string  `gorm:"size:20;default:'unpaid'" json:"payment_status"`

	CancelToken string `gorm:"size:36;uniqueIndex" json:"-"`

	ConfirmedAt *time.Time `json:"confirmed_at"`
	CancelledAt *time.Time `json:"cancelled_at"`
	CompletedAt *time.Time `json:"completed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
