package models

import "time"

// BusinessHours holds the opening schedule of one weekday (0 = Sunday).
type BusinessHours struct {
	ID uint `gorm:"primaryKey" json:"id"`

	Weekday int `gorm:"uniqueIndex;not null" json:"weekday"`

	OpenTime   string `gorm:"size:5" json:"open_time"`
	CloseTime  string `gorm:"size:5" json:"close_time"`
	BreakStart string `gorm:"size:5" json:"break_start"`
	BreakEnd   string `gorm:"size:5" json:"break_end"`
	Active     bool   `json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (BusinessHours) TableName() string {
	return "business_hours"
}

func (b BusinessHours) HasBreak() bool {
	return b.BreakStart != "" && b.BreakEnd != ""
}
