package catalog

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BruksfildServices01/calendrier-rdv/internal/models"
)

func TestDefaultHours(t *testing.T) {
	hours := DefaultHours("08:00", "20:00", []time.Weekday{time.Monday, time.Friday})

	require.Len(t, hours, 7)
	assert.False(t, hours[0].Active)
	assert.True(t, hours[1].Active)
	assert.True(t, hours[5].Active)
	assert.False(t, hours[6].Active)
	assert.Equal(t, "08:00", hours[3].OpenTime)
	assert.Equal(t, "20:00", hours[3].CloseTime)
}

func TestValidateHours(t *testing.T) {
	tests := []struct {
		name  string
		hours []models.BusinessHours
		valid bool
	}{
		{
			name:  "valid with break",
			hours: []models.BusinessHours{{Weekday: 1, Active: true, OpenTime: "08:00", CloseTime: "18:00", BreakStart: "12:00", BreakEnd: "13:00"}},
			valid: true,
		},
		{
			name:  "inactive day ignores times",
			hours: []models.BusinessHours{{Weekday: 0, Active: false, OpenTime: "bad"}},
			valid: true,
		},
		{
			name:  "open after close",
			hours: []models.BusinessHours{{Weekday: 1, Active: true, OpenTime: "18:00", CloseTime: "08:00"}},
		},
		{
			name:  "malformed time",
			hours: []models.BusinessHours{{Weekday: 1, Active: true, OpenTime: "8h", CloseTime: "18:00"}},
		},
		{
			name:  "break outside hours",
			hours: []models.BusinessHours{{Weekday: 1, Active: true, OpenTime: "08:00", CloseTime: "18:00", BreakStart: "19:00", BreakEnd: "20:00"}},
		},
		{
			name: "duplicate weekday",
			hours: []models.BusinessHours{
				{Weekday: 2, Active: false},
				{Weekday: 2, Active: false},
			},
		},
		{
			name:  "weekday out of range",
			hours: []models.BusinessHours{{Weekday: 7}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.valid, ValidateHours(tt.hours).Valid())
		})
	}
}
