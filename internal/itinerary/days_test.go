package itinerary

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"travelapp/internal/core"
)

func TestExpandDateRange(t *testing.T) {
	tests := []struct {
		name  string
		start core.Date
		end   core.Date
		want  []string
	}{
		{
			name:  "three day trip",
			start: core.NewDate(2024, 9, 13),
			end:   core.NewDate(2024, 9, 15),
			want:  []string{"Fri, 13/09", "Sat, 14/09", "Sun, 15/09"},
		},
		{
			name:  "single day",
			start: core.NewDate(2024, 9, 13),
			end:   core.NewDate(2024, 9, 13),
			want:  []string{"Fri, 13/09"},
		},
		{
			name:  "across month end",
			start: core.NewDate(2024, 2, 28),
			end:   core.NewDate(2024, 3, 1),
			want:  []string{"Wed, 28/02", "Thu, 29/02", "Fri, 01/03"},
		},
		{
			name:  "start after end",
			start: core.NewDate(2024, 9, 15),
			end:   core.NewDate(2024, 9, 13),
			want:  nil,
		},
		{
			name:  "missing end",
			start: core.NewDate(2024, 9, 15),
			want:  nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			days := ExpandDateRange(tt.start, tt.end)
			if tt.want == nil {
				assert.Empty(t, days)
				return
			}
			assert.Equal(t, tt.want, Labels(days))
		})
	}
}

func TestExpandDateRangeLength(t *testing.T) {
	start := core.NewDate(2024, 1, 1)
	for n := 0; n < 60; n += 7 {
		end := start.AddDays(n)
		days := ExpandDateRange(start, end)
		require.Len(t, days, n+1)
		for i := 1; i < len(days); i++ {
			assert.True(t, days[i-1].Date.Before(days[i].Date.Time))
		}
	}
}

func TestExpandDateRangeAcrossDST(t *testing.T) {
	// Dates carry no clock time, so daylight saving changes cannot skip a day.
	days := ExpandDateRange(core.DateOf(time.Date(2024, 3, 30, 0, 0, 0, 0, time.UTC)), core.NewDate(2024, 4, 1))
	assert.Equal(t, []string{"Sat, 30/03", "Sun, 31/03", "Mon, 01/04"}, Labels(days))
}
