package schedule

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestHolidays(t *testing.T) {
	tests := []struct {
		year int
		want []string
	}{
		{2024, []string{"2024-01-01", "2024-01-15", "2024-02-19", "2024-03-29", "2024-05-27",
			"2024-06-19", "2024-07-04", "2024-09-02", "2024-11-28", "2024-12-25"}},
		{2025, []string{"2025-01-01", "2025-01-20", "2025-02-17", "2025-04-18", "2025-05-26",
			"2025-06-19", "2025-07-04", "2025-09-01", "2025-11-27", "2025-12-25"}},
		{2026, []string{"2026-01-01", "2026-01-19", "2026-02-16", "2026-04-03", "2026-05-25",
			"2026-06-19", "2026-07-03", "2026-09-07", "2026-11-26", "2026-12-25"}},
		// New Year's Day on Saturday is not observed; Christmas on Sunday moves to Monday
		{2022, []string{"2022-01-17", "2022-02-21", "2022-04-15", "2022-05-30",
			"2022-06-20", "2022-07-04", "2022-09-05", "2022-11-24", "2022-12-26"}},
	}

	for _, tt := range tests {
		var got []string
		for _, h := range Holidays(tt.year) {
			got = append(got, h.Format("2006-01-02"))
		}
		assert.Equal(t, tt.want, got, "year %d", tt.year)
	}
}

func TestIsTradingDay(t *testing.T) {
	et := Eastern()
	tests := []struct {
		name string
		t    time.Time
		want bool
	}{
		{"monday", time.Date(2026, 10, 19, 16, 30, 0, 0, et), true},
		{"saturday", time.Date(2026, 10, 17, 12, 0, 0, 0, et), false},
		{"thanksgiving", time.Date(2026, 11, 26, 16, 30, 0, 0, et), false},
		{"observed independence day", time.Date(2026, 7, 3, 16, 30, 0, 0, et), false},
		// 01:00 UTC Tuesday is still Monday evening in New York
		{"utc rolls to eastern", time.Date(2026, 10, 20, 1, 0, 0, 0, time.UTC), true},
		{"utc sunday night", time.Date(2026, 10, 19, 2, 0, 0, 0, time.UTC), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsTradingDay(tt.t))
		})
	}
}

func TestEaster(t *testing.T) {
	assert.Equal(t, time.Date(2026, 4, 5, 0, 0, 0, 0, time.UTC), easter(2026))
	assert.Equal(t, time.Date(2000, 4, 23, 0, 0, 0, 0, time.UTC), easter(2000))
}
