// Package period turns bar timestamps into the column labels shown in scan output.
package period

import (
	"fmt"
	"time"

	"spreadscan/pkg/model"
)

// WeeklyStyle selects how weekly bars are labelled
type WeeklyStyle string

const (
	// WeeklyOrdinal is "Week 3": the week-of-month ordinal alone
	WeeklyOrdinal WeeklyStyle = "ordinal"
	// WeeklyMonth is "Oct Week 3": ordinal qualified by month
	WeeklyMonth WeeklyStyle = "month"
	// WeeklyISO is "2026-W42": ISO year and week number
	WeeklyISO WeeklyStyle = "iso"
)

const (
	// MonthlyLong is the full month name and year, e.g. "October 2026"
	MonthlyLong = "January 2006"
	// MonthlyShort is the abbreviated month and year, e.g. "Oct 26"
	MonthlyShort = "Jan 06"

	dailyLayout    = "Jan 02"
	fallbackLayout = "2006-01-02"
)

// Labeler formats timestamps per granularity
type Labeler struct {
	MonthlyLayout string
	Weekly        WeeklyStyle
}

// NewLabeler creates a labeler; empty arguments select the defaults
func NewLabeler(monthlyLayout string, weekly WeeklyStyle) *Labeler {
	if monthlyLayout == "" {
		monthlyLayout = MonthlyLong
	}
	if weekly == "" {
		weekly = WeeklyMonth
	}
	return &Labeler{MonthlyLayout: monthlyLayout, Weekly: weekly}
}

// Label returns the display label for a bar timestamp
func (l *Labeler) Label(t time.Time, g model.Granularity) string {
	switch g {
	case model.Daily:
		return t.Format(dailyLayout)
	case model.Weekly:
		return l.weekly(t)
	case model.Monthly:
		return t.Format(l.MonthlyLayout)
	case model.Quarterly:
		return fmt.Sprintf("Q%d-%d", Quarter(t), t.Year())
	default:
		return t.Format(fallbackLayout)
	}
}

func (l *Labeler) weekly(t time.Time) string {
	switch l.Weekly {
	case WeeklyOrdinal:
		return fmt.Sprintf("Week %d", WeekOfMonth(t))
	case WeeklyISO:
		year, week := t.ISOWeek()
		return fmt.Sprintf("%d-W%02d", year, week)
	default:
		return fmt.Sprintf("%s Week %d", t.Format("Jan"), WeekOfMonth(t))
	}
}

// WeekOfMonth is ((day-1)/7)+1, so days 1-7 are week 1 and 29-31 are week 5
func WeekOfMonth(t time.Time) int {
	return (t.Day()-1)/7 + 1
}

// Quarter is ((month-1)/3)+1
func Quarter(t time.Time) int {
	return (int(t.Month())-1)/3 + 1
}

// ParseWeeklyStyle validates a configured weekly style
func ParseWeeklyStyle(s string) (WeeklyStyle, error) {
	switch WeeklyStyle(s) {
	case "":
		return WeeklyMonth, nil
	case WeeklyOrdinal, WeeklyMonth, WeeklyISO:
		return WeeklyStyle(s), nil
	}
	return "", fmt.Errorf("unknown weekly style %q (want ordinal, month, iso)", s)
}
