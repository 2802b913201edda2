package schedule

import "time"

// Eastern returns the US exchange time zone
func Eastern() *time.Location {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		loc = time.FixedZone("EST", -5*60*60)
	}
	return loc
}

// IsTradingDay reports whether NYSE holds a regular session on t's date in Eastern time
func IsTradingDay(t time.Time) bool {
	et := t.In(Eastern())
	if wd := et.Weekday(); wd == time.Saturday || wd == time.Sunday {
		return false
	}
	return !IsHoliday(et)
}

// IsHoliday reports whether t's calendar date is a full-day NYSE closure
func IsHoliday(t time.Time) bool {
	y, m, d := t.Date()
	for _, h := range Holidays(y) {
		if _, hm, hd := h.Date(); hm == m && hd == d {
			return true
		}
	}
	return false
}

// Holidays returns the full-day NYSE closures of year, as observed
func Holidays(year int) []time.Time {
	date := func(m time.Month, d int) time.Time {
		return time.Date(year, m, d, 0, 0, 0, 0, time.UTC)
	}

	var hs []time.Time

	// New Year's Day on a Saturday is not moved to the prior Friday
	if ny := date(time.January, 1); ny.Weekday() != time.Saturday {
		hs = append(hs, observed(ny))
	}
	hs = append(hs,
		nthWeekday(year, time.January, time.Monday, 3),  // MLK Day
		nthWeekday(year, time.February, time.Monday, 3), // Presidents Day
		easter(year).AddDate(0, 0, -2),                  // Good Friday
		lastWeekday(year, time.May, time.Monday),        // Memorial Day
	)
	if year >= 2022 {
		hs = append(hs, observed(date(time.June, 19)))
	}
	hs = append(hs,
		observed(date(time.July, 4)),
		nthWeekday(year, time.September, time.Monday, 1),  // Labor Day
		nthWeekday(year, time.November, time.Thursday, 4), // Thanksgiving
		observed(date(time.December, 25)),
	)
	return hs
}

// observed moves a Saturday holiday to Friday and a Sunday holiday to Monday
func observed(t time.Time) time.Time {
	switch t.Weekday() {
	case time.Saturday:
		return t.AddDate(0, 0, -1)
	case time.Sunday:
		return t.AddDate(0, 0, 1)
	}
	return t
}

func nthWeekday(year int, month time.Month, wd time.Weekday, n int) time.Time {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	offset := (int(wd) - int(first.Weekday()) + 7) % 7
	return first.AddDate(0, 0, offset+7*(n-1))
}

func lastWeekday(year int, month time.Month, wd time.Weekday) time.Time {
	last := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC)
	offset := (int(last.Weekday()) - int(wd) + 7) % 7
	return last.AddDate(0, 0, -offset)
}

// easter is Easter Sunday (anonymous Gregorian algorithm)
func easter(year int) time.Time {
	a := year % 19
	b, c := year/100, year%100
	d, e := b/4, b%4
	f := (b + 8) / 25
	g := (b - f + 1) / 3
	h := (19*a + b - d - g + 15) % 30
	i, k := c/4, c%4
	l := (32 + 2*e + 2*i - h - k) % 7
	m := (a + 11*h + 22*l) / 451
	month := (h + l - 7*m + 114) / 31
	day := (h+l-7*m+114)%31 + 1
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}
