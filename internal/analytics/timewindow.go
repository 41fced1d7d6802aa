package analytics

import "time"

// DateLayout is the ISO calendar-date form used for bucketing and heatmap keys.
const DateLayout = "2006-01-02"

// CalendarDateOf truncates t to midnight of its UTC calendar date.
func CalendarDateOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// IsSameCalendarDate reports whether a and b fall on the same UTC date.
func IsSameCalendarDate(a, b time.Time) bool {
	return CalendarDateOf(a).Equal(CalendarDateOf(b))
}

// StartOfCurrentWeek returns Sunday 00:00 UTC of the week containing ref.
func StartOfCurrentWeek(ref time.Time) time.Time {
	day := CalendarDateOf(ref)
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// LastNCalendarDates returns n dates in ascending order, the last one being
// ref's own date.
func LastNCalendarDates(ref time.Time, n int) []time.Time {
	if n <= 0 {
		return []time.Time{}
	}
	end := CalendarDateOf(ref)
	dates := make([]time.Time, n)
	for i := range dates {
		dates[i] = end.AddDate(0, 0, i-(n-1))
	}
	return dates
}

// DayLabel is the abbreviated weekday name (Sun..Sat) of t's UTC date.
func DayLabel(t time.Time) string {
	return CalendarDateOf(t).Weekday().String()[:3]
}

// DateKey formats t's UTC calendar date.
func DateKey(t time.Time) string {
	return t.UTC().Format(DateLayout)
}
