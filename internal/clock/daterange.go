// Package clock computes calendar period boundaries. All functions work on
// calendar dates: the returned values are midnight in the location of the
// input and carry no time-of-day component.
package clock

import "time"

// WeekStart is the first day of a calendar week. Weeks run Monday to Sunday.
const WeekStart = time.Monday

// Day truncates t to midnight of its calendar day, keeping its location.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// MonthRange returns the first and last calendar day of the month containing date.
func MonthRange(date time.Time) (time.Time, time.Time) {
	y, m, _ := date.Date()
	start := time.Date(y, m, 1, 0, 0, 0, 0, date.Location())
	return start, start.AddDate(0, 1, -1)
}

// WeekRange returns the Monday and Sunday of the week containing date.
func WeekRange(date time.Time) (time.Time, time.Time) {
	day := Day(date)
	offset := (int(day.Weekday()) - int(WeekStart) + 7) % 7
	start := day.AddDate(0, 0, -offset)
	return start, start.AddDate(0, 0, 6)
}

// YearRange returns January 1st and December 31st of the year containing date.
func YearRange(date time.Time) (time.Time, time.Time) {
	y := date.Year()
	return time.Date(y, time.January, 1, 0, 0, 0, 0, date.Location()),
		time.Date(y, time.December, 31, 0, 0, 0, 0, date.Location())
}

// DaysIn reports the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// SameDayLastMonth returns the same day-of-month in the previous calendar
// month, clamped to that month's last day (Mar 31 -> Feb 28 or Feb 29).
//
// time.AddDate normalises overflow (Mar 31 - 1 month = Mar 3), so the clamp
// is applied explicitly here and every "last month, same day" comparison
// must go through this function.
func SameDayLastMonth(date time.Time) time.Time {
	y, m, d := date.Date()
	py, pm := y, m-1
	if pm < time.January {
		pm = time.December
		py--
	}
	if last := DaysIn(py, pm); d > last {
		d = last
	}
	return time.Date(py, pm, d, 0, 0, 0, 0, date.Location())
}

// PreviousMonth returns the first day of the month before the one containing date.
func PreviousMonth(date time.Time) time.Time {
	start, _ := MonthRange(date)
	return start.AddDate(0, -1, 0)
}

// MonthToDate returns [first of month, date] for the month containing date.
func MonthToDate(date time.Time) (time.Time, time.Time) {
	start, _ := MonthRange(date)
	return start, Day(date)
}

// LastMonthToSameDay returns [first of previous month, SameDayLastMonth(date)],
// the baseline window matching MonthToDate.
func LastMonthToSameDay(date time.Time) (time.Time, time.Time) {
	end := SameDayLastMonth(date)
	start, _ := MonthRange(end)
	return start, end
}

// Weekdays counts Monday-Friday dates in [start, end].
func Weekdays(start, end time.Time) int {
	n := 0
	for d := Day(start); !d.After(end); d = d.AddDate(0, 0, 1) {
		switch d.Weekday() {
		case time.Saturday, time.Sunday:
		default:
			n++
		}
	}
	return n
}
