package core

import "time"

// AsOf is the calendar date a status is evaluated against.
type AsOf struct {
	Day   int
	Month int
	Year  int
}

// AsOfFrom takes the calendar date of t in loc. A nil loc means t's own location.
func AsOfFrom(t time.Time, loc *time.Location) AsOf {
	if loc != nil {
		t = t.In(loc)
	}
	return AsOf{Day: t.Day(), Month: int(t.Month()), Year: t.Year()}
}

// YearMonth identifies a calendar month.
type YearMonth struct {
	Year  int
	Month int
}

// Before reports whether ym is strictly earlier than other.
func (ym YearMonth) Before(other YearMonth) bool {
	if ym.Year != other.Year {
		return ym.Year < other.Year
	}
	return ym.Month < other.Month
}

// RollForward moves (month, year) forward by offset months, wrapping at month 13.
func RollForward(month, year, offset int) YearMonth {
	idx := year*12 + (month - 1) + offset
	return YearMonth{Year: idx / 12, Month: idx%12 + 1}
}

// InstallmentDue returns the calendar month in which installment n of a project
// starting at (startMonth, startYear) falls due. Installment 1 is the start month.
func InstallmentDue(startMonth, startYear, n int) YearMonth {
	return RollForward(startMonth, startYear, n-1)
}
