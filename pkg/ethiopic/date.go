// Package ethiopic converts dates between the Gregorian and Ethiopian calendars.
//
// The Ethiopian calendar has twelve months of thirty days followed by Pagume,
// a thirteenth month of five days (six in a leap year). Conversions go through
// the Julian Day Number and are exact for the proleptic Gregorian calendar.
package ethiopic

import (
	"errors"
	"fmt"
	"time"
)

// Calendar identifies the calendar system a CalendarDate is expressed in.
type Calendar string

const (
	Gregorian Calendar = "gregorian"
	Ethiopian Calendar = "ethiopian"
)

// ErrInvalidDate is returned when a year/month/day triple is not a real day
// in the requested calendar.
var ErrInvalidDate = errors.New("invalid calendar date")

// CalendarDate is an immutable year/month/day in a specific calendar.
type CalendarDate struct {
	calendar Calendar
	year     int
	month    int
	day      int
}

// NewGregorian returns the Gregorian date y-m-d.
func NewGregorian(y, m, d int) (CalendarDate, error) {
	return newDate(Gregorian, y, m, d)
}

// NewEthiopian returns the Ethiopian date y-m-d. Month 13 is Pagume.
func NewEthiopian(y, m, d int) (CalendarDate, error) {
	return newDate(Ethiopian, y, m, d)
}

func newDate(cal Calendar, y, m, d int) (CalendarDate, error) {
	if y < 1 {
		return CalendarDate{}, fmt.Errorf("%w: %s year %d", ErrInvalidDate, cal, y)
	}
	n := DaysInMonth(cal, y, m)
	if n == 0 {
		return CalendarDate{}, fmt.Errorf("%w: %s month %d", ErrInvalidDate, cal, m)
	}
	if d < 1 || d > n {
		return CalendarDate{}, fmt.Errorf("%w: %s %d-%d has no day %d", ErrInvalidDate, cal, y, m, d)
	}
	return CalendarDate{calendar: cal, year: y, month: m, day: d}, nil
}

// FromTime returns the Gregorian date of t's own calendar fields. No time
// zone conversion is applied.
func FromTime(t time.Time) CalendarDate {
	y, m, d := t.Date()
	return CalendarDate{calendar: Gregorian, year: y, month: int(m), day: d}
}

func (c CalendarDate) Calendar() Calendar { return c.calendar }
func (c CalendarDate) Year() int          { return c.year }
func (c CalendarDate) Month() int         { return c.month }
func (c CalendarDate) Day() int           { return c.day }

// IsZero reports whether c is the zero CalendarDate.
func (c CalendarDate) IsZero() bool { return c.calendar == "" }

// String formats c as year-month-day without zero padding, e.g. "2016-1-1".
func (c CalendarDate) String() string {
	return fmt.Sprintf("%d-%d-%d", c.year, c.month, c.day)
}

var ethiopianMonths = [...]string{
	"Meskerem", "Tikimt", "Hidar", "Tahsas", "Tir", "Yekatit", "Megabit",
	"Miyazya", "Ginbot", "Sene", "Hamle", "Nehase", "Pagume",
}

// MonthName returns the name of c's month in its own calendar.
func (c CalendarDate) MonthName() string {
	switch c.calendar {
	case Ethiopian:
		if c.month >= 1 && c.month <= len(ethiopianMonths) {
			return ethiopianMonths[c.month-1]
		}
	case Gregorian:
		if c.month >= 1 && c.month <= 12 {
			return time.Month(c.month).String()
		}
	}
	return ""
}

// IsLeapYear reports whether year is a leap year in cal. An Ethiopian leap
// year ends with Pagume 6 on September 11 of the Gregorian year that precedes
// a Gregorian leap year.
func IsLeapYear(cal Calendar, year int) bool {
	switch cal {
	case Gregorian:
		return year%4 == 0 && (year%100 != 0 || year%400 == 0)
	case Ethiopian:
		return year%4 == 3
	}
	return false
}

// DaysInMonth returns the number of days in month of year, or 0 when the
// month does not exist in cal.
func DaysInMonth(cal Calendar, year, month int) int {
	switch cal {
	case Gregorian:
		if month < 1 || month > 12 {
			return 0
		}
		if month == 2 && IsLeapYear(Gregorian, year) {
			return 29
		}
		return gregorianMonthDays[month-1]
	case Ethiopian:
		switch {
		case month >= 1 && month <= 12:
			return 30
		case month == 13 && IsLeapYear(Ethiopian, year):
			return 6
		case month == 13:
			return 5
		}
	}
	return 0
}

var gregorianMonthDays = [12]int{31, 28, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}
