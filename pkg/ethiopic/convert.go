package ethiopic

import (
	"fmt"
	"strings"
	"time"
)

// ethiopianEpoch is the Julian Day Number of Meskerem 1 of year 0 (Amete
// Mihret era). Year 0 starts a four year cycle whose last year is leap.
const ethiopianEpoch = 1723856

// gregorianLayouts are the ISO-8601 forms accepted by ParseGregorian. Go's
// parser also accepts fractional seconds after the seconds field.
var gregorianLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// ParseGregorian parses an ISO-8601 date or date-time and returns its
// Gregorian calendar date as written, without converting between zones.
func ParseGregorian(value string) (CalendarDate, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return CalendarDate{}, fmt.Errorf("%w: empty value", ErrInvalidDate)
	}
	for _, layout := range gregorianLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			return FromTime(t), nil
		}
	}
	return CalendarDate{}, fmt.Errorf("%w: unrecognised date %q", ErrInvalidDate, value)
}

// Convert maps a Gregorian ISO-8601 date or date-time to its Ethiopian date
// formatted as "Y-M-D" without zero padding. Unparseable input yields ("", false).
func Convert(value string) (string, bool) {
	g, err := ParseGregorian(value)
	if err != nil {
		return "", false
	}
	return ToEthiopian(g).String(), true
}

// ToEthiopian converts c to the Ethiopian calendar. Ethiopian dates are
// returned unchanged. Results are defined for dates from Ethiopian year 1
// (Gregorian 0008-08-27) onwards.
func ToEthiopian(c CalendarDate) CalendarDate {
	if c.calendar != Gregorian {
		return c
	}
	return ethiopianFromJDN(gregorianToJDN(c.year, c.month, c.day))
}

// ToGregorian converts c to the Gregorian calendar. Gregorian dates are
// returned unchanged.
func ToGregorian(c CalendarDate) CalendarDate {
	if c.calendar != Ethiopian {
		return c
	}
	return gregorianFromJDN(ethiopianToJDN(c.year, c.month, c.day))
}

func gregorianToJDN(y, m, d int) int {
	a := (14 - m) / 12
	yy := y + 4800 - a
	mm := m + 12*a - 3
	return d + (153*mm+2)/5 + 365*yy + yy/4 - yy/100 + yy/400 - 32045
}

func gregorianFromJDN(jdn int) CalendarDate {
	a := jdn + 32044
	b := (4*a + 3) / 146097
	c := a - 146097*b/4
	d := (4*c + 3) / 1461
	e := c - 1461*d/4
	m := (5*e + 2) / 153
	return CalendarDate{
		calendar: Gregorian,
		year:     100*b + d - 4800 + m/10,
		month:    m + 3 - 12*(m/10),
		day:      e - (153*m+2)/5 + 1,
	}
}

func ethiopianToJDN(y, m, d int) int {
	return ethiopianEpoch + 365 + 365*(y-1) + y/4 + 30*(m-1) + d - 1
}

func ethiopianFromJDN(jdn int) CalendarDate {
	cycle := (jdn - ethiopianEpoch) / 1461
	r := (jdn - ethiopianEpoch) % 1461
	// r == 1460 is Pagume 6 of the leap year closing the cycle.
	n := r%365 + 365*(r/1460)
	return CalendarDate{
		calendar: Ethiopian,
		year:     4*cycle + r/365 - r/1460,
		month:    n/30 + 1,
		day:      n%30 + 1,
	}
}
