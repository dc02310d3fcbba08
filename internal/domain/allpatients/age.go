package allpatients

import (
	"fmt"
	"time"
)

var birthDateLayouts = []string{"2006-01-02", "2006-01", "2006"}

// Age renders the time since birthDate the way the patient banner does:
// days under a month, months under two years, years and months under
// eighteen, then whole years. Unparseable or future dates give "".
func Age(birthDate string, now time.Time) string {
	var birth time.Time
	var err error
	for _, layout := range birthDateLayouts {
		if birth, err = time.Parse(layout, birthDate); err == nil {
			break
		}
	}
	if err != nil {
		return ""
	}

	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if birth.After(today) {
		return ""
	}

	years, months, days := today.Year()-birth.Year(), int(today.Month()-birth.Month()), today.Day()-birth.Day()
	if days < 0 {
		months--
	}
	if months < 0 {
		years--
		months += 12
	}

	switch totalMonths := years*12 + months; {
	case totalMonths < 1:
		return plural(int(today.Sub(birth).Hours()/24), "day")
	case years < 2:
		return plural(totalMonths, "mth")
	case years < 18 && months > 0:
		return plural(years, "yr") + ", " + plural(months, "mth")
	default:
		return plural(years, "yr")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
