package ethiopic

import (
	"errors"
	"testing"
	"time"
)

func TestConvert_KnownDates(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"2023-01-01", "2015-4-23"},
		{"2000-01-01", "1992-4-22"},
		{"2024-02-29", "2016-6-21"},
		{"2023-09-11", "2015-13-6"},
		{"2023-09-12", "2016-1-1"},
		{"2024-09-10", "2016-13-5"},
		{"2024-09-11", "2017-1-1"},
		{"2024-09-12", "2017-1-2"},
		{"2019-09-12", "2012-1-1"},
		{"2020-09-11", "2013-1-1"},
		{"2100-09-12", "2093-1-1"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := Convert(tt.in)
			if !ok {
				t.Fatalf("Convert(%q) returned no result", tt.in)
			}
			if got != tt.want {
				t.Errorf("Convert(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestConvert_DateTimeForms(t *testing.T) {
	tests := []string{
		"2023-09-12T00:00:00Z",
		"2023-09-12T10:30:00+03:00",
		"2023-09-12T10:30:00.000+0000",
		"2023-09-12T23:59:59.999-0500",
		"2023-09-12T08:15:00",
		"2023-09-12T08:15",
		"2023-09-12 08:15:00",
		"  2023-09-12  ",
	}
	for _, in := range tests {
		got, ok := Convert(in)
		if !ok {
			t.Errorf("Convert(%q) returned no result", in)
			continue
		}
		if got != "2016-1-1" {
			t.Errorf("Convert(%q) = %q, want 2016-1-1", in, got)
		}
	}
}

func TestConvert_NoTimeZoneShift(t *testing.T) {
	// Late evening at a negative offset would be the next day in UTC.
	got, ok := Convert("2023-09-11T23:30:00-0500")
	if !ok {
		t.Fatal("expected a result")
	}
	if got != "2015-13-6" {
		t.Errorf("expected the written date to be used, got %q", got)
	}
}

func TestConvert_NoResult(t *testing.T) {
	for _, in := range []string{"", "   ", "not-a-date", "2023-13-01", "2023-02-30", "23-01-01", "2023/01/01", "01/02/2023"} {
		got, ok := Convert(in)
		if ok {
			t.Errorf("Convert(%q) = %q, expected no result", in, got)
		}
		if got != "" {
			t.Errorf("Convert(%q) returned non-empty sentinel %q", in, got)
		}
	}
}

func TestConvert_Deterministic(t *testing.T) {
	a, _ := Convert("2021-07-04")
	b, _ := Convert("2021-07-04")
	if a != b {
		t.Errorf("expected identical output, got %q and %q", a, b)
	}
}

func TestNewYearBoundary_LeapYear2024(t *testing.T) {
	sep10 := ToEthiopian(mustGregorian(t, 2024, 9, 10))
	sep11 := ToEthiopian(mustGregorian(t, 2024, 9, 11))

	if sep10.Month() != 13 {
		t.Errorf("expected 2024-09-10 in Pagume, got %s", sep10)
	}
	if sep11.Year() != 2017 || sep11.Month() != 1 || sep11.Day() != 1 {
		t.Errorf("expected 2024-09-11 to be Meskerem 1 2017, got %s", sep11)
	}
}

func TestNewYearBoundary_FollowsGregorianLeapYear(t *testing.T) {
	for year := 1901; year <= 2099; year++ {
		newYear := 11
		if IsLeapYear(Gregorian, year+1) {
			newYear = 12
		}
		eve := ToEthiopian(mustGregorian(t, year, 9, newYear-1))
		first := ToEthiopian(mustGregorian(t, year, 9, newYear))
		if first.Month() != 1 || first.Day() != 1 {
			t.Fatalf("%d-09-%d: expected Meskerem 1, got %s", year, newYear, first)
		}
		if eve.Month() != 13 || eve.Year() != first.Year()-1 {
			t.Fatalf("%d-09-%d: expected last day of Pagume, got %s", year, newYear-1, eve)
		}
		wantLen := 5
		if IsLeapYear(Ethiopian, eve.Year()) {
			wantLen = 6
		}
		if eve.Day() != wantLen {
			t.Fatalf("%d-09-%d: expected Pagume %d, got %s", year, newYear-1, wantLen, eve)
		}
	}
}

func TestRoundTrip_MultiCentury(t *testing.T) {
	start := time.Date(1600, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2400, time.December, 31, 0, 0, 0, 0, time.UTC)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		g := FromTime(d)
		e := ToEthiopian(g)
		if e.Calendar() != Ethiopian {
			t.Fatalf("expected ethiopian calendar, got %s", e.Calendar())
		}
		if _, err := NewEthiopian(e.Year(), e.Month(), e.Day()); err != nil {
			t.Fatalf("%s converted to invalid ethiopian date %s: %v", g, e, err)
		}
		back := ToGregorian(e)
		if back != g {
			t.Fatalf("round trip %s -> %s -> %s", g, e, back)
		}
	}
}

func TestToEthiopian_Idempotent(t *testing.T) {
	e, err := NewEthiopian(2016, 1, 1)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ToEthiopian(e) != e {
		t.Error("expected ethiopian date to be returned unchanged")
	}
	g := mustGregorian(t, 2023, 9, 12)
	if ToGregorian(g) != g {
		t.Error("expected gregorian date to be returned unchanged")
	}
}

func TestParseGregorian_Errors(t *testing.T) {
	_, err := ParseGregorian("garbage")
	if !errors.Is(err, ErrInvalidDate) {
		t.Errorf("expected ErrInvalidDate, got %v", err)
	}
	_, err = ParseGregorian("")
	if !errors.Is(err, ErrInvalidDate) {
		t.Errorf("expected ErrInvalidDate for empty input, got %v", err)
	}
}

func mustGregorian(t *testing.T, y, m, d int) CalendarDate {
	t.Helper()
	g, err := NewGregorian(y, m, d)
	if err != nil {
		t.Fatalf("NewGregorian(%d, %d, %d): %v", y, m, d, err)
	}
	return g
}
