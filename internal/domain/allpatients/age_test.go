package allpatients

import (
	"testing"
	"time"
)

func TestAge(t *testing.T) {
	now := time.Date(2024, 9, 11, 15, 30, 0, 0, time.UTC)
	tests := []struct {
		birth string
		want  string
	}{
		{"2024-09-11", "0 days"},
		{"2024-09-10", "1 day"},
		{"2024-09-01", "10 days"},
		{"2024-08-12", "30 days"},
		{"2024-08-11", "1 mth"},
		{"2023-03-11", "18 mths"},
		{"2022-09-11", "2 yrs"},
		{"2014-05-20", "10 yrs, 3 mths"},
		{"2017-03", "7 yrs, 6 mths"},
		{"2006", "18 yrs"},
		{"1990-05-01", "34 yrs"},
		{"2025-01-01", ""},
		{"", ""},
		{"not-a-date", ""},
	}

	for _, tt := range tests {
		if got := Age(tt.birth, now); got != tt.want {
			t.Errorf("Age(%q) = %q, want %q", tt.birth, got, tt.want)
		}
	}
}
