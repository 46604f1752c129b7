package utils_test

import (
	"strings"
	"testing"
	"time"

	"github.com/metroshica/foxhole-quartermaster-sub001/utils"
)

func TestGenerateShortCode(t *testing.T) {
	for i := 0; i < 100; i++ {
		code := utils.GenerateShortCode()
		if len(code) != 4 {
			t.Fatalf("code %q has length %d, want 4", code, len(code))
		}
		if strings.ContainsAny(code, "IO01") {
			t.Fatalf("code %q contains an ambiguous character", code)
		}
	}
}

func TestFormatRelativeTime(t *testing.T) {
	now := time.Now()

	cases := []struct {
		at   time.Time
		want string
	}{
		{now.Add(-30 * time.Second), "Just now"},
		{now.Add(-5 * time.Minute), "5m ago"},
		{now.Add(-3 * time.Hour), "3h ago"},
		{now.Add(-48 * time.Hour), "2d ago"},
	}
	for _, tc := range cases {
		if got := utils.FormatRelativeTime(tc.at); got != tc.want {
			t.Errorf("FormatRelativeTime(%v) = %q, want %q", tc.at, got, tc.want)
		}
	}

	old := now.Add(-30 * 24 * time.Hour)
	if got := utils.FormatRelativeTime(old); got != old.Format("Jan 02, 2006") {
		t.Errorf("old timestamp = %q, want absolute date", got)
	}
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		d    time.Duration
		want string
	}{
		{42 * time.Minute, "42m"},
		{3*time.Hour + 15*time.Minute, "3h 15m"},
		{26*time.Hour + 30*time.Minute, "1d 2h"},
	}
	for _, tc := range cases {
		if got := utils.FormatDuration(tc.d); got != tc.want {
			t.Errorf("FormatDuration(%v) = %q, want %q", tc.d, got, tc.want)
		}
	}
}
