package utils

import (
	"fmt"
	"time"

	"golang.org/x/exp/rand"
)

const shortCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

// GenerateShortCode returns a 4-character order code. Ambiguous characters
// (I, O, 0, 1) are excluded from the alphabet.
func GenerateShortCode() string {
	code := make([]byte, 4)
	for i := range code {
		code[i] = shortCodeAlphabet[rand.Intn(len(shortCodeAlphabet))]
	}
	return string(code)
}

// FormatRelativeTime renders a timestamp as "5m ago", "2h ago" etc.
func FormatRelativeTime(t time.Time) string {
	diff := time.Since(t)
	mins := int(diff.Minutes())

	if mins < 1 {
		return "Just now"
	}
	if mins < 60 {
		return fmt.Sprintf("%dm ago", mins)
	}
	hours := mins / 60
	if hours < 24 {
		return fmt.Sprintf("%dh ago", hours)
	}
	days := hours / 24
	if days < 7 {
		return fmt.Sprintf("%dd ago", days)
	}
	return t.Format("Jan 02, 2006")
}

// FormatDuration renders a duration as "1d 2h", "3h 15m" or "42m".
func FormatDuration(d time.Duration) string {
	mins := int(d.Minutes())
	hours := mins / 60
	days := hours / 24

	if days > 0 {
		return fmt.Sprintf("%dd %dh", days, hours%24)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm", hours, mins%60)
	}
	return fmt.Sprintf("%dm", mins)
}
