package util

import (
	"fmt"
	"time"
)

const (
	// LocalLayout is the ledger's human-readable timestamp format.
	LocalLayout = "2006-01-02 15:04:05"
	// IDLayout is the sortable numeric row id format.
	IDLayout = "20060102150405"
)

// FormatLocal formats t in local time as "2006-01-02 15:04:05".
func FormatLocal(t time.Time) string {
	return t.Local().Format(LocalLayout)
}

// FormatID formats t in local time as a sortable numeric id (20060102150405).
func FormatID(t time.Time) string {
	return t.Local().Format(IDLayout)
}

// ParseLocal parses a "2006-01-02 15:04:05" local timestamp.
// Returns zero time and false if parsing fails.
func ParseLocal(s string) (time.Time, bool) {
	t, err := time.ParseInLocation(LocalLayout, s, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ElapsedSeconds returns whole seconds between two local timestamps, or
// an empty string if either cannot be parsed.
func ElapsedSeconds(from, to string) string {
	start, ok := ParseLocal(from)
	if !ok {
		return ""
	}
	end, ok := ParseLocal(to)
	if !ok {
		return ""
	}
	return fmt.Sprintf("%d", int64(end.Sub(start)/time.Second))
}

// FormatNumber formats an int64 with K/M suffix for readability.
// Examples: 500 -> "500", 1500 -> "1.5K", 1500000 -> "1.5M"
func FormatNumber(n int64) string {
	if n < 1000 {
		return fmt.Sprintf("%d", n)
	}
	if n < 1000000 {
		return fmt.Sprintf("%.1fK", float64(n)/1000)
	}
	return fmt.Sprintf("%.1fM", float64(n)/1000000)
}

// Truncate cuts s to at most limit characters, appending marker when it
// had to cut.
func Truncate(s string, limit int, marker string) string {
	r := []rune(s)
	if len(r) <= limit {
		return s
	}
	return string(r[:limit]) + marker
}
