package domain

import (
	"strings"
	"time"
)

// NormalizeDescriptor trims, lowercases and collapses internal whitespace.
// Entity identity and transaction identifiers both derive from this form,
// so it must stay stable across versions.
func NormalizeDescriptor(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(strings.TrimSpace(s))), " ")
}

// ParseDay parses a canonical YYYY-MM-DD date.
func ParseDay(s string) (time.Time, error) {
	return time.Parse(time.DateOnly, s)
}

// DayDiff returns the absolute difference in calendar days between two
// canonical dates. Both dates must be valid YYYY-MM-DD.
func DayDiff(a, b string) (int, error) {
	da, err := ParseDay(a)
	if err != nil {
		return 0, err
	}
	db, err := ParseDay(b)
	if err != nil {
		return 0, err
	}
	d := int(da.Sub(db).Hours() / 24)
	if d < 0 {
		d = -d
	}
	return d, nil
}
