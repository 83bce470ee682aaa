package util

import (
	"fmt"
	"time"
)

// TradeDateLayout is the canonical trade date format.
const TradeDateLayout = "2006-01-02"

// ParseTradeDate parses a YYYY-MM-DD trade date in UTC.
func ParseTradeDate(s string) (time.Time, error) {
	t, err := time.Parse(TradeDateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid trade date %q: %w", s, err)
	}
	return t, nil
}

// FormatTradeDate renders a time as a YYYY-MM-DD trade date.
func FormatTradeDate(t time.Time) string {
	return t.UTC().Format(TradeDateLayout)
}

// ValidTradeDate reports whether s is a well-formed YYYY-MM-DD date.
func ValidTradeDate(s string) bool {
	_, err := ParseTradeDate(s)
	return err == nil
}

// TradeDateDefault returns s when valid, otherwise def.
func TradeDateDefault(s, def string) string {
	if ValidTradeDate(s) {
		return s
	}
	return def
}
