package util

import (
	"testing"
	"time"
)

func TestParseTradeDate(t *testing.T) {
	got, err := ParseTradeDate("2024-10-10")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Fatalf("unexpected time %v", got)
	}
}

func TestParseTradeDateInvalid(t *testing.T) {
	for _, s := range []string{"", "2024-13-01", "10/10/2024", "2024-10-10T00:00:00Z"} {
		if _, err := ParseTradeDate(s); err == nil {
			t.Fatalf("expected error for %q", s)
		}
	}
}

func TestFormatTradeDateRoundTrip(t *testing.T) {
	in := time.Date(2024, 1, 2, 15, 4, 5, 0, time.UTC)
	if got := FormatTradeDate(in); got != "2024-01-02" {
		t.Fatalf("unexpected format %q", got)
	}
}

func TestTradeDateDefault(t *testing.T) {
	if got := TradeDateDefault("", "2024-10-10"); got != "2024-10-10" {
		t.Fatalf("expected default, got %q", got)
	}
	if got := TradeDateDefault("2024-01-01", "2024-10-10"); got != "2024-01-01" {
		t.Fatalf("expected passthrough, got %q", got)
	}
}
