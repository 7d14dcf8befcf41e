package util

import (
	"testing"
	"time"
)

func TestParseDayLayouts(t *testing.T) {
	want := time.Date(2024, 10, 10, 0, 0, 0, 0, time.UTC)
	for _, s := range []string{
		"2024-10-10",
		"2024-10-10 10:10:10",
		"2024-10-10 10:10:10+00:00",
		"2024-10-10T10:10:10Z",
		"2024-10-10T10:10:10.123456789Z",
	} {
		got, err := ParseDay(s)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", s, err)
		}
		if !got.Equal(want) {
			t.Fatalf("%s: got %v", s, got)
		}
	}
}

func TestParseDayNormalizesToUTC(t *testing.T) {
	got, err := ParseDay("2024-10-10T23:30:00-02:00")
	if err != nil {
		t.Fatalf("unexpected error %v", err)
	}
	if DayKey(got) != "2024-10-11" {
		t.Fatalf("unexpected day %v", got)
	}
}

func TestParseDayOffsetMovesToUTCDay(t *testing.T) {
	for s, want := range map[string]string{
		"2024-01-02 00:30:00+05:00": "2024-01-01",
		"2024-01-02T00:30:00+05:00": "2024-01-01",
		"2024-01-02 05:30:00+05:00": "2024-01-02",
		"2024-01-01 22:00:00-03":    "2024-01-02",
	} {
		got, err := ParseDay(s)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", s, err)
		}
		if DayKey(got) != want {
			t.Fatalf("%s: got %s, want %s", s, DayKey(got), want)
		}
	}
}

func TestParseDayRejectsUnknown(t *testing.T) {
	for _, s := range []string{"", "10/10/2024", "1728554400"} {
		if _, err := ParseDay(s); err == nil {
			t.Fatalf("%q: expected error", s)
		}
	}
}

func TestDaysBetween(t *testing.T) {
	from := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	to := time.Date(2024, 1, 3, 1, 0, 0, 0, time.UTC)
	if n := DaysBetween(from, to); n != 3 {
		t.Fatalf("expected 3, got %d", n)
	}
	if n := DaysBetween(to, from); n != 0 {
		t.Fatalf("expected 0, got %d", n)
	}
}

func TestSplitList(t *testing.T) {
	got := SplitList(" bonk, ,wif,")
	if len(got) != 2 || got[0] != "bonk" || got[1] != "wif" {
		t.Fatalf("unexpected %v", got)
	}
	if SplitList("") != nil {
		t.Fatalf("expected nil")
	}
}
