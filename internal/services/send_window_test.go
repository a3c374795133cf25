package services

import (
	"testing"
	"time"
)

func at(hour, min int) time.Time {
	return time.Date(2026, 3, 4, hour, min, 0, 0, time.Local)
}

func TestInQuietHoursWrapsMidnight(t *testing.T) {
	tests := []struct {
		hour, min int
		quiet     bool
	}{
		{21, 0, true},
		{23, 59, true},
		{0, 30, true},
		{8, 59, true},
		{9, 0, false},
		{12, 0, false},
		{19, 59, false},
		{20, 0, true},
	}
	for _, tt := range tests {
		if got := inQuietHours(at(tt.hour, tt.min), "20:00", "09:00"); got != tt.quiet {
			t.Errorf("inQuietHours(%02d:%02d) = %v, want %v", tt.hour, tt.min, got, tt.quiet)
		}
	}
}

func TestInQuietHoursSameDayRange(t *testing.T) {
	if !inQuietHours(at(13, 0), "12:00", "14:00") {
		t.Error("13:00 should be inside 12:00-14:00")
	}
	if inQuietHours(at(15, 0), "12:00", "14:00") {
		t.Error("15:00 should be outside 12:00-14:00")
	}
}

func TestInQuietHoursMalformed(t *testing.T) {
	if inQuietHours(at(3, 0), "garbage", "09:00") {
		t.Error("malformed range should never block sending")
	}
	if inQuietHours(at(3, 0), "25:99", "09:00") {
		t.Error("out-of-range clock should never block sending")
	}
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in   string
		min  int
		ok   bool
	}{
		{"09:00", 540, true},
		{"23:59", 1439, true},
		{"0:5", 5, true},
		{"24:00", 0, false},
		{"nope", 0, false},
	}
	for _, tt := range tests {
		got, ok := parseClock(tt.in)
		if ok != tt.ok || (ok && got != tt.min) {
			t.Errorf("parseClock(%q) = (%d, %v), want (%d, %v)", tt.in, got, ok, tt.min, tt.ok)
		}
	}
}
