package utils

import (
	"testing"
	"time"
)

func TestPercent(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0%"},
		{0.876, "88%"},
		{0.874, "87%"},
		{1, "100%"},
	}
	for _, tt := range tests {
		if got := Percent(tt.in); got != tt.want {
			t.Errorf("Percent(%v) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestHostname(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://example.com/login?a=b", "example.com"},
		{"https://sub.bank.example.com", "sub.bank.example.com"},
		{"not a url", "not a url"},
	}
	for _, tt := range tests {
		if got := Hostname(tt.in); got != tt.want {
			t.Errorf("Hostname(%s) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestFormatTime(t *testing.T) {
	ts := time.Date(2025, 3, 9, 14, 30, 0, 0, time.UTC)
	if got := FormatTime(ts); got == "" {
		t.Error("FormatTime returned empty string")
	}
}

func TestIsValidEmail(t *testing.T) {
	valid := []string{"user@example.com", "a.b@sub.example.org"}
	invalid := []string{"", "no-at-sign", "@example.com", "user@", "user@nodot"}

	for _, e := range valid {
		if !IsValidEmail(e) {
			t.Errorf("Expected %s to be valid", e)
		}
	}
	for _, e := range invalid {
		if IsValidEmail(e) {
			t.Errorf("Expected %s to be invalid", e)
		}
	}
}
