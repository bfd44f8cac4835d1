package config

import (
	"testing"
	"time"
)

func TestEnv(t *testing.T) {
	t.Setenv("HELIO_TEST_VALUE", "  hello  ")
	if got := Env("HELIO_TEST_VALUE", "def"); got != "hello" {
		t.Errorf("expected trimmed value 'hello', got %q", got)
	}
	if got := Env("HELIO_TEST_UNSET", "def"); got != "def" {
		t.Errorf("expected default, got %q", got)
	}
}

func TestBoolEnv(t *testing.T) {
	tests := []struct {
		value string
		def   bool
		want  bool
	}{
		{"true", false, true},
		{"0", true, false},
		{"", true, true},
		{"garbage", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("HELIO_TEST_BOOL", tt.value)
			if got := BoolEnv("HELIO_TEST_BOOL", tt.def); got != tt.want {
				t.Errorf("BoolEnv(%q, %v) = %v, want %v", tt.value, tt.def, got, tt.want)
			}
		})
	}
}

func TestDurationEnv(t *testing.T) {
	t.Setenv("HELIO_TEST_DUR", "90s")
	if got := DurationEnv("HELIO_TEST_DUR", time.Minute); got != 90*time.Second {
		t.Errorf("expected 90s, got %s", got)
	}
	t.Setenv("HELIO_TEST_DUR", "nope")
	if got := DurationEnv("HELIO_TEST_DUR", time.Minute); got != time.Minute {
		t.Errorf("expected default on invalid value, got %s", got)
	}
}

func TestMinutesEnv(t *testing.T) {
	t.Setenv("HELIO_TEST_MIN", "0.5")
	if got := MinutesEnv("HELIO_TEST_MIN", 5*time.Minute); got != 30*time.Second {
		t.Errorf("expected 30s, got %s", got)
	}
	t.Setenv("HELIO_TEST_MIN", "")
	if got := MinutesEnv("HELIO_TEST_MIN", 5*time.Minute); got != 5*time.Minute {
		t.Errorf("expected default, got %s", got)
	}
}
