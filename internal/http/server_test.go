package http

import (
	"testing"

	"finboard/internal/core"
)

func TestFormatUSD(t *testing.T) {
	cases := []struct {
		cents int64
		want  string
	}{
		{0, "$0.00"},
		{5, "$0.05"},
		{150000, "$1,500.00"},
		{78000_00, "$78,000.00"},
		{-7552000, "-$75,520.00"},
		{123456789, "$1,234,567.89"},
	}
	for _, tc := range cases {
		if got := formatUSD(core.Money{Cents: tc.cents}); got != tc.want {
			t.Errorf("formatUSD(%d) = %s, want %s", tc.cents, got, tc.want)
		}
	}
}

func TestBarWidth(t *testing.T) {
	cases := []struct {
		cents, max int64
		want       int
	}{
		{0, 1000, 0},
		{1000, 0, 0},
		{1000, 1000, 100},
		{500, 1000, 50},
		{1, 1000000, 2},   // clamped up for visibility
		{2000, 1000, 100}, // clamped down
	}
	for _, tc := range cases {
		if got := barWidth(tc.cents, tc.max); got != tc.want {
			t.Errorf("barWidth(%d, %d) = %d, want %d", tc.cents, tc.max, got, tc.want)
		}
	}
}
