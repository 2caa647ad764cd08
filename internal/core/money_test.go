package core

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseDecimalToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"0", 0, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"141,67", 14167, true},
		{"-1", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseDecimalToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestRoundHalfUp(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"14166.95", 14167},
		{"14166.5", 14167},
		{"14166.49", 14166},
		{"0.5", 1},
		{"2.5", 3}, // not banker's rounding
		{"-2.5", -3},
		{"10", 10},
	}
	for _, tc := range cases {
		got := RoundHalfUp(decimal.RequireFromString(tc.in))
		if got != tc.want {
			t.Errorf("RoundHalfUp(%s) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestApportion(t *testing.T) {
	tests := []struct {
		name       string
		base       int64
		mode       QuotaMode
		permillage float64
		want       int64
	}{
		{"flat ignores share", 85000, QuotaFlat, 166.67, 85000},
		{"flat with zero share", 85000, QuotaFlat, 0, 85000},
		{"permillage share", 85000, QuotaPermillage, 166.67, 14167},
		{"permillage full share", 85000, QuotaPermillage, 1000, 85000},
		{"permillage zero share falls back to base", 85000, QuotaPermillage, 0, 85000},
		{"permillage negative share falls back to base", 85000, QuotaPermillage, -5, 85000},
		{"permillage zero base", 0, QuotaPermillage, 250, 0},
		{"permillage half cent rounds up", 1, QuotaPermillage, 500, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Apportion(tt.base, tt.mode, tt.permillage)
			if got != tt.want {
				t.Errorf("Apportion(%d, %s, %v) = %d, want %d", tt.base, tt.mode, tt.permillage, got, tt.want)
			}
		})
	}
}

func TestApportion_FlatIndependentOfShare(t *testing.T) {
	for _, share := range []float64{-1, 0, 0.5, 42, 166.67, 999.99, 1000} {
		if got := Apportion(12345, QuotaFlat, share); got != 12345 {
			t.Fatalf("share %v: got %d, want 12345", share, got)
		}
	}
}

func TestApportion_SharesSummingTo1000(t *testing.T) {
	sets := [][]float64{
		{250, 250, 125.5, 374.5},
		{100, 100, 100, 100, 100, 100, 100, 100, 100, 100},
		{333.33, 333.33, 333.34},
		{1, 999},
	}
	bases := []int64{85000, 99999, 1, 123457}
	for _, shares := range sets {
		for _, base := range bases {
			var sum int64
			for _, s := range shares {
				sum += Apportion(base, QuotaPermillage, s)
			}
			diff := sum - base
			if diff < 0 {
				diff = -diff
			}
			if diff > int64(len(shares)) {
				t.Errorf("shares %v base %d: sum %d differs by %d (> %d)", shares, base, sum, diff, len(shares))
			}
		}
	}
}

func TestClampQuota(t *testing.T) {
	if got := ClampQuota(-100); got != 0 {
		t.Errorf("ClampQuota(-100) = %d, want 0", got)
	}
	if got := ClampQuota(500); got != 500 {
		t.Errorf("ClampQuota(500) = %d, want 500", got)
	}
}

func TestFormatEuros(t *testing.T) {
	cases := map[int64]string{
		0:        "€0,00",
		5:        "€0,05",
		14167:    "€141,67",
		123456:   "€1.234,56",
		-41667:   "-€416,67",
		10000000: "€100.000,00",
	}
	for in, want := range cases {
		if got := FormatEuros(in); got != want {
			t.Errorf("FormatEuros(%d) = %q, want %q", in, got, want)
		}
	}
}
