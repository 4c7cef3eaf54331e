package geo

import (
	"errors"
	"math"
	"testing"
)

// almostEqual checks if two floats are equal within a tolerance.
func almostEqual(a, b, tolerance float64) bool {
	return math.Abs(a-b) < tolerance
}

func TestFormatDDMM(t *testing.T) {
	tests := []struct {
		name       string
		value      float64
		isLatitude bool
		want       string
	}{
		{"latitude north", 52.765233, true, "5245.914N"},
		{"latitude south", -52.765233, true, "5245.914S"},
		{"longitude east", 23.186783, false, "02311.207E"},
		{"longitude west", -23.186783, false, "02311.207W"},
		{"equator", 0, true, "0000.000N"},
		{"prime meridian", 0, false, "00000.000E"},
		{"single digit latitude", 5.5, true, "0530.000N"},
		{"three digit longitude", 151.391667, false, "15123.500E"},
		{"north pole", 90, true, "9000.000N"},
		{"south pole", -90, true, "9000.000S"},
		{"date line", 180, false, "18000.000E"},
		// 59.9996 minutes rounds to 60.000 and must carry into degrees.
		{"minute carry", 51.999999, true, "5200.000N"},
		{"just below carry", 51.99999, true, "5159.999N"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FormatDDMM(tt.value, tt.isLatitude)
			if got != tt.want {
				t.Errorf("FormatDDMM(%v, %v) = %q, want %q", tt.value, tt.isLatitude, got, tt.want)
			}
		})
	}
}

func TestParseDDMM(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      float64
		tolerance float64
	}{
		{"latitude north", "5245.914N", 52.765233, 0.0001},
		{"latitude south", "5245.914S", -52.765233, 0.0001},
		{"longitude east", "02311.207E", 23.186783, 0.0001},
		{"longitude west", "02311.207W", -23.186783, 0.0001},
		{"equator", "0000.000N", 0, 0.0001},
		{"prime meridian", "00000.000E", 0, 0.0001},
		{"surrounding whitespace", " 5245.914N ", 52.765233, 0.0001},
		// Fallback path: extra decimal places don't match the strict grammar.
		{"long fraction", "5245.91404N", 52.765234, 0.0001},
		// Fallback path: no decimal point at all.
		{"integer minutes", "5245N", 52.75, 0.0001},
		{"bare degrees", "52N", 52, 0.0001},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDDMM(tt.input)
			if err != nil {
				t.Fatalf("ParseDDMM(%q) returned error: %v", tt.input, err)
			}
			if !almostEqual(got, tt.want, tt.tolerance) {
				t.Errorf("ParseDDMM(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseDDMMErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ""},
		{"no hemisphere letter", "5245.914"},
		{"bad hemisphere letter", "5245.914X"},
		{"non-numeric degrees", "ab45.914N"},
		{"non-numeric minutes", "52xx.914N"},
		{"too short", "5N"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDDMM(tt.input)
			if err == nil {
				t.Fatalf("ParseDDMM(%q) succeeded, want error", tt.input)
			}
			var fe *FormatError
			if !errors.As(err, &fe) {
				t.Errorf("ParseDDMM(%q) error type = %T, want *FormatError", tt.input, err)
			}
		})
	}
}

// TestRoundTrip samples the coordinate space at 3-decimal-minute granularity
// and verifies parse(format(x)) stays within 1e-3 degrees of x.
func TestRoundTrip(t *testing.T) {
	for lat := -89.999; lat <= 89.999; lat += 7.3210 {
		s := FormatDDMM(lat, true)
		got, err := ParseDDMM(s)
		if err != nil {
			t.Fatalf("ParseDDMM(%q) returned error: %v", s, err)
		}
		if !almostEqual(got, lat, 1e-3) {
			t.Errorf("latitude round trip %v -> %q -> %v", lat, s, got)
		}
	}

	for lon := -179.999; lon <= 179.999; lon += 13.7017 {
		s := FormatDDMM(lon, false)
		got, err := ParseDDMM(s)
		if err != nil {
			t.Fatalf("ParseDDMM(%q) returned error: %v", s, err)
		}
		if !almostEqual(got, lon, 1e-3) {
			t.Errorf("longitude round trip %v -> %q -> %v", lon, s, got)
		}
	}
}

// TestStrictAndSlicedAgree verifies both parsing strategies produce the same
// value for well-formed input.
func TestStrictAndSlicedAgree(t *testing.T) {
	inputs := []string{
		"5245.914N", "0912.000S", "02311.207E", "17959.999W", "0000.000N",
	}
	for _, in := range inputs {
		strict, err := ParseDDMM(in)
		if err != nil {
			t.Fatalf("ParseDDMM(%q): %v", in, err)
		}
		sliced, err := parseSliced(in)
		if err != nil {
			t.Fatalf("parseSliced(%q): %v", in, err)
		}
		if !almostEqual(strict, sliced, 1e-9) {
			t.Errorf("strategies disagree for %q: strict=%v sliced=%v", in, strict, sliced)
		}
	}
}
