package waypoint

import (
	"errors"
	"strings"
	"testing"
)

func valid() Waypoint {
	return Waypoint{
		Name:      "Test",
		Latitude:  52.765233,
		Longitude: 23.186783,
		Style:     1,
	}
}

func TestNewValid(t *testing.T) {
	w, err := New(valid())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	if w.Name != "Test" || w.Style != 1 {
		t.Errorf("unexpected waypoint: %+v", w)
	}
}

func TestNewInvariants(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(*Waypoint)
		wantField string
	}{
		{"empty name", func(w *Waypoint) { w.Name = "" }, "name"},
		{"whitespace name", func(w *Waypoint) { w.Name = "   " }, "name"},
		{"latitude above range", func(w *Waypoint) { w.Latitude = 90.0001 }, "latitude"},
		{"latitude below range", func(w *Waypoint) { w.Latitude = -90.0001 }, "latitude"},
		{"longitude above range", func(w *Waypoint) { w.Longitude = 180.5 }, "longitude"},
		{"style above range", func(w *Waypoint) { w.Style = 22 }, "style"},
		{"style below range", func(w *Waypoint) { w.Style = -1 }, "style"},
		{"country too long", func(w *Waypoint) { w.Country = "POLAND" }, "country"},
		{"direction not a heading", func(w *Waypoint) { w.RunwayDirection = "9x" }, "runway_direction"},
		{"direction above 359", func(w *Waypoint) { w.RunwayDirection = "400" }, "runway_direction"},
		{"PG bad decimal", func(w *Waypoint) { w.RunwayDirection = "115.030" }, "runway_direction"},
		{"PG heading too low", func(w *Waypoint) { w.RunwayDirection = "090.050" }, "runway_direction"},
		{"elevation not numeric", func(w *Waypoint) { w.Elevation = "high" }, "elevation"},
		{"length not numeric", func(w *Waypoint) { w.RunwayLength = "long" }, "runway_length"},
		{"width not numeric", func(w *Waypoint) { w.RunwayWidth = "wide" }, "runway_width"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := valid()
			tt.mutate(&w)
			_, err := New(w)
			if err == nil {
				t.Fatal("New succeeded, want ValidationError")
			}
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("error type = %T, want *ValidationError", err)
			}
			if ve.Field != tt.wantField {
				t.Errorf("violated field = %q, want %q", ve.Field, tt.wantField)
			}
		})
	}
}

func TestBoundaryValues(t *testing.T) {
	w := valid()
	w.Latitude = 90
	w.Longitude = -180
	w.Style = MaxStyle
	w.Country = "PL"
	if _, err := New(w); err != nil {
		t.Errorf("boundary values rejected: %v", err)
	}

	w = valid()
	w.Latitude = -90
	if _, err := New(w); err != nil {
		t.Errorf("latitude -90 rejected: %v", err)
	}
}

func TestRunwayDirectionNormalization(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"360", "000"},
		{"000", "000"},
		{"090", "090"},
		{"359", "359"},
		{"115.050", "115.050"},
		{"115.055", "115.055"},
		{"115.000", "115.000"},
	}
	for _, tt := range tests {
		w := valid()
		w.RunwayDirection = tt.input
		got, err := New(w)
		if err != nil {
			t.Errorf("direction %q rejected: %v", tt.input, err)
			continue
		}
		if got.RunwayDirection != tt.want {
			t.Errorf("direction %q normalized to %q, want %q", tt.input, got.RunwayDirection, tt.want)
		}
	}
}

func TestUnitValidation(t *testing.T) {
	w := valid()
	w.Elevation = "504.0m"
	w.RunwayLength = "0.65nm"
	w.RunwayWidth = "30m"
	if _, err := New(w); err != nil {
		t.Errorf("unit-tagged values rejected: %v", err)
	}

	w = valid()
	w.Elevation = "1654ft"
	if _, err := New(w); err != nil {
		t.Errorf("feet elevation rejected: %v", err)
	}
}

func TestFrequencyWarning(t *testing.T) {
	w := valid()
	w.Frequency = "123.500"
	if warn := w.FrequencyWarning(); warn != "" {
		t.Errorf("in-range frequency warned: %q", warn)
	}

	w.Frequency = "99.500"
	if warn := w.FrequencyWarning(); warn == "" {
		t.Error("out-of-range frequency produced no warning")
	}

	// Descriptive text is tolerated silently.
	w.Frequency = "tower only"
	if _, err := New(w); err != nil {
		t.Errorf("text frequency rejected: %v", err)
	}
	if warn := w.FrequencyWarning(); warn != "" {
		t.Errorf("text frequency warned: %q", warn)
	}
}

func TestIsAirfield(t *testing.T) {
	w := valid()
	if w.IsAirfield() {
		t.Error("bare waypoint reported as airfield")
	}
	w.Frequency = "122.800"
	if !w.IsAirfield() {
		t.Error("waypoint with frequency not reported as airfield")
	}
	w = valid()
	w.RunwayLength = "1200m"
	if !w.IsAirfield() {
		t.Error("waypoint with runway length not reported as airfield")
	}
}

func TestMappingRoundTrip(t *testing.T) {
	w := valid()
	w.Code = "TST"
	w.Country = "PL"
	w.Elevation = "504.0m"
	w.Style = 4
	w.RunwayDirection = "090"
	w.RunwayLength = "1200m"
	w.RunwayWidth = "30m"
	w.Frequency = "123.500"
	w.Description = "test field"

	orig, err := New(w)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	got, err := FromMap(orig.ToMap())
	if err != nil {
		t.Fatalf("FromMap: %v", err)
	}
	if *got != *orig {
		t.Errorf("mapping round trip changed waypoint:\n got %+v\nwant %+v", got, orig)
	}
}

func TestFromMapDefaults(t *testing.T) {
	got, err := FromMap(map[string]any{
		"name":      "Minimal",
		"latitude":  10.5,
		"longitude": 20.5,
	})
	if err != nil {
		t.Fatalf("FromMap: %v", err)
	}
	if got.Style != 1 {
		t.Errorf("default style = %d, want 1", got.Style)
	}
	if got.Elevation != "" || got.Code != "" {
		t.Errorf("optional fields not defaulted: %+v", got)
	}
}

func TestFromMapJSONNumbers(t *testing.T) {
	// JSON decoding produces float64 for every number.
	got, err := FromMap(map[string]any{
		"name":      "JSON",
		"latitude":  float64(52.5),
		"longitude": float64(21.0),
		"style":     float64(4),
	})
	if err != nil {
		t.Fatalf("FromMap: %v", err)
	}
	if got.Style != 4 {
		t.Errorf("style = %d, want 4", got.Style)
	}
}

func TestFromMapInvalid(t *testing.T) {
	_, err := FromMap(map[string]any{
		"name":      "Bad",
		"latitude":  95.0,
		"longitude": 0.0,
	})
	var ve *ValidationError
	if !errors.As(err, &ve) {
		t.Fatalf("error = %v, want *ValidationError", err)
	}
}

func TestCupRow(t *testing.T) {
	w := valid()
	w.Code = "TST"
	w.Country = "PL"
	w.Elevation = "504.0m"
	w.Frequency = "123.500"
	w.Description = "desc"
	wp, err := New(w)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	got := wp.CupRow()
	want := `"Test","TST","PL",5245.914N,02311.207E,504.0m,1,,,,123.500,"desc"`
	if got != want {
		t.Errorf("CupRow:\n got %s\nwant %s", got, want)
	}
}

func TestCupRowUnits(t *testing.T) {
	w := valid()
	w.RunwayDirection = "090"
	w.RunwayLength = "1200"
	w.RunwayWidth = "30"
	w.Elevation = "504"
	wp, err := New(w)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	row := wp.CupRow()
	for _, part := range []string{",504m,", ",1200m,", ",30m,"} {
		if !strings.Contains(row, part) {
			t.Errorf("CupRow %q missing %q (bare numbers must gain the meter unit)", row, part)
		}
	}
}

func TestCupRowQuotesTextFrequency(t *testing.T) {
	w := valid()
	w.Frequency = "see chart"
	wp, err := New(w)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if !strings.Contains(wp.CupRow(), `"see chart"`) {
		t.Errorf("text frequency not quoted in %q", wp.CupRow())
	}
}

func TestStripUnitValue(t *testing.T) {
	tests := []struct{ in, want string }{
		{"1200.0m", "1200"},
		{"30.0m", "30"},
		{"0.65nm", "0.65"},
		{"0.75ml", "0.75"},
		{"1654ft", "1654"},
		{"1200", "1200"},
	}
	for _, tt := range tests {
		if got := StripUnitValue(tt.in); got != tt.want {
			t.Errorf("StripUnitValue(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestStyleName(t *testing.T) {
	if got := StyleName(4); got != "Gliding airfield" {
		t.Errorf("StyleName(4) = %q", got)
	}
	if got := StyleName(99); got != "Unknown" {
		t.Errorf("StyleName(99) = %q", got)
	}
}
