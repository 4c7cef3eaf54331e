// Package waypoint provides the validated in-memory representation of a
// soaring waypoint with all CUP format fields.
package waypoint

import (
	"fmt"
	"strconv"
	"strings"

	"cup_editor/internal/geo"
)

// ValidationError reports the first waypoint invariant violated during
// construction or re-validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Waypoint is one named point on the earth with optional aeronautical
// metadata. The zero value is not valid; construct through New or call
// Validate after mutating fields directly.
//
// Elevation, RunwayLength and RunwayWidth keep their unit suffix
// ("504.0m", "1654ft", "0.65nm") so the original unit survives round
// trips. An empty Elevation means "unknown, may be looked up".
type Waypoint struct {
	Name            string  `json:"name"`
	Code            string  `json:"code"`
	Country         string  `json:"country"`
	Latitude        float64 `json:"latitude"`
	Longitude       float64 `json:"longitude"`
	Elevation       string  `json:"elevation"`
	Style           int     `json:"style"`
	RunwayDirection string  `json:"runway_direction"`
	RunwayLength    string  `json:"runway_length"`
	RunwayWidth     string  `json:"runway_width"`
	Frequency       string  `json:"frequency"`
	Description     string  `json:"description"`
}

// FieldNames is the canonical ordering of the twelve waypoint fields,
// shared by the mapping and CSV surfaces.
var FieldNames = []string{
	"name", "code", "country", "latitude", "longitude", "elevation",
	"style", "runway_direction", "runway_length", "runway_width",
	"frequency", "description",
}

// New validates w and returns a copy with normalized fields, or a
// *ValidationError naming the first violated invariant. No partially
// constructed waypoint is ever returned.
func New(w Waypoint) (*Waypoint, error) {
	if err := w.Validate(); err != nil {
		return nil, err
	}
	return &w, nil
}

// Validate normalizes the waypoint in place (trimming unit-tagged
// fields, folding runway direction 360 to 000) and reports the first
// violated invariant. Callers that mutate fields directly are expected
// to re-validate before persisting.
func (w *Waypoint) Validate() error {
	if strings.TrimSpace(w.Name) == "" {
		return &ValidationError{Field: "name", Message: "must not be empty"}
	}

	if w.Latitude < -90 || w.Latitude > 90 {
		return &ValidationError{Field: "latitude", Message: fmt.Sprintf("%v is outside -90..90", w.Latitude)}
	}
	if w.Longitude < -180 || w.Longitude > 180 {
		return &ValidationError{Field: "longitude", Message: fmt.Sprintf("%v is outside -180..180", w.Longitude)}
	}

	if w.Style < 0 || w.Style > MaxStyle {
		return &ValidationError{Field: "style", Message: fmt.Sprintf("%d is outside 0..%d", w.Style, MaxStyle)}
	}

	if w.Country != "" && len(w.Country) > 3 {
		return &ValidationError{Field: "country", Message: fmt.Sprintf("%q is longer than 3 characters", w.Country)}
	}

	w.RunwayDirection = strings.TrimSpace(w.RunwayDirection)
	if w.RunwayDirection != "" {
		normalized, err := validateRunwayDirection(w.RunwayDirection)
		if err != nil {
			return err
		}
		w.RunwayDirection = normalized
	}

	w.Elevation = strings.TrimSpace(w.Elevation)
	if w.Elevation != "" {
		if _, err := stripUnit(w.Elevation, "ft", "m"); err != nil {
			return &ValidationError{Field: "elevation", Message: fmt.Sprintf("%q is not numeric with an optional m/ft unit", w.Elevation)}
		}
	}

	w.RunwayLength = strings.TrimSpace(w.RunwayLength)
	if w.RunwayLength != "" {
		if _, err := stripUnit(w.RunwayLength, "nm", "ml", "m"); err != nil {
			return &ValidationError{Field: "runway_length", Message: fmt.Sprintf("%q is not numeric with an optional m/nm/ml unit", w.RunwayLength)}
		}
	}

	w.RunwayWidth = strings.TrimSpace(w.RunwayWidth)
	if w.RunwayWidth != "" {
		if _, err := stripUnit(w.RunwayWidth, "nm", "ml", "m"); err != nil {
			return &ValidationError{Field: "runway_width", Message: fmt.Sprintf("%q is not numeric with an optional m/nm/ml unit", w.RunwayWidth)}
		}
	}

	w.Frequency = strings.TrimSpace(w.Frequency)

	return nil
}

// validateRunwayDirection accepts either a 3-digit heading 000-359
// (360 folds to 000) or the paragliding HHH.DDD form where the decimal
// part must be .000, .050 or .055.
func validateRunwayDirection(dir string) (string, error) {
	if len(dir) == 3 && isDigits(dir) {
		heading, _ := strconv.Atoi(dir)
		if heading == 360 {
			return "000", nil
		}
		if heading > 359 {
			return "", &ValidationError{Field: "runway_direction", Message: fmt.Sprintf("%q must be 000-359", dir)}
		}
		return dir, nil
	}

	if strings.Contains(dir, ".") {
		parts := strings.SplitN(dir, ".", 2)
		if !isDigits(parts[0]) || !isDigits(parts[1]) {
			return "", &ValidationError{Field: "runway_direction", Message: fmt.Sprintf("%q is not a valid heading or PG value", dir)}
		}
		heading, _ := strconv.Atoi(parts[0])
		if heading < 100 || heading > 359 {
			return "", &ValidationError{Field: "runway_direction", Message: fmt.Sprintf("PG heading in %q must be 100-359", dir)}
		}
		switch parts[1] {
		case "000", "050", "055":
			return dir, nil
		}
		return "", &ValidationError{Field: "runway_direction", Message: fmt.Sprintf("PG decimal in %q must be .000, .050 or .055", dir)}
	}

	return "", &ValidationError{Field: "runway_direction", Message: fmt.Sprintf("%q must be a 3-digit heading or PG value like 115.050", dir)}
}

// FrequencyWarning reports a soft advisory when the frequency is
// numeric but outside the typical aviation range. Non-numeric content
// (descriptive text sometimes lands in this field) is tolerated
// silently and never rejected.
func (w *Waypoint) FrequencyWarning() string {
	if !IsNumericFrequency(w.Frequency) {
		return ""
	}
	val, err := strconv.ParseFloat(strings.ReplaceAll(w.Frequency, ",", "."), 64)
	if err != nil {
		return ""
	}
	if val < 100.0 || val > 150.0 {
		return fmt.Sprintf("frequency %v outside typical aviation range (100-150 MHz)", val)
	}
	return ""
}

// IsNumericFrequency reports whether s looks like a numeric radio
// frequency rather than free text.
func IsNumericFrequency(s string) bool {
	stripped := strings.NewReplacer(".", "", ",", "").Replace(s)
	return stripped != "" && isDigits(stripped)
}

// IsAirfield reports whether the waypoint carries runway information.
func (w *Waypoint) IsAirfield() bool {
	return w.RunwayDirection != "" || w.RunwayLength != "" || w.Frequency != ""
}

// ToMap converts the waypoint to its twelve-field mapping form for
// transport and storage. Keys follow FieldNames.
func (w *Waypoint) ToMap() map[string]any {
	return map[string]any{
		"name":             w.Name,
		"code":             w.Code,
		"country":          w.Country,
		"latitude":         w.Latitude,
		"longitude":        w.Longitude,
		"elevation":        w.Elevation,
		"style":            w.Style,
		"runway_direction": w.RunwayDirection,
		"runway_length":    w.RunwayLength,
		"runway_width":     w.RunwayWidth,
		"frequency":        w.Frequency,
		"description":      w.Description,
	}
}

// FromMap builds a waypoint from mapping form. Missing keys take the
// field defaults (style 1, everything else empty); invalid values fail
// with the same *ValidationError contract as New.
func FromMap(data map[string]any) (*Waypoint, error) {
	w := Waypoint{
		Name:            mapString(data, "name"),
		Code:            mapString(data, "code"),
		Country:         mapString(data, "country"),
		Latitude:        mapFloat(data, "latitude"),
		Longitude:       mapFloat(data, "longitude"),
		Elevation:       mapString(data, "elevation"),
		Style:           1,
		RunwayDirection: mapString(data, "runway_direction"),
		RunwayLength:    mapString(data, "runway_length"),
		RunwayWidth:     mapString(data, "runway_width"),
		Frequency:       mapString(data, "frequency"),
		Description:     mapString(data, "description"),
	}

	if v, ok := data["style"]; ok {
		if s := toInt(v); s != nil {
			w.Style = *s
		}
	}

	return New(w)
}

// CupRow renders the single-line CUP serialization of the waypoint.
// Name, code, country and description are quoted; the frequency is
// quoted only when it holds non-numeric text; runway and style fields
// are never quoted. Elevation, runway length and width gain an "m"
// suffix when they lack an explicit unit so the on-disk layout stays
// unambiguous.
func (w *Waypoint) CupRow() string {
	freq := w.Frequency
	if freq != "" && !IsNumericFrequency(freq) {
		freq = `"` + freq + `"`
	}

	desc := w.Description
	if desc != "" {
		desc = `"` + desc + `"`
	}

	return fmt.Sprintf(`"%s","%s","%s",%s,%s,%s,%d,%s,%s,%s,%s,%s`,
		w.Name, w.Code, w.Country,
		geo.FormatDDMM(w.Latitude, true),
		geo.FormatDDMM(w.Longitude, false),
		EnsureUnit(w.Elevation),
		w.Style,
		w.RunwayDirection,
		EnsureUnit(w.RunwayLength),
		EnsureUnit(w.RunwayWidth),
		freq,
		desc,
	)
}

// EnsureUnit appends the default meter unit to a bare numeric value.
// Values that already carry a unit letter, and empty values, pass
// through unchanged.
func EnsureUnit(s string) string {
	if s == "" {
		return ""
	}
	lower := strings.ToLower(s)
	if strings.ContainsAny(lower, "abcdefghijklmnopqrstuvwxyz") {
		return s
	}
	return s + "m"
}

// StripUnitValue reduces a unit-tagged value to its bare numeric string
// ("1200.0m" -> "1200", "0.65nm" -> "0.65"). It returns s unchanged if
// the magnitude does not parse.
func StripUnitValue(s string) string {
	v, err := stripUnit(s, "ft", "nm", "ml", "m")
	if err != nil {
		return s
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// stripUnit removes the first matching unit suffix (case-insensitive)
// and parses the remaining magnitude.
func stripUnit(s string, units ...string) (float64, error) {
	val := strings.TrimSpace(strings.ToLower(s))
	for _, u := range units {
		if strings.HasSuffix(val, u) {
			val = strings.TrimSpace(strings.TrimSuffix(val, u))
			break
		}
	}
	return strconv.ParseFloat(val, 64)
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func mapString(data map[string]any, key string) string {
	if v, ok := data[key]; ok {
		switch t := v.(type) {
		case string:
			return t
		case nil:
			return ""
		default:
			return fmt.Sprintf("%v", t)
		}
	}
	return ""
}

func mapFloat(data map[string]any, key string) float64 {
	if v, ok := data[key]; ok {
		switch t := v.(type) {
		case float64:
			return t
		case int:
			return float64(t)
		case string:
			if f, err := strconv.ParseFloat(strings.TrimSpace(t), 64); err == nil {
				return f
			}
		}
	}
	return 0
}

func toInt(v any) *int {
	switch t := v.(type) {
	case int:
		return &t
	case float64:
		i := int(t)
		return &i
	case string:
		if t == "" {
			return nil
		}
		if i, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return &i
		}
	}
	return nil
}
