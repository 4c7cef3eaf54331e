// Package geo converts between decimal degrees and the fixed-width
// DDMM.mmm coordinate encoding used by CUP waypoint files.
//
// The encoding concatenates degrees (2 digits for latitude, 3 for
// longitude), minutes with exactly 3 decimal places, and a hemisphere
// letter, e.g. "5245.914N" or "02311.207E".
package geo

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// FormatError reports a coordinate token that does not match the
// DDMM.mmm grammar.
type FormatError struct {
	Input  string
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("invalid coordinate %q: %s", e.Input, e.Reason)
}

// strictRe is the canonical grammar: 2-3 degree digits, 2 minute digits,
// exactly 3 decimal places, and a hemisphere letter.
var strictRe = regexp.MustCompile(`^(\d{2,3})(\d{2})\.(\d{3})([NSEW])$`)

// FormatDDMM converts decimal degrees to the CUP fixed format.
// Latitudes render as DDMM.mmm + N/S, longitudes as DDDMM.mmm + E/W.
// The hemisphere letter is chosen by sign; non-negative values map to
// N/E. Minutes round to 3 decimal places, with 60.000 carried into the
// degree field so the minute field stays below 60.
func FormatDDMM(value float64, isLatitude bool) string {
	abs := value
	if abs < 0 {
		abs = -abs
	}

	degrees := int(abs)
	minutes := (abs - float64(degrees)) * 60

	minStr := fmt.Sprintf("%06.3f", minutes)
	if minStr == "60.000" {
		degrees++
		minStr = "00.000"
	}

	var suffix string
	if isLatitude {
		suffix = "N"
		if value < 0 {
			suffix = "S"
		}
		return fmt.Sprintf("%02d%s%s", degrees, minStr, suffix)
	}
	suffix = "E"
	if value < 0 {
		suffix = "W"
	}
	return fmt.Sprintf("%03d%s%s", degrees, minStr, suffix)
}

// ParseDDMM converts a CUP fixed-format coordinate to decimal degrees.
//
// The strict grammar `^(\d{2,3})(\d{2})\.(\d{3})([NSEW])$` is tried
// first. Inputs that carry a hemisphere letter but lack the decimal
// point at the expected offset (older files sometimes truncate or pad
// the minute field) fall through to a slice-based parse: 2 leading
// digits of degrees when the letter is N/S, 3 when E/W, with the
// remainder read as fractional minutes. Both paths agree on well-formed
// input.
//
// The result is degrees + minutes/60, negated for S and W.
func ParseDDMM(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, &FormatError{Input: s, Reason: "empty token"}
	}

	if m := strictRe.FindStringSubmatch(s); m != nil {
		degrees, _ := strconv.Atoi(m[1])
		minWhole, _ := strconv.Atoi(m[2])
		minFrac, _ := strconv.Atoi(m[3])

		value := float64(degrees) + (float64(minWhole)+float64(minFrac)/1000.0)/60.0
		if m[4] == "S" || m[4] == "W" {
			value = -value
		}
		return value, nil
	}

	return parseSliced(s)
}

// parseSliced is the looser fallback: fixed-width degree prefix, free-form
// minutes, trailing hemisphere letter.
func parseSliced(s string) (float64, error) {
	suffix := s[len(s)-1:]

	degDigits := 0
	switch suffix {
	case "N", "S":
		degDigits = 2
	case "E", "W":
		degDigits = 3
	default:
		return 0, &FormatError{Input: s, Reason: "missing hemisphere letter (N/S/E/W)"}
	}

	body := s[:len(s)-1]
	if len(body) < degDigits {
		return 0, &FormatError{Input: s, Reason: "degree field too short"}
	}

	degrees, err := strconv.Atoi(body[:degDigits])
	if err != nil {
		return 0, &FormatError{Input: s, Reason: "degree field is not an integer"}
	}

	minutes := 0.0
	if rest := body[degDigits:]; rest != "" {
		minutes, err = strconv.ParseFloat(rest, 64)
		if err != nil {
			return 0, &FormatError{Input: s, Reason: "minute field is not numeric"}
		}
	}

	value := float64(degrees) + minutes/60.0
	if suffix == "S" || suffix == "W" {
		value = -value
	}
	return value, nil
}
