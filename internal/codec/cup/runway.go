package cup

import "strings"

// runwayLayout distinguishes the historical on-disk encodings of the
// runway area of a CUP row. Two generations of files exist: the old one
// packs direction/length/width into a single digit string and places
// frequency/description right after it, the new one spreads the runway
// over three fields with unit suffixes on length and width.
type runwayLayout int

const (
	noRunway runwayLayout = iota
	oldLayout
	newLayout
)

// runwayFields holds the resolved runway area plus the trailing
// frequency/description fields, whose positions depend on the layout.
type runwayFields struct {
	layout      runwayLayout
	direction   string
	length      string
	width       string
	frequency   string
	description string
}

// splitRunwayFields resolves the layout ambiguity for the fields
// following the style column (zero-based indexes 7 and up):
//
//  1. field 9 (index 8) carries a unit token (m/ft/nm): new layout with
//     direction, length, width, frequency, description in fields 7-11.
//  2. field 7 is a digit run of 3+ characters in an old-generation row
//     (10 columns or fewer): old layout, the run holds 3 digits of
//     direction, 4 of length and (when 10+ digits long) 3 of width;
//     frequency and description follow in fields 8/9.
//  3. field 7 is a bare digit run or PG-format heading in a full-width
//     row: new layout with bare (unit-less) runway numbers.
//  4. anything else (empty or unusable field 7): no runway data.
//
// The frequency/description positions track the row generation: rows of
// 11+ columns keep them at indexes 10/11, shorter old-generation rows
// at 8/9.
func splitRunwayFields(fields []string) runwayFields {
	wideRow := len(fields) >= 11

	freqIdx, descIdx := 8, 9
	if wideRow {
		freqIdx, descIdx = 10, 11
	}

	f7 := field(fields, 7)
	f8 := field(fields, 8)

	if f7 != "" && hasUnitToken(f8) {
		return runwayFields{
			layout:      newLayout,
			direction:   padHeading(f7),
			length:      f8,
			width:       field(fields, 9),
			frequency:   field(fields, 10),
			description: field(fields, 11),
		}
	}

	if isDigits(f7) && !wideRow && len(f7) >= 3 {
		rf := runwayFields{
			layout:      oldLayout,
			direction:   f7[:3],
			frequency:   field(fields, 8),
			description: field(fields, 9),
		}
		if len(f7) >= 7 {
			rf.length = f7[3:7]
		}
		if len(f7) >= 10 {
			rf.width = f7[7:10]
		}
		return rf
	}

	if wideRow && (isDigits(f7) || isPGHeading(f7)) {
		return runwayFields{
			layout:      newLayout,
			direction:   padHeading(f7),
			length:      f8,
			width:       field(fields, 9),
			frequency:   field(fields, 10),
			description: field(fields, 11),
		}
	}

	return runwayFields{
		layout:      noRunway,
		frequency:   field(fields, freqIdx),
		description: field(fields, descIdx),
	}
}

// hasUnitToken reports whether s ends in one of the runway units.
// Matching is case-insensitive; a bare number has no token.
func hasUnitToken(s string) bool {
	lower := strings.ToLower(strings.TrimSpace(s))
	return strings.HasSuffix(lower, "m") ||
		strings.HasSuffix(lower, "ft") ||
		strings.HasSuffix(lower, "nm")
}

// padHeading zero-pads a bare numeric heading to 3 digits ("90" ->
// "090"). PG-format values and non-numeric content pass through for the
// entity validation to judge.
func padHeading(s string) string {
	if !isDigits(s) || len(s) >= 3 {
		return s
	}
	return strings.Repeat("0", 3-len(s)) + s
}

// isPGHeading matches the paragliding HHH.DDD runway direction form.
func isPGHeading(s string) bool {
	parts := strings.SplitN(s, ".", 2)
	return len(parts) == 2 && isDigits(parts[0]) && isDigits(parts[1])
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

// field returns fields[i] or "" when the row is too short.
func field(fields []string, i int) string {
	if i < len(fields) {
		return fields[i]
	}
	return ""
}
