// Package cup parses and serializes the SeeYou CUP waypoint file
// format, tolerating both historical runway-field layouts on input and
// emitting the canonical width-inclusive layout on output.
package cup

import (
	"fmt"
	"strconv"
	"strings"

	"cup_editor/internal/geo"
	"cup_editor/internal/waypoint"
)

// Header is the canonical CUP column header.
const Header = "name,code,country,lat,lon,elev,style,rwdir,rwlen,rwwidth,freq,desc"

// legacyHeader drops the rwwidth column for older consumer software.
const legacyHeader = "name,code,country,lat,lon,elev,style,rwdir,rwlen,freq,desc"

// minFields is the structural minimum for a CUP row:
// name,code,country,lat,lon,elev.
const minFields = 6

// ParseResult is the outcome of parsing one CUP document. A parse never
// fails as a whole: unusable lines are dropped, counted in Skipped and
// described in Warnings, and whatever valid rows remain are returned.
type ParseResult struct {
	Waypoints []waypoint.Waypoint
	Skipped   int
	Warnings  []string
}

// Parse reads a full CUP document. Blank lines and the header line are
// ignored. Each remaining line is split on commas honoring double
// quotes and converted to a validated waypoint; structurally
// insufficient or unparseable lines are skipped with a warning, never
// aborting the file.
func Parse(text string) *ParseResult {
	result := &ParseResult{}

	for i, line := range strings.Split(text, "\n") {
		lineNum := i + 1
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "name,code") {
			continue
		}

		w, warns, err := parseLine(line)
		result.Warnings = append(result.Warnings, prefixLine(lineNum, warns)...)
		if err != nil {
			result.Skipped++
			result.Warnings = append(result.Warnings, fmt.Sprintf("line %d: %v", lineNum, err))
			continue
		}
		result.Waypoints = append(result.Waypoints, *w)
	}

	return result
}

// parseLine converts one data line to a waypoint. The returned warnings
// are advisory (frequency range); the error marks the line unusable.
func parseLine(line string) (*waypoint.Waypoint, []string, error) {
	fields := splitQuoted(line)
	if len(fields) < minFields {
		return nil, nil, fmt.Errorf("expected at least %d fields, got %d", minFields, len(fields))
	}

	lat, err := geo.ParseDDMM(fields[3])
	if err != nil {
		return nil, nil, fmt.Errorf("latitude: %w", err)
	}
	lon, err := geo.ParseDDMM(fields[4])
	if err != nil {
		return nil, nil, fmt.Errorf("longitude: %w", err)
	}

	style := 1
	if s := field(fields, 6); s != "" {
		style, err = strconv.Atoi(s)
		if err != nil {
			return nil, nil, fmt.Errorf("style: %q is not an integer", s)
		}
	}

	rw := splitRunwayFields(fields)

	w, err := waypoint.New(waypoint.Waypoint{
		Name:            fields[0],
		Code:            fields[1],
		Country:         fields[2],
		Latitude:        lat,
		Longitude:       lon,
		Elevation:       strings.TrimSpace(fields[5]),
		Style:           style,
		RunwayDirection: rw.direction,
		RunwayLength:    normalizeRunwayValue(rw.layout, rw.length),
		RunwayWidth:     normalizeRunwayValue(rw.layout, rw.width),
		Frequency:       rw.frequency,
		Description:     rw.description,
	})
	if err != nil {
		return nil, nil, err
	}

	var warns []string
	if warn := w.FrequencyWarning(); warn != "" {
		warns = append(warns, warn)
	}
	return w, warns, nil
}

// normalizeRunwayValue reduces a new-layout unit-tagged value to its
// bare numeric form ("1200.0m" -> "1200") so both layouts parse to the
// same representation. Old-layout digit runs are already bare.
func normalizeRunwayValue(layout runwayLayout, v string) string {
	if v == "" || layout != newLayout {
		return v
	}
	return waypoint.StripUnitValue(v)
}

// splitQuoted splits a CUP line on commas, honoring double-quote
// delimited fields. A quote inside a quoted field is not specially
// escaped: two consecutive quotes do not collapse to one. Outer quotes
// and surrounding whitespace are stripped from each field.
func splitQuoted(line string) []string {
	var fields []string
	var current strings.Builder
	inQuotes := false

	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	fields = append(fields, strings.TrimSpace(current.String()))
	return fields
}

// WriteOptions controls CUP serialization.
type WriteOptions struct {
	// Legacy drops the rwwidth column for consumers of the older
	// width-less layout.
	Legacy bool
}

// Write serializes waypoints to the canonical CUP document: the
// twelve-column header followed by one row per waypoint, joined with
// newlines and without a trailing blank line.
func Write(ws []waypoint.Waypoint) string {
	return WriteWith(ws, WriteOptions{})
}

// WriteWith serializes waypoints with explicit options.
func WriteWith(ws []waypoint.Waypoint, opts WriteOptions) string {
	header := Header
	if opts.Legacy {
		header = legacyHeader
	}

	rows := make([]string, 0, len(ws)+1)
	rows = append(rows, header)
	for i := range ws {
		if opts.Legacy {
			rows = append(rows, legacyRow(&ws[i]))
		} else {
			rows = append(rows, ws[i].CupRow())
		}
	}
	return strings.Join(rows, "\n")
}

// legacyRow renders a row without the rwwidth column.
func legacyRow(w *waypoint.Waypoint) string {
	freq := w.Frequency
	if freq != "" && !waypoint.IsNumericFrequency(freq) {
		freq = `"` + freq + `"`
	}
	desc := w.Description
	if desc != "" {
		desc = `"` + desc + `"`
	}

	return fmt.Sprintf(`"%s","%s","%s",%s,%s,%s,%d,%s,%s,%s,%s`,
		w.Name, w.Code, w.Country,
		geo.FormatDDMM(w.Latitude, true),
		geo.FormatDDMM(w.Longitude, false),
		waypoint.EnsureUnit(w.Elevation),
		w.Style,
		w.RunwayDirection,
		waypoint.EnsureUnit(w.RunwayLength),
		freq,
		desc,
	)
}

func prefixLine(lineNum int, warns []string) []string {
	out := make([]string, 0, len(warns))
	for _, w := range warns {
		out = append(out, fmt.Sprintf("line %d: %s", lineNum, w))
	}
	return out
}
