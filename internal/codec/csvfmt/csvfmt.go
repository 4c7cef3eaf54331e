// Package csvfmt parses loosely-structured waypoint CSV files and
// serializes the canonical CSV interchange format.
//
// Parsing is header-driven and forgiving: the delimiter is sniffed from
// the start of the file, column names match a list of accepted synonyms
// per field, and malformed numeric values fall back to their type
// defaults instead of failing the row.
package csvfmt

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"cup_editor/internal/waypoint"
)

// Columns is the fixed serialization column order. Synonym acceptance
// is parser-side only; these exact names are always emitted.
var Columns = waypoint.FieldNames

// synonyms lists the accepted header spellings per field, in match
// priority order. Matching is case-insensitive and the first matching
// column supplies the value; later synonym columns are ignored.
var synonyms = map[string][]string{
	"name":             {"name"},
	"code":             {"code", "id"},
	"country":          {"country"},
	"latitude":         {"latitude", "lat"},
	"longitude":        {"longitude", "lon", "lng"},
	"elevation":        {"elevation", "elev", "altitude", "alt"},
	"style":            {"style"},
	"runway_direction": {"runway_direction", "rwdir"},
	"runway_length":    {"runway_length", "rwlen"},
	"runway_width":     {"runway_width", "rwwidth"},
	"frequency":        {"frequency", "freq"},
	"description":      {"description", "desc"},
}

// ParseResult is the outcome of parsing one CSV document. Like the CUP
// parser, a file-level parse always succeeds; unusable rows are counted
// and described.
type ParseResult struct {
	Waypoints []waypoint.Waypoint
	Skipped   int
	Warnings  []string
}

// DetectDelimiter sniffs the field delimiter from the first ~1 KB of
// text. Comma, semicolon and tab are considered; the candidate with a
// consistent, non-zero count across the first lines wins, with ties
// going to the higher count. Defaults to comma.
func DetectDelimiter(text string) rune {
	sample := text
	if len(sample) > 1024 {
		sample = sample[:1024]
	}

	var lines []string
	for _, l := range strings.Split(sample, "\n") {
		if strings.TrimSpace(l) != "" {
			lines = append(lines, l)
		}
		if len(lines) == 3 {
			break
		}
	}
	if len(lines) == 0 {
		return ','
	}

	best := ','
	bestCount := 0
	for _, cand := range []rune{',', ';', '\t'} {
		count := strings.Count(lines[0], string(cand))
		if count == 0 {
			continue
		}
		consistent := true
		for _, l := range lines[1:] {
			if strings.Count(l, string(cand)) != count {
				consistent = false
				break
			}
		}
		if consistent && count > bestCount {
			best = cand
			bestCount = count
		}
	}
	return best
}

// Parse reads a CSV document into waypoints. Rows whose mandatory
// latitude/longitude columns are absent, or that fail entity
// validation, are skipped with a recorded warning.
func Parse(text string) *ParseResult {
	result := &ParseResult{}

	r := csv.NewReader(strings.NewReader(text))
	r.Comma = DetectDelimiter(text)
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	header, err := r.Read()
	if err != nil {
		if err != io.EOF {
			result.Warnings = append(result.Warnings, fmt.Sprintf("header: %v", err))
		}
		return result
	}

	cols := resolveColumns(header)
	if cols["latitude"] < 0 || cols["longitude"] < 0 {
		result.Warnings = append(result.Warnings, "no latitude/longitude column in header")
	}

	lineNum := 1
	for {
		lineNum++
		row, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Skipped++
			result.Warnings = append(result.Warnings, fmt.Sprintf("row %d: %v", lineNum, err))
			continue
		}

		w, err := rowToWaypoint(cols, row)
		if err != nil {
			result.Skipped++
			result.Warnings = append(result.Warnings, fmt.Sprintf("row %d: %v", lineNum, err))
			continue
		}
		result.Waypoints = append(result.Waypoints, *w)
	}

	return result
}

// resolveColumns maps each canonical field to its column index, -1 when
// no synonym matched.
func resolveColumns(header []string) map[string]int {
	lower := make([]string, len(header))
	for i, h := range header {
		lower[i] = strings.ToLower(strings.TrimSpace(h))
	}

	cols := make(map[string]int, len(synonyms))
	for field, names := range synonyms {
		cols[field] = -1
		for _, name := range names {
			for i, h := range lower {
				if h == name {
					cols[field] = i
					break
				}
			}
			if cols[field] >= 0 {
				break
			}
		}
	}
	return cols
}

func rowToWaypoint(cols map[string]int, row []string) (*waypoint.Waypoint, error) {
	if cols["latitude"] < 0 || cols["longitude"] < 0 {
		return nil, fmt.Errorf("missing mandatory latitude/longitude column")
	}

	w := waypoint.Waypoint{
		Name:            cell(cols, row, "name"),
		Code:            cell(cols, row, "code"),
		Country:         cell(cols, row, "country"),
		Latitude:        parseFloatDefault(cell(cols, row, "latitude"), 0.0),
		Longitude:       parseFloatDefault(cell(cols, row, "longitude"), 0.0),
		Elevation:       cell(cols, row, "elevation"),
		Style:           parseIntDefault(cell(cols, row, "style"), 1),
		RunwayDirection: cell(cols, row, "runway_direction"),
		RunwayLength:    cell(cols, row, "runway_length"),
		RunwayWidth:     cell(cols, row, "runway_width"),
		Frequency:       cell(cols, row, "frequency"),
		Description:     cell(cols, row, "description"),
	}

	return waypoint.New(w)
}

func cell(cols map[string]int, row []string, field string) string {
	i := cols[field]
	if i < 0 || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}

// parseFloatDefault falls back to the type default for unparseable
// numerics instead of failing the row.
func parseFloatDefault(s string, def float64) float64 {
	if s == "" {
		return def
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return def
	}
	return v
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}

// Write serializes waypoints to canonical CSV: the fixed header, one
// row per waypoint, standard quoting (fields containing the delimiter,
// quote character or newline are quoted).
func Write(ws []waypoint.Waypoint) string {
	var sb strings.Builder
	w := csv.NewWriter(&sb)

	_ = w.Write(Columns)
	for i := range ws {
		wp := &ws[i]
		_ = w.Write([]string{
			wp.Name,
			wp.Code,
			wp.Country,
			strconv.FormatFloat(wp.Latitude, 'f', -1, 64),
			strconv.FormatFloat(wp.Longitude, 'f', -1, 64),
			wp.Elevation,
			strconv.Itoa(wp.Style),
			wp.RunwayDirection,
			wp.RunwayLength,
			wp.RunwayWidth,
			wp.Frequency,
			wp.Description,
		})
	}
	w.Flush()
	return sb.String()
}
