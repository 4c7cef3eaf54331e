// Command-line entry point for the waypoint file editor.
//
// Two formats are supported:
//   - CUP: the SeeYou waypoint format, with both the old combined
//     runway field and the modern split direction/length/width fields.
//   - CSV: loosely-structured spreadsheets with synonym headers
//     (lat/latitude, elev/altitude, ...) and sniffed delimiters.
//
// convert reads either format and writes canonical CUP or CSV; check
// parses a file and reports what would be kept, skipped, and warned
// about without writing anything.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"cup_editor/internal/codec/csvfmt"
	"cup_editor/internal/codec/cup"
	"cup_editor/internal/waypoint"
)

type Stats struct {
	Parsed   int
	Skipped  int
	Warnings int
	ByStyle  map[int]int
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "cup_editor - commands:")
	fmt.Fprintln(w, "  convert  - read a CUP or CSV waypoint file and write it in another format")
	fmt.Fprintln(w, "  check    - parse a waypoint file and report problems without writing")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  cup_editor convert -input waypoints.csv [-output out.cup] [-to cup|csv] [-legacy] [-sort] [-stats]")
	fmt.Fprintln(w, "  cup_editor check -input waypoints.cup [-stats]")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Notes:")
	fmt.Fprintln(w, "  - Input format is taken from the file extension; with stdin use -from cup|csv.")
	fmt.Fprintln(w, "  - -legacy writes the old 11-column CUP header without the rwwidth column.")
	fmt.Fprintln(w, "")
}

func main() {
	if len(os.Args) < 2 {
		usage(os.Stderr)
		os.Exit(2)
	}
	cmd := strings.ToLower(os.Args[1])
	switch cmd {
	case "convert":
		runConvert(os.Args[2:])
	case "check":
		runCheck(os.Args[2:])
	case "-h", "--help", "help":
		usage(os.Stdout)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage(os.Stderr)
		os.Exit(2)
	}
}

func runConvert(args []string) {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	inPath := fs.String("input", "", "Input file (default: stdin)")
	outPath := fs.String("output", "", "Output file (default: stdout)")
	from := fs.String("from", "", "Input format: cup or csv (default: from extension)")
	to := fs.String("to", "cup", "Output format: cup or csv")
	legacy := fs.Bool("legacy", false, "Write the legacy CUP header without runway width")
	sortNames := fs.Bool("sort", false, "Sort waypoints by name before writing")
	showStats := fs.Bool("stats", false, "Print parse counters to stderr")
	_ = fs.Parse(args)

	text, err := readInput(*inPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read input: %v\n", err)
		os.Exit(1)
	}

	ws, skipped, warnings, err := parseByFormat(text, formatOf(*from, *inPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}
	for _, warning := range warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", warning)
	}

	if *sortNames {
		sort.SliceStable(ws, func(i, j int) bool {
			return strings.ToLower(ws[i].Name) < strings.ToLower(ws[j].Name)
		})
	}

	var out string
	switch strings.ToLower(*to) {
	case "cup":
		out = cup.WriteWith(ws, cup.WriteOptions{Legacy: *legacy})
		out += "\n"
	case "csv":
		out = csvfmt.Write(ws)
	default:
		fmt.Fprintf(os.Stderr, "Unknown output format: %s\n", *to)
		os.Exit(2)
	}

	if err := writeOutput(*outPath, out); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write output: %v\n", err)
		os.Exit(1)
	}

	if *showStats {
		printStats(os.Stderr, buildStats(ws, skipped, warnings))
	}
}

func runCheck(args []string) {
	fs := flag.NewFlagSet("check", flag.ExitOnError)
	inPath := fs.String("input", "", "Input file (default: stdin)")
	from := fs.String("from", "", "Input format: cup or csv (default: from extension)")
	showStats := fs.Bool("stats", false, "Print per-style counters to stderr")
	_ = fs.Parse(args)

	text, err := readInput(*inPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read input: %v\n", err)
		os.Exit(1)
	}

	ws, skipped, warnings, err := parseByFormat(text, formatOf(*from, *inPath))
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(2)
	}

	for _, warning := range warnings {
		fmt.Fprintf(os.Stderr, "warning: %s\n", warning)
	}
	fmt.Printf("%d waypoints parsed, %d rows skipped, %d warnings\n",
		len(ws), skipped, len(warnings))

	if *showStats {
		printStats(os.Stderr, buildStats(ws, skipped, warnings))
	}

	if skipped > 0 {
		os.Exit(1)
	}
}

func parseByFormat(text, format string) ([]waypoint.Waypoint, int, []string, error) {
	switch format {
	case "cup":
		result := cup.Parse(text)
		return result.Waypoints, result.Skipped, result.Warnings, nil
	case "csv":
		result := csvfmt.Parse(text)
		return result.Waypoints, result.Skipped, result.Warnings, nil
	default:
		return nil, 0, nil, fmt.Errorf("unknown input format %q (use -from cup|csv)", format)
	}
}

// formatOf resolves the input format from the -from flag or, failing
// that, the file extension.
func formatOf(from, path string) string {
	if from != "" {
		return strings.ToLower(from)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".cup":
		return "cup"
	case ".csv":
		return "csv"
	}
	return ""
}

func readInput(path string) (string, error) {
	if path == "" {
		data, err := io.ReadAll(os.Stdin)
		return string(data), err
	}
	data, err := os.ReadFile(path)
	return string(data), err
}

func writeOutput(path, content string) error {
	if path == "" {
		_, err := os.Stdout.WriteString(content)
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}

func buildStats(ws []waypoint.Waypoint, skipped int, warnings []string) *Stats {
	st := &Stats{
		Parsed:   len(ws),
		Skipped:  skipped,
		Warnings: len(warnings),
		ByStyle:  make(map[int]int),
	}
	for i := range ws {
		st.ByStyle[ws[i].Style]++
	}
	return st
}

func printStats(w io.Writer, st *Stats) {
	fmt.Fprintf(w, "parsed=%d skipped=%d warnings=%d\n", st.Parsed, st.Skipped, st.Warnings)

	styles := make([]int, 0, len(st.ByStyle))
	for s := range st.ByStyle {
		styles = append(styles, s)
	}
	sort.Ints(styles)
	for _, s := range styles {
		fmt.Fprintf(w, "  style %2d %-20s %d\n", s, waypoint.StyleName(s), st.ByStyle[s])
	}
}
