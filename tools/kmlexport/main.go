// Package main provides a tool to export the waypoint catalog from
// PostgreSQL to KML format. KML (Keyhole Markup Language) files can be
// viewed in Google Earth, Google Maps, and other mapping applications.
package main

import (
	"context"
	"encoding/xml"
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"time"

	"cup_editor/internal/storage"
	"cup_editor/internal/waypoint"
)

// KML structures for XML marshalling.
// These follow the KML 2.2 specification: https://developers.google.com/kml/documentation/kmlreference

// KML is the root element of a KML document.
type KML struct {
	XMLName   xml.Name `xml:"kml"`
	Namespace string   `xml:"xmlns,attr"`
	Document  Document `xml:"Document"`
}

// Document contains the document metadata and features.
type Document struct {
	Name        string      `xml:"name"`
	Description string      `xml:"description,omitempty"`
	Styles      []Style     `xml:"Style,omitempty"`
	Placemarks  []Placemark `xml:"Placemark"`
}

// Style defines the visual appearance of features.
type Style struct {
	ID        string    `xml:"id,attr"`
	IconStyle IconStyle `xml:"IconStyle"`
}

// IconStyle defines how icons are displayed.
type IconStyle struct {
	Scale float64 `xml:"scale,omitempty"`
	Icon  Icon    `xml:"Icon"`
}

// Icon specifies the icon image.
type Icon struct {
	Href string `xml:"href"`
}

// Placemark represents a geographic feature with geometry and metadata.
type Placemark struct {
	Name         string        `xml:"name"`
	Description  string        `xml:"description,omitempty"`
	StyleURL     string        `xml:"styleUrl,omitempty"`
	Point        Point         `xml:"Point"`
	ExtendedData *ExtendedData `xml:"ExtendedData,omitempty"`
}

// Point represents a geographic location.
type Point struct {
	Coordinates string `xml:"coordinates"` // Format: lon,lat,altitude
}

// ExtendedData holds custom data associated with a placemark.
type ExtendedData struct {
	Data []Data `xml:"Data"`
}

// Data represents a single piece of extended data.
type Data struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value"`
}

func main() {
	// PostgreSQL connection flags.
	pgHost := flag.String("pg-host", "localhost", "PostgreSQL host")
	pgPort := flag.Int("pg-port", 5432, "PostgreSQL port")
	pgUser := flag.String("pg-user", "cup", "PostgreSQL user")
	pgPassword := flag.String("pg-password", "", "PostgreSQL password")
	pgDB := flag.String("pg-db", "waypoints", "PostgreSQL database")

	output := flag.String("output", "", "Output KML file (default: stdout)")
	minSources := flag.Int("min-sources", 1, "Minimum source count to include a waypoint")
	showStats := flag.Bool("stats", false, "Show statistics only, don't export")
	verbose := flag.Bool("v", false, "Verbose output")

	flag.Parse()

	ctx := context.Background()

	pg, err := storage.OpenPostgres(ctx, storage.PostgresConfig{
		Host:     *pgHost,
		Port:     *pgPort,
		Database: *pgDB,
		User:     *pgUser,
		Password: *pgPassword,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening PostgreSQL: %v\n", err)
		os.Exit(1)
	}
	defer pg.Close()

	// Show stats mode.
	if *showStats {
		showCatalogStats(ctx, pg)
		return
	}

	// Query waypoints.
	entries, err := pg.ListWaypoints(ctx, *minSources)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error querying waypoints: %v\n", err)
		os.Exit(1)
	}

	if len(entries) == 0 {
		fmt.Fprintf(os.Stderr, "No waypoints found matching criteria\n")
		os.Exit(0)
	}

	if *verbose {
		fmt.Fprintf(os.Stderr, "Exporting %d waypoints to KML\n", len(entries))
	}

	// Generate KML.
	kml := generateKML(entries)

	// Marshal to XML.
	xmlData, err := xml.MarshalIndent(kml, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating KML: %v\n", err)
		os.Exit(1)
	}

	// Add XML header.
	xmlOutput := xml.Header + string(xmlData)

	// Write output.
	if *output != "" {
		if err := os.WriteFile(*output, []byte(xmlOutput), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing file: %v\n", err)
			os.Exit(1)
		}
		if *verbose {
			fmt.Fprintf(os.Stderr, "Wrote %s\n", *output)
		}
	} else {
		fmt.Println(xmlOutput)
	}
}

// styleIcon maps waypoint style codes to Google Earth icon shapes.
// Airfields get the airport icon, launch and landing sites a target,
// everything else a plain placemark.
func styleIcon(style int) string {
	switch style {
	case 2, 4, 5:
		return "http://maps.google.com/mapfiles/kml/shapes/airports.png"
	case 3, 20, 21:
		return "http://maps.google.com/mapfiles/kml/shapes/target.png"
	case 6, 7:
		return "http://maps.google.com/mapfiles/kml/shapes/mountains.png"
	default:
		return "http://maps.google.com/mapfiles/kml/shapes/placemark_circle.png"
	}
}

// generateKML creates a KML document from the catalog entries, one
// shared Style per waypoint style code present.
func generateKML(entries []storage.CatalogEntry) KML {
	seenStyles := make(map[int]bool)
	placemarks := make([]Placemark, len(entries))

	for i := range entries {
		e := &entries[i]
		wp := &e.Waypoint
		seenStyles[wp.Style] = true

		// KML coordinates are in the format: longitude,latitude,altitude
		alt := 0.0
		if wp.Elevation != "" {
			if v, err := strconv.ParseFloat(waypoint.StripUnitValue(wp.Elevation), 64); err == nil {
				alt = v
			}
		}
		coords := fmt.Sprintf("%.6f,%.6f,%.0f", wp.Longitude, wp.Latitude, alt)

		description := fmt.Sprintf(
			"%s\nSources: %d\nFirst seen: %s\nLast seen: %s",
			waypoint.StyleName(wp.Style),
			e.SourceCount,
			e.FirstSeen.Format("2006-01-02 15:04:05 UTC"),
			e.LastSeen.Format("2006-01-02 15:04:05 UTC"),
		)

		data := []Data{
			{Name: "style", Value: waypoint.StyleName(wp.Style)},
			{Name: "source_count", Value: strconv.Itoa(e.SourceCount)},
			{Name: "first_seen", Value: e.FirstSeen.Format(time.RFC3339)},
			{Name: "last_seen", Value: e.LastSeen.Format(time.RFC3339)},
		}
		if wp.Country != "" {
			data = append(data, Data{Name: "country", Value: wp.Country})
		}
		if wp.Frequency != "" {
			data = append(data, Data{Name: "frequency", Value: wp.Frequency})
		}
		if wp.RunwayDirection != "" {
			data = append(data, Data{Name: "runway_direction", Value: wp.RunwayDirection})
		}

		placemarks[i] = Placemark{
			Name:         wp.Name,
			Description:  description,
			StyleURL:     fmt.Sprintf("#style-%d", wp.Style),
			Point:        Point{Coordinates: coords},
			ExtendedData: &ExtendedData{Data: data},
		}
	}

	styleCodes := make([]int, 0, len(seenStyles))
	for code := range seenStyles {
		styleCodes = append(styleCodes, code)
	}
	sort.Ints(styleCodes)

	styles := make([]Style, len(styleCodes))
	for i, code := range styleCodes {
		styles[i] = Style{
			ID: fmt.Sprintf("style-%d", code),
			IconStyle: IconStyle{
				Scale: 0.8,
				Icon:  Icon{Href: styleIcon(code)},
			},
		}
	}

	return KML{
		Namespace: "http://www.opengis.net/kml/2.2",
		Document: Document{
			Name:        "Soaring Waypoints",
			Description: fmt.Sprintf("Waypoint catalog accumulated from CUP and CSV imports. Generated %s.", time.Now().Format("2006-01-02 15:04:05")),
			Styles:      styles,
			Placemarks:  placemarks,
		},
	}
}

// showCatalogStats displays statistics about the waypoint catalog.
func showCatalogStats(ctx context.Context, pg *storage.PostgresDB) {
	pool := pg.Pool()

	var total int
	_ = pool.QueryRow(ctx, "SELECT COUNT(*) FROM waypoints").Scan(&total)

	var avgSources float64
	_ = pool.QueryRow(ctx, "SELECT COALESCE(AVG(source_count), 0) FROM waypoints").Scan(&avgSources)

	var maxSources int
	var maxName string
	_ = pool.QueryRow(ctx, "SELECT name, source_count FROM waypoints ORDER BY source_count DESC LIMIT 1").Scan(&maxName, &maxSources)

	var oldestTime, newestTime *time.Time
	_ = pool.QueryRow(ctx, "SELECT MIN(first_seen), MAX(last_seen) FROM waypoints").Scan(&oldestTime, &newestTime)

	fmt.Println("Waypoint Catalog Statistics")
	fmt.Println("───────────────────────────")
	fmt.Printf("Total waypoints:     %d\n", total)
	fmt.Printf("Average sources:     %.1f\n", avgSources)
	if maxName != "" {
		fmt.Printf("Most imported:       %s (%d sources)\n", maxName, maxSources)
	}
	if oldestTime != nil && newestTime != nil {
		fmt.Printf("Date range:          %s to %s\n", oldestTime.Format("2006-01-02"), newestTime.Format("2006-01-02"))
	}

	// Per-style distribution.
	counts, err := pg.CountByStyle(ctx)
	if err != nil {
		return
	}

	styleCodes := make([]int, 0, len(counts))
	for code := range counts {
		styleCodes = append(styleCodes, code)
	}
	sort.Ints(styleCodes)

	fmt.Println("\nStyle Distribution:")
	fmt.Printf("%-24s %10s\n", "Style", "Count")
	for _, code := range styleCodes {
		fmt.Printf("%-24s %10d\n",
			fmt.Sprintf("%d %s", code, waypoint.StyleName(code)), counts[code])
	}
}
