package waypoint

// MaxStyle is the highest defined waypoint style code.
const MaxStyle = 21

// StyleNames maps the CUP style codes to their display labels.
var StyleNames = map[int]string{
	0:  "Unknown",
	1:  "Waypoint",
	2:  "Airfield (grass)",
	3:  "Outlanding",
	4:  "Gliding airfield",
	5:  "Airfield (solid)",
	6:  "Mountain Pass",
	7:  "Mountain Top",
	8:  "Transmitter Mast",
	9:  "VOR",
	10: "NDB",
	11: "Cooling Tower",
	12: "Dam",
	13: "Tunnel",
	14: "Bridge",
	15: "Power Plant",
	16: "Castle",
	17: "Intersection",
	18: "Marker",
	19: "Reporting Point",
	20: "PG Take Off",
	21: "PG Landing",
}

// StyleName returns the display label for a style code, or "Unknown"
// for codes without a label.
func StyleName(style int) string {
	if name, ok := StyleNames[style]; ok {
		return name
	}
	return "Unknown"
}
