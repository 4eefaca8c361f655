package aisstream

// BoundingBox is a geographic filter with inclusive bounds.
type BoundingBox struct {
	SwLat float64 `json:"sw_lat"`
	SwLon float64 `json:"sw_lon"`
	NeLat float64 `json:"ne_lat"`
	NeLon float64 `json:"ne_lon"`
}

// Contains reports whether the report falls inside the box. Reports
// missing either coordinate never match.
func (b BoundingBox) Contains(report Report) bool {
	if report.Latitude == nil || report.Longitude == nil {
		return false
	}

	lat := *report.Latitude
	lon := *report.Longitude

	return lat >= b.SwLat && lat <= b.NeLat &&
		lon >= b.SwLon && lon <= b.NeLon
}
