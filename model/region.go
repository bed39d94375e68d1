package model

import "fmt"

// LatLon is a WGS84 geographic coordinate pair in degrees.
type LatLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Region is the polygonal region of interest. The polygon is an ordered
// list of vertices; NormalizeWinding rewrites it to the canonical
// clockwise order so the interior test behaves the same regardless of
// how the caller listed the vertices.
type Region struct {
	CRS     string   `json:"crs"`
	Polygon []LatLon `json:"polygon"`
}

// Validate checks vertex count and coordinate ranges.
func (r *Region) Validate() error {
	if r.CRS != "" && r.CRS != "WGS84" {
		return fmt.Errorf("region: unsupported crs %q", r.CRS)
	}
	if len(r.Polygon) < 3 {
		return fmt.Errorf("region: polygon must contain at least 3 vertices, got %d", len(r.Polygon))
	}
	for i, v := range r.Polygon {
		if v.Lat < -90 || v.Lat > 90 {
			return fmt.Errorf("region: vertex %d latitude %g out of [-90, 90]", i, v.Lat)
		}
		if v.Lon < -180 || v.Lon > 180 {
			return fmt.Errorf("region: vertex %d longitude %g out of [-180, 180]", i, v.Lon)
		}
	}
	return nil
}

// NormalizeWinding reverses the polygon in place when the shoelace sum
// over (lon, lat) indicates counter-clockwise order.
func (r *Region) NormalizeWinding() {
	area := 0.0
	n := len(r.Polygon)
	for i, cur := range r.Polygon {
		nxt := r.Polygon[(i+1)%n]
		area += cur.Lon*nxt.Lat - nxt.Lon*cur.Lat
	}
	if area > 0 {
		for i, j := 0, n-1; i < j; i, j = i+1, j-1 {
			r.Polygon[i], r.Polygon[j] = r.Polygon[j], r.Polygon[i]
		}
	}
}

// BoundingBox returns the polygon's axis-aligned extent in degrees.
func (r *Region) BoundingBox() (minLat, maxLat, minLon, maxLon float64) {
	minLat, maxLat = r.Polygon[0].Lat, r.Polygon[0].Lat
	minLon, maxLon = r.Polygon[0].Lon, r.Polygon[0].Lon
	for _, v := range r.Polygon[1:] {
		if v.Lat < minLat {
			minLat = v.Lat
		}
		if v.Lat > maxLat {
			maxLat = v.Lat
		}
		if v.Lon < minLon {
			minLon = v.Lon
		}
		if v.Lon > maxLon {
			maxLon = v.Lon
		}
	}
	return minLat, maxLat, minLon, maxLon
}
