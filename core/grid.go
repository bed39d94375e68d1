// core/grid.go
package core

import (
	"math"

	"github.com/signalsfoundry/emfield-mapper/model"
)

// GridDefinition is the realized sampling mesh every band's output is
// projected onto: the lattice axes, the polygon interior mask, and the
// resolution/altitude it was built with. Cells are addressed row-major
// as (latIndex, lonIndex); Index flattens that pair.
type GridDefinition struct {
	LatAxis       []float64
	LonAxis       []float64
	Mask          []bool
	ResolutionDeg float64
	AltM          float64
}

// Shape returns (nLat, nLon).
func (g *GridDefinition) Shape() (int, int) {
	return len(g.LatAxis), len(g.LonAxis)
}

// NumCells returns the flat cell count.
func (g *GridDefinition) NumCells() int {
	return len(g.LatAxis) * len(g.LonAxis)
}

// Index flattens a (latIndex, lonIndex) pair.
func (g *GridDefinition) Index(i, j int) int {
	return i*len(g.LonAxis) + j
}

// CellLatLon returns the coordinates of a flat cell index.
func (g *GridDefinition) CellLatLon(idx int) (lat, lon float64) {
	nLon := len(g.LonAxis)
	return g.LatAxis[idx/nLon], g.LonAxis[idx%nLon]
}

// BuildGrid rasterizes the region's bounding box at the requested
// angular resolution (inclusive of the upper bound) and computes the
// polygon interior mask for every lattice point. A resolution coarser
// than the region still yields a 1x1 grid with a real mask test.
func BuildGrid(region model.Region, resolutionDeg, altM float64) *GridDefinition {
	minLat, maxLat, minLon, maxLon := region.BoundingBox()

	latAxis := axisValues(minLat, maxLat, resolutionDeg)
	lonAxis := axisValues(minLon, maxLon, resolutionDeg)

	mask := make([]bool, len(latAxis)*len(lonAxis))
	for i, lat := range latAxis {
		for j, lon := range lonAxis {
			mask[i*len(lonAxis)+j] = pointInPolygon(lat, lon, region.Polygon)
		}
	}

	return &GridDefinition{
		LatAxis:       latAxis,
		LonAxis:       lonAxis,
		Mask:          mask,
		ResolutionDeg: resolutionDeg,
		AltM:          altM,
	}
}

// GridPointCount predicts the lattice size for a region/resolution
// pair without allocating the mesh, for pre-flight limit checks.
func GridPointCount(region model.Region, resolutionDeg float64) int {
	minLat, maxLat, minLon, maxLon := region.BoundingBox()
	nLat := axisLen(minLat, maxLat, resolutionDeg)
	nLon := axisLen(minLon, maxLon, resolutionDeg)
	return nLat * nLon
}

func axisLen(min, max, step float64) int {
	// Inclusive of the upper bound, with a small tolerance so that
	// spans that are an exact multiple of the step keep the endpoint.
	return int(math.Floor((max-min)/step+1e-9)) + 1
}

func axisValues(min, max, step float64) []float64 {
	n := axisLen(min, max, step)
	values := make([]float64, n)
	for i := range values {
		values[i] = min + float64(i)*step
	}
	return values
}

// pointInPolygon is an even-odd ray-casting test: a horizontal ray to
// the east counts edge crossings, odd means inside. The crossing gate
// ((yi > y) != (yj > y)) already excludes horizontal edges; the signed
// epsilon on the denominator keeps nearly-degenerate edges from
// producing Inf without flipping the intersection side.
func pointInPolygon(lat, lon float64, polygon []model.LatLon) bool {
	inside := false
	n := len(polygon)
	j := n - 1
	for i := 0; i < n; i++ {
		yi, xi := polygon[i].Lat, polygon[i].Lon
		yj, xj := polygon[j].Lat, polygon[j].Lon
		if (yi > lat) != (yj > lat) {
			dy := yj - yi
			if math.Abs(dy) < 1e-12 {
				dy = math.Copysign(1e-12, dy)
			}
			if lon < (xj-xi)*(lat-yi)/dy+xi {
				inside = !inside
			}
		}
		j = i
	}
	return inside
}
