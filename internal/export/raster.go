// Package export renders compute results to interchange formats:
// ESRI ASCII rasters for the per-band grids and CSV for the top-K
// attribution table.
package export

import (
	"bufio"
	"fmt"
	"io"
	"math"

	"github.com/signalsfoundry/emfield-mapper/core"
)

// rasterNoData is the ESRI ASCII sentinel substituted for NaN cells.
const rasterNoData = -9999.0

// WriteRasterASC writes one flat grid channel as an ESRI ASCII raster.
// The grid stores cell centres, so the lower-left corner is shifted by
// half a cell; rows are emitted north to south per the format.
func WriteRasterASC(w io.Writer, grid *core.GridDefinition, values []float64) error {
	nLat, nLon := grid.Shape()
	if len(values) != grid.NumCells() {
		return fmt.Errorf("raster: %d values for %d cells", len(values), grid.NumCells())
	}

	bw := bufio.NewWriter(w)
	half := grid.ResolutionDeg / 2.0
	fmt.Fprintf(bw, "ncols        %d\n", nLon)
	fmt.Fprintf(bw, "nrows        %d\n", nLat)
	fmt.Fprintf(bw, "xllcorner    %.10g\n", grid.LonAxis[0]-half)
	fmt.Fprintf(bw, "yllcorner    %.10g\n", grid.LatAxis[0]-half)
	fmt.Fprintf(bw, "cellsize     %.10g\n", grid.ResolutionDeg)
	fmt.Fprintf(bw, "NODATA_value %g\n", rasterNoData)

	for i := nLat - 1; i >= 0; i-- {
		for j := 0; j < nLon; j++ {
			if j > 0 {
				bw.WriteByte(' ')
			}
			v := values[grid.Index(i, j)]
			if math.IsNaN(v) {
				fmt.Fprintf(bw, "%g", rasterNoData)
			} else {
				fmt.Fprintf(bw, "%.6g", v)
			}
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}
