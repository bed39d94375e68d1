package export

import (
	"bytes"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalsfoundry/emfield-mapper/core"
)

// twoByTwoResult is a hand-built 2x2 result with one masked cell, one
// ranked contributor per valid cell, and NaN sentinels in place.
func twoByTwoResult() *core.ComputeResult {
	grid := &core.GridDefinition{
		LatAxis:       []float64{33.0, 33.1},
		LonAxis:       []float64{118.0, 118.1},
		Mask:          []bool{true, true, true, false},
		ResolutionDeg: 0.1,
		AltM:          0,
	}
	nan := math.NaN()
	sel := &core.TopKSelection{
		K:        1,
		Indices:  [][]int{{0, 1, 0, -1}},
		Power:    [][]float64{{1e-6, 2e-6, 3e-6, -1}},
		Fraction: [][]float64{{1, 1, 1, -1}},
	}
	band := &core.BandResult{
		Name:               "S",
		CenterFreqMHz:      3000,
		FieldStrengthDBuVm: []float64{60, 65, 70, nan},
		PowerDensityWm2:    []float64{1e-6, 2e-6, 3e-6, nan},
		TopK:               sel,
	}
	return &core.ComputeResult{
		Grid:        grid,
		BandResults: map[string]*core.BandResult{"S": band},
		SourceIDs:   []string{"radar-1", "comm-2"},
	}
}

func TestWriteRasterASC(t *testing.T) {
	res := twoByTwoResult()
	var buf bytes.Buffer
	require.NoError(t, WriteRasterASC(&buf, res.Grid, res.BandResults["S"].FieldStrengthDBuVm))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 8)

	assert.Equal(t, "ncols        2", lines[0])
	assert.Equal(t, "nrows        2", lines[1])
	// Cell centres shifted by half a cell to the lower-left corner.
	assert.Equal(t, "xllcorner    117.95", lines[2])
	assert.Equal(t, "yllcorner    32.95", lines[3])
	assert.Equal(t, "cellsize     0.1", lines[4])
	assert.Equal(t, "NODATA_value -9999", lines[5])

	// North row first: lat 33.1 holds 70 and the NaN sentinel.
	assert.Equal(t, "70 -9999", lines[6])
	assert.Equal(t, "60 65", lines[7])
}

func TestWriteRasterASCLengthMismatch(t *testing.T) {
	res := twoByTwoResult()
	var buf bytes.Buffer
	err := WriteRasterASC(&buf, res.Grid, []float64{1, 2, 3})
	assert.Error(t, err)
}

func TestWriteTopKCSV(t *testing.T) {
	res := twoByTwoResult()
	var buf bytes.Buffer
	require.NoError(t, WriteTopKCSV(&buf, res))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	// Header plus one row per in-mask cell; the masked cell is omitted.
	require.Len(t, lines, 4)
	assert.Equal(t,
		"latitude,longitude,band,rank,source_index,source_id,power_density_w_m2,fraction",
		lines[0])
	assert.Equal(t, "33,118,S,1,0,radar-1,1e-06,1.000000", lines[1])
	assert.Equal(t, "33,118.1,S,1,1,comm-2,2e-06,1.000000", lines[2])
	assert.Equal(t, "33.1,118,S,1,0,radar-1,3e-06,1.000000", lines[3])
}

func TestWriteResultFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	require.NoError(t, WriteResultFiles(dir, twoByTwoResult()))

	for _, name := range []string{"S_field_dbuvm.asc", "S_power_wm2.asc", "topk.csv"} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err, name)
		assert.Positive(t, info.Size(), name)
	}
}
