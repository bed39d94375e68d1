// core/result.go
package core

import "time"

// BandResult is the per-band output: field-strength and power-density
// grids plus the top-K attribution, all in the grid's flat shape.
// Cells outside the mask or below the detection threshold carry NaN
// (and index -1) uniformly across every channel.
type BandResult struct {
	Name               string
	CenterFreqMHz      float64
	FieldStrengthDBuVm []float64
	PowerDensityWm2    []float64
	TopK               *TopKSelection
}

// ComputeResult is the aggregate output of one compute invocation.
// SourceIDs lists the retained sources in filter order; the positional
// index in this list is the canonical source index the top-K grids
// refer to. GeneratedAt is stamped by the service layer.
type ComputeResult struct {
	Grid        *GridDefinition
	BandResults map[string]*BandResult
	SourceIDs   []string
	GeneratedAt time.Time
}

// newNoDataBandResult builds a band result where every cell already
// carries the no-data sentinel. Both the "no sources survived
// filtering" path and the "threshold masked everything" path flow
// through the same sentinel-stamping helper so the channels can never
// diverge.
func newNoDataBandResult(name string, centerFreqMHz float64, nCells, k int) *BandResult {
	sel := &TopKSelection{K: k}
	if k > 0 {
		sel.Indices = make([][]int, k)
		sel.Power = make([][]float64, k)
		sel.Fraction = make([][]float64, k)
		for rank := 0; rank < k; rank++ {
			sel.Indices[rank] = make([]int, nCells)
			sel.Power[rank] = make([]float64, nCells)
			sel.Fraction[rank] = make([]float64, nCells)
		}
	}
	field := make([]float64, nCells)
	power := make([]float64, nCells)
	for cell := 0; cell < nCells; cell++ {
		InvalidateCell(field, power, sel, cell)
	}
	return &BandResult{
		Name:               name,
		CenterFreqMHz:      centerFreqMHz,
		FieldStrengthDBuVm: field,
		PowerDensityWm2:    power,
		TopK:               sel,
	}
}
