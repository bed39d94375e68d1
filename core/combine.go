// core/combine.go
package core

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
)

// FreeSpaceImpedanceOhm is the impedance of free space used for the
// power-density to field-strength conversion.
const FreeSpaceImpedanceOhm = 377.0

// powerDensityFloor keeps the field-strength log defined when the
// combined power density underflows to zero.
const powerDensityFloor = 1e-30

// EIRPdBmToW converts equivalent isotropically radiated power from dBm
// (reference 1 mW) to Watts.
func EIRPdBmToW(eirpDBm float64) float64 {
	return math.Pow(10.0, (eirpDBm-30.0)/10.0)
}

// PowerDensityWm2 computes the power density at range: geometric
// spreading over 4·pi·r² scaled by the linear antenna gain, then
// reduced by the additional propagation loss. The range is floored at
// 1 m so a cell on top of the emitter stays finite.
func PowerDensityWm2(eirpW, gainLin, rM, additionalLossDB float64) float64 {
	r := math.Max(rM, 1.0)
	fsTerm := eirpW * gainLin / (4.0 * math.Pi * r * r)
	return fsTerm * math.Pow(10.0, -additionalLossDB/10.0)
}

// FieldStrengthDBuVm converts power density (W/m²) to electric field
// strength in dBµV/m: E = sqrt(Z0·S), referenced to 1 µV/m.
func FieldStrengthDBuVm(powerDensityWm2 float64) float64 {
	e := math.Sqrt(FreeSpaceImpedanceOhm * math.Max(powerDensityWm2, powerDensityFloor))
	return 20.0*math.Log10(e) + 120.0
}

// TopKSelection is the per-cell attribution extracted alongside the
// aggregate: for every cell, the indices of the K strongest sources in
// descending power order, their power densities, and their fractional
// share of the cell total.
type TopKSelection struct {
	K        int
	Indices  [][]int     // K rows, each the grid's flat shape
	Power    [][]float64 // W/m² per retained rank
	Fraction [][]float64 // power / cell total, 0 when total is 0
}

// SumSourcesAndTopK aggregates the per-source power-density stack
// (nSources rows, each nCells long) into the cell-wise total, and
// extracts the top-K contributors per cell. Power sums incoherently;
// fields do not. K = 0 yields an empty selection, not an error; K
// larger than the source count is truncated.
func SumSourcesAndTopK(perSource [][]float64, nCells, topK int) ([]float64, *TopKSelection) {
	total := make([]float64, nCells)
	for _, row := range perSource {
		floats.Add(total, row)
	}

	k := topK
	if k > len(perSource) {
		k = len(perSource)
	}
	if k <= 0 {
		return total, &TopKSelection{K: 0}
	}

	sel := &TopKSelection{
		K:        k,
		Indices:  make([][]int, k),
		Power:    make([][]float64, k),
		Fraction: make([][]float64, k),
	}
	for rank := 0; rank < k; rank++ {
		sel.Indices[rank] = make([]int, nCells)
		sel.Power[rank] = make([]float64, nCells)
		sel.Fraction[rank] = make([]float64, nCells)
	}

	order := make([]int, len(perSource))
	for cell := 0; cell < nCells; cell++ {
		for i := range order {
			order[i] = i
		}
		sort.SliceStable(order, func(a, b int) bool {
			return perSource[order[a]][cell] > perSource[order[b]][cell]
		})
		for rank := 0; rank < k; rank++ {
			src := order[rank]
			p := perSource[src][cell]
			sel.Indices[rank][cell] = src
			sel.Power[rank][cell] = p
			if total[cell] > 0 {
				sel.Fraction[rank][cell] = p / total[cell]
			}
		}
	}
	return total, sel
}

// InvalidateCell stamps the no-data sentinel into every output channel
// of one cell so no channel ever disagrees about validity: NaN for
// values, -1 for source indices.
func InvalidateCell(field, power []float64, sel *TopKSelection, cell int) {
	field[cell] = math.NaN()
	power[cell] = math.NaN()
	for rank := 0; rank < sel.K; rank++ {
		sel.Indices[rank][cell] = -1
		sel.Power[rank][cell] = math.NaN()
		sel.Fraction[rank][cell] = math.NaN()
	}
}
