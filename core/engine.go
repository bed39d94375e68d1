// core/engine.go
package core

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/signalsfoundry/emfield-mapper/model"
)

// Engine runs the full field-strength estimation pipeline for one
// request: limit pre-flight, grid construction, source filtering,
// geometry precomputation, per-band loss/gain/power evaluation, and
// top-K attribution. It holds no mutable state, so one Engine value
// can serve concurrent Compute calls, each producing an isolated
// result.
type Engine struct {
	cfg EngineConfig
}

// NewEngine builds an engine with the given configuration.
func NewEngine(cfg EngineConfig) *Engine {
	return &Engine{cfg: cfg}
}

// sourceGeometry holds the per-source, per-cell tensors shared by
// every band: frequency changes loss and gain, never geometry, so
// these are computed exactly once per request.
type sourceGeometry struct {
	horizontalKm [][]float64
	slantKm      [][]float64
	bearingDeg   [][]float64
	elevationDeg [][]float64
	txAltM       []float64
	rxAltM       float64
}

// Compute executes the pipeline. The request is assumed validated by
// the contract layer (model.ComputeRequest.Validate); workload limits
// that depend on the realized grid are checked here pre-flight, before
// any heavy computation. Per-cell numerical edge cases never error —
// they are absorbed by floors and masking.
func (e *Engine) Compute(req *model.ComputeRequest) (*ComputeResult, error) {
	if len(req.Bands) == 0 {
		return nil, ErrNoBands
	}

	effectiveRadiusKm := EarthRadiusKm * req.Environment.Earth.KFactor

	if err := checkLimits(req, effectiveRadiusKm); err != nil {
		return nil, err
	}

	grid := BuildGrid(req.Region, req.Grid.ResolutionDeg, req.Grid.AltM)
	sources := filterSources(req.Sources, grid, req.InfluenceBufferKm, effectiveRadiusKm)

	sourceIDs := make([]string, len(sources))
	for i := range sources {
		sourceIDs[i] = sources[i].ID
	}

	result := &ComputeResult{
		Grid:        grid,
		BandResults: make(map[string]*BandResult, len(req.Bands)),
		SourceIDs:   sourceIDs,
	}

	if len(sources) == 0 {
		for i := range req.Bands {
			band := &req.Bands[i]
			result.BandResults[band.Name] = newNoDataBandResult(band.Name, band.CenterFreqMHz(), grid.NumCells(), 0)
		}
		return result, nil
	}

	geom := prepareGeometry(sources, grid, effectiveRadiusKm)

	eirpW := make([]float64, len(sources))
	for i := range sources {
		eirpW[i] = EIRPdBmToW(sources[i].Emission.EIRPdBm)
	}

	for bi := range req.Bands {
		band := &req.Bands[bi]
		result.BandResults[band.Name] = e.computeBand(band, sources, eirpW, grid, geom, &req.Environment)
	}

	return result, nil
}

// computeBand evaluates one band against the precomputed geometry.
func (e *Engine) computeBand(
	band *model.Band,
	sources []model.Source,
	eirpW []float64,
	grid *GridDefinition,
	geom *sourceGeometry,
	env *model.Environment,
) *BandResult {
	nCells := grid.NumCells()
	centerFreq := band.CenterFreqMHz()

	perSource := make([][]float64, len(sources))
	for si := range sources {
		antenna := &sources[si].Antenna
		row := make([]float64, nCells)
		for cell := 0; cell < nCells; cell++ {
			lossDB := AdditionalLossDB(
				centerFreq,
				geom.slantKm[si][cell],
				geom.horizontalKm[si][cell],
				geom.txAltM[si],
				geom.rxAltM,
				env,
			)
			gainDBi := PeakGainDBi(geom.bearingDeg[si][cell], geom.elevationDeg[si][cell], antenna, 0)
			gainLin := math.Pow(10.0, gainDBi/10.0)
			row[cell] = PowerDensityWm2(eirpW[si], gainLin, geom.slantKm[si][cell]*1000.0, lossDB)
		}
		perSource[si] = row
	}

	total, topK := SumSourcesAndTopK(perSource, nCells, e.cfg.TopK)

	field := make([]float64, nCells)
	for cell := 0; cell < nCells; cell++ {
		field[cell] = FieldStrengthDBuVm(total[cell])
	}

	for cell := 0; cell < nCells; cell++ {
		if !grid.Mask[cell] || field[cell] < e.cfg.ThresholdDBuVm {
			InvalidateCell(field, total, topK, cell)
		}
	}

	return &BandResult{
		Name:               band.Name,
		CenterFreqMHz:      centerFreq,
		FieldStrengthDBuVm: field,
		PowerDensityWm2:    total,
		TopK:               topK,
	}
}

// checkLimits is the pre-flight workload guard: it predicts the grid
// size and the region extent without building anything, and rejects
// with a kind-specific error. Both checks are fatal and deterministic.
func checkLimits(req *model.ComputeRequest, effectiveRadiusKm float64) error {
	minLat, maxLat, minLon, maxLon := req.Region.BoundingBox()
	extentKm := HaversineKm(minLat, minLon, maxLat, maxLon, effectiveRadiusKm)
	if extentKm > req.Limits.MaxRegionKm {
		return fmt.Errorf("%w: extent %.1f km > %.1f km", ErrRegionTooLarge, extentKm, req.Limits.MaxRegionKm)
	}

	points := GridPointCount(req.Region, req.Grid.ResolutionDeg)
	if points > req.Limits.MaxGridPoints {
		return fmt.Errorf("%w: %d points > %d", ErrGridTooLarge, points, req.Limits.MaxGridPoints)
	}
	return nil
}

// filterSources retains only emitters whose distance to the region's
// bounding-circle centre is within influence buffer + circle radius.
// The circle is the centroid of in-mask cells with radius to the
// farthest in-mask cell, so the filter is conservative: it may keep a
// few extra emitters but never drops one that could contribute to any
// in-region cell's top-K. A fully-masked-out grid falls back to the
// whole lattice.
func filterSources(sources []model.Source, grid *GridDefinition, bufferKm, effectiveRadiusKm float64) []model.Source {
	if len(sources) == 0 {
		return nil
	}

	var cellLats, cellLons []float64
	for cell := 0; cell < grid.NumCells(); cell++ {
		if !grid.Mask[cell] {
			continue
		}
		lat, lon := grid.CellLatLon(cell)
		cellLats = append(cellLats, lat)
		cellLons = append(cellLons, lon)
	}
	if len(cellLats) == 0 {
		for cell := 0; cell < grid.NumCells(); cell++ {
			lat, lon := grid.CellLatLon(cell)
			cellLats = append(cellLats, lat)
			cellLons = append(cellLons, lon)
		}
	}

	centerLat := floats.Sum(cellLats) / float64(len(cellLats))
	centerLon := floats.Sum(cellLons) / float64(len(cellLons))

	extentKm := 0.0
	for i := range cellLats {
		d := HaversineKm(centerLat, centerLon, cellLats[i], cellLons[i], effectiveRadiusKm)
		if d > extentKm {
			extentKm = d
		}
	}

	retained := make([]model.Source, 0, len(sources))
	for _, src := range sources {
		d := HaversineKm(src.Position.Lat, src.Position.Lon, centerLat, centerLon, effectiveRadiusKm)
		if d <= bufferKm+extentKm {
			retained = append(retained, src)
		}
	}
	return retained
}

// prepareGeometry computes the distance/bearing/elevation tensors for
// every (source, cell) pair. Slant range folds the altitude delta into
// the horizontal great-circle distance.
func prepareGeometry(sources []model.Source, grid *GridDefinition, effectiveRadiusKm float64) *sourceGeometry {
	nCells := grid.NumCells()
	geom := &sourceGeometry{
		horizontalKm: make([][]float64, len(sources)),
		slantKm:      make([][]float64, len(sources)),
		bearingDeg:   make([][]float64, len(sources)),
		elevationDeg: make([][]float64, len(sources)),
		txAltM:       make([]float64, len(sources)),
		rxAltM:       grid.AltM,
	}

	for si := range sources {
		pos := sources[si].Position
		geom.txAltM[si] = pos.AltM
		deltaAltM := grid.AltM - pos.AltM
		deltaAltKm := deltaAltM / 1000.0

		horiz := make([]float64, nCells)
		slant := make([]float64, nCells)
		bearing := make([]float64, nCells)
		elev := make([]float64, nCells)
		for cell := 0; cell < nCells; cell++ {
			lat, lon := grid.CellLatLon(cell)
			h := HaversineKm(pos.Lat, pos.Lon, lat, lon, effectiveRadiusKm)
			horiz[cell] = h
			slant[cell] = math.Sqrt(h*h + deltaAltKm*deltaAltKm)
			bearing[cell] = ForwardAzimuthDeg(pos.Lat, pos.Lon, lat, lon)
			elev[cell] = ElevationAngleDeg(h, deltaAltM)
		}
		geom.horizontalKm[si] = horiz
		geom.slantKm[si] = slant
		geom.bearingDeg[si] = bearing
		geom.elevationDeg[si] = elev
	}
	return geom
}
