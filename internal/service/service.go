// Package service is the orchestration layer above the compute engine:
// it validates requests, runs the pipeline, stamps and caches the most
// recent result, and answers point queries against it.
package service

import (
	"context"
	"errors"
	"math"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/signalsfoundry/emfield-mapper/core"
	"github.com/signalsfoundry/emfield-mapper/internal/logging"
	"github.com/signalsfoundry/emfield-mapper/internal/observability"
	"github.com/signalsfoundry/emfield-mapper/model"
)

var (
	// ErrNoResult is returned by queries before any compute has finished.
	ErrNoResult = errors.New("no compute result available")
	// ErrUnknownBand is returned when the queried band is not in the result.
	ErrUnknownBand = errors.New("unknown band")
	// ErrOutsideRegion is returned when the queried point maps to no
	// in-region cell of the cached grid.
	ErrOutsideRegion = errors.New("point outside computed region")
	// ErrAltitudeMismatch is returned when the queried altitude differs
	// from the grid's evaluation altitude.
	ErrAltitudeMismatch = errors.New("altitude does not match computed grid")
)

// Contributor is one ranked emitter at a queried cell.
type Contributor struct {
	Rank            int     `json:"rank"`
	SourceIndex     int     `json:"source_index"`
	SourceID        string  `json:"source_id"`
	PowerDensityWm2 float64 `json:"power_density_w_m2"`
	Fraction        float64 `json:"fraction"`
}

// QueryResult is the answer to one point query, snapped to the nearest
// grid cell.
type QueryResult struct {
	Band               string        `json:"band"`
	CellLat            float64       `json:"cell_lat"`
	CellLon            float64       `json:"cell_lon"`
	AltM               float64       `json:"alt_m"`
	FieldStrengthDBuVm float64       `json:"field_strength_dbuv_m"`
	PowerDensityWm2    float64       `json:"power_density_w_m2"`
	Contributors       []Contributor `json:"contributors"`
	GeneratedAt        time.Time     `json:"generated_at"`
}

// Service wraps the engine with validation, result caching, logging,
// metrics, and tracing. Run overwrites the cached result; concurrent
// Run calls race on which result wins, which is acceptable for a
// latest-snapshot cache.
type Service struct {
	engine  *core.Engine
	clock   clockwork.Clock
	log     logging.Logger
	metrics *observability.ComputeCollector
	tracer  trace.Tracer

	mu   sync.RWMutex
	last *core.ComputeResult
}

// Option customises a Service.
type Option func(*Service)

// WithClock overrides the wall clock, primarily for tests.
func WithClock(clock clockwork.Clock) Option {
	return func(s *Service) { s.clock = clock }
}

// WithLogger attaches a logger.
func WithLogger(log logging.Logger) Option {
	return func(s *Service) { s.log = log }
}

// WithMetrics attaches a metrics collector.
func WithMetrics(m *observability.ComputeCollector) Option {
	return func(s *Service) { s.metrics = m }
}

// New builds a service around an engine with the given configuration.
func New(cfg core.EngineConfig, opts ...Option) *Service {
	s := &Service{
		engine: core.NewEngine(cfg),
		clock:  clockwork.NewRealClock(),
		log:    logging.Noop(),
		tracer: otel.Tracer("emfield/service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run validates the request, executes the pipeline, stamps the result,
// and caches it as the latest snapshot.
func (s *Service) Run(ctx context.Context, req *model.ComputeRequest) (*core.ComputeResult, error) {
	ctx, span := s.tracer.Start(ctx, "emfield.compute")
	defer span.End()

	start := s.clock.Now()

	req.ApplyDefaults()
	if err := req.Validate(); err != nil {
		s.observe("invalid", 0, 0, 0)
		s.log.Warn(ctx, "compute request rejected", logging.Err(err))
		return nil, err
	}

	res, err := s.engine.Compute(req)
	if err != nil {
		outcome := "error"
		switch {
		case errors.Is(err, core.ErrNoBands):
			outcome = "invalid"
		case errors.Is(err, core.ErrRegionTooLarge):
			outcome = "limit_region"
		case errors.Is(err, core.ErrGridTooLarge):
			outcome = "limit_grid"
		}
		s.observe(outcome, 0, 0, 0)
		s.log.Warn(ctx, "compute failed", logging.String("outcome", outcome), logging.Err(err))
		return nil, err
	}

	res.GeneratedAt = s.clock.Now()
	elapsed := res.GeneratedAt.Sub(start)

	s.mu.Lock()
	s.last = res
	s.mu.Unlock()

	span.SetAttributes(
		attribute.Int("emfield.bands", len(res.BandResults)),
		attribute.Int("emfield.sources_retained", len(res.SourceIDs)),
		attribute.Int("emfield.grid_points", res.Grid.NumCells()),
	)
	s.observe("ok", elapsed, res.Grid.NumCells(), len(res.SourceIDs))
	s.log.Info(ctx, "compute finished",
		logging.Int("bands", len(res.BandResults)),
		logging.Int("sources_retained", len(res.SourceIDs)),
		logging.Int("grid_points", res.Grid.NumCells()),
		logging.String("elapsed", elapsed.String()),
	)

	return res, nil
}

// Latest returns the cached result of the most recent successful Run,
// or nil when none exists yet.
func (s *Service) Latest() *core.ComputeResult {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.last
}

// QueryPoint answers a field-strength lookup at a geographic point
// against the latest cached result, snapping to the nearest grid cell.
func (s *Service) QueryPoint(ctx context.Context, lat, lon, altM float64, bandName string) (*QueryResult, error) {
	_, span := s.tracer.Start(ctx, "emfield.query",
		trace.WithAttributes(attribute.String("emfield.band", bandName)))
	defer span.End()

	res := s.Latest()
	if res == nil {
		s.metrics.ObserveQuery(false)
		return nil, ErrNoResult
	}

	band, ok := res.BandResults[bandName]
	if !ok {
		s.metrics.ObserveQuery(false)
		return nil, ErrUnknownBand
	}

	if math.Abs(altM-res.Grid.AltM) > 1e-3 {
		s.metrics.ObserveQuery(false)
		return nil, ErrAltitudeMismatch
	}

	i := nearestAxisIndex(res.Grid.LatAxis, lat)
	j := nearestAxisIndex(res.Grid.LonAxis, lon)
	cell := res.Grid.Index(i, j)
	if !res.Grid.Mask[cell] {
		s.metrics.ObserveQuery(false)
		return nil, ErrOutsideRegion
	}

	cellLat, cellLon := res.Grid.CellLatLon(cell)
	out := &QueryResult{
		Band:               bandName,
		CellLat:            cellLat,
		CellLon:            cellLon,
		AltM:               res.Grid.AltM,
		FieldStrengthDBuVm: band.FieldStrengthDBuVm[cell],
		PowerDensityWm2:    band.PowerDensityWm2[cell],
		GeneratedAt:        res.GeneratedAt,
	}
	if band.TopK != nil {
		for rank := 0; rank < band.TopK.K; rank++ {
			idx := band.TopK.Indices[rank][cell]
			if idx < 0 {
				continue
			}
			out.Contributors = append(out.Contributors, Contributor{
				Rank:            rank + 1,
				SourceIndex:     idx,
				SourceID:        res.SourceIDs[idx],
				PowerDensityWm2: band.TopK.Power[rank][cell],
				Fraction:        band.TopK.Fraction[rank][cell],
			})
		}
	}

	s.metrics.ObserveQuery(true)
	return out, nil
}

func (s *Service) observe(outcome string, d time.Duration, gridPoints, sources int) {
	s.metrics.ObserveCompute(outcome, d, gridPoints, sources)
}

// nearestAxisIndex snaps a coordinate to the closest axis sample. The
// snap is unconditional, even beyond the grid's extent; whether the
// resolved cell yields data is decided by the mask test alone.
func nearestAxisIndex(axis []float64, v float64) int {
	best := 0
	bestDist := math.Abs(v - axis[0])
	for i := 1; i < len(axis); i++ {
		if d := math.Abs(v - axis[i]); d < bestDist {
			best = i
			bestDist = d
		}
	}
	return best
}
