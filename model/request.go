package model

import "fmt"

// Hard ceilings on the workload guard itself. A request may lower the
// limits but never raise them past these.
const (
	MaxSourcesCeiling    = 50
	MaxRegionKmCeiling   = 1000.0
	MaxGridPointsCeiling = 200000
)

// GridSpec describes the sampling mesh: angular resolution in degrees
// and the observation altitude in metres.
type GridSpec struct {
	ResolutionDeg float64 `json:"resolution_deg"`
	AltM          float64 `json:"alt_m"`
}

// Validate checks the resolution.
func (g *GridSpec) Validate() error {
	if g.ResolutionDeg <= 0 {
		return fmt.Errorf("grid: resolution_deg %g must be > 0", g.ResolutionDeg)
	}
	return nil
}

// Limits bounds the workload one request may impose: source count,
// region extent, and realized grid point count.
type Limits struct {
	MaxSources    int     `json:"max_sources"`
	MaxRegionKm   float64 `json:"max_region_km"`
	MaxGridPoints int     `json:"max_grid_points"`
}

// DefaultLimits returns the ceiling values.
func DefaultLimits() Limits {
	return Limits{
		MaxSources:    MaxSourcesCeiling,
		MaxRegionKm:   MaxRegionKmCeiling,
		MaxGridPoints: MaxGridPointsCeiling,
	}
}

// Validate rejects non-positive limits and values above the ceilings.
func (l *Limits) Validate() error {
	if l.MaxSources <= 0 {
		return fmt.Errorf("limits: max_sources %d must be > 0", l.MaxSources)
	}
	if l.MaxSources > MaxSourcesCeiling {
		return fmt.Errorf("limits: max_sources %d cannot exceed %d", l.MaxSources, MaxSourcesCeiling)
	}
	if l.MaxRegionKm <= 0 {
		return fmt.Errorf("limits: max_region_km %g must be > 0", l.MaxRegionKm)
	}
	if l.MaxRegionKm > MaxRegionKmCeiling {
		return fmt.Errorf("limits: max_region_km %g cannot exceed %g", l.MaxRegionKm, MaxRegionKmCeiling)
	}
	if l.MaxGridPoints <= 0 {
		return fmt.Errorf("limits: max_grid_points %d must be > 0", l.MaxGridPoints)
	}
	if l.MaxGridPoints > MaxGridPointsCeiling {
		return fmt.Errorf("limits: max_grid_points %d cannot exceed %d", l.MaxGridPoints, MaxGridPointsCeiling)
	}
	return nil
}

// ComputeRequest is the full request payload accepted by the CLI and
// the HTTP surface. Units throughout: degrees, metres for altitude,
// km for distances, MHz for frequency, dBm for power.
type ComputeRequest struct {
	Region            Region      `json:"region"`
	Grid              GridSpec    `json:"grid"`
	InfluenceBufferKm float64     `json:"influence_buffer_km"`
	Environment       Environment `json:"environment"`
	Bands             []Band      `json:"bands"`
	Metric            string      `json:"metric"`
	CombineSources    string      `json:"combine_sources"`
	TemporalAgg       string      `json:"temporal_agg"`
	Limits            Limits      `json:"limits"`
	Sources           []Source    `json:"sources"`
}

// NewComputeRequest returns a request pre-filled with defaults, ready
// for JSON or map decoding on top. Absent fields keep their defaults.
func NewComputeRequest() ComputeRequest {
	return ComputeRequest{
		Grid:              GridSpec{ResolutionDeg: 0.01},
		InfluenceBufferKm: 200,
		Environment:       DefaultEnvironment(),
		Metric:            "E_field_dBuV_per_m",
		CombineSources:    "power_sum",
		TemporalAgg:       "peak",
		Limits:            DefaultLimits(),
	}
}

// ApplyDefaults fills element-level defaults that decoding cannot
// pre-seed (per-band and per-source fields), and normalizes winding.
func (r *ComputeRequest) ApplyDefaults() {
	if r.Environment.Earth.KFactor == 0 {
		r.Environment.Earth.KFactor = 4.0 / 3.0
	}
	if r.Environment.Propagation.Model == "" {
		r.Environment.Propagation.Model = PropagationFreeSpace
	}
	for i := range r.Bands {
		r.Bands[i].applyDefaults()
	}
	for i := range r.Sources {
		r.Sources[i].applyDefaults()
	}
	if len(r.Polygon()) >= 3 {
		r.Region.NormalizeWinding()
	}
}

// Polygon is a convenience accessor for the region vertices.
func (r *ComputeRequest) Polygon() []LatLon { return r.Region.Polygon }

// Validate checks every invariant the core assumes. It does not check
// the workload limits against the realized grid; that is the engine's
// pre-flight responsibility since it depends on grid construction.
func (r *ComputeRequest) Validate() error {
	if err := r.Region.Validate(); err != nil {
		return err
	}
	if err := r.Grid.Validate(); err != nil {
		return err
	}
	if r.InfluenceBufferKm < 0 {
		return fmt.Errorf("request: influence_buffer_km %g must be >= 0", r.InfluenceBufferKm)
	}
	if err := r.Environment.Validate(); err != nil {
		return err
	}
	if r.Metric != "E_field_dBuV_per_m" {
		return fmt.Errorf("request: unsupported metric %q", r.Metric)
	}
	if r.CombineSources != "power_sum" {
		return fmt.Errorf("request: unsupported combine_sources %q", r.CombineSources)
	}
	if r.TemporalAgg != "peak" {
		return fmt.Errorf("request: unsupported temporal_agg %q", r.TemporalAgg)
	}
	if err := r.Limits.Validate(); err != nil {
		return err
	}
	seen := make(map[string]struct{}, len(r.Bands))
	for i := range r.Bands {
		if err := r.Bands[i].Validate(); err != nil {
			return err
		}
		if _, dup := seen[r.Bands[i].Name]; dup {
			return fmt.Errorf("request: duplicate band name %q", r.Bands[i].Name)
		}
		seen[r.Bands[i].Name] = struct{}{}
	}
	if len(r.Sources) > r.Limits.MaxSources {
		return fmt.Errorf("request: %d sources exceed max_sources %d", len(r.Sources), r.Limits.MaxSources)
	}
	for i := range r.Sources {
		if err := r.Sources[i].Validate(); err != nil {
			return err
		}
	}
	return nil
}
