package model

import "fmt"

// SidelobeTemplate names one of the built-in sidelobe floor curves.
// The set is closed; core/antenna.go matches on it exhaustively.
type SidelobeTemplate string

const (
	SidelobeMILSTD20      SidelobeTemplate = "MIL-STD-20"
	SidelobeRCS13         SidelobeTemplate = "RCS-13"
	SidelobeRadarNarrow25 SidelobeTemplate = "Radar-Narrow-25"
	SidelobeCommOmniBack  SidelobeTemplate = "Comm-Omni-Back-10"
)

// AntennaPattern is the simplified directional pattern description:
// half-power beamwidths per axis plus a named sidelobe template.
type AntennaPattern struct {
	Type             string           `json:"type"`
	HPBWDeg          float64          `json:"hpbw_deg"`
	VPBWDeg          float64          `json:"vpbw_deg"`
	SidelobeTemplate SidelobeTemplate `json:"sidelobe_template"`
}

// ScanMode describes antenna scan coverage, not pointing: "none" and
// "circular" cover every bearing, "sector" covers bearings within half
// the sector width of the pointing azimuth.
type ScanMode string

const (
	ScanNone     ScanMode = "none"
	ScanCircular ScanMode = "circular"
	ScanSector   ScanMode = "sector"
)

// ScanSpec captures scan behaviour. RPM is recorded for future
// time-resolved evaluation and is not consumed by the peak model.
type ScanSpec struct {
	Mode      ScanMode `json:"mode"`
	RPM       float64  `json:"rpm"`
	SectorDeg float64  `json:"sector_deg"`
}

// Antenna is the complete antenna configuration. Pointing is the
// reference direction gain is computed relative to; scan describes
// which bearings the mainlobe can be engaged toward.
type Antenna struct {
	Pattern       AntennaPattern `json:"pattern"`
	PointingAzDeg float64        `json:"pointing_az_deg"`
	PointingElDeg float64        `json:"pointing_el_deg"`
	Scan          ScanSpec       `json:"scan"`
}

// Polarization tags the emission. It is recorded in results but not
// consumed by any loss formula.
type Polarization string

const (
	PolarizationH    Polarization = "H"
	PolarizationV    Polarization = "V"
	PolarizationRHCP Polarization = "RHCP"
	PolarizationLHCP Polarization = "LHCP"
)

// Emission holds the radiated-power description of a source.
type Emission struct {
	EIRPdBm       float64      `json:"eirp_dBm"`
	CenterFreqMHz float64      `json:"center_freq_MHz"`
	BandwidthMHz  float64      `json:"bandwidth_MHz"`
	Polarization  Polarization `json:"polarization"`
	DutyCycle     float64      `json:"duty_cycle"`
}

// SourceType is a coarse category tag.
type SourceType string

const (
	SourceRadar  SourceType = "radar"
	SourceComm   SourceType = "comm"
	SourceJammer SourceType = "jammer"
	SourceOther  SourceType = "other"
)

// SourcePosition is a geodetic position: lat/lon in degrees, altitude
// in metres.
type SourcePosition struct {
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	AltM float64 `json:"alt_m"`
}

// Source is one emitter. It is owned by the request and read-only
// during compute.
type Source struct {
	ID       string         `json:"id"`
	Type     SourceType     `json:"type"`
	Position SourcePosition `json:"position"`
	Emission Emission       `json:"emission"`
	Antenna  Antenna        `json:"antenna"`
}

func (s *Source) applyDefaults() {
	if s.Type == "" {
		s.Type = SourceOther
	}
	if s.Antenna.Pattern.Type == "" {
		s.Antenna.Pattern.Type = "simplified_directional"
	}
	if s.Antenna.Pattern.SidelobeTemplate == "" {
		s.Antenna.Pattern.SidelobeTemplate = SidelobeMILSTD20
	}
	if s.Antenna.Scan.Mode == "" {
		s.Antenna.Scan.Mode = ScanNone
	}
	if s.Emission.DutyCycle == 0 {
		s.Emission.DutyCycle = 1
	}
}

// Validate checks one source's invariants.
func (s *Source) Validate() error {
	if s.ID == "" {
		return fmt.Errorf("source: id must not be empty")
	}
	switch s.Type {
	case SourceRadar, SourceComm, SourceJammer, SourceOther:
	default:
		return fmt.Errorf("source %s: unknown type %q", s.ID, s.Type)
	}
	if s.Position.Lat < -90 || s.Position.Lat > 90 {
		return fmt.Errorf("source %s: latitude %g out of [-90, 90]", s.ID, s.Position.Lat)
	}
	if s.Position.Lon < -180 || s.Position.Lon > 180 {
		return fmt.Errorf("source %s: longitude %g out of [-180, 180]", s.ID, s.Position.Lon)
	}
	if s.Emission.CenterFreqMHz <= 0 {
		return fmt.Errorf("source %s: center_freq_MHz %g must be > 0", s.ID, s.Emission.CenterFreqMHz)
	}
	if s.Emission.BandwidthMHz <= 0 {
		return fmt.Errorf("source %s: bandwidth_MHz %g must be > 0", s.ID, s.Emission.BandwidthMHz)
	}
	switch s.Emission.Polarization {
	case PolarizationH, PolarizationV, PolarizationRHCP, PolarizationLHCP:
	default:
		return fmt.Errorf("source %s: unknown polarization %q", s.ID, s.Emission.Polarization)
	}
	if s.Emission.DutyCycle < 0 || s.Emission.DutyCycle > 1 {
		return fmt.Errorf("source %s: duty_cycle %g out of [0, 1]", s.ID, s.Emission.DutyCycle)
	}
	if s.Antenna.Pattern.HPBWDeg <= 0 {
		return fmt.Errorf("source %s: hpbw_deg %g must be > 0", s.ID, s.Antenna.Pattern.HPBWDeg)
	}
	if s.Antenna.Pattern.VPBWDeg <= 0 {
		return fmt.Errorf("source %s: vpbw_deg %g must be > 0", s.ID, s.Antenna.Pattern.VPBWDeg)
	}
	switch s.Antenna.Pattern.SidelobeTemplate {
	case SidelobeMILSTD20, SidelobeRCS13, SidelobeRadarNarrow25, SidelobeCommOmniBack:
	default:
		return fmt.Errorf("source %s: unknown sidelobe_template %q", s.ID, s.Antenna.Pattern.SidelobeTemplate)
	}
	switch s.Antenna.Scan.Mode {
	case ScanNone, ScanCircular, ScanSector:
	default:
		return fmt.Errorf("source %s: unknown scan mode %q", s.ID, s.Antenna.Scan.Mode)
	}
	if s.Antenna.Scan.RPM < 0 {
		return fmt.Errorf("source %s: scan rpm %g must be >= 0", s.ID, s.Antenna.Scan.RPM)
	}
	if s.Antenna.Scan.SectorDeg < 0 || s.Antenna.Scan.SectorDeg > 360 {
		return fmt.Errorf("source %s: sector_deg %g out of [0, 360]", s.ID, s.Antenna.Scan.SectorDeg)
	}
	return nil
}
