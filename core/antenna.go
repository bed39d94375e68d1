// core/antenna.go
package core

import (
	"math"

	"github.com/signalsfoundry/emfield-mapper/model"
)

// gaussianBeamK is 4·ln2, the exponent coefficient that makes the
// separable Gaussian approximation hit exactly -3.01 dB at the
// half-power beamwidth offset.
var gaussianBeamK = 4.0 * math.Ln2

// MainlobeGainDBi evaluates the separable Gaussian mainlobe
// approximation. Each axis is evaluated independently against its
// half-power beamwidth and the smaller (more conservative) of the two
// one-dimensional gains wins.
func MainlobeGainDBi(deltaAzDeg, deltaElDeg, hpbwDeg, vpbwDeg, gPeakDBi float64) float64 {
	logE := 10.0 * math.Log10(math.E)
	azRatio := deltaAzDeg / math.Max(hpbwDeg, 1e-6)
	elRatio := deltaElDeg / math.Max(vpbwDeg, 1e-6)
	gh := gPeakDBi - logE*gaussianBeamK*azRatio*azRatio
	gv := gPeakDBi - logE*gaussianBeamK*elRatio*elRatio
	return math.Min(gh, gv)
}

// SidelobeGainDBi returns the guaranteed sidelobe floor for a template
// at an absolute off-axis angle. The template set is a closed
// enumeration; an unknown name falls back to the MIL-STD-20 flat
// -20 dBi floor.
func SidelobeGainDBi(template model.SidelobeTemplate, offAxisDeg float64) float64 {
	abs := math.Abs(offAxisDeg)
	switch template {
	case model.SidelobeMILSTD20:
		return -20.0
	case model.SidelobeRCS13:
		if abs < 10.0 {
			return -13.0
		}
		return -20.0
	case model.SidelobeRadarNarrow25:
		if abs < 10.0 {
			return -20.0
		}
		return -25.0
	case model.SidelobeCommOmniBack:
		return -10.0
	default:
		return -20.0
	}
}

// InScanCoverage reports whether a bearing falls inside the antenna's
// scan envelope. Fixed-beam ("none") antennas count as always covered;
// directionality is left to the mainlobe/sidelobe evaluation. Sector
// scan compares the signed shortest angular difference against half
// the sector width, so coverage wraps correctly across 0/360.
func InScanCoverage(bearingDeg float64, antenna *model.Antenna) bool {
	switch antenna.Scan.Mode {
	case model.ScanNone, model.ScanCircular:
		return true
	case model.ScanSector:
		halfSector := math.Max(antenna.Scan.SectorDeg*0.5, 0.0)
		return math.Abs(AngularDiffDeg(bearingDeg, antenna.PointingAzDeg)) <= halfSector
	default:
		return false
	}
}

// PeakGainDBi combines mainlobe, sidelobe floor, and scan gating into
// the effective peak gain toward one target direction. Sidelobes are
// physically present in every direction, so outside scan coverage the
// sidelobe floor still applies; inside coverage the stronger of
// mainlobe and sidelobe wins.
func PeakGainDBi(bearingDeg, elevDeg float64, antenna *model.Antenna, gPeakDBi float64) float64 {
	offAz := AngularDiffDeg(bearingDeg, antenna.PointingAzDeg)
	offEl := elevDeg - antenna.PointingElDeg

	sl := SidelobeGainDBi(antenna.Pattern.SidelobeTemplate, offAz)
	if !InScanCoverage(bearingDeg, antenna) {
		return sl
	}

	mb := MainlobeGainDBi(offAz, offEl, antenna.Pattern.HPBWDeg, antenna.Pattern.VPBWDeg, gPeakDBi)
	return math.Max(mb, sl)
}
