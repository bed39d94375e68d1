// core/propagation.go
package core

import (
	"math"

	"github.com/signalsfoundry/emfield-mapper/model"
)

const speedOfLightMPerS = 299_792_458.0

// Empirical attenuation coefficients (dB/km scale factors). The gas
// baseline matches clear dry air below X-band; the rain and fog terms
// follow the usual power-law frequency scaling.
const (
	autoGasBaselineDBPerKm = 0.004
	minGasBaselineDBPerKm  = 0.001
	rainCoeff              = 0.0001
	fogCoeff               = 0.0002
)

// FSPLdB is the Friis free-space path loss in dB for a frequency in
// MHz and a slant range in km. Both arguments are floored at a tiny
// positive value so log10 stays defined at zero range/frequency.
func FSPLdB(fMHz, rKm float64) float64 {
	return 32.45 + 20.0*math.Log10(math.Max(fMHz, 1e-6)) + 20.0*math.Log10(math.Max(rKm, 1e-6))
}

// TwoRayFlatLossDB models interference between the direct ray and one
// reflected off a perfectly conducting flat ground (reflection
// coefficient -1). Heights are floored at 1 m to avoid degenerate
// grazing geometry. Below 10 wavelengths of horizontal separation the
// interference term is unreliable and the result falls back to plain
// FSPL at the direct distance.
func TwoRayFlatLossDB(fMHz, horizontalKm, txAltM, rxAltM float64) float64 {
	wavelengthM := speedOfLightMPerS / (math.Max(fMHz, 1e-6) * 1e6)

	horizontalM := math.Max(horizontalKm, 1e-6) * 1000.0
	ht := math.Max(txAltM, 1.0)
	hr := math.Max(rxAltM, 1.0)

	directM := math.Sqrt(horizontalM*horizontalM + (ht-hr)*(ht-hr))
	reflectedM := math.Sqrt(horizontalM*horizontalM + (ht+hr)*(ht+hr))

	baseFSPL := FSPLdB(fMHz, directM/1000.0)
	if horizontalM < 10.0*wavelengthM {
		return baseFSPL
	}

	phase := 2.0 * math.Pi * (reflectedM - directM) / math.Max(wavelengthM, 1e-9)

	// |1 - e^{-j phase}| for the -1 reflection coefficient.
	interferenceMag := math.Hypot(1.0-math.Cos(phase), math.Sin(phase))
	interferenceMag = math.Max(interferenceMag, 1e-6)

	// Negative when the rays combine constructively.
	interferenceLossDB := -20.0 * math.Log10(interferenceMag)
	return baseFSPL + interferenceLossDB
}

// AtmosphericLossDBPerKm accumulates the per-kilometre gaseous, rain,
// and fog attenuation. gasLossDBPerKm nil selects the empirical auto
// baseline; an explicit override is floored at a small positive value.
func AtmosphericLossDBPerKm(fMHz float64, atmosphere *model.Atmosphere) float64 {
	freqGHz := math.Max(fMHz, 1e-6) / 1000.0

	gasBase := autoGasBaselineDBPerKm
	if atmosphere.GasLossDBPerKm != nil {
		gasBase = math.Max(minGasBaselineDBPerKm, *atmosphere.GasLossDBPerKm)
	}

	gasLoss := gasBase * (1.0 + 0.1*math.Pow(freqGHz, 1.2))
	rainLoss := rainCoeff * atmosphere.RainRateMmph * math.Pow(freqGHz, 0.8)
	fogLoss := fogCoeff * atmosphere.FogLWCgm3 * freqGHz * freqGHz
	return gasLoss + rainLoss + fogLoss
}

// TotalExtraLossDB multiplies the per-km atmospheric loss by the path
// length.
func TotalExtraLossDB(fMHz, rKm float64, atmosphere *model.Atmosphere) float64 {
	return AtmosphericLossDBPerKm(fMHz, atmosphere) * math.Max(rKm, 0.0)
}

// AdditionalLossDB is the total loss relative to the FSPL baseline the
// power combiner already applies through geometric spreading. For
// free-space propagation it is the atmospheric term alone; for two-ray
// it adds the interference correction (two-ray minus FSPL at the same
// direct distance) so geometry is never double-counted.
func AdditionalLossDB(fMHz, slantKm, horizontalKm, txAltM, rxAltM float64, env *model.Environment) float64 {
	baseAdjustment := 0.0
	if env.Propagation.Model == model.PropagationTwoRayFlat {
		baseAdjustment = TwoRayFlatLossDB(fMHz, horizontalKm, txAltM, rxAltM) - FSPLdB(fMHz, slantKm)
	}
	return baseAdjustment + TotalExtraLossDB(fMHz, slantKm, &env.Atmosphere)
}
