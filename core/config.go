// core/config.go
package core

// EngineConfig carries the numerical knobs that are deployment
// configuration rather than request payload.
type EngineConfig struct {
	// TopK is how many dominant contributors to retain per cell.
	TopK int

	// ThresholdDBuVm invalidates cells whose aggregate field
	// strength falls below it (dBµV/m).
	ThresholdDBuVm float64
}

// DefaultEngineConfig returns the standard top-3 attribution with a
// 40 dBµV/m detection threshold.
func DefaultEngineConfig() EngineConfig {
	return EngineConfig{
		TopK:           3,
		ThresholdDBuVm: 40.0,
	}
}
