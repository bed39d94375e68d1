package model

import "fmt"

// Band defines one evaluation frequency band in MHz, with a reference
// bandwidth in kHz carried through for downstream consumers.
type Band struct {
	Name     string  `json:"name"`
	FMinMHz  float64 `json:"f_min_MHz"`
	FMaxMHz  float64 `json:"f_max_MHz"`
	RefBWkHz float64 `json:"ref_bw_kHz"`
}

// CenterFreqMHz is the midpoint of the band bounds.
func (b *Band) CenterFreqMHz() float64 {
	return 0.5 * (b.FMinMHz + b.FMaxMHz)
}

func (b *Band) applyDefaults() {
	if b.RefBWkHz == 0 {
		b.RefBWkHz = 1000
	}
}

// Validate checks band bounds.
func (b *Band) Validate() error {
	if b.Name == "" {
		return fmt.Errorf("band: name must not be empty")
	}
	if b.FMinMHz <= 0 {
		return fmt.Errorf("band %s: f_min_MHz %g must be > 0", b.Name, b.FMinMHz)
	}
	if b.FMaxMHz <= b.FMinMHz {
		return fmt.Errorf("band %s: f_max_MHz %g must be greater than f_min_MHz %g", b.Name, b.FMaxMHz, b.FMinMHz)
	}
	if b.RefBWkHz <= 0 {
		return fmt.Errorf("band %s: ref_bw_kHz %g must be > 0", b.Name, b.RefBWkHz)
	}
	return nil
}
