package model

import (
	"encoding/json"
	"fmt"
)

// PropagationModel selects the loss model applied on top of free-space
// spreading.
type PropagationModel string

const (
	PropagationFreeSpace  PropagationModel = "free_space"
	PropagationTwoRayFlat PropagationModel = "two_ray_flat"
)

// Propagation wraps the model selector so the JSON shape stays nested,
// matching the request contract.
type Propagation struct {
	Model PropagationModel `json:"model"`
}

// Atmosphere holds the attenuation inputs. GasLossDBPerKm is nil in
// "auto" mode, where the engine applies its empirical frequency-scaled
// baseline; a non-nil value is a fixed dB/km override.
type Atmosphere struct {
	GasLossDBPerKm *float64 `json:"gas_loss"`
	RainRateMmph   float64  `json:"rain_rate_mmph"`
	FogLWCgm3      float64  `json:"fog_lwc_gm3"`
}

// UnmarshalJSON accepts either the literal string "auto" or a number for
// the gas_loss field.
func (a *Atmosphere) UnmarshalJSON(data []byte) error {
	var raw struct {
		GasLoss      json.RawMessage `json:"gas_loss"`
		RainRateMmph *float64        `json:"rain_rate_mmph"`
		FogLWCgm3    *float64        `json:"fog_lwc_gm3"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw.RainRateMmph != nil {
		a.RainRateMmph = *raw.RainRateMmph
	}
	if raw.FogLWCgm3 != nil {
		a.FogLWCgm3 = *raw.FogLWCgm3
	}
	gas, err := parseGasLoss(raw.GasLoss)
	if err != nil {
		return err
	}
	a.GasLossDBPerKm = gas
	return nil
}

// MarshalJSON writes "auto" when no explicit gas loss is set.
func (a Atmosphere) MarshalJSON() ([]byte, error) {
	var gas any = "auto"
	if a.GasLossDBPerKm != nil {
		gas = *a.GasLossDBPerKm
	}
	return json.Marshal(map[string]any{
		"gas_loss":       gas,
		"rain_rate_mmph": a.RainRateMmph,
		"fog_lwc_gm3":    a.FogLWCgm3,
	})
}

func parseGasLoss(raw json.RawMessage) (*float64, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if s == "auto" {
			return nil, nil
		}
		return nil, fmt.Errorf("atmosphere: gas_loss must be \"auto\" or a number, got %q", s)
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("atmosphere: invalid gas_loss: %w", err)
	}
	return &v, nil
}

// Validate rejects negative weather inputs.
func (a *Atmosphere) Validate() error {
	if a.RainRateMmph < 0 {
		return fmt.Errorf("atmosphere: rain_rate_mmph %g must be >= 0", a.RainRateMmph)
	}
	if a.FogLWCgm3 < 0 {
		return fmt.Errorf("atmosphere: fog_lwc_gm3 %g must be >= 0", a.FogLWCgm3)
	}
	if a.GasLossDBPerKm != nil && *a.GasLossDBPerKm < 0 {
		return fmt.Errorf("atmosphere: gas_loss %g must be >= 0", *a.GasLossDBPerKm)
	}
	return nil
}

// Earth parameterises the effective-radius refraction approximation.
type Earth struct {
	KFactor float64 `json:"k_factor"`
}

// Environment bundles the propagation selector, atmosphere, and Earth
// curvature model for one request.
type Environment struct {
	Propagation Propagation `json:"propagation"`
	Atmosphere  Atmosphere  `json:"atmosphere"`
	Earth       Earth       `json:"earth"`
}

// DefaultEnvironment returns free-space propagation, clear air with
// automatic gas loss, and the conventional 4/3 effective-radius factor.
func DefaultEnvironment() Environment {
	return Environment{
		Propagation: Propagation{Model: PropagationFreeSpace},
		Atmosphere:  Atmosphere{},
		Earth:       Earth{KFactor: 4.0 / 3.0},
	}
}

// Validate checks the selector and parameter ranges.
func (e *Environment) Validate() error {
	switch e.Propagation.Model {
	case PropagationFreeSpace, PropagationTwoRayFlat:
	default:
		return fmt.Errorf("environment: unknown propagation model %q", e.Propagation.Model)
	}
	if err := e.Atmosphere.Validate(); err != nil {
		return err
	}
	if e.Earth.KFactor <= 0 {
		return fmt.Errorf("environment: k_factor %g must be > 0", e.Earth.KFactor)
	}
	return nil
}
