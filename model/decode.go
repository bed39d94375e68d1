package model

import (
	"encoding/json"
	"fmt"
	"math"
	"reflect"

	"github.com/mitchellh/mapstructure"
)

// DecodeRequest builds a validated ComputeRequest from a decoded JSON
// object. It accepts the legacy nested antenna "pointing" sub-structure
// and flattens it into pointing_az_deg / pointing_el_deg before
// decoding, so older request payloads keep working.
func DecodeRequest(raw map[string]any) (*ComputeRequest, error) {
	normalizeLegacyPointing(raw)

	req := NewComputeRequest()
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName: "json",
		Result:  &req,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			gasLossHook,
			integralFloatHook,
		),
	})
	if err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}

	req.ApplyDefaults()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	return &req, nil
}

// DecodeRequestJSON unmarshals a JSON payload and runs DecodeRequest.
func DecodeRequestJSON(data []byte) (*ComputeRequest, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode request: %w", err)
	}
	return DecodeRequest(raw)
}

func normalizeLegacyPointing(raw map[string]any) {
	sources, ok := raw["sources"].([]any)
	if !ok {
		return
	}
	for _, s := range sources {
		src, ok := s.(map[string]any)
		if !ok {
			continue
		}
		antenna, ok := src["antenna"].(map[string]any)
		if !ok {
			continue
		}
		pointing, ok := antenna["pointing"].(map[string]any)
		if !ok {
			continue
		}
		if _, set := antenna["pointing_az_deg"]; !set {
			if az, ok := pointing["az_deg"]; ok {
				antenna["pointing_az_deg"] = az
			}
		}
		if _, set := antenna["pointing_el_deg"]; !set {
			if el, ok := pointing["el_deg"]; ok {
				antenna["pointing_el_deg"] = el
			}
		}
		delete(antenna, "pointing")
	}
}

// gasLossHook maps the "auto"/number union onto *float64: the string
// "auto" decodes to nil, anything else must be numeric.
func gasLossHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to != reflect.TypeOf((*float64)(nil)) {
		return data, nil
	}
	if s, ok := data.(string); ok {
		if s == "auto" {
			return (*float64)(nil), nil
		}
		return nil, fmt.Errorf("gas_loss must be \"auto\" or a number, got %q", s)
	}
	return data, nil
}

// integralFloatHook lets whole JSON numbers populate int fields, since
// encoding/json decodes every number in a map as float64.
func integralFloatHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.Float64 || to.Kind() != reflect.Int {
		return data, nil
	}
	f := data.(float64)
	if f != math.Trunc(f) {
		return nil, fmt.Errorf("expected integer, got %g", f)
	}
	return int(f), nil
}
