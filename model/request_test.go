package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequestMap() map[string]any {
	return map[string]any{
		"region": map[string]any{
			"polygon": []any{
				map[string]any{"lat": 34.0, "lon": 118.0},
				map[string]any{"lat": 34.0, "lon": 118.2},
				map[string]any{"lat": 33.8, "lon": 118.2},
				map[string]any{"lat": 33.8, "lon": 118.0},
			},
		},
		"grid": map[string]any{"resolution_deg": 0.05, "alt_m": 0.0},
		"bands": []any{
			map[string]any{"name": "S", "f_min_MHz": 2000.0, "f_max_MHz": 4000.0},
		},
		"sources": []any{
			map[string]any{
				"id":   "radar-1",
				"type": "radar",
				"position": map[string]any{
					"lat": 33.9, "lon": 118.1, "alt_m": 50.0,
				},
				"emission": map[string]any{
					"eirp_dBm":        90.0,
					"center_freq_MHz": 3200.0,
					"bandwidth_MHz":   2.0,
					"polarization":    "H",
				},
				"antenna": map[string]any{
					"pattern": map[string]any{
						"hpbw_deg": 2.0,
						"vpbw_deg": 4.0,
					},
					"scan": map[string]any{"mode": "circular", "rpm": 12.0},
				},
			},
		},
	}
}

func TestDecodeRequest(t *testing.T) {
	t.Run("valid request with defaults", func(t *testing.T) {
		req, err := DecodeRequest(validRequestMap())
		require.NoError(t, err)

		assert.Equal(t, 0.05, req.Grid.ResolutionDeg)
		assert.Equal(t, 200.0, req.InfluenceBufferKm)
		assert.Equal(t, PropagationFreeSpace, req.Environment.Propagation.Model)
		assert.Nil(t, req.Environment.Atmosphere.GasLossDBPerKm)
		assert.InDelta(t, 4.0/3.0, req.Environment.Earth.KFactor, 1e-12)
		assert.Equal(t, DefaultLimits(), req.Limits)
		assert.Equal(t, 1000.0, req.Bands[0].RefBWkHz)
		assert.Equal(t, SidelobeMILSTD20, req.Sources[0].Antenna.Pattern.SidelobeTemplate)
		assert.Equal(t, 1.0, req.Sources[0].Emission.DutyCycle)
	})

	t.Run("legacy nested pointing is flattened", func(t *testing.T) {
		raw := validRequestMap()
		antenna := raw["sources"].([]any)[0].(map[string]any)["antenna"].(map[string]any)
		antenna["pointing"] = map[string]any{"az_deg": 45.0, "el_deg": 3.0}

		req, err := DecodeRequest(raw)
		require.NoError(t, err)
		assert.Equal(t, 45.0, req.Sources[0].Antenna.PointingAzDeg)
		assert.Equal(t, 3.0, req.Sources[0].Antenna.PointingElDeg)
	})

	t.Run("explicit pointing wins over legacy shape", func(t *testing.T) {
		raw := validRequestMap()
		antenna := raw["sources"].([]any)[0].(map[string]any)["antenna"].(map[string]any)
		antenna["pointing_az_deg"] = 90.0
		antenna["pointing"] = map[string]any{"az_deg": 45.0}

		req, err := DecodeRequest(raw)
		require.NoError(t, err)
		assert.Equal(t, 90.0, req.Sources[0].Antenna.PointingAzDeg)
	})

	t.Run("gas_loss accepts auto and numbers", func(t *testing.T) {
		raw := validRequestMap()
		raw["environment"] = map[string]any{
			"atmosphere": map[string]any{"gas_loss": "auto"},
		}
		req, err := DecodeRequest(raw)
		require.NoError(t, err)
		assert.Nil(t, req.Environment.Atmosphere.GasLossDBPerKm)

		raw["environment"] = map[string]any{
			"atmosphere": map[string]any{"gas_loss": 0.012},
		}
		req, err = DecodeRequest(raw)
		require.NoError(t, err)
		require.NotNil(t, req.Environment.Atmosphere.GasLossDBPerKm)
		assert.Equal(t, 0.012, *req.Environment.Atmosphere.GasLossDBPerKm)
	})

	t.Run("gas_loss rejects other strings", func(t *testing.T) {
		raw := validRequestMap()
		raw["environment"] = map[string]any{
			"atmosphere": map[string]any{"gas_loss": "heavy"},
		}
		_, err := DecodeRequest(raw)
		assert.Error(t, err)
	})

	t.Run("polygon with two vertices fails", func(t *testing.T) {
		raw := validRequestMap()
		raw["region"] = map[string]any{
			"polygon": []any{
				map[string]any{"lat": 34.0, "lon": 118.0},
				map[string]any{"lat": 33.8, "lon": 118.2},
			},
		}
		_, err := DecodeRequest(raw)
		assert.ErrorContains(t, err, "at least 3 vertices")
	})

	t.Run("inverted band bounds fail", func(t *testing.T) {
		raw := validRequestMap()
		raw["bands"] = []any{
			map[string]any{"name": "S", "f_min_MHz": 4000.0, "f_max_MHz": 2000.0},
		}
		_, err := DecodeRequest(raw)
		assert.ErrorContains(t, err, "f_max_MHz")
	})

	t.Run("limits above the ceilings fail", func(t *testing.T) {
		raw := validRequestMap()
		raw["limits"] = map[string]any{
			"max_sources":     50,
			"max_region_km":   5000.0,
			"max_grid_points": 200000,
		}
		_, err := DecodeRequest(raw)
		assert.ErrorContains(t, err, "max_region_km")
	})

	t.Run("source count above max_sources fails", func(t *testing.T) {
		raw := validRequestMap()
		raw["limits"] = map[string]any{
			"max_sources":     1,
			"max_region_km":   1000.0,
			"max_grid_points": 200000,
		}
		src := raw["sources"].([]any)[0].(map[string]any)
		second := map[string]any{}
		for k, v := range src {
			second[k] = v
		}
		second["id"] = "radar-2"
		raw["sources"] = []any{src, second}

		_, err := DecodeRequest(raw)
		assert.ErrorContains(t, err, "max_sources")
	})
}

func TestRegionNormalizeWinding(t *testing.T) {
	// Counter-clockwise input: walked west-to-east along the south edge.
	ccw := Region{Polygon: []LatLon{
		{Lat: 33.8, Lon: 118.0},
		{Lat: 33.8, Lon: 118.2},
		{Lat: 34.0, Lon: 118.2},
		{Lat: 34.0, Lon: 118.0},
	}}
	cw := Region{Polygon: []LatLon{
		{Lat: 34.0, Lon: 118.0},
		{Lat: 34.0, Lon: 118.2},
		{Lat: 33.8, Lon: 118.2},
		{Lat: 33.8, Lon: 118.0},
	}}

	ccw.NormalizeWinding()
	cw.NormalizeWinding()

	// Both orderings collapse onto the same canonical winding.
	assert.Equal(t, shoelace(cw.Polygon) <= 0, true)
	assert.Equal(t, shoelace(ccw.Polygon) <= 0, true)
}

func shoelace(poly []LatLon) float64 {
	area := 0.0
	for i, cur := range poly {
		nxt := poly[(i+1)%len(poly)]
		area += cur.Lon*nxt.Lat - nxt.Lon*cur.Lat
	}
	return area
}

func TestAtmosphereJSONRoundTrip(t *testing.T) {
	t.Run("auto mode", func(t *testing.T) {
		var a Atmosphere
		require.NoError(t, a.UnmarshalJSON([]byte(`{"gas_loss":"auto","rain_rate_mmph":5}`)))
		assert.Nil(t, a.GasLossDBPerKm)
		assert.Equal(t, 5.0, a.RainRateMmph)
	})

	t.Run("explicit override", func(t *testing.T) {
		var a Atmosphere
		require.NoError(t, a.UnmarshalJSON([]byte(`{"gas_loss":0.02}`)))
		require.NotNil(t, a.GasLossDBPerKm)
		assert.Equal(t, 0.02, *a.GasLossDBPerKm)
	})
}
