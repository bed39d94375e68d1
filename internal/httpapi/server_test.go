package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalsfoundry/emfield-mapper/core"
	"github.com/signalsfoundry/emfield-mapper/internal/service"
)

func computePayload() map[string]any {
	return map[string]any{
		"region": map[string]any{
			"crs": "WGS84",
			"polygon": []map[string]float64{
				{"lat": 34.0, "lon": 118.0},
				{"lat": 34.0, "lon": 118.2},
				{"lat": 33.8, "lon": 118.2},
				{"lat": 33.8, "lon": 118.0},
			},
		},
		"grid": map[string]any{"resolution_deg": 0.05, "alt_m": 0},
		"bands": []map[string]any{
			{"name": "S", "f_min_MHz": 2000, "f_max_MHz": 4000},
		},
		"sources": []map[string]any{{
			"id":   "radar-1",
			"type": "radar",
			"position": map[string]any{
				"lat": 33.9, "lon": 118.1, "alt_m": 50,
			},
			"emission": map[string]any{
				"eirp_dBm":        90,
				"center_freq_MHz": 3200,
				"bandwidth_MHz":   2,
				"polarization":    "H",
			},
			"antenna": map[string]any{
				"pattern": map[string]any{
					"hpbw_deg":          2,
					"vpbw_deg":          4,
					"sidelobe_template": "MIL-STD-20",
				},
				"scan": map[string]any{"mode": "circular", "rpm": 12},
			},
		}},
	}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	svc := service.New(core.DefaultEngineConfig())
	return NewServer("127.0.0.1:0", svc, nil, nil)
}

func postCompute(t *testing.T, srv *Server, payload any) *httptest.ResponseRecorder {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/v1/compute", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

func TestComputeEndpoint(t *testing.T) {
	srv := newTestServer(t)
	rec := postCompute(t, srv, computePayload())
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp computeResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 25, resp.GridPoints)
	assert.Equal(t, 5, resp.NLat)
	assert.Equal(t, 5, resp.NLon)
	assert.Equal(t, []string{"radar-1"}, resp.SourcesRetained)
	require.Len(t, resp.Bands, 1)
	assert.Equal(t, "S", resp.Bands[0].Name)
	assert.Equal(t, 3000.0, resp.Bands[0].CenterFreqMHz)
	assert.Positive(t, resp.Bands[0].ValidCells)
}

func TestComputeRejectsMalformedJSON(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/v1/compute", bytes.NewReader([]byte("{not json")))
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestComputeRejectsInvalidRequest(t *testing.T) {
	srv := newTestServer(t)
	payload := computePayload()
	payload["bands"] = []map[string]any{}
	rec := postCompute(t, srv, payload)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestComputeLimitRejectionIs422(t *testing.T) {
	srv := newTestServer(t)
	payload := computePayload()
	payload["limits"] = map[string]any{"max_region_km": 10}
	rec := postCompute(t, srv, payload)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
}

func TestQueryEndpoint(t *testing.T) {
	srv := newTestServer(t)
	require.Equal(t, http.StatusOK, postCompute(t, srv, computePayload()).Code)

	url := fmt.Sprintf("/v1/query?band=S&lat=%g&lon=%g", 33.9, 118.1)
	req := httptest.NewRequest(http.MethodGet, url, nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp service.QueryResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "S", resp.Band)
	assert.Positive(t, resp.FieldStrengthDBuVm)
	require.Len(t, resp.Contributors, 1)
	assert.Equal(t, "radar-1", resp.Contributors[0].SourceID)
}

func TestQueryBeforeComputeIs404(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/v1/query?band=S&lat=33.9&lon=118.1", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestQueryParamValidation(t *testing.T) {
	srv := newTestServer(t)
	require.Equal(t, http.StatusOK, postCompute(t, srv, computePayload()).Code)

	cases := []struct {
		name string
		url  string
		code int
	}{
		{"missing band", "/v1/query?lat=33.9&lon=118.1", http.StatusBadRequest},
		{"missing lat", "/v1/query?band=S&lon=118.1", http.StatusBadRequest},
		{"bad lon", "/v1/query?band=S&lat=33.9&lon=abc", http.StatusBadRequest},
		{"unknown band", "/v1/query?band=X&lat=33.9&lon=118.1", http.StatusNotFound},
		{"altitude mismatch", "/v1/query?band=S&lat=33.9&lon=118.1&alt_m=500", http.StatusConflict},
		{"outside region", "/v1/query?band=S&lat=40&lon=118.1", http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tc.url, nil)
			rec := httptest.NewRecorder()
			srv.ServeHTTP(rec, req)
			assert.Equal(t, tc.code, rec.Code, rec.Body.String())
		})
	}
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}
