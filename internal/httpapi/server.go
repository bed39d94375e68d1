// Package httpapi is the REST adapter over the compute service:
// compute submission, point query, health, and metrics endpoints.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/signalsfoundry/emfield-mapper/core"
	"github.com/signalsfoundry/emfield-mapper/internal/logging"
	"github.com/signalsfoundry/emfield-mapper/internal/observability"
	"github.com/signalsfoundry/emfield-mapper/internal/service"
	"github.com/signalsfoundry/emfield-mapper/model"
)

// maxRequestBody bounds compute payloads; the source ceiling keeps
// legitimate requests far below this.
const maxRequestBody = 4 << 20

// Server exposes the compute service over HTTP.
type Server struct {
	httpServer *http.Server
	svc        *service.Service
	log        logging.Logger
}

// NewServer wires the route table. The metrics collector may be nil,
// in which case /metrics is not registered.
func NewServer(addr string, svc *service.Service, metrics *observability.ComputeCollector, log logging.Logger) *Server {
	if log == nil {
		log = logging.Noop()
	}
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		svc: svc,
		log: log,
	}

	mux.HandleFunc("POST /v1/compute", s.handleCompute)
	mux.HandleFunc("GET /v1/query", s.handleQuery)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	if metrics != nil {
		mux.Handle("GET /metrics", metrics.Handler())
	}

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.log.Info(context.Background(), "http server starting", logging.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

// computeBandSummary is the per-band slice of the compute response.
type computeBandSummary struct {
	Name          string  `json:"name"`
	CenterFreqMHz float64 `json:"center_freq_MHz"`
	ValidCells    int     `json:"valid_cells"`
}

// computeResponse summarises a finished compute; the full grids are
// retrieved through /v1/query or the export files, not the API body.
type computeResponse struct {
	GeneratedAt     time.Time            `json:"generated_at"`
	GridPoints      int                  `json:"grid_points"`
	NLat            int                  `json:"n_lat"`
	NLon            int                  `json:"n_lon"`
	SourcesRetained []string             `json:"sources_retained"`
	Bands           []computeBandSummary `json:"bands"`
}

func (s *Server) handleCompute(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body: "+err.Error())
		return
	}

	req, err := model.DecodeRequestJSON(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := s.svc.Run(r.Context(), req)
	if err != nil {
		writeError(w, computeStatus(err), err.Error())
		return
	}

	nLat, nLon := res.Grid.Shape()
	resp := computeResponse{
		GeneratedAt:     res.GeneratedAt,
		GridPoints:      res.Grid.NumCells(),
		NLat:            nLat,
		NLon:            nLon,
		SourcesRetained: res.SourceIDs,
	}
	for _, band := range req.Bands {
		br := res.BandResults[band.Name]
		resp.Bands = append(resp.Bands, computeBandSummary{
			Name:          br.Name,
			CenterFreqMHz: br.CenterFreqMHz,
			ValidCells:    validCells(br),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	band := q.Get("band")
	if band == "" {
		writeError(w, http.StatusBadRequest, "band is required")
		return
	}
	lat, err := parseFloatParam(q.Get("lat"), "lat")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	lon, err := parseFloatParam(q.Get("lon"), "lon")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	altM := 0.0
	if raw := q.Get("alt_m"); raw != "" {
		altM, err = parseFloatParam(raw, "alt_m")
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}

	result, err := s.svc.QueryPoint(r.Context(), lat, lon, altM, band)
	if err != nil {
		writeError(w, queryStatus(err), err.Error())
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// computeStatus maps compute errors onto HTTP statuses: malformed or
// empty requests are 400, workload-limit rejections are 422 so a
// client can tell them apart from malformed input.
func computeStatus(err error) int {
	switch {
	case errors.Is(err, core.ErrRegionTooLarge), errors.Is(err, core.ErrGridTooLarge):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrNoBands):
		return http.StatusBadRequest
	default:
		return http.StatusBadRequest
	}
}

func queryStatus(err error) int {
	switch {
	case errors.Is(err, service.ErrNoResult),
		errors.Is(err, service.ErrUnknownBand),
		errors.Is(err, service.ErrOutsideRegion):
		return http.StatusNotFound
	case errors.Is(err, service.ErrAltitudeMismatch):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func validCells(band *core.BandResult) int {
	n := 0
	for _, v := range band.FieldStrengthDBuVm {
		if v == v { // not NaN
			n++
		}
	}
	return n
}

func parseFloatParam(raw, name string) (float64, error) {
	if raw == "" {
		return 0, errors.New(name + " is required")
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, errors.New(name + " must be a number")
	}
	return v, nil
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // best-effort response
}
