package service

import (
	"context"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalsfoundry/emfield-mapper/core"
	"github.com/signalsfoundry/emfield-mapper/model"
)

func testRequest() *model.ComputeRequest {
	req := model.NewComputeRequest()
	req.Region = model.Region{
		CRS: "WGS84",
		Polygon: []model.LatLon{
			{Lat: 34.0, Lon: 118.0},
			{Lat: 34.0, Lon: 118.2},
			{Lat: 33.8, Lon: 118.2},
			{Lat: 33.8, Lon: 118.0},
		},
	}
	req.Grid = model.GridSpec{ResolutionDeg: 0.05, AltM: 0}
	req.Bands = []model.Band{
		{Name: "S", FMinMHz: 2000, FMaxMHz: 4000, RefBWkHz: 1000},
	}
	req.Sources = []model.Source{{
		ID:   "radar-1",
		Type: model.SourceRadar,
		Position: model.SourcePosition{
			Lat: 33.9, Lon: 118.1, AltM: 50,
		},
		Emission: model.Emission{
			EIRPdBm:       90,
			CenterFreqMHz: 3200,
			BandwidthMHz:  2,
			Polarization:  model.PolarizationH,
		},
		Antenna: model.Antenna{
			Pattern: model.AntennaPattern{
				HPBWDeg:          2,
				VPBWDeg:          4,
				SidelobeTemplate: model.SidelobeMILSTD20,
			},
			Scan: model.ScanSpec{Mode: model.ScanCircular, RPM: 12},
		},
	}}
	return &req
}

func TestRunStampsAndCachesResult(t *testing.T) {
	stamp := time.Date(2026, time.March, 14, 9, 26, 53, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(stamp)
	svc := New(core.DefaultEngineConfig(), WithClock(clock))

	require.Nil(t, svc.Latest())

	res, err := svc.Run(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, stamp, res.GeneratedAt)
	assert.Same(t, res, svc.Latest())
}

func TestRunRejectsInvalidRequest(t *testing.T) {
	svc := New(core.DefaultEngineConfig())

	req := testRequest()
	req.Region.Polygon = req.Region.Polygon[:2]

	_, err := svc.Run(context.Background(), req)
	require.Error(t, err)
	assert.Nil(t, svc.Latest())
}

func TestRunSurfacesLimitErrors(t *testing.T) {
	svc := New(core.DefaultEngineConfig())

	req := testRequest()
	req.Limits.MaxRegionKm = 10

	_, err := svc.Run(context.Background(), req)
	require.ErrorIs(t, err, core.ErrRegionTooLarge)
}

func TestQueryPointHappyPath(t *testing.T) {
	svc := New(core.DefaultEngineConfig())
	_, err := svc.Run(context.Background(), testRequest())
	require.NoError(t, err)

	// The emitter's own cell is the grid centre and must be a hit.
	got, err := svc.QueryPoint(context.Background(), 33.9, 118.1, 0, "S")
	require.NoError(t, err)
	assert.Equal(t, "S", got.Band)
	assert.InDelta(t, 33.9, got.CellLat, 1e-9)
	assert.InDelta(t, 118.1, got.CellLon, 1e-9)
	assert.Positive(t, got.FieldStrengthDBuVm)
	require.Len(t, got.Contributors, 1)
	assert.Equal(t, 1, got.Contributors[0].Rank)
	assert.Equal(t, "radar-1", got.Contributors[0].SourceID)
	assert.InDelta(t, 1.0, got.Contributors[0].Fraction, 1e-12)
}

func TestQueryPointSnapsToNearestCell(t *testing.T) {
	svc := New(core.DefaultEngineConfig())
	_, err := svc.Run(context.Background(), testRequest())
	require.NoError(t, err)

	// A point slightly off the lattice snaps to the closest sample.
	got, err := svc.QueryPoint(context.Background(), 33.912, 118.089, 0, "S")
	require.NoError(t, err)
	assert.InDelta(t, 33.9, got.CellLat, 1e-9)
	assert.InDelta(t, 118.1, got.CellLon, 1e-9)
}

func TestQueryPointSnapsBeyondBoundingBox(t *testing.T) {
	svc := New(core.DefaultEngineConfig())
	_, err := svc.Run(context.Background(), testRequest())
	require.NoError(t, err)

	// The snap is unconditional: a point well south of the region
	// resolves to the in-mask south-edge row and returns its data.
	got, err := svc.QueryPoint(context.Background(), 32.8, 118.1, 0, "S")
	require.NoError(t, err)
	assert.InDelta(t, 33.8, got.CellLat, 1e-9)
	assert.InDelta(t, 118.1, got.CellLon, 1e-9)
	assert.Positive(t, got.FieldStrengthDBuVm)
}

func TestQueryPointErrors(t *testing.T) {
	svc := New(core.DefaultEngineConfig())

	_, err := svc.QueryPoint(context.Background(), 33.9, 118.1, 0, "S")
	assert.ErrorIs(t, err, ErrNoResult)

	_, err = svc.Run(context.Background(), testRequest())
	require.NoError(t, err)

	_, err = svc.QueryPoint(context.Background(), 33.9, 118.1, 0, "X")
	assert.ErrorIs(t, err, ErrUnknownBand)

	_, err = svc.QueryPoint(context.Background(), 33.9, 118.1, 100, "S")
	assert.ErrorIs(t, err, ErrAltitudeMismatch)

	// A northern point snaps to the boundary row at 34.0, which the
	// even-odd interior test leaves outside the mask.
	_, err = svc.QueryPoint(context.Background(), 40.0, 118.1, 0, "S")
	assert.ErrorIs(t, err, ErrOutsideRegion)
}
