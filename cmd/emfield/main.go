// Command emfield runs one field-strength computation from a JSON
// request file and writes the per-band rasters and the top-K table to
// an output directory.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/signalsfoundry/emfield-mapper/core"
	"github.com/signalsfoundry/emfield-mapper/internal/export"
	"github.com/signalsfoundry/emfield-mapper/internal/logging"
	"github.com/signalsfoundry/emfield-mapper/internal/service"
	"github.com/signalsfoundry/emfield-mapper/model"
)

func main() {
	requestPath := flag.String("request", "", "Path to a JSON compute request")
	outDir := flag.String("out", "out", "Directory the rasters and CSV are written to")
	topK := flag.Int("top-k", core.DefaultEngineConfig().TopK, "Ranked contributors retained per cell")
	threshold := flag.Float64("threshold", core.DefaultEngineConfig().ThresholdDBuVm, "Detection threshold in dBuV/m")
	flag.Parse()

	log := logging.NewFromEnv()
	ctx := context.Background()

	if *requestPath == "" {
		fmt.Fprintln(os.Stderr, "usage: emfield -request <file.json> [-out <dir>]")
		os.Exit(2)
	}

	data, err := os.ReadFile(*requestPath)
	if err != nil {
		log.Error(ctx, "failed to read request file", logging.String("path", *requestPath), logging.Err(err))
		os.Exit(1)
	}

	req, err := model.DecodeRequestJSON(data)
	if err != nil {
		log.Error(ctx, "invalid request", logging.Err(err))
		os.Exit(1)
	}

	svc := service.New(
		core.EngineConfig{TopK: *topK, ThresholdDBuVm: *threshold},
		service.WithLogger(log),
	)

	res, err := svc.Run(ctx, req)
	if err != nil {
		log.Error(ctx, "compute failed", logging.Err(err))
		os.Exit(1)
	}

	if err := export.WriteResultFiles(*outDir, res); err != nil {
		log.Error(ctx, "export failed", logging.Err(err))
		os.Exit(1)
	}

	nLat, nLon := res.Grid.Shape()
	fmt.Printf("Computed %d band(s) on a %dx%d grid (%d points), %d source(s) retained\n",
		len(res.BandResults), nLat, nLon, res.Grid.NumCells(), len(res.SourceIDs))

	names := make([]string, 0, len(res.BandResults))
	for name := range res.BandResults {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		band := res.BandResults[name]
		valid := 0
		for _, v := range band.FieldStrengthDBuVm {
			if v == v {
				valid++
			}
		}
		fmt.Printf("  band %-12s center %8.1f MHz  valid cells %d/%d\n",
			name, band.CenterFreqMHz, valid, res.Grid.NumCells())
	}
	fmt.Printf("Wrote results to %s\n", *outDir)
}
