package export

import (
	"encoding/csv"
	"io"
	"sort"
	"strconv"

	"github.com/signalsfoundry/emfield-mapper/core"
)

// WriteTopKCSV writes the per-cell attribution table: one row per
// in-region cell, band, and retained rank. Masked and below-threshold
// cells are omitted, as are ranks beyond the retained source count.
// Bands are emitted in name order so the output is deterministic.
func WriteTopKCSV(w io.Writer, res *core.ComputeResult) error {
	cw := csv.NewWriter(w)
	header := []string{
		"latitude", "longitude", "band", "rank",
		"source_index", "source_id", "power_density_w_m2", "fraction",
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	names := make([]string, 0, len(res.BandResults))
	for name := range res.BandResults {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		band := res.BandResults[name]
		if band.TopK == nil {
			continue
		}
		for cell := 0; cell < res.Grid.NumCells(); cell++ {
			if !res.Grid.Mask[cell] {
				continue
			}
			lat, lon := res.Grid.CellLatLon(cell)
			for rank := 0; rank < band.TopK.K; rank++ {
				idx := band.TopK.Indices[rank][cell]
				if idx < 0 {
					continue
				}
				record := []string{
					strconv.FormatFloat(lat, 'f', -1, 64),
					strconv.FormatFloat(lon, 'f', -1, 64),
					name,
					strconv.Itoa(rank + 1),
					strconv.Itoa(idx),
					res.SourceIDs[idx],
					strconv.FormatFloat(band.TopK.Power[rank][cell], 'g', 6, 64),
					strconv.FormatFloat(band.TopK.Fraction[rank][cell], 'f', 6, 64),
				}
				if err := cw.Write(record); err != nil {
					return err
				}
			}
		}
	}

	cw.Flush()
	return cw.Error()
}
