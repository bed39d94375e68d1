package export

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/signalsfoundry/emfield-mapper/core"
)

// WriteResultFiles renders a full result into a directory: one pair of
// rasters per band (field strength and power density) plus the top-K
// table. The directory is created when missing.
func WriteResultFiles(dir string, res *core.ComputeResult) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("export: %w", err)
	}

	names := make([]string, 0, len(res.BandResults))
	for name := range res.BandResults {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		band := res.BandResults[name]
		if err := writeRasterFile(
			filepath.Join(dir, name+"_field_dbuvm.asc"), res.Grid, band.FieldStrengthDBuVm,
		); err != nil {
			return err
		}
		if err := writeRasterFile(
			filepath.Join(dir, name+"_power_wm2.asc"), res.Grid, band.PowerDensityWm2,
		); err != nil {
			return err
		}
	}

	f, err := os.Create(filepath.Join(dir, "topk.csv"))
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	defer f.Close()
	if err := WriteTopKCSV(f, res); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return f.Close()
}

func writeRasterFile(path string, grid *core.GridDefinition, values []float64) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	defer f.Close()
	if err := WriteRasterASC(f, grid, values); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	return f.Close()
}
