// core/errors.go
package core

import "errors"

// Fatal request errors surfaced verbatim to the caller. Retrying with
// the same input cannot succeed; the request itself must change.
// Workload-limit violations come in two distinguishable kinds so
// callers can tell "region too large" from "grid too large".
var (
	ErrNoBands        = errors.New("at least one band must be provided")
	ErrRegionTooLarge = errors.New("region extent exceeds max_region_km")
	ErrGridTooLarge   = errors.New("grid point count exceeds max_grid_points")
)
