// core/geodesy.go
package core

import "math"

// EarthRadiusKm is the mean Earth radius used by all spherical
// geometry in the engine (kilometres). Refraction is folded in by
// scaling this with the environment's k-factor.
const EarthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance between two points in
// kilometres on a sphere of the given radius. Inputs are degrees.
//
// The intermediate haversine term is clamped so antipodal and
// coincident points stay inside the sqrt/atan2 domains.
func HaversineKm(lat1, lon1, lat2, lon2, radiusKm float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	dLat := lat2Rad - lat1Rad
	dLon := (lon2 - lon1) * math.Pi / 180

	sinDLat := math.Sin(dLat * 0.5)
	sinDLon := math.Sin(dLon * 0.5)
	a := sinDLat*sinDLat + math.Cos(lat1Rad)*math.Cos(lat2Rad)*sinDLon*sinDLon
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(math.Max(1.0-a, 0.0)))
	return radiusKm * c
}

// ForwardAzimuthDeg returns the initial bearing from point 1 to point
// 2 in degrees: 0 = north, clockwise positive, wrapped to [0, 360).
func ForwardAzimuthDeg(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	dLonRad := (lon2 - lon1) * math.Pi / 180

	y := math.Sin(dLonRad) * math.Cos(lat2Rad)
	x := math.Cos(lat1Rad)*math.Sin(lat2Rad) - math.Sin(lat1Rad)*math.Cos(lat2Rad)*math.Cos(dLonRad)
	azimuthDeg := math.Atan2(y, x) * 180 / math.Pi
	return math.Mod(azimuthDeg+360.0, 360.0)
}

// ElevationAngleDeg returns the elevation angle in degrees of a target
// seen over the given horizontal distance (km) with the given altitude
// delta (m, receive minus transmit). Positive means above horizontal.
func ElevationAngleDeg(horizontalKm, deltaAltM float64) float64 {
	horizontalM := math.Max(horizontalKm, 1e-6) * 1000.0
	return math.Atan2(deltaAltM, horizontalM) * 180 / math.Pi
}

// AngularDiffDeg returns the signed shortest angular difference
// a - b in degrees, wrapped to [-180, 180).
func AngularDiffDeg(a, b float64) float64 {
	diff := math.Mod(a-b+180.0, 360.0)
	if diff < 0 {
		diff += 360.0
	}
	return diff - 180.0
}
