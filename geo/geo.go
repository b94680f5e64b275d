// Package geo holds the spherical geometry used by the location filter.
// Distances are computed on a sphere of radius EarthRadius.
package geo

import (
	"math"

	"github.com/paulmach/orb"
)

// EarthRadius is the mean earth radius in meters.
// Note that orb uses the equatorial radius (6378137) for its own geo.Distance.
const EarthRadius = 6371000.0

func ToRadians(deg float64) float64 {
	return deg * math.Pi / 180
}

func ToDegrees(rad float64) float64 {
	return rad * 180 / math.Pi
}

// DistanceMeters returns the haversine great-circle distance between two
// coordinates given in degrees. Identical points yield exactly 0.
func DistanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	if lat1 == lat2 && lon1 == lon2 {
		return 0
	}
	dLat := ToRadians(lat2 - lat1)
	dLon := ToRadians(lon2 - lon1)
	sinLat := math.Sin(dLat / 2)
	sinLon := math.Sin(dLon / 2)
	a := sinLat*sinLat + math.Cos(ToRadians(lat1))*math.Cos(ToRadians(lat2))*sinLon*sinLon
	// Rounding can push a a hair past 1 near antipodes.
	a = math.Min(1, math.Max(0, a))
	return 2 * EarthRadius * math.Asin(math.Sqrt(a))
}

// Distance is DistanceMeters for orb points (lon, lat).
func Distance(a, b orb.Point) float64 {
	return DistanceMeters(a.Lat(), a.Lon(), b.Lat(), b.Lon())
}

// Bearing returns the initial bearing from the first coordinate to the second,
// in degrees clockwise from north within [0, 360).
func Bearing(lat1, lon1, lat2, lon2 float64) float64 {
	phi1, phi2 := ToRadians(lat1), ToRadians(lat2)
	dLon := ToRadians(lon2 - lon1)
	y := math.Sin(dLon) * math.Cos(phi2)
	x := math.Cos(phi1)*math.Sin(phi2) - math.Sin(phi1)*math.Cos(phi2)*math.Cos(dLon)
	return NormalizeBearing(ToDegrees(math.Atan2(y, x)))
}

// NormalizeBearing maps any finite angle into [0, 360).
func NormalizeBearing(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	// -1e-15 + 360 rounds to 360.
	if deg >= 360 {
		deg = 0
	}
	return deg
}

// AngleDelta returns the signed shortest rotation from a to b, in (-180, 180].
func AngleDelta(a, b float64) float64 {
	d := math.Mod(b-a, 360)
	if d <= -180 {
		d += 360
	} else if d > 180 {
		d -= 360
	}
	return d
}

// UnwrapLon shifts lon by whole turns to within 180 degrees of ref,
// so that longitudes either side of the antimeridian can be averaged.
func UnwrapLon(ref, lon float64) float64 {
	return ref + AngleDelta(ref, lon)
}

// NormalizeLon brings an unwrapped longitude back into [-180, 180].
func NormalizeLon(lon float64) float64 {
	if lon >= -180 && lon <= 180 {
		return lon
	}
	lon = math.Mod(lon+180, 360)
	if lon < 0 {
		lon += 360
	}
	return lon - 180
}

// Interpolate returns the point t of the way from a to b, in plain coordinate space,
// taking the short way across the antimeridian.
// Over the few meters the filter blends across, the difference from a great-circle
// interpolation is far below GPS noise.
func Interpolate(a, b orb.Point, t float64) orb.Point {
	bLon := UnwrapLon(a.Lon(), b.Lon())
	return orb.Point{
		NormalizeLon(a.Lon() + (bLon-a.Lon())*t),
		a.Lat() + (b.Lat()-a.Lat())*t,
	}
}
