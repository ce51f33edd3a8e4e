// Package geo holds the planar helpers shared by the building pipeline: the fixed-origin
// local projection, bounding boxes and ring centroids.
package geo

import "github.com/paulmach/orb"

// Downtown Calgary origin for local coordinates.
const (
	OriginLat = 51.047
	OriginLng = -114.067
)

// Meters per degree near 51°N. Fixed for the latitude band, not recomputed per point.
const (
	MetersPerDegLat = 111000.0
	MetersPerDegLng = 69800.0 // 111000 * cos(51°)
)

// LngLat is a WGS84 position in degrees.
type LngLat struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

// Origin returns the local projection origin.
func Origin() LngLat {
	return LngLat{Lng: OriginLng, Lat: OriginLat}
}

// LngLatToLocalMeters projects a position to planar (x, z) meters relative to the origin.
// The approximation is only meaningful near downtown Calgary.
func LngLatToLocalMeters(lng, lat float64) (x, z float64) {
	x = (lng - OriginLng) * MetersPerDegLng
	z = (lat - OriginLat) * MetersPerDegLat
	return x, z
}

// LocalMetersToLngLat is the inverse of LngLatToLocalMeters.
func LocalMetersToLngLat(x, z float64) (lng, lat float64) {
	lng = x/MetersPerDegLng + OriginLng
	lat = z/MetersPerDegLat + OriginLat
	return lng, lat
}

// ProjectRing returns ring with every [lng, lat] point replaced by its local [x, z].
func ProjectRing(ring orb.Ring) orb.Ring {
	out := make(orb.Ring, len(ring))
	for i, p := range ring {
		x, z := LngLatToLocalMeters(p[0], p[1])
		out[i] = orb.Point{x, z}
	}
	return out
}

// ProjectPolygon projects every ring of p, keeping ring order and length.
func ProjectPolygon(p orb.Polygon) orb.Polygon {
	out := make(orb.Polygon, len(p))
	for i, ring := range p {
		out[i] = ProjectRing(ring)
	}
	return out
}

// ProjectMultiPolygon projects every polygon of mp, keeping nesting intact.
func ProjectMultiPolygon(mp orb.MultiPolygon) orb.MultiPolygon {
	out := make(orb.MultiPolygon, len(mp))
	for i, p := range mp {
		out[i] = ProjectPolygon(p)
	}
	return out
}
