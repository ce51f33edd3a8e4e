package geo

import "github.com/paulmach/orb"

// RingCentroid is the arithmetic mean of the ring's vertices, not an area-weighted centroid.
// It returns nil for an empty ring. A closing vertex that repeats the first point is counted.
func RingCentroid(ring orb.Ring) *LngLat {
	if len(ring) == 0 {
		return nil
	}
	var sx, sy float64
	for _, p := range ring {
		sx += p[0]
		sy += p[1]
	}
	n := float64(len(ring))
	return &LngLat{Lng: sx / n, Lat: sy / n}
}
