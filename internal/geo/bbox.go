package geo

import (
	"math"
	"strconv"
)

// BBox is a lat/lng window. Top/Bottom bound latitude, Left/Right bound longitude.
type BBox struct {
	Top    float64 `json:"top"`
	Bottom float64 `json:"bottom"`
	Left   float64 `json:"left"`
	Right  float64 `json:"right"`
}

// Valid reports whether every edge is finite and the box is not inverted.
func (b BBox) Valid() bool {
	for _, v := range []float64{b.Top, b.Bottom, b.Left, b.Right} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return b.Bottom <= b.Top && b.Left <= b.Right
}

// Contains reports whether p lies inside b, edges included.
func (b BBox) Contains(p LngLat) bool {
	return b.Bottom <= p.Lat && p.Lat <= b.Top && b.Left <= p.Lng && p.Lng <= b.Right
}

// InBBox is fail-open: a missing point, a missing box or a malformed box all count as in bounds.
func InBBox(p *LngLat, b *BBox) bool {
	if p == nil || b == nil || !b.Valid() {
		return true
	}
	return b.Contains(*p)
}

// WithinBoxClause builds the SoQL predicate for column, with corners ordered
// (south-east lng, south-east lat, north-west lng, north-west lat) as the open-data API expects.
// ok is false when the box is absent or malformed.
func WithinBoxClause(b *BBox, column string) (clause string, ok bool) {
	if b == nil || !b.Valid() {
		return "", false
	}
	return "within_box(" + column + ", " +
		formatCoord(b.Right) + ", " +
		formatCoord(b.Bottom) + ", " +
		formatCoord(b.Left) + ", " +
		formatCoord(b.Top) + ")", true
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ParseBBox reads a box from four textual edges. Any missing or non-numeric edge yields ok=false.
func ParseBBox(top, bottom, left, right string) (*BBox, bool) {
	vals := make([]float64, 4)
	for i, s := range []string{top, bottom, left, right} {
		if s == "" {
			return nil, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return nil, false
		}
		vals[i] = f
	}
	b := &BBox{Top: vals[0], Bottom: vals[1], Left: vals[2], Right: vals[3]}
	if !b.Valid() {
		return nil, false
	}
	return b, true
}
