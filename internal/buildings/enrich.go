package buildings

import (
	"github.com/EmpoweredVote/EV-CityMap/internal/zoning"
)

// EnrichZoning assigns a zoning code to each building that has a centroid and no zoning
// yet. The first polygon containing the centroid wins. Existing values are never
// overwritten. It returns the number of buildings that received a code.
func EnrichZoning(bs []Building, polygons []zoning.Polygon) int {
	if len(polygons) == 0 {
		return 0
	}
	assigned := 0
	for i := range bs {
		b := &bs[i]
		if b.Zoning != nil || b.Centroid == nil {
			continue
		}
		if code, ok := zoning.Assign(*b.Centroid, polygons); ok {
			b.Zoning = &code
			assigned++
		}
	}
	return assigned
}
