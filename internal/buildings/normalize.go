package buildings

import (
	"fmt"
	"strings"

	"github.com/EmpoweredVote/EV-CityMap/internal/geo"
	"github.com/paulmach/orb"
)

// Normalize converts a raw feature into a Building. It never fails; fields the source
// cannot support are left nil.
func Normalize(f RawFeature) Building {
	props := f.Properties
	if props == nil {
		props = map[string]any{}
	}

	b := Building{GeometryType: f.GeometryType}
	if b.GeometryType == "" {
		b.GeometryType = GeometryPolygon
	}
	b.ID, _ = propString(props, "struct_id")
	if stage, ok := propString(props, "stage"); ok {
		b.Stage = &stage
	}

	switch g := f.Geometry.(type) {
	case orb.Polygon:
		b.Footprint = g
		b.FootprintLocal = geo.ProjectPolygon(g)
	case orb.MultiPolygon:
		b.Footprint = g
		b.FootprintLocal = geo.ProjectMultiPolygon(g)
	}
	b.Centroid = geo.RingCentroid(OuterRing(f.Geometry))

	b.RooftopElevZ = propFloat(props, "rooftop_elev_z")
	b.GroundElevZ = propFloat(props, "grd_elev_max_z")
	if b.GroundElevZ == nil {
		b.GroundElevZ = propFloat(props, "grd_elev_min_z")
	}
	b.HeightM, b.HeightFt = heights(b.RooftopElevZ, b.GroundElevZ)

	b.Address = buildAddress(props, b.ID, b.Centroid)
	if z, ok := propString(props, "zoning"); ok && z != "" {
		b.Zoning = &z
	}
	return b
}

// OuterRing is the first ring of a Polygon, or the first ring of the first polygon of a
// MultiPolygon. It returns nil when there is none.
func OuterRing(g orb.Geometry) orb.Ring {
	switch g := g.(type) {
	case orb.Polygon:
		if len(g) > 0 {
			return g[0]
		}
	case orb.MultiPolygon:
		if len(g) > 0 && len(g[0]) > 0 {
			return g[0][0]
		}
	}
	return nil
}

// heights clamps a negative difference to zero but leaves both values nil when either
// elevation is missing.
func heights(rooftop, ground *float64) (m, ft *float64) {
	if rooftop == nil || ground == nil {
		return nil, nil
	}
	hm := *rooftop - *ground
	if hm < 0 {
		hm = 0
	}
	hft := hm * FeetPerMeter
	return &hm, &hft
}

func buildAddress(props map[string]any, id string, c *geo.LngLat) string {
	for _, key := range []string{"address", "full_address"} {
		if s, ok := propString(props, key); ok {
			if s = strings.TrimSpace(s); s != "" {
				return s
			}
		}
	}
	if c != nil {
		return fmt.Sprintf("Downtown Calgary (ID: %s) — %.5f, %.5f", id, c.Lat, c.Lng)
	}
	return fmt.Sprintf("Downtown Calgary (ID: %s)", id)
}
