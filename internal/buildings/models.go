package buildings

import (
	"github.com/EmpoweredVote/EV-CityMap/internal/geo"
	"github.com/paulmach/orb"
)

// FeetPerMeter converts height_m to height_ft.
const FeetPerMeter = 3.28084

// Geometry types accepted from the footprint source.
const (
	GeometryPolygon      = "Polygon"
	GeometryMultiPolygon = "MultiPolygon"
)

// Building is the canonical record served to the map renderer.
type Building struct {
	ID           string  `json:"id"`
	Stage        *string `json:"stage"`
	GeometryType string  `json:"geometry_type"`

	// Footprint is the source geometry (orb.Polygon or orb.MultiPolygon in lng/lat).
	// FootprintLocal has identical nesting with points in local (x, z) meters.
	Footprint      orb.Geometry `json:"footprint"`
	FootprintLocal orb.Geometry `json:"footprint_local"`

	Centroid *geo.LngLat `json:"centroid"`

	HeightM      *float64 `json:"height_m"`
	HeightFt     *float64 `json:"height_ft"`
	RooftopElevZ *float64 `json:"rooftop_elev_z"`
	GroundElevZ  *float64 `json:"ground_elev_z"`

	Address string  `json:"address"`
	Zoning  *string `json:"zoning"`
}

// Envelope wraps a fetch result.
type Envelope struct {
	Count         int        `json:"count"`
	FetchedAtUnix int64      `json:"fetched_at_unix"`
	Origin        geo.LngLat `json:"origin"`
	Buildings     []Building `json:"buildings"`
}

// RawFeature is one source row reduced to a geometry and its flat properties.
type RawFeature struct {
	GeometryType string
	// Geometry is orb.Polygon or orb.MultiPolygon, nil when absent, malformed or of another type.
	Geometry   orb.Geometry
	Properties map[string]any
}
