// Package zoning reads land-use district polygons from the open-data source and tests
// point containment against them.
package zoning

import (
	"bytes"
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/EmpoweredVote/EV-CityMap/internal/geo"
	"github.com/EmpoweredVote/EV-CityMap/internal/logger"
	"github.com/EmpoweredVote/EV-CityMap/internal/metrics"
	"github.com/EmpoweredVote/EV-CityMap/internal/opendata"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

const (
	// RowLimit caps the number of districts requested for one box.
	RowLimit = 2000
	// FetchTimeout bounds the zoning request.
	FetchTimeout = 30 * time.Second
	// GeometryColumn is the spatial column used in the within_box clause.
	GeometryColumn = "shape"
)

// Field names probed in order for a district's geometry and classification code.
var (
	GeometryFields = []string{"shape", "the_geom", "geometry"}
	CodeFields     = []string{"land_use_district", "district", "zone", "zoning", "code"}
)

// Polygon is a land-use district used only for the duration of one spatial join.
type Polygon struct {
	Code     string
	Geometry orb.Geometry
	bound    orb.Bound
}

// NewPolygon wraps a polygonal geometry. ok is false for non-polygonal input or an empty code.
func NewPolygon(code string, g orb.Geometry) (Polygon, bool) {
	code = strings.TrimSpace(code)
	if code == "" {
		return Polygon{}, false
	}
	switch g := g.(type) {
	case orb.Polygon:
		if len(g) == 0 {
			return Polygon{}, false
		}
	case orb.MultiPolygon:
		if len(g) == 0 {
			return Polygon{}, false
		}
	default:
		return Polygon{}, false
	}
	return Polygon{Code: code, Geometry: g, bound: g.Bound()}, true
}

// Contains reports whether the district contains p. Holes are excluded.
func (z Polygon) Contains(p geo.LngLat) bool {
	pt := orb.Point{p.Lng, p.Lat}
	if !z.bound.Contains(pt) {
		return false
	}
	switch g := z.Geometry.(type) {
	case orb.Polygon:
		return planar.PolygonContains(g, pt)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(g, pt)
	}
	return false
}

// FromRow extracts a district from one source row. Rows missing a usable geometry or code
// are rejected.
func FromRow(row json.RawMessage) (Polygon, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(row, &fields); err != nil || fields == nil {
		return Polygon{}, false
	}

	geomRaw, ok := firstPresent(fields, GeometryFields)
	if !ok {
		return Polygon{}, false
	}
	codeRaw, ok := firstPresent(fields, CodeFields)
	if !ok {
		return Polygon{}, false
	}
	code, ok := scalarString(codeRaw)
	if !ok {
		return Polygon{}, false
	}

	g, err := geojson.UnmarshalGeometry(geomRaw)
	if err != nil || g == nil {
		return Polygon{}, false
	}
	return NewPolygon(code, g.Geometry())
}

// Fetch loads the districts intersecting bbox. It is best effort: any failure is logged
// and yields no polygons.
func Fetch(ctx context.Context, src opendata.Source, datasetID string, bbox *geo.BBox) []Polygon {
	if src == nil || datasetID == "" || bbox == nil {
		return nil
	}
	where, ok := geo.WithinBoxClause(bbox, GeometryColumn)
	if !ok {
		return nil
	}
	q := opendata.Query{Limit: RowLimit, Where: where, Timeout: FetchTimeout}

	l := logger.Component("zoning")
	rows, err := src.Rows(ctx, datasetID, q)
	if err != nil {
		l.Warn().Err(err).Str("dataset", datasetID).Msg("zoning fetch failed")
		return nil
	}

	out := make([]Polygon, 0, len(rows))
	for _, row := range rows {
		if p, ok := FromRow(row); ok {
			out = append(out, p)
		}
	}
	l.Debug().Int("rows", len(rows)).Int("polygons", len(out)).Msg("zoning polygons loaded")
	return out
}

// Assign returns the code of the first polygon, in arrival order, containing p.
func Assign(p geo.LngLat, polygons []Polygon) (string, bool) {
	for _, z := range polygons {
		if z.Contains(p) {
			return z.Code, true
		}
	}
	return "", false
}

// RecordOutcome counts an enrichment run.
func RecordOutcome(applied bool, assigned int) {
	if !applied {
		metrics.ZoningEnrichmentTotal.WithLabelValues("skipped").Inc()
		return
	}
	metrics.ZoningEnrichmentTotal.WithLabelValues("applied").Inc()
	metrics.ZoningAssignedTotal.Add(float64(assigned))
}

func firstPresent(fields map[string]json.RawMessage, keys []string) (json.RawMessage, bool) {
	for _, k := range keys {
		if raw, ok := fields[k]; ok && !falsy(raw) {
			return raw, true
		}
	}
	return nil, false
}

func falsy(raw json.RawMessage) bool {
	switch string(bytes.TrimSpace(raw)) {
	case "", "null", "{}", "[]", `""`, "false", "0":
		return true
	}
	return false
}

func scalarString(raw json.RawMessage) (string, bool) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", false
	}
	switch v := v.(type) {
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case bool:
		return strconv.FormatBool(v), true
	}
	return "", false
}
