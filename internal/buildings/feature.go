package buildings

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/paulmach/orb"
)

// FeatureFromRow converts one source row into a RawFeature. Two shapes are recognized:
// a flat record with a "polygon" geometry field, and a GeoJSON feature with nested
// "geometry"/"properties". ok is false for anything else.
func FeatureFromRow(row json.RawMessage) (RawFeature, bool) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(row, &fields); err != nil || fields == nil {
		return RawFeature{}, false
	}

	if geom, ok := fields["polygon"]; ok {
		props := make(map[string]any, len(fields))
		for k, v := range fields {
			if k == "polygon" {
				continue
			}
			var val any
			if err := json.Unmarshal(v, &val); err == nil {
				props[k] = val
			}
		}
		typ, g := parseGeometry(geom)
		return RawFeature{GeometryType: typ, Geometry: g, Properties: props}, true
	}

	if geom, ok := fields["geometry"]; ok && !emptyJSON(geom) {
		props := map[string]any{}
		if raw, ok := fields["properties"]; ok {
			var m map[string]any
			if err := json.Unmarshal(raw, &m); err == nil && m != nil {
				props = m
			}
		}
		typ, g := parseGeometry(geom)
		return RawFeature{GeometryType: typ, Geometry: g, Properties: props}, true
	}

	return RawFeature{}, false
}

// flatFeature treats any JSON object as a flat record without geometry.
func flatFeature(row json.RawMessage) (RawFeature, bool) {
	var props map[string]any
	if err := json.Unmarshal(row, &props); err != nil || props == nil {
		return RawFeature{}, false
	}
	return RawFeature{GeometryType: GeometryPolygon, Properties: props}, true
}

func emptyJSON(raw json.RawMessage) bool {
	switch string(bytes.TrimSpace(raw)) {
	case "", "null", "{}", "[]", `""`, "false", "0":
		return true
	}
	return false
}

// parseGeometry reads a GeoJSON-like geometry object. A missing type defaults to Polygon.
// Coordinates that do not decode leave the geometry nil.
func parseGeometry(raw json.RawMessage) (string, orb.Geometry) {
	var g struct {
		Type        string          `json:"type"`
		Coordinates json.RawMessage `json:"coordinates"`
	}
	if err := json.Unmarshal(raw, &g); err != nil {
		return GeometryPolygon, nil
	}
	if g.Type == "" {
		g.Type = GeometryPolygon
	}
	if len(g.Coordinates) == 0 {
		return g.Type, nil
	}

	switch g.Type {
	case GeometryPolygon:
		var p orb.Polygon
		if err := json.Unmarshal(g.Coordinates, &p); err != nil || len(p) == 0 {
			return g.Type, nil
		}
		return g.Type, p
	case GeometryMultiPolygon:
		var mp orb.MultiPolygon
		if err := json.Unmarshal(g.Coordinates, &mp); err != nil || len(mp) == 0 {
			return g.Type, nil
		}
		return g.Type, mp
	}
	return g.Type, nil
}

// propFloat reads a numeric property that may arrive as a number or a numeric string.
func propFloat(props map[string]any, key string) *float64 {
	var f float64
	switch v := props[key].(type) {
	case float64:
		f = v
	case json.Number:
		n, err := v.Float64()
		if err != nil {
			return nil
		}
		f = n
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil
		}
		f = n
	case bool:
		if v {
			f = 1
		}
	default:
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	return &f
}

// propString stringifies a scalar property. ok is false for null or missing values.
func propString(props map[string]any, key string) (string, bool) {
	switch v := props[key].(type) {
	case string:
		return v, true
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), true
	case json.Number:
		return v.String(), true
	case bool:
		return strconv.FormatBool(v), true
	}
	return "", false
}
