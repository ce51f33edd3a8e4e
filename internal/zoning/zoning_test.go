package zoning

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/EmpoweredVote/EV-CityMap/internal/geo"
	"github.com/EmpoweredVote/EV-CityMap/internal/opendata"
)

type fakeSource struct {
	rows    []json.RawMessage
	err     error
	queries []opendata.Query
}

func (f *fakeSource) Rows(_ context.Context, _ string, q opendata.Query) ([]json.RawMessage, error) {
	f.queries = append(f.queries, q)
	return f.rows, f.err
}

const squareShape = `{"type":"Polygon","coordinates":[[[-114.07,51.04],[-114.06,51.04],[-114.06,51.05],[-114.07,51.05],[-114.07,51.04]]]}`

func TestFromRow(t *testing.T) {
	tests := []struct {
		name string
		row  string
		code string
		ok   bool
	}{
		{"shape and land_use_district", `{"shape":` + squareShape + `,"land_use_district":" RC-G "}`, "RC-G", true},
		{"the_geom and zone", `{"the_geom":{"type":"MultiPolygon","coordinates":[[[[-114.07,51.04],[-114.06,51.04],[-114.06,51.05],[-114.07,51.04]]]]},"zone":"CC-X"}`, "CC-X", true},
		{"priority picks district over code", `{"geometry":` + squareShape + `,"district":"M-C1","code":"other"}`, "M-C1", true},
		{"numeric code", `{"shape":` + squareShape + `,"code":12}`, "12", true},
		{"missing code", `{"shape":` + squareShape + `}`, "", false},
		{"blank code", `{"shape":` + squareShape + `,"zoning":"   "}`, "", false},
		{"missing geometry", `{"land_use_district":"RC-G"}`, "", false},
		{"point geometry", `{"shape":{"type":"Point","coordinates":[-114.06,51.04]},"zone":"X"}`, "", false},
		{"string geometry", `{"shape":"POLYGON((0 0))","zone":"X"}`, "", false},
		{"not an object", `[1,2]`, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, ok := FromRow(json.RawMessage(tt.row))
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && p.Code != tt.code {
				t.Errorf("code = %q, want %q", p.Code, tt.code)
			}
		})
	}
}

func TestContainsRespectsHoles(t *testing.T) {
	row := `{"shape":{"type":"Polygon","coordinates":[` +
		`[[-114.10,51.00],[-114.00,51.00],[-114.00,51.10],[-114.10,51.10],[-114.10,51.00]],` +
		`[[-114.06,51.04],[-114.04,51.04],[-114.04,51.06],[-114.06,51.06],[-114.06,51.04]]` +
		`]},"zone":"DC"}`
	p, ok := FromRow(json.RawMessage(row))
	if !ok {
		t.Fatal("expected polygon")
	}
	if !p.Contains(geo.LngLat{Lng: -114.08, Lat: 51.02}) {
		t.Error("point in shell should be contained")
	}
	if p.Contains(geo.LngLat{Lng: -114.05, Lat: 51.05}) {
		t.Error("point in hole should not be contained")
	}
	if p.Contains(geo.LngLat{Lng: -113.5, Lat: 51.05}) {
		t.Error("point outside bound should not be contained")
	}
}

func TestAssignFirstMatchWins(t *testing.T) {
	a, _ := FromRow(json.RawMessage(`{"shape":` + squareShape + `,"zone":"FIRST"}`))
	b, _ := FromRow(json.RawMessage(`{"shape":` + squareShape + `,"zone":"SECOND"}`))
	code, ok := Assign(geo.LngLat{Lng: -114.065, Lat: 51.045}, []Polygon{a, b})
	if !ok || code != "FIRST" {
		t.Fatalf("Assign = %q, %v; want FIRST", code, ok)
	}
	if _, ok := Assign(geo.LngLat{Lng: 0, Lat: 0}, []Polygon{a, b}); ok {
		t.Error("expected no match far away")
	}
}

func TestFetchBuildsWithinBoxQuery(t *testing.T) {
	src := &fakeSource{rows: []json.RawMessage{
		json.RawMessage(`{"shape":` + squareShape + `,"zone":"RC-G"}`),
		json.RawMessage(`{"zone":"no geometry"}`),
	}}
	box := &geo.BBox{Top: 51.058, Bottom: 51.038, Left: -114.12, Right: -114.04}

	polys := Fetch(context.Background(), src, "zoning-ds", box)
	if len(polys) != 1 || polys[0].Code != "RC-G" {
		t.Fatalf("polygons = %+v", polys)
	}
	if len(src.queries) != 1 {
		t.Fatalf("queries = %d, want 1", len(src.queries))
	}
	q := src.queries[0]
	if q.Limit != RowLimit || q.Timeout != FetchTimeout {
		t.Errorf("query = %+v", q)
	}
	if !strings.HasPrefix(q.Where, "within_box(shape, -114.04, 51.038, -114.12, 51.058") {
		t.Errorf("where = %q", q.Where)
	}
}

func TestFetchDegradesToNothing(t *testing.T) {
	box := &geo.BBox{Top: 51.058, Bottom: 51.038, Left: -114.12, Right: -114.04}

	if got := Fetch(context.Background(), &fakeSource{err: errors.New("boom")}, "z", box); got != nil {
		t.Errorf("error fetch = %v, want nil", got)
	}
	if got := Fetch(context.Background(), &fakeSource{}, "z", nil); got != nil {
		t.Errorf("nil bbox = %v, want nil", got)
	}
	inverted := &geo.BBox{Top: 51.0, Bottom: 51.1, Left: -114.12, Right: -114.04}
	src := &fakeSource{}
	if got := Fetch(context.Background(), src, "z", inverted); got != nil || len(src.queries) != 0 {
		t.Errorf("inverted bbox fetched %d times", len(src.queries))
	}
}
