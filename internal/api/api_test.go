package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/EmpoweredVote/EV-CityMap/internal/buildings"
	"github.com/EmpoweredVote/EV-CityMap/internal/geo"
	"github.com/EmpoweredVote/EV-CityMap/internal/nlquery"
	"github.com/EmpoweredVote/EV-CityMap/internal/opendata"
)

type fakeSource struct {
	rows []json.RawMessage
	err  error
	last opendata.Query
}

func (f *fakeSource) Rows(_ context.Context, _ string, q opendata.Query) ([]json.RawMessage, error) {
	f.last = q
	return f.rows, f.err
}

// row builds a small square footprint with rooftop - ground = heightM.
func row(id string, lng, lat, heightM float64, zoning string) json.RawMessage {
	d := 0.0002
	s := fmt.Sprintf(`{"struct_id":%q,"rooftop_elev_z":%g,"grd_elev_max_z":1000,"polygon":{"type":"Polygon","coordinates":[[[%g,%g],[%g,%g],[%g,%g],[%g,%g]]]}`,
		id, 1000+heightM, lng-d, lat-d, lng+d, lat-d, lng+d, lat+d, lng-d, lat+d)
	if zoning != "" {
		s += fmt.Sprintf(`,"zoning":%q`, zoning)
	}
	return json.RawMessage(s + "}")
}

func newTestServer(src *fakeSource) http.Handler {
	h := NewHandlers(Options{
		HeightDataset: "cchr-krqg",
		DatasetLimit:  70,
		Downtown:      &geo.BBox{Top: 51.058, Bottom: 51.038, Left: -114.12, Right: -114.04},
	}, buildings.NewPipeline(src), nlquery.NewTranslator(nil))
	return SetupRoutes(h)
}

func defaultSource() *fakeSource {
	return &fakeSource{rows: []json.RawMessage{
		row("tower", -114.065, 51.046, 60, "CR20-C20/R20"),
		row("house", -114.07, 51.05, 8, "RC-G"),
		row("far", -113.9, 51.2, 90, ""),
	}}
}

func request(t *testing.T, h http.Handler, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode %s: %v", rec.Body.String(), err)
	}
	return rec, out
}

func TestHealth(t *testing.T) {
	rec, out := request(t, newTestServer(defaultSource()), http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK || out["status"] != "ok" {
		t.Fatalf("health = %d %v", rec.Code, out)
	}
}

func TestBuildingsUsesDowntownBox(t *testing.T) {
	rec, out := request(t, newTestServer(defaultSource()), http.MethodGet, "/buildings", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	if out["count"].(float64) != 2 {
		t.Errorf("count = %v", out["count"])
	}
	origin := out["origin"].(map[string]any)
	if origin["lat"].(float64) != geo.OriginLat || origin["lng"].(float64) != geo.OriginLng {
		t.Errorf("origin = %v", origin)
	}
}

func TestBuildingsQueryOverrides(t *testing.T) {
	h := newTestServer(defaultSource())

	_, out := request(t, h, http.MethodGet, "/buildings?top=51.3&bottom=51.1&left=-114&right=-113.8", "")
	if out["count"].(float64) != 1 {
		t.Errorf("custom box count = %v", out["count"])
	}

	_, out = request(t, h, http.MethodGet, "/buildings?limit=1", "")
	if out["count"].(float64) != 1 {
		t.Errorf("limit count = %v", out["count"])
	}
}

func TestBuildingsSourceFailure(t *testing.T) {
	src := &fakeSource{err: fmt.Errorf("%w: status 500", opendata.ErrStatus)}
	rec, out := request(t, newTestServer(src), http.MethodGet, "/buildings", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("code = %d", rec.Code)
	}
	if out["count"].(float64) != 0 || len(out["buildings"].([]any)) != 0 || out["error"] == "" {
		t.Errorf("body = %v", out)
	}
}

func TestBuildingsNonFiniteHeightStaysAbsent(t *testing.T) {
	src := defaultSource()
	src.rows = append(src.rows, json.RawMessage(
		`{"struct_id":"bad","rooftop_elev_z":"NaN","grd_elev_max_z":"1000","polygon":{"type":"Polygon","coordinates":[[[-114.06,51.045],[-114.059,51.045],[-114.059,51.046],[-114.06,51.046]]]}}`))

	rec, out := request(t, newTestServer(src), http.MethodGet, "/buildings", "")
	if rec.Code != http.StatusOK || out["count"].(float64) != 3 {
		t.Fatalf("buildings = %d %v", rec.Code, out["count"])
	}
	for _, b := range out["buildings"].([]any) {
		b := b.(map[string]any)
		if b["id"] == "bad" && b["height_m"] != nil {
			t.Errorf("height_m = %v, want null", b["height_m"])
		}
	}
}

func TestWriteJSONEncodeFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusOK, map[string]any{"v": math.NaN()})
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("code = %d", rec.Code)
	}
	var out map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil || out["error"] == nil {
		t.Fatalf("body = %q", rec.Body.String())
	}
}

func TestBuildingByID(t *testing.T) {
	h := newTestServer(defaultSource())

	rec, out := request(t, h, http.MethodGet, "/buildings/far", "")
	if rec.Code != http.StatusOK || out["id"] != "far" {
		t.Fatalf("lookup = %d %v", rec.Code, out)
	}

	rec, out = request(t, h, http.MethodGet, "/buildings/missing", "")
	if rec.Code != http.StatusNotFound || out["error"] != "Building not found" {
		t.Fatalf("missing = %d %v", rec.Code, out)
	}

	rec, _ = request(t, newTestServer(&fakeSource{err: errors.New("down")}), http.MethodGet, "/buildings/x", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("failure = %d", rec.Code)
	}
}

func TestFilterEndpoint(t *testing.T) {
	h := newTestServer(defaultSource())

	rec, out := request(t, h, http.MethodPost, "/filter", `{"filters":[{"attribute":"height_ft","operator":">","value":"100"},"junk"]}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	if out["count"].(float64) != 1 {
		t.Fatalf("count = %v", out["count"])
	}
	first := out["buildings"].([]any)[0].(map[string]any)
	if first["id"] != "tower" {
		t.Errorf("survivor = %v", first["id"])
	}
	if fs := out["filters"].([]any); len(fs) != 1 {
		t.Errorf("filters echoed = %v", fs)
	}

	_, out = request(t, h, http.MethodPost, "/filter", `{"filters":"nope"}`)
	if out["count"].(float64) != 2 || len(out["filters"].([]any)) != 0 {
		t.Errorf("non-array filters = %v", out)
	}
}

func TestQueryEndpoint(t *testing.T) {
	h := newTestServer(defaultSource())

	rec, out := request(t, h, http.MethodPost, "/query", `{"query":"buildings over 100 feet"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	fs := out["filters"].([]any)
	if len(fs) != 1 {
		t.Fatalf("filters = %v", fs)
	}
	f := fs[0].(map[string]any)
	if f["attribute"] != "height_ft" || f["operator"] != ">" || f["value"].(float64) != 100 {
		t.Errorf("filter = %v", f)
	}
	if out["count"].(float64) != 1 || out["query"] != "buildings over 100 feet" {
		t.Errorf("body = %v", out)
	}

	_, out = request(t, h, http.MethodPost, "/query", `{"query":"show rc-g"}`)
	if out["count"].(float64) != 1 {
		t.Errorf("zoning query count = %v", out["count"])
	}

	_, out = request(t, h, http.MethodPost, "/query", `{"query":"pretty buildings"}`)
	if out["count"].(float64) != 2 || len(out["filters"].([]any)) != 0 {
		t.Errorf("no-filter query = %v", out)
	}

	rec, _ = request(t, h, http.MethodPost, "/query", `{"query":"  "}`)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("empty query code = %d", rec.Code)
	}
}
