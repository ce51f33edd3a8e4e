// Package api serves the building, filter and natural-language query endpoints.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/EmpoweredVote/EV-CityMap/internal/buildings"
	"github.com/EmpoweredVote/EV-CityMap/internal/filters"
	"github.com/EmpoweredVote/EV-CityMap/internal/geo"
	"github.com/EmpoweredVote/EV-CityMap/internal/logger"
	"github.com/go-chi/chi/v5"
)

// Fetcher loads buildings from the footprint source.
type Fetcher interface {
	Fetch(ctx context.Context, datasetID string, limit int, bbox *geo.BBox, zoningDatasetID string) (*buildings.Envelope, error)
	FetchByID(ctx context.Context, datasetID, id string) (*buildings.Building, error)
}

// Translator turns a free-text query into at most one filter.
type Translator interface {
	Translate(ctx context.Context, query string) *filters.Filter
}

// Options carries the dataset settings the handlers fetch with.
type Options struct {
	HeightDataset string
	ZoningDataset string
	DatasetLimit  int
	// Downtown is the default bbox. Nil disables bbox filtering and zoning enrichment.
	Downtown *geo.BBox
}

// Handlers serves the API endpoints.
type Handlers struct {
	opts       Options
	fetcher    Fetcher
	translator Translator
}

// NewHandlers wires the endpoints to their collaborators.
func NewHandlers(opts Options, fetcher Fetcher, translator Translator) *Handlers {
	return &Handlers{opts: opts, fetcher: fetcher, translator: translator}
}

func (h *Handlers) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// BuildingsHandler returns the envelope for the downtown box, or for the box given by
// the top/bottom/left/right query parameters when all four are valid.
func (h *Handlers) BuildingsHandler(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	bbox := h.opts.Downtown
	if b, ok := geo.ParseBBox(q.Get("top"), q.Get("bottom"), q.Get("left"), q.Get("right")); ok {
		bbox = b
	}
	limit := h.opts.DatasetLimit
	if n, err := strconv.Atoi(q.Get("limit")); err == nil && n > 0 {
		limit = n
	}

	env, err := h.fetcher.Fetch(r.Context(), h.opts.HeightDataset, limit, bbox, h.opts.ZoningDataset)
	if err != nil {
		logger.Component("api").Error().Err(err).Msg("fetch buildings failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"error":     err.Error(),
			"buildings": []buildings.Building{},
			"count":     0,
		})
		return
	}
	writeJSON(w, http.StatusOK, env)
}

func (h *Handlers) BuildingHandler(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	b, err := h.fetcher.FetchByID(r.Context(), h.opts.HeightDataset, id)
	if errors.Is(err, buildings.ErrNotFound) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "Building not found"})
		return
	}
	if err != nil {
		logger.Component("api").Error().Err(err).Str("id", id).Msg("fetch building failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, b)
}

// FilterHandler fetches buildings and applies the posted filters.
func (h *Handlers) FilterHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Filters json.RawMessage `json:"filters"`
		Limit   *int            `json:"limit"`
	}
	_ = json.NewDecoder(r.Body).Decode(&input)

	fs := decodeFilters(input.Filters)
	limit := h.opts.DatasetLimit
	if input.Limit != nil && *input.Limit > 0 {
		limit = *input.Limit
	}

	env, err := h.fetcher.Fetch(r.Context(), h.opts.HeightDataset, limit, h.opts.Downtown, h.opts.ZoningDataset)
	if err != nil {
		logger.Component("api").Error().Err(err).Msg("fetch buildings failed in filter")
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"error":     err.Error(),
			"buildings": []buildings.Building{},
			"count":     0,
			"filters":   fs,
		})
		return
	}

	filtered := filters.Apply(env.Buildings, fs)
	writeJSON(w, http.StatusOK, map[string]any{
		"count":     len(filtered),
		"filters":   fs,
		"buildings": filtered,
	})
}

// QueryHandler translates the posted query into a filter and applies it.
func (h *Handlers) QueryHandler(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Query string `json:"query"`
	}
	_ = json.NewDecoder(r.Body).Decode(&input)

	query := strings.TrimSpace(input.Query)
	if query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":     "Missing 'query' in body",
			"filters":   []filters.Filter{},
			"buildings": []buildings.Building{},
		})
		return
	}

	fs := []filters.Filter{}
	if f := h.translator.Translate(r.Context(), query); f != nil {
		fs = append(fs, *f)
	}

	env, err := h.fetcher.Fetch(r.Context(), h.opts.HeightDataset, h.opts.DatasetLimit, h.opts.Downtown, h.opts.ZoningDataset)
	if err != nil {
		logger.Component("api").Error().Err(err).Msg("fetch buildings failed in query")
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"error":     err.Error(),
			"query":     query,
			"filters":   fs,
			"buildings": []buildings.Building{},
			"count":     0,
		})
		return
	}

	result := filters.Apply(env.Buildings, fs)
	writeJSON(w, http.StatusOK, map[string]any{
		"query":     query,
		"filters":   fs,
		"count":     len(result),
		"buildings": result,
	})
}

// decodeFilters reads a JSON array of filters. Anything other than an array yields no
// filters and elements that are not filter objects are dropped.
func decodeFilters(raw json.RawMessage) []filters.Filter {
	out := []filters.Filter{}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '[' {
		return out
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return out
	}
	for _, item := range items {
		var f filters.Filter
		if err := json.Unmarshal(item, &f); err != nil {
			continue
		}
		out = append(out, f)
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		logger.LogError("api", "encode", err)
		status = http.StatusInternalServerError
		body = []byte(`{"error":"Internal server error"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(append(body, '\n'))
}
