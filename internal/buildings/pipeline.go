package buildings

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/EmpoweredVote/EV-CityMap/internal/geo"
	"github.com/EmpoweredVote/EV-CityMap/internal/logger"
	"github.com/EmpoweredVote/EV-CityMap/internal/metrics"
	"github.com/EmpoweredVote/EV-CityMap/internal/opendata"
	"github.com/EmpoweredVote/EV-CityMap/internal/zoning"
)

const (
	// SourceRowLimit is the $limit sent for footprint requests.
	SourceRowLimit = 5000
	// FetchTimeout bounds one footprint request.
	FetchTimeout = 60 * time.Second
)

// ErrNotFound is returned by FetchByID when no row carries the requested id.
var ErrNotFound = errors.New("building not found")

// Pipeline turns raw footprint rows into Building envelopes.
type Pipeline struct {
	src opendata.Source
	now func() time.Time
}

// NewPipeline creates a pipeline reading from src.
func NewPipeline(src opendata.Source) *Pipeline {
	return &Pipeline{src: src, now: time.Now}
}

// Fetch loads, normalizes and bbox-filters buildings from datasetID, keeping at most
// limit of them in source order (limit <= 0 keeps all). When zoningDatasetID and bbox
// are both set, buildings without zoning are enriched from that dataset.
func (p *Pipeline) Fetch(ctx context.Context, datasetID string, limit int, bbox *geo.BBox, zoningDatasetID string) (*Envelope, error) {
	l := logger.Component("buildings")

	rows, err := p.src.Rows(ctx, datasetID, opendata.Query{Limit: SourceRowLimit, Timeout: FetchTimeout})
	if err != nil {
		return nil, fmt.Errorf("fetch buildings %s: %w", datasetID, err)
	}

	start := time.Now()
	out := make([]Building, 0)
	skipped := 0
	for _, row := range rows {
		if limit > 0 && len(out) >= limit {
			break
		}
		f, ok := FeatureFromRow(row)
		if !ok {
			skipped++
			continue
		}
		b := Normalize(f)
		metrics.BuildingsNormalizedTotal.Inc()
		if !geo.InBBox(b.Centroid, bbox) {
			continue
		}
		out = append(out, b)
	}
	if skipped > 0 {
		metrics.RowsSkippedTotal.Add(float64(skipped))
	}
	logger.LogTransform("buildings", len(rows), len(out), time.Since(start))

	if zoningDatasetID != "" && bbox != nil {
		polygons := zoning.Fetch(ctx, p.src, zoningDatasetID, bbox)
		assigned := EnrichZoning(out, polygons)
		zoning.RecordOutcome(len(polygons) > 0, assigned)
		l.Debug().Int("polygons", len(polygons)).Int("assigned", assigned).Msg("zoning enrichment")
	}

	l.Debug().
		Str("dataset", datasetID).
		Int("skipped", skipped).
		Int("count", len(out)).
		Msg("buildings fetched")

	return &Envelope{
		Count:         len(out),
		FetchedAtUnix: p.now().Unix(),
		Origin:        geo.Origin(),
		Buildings:     out,
	}, nil
}

// FetchByID scans every row of datasetID and returns the first building whose id
// matches. A matching record without any geometry still yields a building.
func (p *Pipeline) FetchByID(ctx context.Context, datasetID, id string) (*Building, error) {
	rows, err := p.src.Rows(ctx, datasetID, opendata.Query{Limit: SourceRowLimit, Timeout: FetchTimeout})
	if err != nil {
		return nil, fmt.Errorf("fetch building %s: %w", id, err)
	}
	for _, row := range rows {
		f, ok := FeatureFromRow(row)
		if !ok {
			f, ok = flatFeature(row)
		}
		if !ok {
			continue
		}
		if sid, _ := propString(f.Properties, "struct_id"); sid != id {
			continue
		}
		b := Normalize(f)
		return &b, nil
	}
	return nil, ErrNotFound
}
