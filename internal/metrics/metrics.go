package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	OutboundRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "citymap_outbound_requests_total",
		Help: "Outbound requests by source and result",
	}, []string{"source", "result"})
	OutboundDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "citymap_outbound_duration_ms",
		Help:    "Outbound request duration in milliseconds",
		Buckets: []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
	}, []string{"source"})
	RowCacheTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "citymap_row_cache_total",
		Help: "Row cache lookups by result (hit/miss)",
	}, []string{"result"})
	BuildingsNormalizedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "citymap_buildings_normalized_total",
		Help: "Raw features normalized into buildings",
	})
	RowsSkippedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "citymap_rows_skipped_total",
		Help: "Source rows skipped because their shape was not recognized",
	})
	ZoningEnrichmentTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "citymap_zoning_enrichment_total",
		Help: "Zoning enrichment runs by outcome (applied/skipped)",
	}, []string{"outcome"})
	ZoningAssignedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "citymap_zoning_assigned_total",
		Help: "Buildings that received a zoning code from the spatial join",
	})
	FilterStepsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "citymap_filter_steps_total",
		Help: "Filter steps by outcome (applied/skipped)",
	}, []string{"outcome"})
	TranslationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "citymap_translations_total",
		Help: "Natural-language translations by outcome (model/fallback/none)",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(OutboundRequestsTotal)
	prometheus.MustRegister(OutboundDurationMs)
	prometheus.MustRegister(RowCacheTotal)
	prometheus.MustRegister(BuildingsNormalizedTotal)
	prometheus.MustRegister(RowsSkippedTotal)
	prometheus.MustRegister(ZoningEnrichmentTotal)
	prometheus.MustRegister(ZoningAssignedTotal)
	prometheus.MustRegister(FilterStepsTotal)
	prometheus.MustRegister(TranslationsTotal)
}

// Handler exposes the registered metrics for scraping.
func Handler() http.Handler { return promhttp.Handler() }
