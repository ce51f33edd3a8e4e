// Package app assembles the fetch pipeline and translator from configuration. It is
// shared by the HTTP server and the cityctl CLI.
package app

import (
	"fmt"
	"time"

	"github.com/EmpoweredVote/EV-CityMap/internal/api"
	"github.com/EmpoweredVote/EV-CityMap/internal/buildings"
	"github.com/EmpoweredVote/EV-CityMap/internal/cache"
	"github.com/EmpoweredVote/EV-CityMap/internal/config"
	"github.com/EmpoweredVote/EV-CityMap/internal/logger"
	"github.com/EmpoweredVote/EV-CityMap/internal/nlquery"
	"github.com/EmpoweredVote/EV-CityMap/internal/opendata"

	_ "github.com/EmpoweredVote/EV-CityMap/internal/nlquery/huggingface"
)

// App holds the collaborators built from one Config.
type App struct {
	Config     config.Config
	Source     *opendata.Client
	Pipeline   *buildings.Pipeline
	Translator *nlquery.Translator
}

// New builds the open-data client, pipeline and translator. A translator without a
// configured model uses the fallback parser only.
func New(cfg config.Config) (*App, error) {
	rows, err := cache.New(cache.Options{
		Backend:       cfg.CacheBackend,
		TTL:           time.Duration(cfg.CacheTTLSeconds) * time.Second,
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
	})
	if err != nil {
		return nil, fmt.Errorf("row cache: %w", err)
	}

	opts := []opendata.Option{opendata.WithRateLimit(cfg.OutboundRPS)}
	if rows != nil {
		opts = append(opts, opendata.WithCache(rows))
	}
	src := opendata.NewClient(cfg.OpenDataBaseURL, cfg.DatasetToken, opts...)

	return &App{
		Config:     cfg,
		Source:     src,
		Pipeline:   buildings.NewPipeline(src),
		Translator: nlquery.NewTranslator(newGenerator(cfg)),
	}, nil
}

// APIOptions returns the dataset settings for the HTTP handlers.
func (a *App) APIOptions() api.Options {
	return api.Options{
		HeightDataset: a.Config.HeightDataset,
		ZoningDataset: a.Config.ZoningDataset,
		DatasetLimit:  a.Config.DatasetLimit,
		Downtown:      a.Config.DowntownBBox(),
	}
}

func newGenerator(cfg config.Config) nlquery.Generator {
	l := logger.Component("nlquery")
	if !cfg.ModelConfigured() {
		l.Info().Msg("no inference token configured, using fallback parser only")
		return nil
	}
	gen, err := nlquery.NewGenerator(nlquery.GeneratorConfig{
		Generator: nlquery.GeneratorType(cfg.Generator),
		Model:     cfg.Model,
		Token:     cfg.InferenceToken,
		BaseURL:   cfg.InferenceBaseURL,
	})
	if err != nil {
		l.Warn().Err(err).Msg("generator unavailable, using fallback parser only")
		return nil
	}
	l.Info().Str("generator", gen.Name()).Str("model", cfg.Model).Msg("generator ready")
	return gen
}
