package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/EmpoweredVote/EV-CityMap/internal/geo"
	"github.com/goccy/go-yaml"
)

// Defaults for the Calgary open-data deployment.
const (
	DefaultPort             = "5000"
	DefaultOpenDataBaseURL  = "https://data.calgary.ca/resource"
	DefaultHeightDataset    = "cchr-krqg"
	DefaultDatasetLimit     = 70
	DefaultInferenceBaseURL = "https://api-inference.huggingface.co/models"
	DefaultModel            = "google/flan-t5-large"
	DefaultGenerator        = "huggingface"
	DefaultCacheTTLSeconds  = 300
	DefaultRedisAddr        = "127.0.0.1:6379"
	DefaultOutboundRPS      = 5.0
)

// Box is the configured downtown window in lat/lng degrees.
type Box struct {
	Top    float64 `yaml:"top"`
	Bottom float64 `yaml:"bottom"`
	Left   float64 `yaml:"left"`
	Right  float64 `yaml:"right"`
}

// Config holds process configuration. Field tags name the keys accepted in the YAML file.
type Config struct {
	Port        string `yaml:"port"`
	DatabaseURL string `yaml:"database_url"`

	OpenDataBaseURL string `yaml:"opendata_base_url"`
	HeightDataset   string `yaml:"height_dataset"`
	// Land-use district dataset (e.g. ckwt-snq8). Empty disables zoning enrichment.
	ZoningDataset string `yaml:"zoning_dataset"`
	DatasetLimit  int    `yaml:"dataset_limit"`
	DatasetToken  string `yaml:"dataset_token"`
	Downtown      *Box   `yaml:"downtown"`

	InferenceToken   string `yaml:"inference_token"`
	InferenceBaseURL string `yaml:"inference_base_url"`
	Model            string `yaml:"model"`
	Generator        string `yaml:"generator"`

	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	CacheBackend    string `yaml:"cache_backend"`
	CacheTTLSeconds int    `yaml:"cache_ttl_seconds"`
	RedisAddr       string `yaml:"redis_addr"`
	RedisPassword   string `yaml:"redis_password"`
	RedisDB         int    `yaml:"redis_db"`

	OutboundRPS    float64  `yaml:"outbound_rps"`
	RateLimitRPS   float64  `yaml:"rate_limit_rps"`
	AllowedOrigins []string `yaml:"allowed_origins"`

	// Warnings collects env values that were present but could not be parsed.
	Warnings []string `yaml:"-"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Port:             DefaultPort,
		OpenDataBaseURL:  DefaultOpenDataBaseURL,
		HeightDataset:    DefaultHeightDataset,
		DatasetLimit:     DefaultDatasetLimit,
		Downtown:         &Box{Top: 51.058, Bottom: 51.038, Left: -114.12, Right: -114.04},
		InferenceBaseURL: DefaultInferenceBaseURL,
		Model:            DefaultModel,
		Generator:        DefaultGenerator,
		LogLevel:         "info",
		LogFormat:        "console",
		CacheBackend:     "none",
		CacheTTLSeconds:  DefaultCacheTTLSeconds,
		RedisAddr:        DefaultRedisAddr,
		OutboundRPS:      DefaultOutboundRPS,
		AllowedOrigins: []string{
			"http://localhost:5173",
			"http://localhost:5174",
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file and the environment.
//
// Environment variables:
//   - CONFIG_FILE: YAML file path (default: config.yaml, skipped when absent)
//   - PORT, DATABASE_URL
//   - OPENDATA_BASE_URL, HEIGHT_DATA, ZONING_DATASET, DATASET_LIMIT, DATASET_API
//   - DOWNTOWN_TOP, DOWNTOWN_BOTTOM, DOWNTOWN_LEFT, DOWNTOWN_RIGHT
//   - HF_API_TOKEN (or HUGGINGFACE_API_TOKEN, HUGGINGFACE_API_KEY), HUGGINGFACE_MODEL,
//     INFERENCE_BASE_URL, NLQUERY_GENERATOR
//   - LOG_LEVEL, LOG_FORMAT
//   - CACHE_BACKEND, CACHE_TTL_SECONDS, REDIS_ADDR, REDIS_PASSWORD, REDIS_DB
//   - OUTBOUND_RPS, RATE_LIMIT_RPS, ALLOWED_ORIGINS
func Load() (Config, error) {
	cfg := Default()

	path := strings.TrimSpace(os.Getenv("CONFIG_FILE"))
	explicit := path != ""
	if !explicit {
		path = "config.yaml"
	}
	if err := cfg.mergeFile(path); err != nil {
		if explicit || !errors.Is(err, os.ErrNotExist) {
			return cfg, err
		}
	}

	cfg.applyEnv(os.LookupEnv)
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	integer := func(key string, dst *int) {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			c.Warnings = append(c.Warnings, fmt.Sprintf("%s=%q is not an integer", key, v))
			return
		}
		*dst = n
	}
	float := func(key string, dst *float64) bool {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return true
		}
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			c.Warnings = append(c.Warnings, fmt.Sprintf("%s=%q is not a number", key, v))
			return false
		}
		*dst = f
		return true
	}

	str("PORT", &c.Port)
	str("DATABASE_URL", &c.DatabaseURL)
	str("OPENDATA_BASE_URL", &c.OpenDataBaseURL)
	str("HEIGHT_DATA", &c.HeightDataset)
	str("ZONING_DATASET", &c.ZoningDataset)
	integer("DATASET_LIMIT", &c.DatasetLimit)
	str("DATASET_API", &c.DatasetToken)

	if c.Downtown != nil {
		box := *c.Downtown
		ok := float("DOWNTOWN_TOP", &box.Top)
		ok = float("DOWNTOWN_BOTTOM", &box.Bottom) && ok
		ok = float("DOWNTOWN_LEFT", &box.Left) && ok
		ok = float("DOWNTOWN_RIGHT", &box.Right) && ok
		if ok {
			c.Downtown = &box
		} else {
			c.Downtown = nil
		}
	}

	for _, key := range []string{"HF_API_TOKEN", "HUGGINGFACE_API_TOKEN", "HUGGINGFACE_API_KEY"} {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			c.InferenceToken = strings.TrimSpace(v)
			break
		}
	}
	str("HUGGINGFACE_MODEL", &c.Model)
	str("INFERENCE_BASE_URL", &c.InferenceBaseURL)
	str("NLQUERY_GENERATOR", &c.Generator)

	str("LOG_LEVEL", &c.LogLevel)
	str("LOG_FORMAT", &c.LogFormat)

	str("CACHE_BACKEND", &c.CacheBackend)
	integer("CACHE_TTL_SECONDS", &c.CacheTTLSeconds)
	str("REDIS_ADDR", &c.RedisAddr)
	str("REDIS_PASSWORD", &c.RedisPassword)
	integer("REDIS_DB", &c.RedisDB)

	float("OUTBOUND_RPS", &c.OutboundRPS)
	float("RATE_LIMIT_RPS", &c.RateLimitRPS)
	if v, ok := lookup("ALLOWED_ORIGINS"); ok && strings.TrimSpace(v) != "" {
		var origins []string
		for _, o := range strings.Split(v, ",") {
			if o = strings.TrimSpace(o); o != "" {
				origins = append(origins, o)
			}
		}
		c.AllowedOrigins = origins
	}

	c.CacheBackend = strings.ToLower(c.CacheBackend)
	c.Generator = strings.ToLower(c.Generator)
	if c.DatasetLimit <= 0 {
		c.DatasetLimit = DefaultDatasetLimit
	}
}

// ModelConfigured reports whether the natural-language translator can call a model.
func (c Config) ModelConfigured() bool {
	return c.InferenceToken != "" && c.Model != ""
}

// DowntownBBox returns the configured default box, or nil when it is unset or invalid.
func (c Config) DowntownBBox() *geo.BBox {
	if c.Downtown == nil {
		return nil
	}
	b := geo.BBox{Top: c.Downtown.Top, Bottom: c.Downtown.Bottom, Left: c.Downtown.Left, Right: c.Downtown.Right}
	if !b.Valid() {
		return nil
	}
	return &b
}
