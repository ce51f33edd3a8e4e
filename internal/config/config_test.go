package config

import (
	"os"
	"path/filepath"
	"testing"
)

func envFrom(m map[string]string) func(string) (string, bool) {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestApplyEnvOverridesDefaults(t *testing.T) {
	cfg := Default()
	cfg.applyEnv(envFrom(map[string]string{
		"PORT":                  "8080",
		"HEIGHT_DATA":           "abcd-1234",
		"ZONING_DATASET":        " ckwt-snq8 ",
		"DATASET_LIMIT":         "25",
		"DOWNTOWN_TOP":          "51.1",
		"HUGGINGFACE_API_TOKEN": "tok",
		"CACHE_BACKEND":         "Memory",
		"ALLOWED_ORIGINS":       "http://a.example, http://b.example,",
	}))

	if cfg.Port != "8080" {
		t.Errorf("Port = %q", cfg.Port)
	}
	if cfg.HeightDataset != "abcd-1234" {
		t.Errorf("HeightDataset = %q", cfg.HeightDataset)
	}
	if cfg.ZoningDataset != "ckwt-snq8" {
		t.Errorf("ZoningDataset = %q", cfg.ZoningDataset)
	}
	if cfg.DatasetLimit != 25 {
		t.Errorf("DatasetLimit = %d", cfg.DatasetLimit)
	}
	if cfg.Downtown == nil || cfg.Downtown.Top != 51.1 || cfg.Downtown.Bottom != 51.038 {
		t.Errorf("Downtown = %+v", cfg.Downtown)
	}
	if cfg.InferenceToken != "tok" || !cfg.ModelConfigured() {
		t.Errorf("InferenceToken = %q", cfg.InferenceToken)
	}
	if cfg.CacheBackend != "memory" {
		t.Errorf("CacheBackend = %q", cfg.CacheBackend)
	}
	if len(cfg.AllowedOrigins) != 2 || cfg.AllowedOrigins[1] != "http://b.example" {
		t.Errorf("AllowedOrigins = %v", cfg.AllowedOrigins)
	}
}

func TestApplyEnvTokenPrecedence(t *testing.T) {
	cfg := Default()
	cfg.applyEnv(envFrom(map[string]string{
		"HF_API_TOKEN":        "first",
		"HUGGINGFACE_API_KEY": "third",
	}))
	if cfg.InferenceToken != "first" {
		t.Errorf("InferenceToken = %q, want first", cfg.InferenceToken)
	}
}

func TestApplyEnvMalformedValues(t *testing.T) {
	cfg := Default()
	cfg.applyEnv(envFrom(map[string]string{
		"DATASET_LIMIT":   "lots",
		"DOWNTOWN_BOTTOM": "south-ish",
	}))
	if cfg.DatasetLimit != DefaultDatasetLimit {
		t.Errorf("DatasetLimit = %d", cfg.DatasetLimit)
	}
	if cfg.Downtown != nil {
		t.Errorf("expected malformed box to be dropped, got %+v", cfg.Downtown)
	}
	if len(cfg.Warnings) != 2 {
		t.Errorf("Warnings = %v", cfg.Warnings)
	}
	if cfg.ModelConfigured() {
		t.Error("model should not be configured without a token")
	}
}

func TestMergeFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := []byte("zoning_dataset: ckwt-snq8\ndataset_limit: 10\ndowntown:\n  top: 52\n  bottom: 50\n  left: -115\n  right: -113\n")
	if err := os.WriteFile(path, body, 0o600); err != nil {
		t.Fatal(err)
	}

	cfg := Default()
	if err := cfg.mergeFile(path); err != nil {
		t.Fatalf("mergeFile: %v", err)
	}
	if cfg.ZoningDataset != "ckwt-snq8" || cfg.DatasetLimit != 10 {
		t.Errorf("got %+v", cfg)
	}
	if cfg.Downtown.Top != 52 || cfg.Downtown.Left != -115 {
		t.Errorf("Downtown = %+v", cfg.Downtown)
	}
	if cfg.HeightDataset != DefaultHeightDataset {
		t.Errorf("HeightDataset should keep default, got %q", cfg.HeightDataset)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "nope.yaml"))
	if _, err := Load(); err == nil {
		t.Fatal("expected error for missing explicit config file")
	}
}
