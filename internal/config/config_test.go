package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	dir := t.TempDir()

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error for a missing config file: %v", err)
	}
	if cfg.MemoCacheSize != 500 || cfg.DebounceMillis != 1500 || cfg.BuildConcurrency != 100 {
		t.Errorf("expected default tunables, got %+v", cfg)
	}
	if cfg.Coupling.MinSupport != 3 || cfg.Coupling.MinConfidence != 0.3 {
		t.Errorf("expected default coupling thresholds, got %+v", cfg.Coupling)
	}
}

func TestLoad_PartialOverrideKeepsOtherDefaults(t *testing.T) {
	dir := t.TempDir()
	yaml := "memo_cache_size: 50\ncoupling:\n  min_support: 5\n"
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte(yaml), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MemoCacheSize != 50 {
		t.Errorf("expected overridden memo cache size 50, got %d", cfg.MemoCacheSize)
	}
	if cfg.DebounceMillis != 1500 {
		t.Errorf("expected untouched field to keep its default, got %d", cfg.DebounceMillis)
	}
	if cfg.Coupling.MinSupport != 5 {
		t.Errorf("expected overridden coupling.min_support 5, got %d", cfg.Coupling.MinSupport)
	}
	if cfg.Coupling.MinConfidence != 0.3 {
		t.Errorf("expected coupling.min_confidence to keep its default, got %f", cfg.Coupling.MinConfidence)
	}
}

func TestLoad_InvalidYAMLReturnsError(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("not: [valid"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	if _, err := Load(dir); err == nil {
		t.Fatal("expected an error for malformed YAML")
	}
}

func TestExists(t *testing.T) {
	dir := t.TempDir()
	if Exists(dir) {
		t.Fatal("expected Exists to be false before the file is written")
	}
	if err := os.WriteFile(filepath.Join(dir, ConfigFileName), []byte("{}"), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	if !Exists(dir) {
		t.Fatal("expected Exists to be true once the file is written")
	}
}

func TestValidate_RejectsOutOfRangeValues(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MemoCacheSize = -1
	cfg.Coupling.MinConfidence = 1.5

	v := NewValidator()
	err := v.Validate(cfg)
	if err == nil {
		t.Fatal("expected validation to reject a negative memo cache size and an out-of-range confidence")
	}
	if _, ok := err.(*ValidationError); !ok {
		t.Fatalf("expected *ValidationError, got %T", err)
	}
}

func TestValidate_AcceptsDefaults(t *testing.T) {
	v := NewValidator()
	if err := v.Validate(DefaultConfig()); err != nil {
		t.Fatalf("expected the default config to validate cleanly, got %v", err)
	}
}

func TestValidateAndLoad_MissingFileStillValidates(t *testing.T) {
	dir := t.TempDir()
	cfg, err := ValidateAndLoad(dir)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.MemoCacheSize != 500 {
		t.Errorf("expected defaults to be returned, got %+v", cfg)
	}
}
