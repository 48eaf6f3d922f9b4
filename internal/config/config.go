// Package config loads and validates the project-level .impactgraph.yaml
// file that tunes the memo cache, coupling thresholds, watcher debounce,
// and initial-build concurrency.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ConfigFileName is the project-level configuration file the session
// looks for in the project root.
const ConfigFileName = ".impactgraph.yaml"

// Config controls the tunables spec.md leaves as defaults: memo cache
// size, coupling thresholds, watcher debounce, and build concurrency.
type Config struct {
	// MemoCacheSize bounds the LRU impact-result cache (spec §4.D default 500).
	MemoCacheSize int `yaml:"memo_cache_size,omitempty" validate:"omitempty,min=1"`

	// DebounceMillis is the watcher's per-path coalescing window in
	// milliseconds (spec §4.G default 1500).
	DebounceMillis int `yaml:"debounce_millis,omitempty" validate:"omitempty,min=0"`

	// BuildConcurrency bounds parallel file reads during the initial
	// build (spec §5 default 100).
	BuildConcurrency int `yaml:"build_concurrency,omitempty" validate:"omitempty,min=1"`

	// Ignore lists extra skip globs. It is parsed and validated only: file
	// discovery and the watcher apply the baseline skip set and .gitignore,
	// and do not read this list.
	Ignore []string `yaml:"ignore,omitempty" validate:"dive,min=1"`

	// MinDependents floors getHubFiles' reverse fan-in so very large
	// graphs don't report trivially-connected leaf files as hubs at low
	// topN values (spec §6 getHubFiles).
	MinDependents int `yaml:"min_dependents,omitempty" validate:"omitempty,min=0"`

	// Overrides supplies language-plugin configuration the filesystem
	// can't derive alone, notably JS/TS path aliases (spec §4.A).
	Overrides OverridesConfig `yaml:"overrides,omitempty"`

	// Coupling tunes the change-coupling miner's thresholds (spec §4.H).
	Coupling CouplingConfig `yaml:"coupling,omitempty"`
}

// OverridesConfig carries per-language hints plugins cannot infer from
// the filesystem alone.
type OverridesConfig struct {
	// JSAliases maps a JS/TS import alias prefix (e.g. "@/") to the
	// source-relative directory it resolves to, sourced from this config
	// rather than tsconfig.json (spec §4.A JS/TS resolution order).
	JSAliases map[string]string `yaml:"js_aliases,omitempty"`
}

// CouplingConfig tunes the change-coupling miner (spec §4.H defaults).
type CouplingConfig struct {
	CommitLimit       int     `yaml:"commit_limit,omitempty" validate:"omitempty,min=1"`
	MaxFilesPerCommit int     `yaml:"max_files_per_commit,omitempty" validate:"omitempty,min=1"`
	MinSupport        int     `yaml:"min_support,omitempty" validate:"omitempty,min=1"`
	MinConfidence     float64 `yaml:"min_confidence,omitempty" validate:"omitempty,min=0,max=1"`
}

// DefaultConfig returns a Config with spec.md's documented defaults.
func DefaultConfig() *Config {
	return &Config{
		MemoCacheSize:    500,
		DebounceMillis:   1500,
		BuildConcurrency: 100,
		MinDependents:    1,
		Coupling: CouplingConfig{
			CommitLimit:       500,
			MaxFilesPerCommit: 20,
			MinSupport:        3,
			MinConfidence:     0.3,
		},
	}
}

// Load reads .impactgraph.yaml from dir, filling in spec.md's defaults
// for any field left unset. A missing file is not an error — it yields
// DefaultConfig() (spec §6: project-level configuration is read lazily
// and cached, never required).
func Load(dir string) (*Config, error) {
	configPath := filepath.Join(dir, ConfigFileName)

	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	return cfg, nil
}

// Exists reports whether dir carries a .impactgraph.yaml.
func Exists(dir string) bool {
	_, err := os.Stat(filepath.Join(dir, ConfigFileName))
	return err == nil
}
