// Package config loads user-overridable apictx settings from .apictx.yaml
// in the scanned root. Every field is optional; a missing or unreadable
// file yields defaults.
package config

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the per-package override file read from the scanned root.
const FileName = ".apictx.yaml"

// DefaultWorkers is the parse-pool size when neither flag nor config set one.
const DefaultWorkers = 4

// DefaultOverfetchFloor is the minimum candidate-pool size for
// approximate queries.
const DefaultOverfetchFloor = 50

// Config holds the .apictx.yaml document.
type Config struct {
	Extract  ExtractConfig  `yaml:"extract"`
	Search   SearchConfig   `yaml:"search"`
	Validate ValidateConfig `yaml:"validate"`
}

// ExtractConfig holds discovery and scheduling settings.
type ExtractConfig struct {
	// Workers is the parse pool size. <=0 means NumCPU.
	Workers *int `yaml:"workers"`

	// ExcludeDirs are directory names or globs to skip in addition to the
	// built-in ignore set.
	ExcludeDirs []string `yaml:"exclude_dirs"`
}

// SearchConfig holds approximate-query settings.
type SearchConfig struct {
	// OverfetchFloor is the minimum candidate-pool size fetched before
	// post-filters run. The pool is max(floor, limit*5).
	OverfetchFloor *int `yaml:"overfetch_floor"`
}

// ValidateConfig holds validator settings.
type ValidateConfig struct {
	// AllowOverloadDuplicates exempts overload stubs from duplicate-FQN
	// detection. Default: true.
	AllowOverloadDuplicates *bool `yaml:"allow_overload_duplicates"`
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{}
}

// Load reads .apictx.yaml from the given directory.
// Returns defaults if the file doesn't exist or doesn't parse.
func Load(dir string) *Config {
	cfg := Default()

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	if err != nil {
		return cfg
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return Default()
	}

	return cfg
}

// EffectiveWorkers returns the configured parse-pool size, or
// DefaultWorkers if not set.
func (c *Config) EffectiveWorkers() int {
	if c.Extract.Workers != nil {
		return *c.Extract.Workers
	}
	return DefaultWorkers
}

// EffectiveOverfetchFloor returns the configured candidate-pool floor, or
// DefaultOverfetchFloor if not set or nonsensical.
func (c *Config) EffectiveOverfetchFloor() int {
	if c.Search.OverfetchFloor != nil && *c.Search.OverfetchFloor > 0 {
		return *c.Search.OverfetchFloor
	}
	return DefaultOverfetchFloor
}

// EffectiveAllowOverloadDuplicates returns the overload exemption setting,
// or true if not set.
func (c *Config) EffectiveAllowOverloadDuplicates() bool {
	if c.Validate.AllowOverloadDuplicates != nil {
		return *c.Validate.AllowOverloadDuplicates
	}
	return true
}
