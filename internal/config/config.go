package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/l3aro/go-flow-graph/pkg/analyze"
	"github.com/l3aro/go-flow-graph/pkg/cache"
	"github.com/l3aro/go-flow-graph/pkg/render"
)

// Config holds all configuration for go-flow-graph
type Config struct {
	// Output format: dot, json, msgpack, toon or table
	Format string `yaml:"format" env:"GFG_FORMAT"`

	// Default graph kind for batch runs: cfg, ddg, pdg or ssa
	Kind string `yaml:"kind" env:"GFG_KIND"`

	// Captions of branch edges
	TrueLabel  string `yaml:"true_label" env:"GFG_TRUE_LABEL"`
	FalseLabel string `yaml:"false_label" env:"GFG_FALSE_LABEL"`

	// SSA rendering: x_1 instead of x₁, and failing on undefined reads
	ASCIIVersions bool `yaml:"ascii_versions" env:"GFG_ASCII_VERSIONS"`
	Strict        bool `yaml:"strict" env:"GFG_STRICT"`

	// Concurrent analyses in batch mode (0 = 2x CPUs)
	Workers int `yaml:"workers" env:"GFG_WORKERS"`

	// Result cache; disabled when CacheDir is empty
	CacheDir  string `yaml:"cache_dir" env:"GFG_CACHE_DIR"`
	CacheSize int    `yaml:"cache_size" env:"GFG_CACHE_SIZE"`

	// Ignore file consulted when scanning directories
	IgnoreFile string `yaml:"ignore_file" env:"GFG_IGNORE_FILE"`

	// Logging
	Verbose bool `yaml:"verbose" env:"GFG_VERBOSE"`
	LogJSON bool `yaml:"log_json" env:"GFG_LOG_JSON"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Format:        string(render.FormatDOT),
		Kind:          string(analyze.KindCFG),
		TrueLabel:     "true",
		FalseLabel:    "false",
		ASCIIVersions: false,
		Strict:        false,
		Workers:       0,
		CacheDir:      "",
		CacheSize:     1000,
		IgnoreFile:    ".gfgignore",
		Verbose:       false,
		LogJSON:       false,
	}
}

// GlobalConfigFilePath returns the global config file path (~/.gfg/config.yaml)
func GlobalConfigFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ProjectConfigFilePath()
	}
	return filepath.Join(home, ".gfg", "config.yaml")
}

// ProjectConfigFilePath returns the project-level config file path (./.gfg/config.yaml)
func ProjectConfigFilePath() string {
	return filepath.Join(".gfg", "config.yaml")
}

// Load reads configuration with the following priority (highest to lowest):
// 1. Environment variables
// 2. Project-level config (./.gfg/config.yaml)
// 3. Global config (~/.gfg/config.yaml)
// 4. Defaults
func Load() (*Config, error) {
	return load(GlobalConfigFilePath(), ProjectConfigFilePath())
}

func load(paths ...string) (*Config, error) {
	cfg := DefaultConfig()

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile reads configuration from a specific YAML file path
func LoadFromFile(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}
	return load(path)
}

// Save writes the configuration to the specified YAML file path.
// It creates parent directories if they don't exist.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides to the config
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("GFG_FORMAT"); v != "" {
		cfg.Format = v
	}
	if v := os.Getenv("GFG_KIND"); v != "" {
		cfg.Kind = v
	}
	if v := os.Getenv("GFG_TRUE_LABEL"); v != "" {
		cfg.TrueLabel = v
	}
	if v := os.Getenv("GFG_FALSE_LABEL"); v != "" {
		cfg.FalseLabel = v
	}
	if v := os.Getenv("GFG_ASCII_VERSIONS"); v != "" {
		cfg.ASCIIVersions = parseBool(v)
	}
	if v := os.Getenv("GFG_STRICT"); v != "" {
		cfg.Strict = parseBool(v)
	}
	if v := os.Getenv("GFG_WORKERS"); v != "" {
		if i := parseInt(v); i > 0 {
			cfg.Workers = i
		}
	}
	if v := os.Getenv("GFG_CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}
	if v := os.Getenv("GFG_CACHE_SIZE"); v != "" {
		if i := parseInt(v); i > 0 {
			cfg.CacheSize = i
		}
	}
	if v := os.Getenv("GFG_IGNORE_FILE"); v != "" {
		cfg.IgnoreFile = v
	}
	if v := os.Getenv("GFG_VERBOSE"); v != "" {
		cfg.Verbose = parseBool(v)
	}
	if v := os.Getenv("GFG_LOG_JSON"); v != "" {
		cfg.LogJSON = parseBool(v)
	}
}

// Validate checks that the configuration has valid required fields
func (c *Config) Validate() error {
	if _, err := render.ParseFormat(c.Format); err != nil {
		return fmt.Errorf("invalid format: %s (must be one of dot, json, msgpack, toon, table)", c.Format)
	}
	if _, err := analyze.ParseKind(c.Kind); err != nil {
		return fmt.Errorf("invalid kind: %s (must be one of cfg, ddg, pdg, ssa)", c.Kind)
	}
	if c.TrueLabel == "" || c.FalseLabel == "" {
		return fmt.Errorf("true_label and false_label must not be empty")
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must be non-negative")
	}
	if c.CacheSize <= 0 {
		return fmt.Errorf("cache_size must be positive")
	}
	return nil
}

// RenderOptions returns the render options the config describes.
func (c *Config) RenderOptions(color bool) render.Options {
	return render.Options{TrueLabel: c.TrueLabel, FalseLabel: c.FalseLabel, Color: color}
}

// CacheFile returns the path of the persisted result cache, or "" when caching is off.
func (c *Config) CacheFile() string {
	if c.CacheDir == "" {
		return ""
	}
	return filepath.Join(c.CacheDir, cache.FileName)
}

// parseBool accepts the usual spellings of true; anything else is false
func parseBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "1", "yes", "on":
		return true
	}
	return false
}

// parseInt attempts to parse a string as int
func parseInt(s string) int {
	var i int
	if _, err := fmt.Sscanf(s, "%d", &i); err != nil {
		return 0
	}
	return i
}
