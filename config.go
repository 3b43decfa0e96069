package hollow

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"

	defaults "github.com/Paranoid-AF/hollow/default"
)

// Config represents the user's hollow configuration.
type Config struct {
	Version int         `json:"version"`
	Specs   SpecsConfig `json:"specs"`
	Files   FilesConfig `json:"files"`
}

// SpecsConfig holds settings for loading service specifications.
type SpecsConfig struct {
	// Dir is a botocore-style data directory: <dir>/<service>/<version>/service-2.json.
	Dir          string `json:"dir"`
	ResolveDepth int    `json:"resolve_depth,omitempty"`
	// Augmentations toggles the embedded overlay operations (e.g. s3 upload_file).
	Augmentations *bool `json:"augmentations,omitempty"`
}

// FilesConfig holds defaults for fixture files.
type FilesConfig struct {
	Format string `json:"format,omitempty"`
	Prefix string `json:"prefix,omitempty"`
}

// ConfigDir returns the config directory path.
// Resolution order: $HOLLOW_CONFIG_DIR > $XDG_CONFIG_HOME/hollow > ~/.config/hollow
func ConfigDir() string {
	if dir := os.Getenv("HOLLOW_CONFIG_DIR"); dir != "" {
		return dir
	}
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "hollow")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join("/tmp", "hollow-config")
	}
	return filepath.Join(home, ".config", "hollow")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.json")
}

// DefaultConfig returns the default configuration from the embedded default_config.json.
func DefaultConfig() *Config {
	var cfg Config
	if err := json.Unmarshal(defaults.DefaultConfigJSON, &cfg); err != nil {
		panic("hollow: invalid embedded default_config.json: " + err.Error())
	}
	return &cfg
}

// LoadConfig loads config from disk or returns defaults if not found.
func LoadConfig() (*Config, error) {
	path := ConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, &ConfigError{Path: path, Err: err}
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, &ConfigError{Path: path, Err: err}
	}

	// Apply defaults for missing fields
	defaults := DefaultConfig()
	if cfg.Specs.Dir == "" {
		cfg.Specs.Dir = defaults.Specs.Dir
	}
	if cfg.Specs.ResolveDepth == 0 {
		cfg.Specs.ResolveDepth = defaults.Specs.ResolveDepth
	}
	if cfg.Specs.Augmentations == nil {
		cfg.Specs.Augmentations = defaults.Specs.Augmentations
	}
	if cfg.Files.Format == "" {
		cfg.Files.Format = defaults.Files.Format
	}

	return &cfg, nil
}

// ValidateConfig checks configuration for potential issues and returns warnings.
func ValidateConfig(cfg *Config) []string {
	var warnings []string
	if cfg == nil {
		return warnings
	}
	if ResolveSpecDir(cfg) == "" {
		warnings = append(warnings, "no service specification directory configured; set HOLLOW_SPEC_DIR or specs.dir")
	}
	switch ResolveFormat(cfg) {
	case "", "yaml", "toml", "json":
	default:
		warnings = append(warnings, "files.format must be one of yaml, toml or json")
	}
	if cfg.Specs.ResolveDepth < 0 {
		warnings = append(warnings, "specs.resolve_depth is negative; every shape will resolve to any")
	}
	return warnings
}

// ResolveSpecDir returns the service specification directory.
// Priority: $HOLLOW_SPEC_DIR env > config value.
func ResolveSpecDir(cfg *Config) string {
	if dir := os.Getenv("HOLLOW_SPEC_DIR"); dir != "" {
		return dir
	}
	if cfg != nil {
		return cfg.Specs.Dir
	}
	return ""
}

// ResolveFormat returns the default fixture file format.
// Priority: $HOLLOW_FORMAT env > config value.
func ResolveFormat(cfg *Config) string {
	if format := os.Getenv("HOLLOW_FORMAT"); format != "" {
		return format
	}
	if cfg != nil {
		return cfg.Files.Format
	}
	return ""
}

// ResolveDepth returns the shape resolution depth bound.
// Priority: $HOLLOW_RESOLVE_DEPTH env > config value > 10.
func ResolveDepth(cfg *Config) int {
	if raw := os.Getenv("HOLLOW_RESOLVE_DEPTH"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			return n
		}
	}
	if cfg != nil && cfg.Specs.ResolveDepth != 0 {
		return cfg.Specs.ResolveDepth
	}
	return 10
}

// AugmentationsEnabled returns whether the embedded operation overlays are applied.
func AugmentationsEnabled(cfg *Config) bool {
	if cfg == nil || cfg.Specs.Augmentations == nil {
		return true // default true
	}
	return *cfg.Specs.Augmentations
}
