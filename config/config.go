package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/brettbedarf/resmgr/internal/util"
	"gopkg.in/yaml.v3"
)

// CLI verbosity values accepted by [ConfigOverride.LogLvl]. Out of range
// values are clamped.
const (
	ErrorVerbose = iota + 1
	WarnVerbose
	InfoVerbose
	DebugVerbose
	TraceVerbose
)

// Default configuration constants. See [Config] for field descriptions.
const (
	DefaultLogLvl = util.InfoLevel

	// DefaultArchiveKind is the archive backend used when none is configured
	DefaultArchiveKind = "dir"

	// DefaultPathPrefix is the archive-scheme prefix stripped from requested paths
	DefaultPathPrefix = "__OTR__"

	// DefaultFetchTimeout is the per-request timeout in seconds for remote archives
	DefaultFetchTimeout = 30.0

	DefaultWatch = false

	// DefaultWatchDebounce is the quiet period in seconds before changed
	// paths are reloaded
	DefaultWatchDebounce = 0.1

	DefaultFsName = "resmgr"
	DefaultName   = "resmgr"
)

// Config contains runtime configuration values for the resource manager.
type Config struct {
	MountOptions
	LogLvl        util.LogLevel
	ArchiveKind   string            // Archive backend: dir, zip or http (Default dir)
	MainPath      string            // Location of the main archive (path or base URL)
	PatchesPath   string            // Optional directory of patch archives layered over the main one
	PathPrefix    string            // Archive-scheme prefix stripped before lookup (Default __OTR__)
	HTTPHeaders   map[string]string // Extra request headers for the http archive
	FetchTimeout  float64           // Remote fetch timeout in seconds (Default 30)
	Watch         bool              // Reload changed files of a dir archive (Default false)
	WatchDebounce float64           // Watch quiet period in seconds (Default 0.1)
	MetricsAddr   string            // Listen address for /metrics; empty disables it
}

// FetchTimeoutDuration returns FetchTimeout as a time.Duration
func (c *Config) FetchTimeoutDuration() time.Duration {
	return time.Duration(c.FetchTimeout * float64(time.Second))
}

// WatchDebounceDuration returns WatchDebounce as a time.Duration
func (c *Config) WatchDebounceDuration() time.Duration {
	return time.Duration(c.WatchDebounce * float64(time.Second))
}

// ConfigOverride uses pointer fields to distinguish between unset and zero values
// when loading partial configuration. See [Config] for field descriptions.
type ConfigOverride struct {
	// LogLvl is a CLI style verbosity between 1 (error) and 5 (trace)
	LogLvl        *int              `yaml:"verbose,omitempty" json:"verbose,omitempty"`
	ArchiveKind   *string           `yaml:"archive_kind,omitempty" json:"archive_kind,omitempty"`
	MainPath      *string           `yaml:"main_path,omitempty" json:"main_path,omitempty"`
	PatchesPath   *string           `yaml:"patches_path,omitempty" json:"patches_path,omitempty"`
	PathPrefix    *string           `yaml:"path_prefix,omitempty" json:"path_prefix,omitempty"`
	HTTPHeaders   map[string]string `yaml:"http_headers,omitempty" json:"http_headers,omitempty"`
	FetchTimeout  *float64          `yaml:"fetch_timeout,omitempty" json:"fetch_timeout,omitempty"`
	Watch         *bool             `yaml:"watch,omitempty" json:"watch,omitempty"`
	WatchDebounce *float64          `yaml:"watch_debounce,omitempty" json:"watch_debounce,omitempty"`
	MetricsAddr   *string           `yaml:"metrics_addr,omitempty" json:"metrics_addr,omitempty"`
	FsName        *string           `yaml:"fs_name,omitempty" json:"fs_name,omitempty"`
	Name          *string           `yaml:"name,omitempty" json:"name,omitempty"`
	Debug         *bool             `yaml:"debug,omitempty" json:"debug,omitempty"`
}

// NewDefaultConfig creates a new Config with all default values.
func NewDefaultConfig() *Config {
	return &Config{
		MountOptions: MountOptions{
			FsName: DefaultFsName,
			Name:   DefaultName,
		},
		LogLvl:        DefaultLogLvl,
		ArchiveKind:   DefaultArchiveKind,
		PathPrefix:    DefaultPathPrefix,
		FetchTimeout:  DefaultFetchTimeout,
		Watch:         DefaultWatch,
		WatchDebounce: DefaultWatchDebounce,
	}
}

// NewConfig creates a Config from defaults with override applied on top.
// A nil override yields the defaults.
func NewConfig(override *ConfigOverride) *Config {
	cfg := NewDefaultConfig()
	if override != nil {
		cfg.Merge(override)
	}
	return cfg
}

// VerboseToLogLevel maps a CLI verbosity (1 error .. 5 trace) to a log level,
// clamping out of range values
func VerboseToLogLevel(verbose int) util.LogLevel {
	verbose = min(max(verbose, ErrorVerbose), TraceVerbose)
	lvls := [5]util.LogLevel{util.ErrorLevel, util.WarnLevel, util.InfoLevel, util.DebugLevel, util.TraceLevel}
	return lvls[verbose-1]
}

// Merge applies non-nil values from override onto this Config.
// This allows partial configuration updates while preserving existing values.
func (c *Config) Merge(override *ConfigOverride) {
	if override.LogLvl != nil {
		c.LogLvl = VerboseToLogLevel(*override.LogLvl)
	}
	if override.ArchiveKind != nil {
		c.ArchiveKind = *override.ArchiveKind
	}
	if override.MainPath != nil {
		c.MainPath = *override.MainPath
	}
	if override.PatchesPath != nil {
		c.PatchesPath = *override.PatchesPath
	}
	if override.PathPrefix != nil {
		c.PathPrefix = *override.PathPrefix
	}
	if override.HTTPHeaders != nil {
		c.HTTPHeaders = override.HTTPHeaders
	}
	if override.FetchTimeout != nil {
		c.FetchTimeout = *override.FetchTimeout
	}
	if override.Watch != nil {
		c.Watch = *override.Watch
	}
	if override.WatchDebounce != nil {
		c.WatchDebounce = *override.WatchDebounce
	}
	if override.MetricsAddr != nil {
		c.MetricsAddr = *override.MetricsAddr
	}
	if override.FsName != nil {
		c.FsName = *override.FsName
	}
	if override.Name != nil {
		c.Name = *override.Name
	}
	if override.Debug != nil {
		c.Debug = *override.Debug
	}
}

// Validate reports configuration that cannot be used to open an archive
func (c *Config) Validate() error {
	if c.MainPath == "" {
		return fmt.Errorf("main archive path is required")
	}
	if c.ArchiveKind == "" {
		return fmt.Errorf("archive kind is required")
	}
	if c.FetchTimeout < 0 {
		return fmt.Errorf("fetch timeout must not be negative: %v", c.FetchTimeout)
	}
	if c.WatchDebounce < 0 {
		return fmt.Errorf("watch debounce must not be negative: %v", c.WatchDebounce)
	}
	return nil
}

// LoadConfigOverrideFile loads configuration overrides from a file without merging.
// Supports both YAML (.yaml, .yml) and JSON (.json) formats.
func LoadConfigOverrideFile(path string) (*ConfigOverride, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var override ConfigOverride

	// Determine format by file extension
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, &override); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config file: %w", err)
		}
	default:
		return nil, fmt.Errorf("unknown config file extension: %s", path)
	}

	return &override, nil
}

// NewConfigFromFile creates a new Config by merging file overrides with defaults.
func NewConfigFromFile(path string) (*Config, error) {
	override, err := LoadConfigOverrideFile(path)
	if err != nil {
		return nil, err
	}
	return NewConfig(override), nil
}
