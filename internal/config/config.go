// Package config provides configuration management for wbcore using Viper.
// It supports configuration from files, environment variables, and defaults.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Default configuration values.
const (
	defaultParallelism       = 0 // 0 means runtime.NumCPU()
	defaultCacheMode         = "memory"
	defaultSourceMapMode     = "separate"
	defaultContentHashLength = 8
	defaultBuildHashLength   = 20
	defaultMinChunkSize      = 20 * 1024  // 20KB
	defaultMaxChunkSize      = 244 * 1024 // 244KB
	defaultMinChunks         = 1
	defaultCacheTTL          = 7 * 24 * time.Hour
	defaultIntrospectPort    = 8081
)

// Config holds all configuration for a wbcore invocation.
type Config struct {
	Output       OutputConfig       `mapstructure:"output"`
	Logging      LoggingConfig      `mapstructure:"logging"`
	Optimization OptimizationConfig `mapstructure:"optimization"`
	SplitChunks  SplitChunksConfig  `mapstructure:"split_chunks"`
	Cache        CacheConfig        `mapstructure:"cache"`
	Introspect   IntrospectConfig   `mapstructure:"introspect"`
}

// OutputConfig holds output/rendering configuration.
type OutputConfig struct {
	// Dir is the directory emitted assets are written to.
	Dir string `mapstructure:"dir"`
	// Filename is the filename template for entry chunks, e.g. "[name].[contenthash:8].js".
	Filename string `mapstructure:"filename"`
	// ChunkFilename is the filename template for non-entry (async/split) chunks.
	ChunkFilename string `mapstructure:"chunk_filename"`
	// PublicPath is either a literal path prefix or "auto" to resolve at runtime.
	PublicPath string `mapstructure:"public_path"`
	// Parallelism bounds the make-phase worker pool. 0 means runtime.NumCPU().
	Parallelism int `mapstructure:"parallelism"`
	// BuildHashLength is the number of hex characters used for the [hash] token.
	BuildHashLength int `mapstructure:"build_hash_length"`
	// ContentHashLength is the number of hex characters used for [contenthash]/[chunkhash].
	ContentHashLength int `mapstructure:"content_hash_length"`
	// SourceMapMode controls source-map emission: inline | separate | hidden | eval-wrapped.
	SourceMapMode string `mapstructure:"source_map_mode"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level"`  // trace, debug, info, warn, error
	Format     string `mapstructure:"format"` // json, text
	AddSource  bool   `mapstructure:"add_source"`
	TimeFormat string `mapstructure:"time_format"`
}

// OptimizationConfig holds compilation optimization flags.
type OptimizationConfig struct {
	SideEffects          bool `mapstructure:"side_effects"`
	MangleExports        bool `mapstructure:"mangle_exports"`
	InnerGraph           bool `mapstructure:"inner_graph"`
	ModuleConcatenation  bool `mapstructure:"module_concatenation"`
	RemoveUnusedExports  bool `mapstructure:"remove_unused_exports"`
	DeterministicModuleIDs bool `mapstructure:"deterministic_module_ids"`
}

// SplitChunksConfig holds split-chunks optimization configuration.
type SplitChunksConfig struct {
	Enabled          bool     `mapstructure:"enabled"`
	MinSize          ByteSize `mapstructure:"min_size"`
	MaxSize          ByteSize `mapstructure:"max_size"`
	MinRemainingSize ByteSize `mapstructure:"min_remaining_size"`
	MinChunks        int      `mapstructure:"min_chunks"`
	CacheGroups      []string `mapstructure:"cache_groups"` // named cache-group refs, resolved by caller
}

// CacheConfig holds incremental-rebuild cache configuration.
type CacheConfig struct {
	// Mode selects the cache backend: none | memory | persistent.
	Mode string `mapstructure:"mode"`
	// Dir is the persistent cache directory (only used when Mode == "persistent").
	Dir string `mapstructure:"dir"`
	// TTL is how long a persisted cache snapshot remains valid.
	TTL Duration `mapstructure:"ttl"`
}

// IntrospectConfig holds the read-only debugging HTTP server configuration.
type IntrospectConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
}

// Load reads configuration from file and environment variables.
// Environment variables take precedence over file configuration.
// Environment variables are prefixed with WBCORE_ and use underscores for nesting.
// Example: WBCORE_OUTPUT_PARALLELISM=4.
func Load(configPath string) (*Config, error) {
	v := viper.New()

	SetDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("wbcore")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("$HOME/.wbcore")
	}

	v.SetEnvPrefix("WBCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// SetDefaults configures default values for all configuration options.
// This should be called before reading the config file to ensure defaults are in place.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("output.dir", "dist")
	v.SetDefault("output.filename", "[name].js")
	v.SetDefault("output.chunk_filename", "[name].[contenthash:8].chunk.js")
	v.SetDefault("output.public_path", "auto")
	v.SetDefault("output.parallelism", defaultParallelism)
	v.SetDefault("output.build_hash_length", defaultBuildHashLength)
	v.SetDefault("output.content_hash_length", defaultContentHashLength)
	v.SetDefault("output.source_map_mode", defaultSourceMapMode)

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")
	v.SetDefault("logging.add_source", false)
	v.SetDefault("logging.time_format", time.RFC3339)

	v.SetDefault("optimization.side_effects", true)
	v.SetDefault("optimization.mangle_exports", false)
	v.SetDefault("optimization.inner_graph", true)
	v.SetDefault("optimization.module_concatenation", false)
	v.SetDefault("optimization.remove_unused_exports", true)
	v.SetDefault("optimization.deterministic_module_ids", true)

	v.SetDefault("split_chunks.enabled", true)
	v.SetDefault("split_chunks.min_size", int64(defaultMinChunkSize))
	v.SetDefault("split_chunks.max_size", int64(defaultMaxChunkSize))
	v.SetDefault("split_chunks.min_remaining_size", int64(defaultMinChunkSize))
	v.SetDefault("split_chunks.min_chunks", defaultMinChunks)

	v.SetDefault("cache.mode", defaultCacheMode)
	v.SetDefault("cache.dir", ".wbcore-cache")
	v.SetDefault("cache.ttl", defaultCacheTTL)

	v.SetDefault("introspect.enabled", false)
	v.SetDefault("introspect.host", "127.0.0.1")
	v.SetDefault("introspect.port", defaultIntrospectPort)
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Output.Dir == "" {
		return fmt.Errorf("output.dir is required")
	}

	validLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[c.Logging.Level] {
		return fmt.Errorf("logging.level must be one of: trace, debug, info, warn, error")
	}
	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Logging.Format] {
		return fmt.Errorf("logging.format must be one of: json, text")
	}

	validSourceMapModes := map[string]bool{"inline": true, "separate": true, "hidden": true, "eval-wrapped": true, "": true}
	if !validSourceMapModes[c.Output.SourceMapMode] {
		return fmt.Errorf("output.source_map_mode must be one of: inline, separate, hidden, eval-wrapped")
	}

	validCacheModes := map[string]bool{"none": true, "memory": true, "persistent": true}
	if !validCacheModes[c.Cache.Mode] {
		return fmt.Errorf("cache.mode must be one of: none, memory, persistent")
	}
	if c.Cache.Mode == "persistent" && c.Cache.Dir == "" {
		return fmt.Errorf("cache.dir is required when cache.mode is persistent")
	}

	if c.SplitChunks.Enabled {
		if c.SplitChunks.MinChunks < 1 {
			return fmt.Errorf("split_chunks.min_chunks must be at least 1")
		}
		if c.SplitChunks.MaxSize > 0 && c.SplitChunks.MinSize > c.SplitChunks.MaxSize {
			return fmt.Errorf("split_chunks.min_size must not exceed split_chunks.max_size")
		}
	}

	const maxPort = 65535
	if c.Introspect.Enabled && (c.Introspect.Port < 1 || c.Introspect.Port > maxPort) {
		return fmt.Errorf("introspect.port must be between 1 and %d", maxPort)
	}

	return nil
}

// IntrospectAddress returns the introspection server address in host:port format.
func (c *IntrospectConfig) IntrospectAddress() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}
