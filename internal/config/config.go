// File: internal/config/config.go
package config

import (
	"fmt"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

// Config holds the entire application configuration. It is produced once by
// Load before any scanner executes; a validation failure here is fatal and
// aborts the run (nothing downstream sees a half-built configuration).
type Config struct {
	Logger   LoggerConfig   `mapstructure:"logger" yaml:"logger"`
	Engine   EngineConfig   `mapstructure:"engine" yaml:"engine"`
	Cache    CacheConfig    `mapstructure:"cache" yaml:"cache"`
	Scanners ScannersConfig `mapstructure:"scanners" yaml:"scanners"`
	Autofix  AutofixConfig  `mapstructure:"autofix" yaml:"autofix"`
	Output   OutputConfig   `mapstructure:"output" yaml:"output"`
}

// LoggerConfig controls the zap logger construction.
type LoggerConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"` // "console" or "json"
	ServiceName string `mapstructure:"service_name" yaml:"service_name"`
	AddSource   bool   `mapstructure:"add_source" yaml:"add_source"`

	// File output, rotated by lumberjack. Empty disables file logging.
	LogFile    string `mapstructure:"log_file" yaml:"log_file"`
	MaxSize    int    `mapstructure:"max_size" yaml:"max_size"` // megabytes
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups"`
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age"` // days
	Compress   bool   `mapstructure:"compress" yaml:"compress"`
}

// EngineConfig bounds the work batching primitives.
type EngineConfig struct {
	Concurrency int           `mapstructure:"concurrency" yaml:"concurrency"`
	BatchSize   int           `mapstructure:"batch_size" yaml:"batch_size"`
	MaxRetries  int           `mapstructure:"max_retries" yaml:"max_retries"`
	RetryDelay  time.Duration `mapstructure:"retry_delay" yaml:"retry_delay"`

	// Rate limiting for scanners that shell out to external tooling.
	// At most one of the two targets may be set.
	RequestsPerSecond float64 `mapstructure:"requests_per_second" yaml:"requests_per_second"`
	RequestsPerMinute float64 `mapstructure:"requests_per_minute" yaml:"requests_per_minute"`
	Burst             int     `mapstructure:"burst" yaml:"burst"`
}

// CacheConfig controls the content-addressed result cache.
type CacheConfig struct {
	Enabled bool          `mapstructure:"enabled" yaml:"enabled"`
	Dir     string        `mapstructure:"dir" yaml:"dir"` // Relative to the project root when not absolute.
	MaxAge  time.Duration `mapstructure:"max_age" yaml:"max_age"`
}

// CommandConfig describes one external command a scanner may invoke.
type CommandConfig struct {
	Command string        `mapstructure:"command" yaml:"command"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// ScannersConfig selects and tunes the scanner set.
type ScannersConfig struct {
	// Enabled lists scanner names to run. Empty means every registered scanner.
	Enabled []string `mapstructure:"enabled" yaml:"enabled"`

	Include []string `mapstructure:"include" yaml:"include"`
	Exclude []string `mapstructure:"exclude" yaml:"exclude"`

	Typecheck  CommandConfig `mapstructure:"typecheck" yaml:"typecheck"`
	Deployment CommandConfig `mapstructure:"deployment" yaml:"deployment"`
}

// AutofixConfig holds settings for the auto-remediation pass.
type AutofixConfig struct {
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	DryRun  bool `mapstructure:"dry_run" yaml:"dry_run"`
}

// OutputConfig selects the report renderer and destination.
type OutputConfig struct {
	Format string `mapstructure:"format" yaml:"format"`
	Path   string `mapstructure:"path" yaml:"path"` // Empty or "stdout" writes to stdout.
}

// SetDefaults registers every default value on the given viper instance.
// Called from the root command before the config file is read.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("logger.level", "info")
	v.SetDefault("logger.format", "console")
	v.SetDefault("logger.service_name", "triage-cli")
	v.SetDefault("logger.max_size", 50)
	v.SetDefault("logger.max_backups", 3)
	v.SetDefault("logger.max_age", 14)

	v.SetDefault("engine.concurrency", 4)
	v.SetDefault("engine.batch_size", 10)
	v.SetDefault("engine.max_retries", 2)
	v.SetDefault("engine.retry_delay", 100*time.Millisecond)
	v.SetDefault("engine.burst", 5)

	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.dir", ".triage/cache")
	v.SetDefault("cache.max_age", 24*time.Hour)

	v.SetDefault("scanners.typecheck.command", "npx tsc --noEmit --pretty false")
	v.SetDefault("scanners.typecheck.timeout", 2*time.Minute)
	v.SetDefault("scanners.deployment.command", "npm audit --json")
	v.SetDefault("scanners.deployment.timeout", time.Minute)

	v.SetDefault("output.format", "terminal")
}

// Load unmarshals the finished viper state into a Config and validates it.
// Any error returned here is a configuration error and must abort the run.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	// Expand ~ in user-supplied paths before anything touches them.
	if cfg.Logger.LogFile != "" {
		expanded, err := homedir.Expand(cfg.Logger.LogFile)
		if err != nil {
			return nil, fmt.Errorf("invalid log file path %q: %w", cfg.Logger.LogFile, err)
		}
		cfg.Logger.LogFile = expanded
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate enforces the invariants downstream components rely on.
func (c *Config) Validate() error {
	if c.Engine.Concurrency < 1 {
		return fmt.Errorf("engine.concurrency must be at least 1, got %d", c.Engine.Concurrency)
	}
	if c.Engine.BatchSize < 1 {
		return fmt.Errorf("engine.batch_size must be at least 1, got %d", c.Engine.BatchSize)
	}
	if c.Engine.MaxRetries < 0 {
		return fmt.Errorf("engine.max_retries must not be negative, got %d", c.Engine.MaxRetries)
	}
	if c.Engine.RequestsPerSecond > 0 && c.Engine.RequestsPerMinute > 0 {
		return fmt.Errorf("engine.requests_per_second and engine.requests_per_minute are mutually exclusive")
	}
	if c.Cache.MaxAge < 0 {
		return fmt.Errorf("cache.max_age must not be negative, got %s", c.Cache.MaxAge)
	}
	switch c.Logger.Format {
	case "", "console", "json":
	default:
		return fmt.Errorf("logger.format must be \"console\" or \"json\", got %q", c.Logger.Format)
	}
	return nil
}
