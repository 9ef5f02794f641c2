package config

import (
	"os"
	"time"

	"gopkg.in/yaml.v2"

	alterrors "github.com/altseek/altseek/pkg/errors"
)

// Environment names recognized by the orchestrator's strategy
// auto-selection.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Configuration represents the complete cache subsystem configuration.
type Configuration struct {
	Global     GlobalConfig     `yaml:"global"`
	Cache      CacheConfig      `yaml:"cache"`
	Hybrid     HybridConfig     `yaml:"hybrid"`
	Storage    StorageConfig    `yaml:"storage"`
	Monitoring MonitoringConfig `yaml:"monitoring"`
}

// GlobalConfig represents global application settings.
type GlobalConfig struct {
	Environment string `yaml:"environment"`
	LogLevel    string `yaml:"log_level"`
}

// CacheConfig configures the single-level and quality-scored caches.
type CacheConfig struct {
	MaxEntries         int           `yaml:"max_entries"`
	MaxSizeBytes       int           `yaml:"max_size_bytes"`
	MinSearchCount     int           `yaml:"min_search_count"`
	MaxAge             time.Duration `yaml:"max_age"`
	CompressionEnabled bool          `yaml:"compression_enabled"`
	MaintenanceEvery   time.Duration `yaml:"maintenance_interval"`
}

// HybridConfig configures the hybrid local+durable strategy.
type HybridConfig struct {
	MaxLocalItems int           `yaml:"max_local_items"`
	SyncInterval  time.Duration `yaml:"sync_interval"`
	SyncBatchSize int           `yaml:"sync_batch_size"`
}

// StorageConfig configures durable backends and the fallback chain.
type StorageConfig struct {
	// DurableWrites gates all synchronous write-through persistence.
	// False on platforms with ephemeral or read-only filesystems.
	DurableWrites bool `yaml:"durable_writes"`

	// Primary and Fallback name the backends the manager chains.
	// Valid names: "file", "s3", "redis", "badger", "" (unset).
	Primary  string `yaml:"primary"`
	Fallback string `yaml:"fallback"`

	File   FileBackendConfig   `yaml:"file"`
	S3     S3BackendConfig     `yaml:"s3"`
	Redis  RedisBackendConfig  `yaml:"redis"`
	Badger BadgerBackendConfig `yaml:"badger"`
}

// FileBackendConfig configures the JSON-file backend.
type FileBackendConfig struct {
	Directory string `yaml:"directory"`
}

// S3BackendConfig configures the object-storage backend.
type S3BackendConfig struct {
	Region          string `yaml:"region"`
	Bucket          string `yaml:"bucket"`
	Endpoint        string `yaml:"endpoint"`
	AccessKeyID     string `yaml:"access_key_id"`
	SecretAccessKey string `yaml:"secret_access_key"`
	ForcePathStyle  bool   `yaml:"force_path_style"`
	KeyPrefix       string `yaml:"key_prefix"`
}

// RedisBackendConfig configures the Redis backend.
type RedisBackendConfig struct {
	Address   string        `yaml:"address"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	KeyPrefix string        `yaml:"key_prefix"`
	TTL       time.Duration `yaml:"ttl"`
}

// BadgerBackendConfig configures the embedded badger backend.
type BadgerBackendConfig struct {
	Directory string `yaml:"directory"`
	InMemory  bool   `yaml:"in_memory"`
}

// MonitoringConfig configures metrics exposure.
type MonitoringConfig struct {
	MetricsEnabled bool   `yaml:"metrics_enabled"`
	MetricsPort    int    `yaml:"metrics_port"`
	MetricsPath    string `yaml:"metrics_path"`
}

// DefaultConfiguration returns the configuration used when no file is
// supplied. Values mirror the production defaults of the service.
func DefaultConfiguration() *Configuration {
	return &Configuration{
		Global: GlobalConfig{
			Environment: EnvDevelopment,
			LogLevel:    "info",
		},
		Cache: CacheConfig{
			MaxEntries:         10000,
			MaxSizeBytes:       50 * 1024 * 1024,
			MinSearchCount:     2,
			MaxAge:             30 * 24 * time.Hour,
			CompressionEnabled: true,
			MaintenanceEvery:   time.Hour,
		},
		Hybrid: HybridConfig{
			MaxLocalItems: 1000,
			SyncInterval:  5 * time.Minute,
			SyncBatchSize: 10,
		},
		Storage: StorageConfig{
			DurableWrites: true,
			Primary:       "file",
			File: FileBackendConfig{
				Directory: "data/cache",
			},
			Redis: RedisBackendConfig{
				Address: "localhost:6379",
			},
		},
		Monitoring: MonitoringConfig{
			MetricsEnabled: false,
			MetricsPort:    9090,
			MetricsPath:    "/metrics",
		},
	}
}

// Load reads a yaml configuration file, layers environment overrides
// on top and validates the result. A missing path yields defaults plus
// overrides.
func Load(path string) (*Configuration, error) {
	cfg := DefaultConfiguration()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, alterrors.Wrap(alterrors.CodeConfigLoad, "reading config file", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, alterrors.Wrap(alterrors.CodeConfigLoad, "parsing config file", err)
		}
	}

	cfg.applyEnvironmentOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnvironmentOverrides maps process environment variables onto
// the configuration. Serverless platforms with ephemeral filesystems
// disable durable writes entirely.
func (c *Configuration) applyEnvironmentOverrides() {
	if env := os.Getenv("ALTSEEK_ENV"); env != "" {
		c.Global.Environment = env
	}
	if level := os.Getenv("ALTSEEK_LOG_LEVEL"); level != "" {
		c.Global.LogLevel = level
	}
	if addr := os.Getenv("ALTSEEK_REDIS_ADDR"); addr != "" {
		c.Storage.Redis.Address = addr
	}
	if bucket := os.Getenv("ALTSEEK_S3_BUCKET"); bucket != "" {
		c.Storage.S3.Bucket = bucket
	}

	if isEphemeralPlatform() {
		c.Storage.DurableWrites = false
	}
}

// isEphemeralPlatform detects serverless runtimes where the local
// filesystem does not survive between invocations.
func isEphemeralPlatform() bool {
	if os.Getenv("ALTSEEK_EPHEMERAL") == "1" {
		return true
	}
	if os.Getenv("VERCEL") != "" {
		return true
	}
	if os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "" {
		return true
	}
	return false
}

// Validate checks the configuration for values the subsystem cannot
// operate with.
func (c *Configuration) Validate() error {
	if c.Cache.MaxEntries <= 0 {
		return alterrors.New(alterrors.CodeConfigValidation, "cache.max_entries must be positive")
	}
	if c.Cache.MaxSizeBytes <= 0 {
		return alterrors.New(alterrors.CodeConfigValidation, "cache.max_size_bytes must be positive")
	}
	if c.Hybrid.MaxLocalItems <= 0 {
		return alterrors.New(alterrors.CodeConfigValidation, "hybrid.max_local_items must be positive")
	}
	if c.Hybrid.SyncBatchSize <= 0 {
		return alterrors.New(alterrors.CodeConfigValidation, "hybrid.sync_batch_size must be positive")
	}
	switch c.Storage.Primary {
	case "", "file", "s3", "redis", "badger":
	default:
		return alterrors.Newf(alterrors.CodeConfigValidation, "unknown primary backend %q", c.Storage.Primary)
	}
	switch c.Storage.Fallback {
	case "", "file", "s3", "redis", "badger":
	default:
		return alterrors.Newf(alterrors.CodeConfigValidation, "unknown fallback backend %q", c.Storage.Fallback)
	}
	return nil
}

// IsDevelopment reports whether the subsystem runs in a development
// environment.
func (c *Configuration) IsDevelopment() bool {
	return c.Global.Environment == EnvDevelopment
}
