package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all application configuration
//
//nolint:govet // Field alignment optimization would reduce readability
type Config struct {
	Server        ServerConfig
	Upstreams     UpstreamsConfig
	Cache         CacheConfig
	Uploads       UploadsConfig
	UploadStorage UploadStorageConfig
	Map           MapConfig
	Logging       LoggingConfig
	Observability ObservabilityConfig
	Profiling     ProfilingConfig
}

type ServerConfig struct {
	Port           string
	GinMode        string
	AppEnv         string
	BaseURL        string
	AllowedOrigins []string
}

// UpstreamsConfig points at the two APIs the pages are built on
type UpstreamsConfig struct {
	RegistryURL    string
	GeographyURL   string
	TimeoutSeconds int
}

type CacheConfig struct {
	GeographyTTLSeconds int // 0 disables the geography cache
	ItemsTTLSeconds     int // 0 disables the item catalog cache
}

type UploadsConfig struct {
	TTLMinutes int
	MaxBytes   int64
}

// UploadStorageConfig enables the S3-compatible upload store when Bucket is set
type UploadStorageConfig struct {
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	Endpoint        string
	Region          string
	Prefix          string
}

type MapConfig struct {
	TileURL     string
	Attribution string
	Zoom        int
}

type LoggingConfig struct {
	Level string
	Dir   string
}

type ObservabilityConfig struct {
	ExporterEndpoint  string
	ServiceName       string
	ServiceNamespace  string
	ServiceVersion    string
	ServiceInstanceID string
}

type ProfilingConfig struct {
	Enabled               bool
	Endpoint              string
	AppName               string
	SampleTypes           string
	UploadIntervalSeconds int
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	v := viper.New()

	// Set defaults
	v.SetDefault("PORT", "8080")
	v.SetDefault("GIN_MODE", "release")
	v.SetDefault("APP_ENV", "production")
	v.SetDefault("BASE_URL", "http://localhost:8080")
	v.SetDefault("ALLOWED_CORS_ORIGINS", "http://localhost:8080")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_DIR", "/app/logs")
	v.SetDefault("REGISTRY_API_URL", "http://localhost:3333")
	v.SetDefault("GEOGRAPHY_API_URL", "https://servicodados.ibge.gov.br/api/v1/localidades")
	v.SetDefault("UPSTREAM_TIMEOUT_SECONDS", 10)
	v.SetDefault("GEOGRAPHY_CACHE_TTL_SECONDS", 86400) // states and cities rarely change
	v.SetDefault("ITEMS_CACHE_TTL_SECONDS", 300)
	v.SetDefault("UPLOAD_TTL_MINUTES", 30)
	v.SetDefault("UPLOAD_MAX_BYTES", 5*1024*1024)
	v.SetDefault("UPLOAD_STORAGE_PREFIX", "staged/")
	v.SetDefault("MAP_TILE_URL", "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png")
	v.SetDefault("MAP_ATTRIBUTION", `&copy; <a href="http://osm.org/copyright">OpenStreetMap</a> contributors`)
	v.SetDefault("MAP_ZOOM", 15)
	v.SetDefault("O11Y_EXPORTER_ENDPOINT", "")
	v.SetDefault("O11Y_SERVICE_NAME", "ecoleta-web")
	v.SetDefault("O11Y_SERVICE_NAMESPACE", "ecoleta")
	v.SetDefault("O11Y_SERVICE_VERSION", "1.0.0")
	v.SetDefault("O11Y_PROFILING_ENABLED", false)
	v.SetDefault("O11Y_PROFILING_APP_NAME", "ecoleta-web")
	v.SetDefault("O11Y_PROFILING_SAMPLE_TYPES", "cpu,alloc_space,alloc_objects,goroutines")
	v.SetDefault("O11Y_PROFILING_UPLOAD_INTERVAL_SECONDS", 15)

	// Automatically read environment variables
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read from .env file if it exists
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("..")
	_ = v.ReadInConfig() //nolint:errcheck // Ignore error if .env file doesn't exist

	cfg := &Config{
		Server: ServerConfig{
			Port:           v.GetString("PORT"),
			GinMode:        v.GetString("GIN_MODE"),
			AppEnv:         v.GetString("APP_ENV"),
			BaseURL:        v.GetString("BASE_URL"),
			AllowedOrigins: splitList(v.GetString("ALLOWED_CORS_ORIGINS")),
		},
		Upstreams: UpstreamsConfig{
			RegistryURL:    strings.TrimRight(v.GetString("REGISTRY_API_URL"), "/"),
			GeographyURL:   strings.TrimRight(v.GetString("GEOGRAPHY_API_URL"), "/"),
			TimeoutSeconds: v.GetInt("UPSTREAM_TIMEOUT_SECONDS"),
		},
		Cache: CacheConfig{
			GeographyTTLSeconds: v.GetInt("GEOGRAPHY_CACHE_TTL_SECONDS"),
			ItemsTTLSeconds:     v.GetInt("ITEMS_CACHE_TTL_SECONDS"),
		},
		Uploads: UploadsConfig{
			TTLMinutes: v.GetInt("UPLOAD_TTL_MINUTES"),
			MaxBytes:   v.GetInt64("UPLOAD_MAX_BYTES"),
		},
		UploadStorage: UploadStorageConfig{
			AccessKeyID:     v.GetString("UPLOAD_STORAGE_ACCESS_KEY_ID"),
			SecretAccessKey: v.GetString("UPLOAD_STORAGE_SECRET_ACCESS_KEY"),
			BucketName:      v.GetString("UPLOAD_STORAGE_BUCKET"),
			Endpoint:        v.GetString("UPLOAD_STORAGE_ENDPOINT"),
			Region:          v.GetString("UPLOAD_STORAGE_REGION"),
			Prefix:          v.GetString("UPLOAD_STORAGE_PREFIX"),
		},
		Map: MapConfig{
			TileURL:     v.GetString("MAP_TILE_URL"),
			Attribution: v.GetString("MAP_ATTRIBUTION"),
			Zoom:        v.GetInt("MAP_ZOOM"),
		},
		Logging: LoggingConfig{
			Level: v.GetString("LOG_LEVEL"),
			Dir:   v.GetString("LOG_DIR"),
		},
		Observability: ObservabilityConfig{
			ExporterEndpoint:  v.GetString("O11Y_EXPORTER_ENDPOINT"),
			ServiceName:       v.GetString("O11Y_SERVICE_NAME"),
			ServiceNamespace:  v.GetString("O11Y_SERVICE_NAMESPACE"),
			ServiceVersion:    v.GetString("O11Y_SERVICE_VERSION"),
			ServiceInstanceID: v.GetString("SERVICE_INSTANCE_ID"),
		},
		Profiling: ProfilingConfig{
			Enabled:               v.GetBool("O11Y_PROFILING_ENABLED"),
			Endpoint:              v.GetString("O11Y_PROFILING_ENDPOINT"),
			AppName:               v.GetString("O11Y_PROFILING_APP_NAME"),
			SampleTypes:           v.GetString("O11Y_PROFILING_SAMPLE_TYPES"),
			UploadIntervalSeconds: v.GetInt("O11Y_PROFILING_UPLOAD_INTERVAL_SECONDS"),
		},
	}

	// Validate required fields
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// splitList parses a comma-separated list, dropping blanks
func splitList(raw string) []string {
	items := []string{}
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

// Validate checks if required configuration values are set
func (c *Config) Validate() error {
	// Server configuration
	if c.Server.Port == "" {
		return fmt.Errorf("PORT is required")
	}
	if len(c.Server.AllowedOrigins) == 0 {
		return fmt.Errorf("ALLOWED_CORS_ORIGINS is required")
	}

	// Upstream APIs
	if err := validateAbsoluteURL("REGISTRY_API_URL", c.Upstreams.RegistryURL); err != nil {
		return err
	}
	if err := validateAbsoluteURL("GEOGRAPHY_API_URL", c.Upstreams.GeographyURL); err != nil {
		return err
	}
	if c.Upstreams.TimeoutSeconds <= 0 {
		return fmt.Errorf("UPSTREAM_TIMEOUT_SECONDS must be positive")
	}

	if c.Cache.GeographyTTLSeconds < 0 {
		return fmt.Errorf("GEOGRAPHY_CACHE_TTL_SECONDS must not be negative")
	}
	if c.Cache.ItemsTTLSeconds < 0 {
		return fmt.Errorf("ITEMS_CACHE_TTL_SECONDS must not be negative")
	}

	// Uploads
	if c.Uploads.TTLMinutes <= 0 {
		return fmt.Errorf("UPLOAD_TTL_MINUTES must be positive")
	}
	if c.Uploads.MaxBytes <= 0 {
		return fmt.Errorf("UPLOAD_MAX_BYTES must be positive")
	}
	if c.UploadStorage.BucketName != "" &&
		(c.UploadStorage.AccessKeyID == "" || c.UploadStorage.SecretAccessKey == "") {
		return fmt.Errorf("UPLOAD_STORAGE_ACCESS_KEY_ID and UPLOAD_STORAGE_SECRET_ACCESS_KEY are required when UPLOAD_STORAGE_BUCKET is set")
	}

	if c.Profiling.Enabled && c.Profiling.Endpoint == "" {
		return fmt.Errorf("O11Y_PROFILING_ENDPOINT is required when profiling is enabled")
	}

	return nil
}

func validateAbsoluteURL(name, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", name)
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", name, err)
	}
	if !parsed.IsAbs() || parsed.Host == "" {
		return fmt.Errorf("%s must be an absolute URL, got: %s", name, raw)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("%s scheme must be http or https, got: %s", name, parsed.Scheme)
	}
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.AppEnv == "development" || c.Server.GinMode == "debug"
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	return c.Server.AppEnv == "production"
}

// UpstreamTimeout returns the per-call timeout for registry and geography requests
func (c *Config) UpstreamTimeout() time.Duration {
	return time.Duration(c.Upstreams.TimeoutSeconds) * time.Second
}

// GeographyCacheTTL returns the cache TTL; zero means caching is disabled
func (c *Config) GeographyCacheTTL() time.Duration {
	return time.Duration(c.Cache.GeographyTTLSeconds) * time.Second
}

// ItemsCacheTTL returns how long the item catalog is served without asking the registry
func (c *Config) ItemsCacheTTL() time.Duration {
	return time.Duration(c.Cache.ItemsTTLSeconds) * time.Second
}

// UploadTTL returns how long a staged image survives between attempts
func (c *Config) UploadTTL() time.Duration {
	return time.Duration(c.Uploads.TTLMinutes) * time.Minute
}

// UploadStorageEnabled reports whether staged images go to the S3-compatible bucket
func (c *Config) UploadStorageEnabled() bool {
	return c.UploadStorage.BucketName != ""
}
