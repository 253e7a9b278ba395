package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Backend types.
const (
	BackendKobs          = "kobs"
	BackendElasticsearch = "elasticsearch"
)

// Config holds the logview configuration.
type Config struct {
	HTTP      HTTPConfig       `yaml:"http"`
	Database  DatabaseConfig   `yaml:"database"`
	Backend   BackendConfig    `yaml:"backend"`
	DataViews []DataViewConfig `yaml:"dataviews"`
	Cache     CacheConfig      `yaml:"cache"`
	History   HistoryConfig    `yaml:"history"`
	Export    ExportConfig     `yaml:"export"`
	Logging   LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds database connection settings. The database is optional:
// without addrs, history and the batch cache are kept in memory.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // valkey, redis (default: valkey)
	Addrs            []string `yaml:"addrs"`
	Username         string   `yaml:"username"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// Enabled reports whether a database is configured.
func (d DatabaseConfig) Enabled() bool { return len(d.Addrs) > 0 }

// BackendConfig selects where log batches are fetched from.
type BackendConfig struct {
	Type          string              `yaml:"type"` // kobs, elasticsearch (default: kobs)
	TimeoutSec    int                 `yaml:"timeout_sec"`
	Kobs          KobsConfig          `yaml:"kobs"`
	Elasticsearch ElasticsearchConfig `yaml:"elasticsearch"`
}

// Timeout returns the backend request timeout.
func (b BackendConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutSec) * time.Second
}

// KobsConfig holds the kobs API settings.
type KobsConfig struct {
	URL     string `yaml:"url"`
	Cluster string `yaml:"cluster"`
	Plugin  string `yaml:"plugin"`
}

// ElasticsearchConfig holds direct Elasticsearch settings.
type ElasticsearchConfig struct {
	Addresses    []string `yaml:"addresses"`
	Username     string   `yaml:"username"`
	Password     string   `yaml:"password"`
	MaxDocuments int      `yaml:"max_documents"`
}

// DataViewConfig declares one data view.
type DataViewConfig struct {
	Name           string `yaml:"name"`
	IndexPattern   string `yaml:"index_pattern"`
	TimestampField string `yaml:"timestamp_field"`
}

// CacheConfig holds the batch cache settings.
type CacheConfig struct {
	TTLSec int `yaml:"ttl_sec"` // default: 300
}

// TTL returns the cache lifetime.
func (c CacheConfig) TTL() time.Duration { return time.Duration(c.TTLSec) * time.Second }

// HistoryConfig holds the query history settings.
type HistoryConfig struct {
	Key      string `yaml:"key"`
	Capacity int    `yaml:"capacity"` // <= 0 keeps every entry
}

// ExportConfig holds export settings.
type ExportConfig struct {
	Timezone string `yaml:"timezone"` // IANA name used for timestamps (default: Local)
	Dir      string `yaml:"dir"`      // CLI output directory
}

// Location resolves the export timezone.
func (e ExportConfig) Location() (*time.Location, error) {
	if e.Timezone == "" || e.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(e.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", e.Timezone, err)
	}
	return loc, nil
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	return LoadFile(findConfigPath(env))
}

// LoadFile reads configuration from the given YAML file.
func LoadFile(configPath string) (Config, error) {
	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}
	return Parse(data)
}

// Parse decodes, defaults and validates a YAML configuration.
func Parse(data []byte) (Config, error) {
	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 8080
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 60
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Driver == "" {
		c.Database.Driver = "valkey"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Backend.Type == "" {
		c.Backend.Type = BackendKobs
	}
	if c.Backend.TimeoutSec <= 0 {
		c.Backend.TimeoutSec = 30
	}
	if c.Backend.Kobs.Plugin == "" {
		c.Backend.Kobs.Plugin = "elasticsearch"
	}
	if c.Backend.Elasticsearch.MaxDocuments <= 0 {
		c.Backend.Elasticsearch.MaxDocuments = 1000
	}
	if c.History.Key == "" {
		c.History.Key = "kobs-elasticsearch-queryhistory"
	}
	if c.Cache.TTLSec == 0 {
		c.Cache.TTLSec = 300
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	switch c.Database.Driver {
	case "valkey", "redis":
	default:
		return fmt.Errorf("database.driver must be \"valkey\" or \"redis\", got %q", c.Database.Driver)
	}
	switch c.Backend.Type {
	case BackendKobs:
		if c.Backend.Kobs.URL == "" {
			return fmt.Errorf("backend.kobs.url is required")
		}
	case BackendElasticsearch:
		if len(c.Backend.Elasticsearch.Addresses) == 0 {
			return fmt.Errorf("backend.elasticsearch.addresses is required")
		}
	default:
		return fmt.Errorf("backend.type must be %q or %q, got %q", BackendKobs, BackendElasticsearch, c.Backend.Type)
	}
	if len(c.DataViews) == 0 {
		return fmt.Errorf("at least one data view is required")
	}
	seen := make(map[string]struct{}, len(c.DataViews))
	for i, dv := range c.DataViews {
		if dv.Name == "" || dv.IndexPattern == "" {
			return fmt.Errorf("dataviews[%d]: name and index_pattern are required", i)
		}
		if _, ok := seen[dv.Name]; ok {
			return fmt.Errorf("dataviews[%d]: duplicate name %q", i, dv.Name)
		}
		seen[dv.Name] = struct{}{}
	}
	if c.Cache.TTLSec <= 0 {
		return fmt.Errorf("cache.ttl_sec must be positive, got %d", c.Cache.TTLSec)
	}
	if _, err := c.Export.Location(); err != nil {
		return fmt.Errorf("export.timezone: %w", err)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
