package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kailas-cloud/chronik/internal/domain/search/entity"
)

// Config holds the chronik search API configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Database DatabaseConfig `yaml:"database"`
	Cache    CacheConfig    `yaml:"cache"`
	Search   SearchConfig   `yaml:"search"`
	Auth     AuthConfig     `yaml:"auth"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string      `yaml:"level"` // debug, info, warn, error (default: determined by env)
	File  FileLogging `yaml:"file"`
}

// FileLogging configures the optional rotating log file.
type FileLogging struct {
	Enabled    bool   `yaml:"enabled"`
	Filename   string `yaml:"filename"`
	MaxSizeMB  int    `yaml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days"`
	Compress   bool   `yaml:"compress"`
}

// AuthConfig holds session settings.
type AuthConfig struct {
	SessionCookie string `yaml:"session_cookie"`
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// DatabaseConfig holds Postgres connection settings.
type DatabaseConfig struct {
	Host               string `yaml:"host"`
	Port               int    `yaml:"port"`
	User               string `yaml:"user"`
	Password           string `yaml:"password"`
	DBName             string `yaml:"dbname"`
	SSLMode            string `yaml:"sslmode"`
	MaxOpenConns       int    `yaml:"max_open_conns"`
	MaxIdleConns       int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeSec int    `yaml:"conn_max_lifetime_sec"`
	SlowThresholdMs    int    `yaml:"slow_threshold_ms"`
	LogLevel           string `yaml:"log_level"` // silent, error, warn, info
	ReadinessTimeout   int    `yaml:"readiness_timeout_sec"`
}

// CacheConfig holds response cache settings.
type CacheConfig struct {
	Enabled  bool     `yaml:"enabled"`
	Addrs    []string `yaml:"addrs"`
	Password string   `yaml:"password"`
	TTLSec   int      `yaml:"ttl_sec"`
}

// SearchConfig holds aggregator and strategy settings.
type SearchConfig struct {
	StrategyTimeoutMs int                         `yaml:"strategy_timeout_ms"`
	MaxConcurrency    int                         `yaml:"max_concurrency"`
	TrigramThreshold  float64                     `yaml:"trigram_threshold"`
	TrigramMinResults int                         `yaml:"trigram_min_results"`
	Types             map[string]SearchTypeConfig `yaml:"types"`
}

// SearchTypeConfig overrides the strategy tuning of one entity type.
// Nil fields keep the built-in default.
type SearchTypeConfig struct {
	PrefixMatch      *bool    `yaml:"prefix_match"`
	Trigram          *bool    `yaml:"trigram"`
	TrigramThreshold *float64 `yaml:"trigram_threshold"`
	MinResults       *int     `yaml:"min_results"`
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

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
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 10
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Database.Port <= 0 {
		c.Database.Port = 5432
	}
	if c.Database.SSLMode == "" {
		c.Database.SSLMode = "disable"
	}
	if c.Database.MaxOpenConns <= 0 {
		c.Database.MaxOpenConns = 25
	}
	if c.Database.MaxIdleConns <= 0 {
		c.Database.MaxIdleConns = 5
	}
	if c.Database.ConnMaxLifetimeSec <= 0 {
		c.Database.ConnMaxLifetimeSec = 300
	}
	if c.Database.SlowThresholdMs <= 0 {
		c.Database.SlowThresholdMs = 200
	}
	if c.Database.LogLevel == "" {
		c.Database.LogLevel = "warn"
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Cache.TTLSec <= 0 {
		c.Cache.TTLSec = 30
	}
	if c.Search.StrategyTimeoutMs <= 0 {
		c.Search.StrategyTimeoutMs = 2000
	}
	if c.Search.MaxConcurrency <= 0 {
		c.Search.MaxConcurrency = 11
	}
	if c.Search.TrigramThreshold <= 0 {
		c.Search.TrigramThreshold = 0.2
	}
	if c.Search.TrigramMinResults <= 0 {
		c.Search.TrigramMinResults = 3
	}
	if c.Auth.SessionCookie == "" {
		c.Auth.SessionCookie = "userId"
	}
	if c.Logging.File.MaxSizeMB <= 0 {
		c.Logging.File.MaxSizeMB = 100
	}
	if c.Logging.File.MaxBackups <= 0 {
		c.Logging.File.MaxBackups = 3
	}
	if c.Logging.File.MaxAgeDays <= 0 {
		c.Logging.File.MaxAgeDays = 28
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Database.Host == "" {
		return fmt.Errorf("database.host is required")
	}
	if c.Database.DBName == "" {
		return fmt.Errorf("database.dbname is required")
	}
	switch c.Database.LogLevel {
	case "", "silent", "error", "warn", "info":
		// ok
	default:
		return fmt.Errorf(
			"database.log_level must be one of silent, error, warn, info, got %q", c.Database.LogLevel)
	}
	if c.Cache.Enabled && len(c.Cache.Addrs) == 0 {
		return fmt.Errorf("cache.addrs is required when cache is enabled")
	}
	if c.Search.TrigramThreshold > 1 {
		return fmt.Errorf("search.trigram_threshold must be in (0, 1], got %v", c.Search.TrigramThreshold)
	}
	for code, tc := range c.Search.Types {
		if !entity.Type(code).IsValid() {
			return fmt.Errorf("search.types: unknown entity type %q", code)
		}
		if tc.TrigramThreshold != nil && (*tc.TrigramThreshold <= 0 || *tc.TrigramThreshold > 1) {
			return fmt.Errorf("search.types.%s.trigram_threshold must be in (0, 1], got %v",
				code, *tc.TrigramThreshold)
		}
		if tc.MinResults != nil && *tc.MinResults < 0 {
			return fmt.Errorf("search.types.%s.min_results must not be negative", code)
		}
	}
	if c.Logging.File.Enabled && c.Logging.File.Filename == "" {
		return fmt.Errorf("logging.file.filename is required when file logging is enabled")
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
