// Package config provides configuration management using Viper
package config

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync"

	"github.com/spf13/viper"
)

// Environment types
const (
	Development = "development"
	Production  = "production"
	Test        = "test"
)

// LogLevel represents the logging level for the application
type LogLevel string

// Available log levels
const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// Database types
const (
	SQLiteDatabase = "sqlite"
)

const defaultPrivateKey = "88888888888888888888888888888888"

// Config holds all configuration parameters for the application
type Config struct {
	// Application settings
	AppName     string   `mapstructure:"appname"`
	AppPort     string   `mapstructure:"appport"`
	Environment string   `mapstructure:"environment"`
	LogLevel    LogLevel `mapstructure:"loglevel"`
	PrivateKey  string   `mapstructure:"privatekey"`
	APIKey      string   `mapstructure:"apikey"`
	BaseURL     string   `mapstructure:"baseurl"`

	// File paths
	DatabasePath          string `mapstructure:"storagepath"`
	DatabaseName          string `mapstructure:"-"` // Derived from other settings
	GeoDBPath             string `mapstructure:"geodbpath"`
	PublicDirectory       string `mapstructure:"publicdir"`
	PublicAssetsUrlPrefix string `mapstructure:"publicassetsurlprefix"`

	// Logging settings
	LogsDirectory    string `mapstructure:"logsdir"`
	LogsMaxSizeInMb  int    `mapstructure:"logsmaxsizeinmb"`
	LogsMaxBackups   int    `mapstructure:"logsmaxbackups"`
	LogsMaxAgeInDays int    `mapstructure:"logsmaxageindays"`

	// Database settings
	DatabaseType         string `mapstructure:"dbtype"`
	DatabaseMaxOpenConns int    `mapstructure:"dbmaxopenconns"`
	DatabaseMaxIdleConns int    `mapstructure:"dbmaxidleconns"`

	// Link cache (optional, disabled when RedisURL is empty)
	RedisURL            string `mapstructure:"redisurl"`
	LinkCacheTTLSeconds int    `mapstructure:"linkcachettlseconds"`

	// Plan and analytics settings
	MaxLinksPerOwner       int `mapstructure:"maxlinksperowner"`
	DefaultBucketSizeHours int `mapstructure:"defaultbucketsizehours"`

	// Job scheduling settings
	JobIntervalSeconds int `mapstructure:"jobintervalseconds"`

	// Data retention settings
	IngestedClicksRetentionDays int `mapstructure:"ingestedclicksretentiondays"`
}

// setting binds a config key to its environment variable and default value.
type setting struct {
	key   string
	env   string
	value interface{}
}

var settings = []setting{
	{"appname", "SHORTN_APP_NAME", "shortn"},
	{"appport", "SHORTN_APP_PORT", "3000"},
	{"environment", "SHORTN_ENV", Development},
	{"loglevel", "SHORTN_LOG_LEVEL", string(LogLevelDebug)},
	{"privatekey", "SHORTN_PRIVATE_KEY", defaultPrivateKey},
	{"apikey", "SHORTN_API_KEY", ""},
	{"baseurl", "SHORTN_BASE_URL", "http://localhost:3000"},
	{"storagepath", "SHORTN_STORAGE_PATH", "storage"},
	{"geodbpath", "SHORTN_GEO_DB_PATH", "storage/GeoLite2-City.mmdb"},
	{"publicdir", "SHORTN_PUBLIC_DIR", "public"},
	{"publicassetsurlprefix", "SHORTN_PUBLIC_ASSETS_URL_PREFIX", "/"},
	{"logsdir", "SHORTN_LOGS_DIR", "logs"},
	{"logsmaxsizeinmb", "SHORTN_LOGS_MAX_SIZE_IN_MB", 20},
	{"logsmaxbackups", "SHORTN_LOGS_MAX_BACKUPS", 10},
	{"logsmaxageindays", "SHORTN_LOGS_MAX_AGE_IN_DAYS", 30},
	{"dbtype", "SHORTN_DB_TYPE", SQLiteDatabase},
	{"dbmaxopenconns", "SHORTN_DB_MAX_OPEN_CONNS", 0},
	{"dbmaxidleconns", "SHORTN_DB_MAX_IDLE_CONNS", 0},
	{"redisurl", "SHORTN_REDIS_URL", ""},
	{"linkcachettlseconds", "SHORTN_LINK_CACHE_TTL_SECONDS", 600},
	{"maxlinksperowner", "SHORTN_MAX_LINKS_PER_OWNER", 1000},
	{"defaultbucketsizehours", "SHORTN_DEFAULT_BUCKET_SIZE_HOURS", 6},
	{"jobintervalseconds", "SHORTN_JOB_INTERVAL_SECONDS", 30},
	{"ingestedclicksretentiondays", "SHORTN_INGESTED_CLICKS_RETENTION_DAYS", 30},
}

var (
	cfg  *Config
	once sync.Once
)

// GetConfig loads the configuration once from defaults and SHORTN_* variables.
func GetConfig() *Config {
	once.Do(func() {
		v := viper.New()
		for _, s := range settings {
			v.SetDefault(s.key, s.value)
			if err := v.BindEnv(s.key, s.env); err != nil {
				log.Fatalf("config: failed to bind %s: %v", s.env, err)
			}
		}

		cfg = &Config{}
		if err := v.Unmarshal(cfg); err != nil {
			log.Fatalf("config: failed to unmarshal configuration: %v", err)
		}

		if err := cfg.validate(); err != nil {
			log.Fatalf("config: invalid configuration: %v", err)
		}

		cfg.DatabaseName = cfg.GetDatabasePath()
		cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

		if cfg.PrivateKey == "" {
			log.Fatal("Private key is required")
		}
		if cfg.IsProduction() && cfg.PrivateKey == defaultPrivateKey {
			log.Fatal("Production requires a unique SHORTN_PRIVATE_KEY (cannot use default)")
		}
		if cfg.IsProduction() && cfg.APIKey == "" {
			log.Fatal("Production requires SHORTN_API_KEY")
		}
	})
	return cfg
}

// validate checks the configuration for errors
func (c *Config) validate() error {
	validEnvs := map[string]bool{
		Development: true,
		Production:  true,
		Test:        true,
	}
	if !validEnvs[c.Environment] {
		return fmt.Errorf("invalid environment: %s", c.Environment)
	}

	if c.DatabaseType != SQLiteDatabase {
		return fmt.Errorf("invalid database type: %s", c.DatabaseType)
	}

	if c.DefaultBucketSizeHours < 1 || c.DefaultBucketSizeHours > 24 {
		return fmt.Errorf("invalid default bucket size: %d", c.DefaultBucketSizeHours)
	}

	return nil
}

// GetDatabasePath returns the appropriate database path based on environment
func (c *Config) GetDatabasePath() string {
	if c.DatabaseName == "" {
		c.DatabaseName = filepath.Join(c.DatabasePath,
			fmt.Sprintf("%s-%s.db", c.AppName, c.Environment))
	}
	return c.DatabaseName
}

// IsDevelopment returns true if the environment is development
func (c *Config) IsDevelopment() bool {
	return c.Environment == Development
}

// IsProduction returns true if the environment is production
func (c *Config) IsProduction() bool {
	return c.Environment == Production
}

// IsTest returns true if the environment is test
func (c *Config) IsTest() bool {
	return c.Environment == Test
}

// ShortURL builds the public short URL for a code.
func (c *Config) ShortURL(code string) string {
	return c.BaseURL + "/" + code
}

// GetPort returns the HTTP server port (implements cartridge.Config interface).
func (c *Config) GetPort() string {
	return c.AppPort
}

// GetPublicDirectory returns the path to public/static assets (implements cartridge.Config interface).
func (c *Config) GetPublicDirectory() string {
	return c.PublicDirectory
}

// GetAssetsPrefix returns the URL prefix for static assets (implements cartridge.Config interface).
func (c *Config) GetAssetsPrefix() string {
	return c.PublicAssetsUrlPrefix
}

// GetAppName returns the application name (implements cartridge.FactoryConfig interface).
func (c *Config) GetAppName() string {
	return c.AppName
}

// DatabaseDSN returns the database connection string (implements cartridge.FactoryConfig interface).
func (c *Config) DatabaseDSN() string {
	return c.GetDatabasePath()
}

// GetSessionSecret returns the secret cartridge uses for signed cookies (implements cartridge.FactoryConfig interface).
func (c *Config) GetSessionSecret() string {
	return c.PrivateKey
}

// GetMaxOpenConns returns MaxOpenConns: the explicit setting, 1 in test, 10 otherwise.
func (c *Config) GetMaxOpenConns() int {
	if c.DatabaseMaxOpenConns > 0 {
		return c.DatabaseMaxOpenConns
	}
	if c.Environment == Test {
		return 1
	}
	return 10
}

// GetMaxIdleConns returns MaxIdleConns: the explicit setting, 1 in test, 5 otherwise.
func (c *Config) GetMaxIdleConns() int {
	if c.DatabaseMaxIdleConns > 0 {
		return c.DatabaseMaxIdleConns
	}
	if c.Environment == Test {
		return 1
	}
	return 5
}

// GetLogLevel returns the log level as a string (implements cartridge.LogConfigProvider).
func (c *Config) GetLogLevel() string {
	return string(c.LogLevel)
}

// GetLogDirectory returns the logs directory (implements cartridge.LogConfigProvider).
func (c *Config) GetLogDirectory() string {
	return c.LogsDirectory
}

// GetLogMaxSizeMB returns the max log file size in MB (implements cartridge.LogConfigProvider).
func (c *Config) GetLogMaxSizeMB() int {
	return c.LogsMaxSizeInMb
}

// GetLogMaxBackups returns the max number of log backups (implements cartridge.LogConfigProvider).
func (c *Config) GetLogMaxBackups() int {
	return c.LogsMaxBackups
}

// GetLogMaxAgeDays returns the max age in days for log files (implements cartridge.LogConfigProvider).
func (c *Config) GetLogMaxAgeDays() int {
	return c.LogsMaxAgeInDays
}

// Reset clears the cached configuration; intended for tests.
func Reset() {
	once = sync.Once{}
	cfg = nil
}
