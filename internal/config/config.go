package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/rebeliceyang/tablerest/internal/models"
)

// Config holds all application configuration
type Config struct {
	Debug    bool           `mapstructure:"debug"`
	Port     int            `mapstructure:"port"`
	Auth     AuthConfig     `mapstructure:"auth"`
	DB       DBConfig       `mapstructure:"db"`
	History  HistoryConfig  `mapstructure:"history"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
	Server   ServerConfig   `mapstructure:"server"`
	Response ResponseConfig `mapstructure:"response"`
	Log      LogConfig      `mapstructure:"log"`
}

type AuthConfig struct {
	Basic BasicAuthConfig `mapstructure:"basic"`
}

type BasicAuthConfig struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	// PasswordHash is a bcrypt hash checked instead of Password when set
	PasswordHash string `mapstructure:"password_hash"`
}

type DBConfig struct {
	Driver         string         `mapstructure:"driver"`
	Host           string         `mapstructure:"host"`
	Port           int            `mapstructure:"port"`
	Name           string         `mapstructure:"name"`
	User           string         `mapstructure:"user"`
	Pass           string         `mapstructure:"pass"`
	SSLMode        string         `mapstructure:"ssl_mode"`
	PrimaryKey     string         `mapstructure:"primary_key"`
	MigrationsPath string         `mapstructure:"migrations_path"`
	Postgres       PostgresConfig `mapstructure:"postgres"`
	SQLite         SQLiteConfig   `mapstructure:"sqlite"`
	Pool           PoolConfig     `mapstructure:"pool"`
}

type PostgresConfig struct {
	// SearchPath is a comma separated schema list
	SearchPath string `mapstructure:"search_path"`
}

type SQLiteConfig struct {
	Filename string `mapstructure:"filename"`
}

type PoolConfig struct {
	MaxConns int `mapstructure:"max_conns"`
	MinConns int `mapstructure:"min_conns"`
}

type HistoryConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Path       string `mapstructure:"path"`
	MaxEntries int    `mapstructure:"max_entries"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type ServerConfig struct {
	// RateLimit is requests per minute per client IP; 0 disables limiting
	RateLimit int `mapstructure:"rate_limit"`
	RateBurst int `mapstructure:"rate_burst"`
}

type ResponseConfig struct {
	// LegacySuccess keeps success=false on every envelope, as older clients expect
	LegacySuccess bool `mapstructure:"legacy_success"`
}

type LogConfig struct {
	Format string `mapstructure:"format"`
}

var defaults = map[string]any{
	"debug":                    false,
	"port":                     3000,
	"auth.basic.username":      "",
	"auth.basic.password":      "",
	"auth.basic.password_hash": "",
	"db.driver":                "",
	"db.host":                  "",
	"db.port":                  5432,
	"db.name":                  "",
	"db.user":                  "",
	"db.pass":                  "",
	"db.ssl_mode":              "",
	"db.primary_key":           "id",
	"db.migrations_path":       "",
	"db.postgres.search_path":  "",
	"db.sqlite.filename":       ":memory:",
	"db.pool.max_conns":        10,
	"db.pool.min_conns":        1,
	"history.enabled":          false,
	"history.path":             ":memory:",
	"history.max_entries":      1000,
	"metrics.enabled":          true,
	"server.rate_limit":        0,
	"server.rate_burst":        20,
	"response.legacy_success":  true,
	"log.format":               "logfmt",
}

// GetDefaults returns a Config with all default values
func GetDefaults() *Config {
	v := viper.New()
	setDefaults(v)

	var cfg Config
	_ = v.Unmarshal(&cfg)
	return &cfg
}

func setDefaults(v *viper.Viper) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}

// Load loads configuration from an optional config file and the environment.
//
// Environment variables use the key path in upper case with dots replaced by
// underscores (db.sqlite.filename is DB_SQLITE_FILENAME) and win over the file.
// An explicit path must exist; otherwise config.yaml is looked up in the user
// config directory, the current directory and ./config.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		if configDir, err := os.UserConfigDir(); err == nil {
			v.AddConfigPath(filepath.Join(configDir, "tablerest"))
		}
		v.AddConfigPath(".")
		v.AddConfigPath("./config")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if models.NormalizeDriver(cfg.DB.Driver) == models.DriverPostgres {
		applyPGEnvironment(&cfg.DB)
	}

	return &cfg, nil
}

// Validate checks the settings needed to start serving
func (c *Config) Validate() error {
	switch models.NormalizeDriver(c.DB.Driver) {
	case models.DriverPostgres:
		if c.DB.Host == "" || c.DB.Name == "" {
			return fmt.Errorf("postgres driver needs db.host and db.name")
		}
	case models.DriverSQLite:
	default:
		return fmt.Errorf("unsupported db driver. Driver=%s", c.DB.Driver)
	}

	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("invalid port %d", c.Port)
	}
	if c.DB.PrimaryKey == "" {
		return fmt.Errorf("db.primary_key must not be empty")
	}
	return nil
}

// Connection converts the database settings into a connection config
func (c *Config) Connection() models.ConnectionConfig {
	var searchPath []string
	for _, schema := range strings.Split(c.DB.Postgres.SearchPath, ",") {
		if schema = strings.TrimSpace(schema); schema != "" {
			searchPath = append(searchPath, schema)
		}
	}

	filename := c.DB.SQLite.Filename
	if filename == "" {
		filename = ":memory:"
	}

	return models.ConnectionConfig{
		Driver:     models.NormalizeDriver(c.DB.Driver),
		Host:       c.DB.Host,
		Port:       c.DB.Port,
		Database:   c.DB.Name,
		User:       c.DB.User,
		Password:   c.DB.Pass,
		SSLMode:    c.DB.SSLMode,
		SearchPath: searchPath,
		Filename:   filename,
		MaxConns:   int32(c.DB.Pool.MaxConns),
		MinConns:   int32(c.DB.Pool.MinConns),
	}
}
