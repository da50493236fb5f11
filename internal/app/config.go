package app

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"github.com/eddie-kann/astrokiddo/internal/database"
)

// Config represents the runtime configuration for the AstroKiddo backend.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Decks      DecksConfig      `mapstructure:"decks"`
	Generator  GeneratorConfig  `mapstructure:"generator"`
	NASA       NASAConfig       `mapstructure:"nasa"`
	Cloudflare CloudflareConfig `mapstructure:"cloudflare"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
	App        AppConfig        `mapstructure:"app"`
}

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	Port     int    `mapstructure:"port"`
	LogLevel string `mapstructure:"log_level"`
}

// DatabaseConfig describes connection options for the supported databases.
type DatabaseConfig struct {
	Driver   string       `mapstructure:"driver"`
	Path     string       `mapstructure:"path"`
	DSN      string       `mapstructure:"dsn"`
	Postgres DBAuthConfig `mapstructure:"postgres"`
	MySQL    DBAuthConfig `mapstructure:"mysql"`
}

// DBAuthConfig represents host based database parameters.
type DBAuthConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Database string `mapstructure:"database"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
}

// Connection translates the config section into database connection options.
func (c DatabaseConfig) Connection() database.Config {
	conn := database.Config{
		Driver: c.Driver,
		Path:   c.Path,
		DSN:    c.DSN,
	}

	var auth DBAuthConfig
	switch strings.ToLower(c.Driver) {
	case "postgres", "postgresql":
		auth = c.Postgres
	case "mysql":
		auth = c.MySQL
	}
	if auth.Enabled {
		conn.Host = auth.Host
		conn.Port = auth.Port
		conn.Name = auth.Database
		conn.User = auth.Username
		conn.Password = auth.Password
	}

	return conn
}

// DecksConfig tunes the deck cache.
type DecksConfig struct {
	ValidityDays int `mapstructure:"validity_days"`
}

// GeneratorConfig points at the lesson generation service.
type GeneratorConfig struct {
	URL     string        `mapstructure:"url"`
	Timeout time.Duration `mapstructure:"timeout"`
}

// NASAConfig configures the APOD API integration.
type NASAConfig struct {
	APIKey   string `mapstructure:"api_key"`
	BaseURL  string `mapstructure:"base_url"`
	MinDate  string `mapstructure:"min_date"`
	Schedule string `mapstructure:"schedule"`
}

// CloudflareConfig configures Workers AI text-to-speech.
type CloudflareConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	AccountID string `mapstructure:"account_id"`
	APIToken  string `mapstructure:"api_token"`
	BaseURL   string `mapstructure:"base_url"`
	Provider  string `mapstructure:"provider"`
	Vendor    string `mapstructure:"vendor"`
	Model     string `mapstructure:"model"`
	Voice     string `mapstructure:"voice"`
}

// TTSConfigured reports whether all the credentials needed for synthesis are present.
func (c CloudflareConfig) TTSConfigured() bool {
	return c.AccountID != "" && c.APIToken != "" &&
		c.Provider != "" && c.Vendor != "" && c.Model != ""
}

// StorageConfig configures the S3-compatible audio bucket.
type StorageConfig struct {
	Endpoint        string `mapstructure:"endpoint"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
	Bucket          string `mapstructure:"bucket"`
	PublicBaseURL   string `mapstructure:"public_base_url"`
}

// Configured reports whether the bucket settings are complete.
func (c StorageConfig) Configured() bool {
	return c.Endpoint != "" && c.AccessKeyID != "" && c.SecretAccessKey != "" &&
		c.Bucket != "" && c.PublicBaseURL != ""
}

// MonitoringConfig enables health checks and metrics.
type MonitoringConfig struct {
	Prometheus PrometheusConfig `mapstructure:"prometheus"`
	Health     HealthConfig     `mapstructure:"health_check"`
}

// PrometheusConfig toggles metrics endpoints.
type PrometheusConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Endpoint string `mapstructure:"endpoint"`
}

// HealthConfig toggles health endpoints.
type HealthConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

// AppConfig holds application-wide settings.
type AppConfig struct {
	TimeZone string `mapstructure:"time_zone"`
}

// Zone resolves the configured time zone, defaulting to UTC.
func (c AppConfig) Zone() (*time.Location, error) {
	if c.TimeZone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.TimeZone)
}

// LoadConfig initialises application configuration using Viper with sensible defaults.
func LoadConfig(paths ...string) (*Config, error) {
	v := viper.NewWithOptions(viper.ExperimentalBindStruct())
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	v.AddConfigPath("./config")
	for _, path := range paths {
		v.AddConfigPath(path)
	}

	setDefaults(v)

	v.SetEnvPrefix("ASTROKIDDO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var cfgErr viper.ConfigFileNotFoundError
		if !errors.As(err, &cfgErr) {
			return nil, fmt.Errorf("config: read file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config, decodeHook()); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.log_level", "info")

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "./data/astrokiddo.sqlite")

	v.SetDefault("decks.validity_days", 60)

	v.SetDefault("generator.timeout", "90s")

	v.SetDefault("nasa.base_url", "https://api.nasa.gov")
	v.SetDefault("nasa.min_date", "2025-12-01")
	v.SetDefault("nasa.schedule", "0 6 * * *")

	v.SetDefault("cloudflare.enabled", false)
	v.SetDefault("cloudflare.base_url", "https://api.cloudflare.com")
	v.SetDefault("cloudflare.provider", "workers-ai")
	v.SetDefault("cloudflare.vendor", "myshell-ai")
	v.SetDefault("cloudflare.model", "melotts")

	v.SetDefault("monitoring.prometheus.enabled", true)
	v.SetDefault("monitoring.prometheus.endpoint", "/metrics")
	v.SetDefault("monitoring.health_check.enabled", true)

	v.SetDefault("app.time_zone", "UTC")
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}
