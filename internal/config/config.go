package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is used when CLANS_CONFIG is not set.
const DefaultPath = "config/clans.yaml"

// Store drivers.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Server holds all configuration for the clan daemon.
type Server struct {
	LogLevel    string `yaml:"log_level"` // debug, info, warn, error
	MetricsAddr string `yaml:"metrics_addr"`

	Store    StoreConfig    `yaml:"store"`
	Database DatabaseConfig `yaml:"database"`

	// Clan policy
	Clans Clans `yaml:"clans"`

	// Inactivity report
	InactiveWarnDays      int           `yaml:"inactive_warn_days"`
	InactiveCheckInterval time.Duration `yaml:"inactive_check_interval"`

	// Full flush of the clan table
	SaveInterval time.Duration `yaml:"save_interval"`

	// Concurrent store writes during disband
	PersistLimit int `yaml:"persist_limit"`

	// Buffered messages per online player
	PresenceQueueSize int `yaml:"presence_queue_size"`
}

// StoreConfig selects the clan store backend.
type StoreConfig struct {
	Driver     string `yaml:"driver"`
	SQLitePath string `yaml:"sqlite_path"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	URL      string `yaml:"url"` // overrides the fields below when set
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// Default returns Server config with sensible defaults.
func Default() Server {
	return Server{
		LogLevel:    "info",
		MetricsAddr: ":9108",
		Store: StoreConfig{
			Driver:     DriverPostgres,
			SQLitePath: "data/clans.db",
		},
		Database: DatabaseConfig{
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "clans",
			Password: "clans",
			DBName:   "clans",
			SSLMode:  "disable",
		},
		Clans:                 DefaultClans(),
		InactiveWarnDays:      30,
		InactiveCheckInterval: time.Hour,
		SaveInterval:          5 * time.Minute,
		PersistLimit:          8,
		PresenceQueueSize:     64,
	}
}

// Load reads the YAML config and applies environment overrides.
// A .env file in the working directory is loaded first if present.
// CLANS_CONFIG overrides path. If the file doesn't exist, defaults are used.
func Load(path string) (Server, error) {
	_ = godotenv.Load()

	if p := os.Getenv("CLANS_CONFIG"); p != "" {
		path = p
	}

	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config %s: %w", path, err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	applyEnv(&cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

func applyEnv(cfg *Server) {
	cfg.LogLevel = envString("CLANS_LOG_LEVEL", cfg.LogLevel)
	cfg.MetricsAddr = envString("CLANS_METRICS_ADDR", cfg.MetricsAddr)
	cfg.Store.Driver = envString("CLANS_STORE", cfg.Store.Driver)
	cfg.Store.SQLitePath = envString("CLANS_SQLITE_PATH", cfg.Store.SQLitePath)
	cfg.Database.URL = envString("CLANS_DATABASE_URL", cfg.Database.URL)
	cfg.Clans.VerificationRequired = envBool("CLANS_REQUIRE_VERIFICATION", cfg.Clans.VerificationRequired)
	cfg.Clans.BulletinBoardSize = envInt("CLANS_BB_SIZE", cfg.Clans.BulletinBoardSize)
	cfg.PersistLimit = envInt("CLANS_PERSIST_LIMIT", cfg.PersistLimit)
}

func envString(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
