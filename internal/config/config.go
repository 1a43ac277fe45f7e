package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

const (
	// MinPollingInterval is the lowest effective polling interval in seconds.
	MinPollingInterval = 10

	// MaxPollingInterval is the largest interval in seconds that fits in a time.Duration.
	MaxPollingInterval = math.MaxInt64 / int64(time.Second)

	// FileName is the config file name inside the config directory.
	FileName = "config.toml"

	defaultContent = "polling_interval = 10\n"
)

var (
	// ErrMissingInterval is returned when the config file has no polling_interval key.
	ErrMissingInterval = errors.New("polling_interval is required")

	validate = validator.New()
)

// Config is the watcher's file configuration after defaults and clamping.
type Config struct {
	// PollingInterval is the effective interval in seconds, within
	// [MinPollingInterval, MaxPollingInterval].
	PollingInterval int64

	// StrictRegistration makes a failed bucket registration fatal at startup.
	StrictRegistration bool

	// MetricsAddr enables the /metrics and /health listener when set.
	MetricsAddr string `validate:"omitempty,hostname_port"`

	// ServerHost is the event-store host.
	ServerHost string `validate:"required"`

	GoogleAPIKey string
}

// fileConfig mirrors the TOML document.
type fileConfig struct {
	PollingInterval    int64  `toml:"polling_interval"`
	StrictRegistration *bool  `toml:"strict_registration"`
	MetricsAddr        string `toml:"metrics_addr"`
	ServerHost         string `toml:"server_host"`
	GoogleAPIKey       string `toml:"google_api_key"`
}

// Interval returns the effective polling interval.
func (c *Config) Interval() time.Duration {
	return time.Duration(c.PollingInterval) * time.Second
}

// DefaultDir returns the per-user config directory of the watcher.
func DefaultDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(base, "activitywatch", "aw-watcher-network"), nil
}

// Bootstrap creates the config file with default content when it does not
// exist yet. It reports whether a file was created.
func Bootstrap(path string) (bool, error) {
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return false, fmt.Errorf("stat config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return false, fmt.Errorf("create config dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(defaultContent), 0o644); err != nil {
		return false, fmt.Errorf("write default config: %w", err)
	}
	return true, nil
}

// Load reads the config file at path, creating it with defaults first if it
// is absent. A polling_interval below MinPollingInterval is raised to the
// minimum and one above MaxPollingInterval is lowered to the maximum, both
// with a warning.
func Load(path string, logger *slog.Logger) (*Config, error) {
	created, err := Bootstrap(path)
	if err != nil {
		return nil, err
	}
	if created {
		logger.Info("config file created", "path", path)
	}

	var raw fileConfig
	md, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	if !md.IsDefined("polling_interval") {
		return nil, fmt.Errorf("parse config %s: %w", path, ErrMissingInterval)
	}
	for _, key := range md.Undecoded() {
		logger.Warn("ignoring unknown config key", "key", key.String())
	}

	cfg := &Config{
		PollingInterval:    raw.PollingInterval,
		StrictRegistration: true,
		MetricsAddr:        strings.TrimSpace(raw.MetricsAddr),
		ServerHost:         strings.TrimSpace(raw.ServerHost),
		GoogleAPIKey:       strings.TrimSpace(raw.GoogleAPIKey),
	}
	if raw.StrictRegistration != nil {
		cfg.StrictRegistration = *raw.StrictRegistration
	}
	if cfg.ServerHost == "" {
		cfg.ServerHost = "localhost"
	}

	if cfg.PollingInterval < MinPollingInterval {
		logger.Warn("polling interval is too low, using minimum",
			"configured", cfg.PollingInterval, "seconds", MinPollingInterval)
		cfg.PollingInterval = MinPollingInterval
	}
	if cfg.PollingInterval > MaxPollingInterval {
		logger.Warn("polling interval is too high, using maximum",
			"configured", cfg.PollingInterval, "seconds", MaxPollingInterval)
		cfg.PollingInterval = MaxPollingInterval
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// Env holds process settings taken from the environment.
type Env struct {
	ConfigDir    string
	LogLevel     string
	LogFormat    string
	ServerHost   string
	GoogleAPIKey string
}

// LoadEnv loads an optional .env file and reads the watcher's environment
// variables. The returned message is non-empty when no .env file was loaded.
func LoadEnv() (Env, string) {
	var note string
	if err := godotenv.Load(); err != nil {
		note = fmt.Sprintf("no .env file found or error loading it: %v", err)
	}
	return Env{
		ConfigDir:    os.Getenv("AW_WATCHER_NETWORK_CONFIG_DIR"),
		LogLevel:     getenvDefault("AW_LOG_LEVEL", "info"),
		LogFormat:    getenvDefault("AW_LOG_FORMAT", "text"),
		ServerHost:   os.Getenv("AW_SERVER_HOST"),
		GoogleAPIKey: os.Getenv("GOOGLE_API_KEY"),
	}, note
}

// Apply overlays non-empty environment values onto cfg.
func (e Env) Apply(cfg *Config) {
	if e.ServerHost != "" {
		cfg.ServerHost = e.ServerHost
	}
	if e.GoogleAPIKey != "" {
		cfg.GoogleAPIKey = e.GoogleAPIKey
	}
}

// Path returns the config file path, honouring ConfigDir when set.
func (e Env) Path() (string, error) {
	dir := e.ConfigDir
	if dir == "" {
		var err error
		if dir, err = DefaultDir(); err != nil {
			return "", err
		}
	}
	return filepath.Join(dir, FileName), nil
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
