package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const dbFileName = "issues.db"

// Config holds resolved configuration for the data directory, database and
// HTTP server.
type Config struct {
	DataDir string // resolved data directory path
	DBPath  string // full path to issues.db
	PathSet bool   // whether the data directory was set explicitly

	Addr       string
	Env        string
	LogFormat  string
	CORSOrigin string

	RateLimit   int // requests per minute per client IP, 0 disables
	PageSize    int
	MaxPageSize int

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// New returns a viper instance with defaults and DOCKET_* environment
// binding. Callers may bind command flags into it before calling Load, so
// flags override the environment which overrides defaults.
func New() *viper.Viper {
	v := viper.New()

	// E.g. DOCKET_PATH, DOCKET_ADDR, DOCKET_LOG_FORMAT, DOCKET_RATE_LIMIT.
	v.SetEnvPrefix("DOCKET")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("path", "")
	v.SetDefault("config", "")
	v.SetDefault("addr", ":8080")
	v.SetDefault("env", "dev")
	v.SetDefault("log-format", "json")
	v.SetDefault("cors-origin", "*")
	v.SetDefault("rate-limit", 600)
	v.SetDefault("page-size", 50)
	v.SetDefault("max-page-size", 200)
	v.SetDefault("read-timeout", "15s")
	v.SetDefault("write-timeout", "30s")
	v.SetDefault("shutdown-timeout", "10s")

	return v
}

// Load resolves a Config from v. When the "config" key names a file it is
// read first; keys found there sit between the environment and the defaults.
// The data directory falls back to $PWD/.docket when "path" is unset.
func Load(v *viper.Viper) (*Config, error) {
	if file := v.GetString("config"); file != "" {
		v.SetConfigFile(file)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", file, err)
		}
	}

	dataDir := v.GetString("path")
	pathSet := dataDir != ""
	if !pathSet {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		dataDir = filepath.Join(cwd, ".docket")
	}

	cfg := &Config{
		DataDir:         dataDir,
		DBPath:          filepath.Join(dataDir, dbFileName),
		PathSet:         pathSet,
		Addr:            v.GetString("addr"),
		Env:             v.GetString("env"),
		LogFormat:       v.GetString("log-format"),
		CORSOrigin:      v.GetString("cors-origin"),
		RateLimit:       v.GetInt("rate-limit"),
		PageSize:        v.GetInt("page-size"),
		MaxPageSize:     v.GetInt("max-page-size"),
		ReadTimeout:     v.GetDuration("read-timeout"),
		WriteTimeout:    v.GetDuration("write-timeout"),
		ShutdownTimeout: v.GetDuration("shutdown-timeout"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Resolve loads the configuration from the environment and defaults only.
func Resolve() (*Config, error) {
	return Load(New())
}

func (c *Config) validate() error {
	switch c.LogFormat {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log format %q: must be json or console", c.LogFormat)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("invalid rate limit %d: must not be negative", c.RateLimit)
	}
	if c.PageSize < 1 {
		return fmt.Errorf("invalid page size %d: must be at least 1", c.PageSize)
	}
	if c.MaxPageSize < c.PageSize {
		return fmt.Errorf("invalid max page size %d: must be at least the page size %d", c.MaxPageSize, c.PageSize)
	}
	return nil
}

// Exists checks if the data directory and DB file both exist.
// It returns an error for non-existence failures (e.g. permission errors).
func (c *Config) Exists() (bool, error) {
	if _, err := os.Stat(c.DataDir); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if _, err := os.Stat(c.DBPath); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}
