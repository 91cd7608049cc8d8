// Package config loads and saves stashstat configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/theirongolddev/stashstat/internal/logger"
	"github.com/theirongolddev/stashstat/internal/model"
)

// Config holds all stashstat configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Defaults   DefaultsConfig   `toml:"defaults"`
	Watch      WatchConfig      `toml:"watch"`
	Daemon     DaemonConfig     `toml:"daemon"`
	Log        LogConfig        `toml:"log"`
	Appearance AppearanceConfig `toml:"appearance"`
}

// GeneralConfig holds identity and storage settings.
type GeneralConfig struct {
	UserID   string `toml:"user_id,omitempty"`
	DBPath   string `toml:"db_path,omitempty"`
	Timezone string `toml:"timezone,omitempty"`
}

// DefaultsConfig holds the request used when no flags are given.
type DefaultsConfig struct {
	Mode   string `toml:"mode"`
	Period string `toml:"period"`
	Scope  string `toml:"scope"`
}

// WatchConfig holds live view settings.
type WatchConfig struct {
	RefreshIntervalSec int `toml:"refresh_interval_sec"`
}

// DaemonConfig holds background service settings.
type DaemonConfig struct {
	Addr        string `toml:"addr"`
	IntervalSec int    `toml:"interval_sec"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `toml:"level"`
}

// AppearanceConfig holds output formatting settings.
type AppearanceConfig struct {
	Currency string `toml:"currency"`
	Theme    string `toml:"theme"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		Defaults: DefaultsConfig{
			Mode:   string(model.ModeCurrent),
			Period: string(model.PeriodToday),
			Scope:  string(model.ScopeSelfStash),
		},
		Watch: WatchConfig{
			RefreshIntervalSec: 5,
		},
		Daemon: DaemonConfig{
			Addr:        "127.0.0.1:8788",
			IntervalSec: 10,
		},
		Log: LogConfig{
			Level: "info",
		},
		Appearance: AppearanceConfig{
			Currency: "$",
			Theme:    "flexoki-dark",
		},
	}
}

// Dir returns the XDG-compliant config directory.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "stashstat")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "stashstat")
}

// Path returns the full path to the config file.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// DataDir returns the XDG-compliant data directory.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "stashstat")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "stashstat")
}

// Load reads the config file, returning defaults if it doesn't exist, then
// applies .env and environment overrides.
func Load() (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(Path())
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
	case !os.IsNotExist(err):
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	loadDotEnv()
	applyEnv(&cfg)

	return cfg, nil
}

// loadDotEnv loads the first .env file found. Variables already set in the
// environment are kept.
func loadDotEnv() {
	var paths []string
	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}
	paths = append(paths, filepath.Join(Dir(), ".env"))

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			if err := godotenv.Load(path); err != nil {
				logger.Warn("loading env file", "path", path, "error", err)
			}
			return
		}
	}
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("STASHSTAT_USER_ID"); v != "" {
		cfg.General.UserID = v
	}
	if v := os.Getenv("STASHSTAT_DB"); v != "" {
		cfg.General.DBPath = v
	}
	if v := os.Getenv("STASHSTAT_TZ"); v != "" {
		cfg.General.Timezone = v
	}
	if v := os.Getenv("STASHSTAT_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
}

// Save writes the config to disk.
func Save(cfg Config) error {
	dir := Dir()
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(Path(), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(Path())
	return err == nil
}

// Validate checks that the configured defaults and timezone are usable.
func (c Config) Validate() error {
	if _, err := model.ParseMode(c.Defaults.Mode); err != nil {
		return fmt.Errorf("defaults.mode: %w", err)
	}
	if _, err := model.ParsePeriod(c.Defaults.Period); err != nil {
		return fmt.Errorf("defaults.period: %w", err)
	}
	if _, err := model.ParseScope(c.Defaults.Scope); err != nil {
		return fmt.Errorf("defaults.scope: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.Watch.RefreshIntervalSec < 0 || c.Daemon.IntervalSec < 0 {
		return fmt.Errorf("intervals must not be negative")
	}
	return nil
}

// DatabasePath returns the configured database path or the default one.
func (c Config) DatabasePath() string {
	if c.General.DBPath != "" {
		return c.General.DBPath
	}
	return filepath.Join(DataDir(), "activity.db")
}

// Location returns the configured time zone, or the local zone when unset.
func (c Config) Location() (*time.Location, error) {
	if c.General.Timezone == "" || c.General.Timezone == "Local" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.General.Timezone)
	if err != nil {
		return nil, fmt.Errorf("general.timezone: %w", err)
	}
	return loc, nil
}

// RefreshInterval returns the live view refresh interval, at least one second.
func (c Config) RefreshInterval() time.Duration {
	if c.Watch.RefreshIntervalSec < 1 {
		return 5 * time.Second
	}
	return time.Duration(c.Watch.RefreshIntervalSec) * time.Second
}

// DefaultRequest builds the statistics request described by the defaults.
// Invalid names fall back to current/today/self_stash.
func (c Config) DefaultRequest() model.StatsRequest {
	req := model.StatsRequest{
		Mode:          model.ModeCurrent,
		Period:        model.PeriodToday,
		Scope:         model.ScopeSelfStash,
		CurrentUserID: c.General.UserID,
	}
	if m, err := model.ParseMode(c.Defaults.Mode); err == nil {
		req.Mode = m
	}
	if p, err := model.ParsePeriod(c.Defaults.Period); err == nil {
		req.Period = p
	}
	if s, err := model.ParseScope(c.Defaults.Scope); err == nil {
		req.Scope = s
	}
	return req
}
