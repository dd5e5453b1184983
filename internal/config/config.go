package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// API contains connection settings for the SaleSavor HTTP API.
type API struct {
	BaseURL        string `toml:"base_url"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	SearchRadiusKm int    `toml:"search_radius_km"`
	UserAgent      string `toml:"user_agent"`
}

// Location contains configuration for acquiring the shopper's position.
type Location struct {
	// Provider selects the locator: "ip" (IP geolocation lookup), "static"
	// (Latitude/Longitude below) or "none" (always use the fallback).
	Provider          string  `toml:"provider"`
	LookupURL         string  `toml:"lookup_url"`
	Latitude          float64 `toml:"latitude"`
	Longitude         float64 `toml:"longitude"`
	FallbackLatitude  float64 `toml:"fallback_latitude"`
	FallbackLongitude float64 `toml:"fallback_longitude"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
}

// Journey contains configuration for stage navigation and request shaping.
type Journey struct {
	// SalesOnSelect loads a store's sales and advances to the Sales stage as
	// soon as the store is selected. When false, sales load lazily on
	// navigation to the Sales stage.
	SalesOnSelect       bool    `toml:"sales_on_select"`
	ServingsMultiplier  float64 `toml:"servings_multiplier"`
	DefaultServings     int     `toml:"default_servings"`
	FetchTimeoutSeconds int     `toml:"fetch_timeout_seconds"`
}

// Display contains presentation settings for the CLI.
type Display struct {
	Currency string `toml:"currency"`
	Language string `toml:"language"`
}

// Session contains configuration for the local session database.
type Session struct {
	Dir  string `toml:"dir"`
	Name string `toml:"name"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Errors         bool   `toml:"errors"`
	Success        bool   `toml:"success"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
	Dir    string `toml:"dir"`
}

// Config encapsulates all configuration values for SaleSavor.
//
// Configuration sections by subsystem:
//   - API: base URL and request settings for the SaleSavor backend
//   - Location: locator provider and fallback coordinates
//   - Journey: sales loading variant and recipe/list request defaults
//   - Display: currency and language used when rendering prices
//   - Session: local session database location
//   - Notifications: ntfy push notification settings
//   - Logging: log format, level, and directory
type Config struct {
	API           API           `toml:"api"`
	Location      Location      `toml:"location"`
	Journey       Journey       `toml:"journey"`
	Display       Display       `toml:"display"`
	Session       Session       `toml:"session"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/salesavor/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("salesavor.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the session and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Session.Dir, c.Logging.Dir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// SessionDBPath returns the location of the SQLite session database.
func (c *Config) SessionDBPath() string {
	return filepath.Join(c.Session.Dir, "sessions.db")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes the sample configuration, with sample applied, to the
// specified location.
func CreateSample(path string, sample Sample) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sample.Render()), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
