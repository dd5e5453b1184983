package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pelletier/go-toml/v2"

	"salesavor/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"SALESAVOR_API_URL", "SALESAVOR_SALES_ON_SELECT", "SALESAVOR_SESSION", "SALESAVOR_NTFY_TOPIC"} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaultConfigExpandsPaths(t *testing.T) {
	clearEnv(t)
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantSession := filepath.Join(tempHome, ".local", "share", "salesavor")
	if cfg.Session.Dir != wantSession {
		t.Fatalf("unexpected session dir: got %q want %q", cfg.Session.Dir, wantSession)
	}
	if cfg.SessionDBPath() != filepath.Join(wantSession, "sessions.db") {
		t.Fatalf("unexpected session db path: %q", cfg.SessionDBPath())
	}
	if cfg.API.BaseURL != "http://localhost:8001" {
		t.Fatalf("unexpected api base url: %q", cfg.API.BaseURL)
	}
	if cfg.API.SearchRadiusKm != 25 {
		t.Fatalf("expected 25km search radius, got %d", cfg.API.SearchRadiusKm)
	}
	if cfg.Location.FallbackLatitude != 43.6532 || cfg.Location.FallbackLongitude != -79.3832 {
		t.Fatalf("unexpected fallback coordinates: %v,%v", cfg.Location.FallbackLatitude, cfg.Location.FallbackLongitude)
	}
	if cfg.Journey.SalesOnSelect {
		t.Fatal("expected lazy sales loading by default")
	}
	if cfg.Journey.DefaultServings != 4 {
		t.Fatalf("expected 4 default servings, got %d", cfg.Journey.DefaultServings)
	}
	if cfg.Display.Currency != "CAD" {
		t.Fatalf("unexpected currency: %q", cfg.Display.Currency)
	}
	if cfg.Logging.Format != "console" || cfg.Logging.Level != "info" {
		t.Fatalf("unexpected logging defaults: %+v", cfg.Logging)
	}
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	t.Setenv("SALESAVOR_API_URL", "https://api.example.com/")
	t.Setenv("SALESAVOR_SALES_ON_SELECT", "yes")
	t.Setenv("SALESAVOR_SESSION", "weekend")
	t.Setenv("SALESAVOR_NTFY_TOPIC", "https://ntfy.sh/groceries")

	cfg, _, _, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.API.BaseURL != "https://api.example.com" {
		t.Fatalf("expected trimmed env base url, got %q", cfg.API.BaseURL)
	}
	if !cfg.Journey.SalesOnSelect {
		t.Fatal("expected sales_on_select from env")
	}
	if cfg.Session.Name != "weekend" {
		t.Fatalf("unexpected session name: %q", cfg.Session.Name)
	}
	if cfg.Notifications.NtfyTopic != "https://ntfy.sh/groceries" {
		t.Fatalf("unexpected ntfy topic: %q", cfg.Notifications.NtfyTopic)
	}
}

func TestLoadCustomPath(t *testing.T) {
	clearEnv(t)
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	configPath := filepath.Join(t.TempDir(), "config.toml")
	content := `
[api]
base_url = "https://salesavor.example.org/"
search_radius_km = 10

[location]
provider = "STATIC"
latitude = 45.4215
longitude = -75.6972

[journey]
sales_on_select = true

[display]
currency = "usd"
language = "en-US"

[session]
dir = "~/sessions"

[logging]
format = "JSON"
level = "Debug"
`
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to exist")
	}
	if resolved != configPath {
		t.Fatalf("unexpected resolved path: %q", resolved)
	}
	if cfg.API.BaseURL != "https://salesavor.example.org" {
		t.Fatalf("unexpected base url: %q", cfg.API.BaseURL)
	}
	if cfg.API.SearchRadiusKm != 10 {
		t.Fatalf("unexpected radius: %d", cfg.API.SearchRadiusKm)
	}
	if cfg.Location.Provider != "static" || cfg.Location.Latitude != 45.4215 {
		t.Fatalf("unexpected location: %+v", cfg.Location)
	}
	if !cfg.Journey.SalesOnSelect {
		t.Fatal("expected sales_on_select true")
	}
	if cfg.Display.Currency != "USD" {
		t.Fatalf("expected upper-cased currency, got %q", cfg.Display.Currency)
	}
	if cfg.Session.Dir != filepath.Join(tempHome, "sessions") {
		t.Fatalf("unexpected session dir: %q", cfg.Session.Dir)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging config: %+v", cfg.Logging)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"scheme", func(c *config.Config) { c.API.BaseURL = "ftp://example.com" }, "http or https"},
		{"provider", func(c *config.Config) { c.Location.Provider = "gps" }, "location.provider"},
		{"latitude", func(c *config.Config) { c.Location.FallbackLatitude = 120 }, "latitude"},
		{"static longitude", func(c *config.Config) {
			c.Location.Provider = "static"
			c.Location.Longitude = -200
		}, "longitude"},
		{"servings", func(c *config.Config) { c.Journey.DefaultServings = 0 }, "default_servings"},
		{"multiplier", func(c *config.Config) { c.Journey.ServingsMultiplier = -1 }, "servings_multiplier"},
		{"currency", func(c *config.Config) { c.Display.Currency = "XX" }, "display.currency"},
		{"log format", func(c *config.Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"log level", func(c *config.Config) { c.Logging.Level = "trace" }, "logging.level"},
		{"radius", func(c *config.Config) { c.API.SearchRadiusKm = 0 }, "api.search_radius_km"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := config.Default()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error mentioning %q, got %v", tc.want, err)
			}
		})
	}
}

func TestDefaultConfigValidates(t *testing.T) {
	cfg := config.Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
}

func TestCreateSampleProducesLoadableConfig(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path, config.Sample{}); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	var decoded config.Config
	if err := toml.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("sample is not valid TOML: %v", err)
	}
	if decoded.API.BaseURL == "" {
		t.Fatal("expected sample to set api.base_url")
	}

	if _, _, exists, err := config.Load(path); err != nil || !exists {
		t.Fatalf("expected sample to load cleanly, exists=%v err=%v", exists, err)
	}
}

func TestEnsureDirectoriesCreatesSessionAndLogDirs(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Session.Dir = filepath.Join(base, "session")
	cfg.Logging.Dir = filepath.Join(base, "logs")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories returned error: %v", err)
	}
	for _, dir := range []string{cfg.Session.Dir, cfg.Logging.Dir} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q, err=%v", dir, err)
		}
	}
}

func TestCreateSampleAppliesAnswers(t *testing.T) {
	clearEnv(t)
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")
	lat, lon := 45.4215, -75.6972
	sample := config.Sample{
		APIURL:        "https://api.example.com/",
		Provider:      "Static",
		Latitude:      &lat,
		Longitude:     &lon,
		SalesOnSelect: true,
	}
	if err := config.CreateSample(path, sample); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}

	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.API.BaseURL != "https://api.example.com" {
		t.Fatalf("unexpected base url %q", cfg.API.BaseURL)
	}
	if cfg.Location.Provider != "static" || cfg.Location.Latitude != lat || cfg.Location.Longitude != lon {
		t.Fatalf("unexpected location %+v", cfg.Location)
	}
	if !cfg.Journey.SalesOnSelect {
		t.Fatal("expected sales_on_select to be enabled")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "# ip: look up the position from the public IP address") {
		t.Fatal("rendering must keep the sample's comments")
	}
}
