package testsupport

import (
	"path/filepath"
	"testing"

	"salesavor/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Location lookups are disabled and the API points at an unroutable address
// until WithAPIURL replaces it.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.API.BaseURL = "http://127.0.0.1:0"
	cfgVal.Location.Provider = "none"
	cfgVal.Session.Dir = filepath.Join(base, "sessions")
	cfgVal.Session.Name = "test"
	cfgVal.Logging.Dir = filepath.Join(base, "logs")
	cfgVal.Notifications.NtfyTopic = ""

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}
	for _, opt := range opts {
		opt(builder)
	}
	return builder.cfg
}

// WithAPIURL points the config at a test server.
func WithAPIURL(url string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.API.BaseURL = url
	}
}

// WithStaticLocation makes the locator return the given coordinates.
func WithStaticLocation(lat, lon float64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Location.Provider = "static"
		b.cfg.Location.Latitude = lat
		b.cfg.Location.Longitude = lon
	}
}

// WithSalesOnSelect toggles loading sales as soon as a store is selected.
func WithSalesOnSelect(enabled bool) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Journey.SalesOnSelect = enabled
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Session.Dir)
}
