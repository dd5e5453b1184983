package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateAPI(); err != nil {
		return err
	}
	if err := c.validateLocation(); err != nil {
		return err
	}
	if err := c.validateJourney(); err != nil {
		return err
	}
	if err := c.validateDisplay(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return ensurePositiveMap(map[string]int{
		"api.timeout_seconds":           c.API.TimeoutSeconds,
		"api.search_radius_km":          c.API.SearchRadiusKm,
		"location.timeout_seconds":      c.Location.TimeoutSeconds,
		"journey.fetch_timeout_seconds": c.Journey.FetchTimeoutSeconds,
		"notifications.request_timeout": c.Notifications.RequestTimeout,
	})
}

func (c *Config) validateAPI() error {
	parsed, err := url.Parse(c.API.BaseURL)
	if err != nil {
		return fmt.Errorf("api.base_url is invalid: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("api.base_url must use http or https, got %q", c.API.BaseURL)
	}
	if parsed.Host == "" {
		return fmt.Errorf("api.base_url must include a host, got %q", c.API.BaseURL)
	}
	return nil
}

func (c *Config) validateLocation() error {
	switch c.Location.Provider {
	case "ip", "static", "none":
	default:
		return fmt.Errorf("location.provider must be one of ip, static, none (got %q)", c.Location.Provider)
	}
	if err := validateCoordinates("location.fallback", c.Location.FallbackLatitude, c.Location.FallbackLongitude); err != nil {
		return err
	}
	if c.Location.Provider == "static" {
		if err := validateCoordinates("location", c.Location.Latitude, c.Location.Longitude); err != nil {
			return err
		}
	}
	return nil
}

func (c *Config) validateJourney() error {
	if c.Journey.ServingsMultiplier <= 0 {
		return errors.New("journey.servings_multiplier must be positive")
	}
	if c.Journey.DefaultServings <= 0 {
		return errors.New("journey.default_servings must be positive")
	}
	return nil
}

func (c *Config) validateDisplay() error {
	if _, err := currency.ParseISO(c.Display.Currency); err != nil {
		return fmt.Errorf("display.currency %q is not an ISO 4217 code: %w", c.Display.Currency, err)
	}
	if _, err := language.Parse(c.Display.Language); err != nil {
		return fmt.Errorf("display.language %q is not a BCP 47 tag: %w", c.Display.Language, err)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json (got %q)", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error (got %q)", c.Logging.Level)
	}
	return nil
}

func validateCoordinates(prefix string, lat, lon float64) error {
	if lat < -90 || lat > 90 {
		return fmt.Errorf("%s latitude must be between -90 and 90", strings.TrimSuffix(prefix, "."))
	}
	if lon < -180 || lon > 180 {
		return fmt.Errorf("%s longitude must be between -180 and 180", strings.TrimSuffix(prefix, "."))
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
