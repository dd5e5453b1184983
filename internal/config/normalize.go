package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

func (c *Config) normalize() error {
	if err := loadDotEnv(); err != nil {
		return err
	}
	c.normalizeAPI()
	c.normalizeLocation()
	c.normalizeJourney()
	c.normalizeDisplay()
	if err := c.normalizeSession(); err != nil {
		return err
	}
	c.normalizeNotifications()
	return c.normalizeLogging()
}

// loadDotEnv reads ./.env when present. Variables already set in the process
// environment win over the file.
func loadDotEnv() error {
	if _, err := os.Stat(".env"); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat .env: %w", err)
	}
	if err := godotenv.Load(".env"); err != nil {
		return fmt.Errorf("load .env: %w", err)
	}
	return nil
}

func (c *Config) normalizeAPI() {
	if value, ok := os.LookupEnv("SALESAVOR_API_URL"); ok && strings.TrimSpace(value) != "" {
		c.API.BaseURL = value
	}
	c.API.BaseURL = strings.TrimRight(strings.TrimSpace(c.API.BaseURL), "/")
	if c.API.BaseURL == "" {
		c.API.BaseURL = defaultAPIBaseURL
	}
	c.API.UserAgent = strings.TrimSpace(c.API.UserAgent)
	if c.API.UserAgent == "" {
		c.API.UserAgent = defaultUserAgent
	}
}

func (c *Config) normalizeLocation() {
	c.Location.Provider = strings.ToLower(strings.TrimSpace(c.Location.Provider))
	if c.Location.Provider == "" {
		c.Location.Provider = defaultLocationProvider
	}
	c.Location.LookupURL = strings.TrimSpace(c.Location.LookupURL)
	if c.Location.LookupURL == "" {
		c.Location.LookupURL = defaultLocationLookupURL
	}
}

func (c *Config) normalizeJourney() {
	if value, ok := os.LookupEnv("SALESAVOR_SALES_ON_SELECT"); ok {
		switch strings.ToLower(strings.TrimSpace(value)) {
		case "1", "true", "yes", "on":
			c.Journey.SalesOnSelect = true
		case "0", "false", "no", "off":
			c.Journey.SalesOnSelect = false
		}
	}
	if c.Journey.ServingsMultiplier == 0 {
		c.Journey.ServingsMultiplier = defaultServingsMultiplier
	}
	if c.Journey.DefaultServings == 0 {
		c.Journey.DefaultServings = defaultServings
	}
}

func (c *Config) normalizeDisplay() {
	c.Display.Currency = strings.ToUpper(strings.TrimSpace(c.Display.Currency))
	if c.Display.Currency == "" {
		c.Display.Currency = defaultCurrency
	}
	c.Display.Language = strings.TrimSpace(c.Display.Language)
	if c.Display.Language == "" {
		c.Display.Language = defaultLanguage
	}
}

func (c *Config) normalizeSession() error {
	if strings.TrimSpace(c.Session.Dir) == "" {
		c.Session.Dir = defaultSessionDir
	}
	var err error
	if c.Session.Dir, err = expandPath(c.Session.Dir); err != nil {
		return fmt.Errorf("session.dir: %w", err)
	}
	if value, ok := os.LookupEnv("SALESAVOR_SESSION"); ok && strings.TrimSpace(value) != "" {
		c.Session.Name = value
	}
	c.Session.Name = strings.TrimSpace(c.Session.Name)
	if c.Session.Name == "" {
		c.Session.Name = defaultSessionName
	}
	return nil
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.NtfyTopic == "" {
		if value, ok := os.LookupEnv("SALESAVOR_NTFY_TOPIC"); ok {
			c.Notifications.NtfyTopic = strings.TrimSpace(value)
		}
	}
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if strings.TrimSpace(c.Logging.Dir) == "" {
		return nil
	}
	var err error
	if c.Logging.Dir, err = expandPath(c.Logging.Dir); err != nil {
		return fmt.Errorf("logging.dir: %w", err)
	}
	return nil
}
