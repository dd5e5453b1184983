// Package config loads, normalizes, and validates SaleSavor configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, loads a local .env file, and honours
// environment fallbacks such as SALESAVOR_API_URL. The Config type centralizes
// every knob the journey controller and CLI need, including the switch between
// loading sales on store selection and loading them lazily on navigation.
//
// Always obtain settings through this package so downstream code receives
// sanitized URLs, canonical log formats, and clear validation errors.
package config
