package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"salesavor/internal/config"
	"salesavor/internal/salesapi"
	"salesavor/internal/services"
)

// Fallback is the position used whenever the shopper cannot be located
// (downtown Toronto).
var Fallback = salesapi.GeoPosition{Latitude: 43.6532, Longitude: -79.3832}

// Locator acquires the shopper's position. Implementations return errors
// marked with services.ErrPermission for every failure.
type Locator interface {
	Locate(ctx context.Context) (salesapi.GeoPosition, error)
}

// Static always reports the same position.
type Static struct {
	Position salesapi.GeoPosition
}

func (s Static) Locate(context.Context) (salesapi.GeoPosition, error) {
	return s.Position, nil
}

// Unavailable never locates; callers fall back.
type Unavailable struct {
	Reason string
}

func (u Unavailable) Locate(context.Context) (salesapi.GeoPosition, error) {
	reason := u.Reason
	if reason == "" {
		reason = "location unavailable"
	}
	return salesapi.GeoPosition{}, services.Wrap(services.ErrPermission, "geo", "locate", reason, nil)
}

// IPLocator resolves the public IP address to a position through an
// ip-api.com compatible endpoint.
type IPLocator struct {
	URL        string
	HTTPClient *http.Client
}

type ipLookupResponse struct {
	Status  string  `json:"status"`
	Message string  `json:"message"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	City    string  `json:"city"`
	Region  string  `json:"regionName"`
	Country string  `json:"country"`
}

func (l IPLocator) Locate(ctx context.Context) (salesapi.GeoPosition, error) {
	client := l.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.URL, nil)
	if err != nil {
		return salesapi.GeoPosition{}, services.Wrap(services.ErrPermission, "geo", "ip lookup", "build request", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return salesapi.GeoPosition{}, services.Wrap(services.ErrPermission, "geo", "ip lookup", "request failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return salesapi.GeoPosition{}, services.Wrap(services.ErrPermission, "geo", "ip lookup", fmt.Sprintf("http %d", resp.StatusCode), nil)
	}

	var payload ipLookupResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return salesapi.GeoPosition{}, services.Wrap(services.ErrPermission, "geo", "ip lookup", "decode response", err)
	}
	if payload.Status != "" && payload.Status != "success" {
		return salesapi.GeoPosition{}, services.Wrap(services.ErrPermission, "geo", "ip lookup", "lookup refused: "+payload.Message, nil)
	}
	if payload.Lat == 0 && payload.Lon == 0 {
		return salesapi.GeoPosition{}, services.Wrap(services.ErrPermission, "geo", "ip lookup", "no coordinates in response", nil)
	}
	return salesapi.GeoPosition{
		Latitude:  payload.Lat,
		Longitude: payload.Lon,
		Address:   joinNonEmpty(payload.City, payload.Region, payload.Country),
	}, nil
}

// FromConfig builds the locator selected by location.provider and returns
// the configured fallback position.
func FromConfig(cfg config.Location) (Locator, salesapi.GeoPosition) {
	fallback := salesapi.GeoPosition{Latitude: cfg.FallbackLatitude, Longitude: cfg.FallbackLongitude}
	if fallback.Latitude == 0 && fallback.Longitude == 0 {
		fallback = Fallback
	}
	timeout := 10 * time.Second
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	switch cfg.Provider {
	case "static":
		return Static{Position: salesapi.GeoPosition{Latitude: cfg.Latitude, Longitude: cfg.Longitude}}, fallback
	case "none":
		return Unavailable{Reason: "location provider disabled"}, fallback
	default:
		return IPLocator{URL: cfg.LookupURL, HTTPClient: &http.Client{Timeout: timeout}}, fallback
	}
}

func joinNonEmpty(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return strings.Join(out, ", ")
}
