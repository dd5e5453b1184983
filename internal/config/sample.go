package config

import (
	"strconv"
	"strings"
)

// Sample holds the answers `config init` can fill into the sample file.
// Zero values leave the sample's defaults in place.
type Sample struct {
	APIURL        string
	Provider      string
	Latitude      *float64
	Longitude     *float64
	SalesOnSelect bool
}

// Render returns the sample configuration with s applied. Comments and
// layout of the sample are kept.
func (s Sample) Render() string {
	lines := strings.Split(sampleConfig, "\n")
	if url := strings.TrimSpace(s.APIURL); url != "" {
		setSampleKey(lines, "api", "base_url", strconv.Quote(url))
	}
	if provider := strings.ToLower(strings.TrimSpace(s.Provider)); provider != "" {
		setSampleKey(lines, "location", "provider", strconv.Quote(provider))
	}
	if s.Latitude != nil {
		setSampleKey(lines, "location", "latitude", strconv.FormatFloat(*s.Latitude, 'f', -1, 64))
	}
	if s.Longitude != nil {
		setSampleKey(lines, "location", "longitude", strconv.FormatFloat(*s.Longitude, 'f', -1, 64))
	}
	if s.SalesOnSelect {
		setSampleKey(lines, "journey", "sales_on_select", "true")
	}
	return strings.Join(lines, "\n")
}

// setSampleKey rewrites the first "key = ..." line of section, uncommenting
// it when the sample only shows the key as an example.
func setSampleKey(lines []string, section, key, value string) {
	current := ""
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "[") && strings.HasSuffix(trimmed, "]") {
			current = strings.Trim(trimmed, "[]")
			continue
		}
		if current != section {
			continue
		}
		candidate := strings.TrimSpace(strings.TrimPrefix(trimmed, "#"))
		name, _, found := strings.Cut(candidate, "=")
		if !found || strings.TrimSpace(name) != key {
			continue
		}
		lines[i] = key + " = " + value
		return
	}
}
