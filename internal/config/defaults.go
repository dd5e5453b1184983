package config

const (
	defaultAPIBaseURL           = "http://localhost:8001"
	defaultAPITimeoutSeconds    = 30
	defaultSearchRadiusKm       = 25
	defaultUserAgent            = "SaleSavor-Go/0.1.0"
	defaultLocationProvider     = "ip"
	defaultLocationLookupURL    = "http://ip-api.com/json/"
	defaultLocationTimeout      = 10
	defaultFallbackLatitude     = 43.6532
	defaultFallbackLongitude    = -79.3832
	defaultServingsMultiplier   = 1.0
	defaultServings             = 4
	defaultFetchTimeoutSeconds  = 60
	defaultCurrency             = "CAD"
	defaultLanguage             = "en-CA"
	defaultSessionDir           = "~/.local/share/salesavor"
	defaultSessionName          = "default"
	defaultNotifyRequestTimeout = 10
	defaultLogFormat            = "console"
	defaultLogLevel             = "info"
	defaultLogDir               = "~/.local/share/salesavor/logs"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		API: API{
			BaseURL:        defaultAPIBaseURL,
			TimeoutSeconds: defaultAPITimeoutSeconds,
			SearchRadiusKm: defaultSearchRadiusKm,
			UserAgent:      defaultUserAgent,
		},
		Location: Location{
			Provider:          defaultLocationProvider,
			LookupURL:         defaultLocationLookupURL,
			FallbackLatitude:  defaultFallbackLatitude,
			FallbackLongitude: defaultFallbackLongitude,
			TimeoutSeconds:    defaultLocationTimeout,
		},
		Journey: Journey{
			SalesOnSelect:       false,
			ServingsMultiplier:  defaultServingsMultiplier,
			DefaultServings:     defaultServings,
			FetchTimeoutSeconds: defaultFetchTimeoutSeconds,
		},
		Display: Display{
			Currency: defaultCurrency,
			Language: defaultLanguage,
		},
		Session: Session{
			Dir:  defaultSessionDir,
			Name: defaultSessionName,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyRequestTimeout,
			Errors:         true,
			Success:        false,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
			Dir:    defaultLogDir,
		},
	}
}
