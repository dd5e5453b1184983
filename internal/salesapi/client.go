package salesapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"salesavor/internal/services"
)

const (
	defaultHTTPTimeout = 30 * time.Second
	defaultRadiusKm    = 25
	defaultUserAgent   = "SaleSavor-Go/0.1.0"
	maxErrorBody       = 4 << 10
)

// RequestIDHeader carries the correlation id of each call.
const RequestIDHeader = "X-Request-ID"

// Config captures the runtime settings required to talk to the API.
type Config struct {
	BaseURL        string
	TimeoutSeconds int
	SearchRadiusKm int
	UserAgent      string
}

// Client speaks the SaleSavor HTTP API.
type Client struct {
	baseURL    string
	radiusKm   int
	userAgent  string
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithUserAgent overrides the User-Agent header.
func WithUserAgent(agent string) Option {
	return func(c *Client) {
		if agent = strings.TrimSpace(agent); agent != "" {
			c.userAgent = agent
		}
	}
}

// NewClient constructs an API client using the supplied configuration.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultHTTPTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	client := &Client{
		baseURL:    strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		radiusKm:   cfg.SearchRadiusKm,
		userAgent:  strings.TrimSpace(cfg.UserAgent),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	if client.radiusKm <= 0 {
		client.radiusKm = defaultRadiusKm
	}
	if client.userAgent == "" {
		client.userAgent = defaultUserAgent
	}
	return client
}

// StatusError reports a non-2xx API response.
type StatusError struct {
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("http %d", e.StatusCode)
	}
	return fmt.Sprintf("http %d: %s", e.StatusCode, e.Detail)
}

// FindStores returns stores within the configured radius of position.
func (c *Client) FindStores(ctx context.Context, position GeoPosition) ([]Store, error) {
	query := url.Values{"radius_km": []string{strconv.Itoa(c.radiusKm)}}
	var stores []Store
	if err := c.do(ctx, "find stores", http.MethodPost, "/api/stores/nearby", query, position, &stores); err != nil {
		return nil, err
	}
	return stores, nil
}

// GetSales returns the current sale items of a store.
func (c *Client) GetSales(ctx context.Context, storeID string) ([]SaleItem, error) {
	storeID = strings.TrimSpace(storeID)
	if storeID == "" {
		return nil, services.Wrap(services.ErrInput, "salesapi", "get sales", "store id required", nil)
	}
	var items []SaleItem
	path := "/api/stores/" + url.PathEscape(storeID) + "/sales"
	if err := c.do(ctx, "get sales", http.MethodGet, path, nil, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// GenerateRecipes asks the API for recipes built from sale items.
func (c *Client) GenerateRecipes(ctx context.Context, req RecipeRequest) ([]Recipe, error) {
	var recipes []Recipe
	if err := c.do(ctx, "generate recipes", http.MethodPost, "/api/recipes/generate", nil, req, &recipes); err != nil {
		return nil, err
	}
	return recipes, nil
}

// GenerateGroceryList asks the API for an optimized grocery list.
func (c *Client) GenerateGroceryList(ctx context.Context, req GroceryListRequest) (GroceryList, error) {
	var list GroceryList
	if err := c.do(ctx, "generate grocery list", http.MethodPost, "/api/grocery-list/generate", nil, req, &list); err != nil {
		return GroceryList{}, err
	}
	return list, nil
}

// CreateProfile stores a new profile.
func (c *Client) CreateProfile(ctx context.Context, data ProfileData) (Profile, error) {
	var profile Profile
	if err := c.do(ctx, "create profile", http.MethodPost, "/api/profile", nil, data, &profile); err != nil {
		return Profile{}, err
	}
	return profile, nil
}

// UpdateProfile replaces the fields of an existing profile.
func (c *Client) UpdateProfile(ctx context.Context, id string, data ProfileData) (Profile, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Profile{}, services.Wrap(services.ErrInput, "salesapi", "update profile", "profile id required", nil)
	}
	var profile Profile
	if err := c.do(ctx, "update profile", http.MethodPut, "/api/profile/"+url.PathEscape(id), nil, data, &profile); err != nil {
		return Profile{}, err
	}
	return profile, nil
}

// GetProfile fetches a stored profile.
func (c *Client) GetProfile(ctx context.Context, id string) (Profile, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Profile{}, services.Wrap(services.ErrInput, "salesapi", "get profile", "profile id required", nil)
	}
	var profile Profile
	if err := c.do(ctx, "get profile", http.MethodGet, "/api/profile/"+url.PathEscape(id), nil, nil, &profile); err != nil {
		return Profile{}, err
	}
	return profile, nil
}

// EmailGroceryList sends a grocery list to an email address.
func (c *Client) EmailGroceryList(ctx context.Context, req EmailRequest) (EmailResult, error) {
	var result EmailResult
	if err := c.do(ctx, "email grocery list", http.MethodPost, "/api/email-grocery-list", nil, req, &result); err != nil {
		return EmailResult{}, err
	}
	return result, nil
}

func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out any) error {
	if c.baseURL == "" {
		return services.Wrap(services.ErrConfiguration, "salesapi", op, "api base url not configured", nil)
	}
	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return services.Wrap(services.ErrInput, "salesapi", op, "encode request", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return services.Wrap(services.ErrConfiguration, "salesapi", op, "build request", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	requestID, ok := services.RequestIDFromContext(ctx)
	if !ok {
		requestID = uuid.NewString()
	}
	req.Header.Set(RequestIDHeader, requestID)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransport, "salesapi", op, "request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		statusErr := &StatusError{StatusCode: resp.StatusCode, Detail: errorDetail(raw)}
		return services.Wrap(services.ErrTransport, "salesapi", op, "unexpected status", statusErr)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return services.Wrap(services.ErrTransport, "salesapi", op, "empty response body", nil)
		}
		return services.Wrap(services.ErrTransport, "salesapi", op, "decode response", err)
	}
	return nil
}

// errorDetail extracts the {"detail": ...} message the API returns on failure.
func errorDetail(raw []byte) string {
	var envelope struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(raw, &envelope); err == nil && envelope.Detail != nil {
		if s, ok := envelope.Detail.(string); ok {
			return s
		}
		if encoded, err := json.Marshal(envelope.Detail); err == nil {
			return string(encoded)
		}
	}
	return strings.TrimSpace(string(raw))
}
