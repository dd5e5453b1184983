package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/pelletier/go-toml/v2"
	"github.com/shopspring/decimal"

	"salesavor/internal/config"
	"salesavor/internal/salesapi"
	"salesavor/internal/testsupport"
)

// fakeSaleSavor serves the subset of the SaleSavor API the CLI calls.
type fakeSaleSavor struct {
	mu          sync.Mutex
	profiles    map[string]salesapi.Profile
	nextProfile int
	calls       map[string]int
	listReqs    []salesapi.GroceryListRequest
	emails      []salesapi.EmailRequest
	failRecipes bool
}

func newFakeSaleSavor(t *testing.T) (*fakeSaleSavor, *httptest.Server) {
	t.Helper()
	fake := &fakeSaleSavor{profiles: make(map[string]salesapi.Profile), calls: make(map[string]int)}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/stores/nearby", func(w http.ResponseWriter, r *http.Request) {
		fake.count("stores")
		writeJSON(w, []salesapi.Store{
			{ID: "s1", Name: "Metro Plus", Chain: "metro", Address: "1 King St"},
			{ID: "s2", Name: "Food Basics", Chain: "food basics", Address: "2 Queen St"},
		})
	})
	mux.HandleFunc("GET /api/stores/{id}/sales", func(w http.ResponseWriter, r *http.Request) {
		fake.count("sales")
		id := r.PathValue("id")
		writeJSON(w, []map[string]any{
			{"id": id + "-i1", "name": "Pasta (500g)", "category": "pantry", "original_price": 2.49, "sale_price": 1.49, "discount_percentage": 40, "store_id": id, "valid_until": "2026-10-20T00:00:00"},
			{"id": id + "-i2", "name": "Tomatoes (1 lb)", "category": "produce", "original_price": "3.99", "sale_price": "2.49", "discount_percentage": 37.6, "store_id": id, "valid_until": "2026-10-20T00:00:00"},
		})
	})
	mux.HandleFunc("POST /api/recipes/generate", func(w http.ResponseWriter, r *http.Request) {
		fake.count("recipes")
		fake.mu.Lock()
		fail := fake.failRecipes
		fake.mu.Unlock()
		if fail {
			http.Error(w, `{"detail":"recipe service down"}`, http.StatusBadGateway)
			return
		}
		writeJSON(w, []map[string]any{
			{"id": "r1", "name": "Tomato Pasta", "description": "Quick weeknight pasta", "prep_time": 10, "cook_time": 15, "servings": 4, "estimated_cost": 8.5,
				"ingredients": []map[string]any{{"name": "Pasta", "quantity": 1, "unit": "box", "estimated_price": 1.49}}, "instructions": []string{"Boil pasta", "Add sauce"}},
			{"id": "r2", "name": "Tomato Soup", "prep_time": 5, "cook_time": 25, "servings": 4, "estimated_cost": 6},
		})
	})
	mux.HandleFunc("POST /api/grocery-list/generate", func(w http.ResponseWriter, r *http.Request) {
		fake.count("list")
		var req salesapi.GroceryListRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		fake.mu.Lock()
		fake.listReqs = append(fake.listReqs, req)
		fake.mu.Unlock()
		sale := decimal.RequireFromString("1.49")
		writeJSON(w, salesapi.GroceryList{
			ID:              "g1",
			SelectedRecipes: req.SelectedRecipes,
			Items: []salesapi.GroceryItem{
				{Ingredient: "Pasta", Quantity: "1 box", StoreName: "Food Basics", Price: decimal.RequireFromString("2.49"), SalePrice: &sale, IsOnSale: true},
			},
			TotalCost:    decimal.RequireFromString("1.49"),
			TotalSavings: decimal.RequireFromString("1.00"),
		})
	})
	mux.HandleFunc("POST /api/profile", func(w http.ResponseWriter, r *http.Request) {
		fake.count("create-profile")
		var data salesapi.ProfileData
		if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		fake.mu.Lock()
		fake.nextProfile++
		profile := salesapi.Profile{ID: fmt.Sprintf("p%d", fake.nextProfile), ProfileData: data}
		fake.profiles[profile.ID] = profile
		fake.mu.Unlock()
		writeJSON(w, profile)
	})
	mux.HandleFunc("PUT /api/profile/{id}", func(w http.ResponseWriter, r *http.Request) {
		fake.count("update-profile")
		var data salesapi.ProfileData
		if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		profile := salesapi.Profile{ID: r.PathValue("id"), ProfileData: data}
		fake.mu.Lock()
		fake.profiles[profile.ID] = profile
		fake.mu.Unlock()
		writeJSON(w, profile)
	})
	mux.HandleFunc("GET /api/profile/{id}", func(w http.ResponseWriter, r *http.Request) {
		fake.count("get-profile")
		fake.mu.Lock()
		profile, ok := fake.profiles[r.PathValue("id")]
		fake.mu.Unlock()
		if !ok {
			http.Error(w, `{"detail":"Profile not found"}`, http.StatusNotFound)
			return
		}
		writeJSON(w, profile)
	})
	mux.HandleFunc("POST /api/email-grocery-list", func(w http.ResponseWriter, r *http.Request) {
		fake.count("email")
		var req salesapi.EmailRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		fake.mu.Lock()
		fake.emails = append(fake.emails, req)
		fake.mu.Unlock()
		writeJSON(w, salesapi.EmailResult{Status: "success", Message: "sent"})
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return fake, srv
}

func (f *fakeSaleSavor) count(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[op]++
}

func (f *fakeSaleSavor) callCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

type cliTestEnv struct {
	cfg        *config.Config
	api        *fakeSaleSavor
	configPath string
	baseDir    string
}

func setupCLITestEnv(t *testing.T, opts ...testsupport.ConfigOption) *cliTestEnv {
	t.Helper()
	for _, key := range []string{"SALESAVOR_API_URL", "SALESAVOR_SALES_ON_SELECT", "SALESAVOR_SESSION", "SALESAVOR_NTFY_TOPIC"} {
		t.Setenv(key, "")
	}
	api, srv := newFakeSaleSavor(t)
	opts = append([]testsupport.ConfigOption{
		testsupport.WithAPIURL(srv.URL),
		testsupport.WithStaticLocation(45.4215, -75.6972),
	}, opts...)
	cfg := testsupport.NewConfig(t, opts...)
	base := testsupport.BaseDir(cfg)
	t.Setenv("HOME", filepath.Join(base, "home"))

	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, cfg)
	return &cliTestEnv{cfg: cfg, api: api, configPath: configPath, baseDir: base}
}

func writeTestConfig(t *testing.T, path string, cfg *config.Config) {
	t.Helper()
	data, err := toml.Marshal(cfg)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, env *cliTestEnv, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	var flags []string
	if env != nil {
		flags = append(flags, "--config", env.configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}
