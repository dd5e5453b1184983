package journey_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/shopspring/decimal"

	"salesavor/internal/gateway"
	"salesavor/internal/geo"
	"salesavor/internal/journey"
	"salesavor/internal/notifications"
	"salesavor/internal/salesapi"
)

const (
	opStores  = "stores"
	opSales   = "sales"
	opRecipes = "recipes"
	opList    = "grocery-list"
	opEmail   = "email"
	opCreate  = "create-profile"
	opUpdate  = "update-profile"
	opGet     = "get-profile"
)

type gate struct {
	entered chan struct{}
	release chan struct{}
}

// fakeAPI implements journey.API and journey.ProfileAPI. Calls can be held
// open with hold to interleave responses.
type fakeAPI struct {
	mu    sync.Mutex
	calls map[string]int
	holds map[string]*gate

	stores    []salesapi.Store
	storesErr error
	sales     map[string][]salesapi.SaleItem
	salesErr  error
	recipes   []salesapi.Recipe
	recipeErr error
	list      salesapi.GroceryList
	listErr   error
	emailErr  error
	profile   salesapi.Profile
	getErr    error

	recipeReqs []salesapi.RecipeRequest
	listReqs   []salesapi.GroceryListRequest
	emailReqs  []salesapi.EmailRequest
	updateIDs  []string
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		calls: make(map[string]int),
		holds: make(map[string]*gate),
		stores: []salesapi.Store{
			{ID: "s1", Name: "Metro Plus", Chain: "Metro"},
			{ID: "s2", Name: "Food Basics", Chain: "Food Basics"},
		},
		sales: map[string][]salesapi.SaleItem{
			"s1": {{ID: "i1", Name: "Ground Beef (1 lb)", StoreID: "s1", OriginalPrice: money("6.99"), SalePrice: money("4.99")}},
			"s2": {
				{ID: "i2", Name: "Pasta (500g)", StoreID: "s2", OriginalPrice: money("2.49"), SalePrice: money("1.49")},
				{ID: "i3", Name: "Tomatoes (1 lb)", StoreID: "s2", OriginalPrice: money("3.99"), SalePrice: money("2.49")},
			},
		},
		recipes: []salesapi.Recipe{
			{ID: "r1", Name: "Beef Pasta", PrepTime: 10, CookTime: 20, EstimatedCost: money("12.50")},
			{ID: "r2", Name: "Tomato Soup", PrepTime: 5, CookTime: 25, EstimatedCost: money("6.00")},
		},
		list: salesapi.GroceryList{
			ID:           "g1",
			Items:        []salesapi.GroceryItem{{Ingredient: "Pasta (500g)", Quantity: "1.0 package", StoreName: "Food Basics", Price: money("2.49")}},
			TotalCost:    money("2.49"),
			TotalSavings: money("1.00"),
		},
	}
}

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// hold makes the next call of op block until the returned release is called.
func (f *fakeAPI) hold(op string) (<-chan struct{}, func()) {
	h := &gate{entered: make(chan struct{}), release: make(chan struct{})}
	f.mu.Lock()
	f.holds[op] = h
	f.mu.Unlock()
	var once sync.Once
	return h.entered, func() { once.Do(func() { close(h.release) }) }
}

func (f *fakeAPI) enter(op string) {
	f.mu.Lock()
	f.calls[op]++
	h := f.holds[op]
	delete(f.holds, op)
	f.mu.Unlock()
	if h != nil {
		close(h.entered)
		<-h.release
	}
}

func (f *fakeAPI) count(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeAPI) FindStores(_ context.Context, _ salesapi.GeoPosition) ([]salesapi.Store, error) {
	f.enter(opStores)
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]salesapi.Store(nil), f.stores...), f.storesErr
}

func (f *fakeAPI) GetSales(_ context.Context, storeID string) ([]salesapi.SaleItem, error) {
	f.enter(opSales)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.salesErr != nil {
		return nil, f.salesErr
	}
	return append([]salesapi.SaleItem(nil), f.sales[storeID]...), nil
}

func (f *fakeAPI) GenerateRecipes(_ context.Context, req salesapi.RecipeRequest) ([]salesapi.Recipe, error) {
	f.enter(opRecipes)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.recipeReqs = append(f.recipeReqs, req)
	if f.recipeErr != nil {
		return nil, f.recipeErr
	}
	return append([]salesapi.Recipe(nil), f.recipes...), nil
}

func (f *fakeAPI) GenerateGroceryList(_ context.Context, req salesapi.GroceryListRequest) (salesapi.GroceryList, error) {
	f.enter(opList)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listReqs = append(f.listReqs, req)
	if f.listErr != nil {
		return salesapi.GroceryList{}, f.listErr
	}
	return f.list, nil
}

func (f *fakeAPI) EmailGroceryList(_ context.Context, req salesapi.EmailRequest) (salesapi.EmailResult, error) {
	f.enter(opEmail)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emailReqs = append(f.emailReqs, req)
	if f.emailErr != nil {
		return salesapi.EmailResult{}, f.emailErr
	}
	return salesapi.EmailResult{Status: "success"}, nil
}

func (f *fakeAPI) CreateProfile(_ context.Context, data salesapi.ProfileData) (salesapi.Profile, error) {
	f.enter(opCreate)
	return salesapi.Profile{ID: "p1", ProfileData: data}, nil
}

func (f *fakeAPI) UpdateProfile(_ context.Context, id string, data salesapi.ProfileData) (salesapi.Profile, error) {
	f.enter(opUpdate)
	f.mu.Lock()
	f.updateIDs = append(f.updateIDs, id)
	f.mu.Unlock()
	return salesapi.Profile{ID: id, ProfileData: data}, nil
}

func (f *fakeAPI) GetProfile(_ context.Context, id string) (salesapi.Profile, error) {
	f.enter(opGet)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return salesapi.Profile{}, f.getErr
	}
	p := f.profile
	p.ID = id
	return p, nil
}

// recorder captures notices and gateway failures.
type recorder struct {
	mu       sync.Mutex
	notices  []notifications.Notice
	failures []string
}

func (r *recorder) Notify(_ context.Context, n notifications.Notice) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, n)
	return nil
}

func (r *recorder) Failure(_ context.Context, label string, _ error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures = append(r.failures, label)
}

func (r *recorder) failureCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.failures)
}

func (r *recorder) hasNotice(level notifications.Level) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, n := range r.notices {
		if n.Level == level {
			return true
		}
	}
	return false
}

type harness struct {
	api      *fakeAPI
	rec      *recorder
	ctrl     *journey.Controller
	profiles *journey.ProfileStore
}

func newHarness(t *testing.T, settings journey.Settings, locator geo.Locator) *harness {
	t.Helper()
	api := newFakeAPI()
	rec := &recorder{}
	gw := gateway.New(gateway.WithNotifier(rec))
	profiles := journey.NewProfileStore(api, gw, nil)
	if locator == nil {
		locator = geo.Static{Position: salesapi.GeoPosition{Latitude: 45.4215, Longitude: -75.6972}}
	}
	ctrl := journey.NewController(api, locator, gw, profiles, settings, journey.WithNotifier(rec))
	t.Cleanup(ctrl.Wait)
	return &harness{api: api, rec: rec, ctrl: ctrl, profiles: profiles}
}

// located returns a harness whose journey sits at Stores with s1 selected.
func located(t *testing.T, settings journey.Settings) *harness {
	t.Helper()
	h := newHarness(t, settings, nil)
	if _, err := h.ctrl.AcquireLocation(context.Background()); err != nil {
		t.Fatalf("AcquireLocation returned error: %v", err)
	}
	return h
}

// withRecipes returns a harness at Recipes with s2's sales and two recipes.
func withRecipes(t *testing.T) *harness {
	t.Helper()
	h := located(t, journey.Settings{})
	if _, err := h.ctrl.LoadSales(context.Background(), "s2"); err != nil {
		t.Fatalf("LoadSales returned error: %v", err)
	}
	if _, err := h.ctrl.GenerateRecipes(context.Background()); err != nil {
		t.Fatalf("GenerateRecipes returned error: %v", err)
	}
	return h
}

func checkInvariants(t *testing.T, s journey.State) {
	t.Helper()
	if s.SelectedStoreID != "" {
		if _, ok := s.SelectedStore(); !ok {
			t.Fatalf("selected store %q is not among nearby stores", s.SelectedStoreID)
		}
	}
	if len(s.SaleItems) > 0 && s.SelectedStoreID == "" {
		t.Fatal("sale items present without a selected store")
	}
	for _, id := range s.Selection.IDs() {
		if _, ok := s.Recipe(id); !ok {
			t.Fatalf("selection holds %q which is not a generated recipe", id)
		}
	}
	if !s.Stage.Valid() {
		t.Fatalf("invalid current stage %v", s.Stage)
	}
}

var errBoom = errors.New("connection refused")
