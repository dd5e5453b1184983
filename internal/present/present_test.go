package present_test

import (
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"salesavor/internal/journey"
	"salesavor/internal/present"
	"salesavor/internal/salesapi"
	"salesavor/internal/session"
)

func money(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestNewFormatterRejectsUnknownCurrency(t *testing.T) {
	if _, err := present.NewFormatter("XYZQ", "en-CA"); err == nil {
		t.Fatal("expected error for invalid currency")
	}
	if _, err := present.NewFormatter("CAD", "not a tag!"); err == nil {
		t.Fatal("expected error for invalid language")
	}
	f, err := present.NewFormatter("", "")
	if err != nil {
		t.Fatalf("blank values must use defaults: %v", err)
	}
	if f.Currency() != "CAD" {
		t.Fatalf("expected CAD, got %s", f.Currency())
	}
}

func TestMoneyUsesTwoDecimalsAndGrouping(t *testing.T) {
	f := present.DefaultFormatter()
	got := f.Money(money("1234.5"))
	if !strings.Contains(got, "1,234.50") {
		t.Fatalf("expected grouped two-decimal amount, got %q", got)
	}
	if neg := f.Money(money("-2.49")); !strings.HasPrefix(neg, "-") || !strings.Contains(neg, "2.49") {
		t.Fatalf("unexpected negative rendering %q", neg)
	}
}

func TestMinutes(t *testing.T) {
	f := present.DefaultFormatter()
	cases := map[int]string{0: "-", 25: "25 min", 60: "1 h", 70: "1 h 10 min"}
	for in, want := range cases {
		if got := f.Minutes(in); got != want {
			t.Fatalf("Minutes(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestStageBarMarksCurrentAndReachableStages(t *testing.T) {
	s := journey.State{
		Stage:           journey.StageStores,
		Location:        &salesapi.GeoPosition{Latitude: 43.6532, Longitude: -79.3832},
		Stores:          []salesapi.Store{{ID: "s1", Name: "Metro"}},
		SelectedStoreID: "s1",
	}
	bar := present.StageBar(s)
	if !strings.Contains(bar, "1 Location ✓") {
		t.Fatalf("expected completed Location, got %q", bar)
	}
	if !strings.Contains(bar, "[2 Stores ✓]") {
		t.Fatalf("expected current Stores stage, got %q", bar)
	}
	if !strings.Contains(bar, "4 Recipes ·") || !strings.Contains(bar, "5 Grocery List ·") {
		t.Fatalf("expected unreachable stages dimmed, got %q", bar)
	}
}

func TestStoresMarksSelection(t *testing.T) {
	f := present.DefaultFormatter()
	distance := 1.26
	out := present.Stores(f, []salesapi.Store{
		{ID: "s1", Name: "Metro Plus", Chain: "metro", DistanceKm: &distance},
		{ID: "s2", Name: "Food Basics", Chain: "food basics"},
	}, "s2")
	if !strings.Contains(out, "Food Basics") || !strings.Contains(out, "1.3 km") {
		t.Fatalf("unexpected stores table:\n%s", out)
	}
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "Metro Plus") && strings.Contains(line, "*") {
			t.Fatalf("unselected store marked:\n%s", out)
		}
	}
	if present.Stores(f, nil, "") != "No stores found nearby." {
		t.Fatal("expected empty message")
	}
}

func TestRecipesShowsSelection(t *testing.T) {
	f := present.DefaultFormatter()
	recipes := []salesapi.Recipe{
		{ID: "r1", Name: "Beef Pasta", PrepTime: 10, CookTime: 20, EstimatedCost: money("12.50")},
		{ID: "r2", Name: "Tomato Soup", PrepTime: 5, CookTime: 25, EstimatedCost: money("6")},
	}
	out := present.Recipes(f, recipes, journey.NewSelectionSet("r2"))
	for _, line := range strings.Split(out, "\n") {
		if strings.Contains(line, "Tomato Soup") && !strings.Contains(line, "[x]") {
			t.Fatalf("selected recipe not marked:\n%s", out)
		}
		if strings.Contains(line, "Beef Pasta") && !strings.Contains(line, "[ ]") {
			t.Fatalf("unselected recipe marked:\n%s", out)
		}
	}
	if !strings.Contains(out, "30 min") || !strings.Contains(out, "12.50") {
		t.Fatalf("expected time and cost, got:\n%s", out)
	}
}

func TestGroceryListUsesEffectivePriceAndTotals(t *testing.T) {
	f := present.DefaultFormatter()
	sale := money("1.49")
	list := &salesapi.GroceryList{
		SelectedRecipes: []string{"r1"},
		Items: []salesapi.GroceryItem{
			{Ingredient: "Pasta", Quantity: "1 package", StoreName: "Food Basics", Price: money("2.49"), SalePrice: &sale, IsOnSale: true},
		},
		TotalCost:    money("1.49"),
		TotalSavings: money("1.00"),
	}
	out := present.GroceryList(f, list)
	if strings.Contains(out, "2.49") {
		t.Fatalf("regular price shown for sale item:\n%s", out)
	}
	if !strings.Contains(out, "on sale") || !strings.Contains(out, "Savings:") || !strings.Contains(out, "1.00") {
		t.Fatalf("unexpected list rendering:\n%s", out)
	}
	if present.GroceryList(f, nil) != "No grocery list yet." {
		t.Fatal("expected empty message")
	}
}

func TestProfileFillsBlanks(t *testing.T) {
	out := present.Profile(salesapi.Profile{ProfileData: salesapi.ProfileData{Name: "Sam", HouseholdSize: 2}})
	if !strings.Contains(out, "(not saved)") || !strings.Contains(out, "Sam") {
		t.Fatalf("unexpected profile rendering:\n%s", out)
	}
	if !strings.Contains(out, "Budget:    -") {
		t.Fatalf("blank fields must render as '-':\n%s", out)
	}
}

func TestActivityListsLoadingAndErrors(t *testing.T) {
	out := present.Activity(journey.State{
		Loading: map[string]bool{"sales": true},
		Errors:  map[string]string{"recipes": "connection refused"},
	})
	if out != "… sales in progress\n! recipes: connection refused" {
		t.Fatalf("unexpected activity %q", out)
	}
}

func TestSessionsTable(t *testing.T) {
	f := present.DefaultFormatter()
	out := present.Sessions(f, []session.Record{
		{Name: "weekly", ProfileID: "p1", GroceryList: &salesapi.GroceryList{TotalCost: money("12.5"), Items: make([]salesapi.GroceryItem, 3)}},
		{Name: "guest"},
	})
	if !strings.Contains(out, "weekly") || !strings.Contains(out, "3 items") || !strings.Contains(out, "12.50") {
		t.Fatalf("unexpected sessions table:\n%s", out)
	}
	if !strings.Contains(out, "guest") {
		t.Fatalf("missing guest row:\n%s", out)
	}
}
