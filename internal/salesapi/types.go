package salesapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// GeoPosition is a latitude/longitude pair in decimal degrees.
type GeoPosition struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address,omitempty"`
}

// Key renders the position the way gateway keys and logs expect it.
func (p GeoPosition) Key() string {
	return fmt.Sprintf("%.4f,%.4f", p.Latitude, p.Longitude)
}

// PriceMatchPolicy describes whether a store matches competitor prices.
type PriceMatchPolicy struct {
	HasPriceMatch bool   `json:"has_price_match"`
	Details       string `json:"details,omitempty"`
}

// Store is a grocery store returned by store discovery.
type Store struct {
	ID               string            `json:"id"`
	Name             string            `json:"name"`
	Chain            string            `json:"chain"`
	Address          string            `json:"address"`
	Latitude         float64           `json:"latitude"`
	Longitude        float64           `json:"longitude"`
	Phone            string            `json:"phone,omitempty"`
	DistanceKm       *float64          `json:"distance_km,omitempty"`
	PriceMatchPolicy *PriceMatchPolicy `json:"price_match_policy,omitempty"`
	FlyerURL         string            `json:"flyer_url,omitempty"`
	LogoURL          string            `json:"logo_url,omitempty"`
}

// SaleItem is one discounted product in a store's current flyer.
type SaleItem struct {
	ID                 string          `json:"id"`
	Name               string          `json:"name"`
	Category           string          `json:"category"`
	Unit               string          `json:"unit,omitempty"`
	OriginalPrice      decimal.Decimal `json:"original_price"`
	SalePrice          decimal.Decimal `json:"sale_price"`
	DiscountPercentage decimal.Decimal `json:"discount_percentage"`
	StoreID            string          `json:"store_id"`
	ValidUntil         Timestamp       `json:"valid_until"`
}

// Savings is the per-unit amount saved against the original price.
func (s SaleItem) Savings() decimal.Decimal {
	return s.OriginalPrice.Sub(s.SalePrice)
}

// Ingredient is a single line of a recipe.
type Ingredient struct {
	Name           string          `json:"name"`
	Quantity       Quantity        `json:"quantity"`
	Unit           string          `json:"unit,omitempty"`
	EstimatedPrice decimal.Decimal `json:"estimated_price"`
}

// Recipe is a candidate meal generated from sale items.
type Recipe struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Description   string          `json:"description"`
	PrepTime      int             `json:"prep_time"`
	CookTime      int             `json:"cook_time"`
	Servings      int             `json:"servings"`
	EstimatedCost decimal.Decimal `json:"estimated_cost"`
	DietaryTags   []string        `json:"dietary_tags"`
	Ingredients   []Ingredient    `json:"ingredients"`
	Instructions  []string        `json:"instructions"`
}

// TotalTime is prep plus cook time in minutes.
func (r Recipe) TotalTime() int {
	return r.PrepTime + r.CookTime
}

// GroceryItem is one purchase line of an optimized grocery list.
type GroceryItem struct {
	Ingredient string           `json:"ingredient"`
	Quantity   string           `json:"quantity"`
	StoreName  string           `json:"store_name"`
	StoreID    string           `json:"store_id,omitempty"`
	Price      decimal.Decimal  `json:"price"`
	SalePrice  *decimal.Decimal `json:"sale_price,omitempty"`
	IsOnSale   bool             `json:"is_on_sale"`
}

// EffectivePrice is the sale price when the item is on sale, else the regular price.
func (i GroceryItem) EffectivePrice() decimal.Decimal {
	if i.IsOnSale && i.SalePrice != nil {
		return *i.SalePrice
	}
	return i.Price
}

// GroceryList is the optimized shopping list snapshot.
type GroceryList struct {
	ID              string          `json:"id,omitempty"`
	UserLocation    *GeoPosition    `json:"user_location,omitempty"`
	SelectedRecipes []string        `json:"selected_recipes"`
	Items           []GroceryItem   `json:"items"`
	TotalCost       decimal.Decimal `json:"total_cost"`
	TotalSavings    decimal.Decimal `json:"total_savings"`
	CreatedAt       Timestamp       `json:"created_at,omitempty"`
}

// ProfileData carries the editable profile fields.
type ProfileData struct {
	Name               string   `json:"name"`
	Email              string   `json:"email"`
	HouseholdSize      int      `json:"household_size"`
	DietaryPreferences []string `json:"dietary_preferences"`
	FoodAllergies      []string `json:"food_allergies"`
	CuisinePreferences []string `json:"cuisine_preferences"`
	BudgetRange        string   `json:"budget_range"`
	CookingSkill       string   `json:"cooking_skill"`
	PreferredMealTypes []string `json:"preferred_meal_types"`
}

// Profile is a stored user profile. An empty ID means it was never created.
type Profile struct {
	ID string `json:"id,omitempty"`
	ProfileData
}

// RecipeRequest is the body of a recipe generation call.
type RecipeRequest struct {
	SaleItems          []SaleItem `json:"sale_items"`
	DietaryPreferences []string   `json:"dietary_preferences"`
	Servings           int        `json:"servings"`
	ProfileID          string     `json:"profile_id,omitempty"`
}

// GroceryListRequest is the body of a grocery list generation call.
type GroceryListRequest struct {
	UserLocation       GeoPosition `json:"user_location"`
	SelectedRecipes    []string    `json:"selected_recipes"`
	ServingsMultiplier float64     `json:"servings_multiplier"`
}

// EmailRequest is the body of an email dispatch call.
type EmailRequest struct {
	Email           string      `json:"email"`
	GroceryListData GroceryList `json:"grocery_list_data"`
	UserName        string      `json:"user_name,omitempty"`
}

// EmailResult is the API acknowledgement of an email dispatch.
type EmailResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// Quantity accepts both string and numeric JSON values.
type Quantity string

func (q *Quantity) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*q = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*q = Quantity(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("quantity: %w", err)
	}
	*q = Quantity(n.String())
	return nil
}

// Timestamp decodes the API's ISO-8601 timestamps, which may omit the zone.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	time.DateOnly,
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	raw, err := strconv.Unquote(string(bytes.TrimSpace(data)))
	if err != nil {
		if string(bytes.TrimSpace(data)) == "null" {
			t.Time = time.Time{}
			return nil
		}
		return fmt.Errorf("timestamp: %w", err)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("timestamp: unrecognized format %q", raw)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.UTC().Format(time.RFC3339))
}
