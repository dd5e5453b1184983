package journey

import (
	"maps"
	"slices"

	"salesavor/internal/salesapi"
)

// State is a snapshot of one shopping journey. Controller operations return
// copies; mutating a returned State never affects the controller.
type State struct {
	Stage Stage

	Location         *salesapi.GeoPosition
	FallbackLocation bool

	Stores          []salesapi.Store
	SelectedStoreID string
	SaleItems       []salesapi.SaleItem
	Recipes         []salesapi.Recipe
	Selection       SelectionSet
	GroceryList     *salesapi.GroceryList
	Profile         *salesapi.Profile
	EmailAddress    string

	// Loading holds the logical actions with an outstanding call.
	Loading map[string]bool
	// Errors holds the last surfaced failure per logical action.
	Errors map[string]string
}

// Completed reports whether the data a stage produces is present.
func (s State) Completed(stage Stage) bool {
	switch stage {
	case StageLocation:
		return s.Location != nil
	case StageStores:
		return len(s.Stores) > 0
	case StageSales:
		return len(s.SaleItems) > 0
	case StageRecipes:
		return len(s.Recipes) > 0
	case StageGroceryList:
		return s.GroceryList != nil
	default:
		return false
	}
}

// Accessible reports whether navigation to stage is allowed. The grocery list
// stage opens only once a list has been generated.
func (s State) Accessible(stage Stage) bool {
	switch stage {
	case StageLocation:
		return true
	case StageStores:
		return s.Location != nil
	case StageSales:
		return len(s.Stores) > 0 && s.SelectedStoreID != ""
	case StageRecipes:
		return len(s.SaleItems) > 0
	case StageGroceryList:
		return s.GroceryList != nil
	default:
		return false
	}
}

// SelectedStore returns the selected store, if any.
func (s State) SelectedStore() (salesapi.Store, bool) {
	return findStore(s.Stores, s.SelectedStoreID)
}

// Recipe returns the generated recipe with id.
func (s State) Recipe(id string) (salesapi.Recipe, bool) {
	idx := slices.IndexFunc(s.Recipes, func(r salesapi.Recipe) bool { return r.ID == id })
	if idx < 0 {
		return salesapi.Recipe{}, false
	}
	return s.Recipes[idx], true
}

// SelectedRecipes returns the selected recipes in selection order.
func (s State) SelectedRecipes() []salesapi.Recipe {
	out := make([]salesapi.Recipe, 0, s.Selection.Len())
	for _, id := range s.Selection.IDs() {
		if recipe, ok := s.Recipe(id); ok {
			out = append(out, recipe)
		}
	}
	return out
}

// IsLoading reports whether action has an outstanding call.
func (s State) IsLoading(action string) bool {
	return s.Loading[action]
}

func (s State) clone() State {
	out := s
	if s.Location != nil {
		loc := *s.Location
		out.Location = &loc
	}
	out.Stores = slices.Clone(s.Stores)
	out.SaleItems = slices.Clone(s.SaleItems)
	out.Recipes = slices.Clone(s.Recipes)
	out.Selection = s.Selection.clone()
	if s.GroceryList != nil {
		list := *s.GroceryList
		list.Items = slices.Clone(s.GroceryList.Items)
		list.SelectedRecipes = slices.Clone(s.GroceryList.SelectedRecipes)
		out.GroceryList = &list
	}
	if s.Profile != nil {
		profile := *s.Profile
		out.Profile = &profile
	}
	out.Loading = maps.Clone(s.Loading)
	out.Errors = maps.Clone(s.Errors)
	return out
}

func findStore(stores []salesapi.Store, id string) (salesapi.Store, bool) {
	if id == "" {
		return salesapi.Store{}, false
	}
	idx := slices.IndexFunc(stores, func(st salesapi.Store) bool { return st.ID == id })
	if idx < 0 {
		return salesapi.Store{}, false
	}
	return stores[idx], true
}
