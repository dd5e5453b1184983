package present

import (
	"fmt"
	"maps"
	"slices"
	"strings"

	"salesavor/internal/journey"
	"salesavor/internal/salesapi"
	"salesavor/internal/session"
)

var stageLabels = map[journey.Stage]string{
	journey.StageLocation:    "Location",
	journey.StageStores:      "Stores",
	journey.StageSales:       "Sales",
	journey.StageRecipes:     "Recipes",
	journey.StageGroceryList: "Grocery List",
}

// StageBar renders the five stages in order. The current stage is wrapped in
// brackets, completed stages carry a check mark, and stages that cannot be
// reached yet are dimmed with a dot.
func StageBar(s journey.State) string {
	parts := make([]string, 0, len(journey.Stages))
	for i, stage := range journey.Stages {
		marker := " "
		switch {
		case s.Completed(stage):
			marker = "✓"
		case !s.Accessible(stage):
			marker = "·"
		}
		label := fmt.Sprintf("%d %s %s", i+1, stageLabels[stage], marker)
		if stage == s.Stage {
			label = "[" + label + "]"
		}
		parts = append(parts, label)
	}
	return strings.Join(parts, " > ")
}

// Location describes the journey's position.
func Location(f *Formatter, s journey.State) string {
	if s.Location == nil {
		return "Location not acquired yet."
	}
	line := fmt.Sprintf("Location: %s, %s", f.Number(s.Location.Latitude, 4), f.Number(s.Location.Longitude, 4))
	if s.Location.Address != "" {
		line += " (" + s.Location.Address + ")"
	}
	if s.FallbackLocation {
		line += " [default location]"
	}
	return line
}

// Stores renders the nearby stores, marking the selected one.
func Stores(f *Formatter, stores []salesapi.Store, selectedID string) string {
	if len(stores) == 0 {
		return "No stores found nearby."
	}
	rows := make([][]string, 0, len(stores))
	for i, store := range stores {
		mark := ""
		if store.ID == selectedID {
			mark = "*"
		}
		distance := "-"
		if store.DistanceKm != nil {
			distance = f.Number(*store.DistanceKm, 1) + " km"
		}
		match := ""
		if store.PriceMatchPolicy != nil && store.PriceMatchPolicy.HasPriceMatch {
			match = "yes"
		}
		rows = append(rows, []string{
			mark,
			fmt.Sprint(i + 1),
			store.Name,
			f.Title(store.Chain),
			store.Address,
			distance,
			match,
		})
	}
	return renderTable(
		[]string{"", "#", "Store", "Chain", "Address", "Distance", "Price match"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
	)
}

// Sales renders a store's sale items.
func Sales(f *Formatter, items []salesapi.SaleItem) string {
	if len(items) == 0 {
		return "No sale items loaded."
	}
	rows := make([][]string, 0, len(items))
	for _, item := range items {
		ends := "-"
		if !item.ValidUntil.IsZero() {
			ends = item.ValidUntil.Format("Jan 2")
		}
		name := item.Name
		if item.Unit != "" {
			name += " / " + item.Unit
		}
		rows = append(rows, []string{
			name,
			f.Title(item.Category),
			f.Money(item.OriginalPrice),
			f.Money(item.SalePrice),
			f.Money(item.Savings()),
			ends,
		})
	}
	return renderTable(
		[]string{"Item", "Category", "Was", "Now", "Save", "Ends"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignRight, alignRight, alignRight, alignLeft},
	)
}

// Recipes renders generated recipes with their selection state.
func Recipes(f *Formatter, recipes []salesapi.Recipe, selection journey.SelectionSet) string {
	if len(recipes) == 0 {
		return "No recipes generated yet."
	}
	rows := make([][]string, 0, len(recipes))
	for i, recipe := range recipes {
		mark := "[ ]"
		if selection.Contains(recipe.ID) {
			mark = "[x]"
		}
		servings := "-"
		if recipe.Servings > 0 {
			servings = fmt.Sprint(recipe.Servings)
		}
		rows = append(rows, []string{
			mark,
			fmt.Sprint(i + 1),
			recipe.Name,
			f.Minutes(recipe.TotalTime()),
			servings,
			f.Money(recipe.EstimatedCost),
			strings.Join(recipe.DietaryTags, ", "),
		})
	}
	return renderTable(
		[]string{"", "#", "Recipe", "Time", "Serves", "Cost", "Tags"},
		rows,
		[]columnAlignment{alignLeft, alignRight, alignLeft, alignRight, alignRight, alignRight, alignLeft},
	)
}

// RecipeDetail renders one recipe's ingredients and instructions.
func RecipeDetail(f *Formatter, recipe salesapi.Recipe) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (%s, %s)\n", recipe.Name, f.Minutes(recipe.TotalTime()), f.Money(recipe.EstimatedCost))
	if recipe.Description != "" {
		fmt.Fprintf(&b, "%s\n", recipe.Description)
	}
	if len(recipe.Ingredients) > 0 {
		rows := make([][]string, 0, len(recipe.Ingredients))
		for _, ing := range recipe.Ingredients {
			qty := strings.TrimSpace(string(ing.Quantity) + " " + ing.Unit)
			rows = append(rows, []string{ing.Name, qty, f.Money(ing.EstimatedPrice)})
		}
		b.WriteString(renderTable([]string{"Ingredient", "Qty", "Est."}, rows,
			[]columnAlignment{alignLeft, alignLeft, alignRight}))
		b.WriteString("\n")
	}
	for i, step := range recipe.Instructions {
		fmt.Fprintf(&b, "%d. %s\n", i+1, step)
	}
	return strings.TrimRight(b.String(), "\n")
}

// GroceryList renders list items grouped by store order plus totals.
func GroceryList(f *Formatter, list *salesapi.GroceryList) string {
	if list == nil {
		return "No grocery list yet."
	}
	rows := make([][]string, 0, len(list.Items))
	for _, item := range list.Items {
		sale := ""
		if item.IsOnSale {
			sale = "on sale"
		}
		rows = append(rows, []string{
			item.Ingredient,
			item.Quantity,
			item.StoreName,
			f.Money(item.EffectivePrice()),
			sale,
		})
	}
	var b strings.Builder
	if len(rows) > 0 {
		b.WriteString(renderTable(
			[]string{"Ingredient", "Qty", "Store", "Price", ""},
			rows,
			[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignLeft},
		))
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Total: %s   Savings: %s", f.Money(list.TotalCost), f.Money(list.TotalSavings))
	if n := len(list.SelectedRecipes); n > 0 {
		fmt.Fprintf(&b, "   Recipes: %d", n)
	}
	return b.String()
}

// Profile renders the profile fields as label/value lines.
func Profile(p salesapi.Profile) string {
	id := p.ID
	if id == "" {
		id = "(not saved)"
	}
	lines := [][2]string{
		{"ID", id},
		{"Name", p.Name},
		{"Email", p.Email},
		{"Household", fmt.Sprint(p.HouseholdSize)},
		{"Diet", strings.Join(p.DietaryPreferences, ", ")},
		{"Allergies", strings.Join(p.FoodAllergies, ", ")},
		{"Cuisines", strings.Join(p.CuisinePreferences, ", ")},
		{"Budget", p.BudgetRange},
		{"Skill", p.CookingSkill},
		{"Meals", strings.Join(p.PreferredMealTypes, ", ")},
	}
	var b strings.Builder
	for _, line := range lines {
		value := line[1]
		if value == "" {
			value = "-"
		}
		fmt.Fprintf(&b, "%-10s %s\n", line[0]+":", value)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Activity lists outstanding calls and the last failure per action.
func Activity(s journey.State) string {
	var lines []string
	for _, action := range sortedKeys(s.Loading) {
		lines = append(lines, fmt.Sprintf("… %s in progress", action))
	}
	for _, action := range sortedKeys(s.Errors) {
		lines = append(lines, fmt.Sprintf("! %s: %s", action, s.Errors[action]))
	}
	return strings.Join(lines, "\n")
}

func sortedKeys[V any](m map[string]V) []string {
	return slices.Sorted(maps.Keys(m))
}

// Sessions renders saved session records.
func Sessions(f *Formatter, records []session.Record) string {
	if len(records) == 0 {
		return "No saved sessions."
	}
	rows := make([][]string, 0, len(records))
	for _, record := range records {
		list := "-"
		if record.GroceryList != nil {
			list = fmt.Sprintf("%d items, %s", len(record.GroceryList.Items), f.Money(record.GroceryList.TotalCost))
		}
		updated := "-"
		if !record.UpdatedAt.IsZero() {
			updated = record.UpdatedAt.Local().Format("2006-01-02 15:04")
		}
		rows = append(rows, []string{
			record.Name,
			orDash(record.ProfileID),
			orDash(record.SelectedStoreID),
			list,
			updated,
		})
	}
	return renderTable(
		[]string{"Session", "Profile", "Store", "Grocery list", "Updated"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignLeft, alignLeft},
	)
}

func orDash(value string) string {
	if value == "" {
		return "-"
	}
	return value
}
