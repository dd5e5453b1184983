package main

import (
	"fmt"
	"strconv"
	"strings"

	"salesavor/internal/journey"
	"salesavor/internal/salesapi"
)

// resolveStore maps a 1-based list position or a store id to a store id.
func resolveStore(state journey.State, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return "", fmt.Errorf("%w: store number or id required", journey.ErrUnknownStore)
	}
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(state.Stores) {
			return "", fmt.Errorf("%w: no store #%d (%d listed)", journey.ErrUnknownStore, n, len(state.Stores))
		}
		return state.Stores[n-1].ID, nil
	}
	return ref, nil
}

// resolveRecipe maps a 1-based list position or a recipe id to a recipe id.
func resolveRecipe(state journey.State, ref string) (string, error) {
	ref = strings.TrimSpace(ref)
	if n, err := strconv.Atoi(ref); err == nil {
		if n < 1 || n > len(state.Recipes) {
			return "", fmt.Errorf("%w: no recipe #%d (%d listed)", journey.ErrUnknownRecipe, n, len(state.Recipes))
		}
		return state.Recipes[n-1].ID, nil
	}
	return ref, nil
}

func recipeByRef(state journey.State, ref string) (salesapi.Recipe, error) {
	id, err := resolveRecipe(state, ref)
	if err != nil {
		return salesapi.Recipe{}, err
	}
	recipe, ok := state.Recipe(id)
	if !ok {
		return salesapi.Recipe{}, fmt.Errorf("%w: %q", journey.ErrUnknownRecipe, ref)
	}
	return recipe, nil
}

// splitRefs accepts "1,3" and "1 3" alike.
func splitRefs(args []string) []string {
	var refs []string
	for _, arg := range args {
		for _, part := range strings.Split(arg, ",") {
			if part = strings.TrimSpace(part); part != "" {
				refs = append(refs, part)
			}
		}
	}
	return refs
}
