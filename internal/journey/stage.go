package journey

import (
	"fmt"
	"strings"
)

// Stage is one step of the guided journey.
type Stage int

const (
	StageLocation Stage = iota
	StageStores
	StageSales
	StageRecipes
	StageGroceryList
)

// Stages lists every stage in journey order.
var Stages = []Stage{StageLocation, StageStores, StageSales, StageRecipes, StageGroceryList}

var stageNames = map[Stage]string{
	StageLocation:    "location",
	StageStores:      "stores",
	StageSales:       "sales",
	StageRecipes:     "recipes",
	StageGroceryList: "grocery-list",
}

func (s Stage) String() string {
	if name, ok := stageNames[s]; ok {
		return name
	}
	return fmt.Sprintf("stage(%d)", int(s))
}

// Valid reports whether s is one of the five journey stages.
func (s Stage) Valid() bool {
	_, ok := stageNames[s]
	return ok
}

// ParseStage accepts a stage name ("sales", "grocery-list") or its 1-based
// position ("3").
func ParseStage(value string) (Stage, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	normalized = strings.ReplaceAll(normalized, "_", "-")
	switch normalized {
	case "list", "grocerylist", "groceries":
		return StageGroceryList, nil
	}
	for stage, name := range stageNames {
		if name == normalized || fmt.Sprint(int(stage)+1) == normalized {
			return stage, nil
		}
	}
	return StageLocation, fmt.Errorf("%w: unknown stage %q", ErrUnknownStage, value)
}
