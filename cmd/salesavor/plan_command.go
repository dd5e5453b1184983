package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"salesavor/internal/journey"
	"salesavor/internal/present"
)

var errNoStores = errors.New("no stores found nearby")

func newPlanCommand(ctx *commandContext) *cobra.Command {
	var storeRef string
	var recipeRefs []string
	var email string
	var quiet bool

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Run the whole journey without prompts and print the grocery list",
		Long: `Locate, pick a store, load its sales, generate recipes, select some of them,
and build the grocery list in one go. Without --store the first (or the
session's saved) store is used; without --recipes the first recipe is used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd, runtimeOptions{exclusive: true}, func(c context.Context, rt *runtime) error {
				if _, _, err := rt.resume(c); err != nil {
					return err
				}
				p := planner{rt: rt, quiet: quiet}
				if err := p.run(c, storeRef, splitRefs(recipeRefs), email); err != nil {
					return err
				}
				return rt.saveJourney(c)
			})
		},
	}
	cmd.Flags().StringVar(&storeRef, "store", "", "Store number or id (default: first nearby store)")
	cmd.Flags().StringSliceVarP(&recipeRefs, "recipes", "r", nil, "Recipe numbers or ids to select (default: 1)")
	cmd.Flags().StringVar(&email, "email", "", "Email the grocery list to this address")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Only print the grocery list")
	return cmd
}

type planner struct {
	rt    *runtime
	quiet bool
}

func (p planner) run(ctx context.Context, storeRef string, recipeRefs []string, email string) error {
	ctrl := p.rt.controller
	f := p.rt.formatter

	state, err := ctrl.AcquireLocation(ctx)
	if err != nil {
		return stepError(journey.StageStores, err)
	}
	storeID := state.SelectedStoreID
	if storeRef != "" {
		if storeID, err = resolveStore(state, storeRef); err != nil {
			return stepError(journey.StageStores, err)
		}
	}
	if storeID == "" {
		return errNoStores
	}
	p.section("Stores", present.Stores(f, state.Stores, storeID))

	if state, err = ctrl.LoadSales(ctx, storeID); err != nil {
		return stepError(journey.StageSales, err)
	}
	p.section("Sales", present.Sales(f, state.SaleItems))

	if state, err = ctrl.GenerateRecipes(ctx); err != nil {
		return stepError(journey.StageRecipes, err)
	}
	if len(recipeRefs) == 0 {
		recipeRefs = []string{"1"}
	}
	for _, ref := range recipeRefs {
		id, err := resolveRecipe(state, ref)
		if err != nil {
			return stepError(journey.StageRecipes, err)
		}
		if state, err = ctrl.ToggleRecipe(id); err != nil {
			return stepError(journey.StageRecipes, err)
		}
	}
	p.section("Recipes", present.Recipes(f, state.Recipes, state.Selection))

	if state, err = ctrl.GenerateGroceryList(ctx); err != nil {
		return stepError(journey.StageGroceryList, err)
	}
	fmt.Fprintln(p.rt.out, renderSectionHeader("Grocery List", p.rt.color))
	fmt.Fprintln(p.rt.out, present.GroceryList(f, state.GroceryList))

	if email != "" {
		if _, err := ctrl.EmailGroceryListTo(ctx, email); err != nil {
			return stepError(journey.StageGroceryList, err)
		}
	}
	return nil
}

func (p planner) section(title, body string) {
	if p.quiet {
		return
	}
	fmt.Fprintln(p.rt.out, renderSectionHeader(title, p.rt.color))
	fmt.Fprintln(p.rt.out, body)
}

func stepError(stage journey.Stage, err error) error {
	return fmt.Errorf("plan stopped at %s: %w", stage, err)
}
