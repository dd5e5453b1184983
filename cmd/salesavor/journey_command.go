package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"salesavor/internal/journey"
	"salesavor/internal/logging"
	"salesavor/internal/present"
)

const shellHelp = `Commands:
  status               show the stage bar and outstanding work
  go <stage>           move to a stage (name or 1-5)
  locate               find your location and nearby stores
  stores               list nearby stores
  select <n|id>        choose a store
  sales [n|id]         load sales for the selected (or given) store
  generate             generate recipes from the current sales
  recipes              list generated recipes
  show <n|id>          show a recipe's ingredients and steps
  toggle <n|id>...     add or remove recipes from the selection
  list                 build the grocery list from selected recipes
  email <address>      email the grocery list
  profile              show the active profile
  reset                start over from the location stage
  help                 show this help
  quit                 save the session and exit`

func newJourneyCommand(ctx *commandContext) *cobra.Command {
	var skipLocate bool

	cmd := &cobra.Command{
		Use:   "journey",
		Short: "Start the interactive shopping journey",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd, runtimeOptions{exclusive: true}, func(c context.Context, rt *runtime) error {
				if _, _, err := rt.resume(c); err != nil {
					return err
				}
				sh := &shell{rt: rt, in: cmd.InOrStdin(), out: cmd.OutOrStdout()}
				return sh.run(c, !skipLocate)
			})
		},
	}
	cmd.Flags().BoolVar(&skipLocate, "no-locate", false, "Do not look up the location on start")
	return cmd
}

type shell struct {
	rt  *runtime
	in  io.Reader
	out io.Writer
}

func (s *shell) run(ctx context.Context, locate bool) error {
	fmt.Fprintln(s.out, renderSectionHeader("SaleSavor · session "+s.rt.name, s.rt.color))
	if locate {
		s.report(s.rt.controller.AcquireLocation(ctx))
	} else {
		s.printState(s.rt.controller.State())
	}
	fmt.Fprintln(s.out, dim("Type 'help' for commands.", s.rt.color))

	scanner := bufio.NewScanner(s.in)
	for {
		fmt.Fprint(s.out, "> ")
		if !scanner.Scan() {
			break
		}
		if quit := s.dispatch(ctx, scanner.Text()); quit {
			break
		}
		if ctx.Err() != nil {
			break
		}
	}
	fmt.Fprintln(s.out)
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read input: %w", err)
	}

	s.rt.controller.Wait()
	if err := s.rt.saveJourney(context.WithoutCancel(ctx)); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	fmt.Fprintf(s.out, "Session %q saved.\n", s.rt.name)
	return nil
}

// dispatch runs one shell line and reports whether the shell should exit.
func (s *shell) dispatch(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	verb, args := strings.ToLower(fields[0]), fields[1:]
	ctrl := s.rt.controller
	s.rt.logger.Debug("shell command", logging.String(logging.FieldAction, verb))

	switch verb {
	case "quit", "exit", "q":
		return true
	case "help", "?":
		fmt.Fprintln(s.out, shellHelp)
	case "status":
		state := ctrl.State()
		fmt.Fprintln(s.out, present.StageBar(state))
		fmt.Fprintln(s.out, present.Location(s.rt.formatter, state))
		if activity := present.Activity(state); activity != "" {
			fmt.Fprintln(s.out, activity)
		}
	case "go":
		if len(args) != 1 {
			s.fail("usage: go <stage>")
			return false
		}
		stage, err := journey.ParseStage(args[0])
		if err != nil {
			s.fail(explain(err))
			return false
		}
		state, err := ctrl.AdvanceTo(ctx, stage)
		if err == nil {
			ctrl.Wait()
			state = ctrl.State()
		}
		s.report(state, err)
	case "locate":
		s.report(ctrl.AcquireLocation(ctx))
	case "stores":
		state := ctrl.State()
		fmt.Fprintln(s.out, present.Stores(s.rt.formatter, state.Stores, state.SelectedStoreID))
	case "select":
		if len(args) != 1 {
			s.fail("usage: select <n|id>")
			return false
		}
		id, err := resolveStore(ctrl.State(), args[0])
		if err != nil {
			s.fail(explain(err))
			return false
		}
		s.report(ctrl.SelectStore(ctx, id))
	case "sales":
		state := ctrl.State()
		id := state.SelectedStoreID
		if len(args) > 0 {
			var err error
			if id, err = resolveStore(state, args[0]); err != nil {
				s.fail(explain(err))
				return false
			}
		}
		if id == "" {
			s.fail("select a store first")
			return false
		}
		s.report(ctrl.LoadSales(ctx, id))
	case "generate":
		s.report(ctrl.GenerateRecipes(ctx))
	case "recipes":
		state := ctrl.State()
		fmt.Fprintln(s.out, present.Recipes(s.rt.formatter, state.Recipes, state.Selection))
	case "show":
		if len(args) != 1 {
			s.fail("usage: show <n|id>")
			return false
		}
		recipe, err := recipeByRef(ctrl.State(), args[0])
		if err != nil {
			s.fail(explain(err))
			return false
		}
		fmt.Fprintln(s.out, present.RecipeDetail(s.rt.formatter, recipe))
	case "toggle":
		refs := splitRefs(args)
		if len(refs) == 0 {
			s.fail("usage: toggle <n|id>...")
			return false
		}
		for _, ref := range refs {
			id, err := resolveRecipe(ctrl.State(), ref)
			if err == nil {
				_, err = ctrl.ToggleRecipe(id)
			}
			if err != nil {
				s.fail(explain(err))
				return false
			}
		}
		state := ctrl.State()
		fmt.Fprintln(s.out, present.Recipes(s.rt.formatter, state.Recipes, state.Selection))
	case "list":
		s.report(ctrl.GenerateGroceryList(ctx))
	case "email":
		if len(args) != 1 {
			s.fail("usage: email <address>")
			return false
		}
		if _, err := ctrl.EmailGroceryListTo(ctx, args[0]); err != nil {
			s.fail(explain(err))
		}
	case "profile":
		profile, ok := s.rt.profiles.Current()
		if !ok {
			fmt.Fprintln(s.out, "No profile. Create one with `salesavor profile save`.")
			return false
		}
		fmt.Fprintln(s.out, present.Profile(profile))
	case "reset":
		s.printState(ctrl.Reset())
	default:
		s.fail(fmt.Sprintf("unknown command %q (type 'help')", verb))
	}
	return false
}

// report prints the state after an operation, or the reason it was
// rejected. Transport failures were already announced, so the unchanged
// state is shown.
func (s *shell) report(state journey.State, err error) {
	if message := explain(err); message != "" {
		s.fail(message)
		return
	}
	s.printState(state)
}

func (s *shell) printState(state journey.State) {
	fmt.Fprintln(s.out, present.StageBar(state))
	f := s.rt.formatter
	switch state.Stage {
	case journey.StageLocation:
		fmt.Fprintln(s.out, present.Location(f, state))
	case journey.StageStores:
		fmt.Fprintln(s.out, present.Stores(f, state.Stores, state.SelectedStoreID))
	case journey.StageSales:
		if store, ok := state.SelectedStore(); ok {
			fmt.Fprintf(s.out, "Sales at %s\n", store.Name)
		}
		fmt.Fprintln(s.out, present.Sales(f, state.SaleItems))
	case journey.StageRecipes:
		fmt.Fprintln(s.out, present.Recipes(f, state.Recipes, state.Selection))
	case journey.StageGroceryList:
		fmt.Fprintln(s.out, present.GroceryList(f, state.GroceryList))
	}
}

func (s *shell) fail(message string) {
	if message == "" {
		return
	}
	fmt.Fprintf(s.out, "! %s\n", message)
}
