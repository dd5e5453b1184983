package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"salesavor/internal/present"
	"salesavor/internal/salesapi"
	"salesavor/internal/session"
)

func newProfileCommand(ctx *commandContext) *cobra.Command {
	profileCmd := &cobra.Command{
		Use:   "profile",
		Short: "Manage the user profile used for recipe generation",
	}
	profileCmd.AddCommand(newProfileShowCommand(ctx))
	profileCmd.AddCommand(newProfileSaveCommand(ctx))
	profileCmd.AddCommand(newProfileLoadCommand(ctx))
	return profileCmd
}

func newProfileShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the session's profile",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd, runtimeOptions{}, func(c context.Context, rt *runtime) error {
				if _, _, err := rt.resume(c); err != nil {
					return err
				}
				profile, ok := rt.profiles.Current()
				if !ok {
					fmt.Fprintf(rt.out, "No profile in session %q. Create one with `salesavor profile save`.\n", rt.name)
					return nil
				}
				fmt.Fprintln(rt.out, present.Profile(profile))
				return nil
			})
		},
	}
}

type profileFlags struct {
	name      string
	email     string
	household int
	diet      []string
	allergies []string
	cuisines  []string
	budget    string
	skill     string
	meals     []string
}

// apply copies every flag the user set onto data.
func (f profileFlags) apply(cmd *cobra.Command, data *salesapi.ProfileData) {
	changed := cmd.Flags().Changed
	if changed("name") {
		data.Name = f.name
	}
	if changed("email") {
		data.Email = f.email
	}
	if changed("household") {
		data.HouseholdSize = f.household
	}
	if changed("diet") {
		data.DietaryPreferences = f.diet
	}
	if changed("allergies") {
		data.FoodAllergies = f.allergies
	}
	if changed("cuisines") {
		data.CuisinePreferences = f.cuisines
	}
	if changed("budget") {
		data.BudgetRange = f.budget
	}
	if changed("skill") {
		data.CookingSkill = f.skill
	}
	if changed("meals") {
		data.PreferredMealTypes = f.meals
	}
}

func newProfileSaveCommand(ctx *commandContext) *cobra.Command {
	var flags profileFlags

	cmd := &cobra.Command{
		Use:   "save",
		Short: "Create the profile, or update the session's existing one",
		RunE: func(cmd *cobra.Command, args []string) error {
			if flags.household < 0 {
				return fmt.Errorf("--household must be positive")
			}
			return ctx.withRuntime(cmd, runtimeOptions{}, func(c context.Context, rt *runtime) error {
				if _, _, err := rt.resume(c); err != nil {
					return err
				}
				current, _ := rt.profiles.Current()
				data := current.ProfileData
				flags.apply(cmd, &data)

				saved, err := rt.profiles.Save(c, data)
				if err != nil {
					if message := explain(err); message != "" {
						return fmt.Errorf("save profile: %s", message)
					}
					return fmt.Errorf("save profile: %w", err)
				}
				if err := rt.update(c, func(record *session.Record) { record.ProfileID = saved.ID }); err != nil {
					return fmt.Errorf("save session: %w", err)
				}
				fmt.Fprintln(rt.out, present.Profile(saved))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&flags.name, "name", "", "Display name")
	cmd.Flags().StringVar(&flags.email, "email", "", "Email address")
	cmd.Flags().IntVar(&flags.household, "household", 0, "Household size (recipe servings)")
	cmd.Flags().StringSliceVar(&flags.diet, "diet", nil, "Dietary preferences, comma separated")
	cmd.Flags().StringSliceVar(&flags.allergies, "allergies", nil, "Food allergies, comma separated")
	cmd.Flags().StringSliceVar(&flags.cuisines, "cuisines", nil, "Preferred cuisines, comma separated")
	cmd.Flags().StringVar(&flags.budget, "budget", "", "Budget range")
	cmd.Flags().StringVar(&flags.skill, "skill", "", "Cooking skill")
	cmd.Flags().StringSliceVar(&flags.meals, "meals", nil, "Preferred meal types, comma separated")
	return cmd
}

func newProfileLoadCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "load <id>",
		Short: "Attach an existing profile to the session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withRuntime(cmd, runtimeOptions{}, func(c context.Context, rt *runtime) error {
				profile, ok := rt.profiles.Load(c, args[0])
				if !ok {
					return fmt.Errorf("profile %s could not be loaded (see the log for details)", args[0])
				}
				if err := rt.update(c, func(record *session.Record) { record.ProfileID = profile.ID }); err != nil {
					return fmt.Errorf("save session: %w", err)
				}
				fmt.Fprintln(rt.out, present.Profile(profile))
				return nil
			})
		},
	}
}
