package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"salesavor/internal/config"
)

func newConfigCommand(ctx *commandContext) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration utilities",
	}

	configCmd.AddCommand(newConfigValidateCommand(ctx))
	configCmd.AddCommand(newConfigInitCommand())

	return configCmd
}

type initFlags struct {
	path          string
	overwrite     bool
	apiURL        string
	provider      string
	latitude      float64
	longitude     float64
	salesOnSelect bool
}

// sample turns the flags the user set into sample answers.
func (f initFlags) sample(cmd *cobra.Command) (config.Sample, error) {
	changed := cmd.Flags().Changed
	sample := config.Sample{
		APIURL:        f.apiURL,
		Provider:      f.provider,
		SalesOnSelect: f.salesOnSelect,
	}
	if changed("latitude") || changed("longitude") {
		if !changed("latitude") || !changed("longitude") {
			return sample, fmt.Errorf("--latitude and --longitude must be given together")
		}
		lat, lon := f.latitude, f.longitude
		sample.Latitude, sample.Longitude = &lat, &lon
		if !changed("location") {
			sample.Provider = "static"
		}
	}
	if strings.EqualFold(strings.TrimSpace(sample.Provider), "static") && sample.Latitude == nil {
		return sample, fmt.Errorf("--location static needs --latitude and --longitude")
	}
	return sample, nil
}

func newConfigInitCommand() *cobra.Command {
	var flags initFlags

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file",
		Long: `Write a commented configuration file. Flags fill in the API address,
how your location is found, and whether picking a store loads its sales
right away; everything else keeps the sample defaults.`,
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			sample, err := flags.sample(cmd)
			if err != nil {
				return err
			}
			target, err := initTarget(flags.path)
			if err != nil {
				return err
			}
			if !flags.overwrite {
				if _, err := os.Stat(target); err == nil {
					return fmt.Errorf("config file already exists at %s (use --overwrite to replace it)", target)
				} else if !os.IsNotExist(err) {
					return fmt.Errorf("check config path: %w", err)
				}
			}

			if err := config.CreateSample(target, sample); err != nil {
				return fmt.Errorf("create sample config: %w", err)
			}
			cfg, _, _, err := config.Load(target)
			if err != nil {
				_ = os.Remove(target)
				return fmt.Errorf("generated config is invalid: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Wrote configuration to %s\n", target)
			printConfigSummary(out, cfg)
			if !cmd.Flags().Changed("api-url") {
				fmt.Fprintln(out, "Set api.base_url (or export SALESAVOR_API_URL) to point at your SaleSavor API.")
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&flags.path, "path", "p", "", "Destination for the configuration file")
	cmd.Flags().BoolVar(&flags.overwrite, "overwrite", false, "Overwrite existing configuration if present")
	cmd.Flags().StringVar(&flags.apiURL, "api-url", "", "Base URL of the SaleSavor API")
	cmd.Flags().StringVar(&flags.provider, "location", "", "How to find your position: ip, static, or none")
	cmd.Flags().Float64Var(&flags.latitude, "latitude", 0, "Fixed latitude (implies --location static)")
	cmd.Flags().Float64Var(&flags.longitude, "longitude", 0, "Fixed longitude (implies --location static)")
	cmd.Flags().BoolVar(&flags.salesOnSelect, "sales-on-select", false, "Load a store's sales as soon as it is selected")
	return cmd
}

func initTarget(path string) (string, error) {
	target := strings.TrimSpace(path)
	if target == "" {
		defaultPath, err := config.DefaultConfigPath()
		if err != nil {
			return "", fmt.Errorf("determine default config path: %w", err)
		}
		return defaultPath, nil
	}
	expanded, err := config.ExpandPath(target)
	if err != nil {
		return "", fmt.Errorf("resolve config path: %w", err)
	}
	if dir := filepath.Dir(expanded); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return "", fmt.Errorf("create config directory %q: %w", dir, err)
		}
	}
	return expanded, nil
}

func newConfigValidateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:         "validate",
		Short:       "Validate configuration file",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			var flagPath string
			if ctx.configFlag != nil {
				flagPath = strings.TrimSpace(*ctx.configFlag)
			}
			cfg, path, exists, err := config.Load(flagPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfg.EnsureDirectories(); err != nil {
				return fmt.Errorf("ensure directories: %w", err)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config path: %s\n", path)
			if !exists {
				fmt.Fprintln(out, "Config file did not exist; defaults were used")
			}
			printConfigSummary(out, cfg)
			fmt.Fprintln(out, "Configuration valid")
			return nil
		},
	}
}

func printConfigSummary(out io.Writer, cfg *config.Config) {
	fmt.Fprintf(out, "API: %s\n", cfg.API.BaseURL)
	location := cfg.Location.Provider
	if location == "static" {
		location = fmt.Sprintf("static (%.4f, %.4f)", cfg.Location.Latitude, cfg.Location.Longitude)
	}
	fmt.Fprintf(out, "Location provider: %s\n", location)
	fmt.Fprintf(out, "Sales on select: %s\n", yesNo(cfg.Journey.SalesOnSelect))
	fmt.Fprintf(out, "Session database: %s\n", cfg.SessionDBPath())
}
