package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/DavidRHerbert/webex-mcp/internal/cliconfig"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change CLI settings",
}

var settingsSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Set a setting (" + strings.Join(cliconfig.Keys(), ", ") + ")",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		// Reload without env so overrides are not persisted.
		cfg, err := cliconfig.Load(*configPath)
		if err != nil {
			return err
		}
		if err := cfg.Set(args[0], args[1]); err != nil {
			return err
		}
		if err := cliconfig.Save(*configPath, cfg); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s updated in %s\n", args[0], *configPath)
		return nil
	},
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print effective settings (file plus environment); secrets are masked",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		shown := *settings
		if shown.AccessToken != "" {
			shown.AccessToken = "********"
		}
		out, err := yaml.Marshal(&shown)
		if err != nil {
			return fmt.Errorf("encode settings: %w", err)
		}
		fmt.Fprint(cmd.OutOrStdout(), string(out))
		return nil
	},
}

func init() {
	settingsCmd.AddCommand(settingsSetCmd, settingsShowCmd)
	rootCmd.AddCommand(settingsCmd)
}
