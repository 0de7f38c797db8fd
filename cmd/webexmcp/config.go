package main

import (
	"database/sql"
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/DavidRHerbert/webex-mcp/internal/audit"
	"github.com/DavidRHerbert/webex-mcp/internal/clipboard"
	"github.com/DavidRHerbert/webex-mcp/internal/mcpconfig"
	"github.com/DavidRHerbert/webex-mcp/internal/observability"
	"github.com/DavidRHerbert/webex-mcp/internal/profiles"
	"github.com/DavidRHerbert/webex-mcp/internal/wizard"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Build, save and install MCP client configs",
}

// settingsFlags are shared by `config build` and `config save`.
type settingsFlags struct {
	kind, name, url, transport, port, mode, email, apiBase, token, command string
	args                                                                   []string
}

func (f *settingsFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.kind, "kind", "messaging", "messaging or contact-center")
	fs.StringVar(&f.name, "name", "", "server name (key under mcpServers)")
	fs.StringVar(&f.url, "url", "", "MCP endpoint URL")
	fs.StringVar(&f.transport, "transport", "", "http or stdio")
	fs.StringVar(&f.port, "port", "", "MCP port header")
	fs.StringVar(&f.mode, "mode", "", "MCP mode")
	fs.StringVar(&f.email, "email", "", "Webex user email")
	fs.StringVar(&f.apiBase, "api-base", "", "Webex API base URL")
	fs.StringVar(&f.token, "token", "", "Webex API token")
	fs.StringVar(&f.command, "command", "", "stdio launcher command")
	fs.StringSliceVar(&f.args, "arg", nil, "stdio launcher argument (repeatable)")
}

// resolve overlays explicitly set flags onto the configured defaults. The
// messaging defaults never apply to a Contact Center config.
func (f *settingsFlags) resolve(cmd *cobra.Command) (profiles.Kind, mcpconfig.Settings) {
	kind := profiles.ParseKind(f.kind)
	var s mcpconfig.Settings
	if kind == profiles.KindMessaging {
		s = settings.Messaging
	}
	changed := cmd.Flags().Changed
	for _, o := range []struct {
		flag     string
		src, dst *string
	}{
		{"name", &f.name, &s.ServerName},
		{"url", &f.url, &s.URL},
		{"port", &f.port, &s.Port},
		{"mode", &f.mode, &s.Mode},
		{"email", &f.email, &s.UserEmail},
		{"api-base", &f.apiBase, &s.APIBase},
		{"token", &f.token, &s.APIToken},
		{"command", &f.command, &s.Command},
	} {
		if changed(o.flag) {
			*o.dst = *o.src
		}
	}
	if changed("transport") {
		s.Transport = mcpconfig.ParseTransport(f.transport)
	}
	if changed("arg") {
		s.Args = f.args
	}
	return kind, s
}

var (
	buildFlags   settingsFlags
	buildCopy    *bool
	buildInstall *[]string
	buildDir     *string
	buildOrigin  *string
)

var configBuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Print the MCP client config for the given settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, s := buildFlags.resolve(cmd)
		p := profiles.Profile{Kind: kind, Settings: s}
		return emitConfig(cmd, p.Config(*buildOrigin))
	},
}

// emitConfig prints cfg and performs --copy / --install.
func emitConfig(cmd *cobra.Command, cfg mcpconfig.Config) error {
	data, err := mcpconfig.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	record(cmd.Context(), observability.MetricConfigGenerated)

	if *buildCopy {
		if clipboard.New().CopyConfig(cfg) {
			fmt.Fprintln(cmd.ErrOrStderr(), "Copied to clipboard.")
		} else {
			fmt.Fprintln(cmd.ErrOrStderr(), "Clipboard unavailable.")
		}
	}

	paths := mcpconfig.ClientPaths(*buildDir)
	for _, target := range *buildInstall {
		var selected []string
		switch target {
		case "cursor":
			selected = paths[:1]
		case "claude":
			selected = paths[1:]
		case "all":
			selected = paths
		default:
			return fmt.Errorf("unknown install target %q (valid: cursor, claude, all)", target)
		}
		for _, path := range selected {
			if err := mcpconfig.Install(path, cfg); err != nil {
				audited(cmd.Context(), audit.ActionConfigInstall, path, err)
				return err
			}
			audited(cmd.Context(), audit.ActionConfigInstall, path, nil)
			record(cmd.Context(), observability.MetricConfigInstalled)
			fmt.Fprintf(cmd.ErrOrStderr(), "Installed into %s\n", path)
		}
	}
	return nil
}

var configWizardCmd = &cobra.Command{
	Use:   "wizard",
	Short: "Answer a few questions and get a ready-to-paste config",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var copier *clipboard.Copier
		if clipboard.Available() {
			copier = clipboard.New()
		}
		res, err := wizard.RunConfig(wizard.Options{
			Accessible:   *accessible,
			Out:          cmd.OutOrStdout(),
			Copier:       copier,
			WorkspaceDir: wizard.DefaultWorkspaceDir(),
			Defaults:     settings.Messaging,
		})
		if res != nil {
			record(cmd.Context(), observability.MetricConfigGenerated)
			for _, path := range res.Installed {
				record(cmd.Context(), observability.MetricConfigInstalled)
				audited(cmd.Context(), audit.ActionConfigInstall, path, nil)
			}
		}
		return err
	},
}

var saveFlags settingsFlags

var configSaveCmd = &cobra.Command{
	Use:   "save NAME",
	Short: "Save settings as a named profile (the API token is not stored)",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		kind, s := saveFlags.resolve(cmd)
		p, err := profiles.New(database).Put(cmd.Context(), args[0], kind, s)
		if err != nil {
			return err
		}
		if err := observability.New(database).Increment(cmd.Context(), surface, observability.MetricProfileSaved); err != nil {
			logger.Debug("metric increment failed", "metric", observability.MetricProfileSaved, "error", err)
		}
		detail := audit.DetailJSON(map[string]any{"kind": p.Kind, "version": p.Version})
		if err := audit.New(database).Append(cmd.Context(), surface, audit.ActionProfileSave, p.Name, detail, ""); err != nil {
			logger.Warn("audit append failed", "action", audit.ActionProfileSave, "error", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Saved profile %q (%s, version %d)\n", p.Name, p.Kind, p.Version)
		return nil
	},
}

var configListCmd = &cobra.Command{
	Use:   "list",
	Short: "List saved profiles",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		items, err := profiles.New(database).List(cmd.Context())
		if err != nil {
			return err
		}
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		defer w.Flush()
		fmt.Fprintln(w, "NAME\tKIND\tVERSION\tUPDATED")
		for _, p := range items {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", p.Name, p.Kind, p.Version, p.UpdatedAt.Local().Format("2006-01-02 15:04"))
		}
		return nil
	},
}

var showToken *string

var configShowCmd = &cobra.Command{
	Use:   "show NAME",
	Short: "Print the config for a saved profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		p, err := profiles.New(database).Get(cmd.Context(), args[0])
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("no profile named %q", args[0])
		}
		if err != nil {
			return err
		}
		p.Settings.APIToken = *showToken
		return emitConfig(cmd, p.Config(*buildOrigin))
	},
}

var configDeleteCmd = &cobra.Command{
	Use:   "delete NAME",
	Short: "Delete a saved profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		err = profiles.New(database).Delete(cmd.Context(), args[0])
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("no profile named %q", args[0])
		}
		if err != nil {
			return err
		}
		if err := audit.New(database).Append(cmd.Context(), surface, audit.ActionProfileDelete, args[0], "", ""); err != nil {
			logger.Warn("audit append failed", "action", audit.ActionProfileDelete, "error", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted profile %q\n", args[0])
		return nil
	},
}

var historyLimit *int

var configHistoryCmd = &cobra.Command{
	Use:   "history [NAME]",
	Short: "Show profile saves, deletes and config installs",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		database, err := openDB()
		if err != nil {
			return err
		}
		defer database.Close()

		f := audit.Filter{Limit: *historyLimit}
		if len(args) == 1 {
			f.Resource = args[0]
		}
		entries, err := audit.New(database).Query(cmd.Context(), f)
		if err != nil {
			return err
		}
		if len(entries) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No history.")
			return nil
		}

		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
		defer w.Flush()
		fmt.Fprintln(w, "TIME\tACTOR\tACTION\tRESOURCE\tOUTCOME")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", e.Timestamp.Local().Format("2006-01-02 15:04"), e.Actor, e.Action, e.Resource, e.Outcome)
		}
		return nil
	},
}

func init() {
	historyLimit = configHistoryCmd.Flags().Int("limit", 20, "maximum entries to show")
	buildFlags.register(configBuildCmd)
	saveFlags.register(configSaveCmd)

	// Output flags are shared by build and show.
	buildCopy = configCmd.PersistentFlags().Bool("copy", false, "copy the config to the clipboard")
	buildInstall = configCmd.PersistentFlags().StringSlice("install", nil, "merge into client config: cursor, claude or all")
	buildDir = configCmd.PersistentFlags().String("dir", ".", "workspace directory for --install")
	buildOrigin = configCmd.PersistentFlags().String("origin", "", "page origin for a Contact Center URL (default "+mcpconfig.FallbackOrigin+")")
	showToken = configShowCmd.Flags().String("token", "", "Webex API token to include (profiles never store it)")

	configCmd.AddCommand(configBuildCmd, configWizardCmd, configSaveCmd, configListCmd, configShowCmd, configDeleteCmd, configHistoryCmd)
	rootCmd.AddCommand(configCmd)
}
