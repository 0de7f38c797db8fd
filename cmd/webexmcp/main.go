package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/DavidRHerbert/webex-mcp/internal/audit"
	"github.com/DavidRHerbert/webex-mcp/internal/cliconfig"
	"github.com/DavidRHerbert/webex-mcp/internal/db"
	"github.com/DavidRHerbert/webex-mcp/internal/observability"
)

const version = "0.3.0"

// surface tags usage metrics recorded by the CLI.
const surface = "cli"

// errSilent ends the process with status 1 after the command already
// printed its own message.
var errSilent = errors.New("silent failure")

var (
	rootCmd = &cobra.Command{
		Use:           "webexmcp",
		Short:         "Generate Webex MCP client configs and chat through an MCP-enabled backend",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadSettings(cmd.ErrOrStderr())
		},
	}

	// Flags
	configPath *string
	accessible *bool
	logLevel   *string

	settings *cliconfig.Config
	logger   *slog.Logger
)

func init() {
	configPath = rootCmd.PersistentFlags().String("config", cliconfig.DefaultPath(), "CLI settings file")
	accessible = rootCmd.PersistentFlags().Bool("accessible", false, "plain prompts without TUI chrome")
	logLevel = rootCmd.PersistentFlags().String("log-level", "warn", "log level: debug|info|warn|error")
	rootCmd.SetVersionTemplate("webexmcp {{.Version}}\n")
}

func loadSettings(logOut io.Writer) error {
	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		return fmt.Errorf("invalid --log-level %q: use debug, info, warn or error", *logLevel)
	}
	logger = slog.New(slog.NewTextHandler(logOut, &slog.HandlerOptions{Level: level}))

	cfg, err := cliconfig.Load(*configPath)
	if err != nil {
		return err
	}
	cfg.ApplyEnv(os.Getenv)
	settings = cfg
	return nil
}

// openDB opens the local profile and metrics database.
func openDB() (*sql.DB, error) {
	return db.Open(settings.DataDir)
}

// record bumps a CLI usage counter. The database is optional here, so
// failures are only logged.
func record(ctx context.Context, metric string) {
	database, err := openDB()
	if err != nil {
		logger.Debug("metrics unavailable", "error", err)
		return
	}
	defer database.Close()
	if err := observability.New(database).Increment(ctx, surface, metric); err != nil {
		logger.Debug("metric increment failed", "metric", metric, "error", err)
	}
}

// audited appends a CLI audit entry; failures are only logged.
func audited(ctx context.Context, action, resource string, opErr error) {
	database, err := openDB()
	if err != nil {
		logger.Debug("audit unavailable", "error", err)
		return
	}
	defer database.Close()

	outcome, detail := audit.OutcomeSuccess, ""
	if opErr != nil {
		outcome = audit.OutcomeFailure
		detail = audit.DetailJSON(map[string]any{"error": opErr.Error()})
	}
	if err := audit.New(database).Append(ctx, surface, action, resource, detail, outcome); err != nil {
		logger.Warn("audit append failed", "action", action, "error", err)
	}
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if !errors.Is(err, errSilent) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
