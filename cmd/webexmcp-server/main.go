package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/DavidRHerbert/webex-mcp/internal/audit"
	"github.com/DavidRHerbert/webex-mcp/internal/db"
	"github.com/DavidRHerbert/webex-mcp/internal/liveness"
	"github.com/DavidRHerbert/webex-mcp/internal/observability"
	"github.com/DavidRHerbert/webex-mcp/internal/profiles"
	"github.com/DavidRHerbert/webex-mcp/internal/server"
)

// fileConfig mirrors the YAML structure in settings.yaml.
type fileConfig struct {
	Bind         string `yaml:"bind"`
	DataDir      string `yaml:"data_dir"`
	AuthToken    string `yaml:"auth_token"`
	StaticDir    string `yaml:"static_dir"`
	ChatUpstream string `yaml:"chat_upstream"`
	LogLevel     string `yaml:"log_level"`
}

func main() {
	opts, err := resolve(os.Args[1:], os.Getenv)
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		os.Exit(2)
	}

	var level slog.Level
	level.UnmarshalText([]byte(opts.LogLevel)) // validated by resolve
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	database, err := db.Open(opts.DataDir)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	cfg := server.Config{
		Bind:         opts.Bind,
		DataDir:      opts.DataDir,
		AuthToken:    opts.AuthToken,
		StaticDir:    opts.StaticDir,
		ChatUpstream: opts.ChatUpstream,
	}
	srv, err := server.New(cfg, profiles.New(database), observability.New(database), logger)
	if err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}
	srv.SetAudit(audit.New(database))

	if opts.ChatUpstream != "" {
		monitor := liveness.New(opts.ChatUpstream, time.Minute, 5*time.Second, logger)
		monitor.Start()
		defer monitor.Stop()
		srv.SetMonitor(monitor)
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("webexmcp server starting",
		"bind", opts.Bind,
		"data_dir", opts.DataDir,
		"static_dir", opts.StaticDir,
		"chat_upstream", opts.ChatUpstream,
		"auth", opts.AuthToken != "",
	)

	if err := srv.ListenAndServe(ctx); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

// resolve layers settings.yaml < flags < environment. Explicitly set flags
// still win over the file even when --config points somewhere else.
func resolve(args []string, getenv func(string) string) (fileConfig, error) {
	fs := flag.NewFlagSet("webexmcp-server", flag.ContinueOnError)

	fc := loadConfigFile("settings.yaml")

	bind := fs.String("bind", fc.Bind, "listen address")
	dataDir := fs.String("data-dir", fc.DataDir, "SQLite database directory")
	authToken := fs.String("auth-token", fc.AuthToken, "bearer token for /api/* (empty = no auth)")
	staticDir := fs.String("static-dir", fc.StaticDir, "compiled UI directory (falls back to the embedded UI)")
	chatUpstream := fs.String("chat-upstream", fc.ChatUpstream, "chat backend base URL to proxy /api/chat and /mcp to")
	logLevel := fs.String("log-level", fc.LogLevel, "log level: debug|info|warn|error")
	configFile := fs.String("config", "", "path to config file (default: ./settings.yaml)")
	if err := fs.Parse(args); err != nil {
		return fileConfig{}, err
	}

	if *configFile != "" {
		fc = loadConfigFile(*configFile)
		explicitly := map[string]bool{}
		fs.Visit(func(f *flag.Flag) { explicitly[f.Name] = true })
		for name, dst := range map[string]*string{
			"bind":          bind,
			"data-dir":      dataDir,
			"auth-token":    authToken,
			"static-dir":    staticDir,
			"chat-upstream": chatUpstream,
			"log-level":     logLevel,
		} {
			if !explicitly[name] {
				*dst = fileValue(fc, name)
			}
		}
	}

	for env, dst := range map[string]*string{
		"WEBEXMCP_BIND":          bind,
		"WEBEXMCP_DATA_DIR":      dataDir,
		"WEBEXMCP_AUTH_TOKEN":    authToken,
		"WEBEXMCP_STATIC_DIR":    staticDir,
		"WEBEXMCP_CHAT_UPSTREAM": chatUpstream,
		"WEBEXMCP_LOG_LEVEL":     logLevel,
	} {
		if v := getenv(env); v != "" {
			*dst = v
		}
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(*logLevel)); err != nil {
		fmt.Fprintf(fs.Output(), "invalid log level %q: use debug, info, warn or error\n", *logLevel)
		return fileConfig{}, fmt.Errorf("invalid log level %q", *logLevel)
	}

	return fileConfig{
		Bind:         *bind,
		DataDir:      *dataDir,
		AuthToken:    *authToken,
		StaticDir:    *staticDir,
		ChatUpstream: *chatUpstream,
		LogLevel:     *logLevel,
	}, nil
}

func fileValue(fc fileConfig, flagName string) string {
	switch flagName {
	case "bind":
		return fc.Bind
	case "data-dir":
		return fc.DataDir
	case "auth-token":
		return fc.AuthToken
	case "static-dir":
		return fc.StaticDir
	case "chat-upstream":
		return fc.ChatUpstream
	case "log-level":
		return fc.LogLevel
	}
	return ""
}

// loadConfigFile reads path over the defaults. Missing or invalid files
// yield the defaults.
func loadConfigFile(path string) fileConfig {
	fc := defaults()
	data, err := os.ReadFile(path)
	if err != nil {
		return fc
	}
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return defaults()
	}
	if fc.DataDir == "" {
		fc.DataDir = "."
	}
	return fc
}

func defaults() fileConfig {
	return fileConfig{
		Bind:      "localhost:8080",
		DataDir:   ".",
		StaticDir: "server/static",
		LogLevel:  "info",
	}
}
