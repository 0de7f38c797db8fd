package cliconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/DavidRHerbert/webex-mcp/internal/mcpconfig"
)

// Defaults for a fresh install.
const (
	DefaultChatAPIBase = "http://localhost:8080"
	DefaultMCPURL      = "http://localhost:8080/mcp"
	DefaultTimeout     = "2m"
)

// Environment overrides. They beat the file; flags beat both.
const (
	EnvChatAPIBase = "WEBEXMCP_CHAT_API_BASE"
	EnvMCPURL      = "WEBEXMCP_MCP_URL"
	EnvAccessToken = "WEBEXMCP_ACCESS_TOKEN"
	EnvOrgID       = "WEBEXMCP_ORG_ID"
	EnvDataDir     = "WEBEXMCP_DATA_DIR"
	EnvConfig      = "WEBEXMCP_CONFIG"
)

// Config is the CLI settings file.
type Config struct {
	ChatAPIBase string `yaml:"chat_api_base"`
	MCPURL      string `yaml:"mcp_url"`
	AccessToken string `yaml:"access_token,omitempty"`
	OrgID       string `yaml:"org_id,omitempty"`
	DataDir     string `yaml:"data_dir,omitempty"`
	// Timeout is a Go duration string; "0" waits forever.
	Timeout string `yaml:"timeout"`
	// Messaging holds the defaults for `config build`.
	Messaging mcpconfig.Settings `yaml:"messaging,omitempty"`
}

// Defaults returns a config with every default filled in.
func Defaults() *Config {
	return &Config{
		ChatAPIBase: DefaultChatAPIBase,
		MCPURL:      DefaultMCPURL,
		DataDir:     DefaultDir(),
		Timeout:     DefaultTimeout,
	}
}

// DefaultDir is ~/.webexmcp, or the working directory when there is no home.
func DefaultDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".webexmcp"
	}
	return filepath.Join(home, ".webexmcp")
}

// DefaultPath is $WEBEXMCP_CONFIG or ~/.webexmcp/config.yaml.
func DefaultPath() string {
	if v := os.Getenv(EnvConfig); v != "" {
		return v
	}
	return filepath.Join(DefaultDir(), "config.yaml")
}

// Load reads path over the defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Defaults()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// ApplyEnv overlays non-empty environment values.
func (c *Config) ApplyEnv(getenv func(string) string) {
	if getenv == nil {
		getenv = os.Getenv
	}
	for env, dst := range map[string]*string{
		EnvChatAPIBase: &c.ChatAPIBase,
		EnvMCPURL:      &c.MCPURL,
		EnvAccessToken: &c.AccessToken,
		EnvOrgID:       &c.OrgID,
		EnvDataDir:     &c.DataDir,
	} {
		if v := strings.TrimSpace(getenv(env)); v != "" {
			*dst = v
		}
	}
}

// RequestTimeout parses Timeout. Blank means the default.
func (c *Config) RequestTimeout() (time.Duration, error) {
	raw := strings.TrimSpace(c.Timeout)
	if raw == "" {
		raw = DefaultTimeout
	}
	if raw == "0" {
		return 0, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid timeout %q: %w", c.Timeout, err)
	}
	if d < 0 {
		return 0, fmt.Errorf("invalid timeout %q: must not be negative", c.Timeout)
	}
	return d, nil
}

// Save writes c to path with owner-only permissions.
func Save(path string, c *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config dir: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}

var setters = map[string]func(*Config, string) error{
	"chat_api_base": func(c *Config, v string) error { c.ChatAPIBase = v; return nil },
	"mcp_url":       func(c *Config, v string) error { c.MCPURL = v; return nil },
	"access_token":  func(c *Config, v string) error { c.AccessToken = v; return nil },
	"org_id":        func(c *Config, v string) error { c.OrgID = v; return nil },
	"data_dir":      func(c *Config, v string) error { c.DataDir = v; return nil },
	"timeout": func(c *Config, v string) error {
		prev := c.Timeout
		c.Timeout = v
		if _, err := c.RequestTimeout(); err != nil {
			c.Timeout = prev
			return err
		}
		return nil
	},
}

// Keys lists the settable keys in sorted order.
func Keys() []string {
	keys := make([]string, 0, len(setters))
	for k := range setters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Set assigns one key by name.
func (c *Config) Set(key, value string) error {
	set, ok := setters[key]
	if !ok {
		return fmt.Errorf("unknown setting %q (valid: %s)", key, strings.Join(Keys(), ", "))
	}
	return set(c, strings.TrimSpace(value))
}
