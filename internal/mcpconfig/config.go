package mcpconfig

import (
	"encoding/json"
	"strings"
)

// Transport selects how an MCP client reaches the server.
type Transport string

const (
	TransportHTTP  Transport = "http"
	TransportStdio Transport = "stdio"
)

// Defaults applied when the corresponding setting is blank.
const (
	DefaultServerName = "webex-messaging"
	DefaultURL        = "http://localhost:3001/mcp"
	DefaultCommand    = "npx"
)

// DefaultArgs launches the messaging server over stdio.
var DefaultArgs = []string{"-y", "webex-messaging-mcp-server"}

// Environment keys always present in a stdio entry.
const (
	EnvAPIToken  = "WEBEX_PUBLIC_WORKSPACE_API_KEY"
	EnvUserEmail = "WEBEX_USER_EMAIL"
	EnvAPIBase   = "WEBEX_API_BASE_URL"
	EnvMode      = "MCP_MODE"
)

// Header names used for the optional fields of an http entry.
const (
	HeaderAuthorization = "Authorization"
	HeaderUserEmail     = "X-Webex-User-Email"
	HeaderAPIBase       = "X-Webex-Api-Base-Url"
	HeaderMode          = "X-MCP-Mode"
	HeaderPort          = "X-MCP-Port"
)

// Settings is the connection form state. Every field is optional.
type Settings struct {
	ServerName string    `json:"serverName" yaml:"server_name"`
	URL        string    `json:"url" yaml:"url"`
	Transport  Transport `json:"transport" yaml:"transport"`
	Port       string    `json:"port" yaml:"port"`
	Mode       string    `json:"mode" yaml:"mode"`
	UserEmail  string    `json:"userEmail" yaml:"user_email"`
	APIBase    string    `json:"apiBase" yaml:"api_base"`
	APIToken   string    `json:"apiToken" yaml:"-"`
	Command    string    `json:"command,omitempty" yaml:"command,omitempty"`
	Args       []string  `json:"args,omitempty" yaml:"args,omitempty"`
}

// Config is the document an MCP client reads its server list from.
type Config struct {
	MCPServers map[string]ServerEntry `json:"mcpServers"`
}

// ServerEntry is either a StdioEntry or an HTTPEntry.
type ServerEntry interface {
	Transport() Transport
}

// StdioEntry registers a locally spawned server.
type StdioEntry struct {
	Command string            `json:"command"`
	Args    []string          `json:"args"`
	Env     map[string]string `json:"env"`
}

func (StdioEntry) Transport() Transport { return TransportStdio }

// HTTPEntry registers a server reachable over HTTP.
type HTTPEntry struct {
	URL     string            `json:"url"`
	Headers map[string]string `json:"headers,omitempty"`
}

func (HTTPEntry) Transport() Transport { return TransportHTTP }

// ParseTransport maps user input to a Transport. Anything other than
// "stdio" is treated as http.
func ParseTransport(s string) Transport {
	if strings.EqualFold(strings.TrimSpace(s), string(TransportStdio)) {
		return TransportStdio
	}
	return TransportHTTP
}

// ResolveName trims name and falls back to def when nothing is left.
func ResolveName(name, def string) string {
	if n := strings.TrimSpace(name); n != "" {
		return n
	}
	return def
}

// Build maps settings to a config with exactly one server entry.
// The same settings always produce the same config.
func Build(s Settings) Config {
	name := ResolveName(s.ServerName, DefaultServerName)

	var entry ServerEntry
	if ParseTransport(string(s.Transport)) == TransportStdio {
		entry = buildStdio(s)
	} else {
		entry = buildHTTP(s)
	}
	return Config{MCPServers: map[string]ServerEntry{name: entry}}
}

func buildStdio(s Settings) StdioEntry {
	command := strings.TrimSpace(s.Command)
	if command == "" {
		command = DefaultCommand
	}
	args := s.Args
	if len(args) == 0 {
		args = DefaultArgs
	}
	return StdioEntry{
		Command: command,
		Args:    append([]string{}, args...),
		Env: map[string]string{
			EnvAPIToken:  strings.TrimSpace(s.APIToken),
			EnvUserEmail: strings.TrimSpace(s.UserEmail),
			EnvAPIBase:   strings.TrimSpace(s.APIBase),
			EnvMode:      strings.TrimSpace(s.Mode),
		},
	}
}

func buildHTTP(s Settings) HTTPEntry {
	url := strings.TrimSpace(s.URL)
	if url == "" {
		url = DefaultURL
	}

	headers := map[string]string{}
	set := func(key, val string) {
		if v := strings.TrimSpace(val); v != "" {
			headers[key] = v
		}
	}
	if tok := strings.TrimSpace(s.APIToken); tok != "" {
		headers[HeaderAuthorization] = "Bearer " + tok
	}
	set(HeaderUserEmail, s.UserEmail)
	set(HeaderAPIBase, s.APIBase)
	set(HeaderMode, s.Mode)
	set(HeaderPort, s.Port)

	entry := HTTPEntry{URL: url}
	if len(headers) > 0 {
		entry.Headers = headers
	}
	return entry
}

// Marshal renders cfg the way it is shown and copied: 2-space indent.
func Marshal(cfg Config) ([]byte, error) {
	return json.MarshalIndent(cfg, "", "  ")
}
