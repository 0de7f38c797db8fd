package mcp

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	mcplib "github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/DavidRHerbert/webex-mcp/internal/docs"
	"github.com/DavidRHerbert/webex-mcp/internal/mcpconfig"
	"github.com/DavidRHerbert/webex-mcp/internal/profiles"
)

// ServerName is advertised in the MCP initialize result.
const ServerName = "webex-mcp-config"

// OriginFunc reports the scheme://host a client used to reach the server.
type OriginFunc func(r *http.Request) string

type originKey struct{}

// Transport wraps the MCP server and exposes it as an http.Handler.
type Transport struct {
	profiles *profiles.Store
	handler  http.Handler
}

// New creates the MCP transport with config generation tools. origin is
// called per request; Contact Center configs without a URL point at its
// /mcp endpoint. A nil origin falls back to mcpconfig.FallbackOrigin.
func New(store *profiles.Store, version string, origin OriginFunc) *Transport {
	t := &Transport{
		profiles: store,
	}

	srv := mcpserver.NewMCPServer(
		ServerName,
		version,
		mcpserver.WithToolCapabilities(true),
	)

	srv.AddTool(
		mcplib.NewTool("build_config",
			mcplib.WithDescription("Build the mcpServers JSON an MCP client needs to reach a Webex MCP server. Every argument is optional."),
			mcplib.WithString("kind", mcplib.Description("messaging (default) or contact-center")),
			mcplib.WithString("server_name", mcplib.Description("Key under mcpServers")),
			mcplib.WithString("url", mcplib.Description("MCP endpoint URL")),
			mcplib.WithString("transport", mcplib.Description("http (default) or stdio")),
			mcplib.WithString("port", mcplib.Description("Port header value")),
			mcplib.WithString("mode", mcplib.Description("MCP mode")),
			mcplib.WithString("user_email", mcplib.Description("Webex user email")),
			mcplib.WithString("api_base", mcplib.Description("Webex API base URL")),
			mcplib.WithString("api_token", mcplib.Description("Webex API token")),
		),
		t.handleBuildConfig,
	)

	srv.AddTool(
		mcplib.NewTool("list_profiles",
			mcplib.WithDescription("List saved connection profiles."),
		),
		t.handleListProfiles,
	)

	srv.AddTool(
		mcplib.NewTool("get_profile_config",
			mcplib.WithDescription("Build the config for a saved profile. Profiles never store the API token; pass it to include it."),
			mcplib.WithString("name", mcplib.Required(), mcplib.Description("Profile name")),
			mcplib.WithString("api_token", mcplib.Description("Webex API token to include")),
		),
		t.handleProfileConfig,
	)

	srv.AddTool(
		mcplib.NewTool("describe_contact_center_tools",
			mcplib.WithDescription("Explain the Contact Center MCP tools and how to use them from chat, as markdown."),
			mcplib.WithString("name", mcplib.Description("Only this tool")),
		),
		t.handleDescribeTools,
	)

	t.handler = mcpserver.NewStreamableHTTPServer(srv,
		mcpserver.WithHTTPContextFunc(func(ctx context.Context, r *http.Request) context.Context {
			if origin == nil {
				return ctx
			}
			return context.WithValue(ctx, originKey{}, origin(r))
		}),
	)
	return t
}

// originFrom returns the request origin stored by the HTTP context func.
func originFrom(ctx context.Context) string {
	o, _ := ctx.Value(originKey{}).(string)
	return o
}

// ServeHTTP implements http.Handler.
func (t *Transport) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	t.handler.ServeHTTP(w, r)
}

// getArg extracts a string argument from the tool request.
func getArg(req mcplib.CallToolRequest, key string) string {
	args, ok := req.Params.Arguments.(map[string]any)
	if !ok {
		return ""
	}
	v, _ := args[key].(string)
	return v
}

func configResult(cfg mcpconfig.Config) (*mcplib.CallToolResult, error) {
	data, err := mcpconfig.Marshal(cfg)
	if err != nil {
		return mcplib.NewToolResultError(fmt.Sprintf("encode config: %v", err)), nil
	}
	return mcplib.NewToolResultText(string(data)), nil
}

func (t *Transport) handleBuildConfig(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	p := profiles.Profile{
		Kind: profiles.ParseKind(getArg(req, "kind")),
		Settings: mcpconfig.Settings{
			ServerName: getArg(req, "server_name"),
			URL:        getArg(req, "url"),
			Transport:  mcpconfig.ParseTransport(getArg(req, "transport")),
			Port:       getArg(req, "port"),
			Mode:       getArg(req, "mode"),
			UserEmail:  getArg(req, "user_email"),
			APIBase:    getArg(req, "api_base"),
			APIToken:   getArg(req, "api_token"),
		},
	}
	return configResult(p.Config(originFrom(ctx)))
}

func (t *Transport) handleListProfiles(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	items, err := t.profiles.List(ctx)
	if err != nil {
		return mcplib.NewToolResultError(fmt.Sprintf("list profiles failed: %v", err)), nil
	}
	if items == nil {
		items = []profiles.Summary{}
	}

	data, _ := json.MarshalIndent(map[string]any{
		"count":    len(items),
		"profiles": items,
	}, "", "  ")

	return mcplib.NewToolResultText(string(data)), nil
}

func (t *Transport) handleProfileConfig(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	name := getArg(req, "name")
	if name == "" {
		return mcplib.NewToolResultError("name is required"), nil
	}

	p, err := t.profiles.Get(ctx, name)
	if errors.Is(err, sql.ErrNoRows) {
		return mcplib.NewToolResultError("profile not found: " + name), nil
	}
	if err != nil {
		return mcplib.NewToolResultError(fmt.Sprintf("get profile failed: %v", err)), nil
	}
	p.Settings.APIToken = getArg(req, "api_token")
	return configResult(p.Config(originFrom(ctx)))
}

func (t *Transport) handleDescribeTools(ctx context.Context, req mcplib.CallToolRequest) (*mcplib.CallToolResult, error) {
	tools := docs.Tools
	if name := getArg(req, "name"); name != "" {
		tool, ok := docs.Lookup(name)
		if !ok {
			return mcplib.NewToolResultError("unknown tool: " + name), nil
		}
		tools = []docs.Tool{tool}
	}
	md, err := docs.Render(tools)
	if err != nil {
		return mcplib.NewToolResultError(fmt.Sprintf("render docs: %v", err)), nil
	}
	return mcplib.NewToolResultText(md), nil
}
