package probe

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"
)

// DefaultTimeout bounds the whole probe.
const DefaultTimeout = 30 * time.Second

// ClientName and ClientVersion identify the probe to MCP servers.
const (
	ClientName    = "webex-mcp-probe"
	ClientVersion = "1.0.0"
)

// Tool is a tool advertised by the server.
type Tool struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Result describes a reachable MCP server.
type Result struct {
	URL             string `json:"url"`
	ServerName      string `json:"serverName"`
	ServerVersion   string `json:"serverVersion"`
	ProtocolVersion string `json:"protocolVersion"`
	Tools           []Tool `json:"tools"`
}

// Run initializes a session with the streamable HTTP server at url and
// lists its tools. headers are sent on every request.
func Run(ctx context.Context, url string, headers map[string]string) (*Result, error) {
	url = strings.TrimSpace(url)
	if url == "" {
		return nil, fmt.Errorf("mcp server url is required")
	}
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultTimeout)
		defer cancel()
	}

	var opts []transport.StreamableHTTPCOption
	if len(headers) > 0 {
		opts = append(opts, transport.WithHTTPHeaders(headers))
	}
	httpTransport, err := transport.NewStreamableHTTP(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("create transport: %w", err)
	}

	c := client.NewClient(httpTransport)
	if err := c.Start(ctx); err != nil {
		return nil, fmt.Errorf("start client: %w", err)
	}
	defer c.Close()

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: ClientName, Version: ClientVersion}
	initReq.Params.Capabilities = mcp.ClientCapabilities{}

	info, err := c.Initialize(ctx, initReq)
	if err != nil {
		return nil, fmt.Errorf("initialize: %w", err)
	}

	res := &Result{
		URL:             url,
		ServerName:      info.ServerInfo.Name,
		ServerVersion:   info.ServerInfo.Version,
		ProtocolVersion: info.ProtocolVersion,
		Tools:           []Tool{},
	}
	if info.Capabilities.Tools == nil {
		return res, nil
	}

	list, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, fmt.Errorf("list tools: %w", err)
	}
	for _, t := range list.Tools {
		res.Tools = append(res.Tools, Tool{Name: t.Name, Description: t.Description})
	}
	return res, nil
}
