package mcp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	mcplib "github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DavidRHerbert/webex-mcp/internal/db"
	"github.com/DavidRHerbert/webex-mcp/internal/mcpconfig"
	"github.com/DavidRHerbert/webex-mcp/internal/profiles"
)

func testClient(t *testing.T) (*client.Client, *profiles.Store) {
	t.Helper()
	database, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	store := profiles.New(database)

	origin := func(r *http.Request) string { return "https://cc.example.com" }
	ts := httptest.NewServer(New(store, "test", origin))
	t.Cleanup(ts.Close)

	tr, err := transport.NewStreamableHTTP(ts.URL + "/mcp-config")
	require.NoError(t, err)
	c := client.NewClient(tr)
	ctx := context.Background()
	require.NoError(t, c.Start(ctx))
	t.Cleanup(func() { c.Close() })

	initReq := mcplib.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcplib.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcplib.Implementation{Name: "test", Version: "1"}
	_, err = c.Initialize(ctx, initReq)
	require.NoError(t, err)
	return c, store
}

func call(t *testing.T, c *client.Client, name string, args map[string]any) (string, bool) {
	t.Helper()
	req := mcplib.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args
	res, err := c.CallTool(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, res.Content)
	text, ok := res.Content[0].(mcplib.TextContent)
	require.True(t, ok)
	return text.Text, res.IsError
}

func TestListTools(t *testing.T) {
	c, _ := testClient(t)
	res, err := c.ListTools(context.Background(), mcplib.ListToolsRequest{})
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	assert.ElementsMatch(t, []string{"build_config", "list_profiles", "get_profile_config", "describe_contact_center_tools"}, names)
}

func TestBuildConfigTool(t *testing.T) {
	c, _ := testClient(t)

	text, isErr := call(t, c, "build_config", map[string]any{"server_name": "team", "api_token": "tok"})
	require.False(t, isErr)
	assert.JSONEq(t, `{"mcpServers":{"team":{"url":"http://localhost:3001/mcp","headers":{"Authorization":"Bearer tok"}}}}`, text)

	text, isErr = call(t, c, "build_config", map[string]any{"kind": "contact-center"})
	require.False(t, isErr)
	assert.JSONEq(t, `{"mcpServers":{"webex-contact-center":{"url":"https://cc.example.com/mcp"}}}`, text)
}

func TestProfileTools(t *testing.T) {
	c, store := testClient(t)
	_, err := store.Put(context.Background(), "desk", profiles.KindMessaging, mcpconfig.Settings{ServerName: "desk-webex"})
	require.NoError(t, err)

	text, isErr := call(t, c, "list_profiles", nil)
	require.False(t, isErr)
	assert.Contains(t, text, `"desk"`)

	text, isErr = call(t, c, "get_profile_config", map[string]any{"name": "desk", "api_token": "tok"})
	require.False(t, isErr)
	assert.Contains(t, text, "Bearer tok")

	text, isErr = call(t, c, "get_profile_config", map[string]any{"name": "missing"})
	assert.True(t, isErr)
	assert.Equal(t, "profile not found: missing", text)
}

func TestDescribeTools(t *testing.T) {
	c, _ := testClient(t)

	text, isErr := call(t, c, "describe_contact_center_tools", map[string]any{"name": "cc_end_task"})
	require.False(t, isErr)
	assert.Contains(t, text, "cc_end_task")
	assert.NotContains(t, text, "cc_list_address_books")

	_, isErr = call(t, c, "describe_contact_center_tools", map[string]any{"name": "nope"})
	assert.True(t, isErr)
}

func TestNilOriginFallsBack(t *testing.T) {
	database, err := db.OpenMemory()
	require.NoError(t, err)
	defer database.Close()

	ts := httptest.NewServer(New(profiles.New(database), "test", nil))
	defer ts.Close()

	tr, err := transport.NewStreamableHTTP(ts.URL)
	require.NoError(t, err)
	c := client.NewClient(tr)
	ctx := context.Background()
	require.NoError(t, c.Start(ctx))
	defer c.Close()

	initReq := mcplib.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcplib.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcplib.Implementation{Name: "test", Version: "1"}
	_, err = c.Initialize(ctx, initReq)
	require.NoError(t, err)

	text, isErr := call(t, c, "build_config", map[string]any{"kind": "contact-center"})
	require.False(t, isErr)
	assert.JSONEq(t, `{"mcpServers":{"webex-contact-center":{"url":"http://localhost:8080/mcp"}}}`, text)
}
