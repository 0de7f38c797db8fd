package profiles_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DavidRHerbert/webex-mcp/internal/db"
	"github.com/DavidRHerbert/webex-mcp/internal/mcpconfig"
	"github.com/DavidRHerbert/webex-mcp/internal/profiles"
)

func testStore(t *testing.T) *profiles.Store {
	t.Helper()
	database, err := db.OpenMemory()
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return profiles.New(database)
}

func TestPutAndGet(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	settings := mcpconfig.Settings{
		ServerName: "team",
		URL:        "https://mcp.example.com/mcp",
		Transport:  mcpconfig.TransportHTTP,
		UserEmail:  "me@example.com",
		APIToken:   "do-not-store",
	}
	p, err := s.Put(ctx, "team", profiles.KindMessaging, settings)
	require.NoError(t, err)
	assert.EqualValues(t, 1, p.Version)
	assert.Equal(t, profiles.KindMessaging, p.Kind)
	assert.Empty(t, p.Settings.APIToken)
	assert.Equal(t, "me@example.com", p.Settings.UserEmail)
	assert.False(t, p.UpdatedAt.IsZero())

	got, err := s.Get(ctx, "team")
	require.NoError(t, err)
	assert.Equal(t, "https://mcp.example.com/mcp", got.Settings.URL)
	assert.Empty(t, got.Settings.APIToken)
}

func TestVersionIncrement(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	s.Put(ctx, "p", profiles.KindMessaging, mcpconfig.Settings{})
	p, err := s.Put(ctx, "p", profiles.KindContactCenter, mcpconfig.Settings{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, p.Version)
	assert.Equal(t, profiles.KindContactCenter, p.Kind)
}

func TestPutRequiresName(t *testing.T) {
	_, err := testStore(t).Put(context.Background(), "  ", profiles.KindMessaging, mcpconfig.Settings{})
	assert.Error(t, err)
}

func TestListAndDelete(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	s.Put(ctx, "beta", profiles.KindMessaging, mcpconfig.Settings{})
	s.Put(ctx, "alpha", profiles.KindContactCenter, mcpconfig.Settings{})

	items, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "alpha", items[0].Name)
	assert.Equal(t, "beta", items[1].Name)

	require.NoError(t, s.Delete(ctx, "alpha"))
	assert.ErrorIs(t, s.Delete(ctx, "alpha"), sql.ErrNoRows)

	_, err = s.Get(ctx, "alpha")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestProfileConfig(t *testing.T) {
	cc := profiles.Profile{Kind: profiles.KindContactCenter}
	entry := cc.Config("https://cc.example.com").MCPServers[mcpconfig.DefaultContactCenterName]
	assert.Equal(t, mcpconfig.HTTPEntry{URL: "https://cc.example.com/mcp"}, entry)

	msg := profiles.Profile{Kind: profiles.KindMessaging, Settings: mcpconfig.Settings{Transport: mcpconfig.TransportStdio}}
	_, ok := msg.Config("").MCPServers[mcpconfig.DefaultServerName].(mcpconfig.StdioEntry)
	assert.True(t, ok)
}

func TestParseKind(t *testing.T) {
	assert.Equal(t, profiles.KindContactCenter, profiles.ParseKind("cc"))
	assert.Equal(t, profiles.KindContactCenter, profiles.ParseKind("Contact-Center"))
	assert.Equal(t, profiles.KindMessaging, profiles.ParseKind(""))
	assert.Equal(t, profiles.KindMessaging, profiles.ParseKind("messaging"))
}
