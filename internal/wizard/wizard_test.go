package wizard

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DavidRHerbert/webex-mcp/internal/clipboard"
	"github.com/DavidRHerbert/webex-mcp/internal/mcpconfig"
	"github.com/DavidRHerbert/webex-mcp/internal/profiles"
)

func TestValidateServerName(t *testing.T) {
	assert.NoError(t, ValidateServerName(""))
	assert.NoError(t, ValidateServerName("  webex  "))
	assert.Error(t, ValidateServerName("my webex"))
}

func TestValidateURL(t *testing.T) {
	for _, ok := range []string{"", "http://localhost:3001/mcp", "https://h.example.com"} {
		assert.NoError(t, ValidateURL(ok), ok)
	}
	for _, bad := range []string{"localhost:3001", "ftp://h/x", "http://", "::"} {
		assert.Error(t, ValidateURL(bad), bad)
	}
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail(""))
	assert.NoError(t, ValidateEmail("a@b.c"))
	assert.Error(t, ValidateEmail("@b.c"))
	assert.Error(t, ValidateEmail("a@"))
	assert.Error(t, ValidateEmail("nobody"))
}

func TestValidatePort(t *testing.T) {
	assert.NoError(t, ValidatePort(""))
	assert.NoError(t, ValidatePort("3001"))
	assert.Error(t, ValidatePort("0"))
	assert.Error(t, ValidatePort("70000"))
	assert.Error(t, ValidatePort("http"))
}

func TestValidateRequired(t *testing.T) {
	v := ValidateRequired("access token")
	assert.NoError(t, v("x"))
	assert.EqualError(t, v("  "), "access token cannot be empty")
}

func TestRenderMessaging(t *testing.T) {
	var out bytes.Buffer
	res, err := Render(Options{Out: &out}, Answers{
		Kind:     profiles.KindMessaging,
		Settings: mcpconfig.Settings{ServerName: "team", APIToken: "tok"},
	})
	require.NoError(t, err)

	entry := res.Config.MCPServers["team"].(mcpconfig.HTTPEntry)
	assert.Equal(t, "Bearer tok", entry.Headers[mcpconfig.HeaderAuthorization])
	assert.Contains(t, out.String(), "Generated config:")
	assert.Contains(t, out.String(), string(res.JSON))
}

func TestRenderContactCenterFallsBackToLocalOrigin(t *testing.T) {
	res, err := Render(Options{Out: &bytes.Buffer{}}, Answers{Kind: profiles.KindContactCenter})
	require.NoError(t, err)

	entry := res.Config.MCPServers[mcpconfig.DefaultContactCenterName].(mcpconfig.HTTPEntry)
	assert.Equal(t, mcpconfig.FallbackOrigin+"/mcp", entry.URL)
}

func TestForKindDropsMessagingDefaults(t *testing.T) {
	defaults := mcpconfig.Settings{ServerName: "my-msg", URL: "http://localhost:3001/mcp", APIToken: "tok"}

	a := Answers{Kind: profiles.KindContactCenter, Settings: defaults}.forKind(mcpconfig.Settings{})
	res, err := Render(Options{Out: &bytes.Buffer{}}, a)
	require.NoError(t, err)
	require.Len(t, res.Config.MCPServers, 1)
	entry := res.Config.MCPServers[mcpconfig.DefaultContactCenterName].(mcpconfig.HTTPEntry)
	assert.Equal(t, mcpconfig.FallbackOrigin+"/mcp", entry.URL)

	a = Answers{Kind: profiles.KindContactCenter, Settings: defaults}.forKind(mcpconfig.Settings{ServerName: "desk", URL: "https://cc.example.com/mcp"})
	assert.Equal(t, mcpconfig.Settings{ServerName: "desk", URL: "https://cc.example.com/mcp"}, a.Settings)

	a = Answers{Kind: profiles.KindMessaging, Settings: defaults}.forKind(mcpconfig.Settings{ServerName: "desk"})
	assert.Equal(t, defaults, a.Settings)
}

func TestApplyCopyAndInstall(t *testing.T) {
	dir := t.TempDir()
	var copied string
	opts := Options{
		Out:          &bytes.Buffer{},
		WorkspaceDir: dir,
		Copier: clipboard.NewWithWriter(func(s string) error {
			copied = s
			return nil
		}),
	}
	res, err := Render(opts, Answers{Kind: profiles.KindMessaging})
	require.NoError(t, err)

	require.NoError(t, Apply(opts, res, []Action{ActionCopy, ActionInstallCursor, ActionInstallClaude}))
	assert.True(t, res.Copied)
	assert.Equal(t, string(res.JSON), copied)
	assert.Equal(t, mcpconfig.ClientPaths(dir), res.Installed)

	data, err := os.ReadFile(filepath.Join(dir, ".claude", "mcp.json"))
	require.NoError(t, err)
	var doc map[string]map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Contains(t, doc["mcpServers"], mcpconfig.DefaultServerName)
}

func TestApplyClipboardFailureIsNotAnError(t *testing.T) {
	var out bytes.Buffer
	opts := Options{
		Out:    &out,
		Copier: clipboard.NewWithWriter(func(string) error { return errors.New("no display") }),
	}
	res, err := Render(opts, Answers{})
	require.NoError(t, err)

	require.NoError(t, Apply(opts, res, []Action{ActionCopy}))
	assert.False(t, res.Copied)
	assert.Contains(t, out.String(), "Clipboard unavailable")
}

func TestApplyInstallFailureContinues(t *testing.T) {
	dir := t.TempDir()
	cursor := filepath.Join(dir, ".cursor", "mcp.json")
	require.NoError(t, os.MkdirAll(filepath.Dir(cursor), 0o755))
	require.NoError(t, os.WriteFile(cursor, []byte("{broken"), 0o644))

	opts := Options{Out: &bytes.Buffer{}, WorkspaceDir: dir}
	res, err := Render(opts, Answers{})
	require.NoError(t, err)

	err = Apply(opts, res, []Action{ActionInstallCursor, ActionInstallClaude})
	assert.Error(t, err)
	assert.Equal(t, []string{filepath.Join(dir, ".claude", "mcp.json")}, res.Installed)

	data, err := os.ReadFile(cursor)
	require.NoError(t, err)
	assert.Equal(t, "{broken", string(data))
}

func TestActionOptionsWithoutCopier(t *testing.T) {
	assert.Len(t, actionOptions(Options{}), 2)
	assert.Len(t, actionOptions(Options{Copier: clipboard.NewWithWriter(nil)}), 3)
}
