package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func noEnv(string) string { return "" }

func TestResolveDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	opts, err := resolve(nil, noEnv)
	require.NoError(t, err)
	assert.Equal(t, defaults(), opts)
}

func TestResolveLayers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bind: file:1\nauth_token: file-token\nlog_level: debug\nchat_upstream: http://file\n"), 0o600))

	env := map[string]string{"WEBEXMCP_AUTH_TOKEN": "env-token"}
	opts, err := resolve([]string{"--config", path, "--log-level", "warn"}, func(k string) string { return env[k] })
	require.NoError(t, err)

	assert.Equal(t, "file:1", opts.Bind)
	assert.Equal(t, "warn", opts.LogLevel)
	assert.Equal(t, "env-token", opts.AuthToken)
	assert.Equal(t, "http://file", opts.ChatUpstream)
	assert.Equal(t, ".", opts.DataDir)
}

func TestLoadConfigFileInvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("bind: [oops\n"), 0o600))

	assert.Equal(t, defaults(), loadConfigFile(path))
}

func TestResolveBadFlag(t *testing.T) {
	_, err := resolve([]string{"--nope"}, noEnv)
	assert.Error(t, err)
}

func TestResolveBadLogLevel(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := resolve([]string{"--log-level", "verbose"}, noEnv)
	assert.Error(t, err)

	_, err = resolve(nil, func(k string) string {
		if k == "WEBEXMCP_LOG_LEVEL" {
			return "loud"
		}
		return ""
	})
	assert.Error(t, err)
}
