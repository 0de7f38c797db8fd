package mcpconfig

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// ClientPaths returns the MCP config files read by Cursor and Claude Code
// for a workspace rooted at dir.
func ClientPaths(dir string) []string {
	return []string{
		filepath.Join(dir, ".cursor", "mcp.json"),
		filepath.Join(dir, ".claude", "mcp.json"),
	}
}

// Install merges the servers in cfg into the client config file at path.
// Other servers and unrelated top-level keys are kept. A server with the
// same name is replaced. If the existing file is not valid JSON nothing is
// written.
func Install(path string, cfg Config) error {
	doc := map[string]json.RawMessage{}
	servers := map[string]json.RawMessage{}

	existing, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return fmt.Errorf("read %s: %w", path, err)
	case len(bytes.TrimSpace(existing)) > 0:
		if err := json.Unmarshal(existing, &doc); err != nil {
			return fmt.Errorf("parse %s: %w", path, err)
		}
		if raw, ok := doc["mcpServers"]; ok {
			if err := json.Unmarshal(raw, &servers); err != nil {
				return fmt.Errorf("parse mcpServers in %s: %w", path, err)
			}
		}
	}

	names := make([]string, 0, len(cfg.MCPServers))
	for name := range cfg.MCPServers {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		raw, err := json.Marshal(cfg.MCPServers[name])
		if err != nil {
			return fmt.Errorf("encode server %s: %w", name, err)
		}
		servers[name] = raw
	}

	rawServers, err := json.Marshal(servers)
	if err != nil {
		return fmt.Errorf("encode mcpServers: %w", err)
	}
	doc["mcpServers"] = rawServers

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, append(out, '\n'), 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
