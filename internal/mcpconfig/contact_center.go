package mcpconfig

import "strings"

// DefaultContactCenterName is the config key for the Contact Center server.
const DefaultContactCenterName = "webex-contact-center"

// FallbackOrigin is used when no page origin is known.
const FallbackOrigin = "http://localhost:8080"

// ContactCenterURL returns the MCP endpoint served from origin.
func ContactCenterURL(origin string) string {
	origin = strings.TrimRight(strings.TrimSpace(origin), "/")
	if origin == "" {
		origin = FallbackOrigin
	}
	return origin + "/mcp"
}

// BuildContactCenter builds the URL-only config for the Contact Center
// server. A blank url defaults to the /mcp endpoint of origin.
func BuildContactCenter(name, url, origin string) Config {
	url = strings.TrimSpace(url)
	if url == "" {
		url = ContactCenterURL(origin)
	}
	return Config{
		MCPServers: map[string]ServerEntry{
			ResolveName(name, DefaultContactCenterName): HTTPEntry{URL: url},
		},
	}
}
