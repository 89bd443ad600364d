// Package api provides the HTTP server that exposes fiekchat's MCP bridge.
package api

// DefaultMCPPath is where the streamable MCP handler is mounted.
const DefaultMCPPath = "/mcp"

// Config is the API server configuration.
type Config struct {
	// ListenAddr is the address to listen on, e.g. "127.0.0.1:8081".
	ListenAddr string

	// MCPPath overrides DefaultMCPPath.
	MCPPath string
}

func (c Config) mcpPath() string {
	if c.MCPPath == "" {
		return DefaultMCPPath
	}
	return c.MCPPath
}
