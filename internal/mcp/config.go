package mcp

import (
	toolcfg "github.com/ksfoundation/oneshot/internal/config/tool"
)

// LaunchSpec holds the connection parameters for a single MCP server.
// Command-based specs run over stdio; URL-based specs use streamable HTTP.
type LaunchSpec struct {
	Command string
	Args    []string
	Env     map[string]string
	Cwd     string
	URL     string
	Headers map[string]string
}

// LaunchSpecFromConfig converts a config-layer MCPServerConfig to a LaunchSpec.
func LaunchSpecFromConfig(c toolcfg.MCPServerConfig) LaunchSpec {
	return LaunchSpec{
		Command: c.Command,
		Args:    c.Args,
		Env:     c.Env,
		Cwd:     c.Cwd,
		URL:     c.URL,
		Headers: c.Headers,
	}
}

// LaunchSpecsFromConfig converts every enabled server in servers.
func LaunchSpecsFromConfig(servers map[string]toolcfg.MCPServerConfig) map[string]LaunchSpec {
	out := make(map[string]LaunchSpec, len(servers))
	for name, srv := range servers {
		if srv.Disabled {
			continue
		}
		out[name] = LaunchSpecFromConfig(srv)
	}
	return out
}
