package tool

// MCPServerConfig describes one MCP server connection (stdio or streamable HTTP).
type MCPServerConfig struct {
	Command string            `json:"command,omitempty" yaml:"command,omitempty"`
	Args    []string          `json:"args,omitempty" yaml:"args,omitempty"`
	Env     map[string]string `json:"env,omitempty" yaml:"env,omitempty"`
	Cwd     string            `json:"cwd,omitempty" yaml:"cwd,omitempty"`
	URL     string            `json:"url,omitempty" yaml:"url,omitempty"`
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	// Disabled servers are kept in the file but never launched.
	Disabled bool `json:"disabled,omitempty" yaml:"disabled,omitempty"`
}
