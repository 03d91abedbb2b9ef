package tool

// ToolsConfig groups all tool-level settings.
type ToolsConfig struct {
	MCPServers map[string]MCPServerConfig `json:"mcpServers" yaml:"mcpServers"`
	Workflow   WorkflowConfig             `json:"workflow" yaml:"workflow"`
	Hosting    HostingConfig              `json:"hosting" yaml:"hosting"`
	Cluster    ClusterConfig              `json:"cluster" yaml:"cluster"`
	Cloud      CloudConfig                `json:"cloud" yaml:"cloud"`
}

func DefaultToolConfigs() ToolsConfig {
	return ToolsConfig{
		MCPServers: map[string]MCPServerConfig{},
		Workflow:   DefaultWorkflowConfig(),
		Hosting:    DefaultHostingConfig(),
		Cluster:    DefaultClusterConfig(),
		Cloud:      DefaultCloudConfig(),
	}
}
