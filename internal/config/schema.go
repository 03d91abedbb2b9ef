// Package config defines the configuration schema for oneshot.
//
// JSON keys use camelCase; the same keys are accepted from YAML files.
package config

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ksfoundation/oneshot/internal/config/agent"
	"github.com/ksfoundation/oneshot/internal/config/channel"
	"github.com/ksfoundation/oneshot/internal/config/gateway"
	"github.com/ksfoundation/oneshot/internal/config/provider"
	"github.com/ksfoundation/oneshot/internal/config/tool"
)

// ScheduleConfig describes one recurring prompt.
// Exactly one of Cron and EverySeconds should be set.
type ScheduleConfig struct {
	Name         string `json:"name" yaml:"name"`
	Cron         string `json:"cron,omitempty" yaml:"cron,omitempty"`
	TZ           string `json:"tz,omitempty" yaml:"tz,omitempty"`
	EverySeconds int    `json:"everySeconds,omitempty" yaml:"everySeconds,omitempty"`
	Message      string `json:"message" yaml:"message"`
	Model        string `json:"model,omitempty" yaml:"model,omitempty"`
	Disabled     bool   `json:"disabled,omitempty" yaml:"disabled,omitempty"`
}

// JournalConfig configures the invocation journal.
type JournalConfig struct {
	Path     string `json:"path" yaml:"path"`
	Disabled bool   `json:"disabled,omitempty" yaml:"disabled,omitempty"`
}

func defaultJournalConfig() JournalConfig {
	return JournalConfig{Path: "~/.oneshot/journal.db"}
}

// HeartbeatConfig configures the provider liveness check.
type HeartbeatConfig struct {
	IntervalSeconds int `json:"intervalSeconds" yaml:"intervalSeconds"`
}

// Config is the root configuration object, loaded from ~/.oneshot/config.json.
type Config struct {
	Agent     agent.AgentConfig        `json:"agent" yaml:"agent"`
	Providers provider.ProvidersConfig `json:"providers" yaml:"providers"`
	Gateway   gateway.GatewayConfig    `json:"gateway" yaml:"gateway"`
	Tools     tool.ToolsConfig         `json:"tools" yaml:"tools"`
	Channels  channel.ChannelsConfig   `json:"channels" yaml:"channels"`
	Schedules []ScheduleConfig         `json:"schedules" yaml:"schedules"`
	Journal   JournalConfig            `json:"journal" yaml:"journal"`
	Heartbeat HeartbeatConfig          `json:"heartbeat" yaml:"heartbeat"`
}

// DefaultConfig returns a Config populated with all default values.
func DefaultConfig() Config {
	return Config{
		Agent:     agent.DefaultAgentConfig(),
		Providers: provider.DefaultProvidersConfig(),
		Gateway:   gateway.DefaultGatewayConfig(),
		Tools:     tool.DefaultToolConfigs(),
		Channels:  channel.DefaultChannelsConfig(),
		Schedules: []ScheduleConfig{},
		Journal:   defaultJournalConfig(),
		Heartbeat: HeartbeatConfig{IntervalSeconds: 60},
	}
}

// WorkspacePath returns the expanded absolute path to the workspace.
func (c *Config) WorkspacePath() string {
	ws := c.Agent.Workspace
	if ws == "" {
		ws = "~/.oneshot/workspace"
	}
	return ExpandHome(ws)
}

// ProviderByName returns the provider credentials for a registry name.
func (c *Config) ProviderByName(name string) *provider.ProviderConfig {
	return c.Providers.ByName(name)
}

// MCPServerNames returns the enabled MCP server names in registration order
// (sorted, so restarts register providers identically).
func (c *Config) MCPServerNames() []string {
	names := make([]string, 0, len(c.Tools.MCPServers))
	for name, srv := range c.Tools.MCPServers {
		if srv.Disabled {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(p string) string {
	if !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, p[2:])
}
