package agent

// AgentConfig holds execution loop settings.
type AgentConfig struct {
	Workspace           string  `json:"workspace" yaml:"workspace"`
	Model               string  `json:"model" yaml:"model"`
	MaxTokens           int     `json:"maxTokens" yaml:"maxTokens"`
	Temperature         float64 `json:"temperature" yaml:"temperature"`
	SystemPrompt        string  `json:"systemPrompt,omitempty" yaml:"systemPrompt,omitempty"`
	BackendTimeout      int     `json:"backendTimeout" yaml:"backendTimeout"` // seconds
	DispatchConcurrency int     `json:"dispatchConcurrency" yaml:"dispatchConcurrency"`
}

func DefaultAgentConfig() AgentConfig {
	return AgentConfig{
		Workspace:           "~/.oneshot/workspace",
		Model:               "gpt-4-turbo-preview",
		MaxTokens:           4096,
		Temperature:         0.7,
		BackendTimeout:      60,
		DispatchConcurrency: 4,
	}
}
