package tool

// WorkflowConfig configures the generated-code executor.
type WorkflowConfig struct {
	Dir         string `json:"dir" yaml:"dir"`
	Interpreter string `json:"interpreter" yaml:"interpreter"`
	Timeout     int    `json:"timeout" yaml:"timeout"` // seconds
	MaxOutput   int    `json:"maxOutput" yaml:"maxOutput"`
}

func DefaultWorkflowConfig() WorkflowConfig {
	return WorkflowConfig{
		Dir:         "~/.oneshot/workflows",
		Interpreter: "python3",
		Timeout:     30,
		MaxOutput:   10000,
	}
}
