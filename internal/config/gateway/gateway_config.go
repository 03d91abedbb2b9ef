package gateway

// GatewayConfig holds HTTP server settings.
type GatewayConfig struct {
	Host         string `json:"host" yaml:"host"`
	Port         int    `json:"port" yaml:"port"`
	DefaultModel string `json:"defaultModel" yaml:"defaultModel"`
	// RequestTimeout bounds one /agent/chat request, in seconds.
	RequestTimeout int      `json:"requestTimeout" yaml:"requestTimeout"`
	CORSOrigins    []string `json:"corsOrigins,omitempty" yaml:"corsOrigins,omitempty"`
}

func DefaultGatewayConfig() GatewayConfig {
	return GatewayConfig{
		Host:           "0.0.0.0",
		Port:           8000,
		DefaultModel:   "gpt-4-turbo-preview",
		RequestTimeout: 300,
		CORSOrigins:    []string{"http://localhost:5173", "http://localhost:3000"},
	}
}
