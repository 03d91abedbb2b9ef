package provider

const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderGemini    = "gemini"
	ProviderGroq      = "groq"
	ProviderMistral   = "mistral"
	ProviderOllama    = "ollama"
)

// ProviderConfig holds credentials for one model provider.
type ProviderConfig struct {
	APIKey       string            `json:"apiKey" yaml:"apiKey"`
	APIBase      string            `json:"apiBase,omitempty" yaml:"apiBase,omitempty"`
	ExtraHeaders map[string]string `json:"extraHeaders,omitempty" yaml:"extraHeaders,omitempty"`
	// Model overrides the model name sent upstream (used by the local backend).
	Model string `json:"model,omitempty" yaml:"model,omitempty"`
}

// ProvidersConfig holds credentials for all supported providers.
type ProvidersConfig struct {
	OpenAI    ProviderConfig `json:"openai" yaml:"openai"`
	Anthropic ProviderConfig `json:"anthropic" yaml:"anthropic"`
	Gemini    ProviderConfig `json:"gemini" yaml:"gemini"`
	Groq      ProviderConfig `json:"groq" yaml:"groq"`
	Mistral   ProviderConfig `json:"mistral" yaml:"mistral"`
	Ollama    ProviderConfig `json:"ollama" yaml:"ollama"`
}

func DefaultProvidersConfig() ProvidersConfig {
	return ProvidersConfig{
		Ollama: ProviderConfig{APIBase: "http://localhost:11434", Model: "llama3"},
	}
}

// ByName returns a pointer to the ProviderConfig field matching the given
// registry name. Returns nil if the name is unknown.
func (p *ProvidersConfig) ByName(name string) *ProviderConfig {
	switch name {
	case ProviderOpenAI:
		return &p.OpenAI
	case ProviderAnthropic:
		return &p.Anthropic
	case ProviderGemini:
		return &p.Gemini
	case ProviderGroq:
		return &p.Groq
	case ProviderMistral:
		return &p.Mistral
	case ProviderOllama:
		return &p.Ollama
	}
	return nil
}
