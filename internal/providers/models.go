package providers

// ModelInfo describes one selectable model.
type ModelInfo struct {
	ID          string `json:"id"`
	Provider    string `json:"provider"`
	Description string `json:"description"`
	MaxTokens   int    `json:"max_tokens"`
}

var models = []ModelInfo{
	{ID: "gpt-4-turbo-preview", Provider: "OpenAI", Description: "Most capable GPT model", MaxTokens: 128000},
	{ID: "claude-3-opus", Provider: "Anthropic", Description: "Highest intelligence Claude model", MaxTokens: 200000},
	{ID: "gemini-1.5-pro", Provider: "Google", Description: "Google's massive context model", MaxTokens: 1000000},
	{ID: "llama-3-70b", Provider: "Groq/Meta", Description: "Fastest open source model", MaxTokens: 8192},
	{ID: "mistral-large", Provider: "Mistral", Description: "Top tier European model", MaxTokens: 32000},
	{ID: "local-llm", Provider: "Ollama/Local", Description: "Infinite Keyless Generation", MaxTokens: 128000},
}

// Models returns the advertised model list.
func Models() []ModelInfo {
	return append([]ModelInfo(nil), models...)
}
