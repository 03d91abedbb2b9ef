package providers

import (
	"strings"

	"github.com/ksfoundation/oneshot/internal/schema"
)

// Family selects the client library used to talk to a provider.
type Family int

const (
	// FamilyOpenAI covers OpenAI and every OpenAI-compatible endpoint.
	FamilyOpenAI Family = iota
	FamilyAnthropic
	FamilyOllama
)

// ProviderSpec is the metadata record for one model provider.
type ProviderSpec struct {
	Name        string   // config field name, e.g. "anthropic"
	Keywords    []string // model-id substrings for matching (lowercase)
	EnvKey      string   // env var consulted when the config has no key
	DisplayName string   // shown in `oneshot status`

	Family         Family
	Kind           schema.BackendKind
	DefaultAPIBase string // fallback base URL when none is configured
	Keyless        bool   // no API key required
}

// Label returns the display name, defaulting to Title-cased Name.
func (s ProviderSpec) Label() string {
	if s.DisplayName != "" {
		return s.DisplayName
	}
	return strings.ToTitle(s.Name[:1]) + s.Name[1:]
}

// PROVIDERS is the registry. Order = match priority.
var PROVIDERS = []ProviderSpec{
	{
		Name:        "openai",
		Keywords:    []string{"gpt", "o1", "o3"},
		EnvKey:      "OPENAI_API_KEY",
		DisplayName: "OpenAI",
		Family:      FamilyOpenAI,
		Kind:        schema.HostedToolCapable,
	},
	{
		Name:        "anthropic",
		Keywords:    []string{"claude"},
		EnvKey:      "ANTHROPIC_API_KEY",
		DisplayName: "Anthropic",
		Family:      FamilyAnthropic,
		Kind:        schema.HostedToolCapable,
	},
	{
		Name:           "gemini",
		Keywords:       []string{"gemini"},
		EnvKey:         "GEMINI_API_KEY",
		DisplayName:    "Google",
		Family:         FamilyOpenAI,
		Kind:           schema.HostedToolCapable,
		DefaultAPIBase: "https://generativelanguage.googleapis.com/v1beta/openai/",
	},
	{
		Name:           "ollama",
		Keywords:       []string{"local", "ollama"},
		EnvKey:         "OLLAMA_HOST",
		DisplayName:    "Ollama/Local",
		Family:         FamilyOllama,
		Kind:           schema.LocalKeyless,
		DefaultAPIBase: "http://localhost:11434",
		Keyless:        true,
	},
	{
		Name:           "mistral",
		Keywords:       []string{"mistral"},
		EnvKey:         "MISTRAL_API_KEY",
		DisplayName:    "Mistral",
		Family:         FamilyOpenAI,
		Kind:           schema.HostedToolCapable,
		DefaultAPIBase: "https://api.mistral.ai/v1",
	},
	{
		Name:           "groq",
		Keywords:       []string{"groq", "llama-3"},
		EnvKey:         "GROQ_API_KEY",
		DisplayName:    "Groq",
		Family:         FamilyOpenAI,
		Kind:           schema.HostedToolCapable,
		DefaultAPIBase: "https://api.groq.com/openai/v1",
	},
}

// FindByModel matches a provider by model-id keyword (case-insensitive).
// Returns nil when nothing matches.
func FindByModel(model string) *ProviderSpec {
	modelLower := strings.ToLower(model)
	for i := range PROVIDERS {
		spec := &PROVIDERS[i]
		for _, kw := range spec.Keywords {
			if strings.Contains(modelLower, kw) {
				return spec
			}
		}
	}
	return nil
}

// FindByName returns the ProviderSpec whose Name equals name.
func FindByName(name string) *ProviderSpec {
	for i := range PROVIDERS {
		if PROVIDERS[i].Name == name {
			return &PROVIDERS[i]
		}
	}
	return nil
}
