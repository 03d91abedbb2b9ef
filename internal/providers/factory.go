package providers

import (
	"fmt"
	"net/http"
	"os"
	"sync"

	providercfg "github.com/ksfoundation/oneshot/internal/config/provider"
	"github.com/ksfoundation/oneshot/internal/schema"
)

// Factory builds backends on demand and caches one per provider.
type Factory struct {
	router     Router
	cfg        providercfg.ProvidersConfig
	httpClient *http.Client

	mu       sync.Mutex
	backends map[string]schema.Backend
}

// NewFactory returns a Factory reading credentials from cfg, falling back to
// each provider's environment variable.
func NewFactory(cfg providercfg.ProvidersConfig, router Router) *Factory {
	return &Factory{
		router:   router,
		cfg:      cfg,
		backends: make(map[string]schema.Backend),
	}
}

// Resolve returns the provider spec handling modelID.
func (f *Factory) Resolve(modelID string) ProviderSpec {
	return f.router.Resolve(modelID)
}

// Backend returns the backend serving modelID.
func (f *Factory) Backend(modelID string) (schema.Backend, error) {
	spec := f.router.Resolve(modelID)

	f.mu.Lock()
	defer f.mu.Unlock()
	if b, ok := f.backends[spec.Name]; ok {
		return b, nil
	}
	b, err := f.build(spec)
	if err != nil {
		return nil, err
	}
	f.backends[spec.Name] = b
	return b, nil
}

// Params returns the effective credentials for spec after env fallback.
func (f *Factory) Params(spec ProviderSpec) providercfg.ProviderConfig {
	var pc providercfg.ProviderConfig
	if c := f.cfg.ByName(spec.Name); c != nil {
		pc = *c
	}
	if spec.Keyless {
		if pc.APIBase == "" && spec.EnvKey != "" {
			pc.APIBase = os.Getenv(spec.EnvKey)
		}
	} else if pc.APIKey == "" && spec.EnvKey != "" {
		pc.APIKey = os.Getenv(spec.EnvKey)
	}
	if pc.APIBase == "" {
		pc.APIBase = spec.DefaultAPIBase
	}
	return pc
}

func (f *Factory) build(spec ProviderSpec) (schema.Backend, error) {
	pc := f.Params(spec)
	if !spec.Keyless && pc.APIKey == "" {
		return nil, &schema.BackendError{
			Provider: spec.Name,
			Kind:     schema.ErrBackendUnavailable,
			Err:      fmt.Errorf("no API key configured (set providers.%s.apiKey or %s)", spec.Name, spec.EnvKey),
		}
	}

	switch spec.Family {
	case FamilyAnthropic:
		return NewAnthropicBackend(AnthropicParams{
			APIKey:       pc.APIKey,
			APIBase:      pc.APIBase,
			ExtraHeaders: pc.ExtraHeaders,
		}), nil
	case FamilyOllama:
		b, err := NewOllamaBackend(pc.APIBase, pc.Model, f.httpClient)
		if err != nil {
			return nil, &schema.BackendError{Provider: spec.Name, Kind: schema.ErrBackendUnavailable, Err: err}
		}
		return b, nil
	default:
		return NewOpenAIBackend(OpenAIParams{
			Name:         spec.Name,
			APIKey:       pc.APIKey,
			APIBase:      pc.APIBase,
			ExtraHeaders: pc.ExtraHeaders,
		}), nil
	}
}
