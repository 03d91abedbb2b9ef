package providers

import "github.com/ksfoundation/oneshot/internal/schema"

// DefaultProvider handles model ids no keyword matches.
const DefaultProvider = "openai"

// Router maps model identifiers to providers. It holds no state.
type Router struct{}

// NewRouter returns a Router.
func NewRouter() Router { return Router{} }

// Resolve returns the provider spec for modelID. Unmatched ids fall back to
// the hosted OpenAI provider.
func (Router) Resolve(modelID string) ProviderSpec {
	if spec := FindByModel(modelID); spec != nil {
		return *spec
	}
	return *FindByName(DefaultProvider)
}

// ResolveBackend classifies modelID as hosted tool-capable or local keyless.
func (r Router) ResolveBackend(modelID string) schema.BackendKind {
	return r.Resolve(modelID).Kind
}
