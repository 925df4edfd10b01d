package provider

import "github.com/WreckHeavenProd/ClashOfMyths--Auth-BackEnd/internal/user"

// Registry holds the configured providers. Providers without a client id
// are never constructed, so lookups for them fail with ErrProviderNotConfigured.
type Registry struct {
	providers map[user.Provider]Verifier
}

// NewRegistry registers the given providers by name. nil entries are skipped.
func NewRegistry(list ...Verifier) *Registry {
	m := make(map[user.Provider]Verifier)
	for _, p := range list {
		if p == nil {
			continue
		}
		m[p.Name()] = p
	}
	return &Registry{providers: m}
}

func (r *Registry) Get(name string) (Verifier, error) {
	p, ok := r.providers[user.Provider(name)]
	if !ok {
		return nil, ErrProviderNotConfigured
	}
	return p, nil
}

// CodeFlow returns the provider if it supports the authorization-code flow.
func (r *Registry) CodeFlow(name string) (CodeFlow, error) {
	p, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	cf, ok := p.(CodeFlow)
	if !ok || !cf.SupportsCodeFlow() {
		return nil, ErrProviderNotConfigured
	}
	return cf, nil
}

// Names lists the registered providers.
func (r *Registry) Names() []user.Provider {
	names := make([]user.Provider, 0, len(r.providers))
	for name := range r.providers {
		names = append(names, name)
	}
	return names
}
