package upstream

import "fmt"

// Router dispatches to one of several named ChatClient backends (an
// OpenAIClient or an AgentChatClient per provider), falling back to a
// configured default when the caller doesn't name one.
type Router struct {
	backends map[string]ChatClient
	fallback string
}

// NewRouter builds a Router whose default backend is fallback (which need
// not be registered yet at construction time).
func NewRouter(fallback string) *Router {
	return &Router{backends: map[string]ChatClient{}, fallback: fallback}
}

// Register adds (or replaces) the backend for engine.
func (r *Router) Register(engine string, client ChatClient) {
	r.backends[engine] = client
}

// Has reports whether engine has a registered backend.
func (r *Router) Has(engine string) bool {
	_, ok := r.backends[engine]
	return ok
}

// Engines lists every registered backend name.
func (r *Router) Engines() []string {
	names := make([]string, 0, len(r.backends))
	for name := range r.backends {
		names = append(names, name)
	}
	return names
}

// Route resolves engine to a ChatClient, falling back to the router's
// default when engine is empty.
func (r *Router) Route(engine string) (ChatClient, error) {
	if engine == "" {
		engine = r.fallback
	}
	client, ok := r.backends[engine]
	if !ok {
		return nil, fmt.Errorf("upstream: no backend registered for engine %q", engine)
	}
	return client, nil
}
