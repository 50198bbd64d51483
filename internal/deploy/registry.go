package deploy

import (
	"sort"
	"sync"

	"cqlmap/internal/domain"
	"cqlmap/internal/model"
)

// Published is the schema currently serving a keyspace. Model is never
// modified after publication.
type Published struct {
	Deployment domain.Deployment
	Model      *model.SchemaModel
}

// Registry maps keyspaces to their published schema.
type Registry struct {
	mu      sync.RWMutex
	current map[string]*Published
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{current: make(map[string]*Published)}
}

// Current returns the published schema of keyspace.
func (r *Registry) Current(keyspace string) (*Published, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.current[keyspace]
	if !ok {
		return nil, domain.ErrNotFound("no schema published for keyspace %q", keyspace)
	}
	return p, nil
}

// Keyspaces returns the keyspaces with a published schema, sorted.
func (r *Registry) Keyspaces() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, 0, len(r.current))
	for ks := range r.current {
		out = append(out, ks)
	}
	sort.Strings(out)
	return out
}

// publish installs p unless a newer version is already published. It
// reports whether p was installed.
func (r *Registry) publish(p *Published) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	ks := p.Deployment.Keyspace
	if cur, ok := r.current[ks]; ok && cur.Deployment.Version >= p.Deployment.Version {
		return false
	}
	r.current[ks] = p
	return true
}
