package realm

import (
	"sort"
	"sync"

	dErrors "realmgate/pkg/domain-errors"
)

// DefaultName is the realm every flow falls back to when none is requested.
// It can never be deleted.
const DefaultName = "default"

// Registry is the in-memory realm map. It is populated once at startup and
// mutated only by low-frequency administrative calls; reads are safe under
// concurrent request load. Realm changes do not survive a restart unless the
// backing configuration is updated too.
type Registry struct {
	mu     sync.RWMutex
	realms map[string]Realm
}

// NewRegistry builds a registry seeded with the given realms.
func NewRegistry(seed ...Realm) *Registry {
	r := &Registry{realms: make(map[string]Realm, len(seed))}
	for _, realm := range seed {
		r.realms[realm.Name] = realm
	}
	return r
}

// Get returns the realm with the given name.
func (r *Registry) Get(name string) (Realm, error) {
	if name == "" {
		name = DefaultName
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	realm, ok := r.realms[name]
	if !ok {
		return Realm{}, dErrors.Newf(dErrors.CodeNotFound, "realm %q not found", name)
	}
	return realm, nil
}

// Add registers a realm, overwriting any existing entry with the same name.
func (r *Registry) Add(name string, realm Realm) error {
	if name == "" {
		return dErrors.New(dErrors.CodeValidation, "realm name is required")
	}
	realm.Name = name
	r.mu.Lock()
	defer r.mu.Unlock()
	r.realms[name] = realm
	return nil
}

// Update applies a partial patch to an existing realm.
func (r *Registry) Update(name string, patch Patch) (Realm, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.realms[name]
	if !ok {
		return Realm{}, dErrors.Newf(dErrors.CodeNotFound, "realm %q not found", name)
	}
	updated := patch.apply(existing)
	r.realms[name] = updated
	return updated, nil
}

// Delete removes a realm. The default realm is protected.
func (r *Registry) Delete(name string) error {
	if name == DefaultName {
		return dErrors.New(dErrors.CodeForbidden, "cannot delete default realm")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.realms[name]; !ok {
		return dErrors.Newf(dErrors.CodeNotFound, "realm %q not found", name)
	}
	delete(r.realms, name)
	return nil
}

// List returns all realms sorted by name.
func (r *Registry) List() []Realm {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Realm, 0, len(r.realms))
	for _, realm := range r.realms {
		out = append(out, realm)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
