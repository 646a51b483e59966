// Package registry holds the set of known model files: configured slots,
// models discovered by scanning a directory, and models added by hand.
package registry

import (
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"localqa/internal/common/fsutil"
	"localqa/pkg/types"
)

// Registry is an insertion-ordered, duplicate-free set of model descriptors
// keyed by normalized file path. It never shrinks and is safe for
// concurrent use.
type Registry struct {
	mu     sync.RWMutex
	models []types.ModelDescriptor
	index  map[string]int
	log    zerolog.Logger
}

// Option configures a Registry.
type Option func(*Registry)

// WithLogger installs a structured logger.
func WithLogger(l zerolog.Logger) Option { return func(r *Registry) { r.log = l } }

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{index: make(map[string]int), log: zerolog.Nop()}
	for _, o := range opts {
		o(r)
	}
	return r
}

// normalize builds the registry key for path. Comparison is
// case-insensitive.
func normalize(path string) string {
	p := strings.TrimSpace(path)
	if p == "" {
		return ""
	}
	return strings.ToLower(filepath.Clean(p))
}

// Add inserts d unless a descriptor with the same normalized path exists.
// It reports whether d was inserted.
func (r *Registry) Add(d types.ModelDescriptor) bool {
	key := normalize(d.FilePath)
	if key == "" {
		return false
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.index[key]; ok {
		return false
	}
	r.index[key] = len(r.models)
	r.models = append(r.models, d)
	return true
}

// Lookup returns the descriptor stored for path.
func (r *Registry) Lookup(path string) (types.ModelDescriptor, bool) {
	key := normalize(path)
	r.mu.RLock()
	defer r.mu.RUnlock()
	i, ok := r.index[key]
	if !ok {
		return types.ModelDescriptor{}, false
	}
	return r.models[i], true
}

// Contains reports whether path is already registered.
func (r *Registry) Contains(path string) bool {
	_, ok := r.Lookup(path)
	return ok
}

// List returns a copy of all descriptors in insertion order.
func (r *Registry) List() []types.ModelDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]types.ModelDescriptor, len(r.models))
	copy(out, r.models)
	return out
}

// Len returns the number of registered models.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.models)
}

// First returns the first registered model, if any.
func (r *Registry) First() (types.ModelDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.models) == 0 {
		return types.ModelDescriptor{}, false
	}
	return r.models[0], true
}

// AddManual registers a user-picked path. When the path is already known the
// existing descriptor is returned with existed=true and nothing is inserted.
func (r *Registry) AddManual(path string) (d types.ModelDescriptor, existed bool) {
	if cur, ok := r.Lookup(path); ok {
		return cur, true
	}
	d = types.ModelDescriptor{
		Name:        fsutil.StemName(path),
		FilePath:    strings.TrimSpace(path),
		IsUserAdded: true,
	}
	if !r.Add(d) {
		// Lost a race with a concurrent insert of the same path.
		cur, _ := r.Lookup(path)
		return cur, true
	}
	r.log.Info().Str("path", d.FilePath).Str("model", d.Name).Msg("registry event=model_added")
	return d, false
}
