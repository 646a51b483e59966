package loader

import (
	"sync"
	"time"

	"localqa/internal/engine"
)

// LoadedModel is a resident model plus the path it was loaded from. It is
// owned by one ask-sequence and must be released when that sequence ends.
type LoadedModel struct {
	path     string
	weights  engine.Weights
	profile  engine.Profile
	loadedAt time.Time

	mu       sync.Mutex
	released bool
}

// NewLoadedModel wraps already-loaded weights. It is used by callers that
// obtain weights outside a Loader.
func NewLoadedModel(path string, w engine.Weights, p engine.Profile) *LoadedModel {
	return &LoadedModel{path: path, weights: w, profile: p, loadedAt: time.Now()}
}

// Path returns the file the model was loaded from.
func (m *LoadedModel) Path() string { return m.path }

// Profile returns the execution profile the weights were loaded with.
func (m *LoadedModel) Profile() engine.Profile { return m.profile }

// LoadedAt returns when loading finished.
func (m *LoadedModel) LoadedAt() time.Time { return m.loadedAt }

// Weights returns the engine weights, or nil once released.
func (m *LoadedModel) Weights() engine.Weights {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.released {
		return nil
	}
	return m.weights
}

// Released reports whether Release has been called.
func (m *LoadedModel) Released() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.released
}

// Release frees the weights. Safe to call more than once.
func (m *LoadedModel) Release() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.released {
		return
	}
	m.released = true
	if m.weights != nil {
		m.weights.Free()
	}
}
