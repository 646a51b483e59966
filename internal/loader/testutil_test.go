package loader

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"localqa/internal/engine"
)

// createModelFile writes a model-like file of size bytes and returns its path.
func createModelFile(t *testing.T, dir, name string, size int) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, make([]byte, size), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

// fakeBackend records LoadWeights calls.
type fakeBackend struct {
	mu       sync.Mutex
	calls    int
	paths    []string
	profiles []engine.Profile
	err      error
	panicMsg string
}

func (b *fakeBackend) LoadWeights(path string, p engine.Profile) (engine.Weights, error) {
	b.mu.Lock()
	b.calls++
	b.paths = append(b.paths, path)
	b.profiles = append(b.profiles, p)
	b.mu.Unlock()
	if b.panicMsg != "" {
		panic(b.panicMsg)
	}
	if b.err != nil {
		return nil, b.err
	}
	return &fakeWeights{}, nil
}

func (b *fakeBackend) Calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls
}

type fakeWeights struct {
	mu    sync.Mutex
	frees int
}

func (w *fakeWeights) NewContext(p engine.Profile) (engine.Context, error) {
	return nil, errors.New("not used")
}

func (w *fakeWeights) Free() {
	w.mu.Lock()
	w.frees++
	w.mu.Unlock()
}

