package orchestrator

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"localqa/internal/engine"
	"localqa/internal/inference"
	"localqa/internal/loader"
	"localqa/internal/registry"
	"localqa/pkg/types"
)

// createModelFile writes a file of size bytes and returns its path.
func createModelFile(t *testing.T, dir, name string, size int) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, make([]byte, size), 0o644); err != nil {
		t.Fatalf("write model: %v", err)
	}
	return p
}

// fakeWeights counts Free calls.
type fakeWeights struct {
	mu    sync.Mutex
	frees int
}

func (w *fakeWeights) NewContext(engine.Profile) (engine.Context, error) {
	return nil, errors.New("fakeWeights: no contexts")
}

func (w *fakeWeights) Free() {
	w.mu.Lock()
	w.frees++
	w.mu.Unlock()
}

func (w *fakeWeights) Frees() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.frees
}

// fakeLoader hands out LoadedModels over fakeWeights. When release is set,
// Load blocks until it is closed; started receives the path once Load runs.
type fakeLoader struct {
	mu       sync.Mutex
	err      error
	started  chan string
	release  chan struct{}
	loads    []string
	weights  []*fakeWeights
	panicMsg string
}

func (l *fakeLoader) Load(path string) (*loader.LoadedModel, error) {
	l.mu.Lock()
	l.loads = append(l.loads, path)
	l.mu.Unlock()
	if l.started != nil {
		l.started <- path
	}
	if l.release != nil {
		<-l.release
	}
	if l.panicMsg != "" {
		panic(l.panicMsg)
	}
	if l.err != nil {
		return nil, l.err
	}
	w := &fakeWeights{}
	l.mu.Lock()
	l.weights = append(l.weights, w)
	l.mu.Unlock()
	return loader.NewLoadedModel(path, w, engine.Profile{ContextSize: 2048}), nil
}

func (l *fakeLoader) Loads() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.loads...)
}

func (l *fakeLoader) Weights() []*fakeWeights {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]*fakeWeights(nil), l.weights...)
}

// fakeResponder returns resp, or blocks until the ask context is cancelled
// when block is set.
type fakeResponder struct {
	mu       sync.Mutex
	resp     inference.Response
	block    bool
	started  chan struct{}
	panicMsg string
	calls    int
	prompts  []string
	released []bool
}

func (r *fakeResponder) GetResponse(ctx context.Context, m *loader.LoadedModel, prompt string) inference.Response {
	r.mu.Lock()
	r.calls++
	r.prompts = append(r.prompts, prompt)
	r.released = append(r.released, m.Released())
	r.mu.Unlock()
	if r.started != nil {
		r.started <- struct{}{}
	}
	if r.panicMsg != "" {
		panic(r.panicMsg)
	}
	if r.block {
		<-ctx.Done()
		return inference.Response{Outcome: inference.OutcomeCancelled, Text: "Request cancelled.", Err: ctx.Err()}
	}
	return r.resp
}

func (r *fakeResponder) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls
}

type staticPicker struct {
	path string
	ok   bool
	err  error
}

func (p staticPicker) PickModelFile(context.Context) (string, bool, error) { return p.path, p.ok, p.err }

type memClipboard struct {
	text string
	err  error
}

func (c *memClipboard) WriteText(s string) error {
	c.text = s
	return c.err
}

func completed(text string) inference.Response {
	return inference.Response{Outcome: inference.OutcomeCompleted, Text: text, Tokens: 3, FinishReason: inference.FinishEOS}
}

// newTestOrchestrator registers models a and b, selects a and returns the
// orchestrator with a memory publisher attached.
func newTestOrchestrator(t *testing.T, l Loader, r Responder) (*Orchestrator, *MemoryPublisher) {
	t.Helper()
	reg := registry.New()
	reg.Add(types.ModelDescriptor{Name: "a", FilePath: "/models/a.gguf"})
	reg.Add(types.ModelDescriptor{Name: "b", FilePath: "/models/b.gguf"})
	pub := NewMemoryPublisher()
	o := New(Config{Registry: reg, Loader: l, Responder: r, ModelsDir: t.TempDir(), Publisher: pub})
	if err := o.Select("/models/a.gguf"); err != nil {
		t.Fatalf("select: %v", err)
	}
	t.Cleanup(func() { _ = o.Close() })
	return o, pub
}

// waitFor fails the test if ch does not deliver within a second.
func waitFor[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting")
	}
	var zero T
	return zero
}
