package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"localqa/internal/engine"
	"localqa/internal/httpapi"
	"localqa/internal/inference"
	"localqa/internal/loader"
	"localqa/internal/orchestrator"
	"localqa/internal/registry"
	"localqa/pkg/types"
)

// createTempModelsDir creates a temporary directory populated with model
// files large enough to pass validation and returns it.
func createTempModelsDir(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		p := filepath.Join(dir, n)
		if err := os.WriteFile(p, make([]byte, 2048), 0o644); err != nil {
			t.Fatalf("write temp model %s: %v", p, err)
		}
	}
	return dir
}

// gatedBackend blocks LoadWeights until gate is closed (when set) and streams
// frags, blocking forever after them when endless is set.
type gatedBackend struct {
	mu      sync.Mutex
	gate    chan struct{}
	entered chan string
	frags   []string
	endless bool
	frees   int
}

func (b *gatedBackend) LoadWeights(path string, _ engine.Profile) (engine.Weights, error) {
	if b.entered != nil {
		b.entered <- path
	}
	if b.gate != nil {
		<-b.gate
	}
	return &gatedWeights{b: b}, nil
}

func (b *gatedBackend) Frees() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frees
}

type gatedWeights struct{ b *gatedBackend }

func (w *gatedWeights) NewContext(engine.Profile) (engine.Context, error) {
	return &gatedContext{b: w.b}, nil
}

func (w *gatedWeights) Free() {
	w.b.mu.Lock()
	w.b.frees++
	w.b.mu.Unlock()
}

type gatedContext struct{ b *gatedBackend }

func (c *gatedContext) Stream(context.Context, string, engine.GenerateParams) (engine.FragmentStream, error) {
	return &gatedStream{b: c.b}, nil
}

func (c *gatedContext) Close() error { return nil }

type gatedStream struct {
	b *gatedBackend
	i int
}

func (s *gatedStream) Next(ctx context.Context) (string, bool, error) {
	if s.i < len(s.b.frags) {
		s.i++
		return s.b.frags[s.i-1], true, nil
	}
	if s.b.endless {
		<-ctx.Done()
		return "", false, ctx.Err()
	}
	return "", false, nil
}

func (s *gatedStream) Close() error { return nil }

// newServer wires registry, loader, inference and orchestrator behind the
// HTTP API and refreshes models from dir.
func newServer(t *testing.T, dir string, b engine.Backend) (*httptest.Server, *orchestrator.Orchestrator) {
	t.Helper()
	o := orchestrator.New(orchestrator.Config{
		Registry:  registry.New(),
		Loader:    loader.New(loader.Config{Backend: b}),
		Responder: inference.New(inference.Config{MaxTokens: 32}),
		ModelsDir: dir,
	})
	srv := httptest.NewServer(httpapi.NewMux(o))
	t.Cleanup(func() {
		srv.Close()
		_ = o.Close()
	})
	return srv, o
}

func doJSON(t *testing.T, method, url string, body any, out any) int {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		rdr = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(context.Background(), method, url, rdr)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decode: %v", err)
		}
	} else {
		_, _ = io.Copy(io.Discard, resp.Body)
	}
	return resp.StatusCode
}

// waitIdle polls GET /state until the orchestrator is idle.
func waitIdle(t *testing.T, base string) types.StateResponse {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		var st types.StateResponse
		doJSON(t, http.MethodGet, base+"/state", nil, &st)
		if !st.IsProcessing {
			return st
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("orchestrator did not become idle")
	return types.StateResponse{}
}
