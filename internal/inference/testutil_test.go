package inference

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"localqa/internal/engine"
	"localqa/internal/loader"
)

// fakeWeights hands out fakeContexts that stream from gen.
type fakeWeights struct {
	mu         sync.Mutex
	gen        func(i int) (string, bool, error)
	onPull     func(i int)
	ctxErr     error
	contexts   []*fakeContext
	prompts    []string
	params     []engine.GenerateParams
	freed      bool
	panicOnGen bool
}

func (w *fakeWeights) NewContext(p engine.Profile) (engine.Context, error) {
	if w.ctxErr != nil {
		return nil, w.ctxErr
	}
	c := &fakeContext{w: w}
	w.mu.Lock()
	w.contexts = append(w.contexts, c)
	w.mu.Unlock()
	return c, nil
}

func (w *fakeWeights) Free() { w.freed = true }

type fakeContext struct {
	w      *fakeWeights
	stream *fakeStream
	closed bool
}

func (c *fakeContext) Stream(ctx context.Context, prompt string, params engine.GenerateParams) (engine.FragmentStream, error) {
	c.w.mu.Lock()
	c.w.prompts = append(c.w.prompts, prompt)
	c.w.params = append(c.w.params, params)
	c.w.mu.Unlock()
	c.stream = &fakeStream{w: c.w}
	return c.stream, nil
}

func (c *fakeContext) Close() error {
	c.closed = true
	return nil
}

type fakeStream struct {
	w      *fakeWeights
	pulls  int
	closed bool
}

func (s *fakeStream) Next(ctx context.Context) (string, bool, error) {
	if s.closed {
		return "", false, nil
	}
	i := s.pulls
	s.pulls++
	if s.w.panicOnGen {
		panic("ggml assert")
	}
	if s.w.onPull != nil {
		s.w.onPull(i)
	}
	return s.w.gen(i)
}

func (s *fakeStream) Close() error {
	s.closed = true
	return nil
}

// fragments returns a generator over a fixed slice.
func fragments(fs ...string) func(int) (string, bool, error) {
	return func(i int) (string, bool, error) {
		if i >= len(fs) {
			return "", false, nil
		}
		return fs[i], true, nil
	}
}

// unbounded never runs out of fragments.
func unbounded(frag string) func(int) (string, bool, error) {
	return func(int) (string, bool, error) { return frag, true, nil }
}

func failingAfter(n int, err error) func(int) (string, bool, error) {
	return func(i int) (string, bool, error) {
		if i >= n {
			return "", false, err
		}
		return "x", true, nil
	}
}

func loaded(w *fakeWeights) *loader.LoadedModel {
	return loader.NewLoadedModel("/models/test.gguf", w, engine.Profile{ContextSize: 2048})
}

func testCtx(t *testing.T) context.Context {
	t.Helper()
	c, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)
	return c
}

var errBoom = errors.New("boom")
