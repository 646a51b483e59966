package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"localqa/internal/engine"
)

// captureOutput redirects stdout/stderr for the duration of the test.
func captureOutput(t *testing.T) (out, errOut *bytes.Buffer) {
	t.Helper()
	out, errOut = &bytes.Buffer{}, &bytes.Buffer{}
	origOut, origErr := stdout, stderr
	stdout, stderr = out, errOut
	t.Cleanup(func() { stdout, stderr = origOut, origErr })
	return out, errOut
}

// withBackend installs b as the engine backend for the test.
func withBackend(t *testing.T, b engine.Backend) {
	t.Helper()
	orig := fnNewBackend
	fnNewBackend = func(int) engine.Backend { return b }
	t.Cleanup(func() { fnNewBackend = orig })
}

func createModelFile(t *testing.T, dir, name string, size int) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, make([]byte, size), 0o644); err != nil {
		t.Fatalf("write model: %v", err)
	}
	return p
}

// echoBackend answers every prompt with frags.
type echoBackend struct{ frags []string }

func (b echoBackend) LoadWeights(string, engine.Profile) (engine.Weights, error) {
	return echoWeights(b), nil
}

type echoWeights struct{ frags []string }

func (w echoWeights) NewContext(engine.Profile) (engine.Context, error) { return echoContext(w), nil }
func (w echoWeights) Free()                                             {}

type echoContext struct{ frags []string }

func (c echoContext) Stream(context.Context, string, engine.GenerateParams) (engine.FragmentStream, error) {
	return &echoStream{frags: c.frags}, nil
}

func (c echoContext) Close() error { return nil }

type echoStream struct {
	frags []string
	i     int
}

func (s *echoStream) Next(ctx context.Context) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}
	if s.i >= len(s.frags) {
		return "", false, nil
	}
	s.i++
	return s.frags[s.i-1], true, nil
}

func (s *echoStream) Close() error { return nil }
