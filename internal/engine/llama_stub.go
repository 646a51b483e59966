//go:build !llama

package engine

// This file provides a no-CGO stub for the llama backend. It is compiled when
// the 'llama' build tag is NOT set, keeping default builds and CI CGO-free.

// llamaBuilt indicates this binary was compiled without real llama support.
var llamaBuilt = false

type llamaBackend struct {
	threads int
}

// NewLlamaBackend returns the default backend of this build.
func NewLlamaBackend(threads int) Backend {
	return &llamaBackend{threads: threads}
}

func (b *llamaBackend) LoadWeights(path string, p Profile) (Weights, error) {
	return nil, ErrDependencyUnavailable("llama support not built (missing 'llama' build tag)")
}
