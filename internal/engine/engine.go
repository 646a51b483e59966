// Package engine is the boundary to the model-execution runtime. The rest of
// the module treats the runtime as a black box that loads weights, creates
// per-call execution contexts and streams text fragments.
//
// Build tags:
//
//   - default: llama_stub.go, a CGO-free backend that refuses to load models
//     with ErrDependencyUnavailable.
//   - llama: llama.go binds github.com/go-skynet/go-llama.cpp in-process;
//     llama_cgo.go carries the linker hints for libllama.
package engine

import "context"

// Profile is the execution profile used both when loading weights and when
// creating a context from them.
type Profile struct {
	ContextSize int
	GPULayers   int
	Threads     int
}

// GenerateParams captures generation parameters passed to the runtime.
// Zero sampling values mean "use the runtime default".
type GenerateParams struct {
	MaxTokens     int
	TokensKeep    int
	Stop          []string
	Temperature   float32
	TopP          float32
	TopK          int
	Seed          int
	RepeatPenalty float32
}

// Backend loads model weights from disk.
type Backend interface {
	// LoadWeights decodes the model file at path. It blocks until the weights
	// are resident or loading failed.
	LoadWeights(path string, p Profile) (Weights, error)
}

// Weights is a resident model. Implementations must tolerate Free being
// called more than once.
type Weights interface {
	// NewContext creates a fresh execution context. A context is never
	// shared between calls; callers must Close it.
	NewContext(p Profile) (Context, error)
	// Free releases the memory backing the weights.
	Free()
}

// Context is a single-use execution state bound to one Weights.
type Context interface {
	// Stream starts generation for prompt and returns a pull-based stream.
	Stream(ctx context.Context, prompt string, params GenerateParams) (FragmentStream, error)
	Close() error
}

// FragmentStream is a finite, non-restartable, pull-based sequence of text
// fragments. The runtime produces the next fragment only when Next is called.
type FragmentStream interface {
	// Next blocks until a fragment is available. ok is false once the stream
	// is exhausted or failed; err is non-nil on failure or when ctx is done.
	Next(ctx context.Context) (frag string, ok bool, err error)
	// Close stops generation. Further calls to Next report exhaustion.
	Close() error
}

// LlamaBuilt reports whether this binary was compiled with the in-process
// llama runtime.
func LlamaBuilt() bool { return llamaBuilt }
