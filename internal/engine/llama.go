//go:build llama

package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	llama "github.com/go-skynet/go-llama.cpp"
)

// llamaBuilt indicates this binary was compiled with real llama support.
var llamaBuilt = true

type llamaBackend struct {
	threads int
}

// NewLlamaBackend returns a backend that loads GGUF files with go-llama.cpp.
func NewLlamaBackend(threads int) Backend {
	return &llamaBackend{threads: threads}
}

func (b *llamaBackend) LoadWeights(path string, p Profile) (Weights, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("model path is empty")
	}
	mo := []llama.ModelOption{
		llama.SetContext(zn(p.ContextSize, 2048)),
		llama.SetGPULayers(max(0, p.GPULayers)),
	}
	m, err := llama.New(path, mo...)
	if err != nil {
		return nil, err
	}
	return &llamaWeights{model: m, threads: zn(p.Threads, b.threads)}, nil
}

// llamaWeights owns the loaded model. go-llama.cpp keeps one evaluation state
// per model, so contexts are handed out one at a time under mu.
type llamaWeights struct {
	mu      sync.Mutex
	model   *llama.LLama
	threads int
}

func (w *llamaWeights) NewContext(p Profile) (Context, error) {
	w.mu.Lock()
	if w.model == nil {
		w.mu.Unlock()
		return nil, errors.New("llama model already freed")
	}
	return &llamaContext{w: w, threads: zn(p.Threads, w.threads)}, nil
}

func (w *llamaWeights) Free() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.model != nil {
		w.model.Free()
		w.model = nil
	}
}

type llamaContext struct {
	w       *llamaWeights
	threads int
	stream  *llamaStream
	once    sync.Once
}

func (c *llamaContext) Stream(ctx context.Context, prompt string, params GenerateParams) (FragmentStream, error) {
	if c.stream != nil {
		return nil, errors.New("llama context already used")
	}
	model := c.w.model
	s := &llamaStream{
		frags: make(chan string),
		stop:  make(chan struct{}),
		done:  make(chan struct{}),
	}
	// Unbuffered handoff: the runtime blocks inside the callback until the
	// consumer pulls, and stops as soon as the stream is closed.
	model.SetTokenCallback(func(tok string) bool {
		select {
		case <-s.stop:
			return false
		case <-ctx.Done():
			return false
		case s.frags <- tok:
			return true
		}
	})
	po := predictOptions(params, c.threads)
	go func() {
		defer close(s.done)
		defer func() {
			if rec := recover(); rec != nil {
				s.err = fmt.Errorf("llama predict: %v", rec)
			}
		}()
		if _, err := model.Predict(prompt, po...); err != nil {
			s.err = err
		}
	}()
	c.stream = s
	return s, nil
}

func (c *llamaContext) Close() error {
	c.once.Do(func() {
		if c.stream != nil {
			_ = c.stream.Close()
		}
		if c.w.model != nil {
			c.w.model.SetTokenCallback(nil)
		}
		c.w.mu.Unlock()
	})
	return nil
}

type llamaStream struct {
	frags    chan string
	stop     chan struct{}
	done     chan struct{}
	err      error
	stopOnce sync.Once
}

func (s *llamaStream) Next(ctx context.Context) (string, bool, error) {
	select {
	case <-s.stop:
		return "", false, nil
	default:
	}
	select {
	case tok := <-s.frags:
		return tok, true, nil
	case <-s.done:
		return "", false, s.err
	case <-ctx.Done():
		return "", false, ctx.Err()
	}
}

func (s *llamaStream) Close() error {
	s.stopOnce.Do(func() { close(s.stop) })
	<-s.done
	return nil
}

func zn(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}

func zf(v, def float32) float32 {
	if v > 0 {
		return v
	}
	return def
}

// predictOptions converts generation params into go-llama.cpp options.
func predictOptions(params GenerateParams, threads int) []llama.PredictOption {
	po := []llama.PredictOption{
		llama.SetTokens(max(1, params.MaxTokens)),
		llama.SetThreads(max(1, threads)),
		llama.SetTopP(zf(params.TopP, llama.DefaultOptions.TopP)),
		llama.SetTopK(zn(params.TopK, llama.DefaultOptions.TopK)),
		llama.SetTemperature(zf(params.Temperature, llama.DefaultOptions.Temperature)),
		llama.SetPenalty(zf(params.RepeatPenalty, llama.DefaultOptions.Penalty)),
	}
	if params.TokensKeep > 0 {
		po = append(po, llama.SetNKeep(params.TokensKeep))
	}
	if params.Seed != 0 {
		po = append(po, llama.SetSeed(params.Seed))
	}
	if len(params.Stop) > 0 {
		po = append(po, llama.SetStopWords(params.Stop...))
	}
	return po
}
