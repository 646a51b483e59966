// Package loader turns a model path into a resident, ready-to-run model.
package loader

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"localqa/internal/common/fsutil"
	"localqa/internal/engine"
	"localqa/internal/registry"
)

// Defaults applied when the corresponding Config fields are unset.
const (
	defaultContextSize = 2048
	defaultGPULayers   = 0
)

// Config tunes the loader. The profile defaults to a bounded context window
// and CPU-only execution.
type Config struct {
	Backend     engine.Backend
	ContextSize int
	GPULayers   int
	Threads     int
	Logger      *zerolog.Logger
}

// Loader loads models through an engine backend. It keeps no cache: every
// call reads the file again. Loads are serialized.
type Loader struct {
	mu      sync.Mutex
	backend engine.Backend
	profile engine.Profile
	log     zerolog.Logger
}

// New constructs a Loader from cfg, applying defaults.
func New(cfg Config) *Loader {
	l := &Loader{
		backend: cfg.Backend,
		profile: engine.Profile{
			ContextSize: cfg.ContextSize,
			GPULayers:   cfg.GPULayers,
			Threads:     cfg.Threads,
		},
		log: zerolog.Nop(),
	}
	if l.profile.ContextSize <= 0 {
		l.profile.ContextSize = defaultContextSize
	}
	if l.profile.GPULayers < 0 {
		l.profile.GPULayers = defaultGPULayers
	}
	if cfg.Logger != nil {
		l.log = *cfg.Logger
	}
	return l
}

// Profile returns the execution profile used for loads and contexts.
func (l *Loader) Profile() engine.Profile { return l.profile }

// Load validates path and loads its weights. All failures are returned as
// *LoadError; nothing from the engine escapes as a panic.
func (l *Loader) Load(path string) (*LoadedModel, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, validationError(path, "model path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, validationError(path, "model file does not exist")
	}
	if !fsutil.HasExt(path, registry.ModelExt) {
		return nil, validationError(path, "unsupported model file format")
	}
	if l.backend == nil {
		return nil, engineError(path, engine.ErrDependencyUnavailable("no engine backend configured"))
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	start := time.Now()
	l.log.Info().Str("path", path).Int("ctx", l.profile.ContextSize).Int("gpu_layers", l.profile.GPULayers).Msg("loader event=load_start")
	w, err := l.loadWeights(path)
	if err != nil {
		l.log.Error().Err(err).Str("path", path).Dur("dur", time.Since(start)).Msg("loader event=load_fail")
		return nil, engineError(path, err)
	}
	if w == nil {
		return nil, engineError(path, fmt.Errorf("engine returned no weights"))
	}
	l.log.Info().Str("path", path).Dur("dur", time.Since(start)).Msg("loader event=load_done")
	return &LoadedModel{path: path, weights: w, profile: l.profile, loadedAt: time.Now()}, nil
}

// loadWeights calls the backend and converts a panic into an error.
func (l *Loader) loadWeights(path string) (w engine.Weights, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			w, err = nil, fmt.Errorf("engine panic: %v", rec)
		}
	}()
	return l.backend.LoadWeights(path, l.profile)
}
