package cli

import (
	"github.com/rs/zerolog"

	"localqa/internal/config"
	"localqa/internal/engine"
	"localqa/internal/inference"
	"localqa/internal/loader"
	"localqa/internal/orchestrator"
	"localqa/internal/registry"
)

// Seams replaced by tests.
var (
	fnNewBackend = func(threads int) engine.Backend { return engine.NewLlamaBackend(threads) }
)

// app is the wired object graph shared by all commands.
type app struct {
	cfg  config.Config
	log  zerolog.Logger
	reg  *registry.Registry
	orch *orchestrator.Orchestrator
}

type appOptions struct {
	picker    orchestrator.FilePicker
	clipboard orchestrator.Clipboard
	publisher orchestrator.EventPublisher
}

func newApp(cfg config.Config, log zerolog.Logger, opts appOptions) *app {
	regLog := log.With().Str("component", "registry").Logger()
	loadLog := log.With().Str("component", "loader").Logger()
	infLog := log.With().Str("component", "inference").Logger()
	orchLog := log.With().Str("component", "orchestrator").Logger()

	reg := registry.New(registry.WithLogger(regLog))
	ld := loader.New(loader.Config{
		Backend:     fnNewBackend(cfg.Inference.Threads),
		ContextSize: cfg.Inference.ContextSize,
		GPULayers:   cfg.Inference.GPULayers,
		Threads:     cfg.Inference.Threads,
		Logger:      &loadLog,
	})
	ic := inferenceConfig(cfg.Inference)
	ic.Logger = &infLog
	eng := inference.New(ic)
	orch := orchestrator.New(orchestrator.Config{
		Registry:  reg,
		Loader:    ld,
		Responder: eng,
		Slots:     cfg.ModelSlots(),
		ModelsDir: cfg.ModelsDir,
		Picker:    opts.picker,
		Clipboard: opts.clipboard,
		Publisher: opts.publisher,
		Logger:    &orchLog,
	})
	return &app{cfg: cfg, log: log, reg: reg, orch: orch}
}

// inferenceConfig maps the configured generation settings onto the engine.
func inferenceConfig(in config.Inference) inference.Config {
	return inference.Config{
		MaxTokens:  in.MaxTokens,
		TokensKeep: in.TokensKeep,
		Stop:       in.Stop,
		Params: engine.GenerateParams{
			Temperature:   in.Temperature,
			TopP:          in.TopP,
			TopK:          in.TopK,
			Seed:          in.Seed,
			RepeatPenalty: in.RepeatPenalty,
		},
	}
}
