// Package inference runs capped, cancellable, cleaned-up generation against a
// loaded model.
package inference

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"localqa/internal/engine"
	"localqa/internal/loader"
)

// Defaults applied when the corresponding Config fields are unset.
const (
	DefaultMaxTokens  = 512
	DefaultTokensKeep = 512
)

// DefaultStop stops generation on a new user turn or a re-emitted wrapper.
var DefaultStop = []string{"User:", InstOpen}

// Config tunes generation. MaxTokens is a hard ceiling on consumed
// fragments, independent of the runtime's own stop detection.
type Config struct {
	MaxTokens  int
	TokensKeep int
	Stop       []string
	Params     engine.GenerateParams
	Logger     *zerolog.Logger
}

// Engine produces answers from loaded models. A fresh execution context is
// created for every call.
type Engine struct {
	maxTokens  int
	tokensKeep int
	stop       []string
	params     engine.GenerateParams
	log        zerolog.Logger
}

// New constructs an Engine from cfg, applying defaults.
func New(cfg Config) *Engine {
	e := &Engine{
		maxTokens:  cfg.MaxTokens,
		tokensKeep: cfg.TokensKeep,
		stop:       append([]string(nil), cfg.Stop...),
		params:     cfg.Params,
		log:        zerolog.Nop(),
	}
	if e.maxTokens <= 0 {
		e.maxTokens = DefaultMaxTokens
	}
	if e.tokensKeep <= 0 {
		e.tokensKeep = DefaultTokensKeep
	}
	if len(e.stop) == 0 {
		e.stop = append([]string(nil), DefaultStop...)
	}
	if cfg.Logger != nil {
		e.log = *cfg.Logger
	}
	e.params.MaxTokens = e.maxTokens
	e.params.TokensKeep = e.tokensKeep
	e.params.Stop = e.stop
	return e
}

// MaxTokens returns the configured fragment cap.
func (e *Engine) MaxTokens() int { return e.maxTokens }

// StopSequences returns a copy of the configured stop sequences.
func (e *Engine) StopSequences() []string { return append([]string(nil), e.stop...) }

// Stream starts generation and returns the raw fragment stream. It returns
// ErrNotLoaded for a nil or released model and ctx.Err() when ctx is already
// done, in both cases without starting the runtime.
func (e *Engine) Stream(ctx context.Context, m *loader.LoadedModel, prompt string) (*Stream, error) {
	if m == nil {
		return nil, ErrNotLoaded
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	w := m.Weights()
	if w == nil {
		return nil, ErrNotLoaded
	}
	formatted := FormatPrompt(prompt)
	e.log.Debug().Str("path", m.Path()).Str("prompt", formatted).Msg("inference event=start")

	ectx, err := w.NewContext(m.Profile())
	if err != nil {
		return nil, fmt.Errorf("create context: %w", err)
	}
	frags, err := ectx.Stream(ctx, formatted, e.params)
	if err != nil {
		_ = ectx.Close()
		return nil, fmt.Errorf("start generation: %w", err)
	}
	return newStream(ctx, ectx, frags, e.maxTokens, e.stop), nil
}

// GetResponse runs a full generation and returns a cleaned answer. Failures
// become user-visible text; cancellation is reported as OutcomeCancelled and
// never folded into a failure.
func (e *Engine) GetResponse(ctx context.Context, m *loader.LoadedModel, prompt string) (resp Response) {
	start := time.Now()
	defer func() {
		resp.Duration = time.Since(start)
	}()
	defer func() {
		if rec := recover(); rec != nil {
			e.log.Error().Interface("panic", rec).Msg("inference event=panic")
			resp = failed(fmt.Errorf("%v", rec), 0)
		}
	}()

	s, err := e.Stream(ctx, m, prompt)
	switch {
	case errors.Is(err, ErrNotLoaded):
		return Response{Outcome: OutcomeNotLoaded, Text: NotLoadedText, Err: err}
	case err != nil && ctx.Err() != nil:
		return cancelled(ctx.Err(), 0)
	case err != nil:
		e.log.Error().Err(err).Msg("inference event=start_fail")
		return failed(err, 0)
	}
	defer s.Close()

	for {
		_, ok, err := s.Next()
		if err != nil {
			if ctx.Err() != nil {
				e.log.Info().Int("tokens", s.Tokens()).Msg("inference event=cancelled")
				return cancelled(ctx.Err(), s.Tokens())
			}
			e.log.Error().Err(err).Int("tokens", s.Tokens()).Msg("inference event=fail")
			return failed(err, s.Tokens())
		}
		if !ok {
			break
		}
	}

	raw := s.Raw()
	e.log.Debug().Str("raw", raw).Int("tokens", s.Tokens()).Str("finish", string(s.FinishReason())).Msg("inference event=done")
	text := Clean(raw)
	if text == "" {
		text = FallbackText
	}
	return Response{
		Outcome:      OutcomeCompleted,
		Text:         text,
		Tokens:       s.Tokens(),
		FinishReason: s.FinishReason(),
	}
}

func cancelled(err error, tokens int) Response {
	return Response{Outcome: OutcomeCancelled, Text: "Request cancelled.", Err: err, Tokens: tokens, FinishReason: FinishCancelled}
}

func failed(err error, tokens int) Response {
	return Response{Outcome: OutcomeFailed, Text: errorTextPrefix + err.Error(), Err: err, Tokens: tokens, FinishReason: FinishError}
}
