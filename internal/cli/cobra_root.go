package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"localqa/internal/config"
	"localqa/internal/httpapi"
	"localqa/internal/orchestrator"
)

// buildRootCmd constructs the command tree. Configuration is resolved in
// PersistentPreRunE: file, then LOCALQA_* environment, then flags.
func buildRootCmd(opts *Options) *cobra.Command {
	var cfg config.Config
	root := &cobra.Command{
		Use:           "localqa",
		Short:         "Ask questions against locally stored GGUF models",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return usageError{msg: "a command is required: serve|ask|models"}
		},
	}
	root.SetFlagErrorFunc(func(cmd *cobra.Command, err error) error { return usageError{msg: err.Error()} })

	pf := root.PersistentFlags()
	pf.StringVar(&opts.ConfigPath, "config", "", "Config file (.yaml, .yml, .json, .toml)")
	pf.StringVar(&opts.ModelsDir, "models-dir", "", "Directory to scan for *.gguf model files")
	pf.StringVar(&opts.LogLevel, "log-level", "", "Log level: debug|info|warn|error")
	pf.StringVar(&opts.LogFormat, "log-format", "", "Log format: console|json")
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		c, err := resolveConfig(cmd, opts)
		if err != nil {
			return err
		}
		cfg = c
		return nil
	}

	root.AddCommand(newServeCmd(&cfg), newAskCmd(&cfg), newModelsCmd(&cfg))
	return root
}

func resolveConfig(cmd *cobra.Command, opts *Options) (config.Config, error) {
	cfg, err := config.LoadOrDefault(opts.ConfigPath)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}
	cfg.ApplyEnv(os.Getenv)
	flags := cmd.Flags()
	if flags.Changed("models-dir") {
		cfg.ModelsDir = opts.ModelsDir
	}
	if flags.Changed("log-level") {
		cfg.LogLevel = opts.LogLevel
	}
	if flags.Changed("log-format") {
		cfg.LogFormat = opts.LogFormat
	}
	cfg.ApplyDefaults()
	return cfg, nil
}

func newServeCmd(cfg *config.Config) *cobra.Command {
	var (
		addr        string
		corsOrigins string
		maxTokens   int
	)
	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Serve the HTTP API",
		Example: "  localqa serve --addr :8080 --models-dir ~/models",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Flags().Changed("addr") {
				cfg.Addr = addr
			}
			if cmd.Flags().Changed("cors-origins") {
				cfg.CORS.Enabled = true
				cfg.CORS.Origins = splitCSV(corsOrigins)
			}
			if maxTokens > 0 {
				cfg.Inference.MaxTokens = maxTokens
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return fnServe(ctx, *cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "HTTP listen address, e.g. :8080")
	cmd.Flags().StringVar(&corsOrigins, "cors-origins", "", "Comma-separated allowed CORS origins (enables CORS)")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "Maximum fragments generated per answer")
	return cmd
}

func newAskCmd(cfg *config.Config) *cobra.Command {
	var (
		model     string
		save      string
		maxTokens int
		timeout   time.Duration
	)
	cmd := &cobra.Command{
		Use:     "ask <question>",
		Short:   "Answer one question and exit",
		Example: "  localqa ask --model ./models/phi-2.gguf \"What is a GGUF file?\"",
		Args: func(cmd *cobra.Command, args []string) error {
			if strings.TrimSpace(strings.Join(args, " ")) == "" {
				return usageError{msg: "ask requires a question"}
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if maxTokens > 0 {
				cfg.Inference.MaxTokens = maxTokens
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, timeout)
				defer cancel()
			}
			return runAsk(ctx, *cfg, askParams{question: strings.Join(args, " "), model: model, save: save})
		},
	}
	cmd.Flags().StringVar(&model, "model", "", "Model file to add and use (defaults to the first known model)")
	cmd.Flags().StringVar(&save, "save", "", "Also write the answer to this file")
	cmd.Flags().IntVar(&maxTokens, "max-tokens", 0, "Maximum fragments generated per answer")
	cmd.Flags().DurationVar(&timeout, "timeout", 0, "Cancel the ask after this duration (0 disables)")
	return cmd
}

func newModelsCmd(cfg *config.Config) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List configured and discovered models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModels(cmd.Context(), *cfg, asJSON)
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON instead of a table")
	return cmd
}

// fnServe is swapped by tests.
var fnServe = serve

func serve(ctx context.Context, cfg config.Config) error {
	log := newLogger(stderr, cfg.LogLevel, cfg.LogFormat)
	a := newApp(cfg, log, appOptions{})
	defer a.orch.Close()

	httpapi.SetLogger(log.With().Str("component", "http").Logger())
	httpapi.SetRequestLogLevel(cfg.LogLevel)
	httpapi.SetCORSOptions(cfg.CORS.Enabled, cfg.CORS.Origins, nil, nil)
	httpapi.SetBaseContext(ctx)

	go a.orch.RefreshModels(ctx)

	srv := &http.Server{Addr: cfg.Addr, Handler: httpapi.NewMux(a.orch), ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Str("models_dir", cfg.ModelsDir).Msg("localqa event=listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Error().Err(err).Msg("localqa event=shutdown_error")
	}
	log.Info().Msg("localqa event=stopped")
	return nil
}

type askParams struct {
	question string
	model    string
	save     string
}

// askFailedError reports a terminal outcome other than completed.
type askFailedError struct {
	outcome orchestrator.Outcome
	answer  string
}

func (e askFailedError) Error() string { return fmt.Sprintf("ask %s: %s", e.outcome, e.answer) }

func runAsk(ctx context.Context, cfg config.Config, p askParams) error {
	log := newLogger(stderr, cfg.LogLevel, cfg.LogFormat)
	opts := appOptions{picker: staticPicker{path: p.model}}
	if p.save != "" {
		opts.clipboard = fileClipboard{path: p.save}
	}
	a := newApp(cfg, log, opts)
	defer a.orch.Close()

	a.orch.RefreshModels(ctx)
	if p.model != "" {
		msg, err := a.orch.AddModelManually(ctx)
		switch {
		case orchestrator.IsInvalidModel(err):
			return err
		case err != nil:
			return fmt.Errorf("add model: %w", err)
		}
		log.Info().Str("path", p.model).Msg(msg)
	}
	if !a.orch.Submit(p.question) {
		return errors.New("no model available: configure model paths or add one with --model")
	}
	stopCancel := context.AfterFunc(ctx, func() { a.orch.CancelAsk() })
	defer stopCancel()
	a.orch.Wait()

	s := a.orch.Snapshot()
	fmt.Fprintln(stdout, s.Answer)
	if p.save != "" {
		a.orch.CopyAnswer()
	}
	if s.LastOutcome != orchestrator.OutcomeCompleted {
		return askFailedError{outcome: s.LastOutcome, answer: s.Answer}
	}
	return nil
}

func runModels(ctx context.Context, cfg config.Config, asJSON bool) error {
	log := newLogger(stderr, cfg.LogLevel, cfg.LogFormat)
	a := newApp(cfg, log, appOptions{})
	defer a.orch.Close()

	a.orch.RefreshModels(ctx)
	models := a.orch.Models()
	if asJSON {
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(models)
	}
	tw := tabwriter.NewWriter(stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tPATH\tSOURCE")
	for _, m := range models {
		src := "configured"
		if m.IsUserAdded {
			src = "discovered"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", m.Name, m.FilePath, src)
	}
	return tw.Flush()
}
