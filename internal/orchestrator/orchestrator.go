package orchestrator

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"localqa/internal/registry"
	"localqa/pkg/types"
)

// Orchestrator is the state owner of the interactive session. All observable
// fields are guarded by mu; loading, inference and discovery run on their own
// goroutines.
type Orchestrator struct {
	mu          sync.Mutex
	state       State
	lastOutcome Outcome
	selected    *types.ModelDescriptor
	question    string
	answer      string
	requestID   string
	active      *request
	closed      bool

	loadingModels int
	refreshCtx    context.Context
	refreshCancel context.CancelFunc

	baseCtx    context.Context
	baseCancel context.CancelFunc
	wg         sync.WaitGroup

	registry  *registry.Registry
	loader    Loader
	responder Responder
	slots     []types.ModelSlot
	modelsDir string
	picker    FilePicker
	clipboard Clipboard
	publisher EventPublisher
	log       zerolog.Logger
}

// New constructs an Orchestrator from cfg, applying defaults.
func New(cfg Config) *Orchestrator {
	o := &Orchestrator{
		state:     StateIdle,
		registry:  cfg.Registry,
		loader:    cfg.Loader,
		responder: cfg.Responder,
		slots:     append([]types.ModelSlot(nil), cfg.Slots...),
		modelsDir: cfg.ModelsDir,
		picker:    cfg.Picker,
		clipboard: cfg.Clipboard,
		publisher: cfg.Publisher,
		log:       zerolog.Nop(),
	}
	if o.registry == nil {
		o.registry = registry.New()
	}
	if o.modelsDir == "" {
		o.modelsDir = defaultModelsDir
	}
	if o.publisher == nil {
		o.publisher = noopPublisher{}
	}
	if cfg.Logger != nil {
		o.log = *cfg.Logger
	}
	o.baseCtx, o.baseCancel = context.WithCancel(context.Background())
	o.refreshCtx, o.refreshCancel = context.WithCancel(o.baseCtx)
	return o
}

// SetEventPublisher installs a publisher; nil restores the no-op default.
func (o *Orchestrator) SetEventPublisher(p EventPublisher) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if p == nil {
		o.publisher = noopPublisher{}
		return
	}
	o.publisher = p
}

func (o *Orchestrator) publish(e Event) {
	o.mu.Lock()
	p := o.publisher
	o.mu.Unlock()
	p.Publish(e)
}

// SetQuestion replaces the pending question text.
func (o *Orchestrator) SetQuestion(q string) {
	o.mu.Lock()
	o.question = q
	o.mu.Unlock()
}

// ClearQuestion empties the pending question.
func (o *Orchestrator) ClearQuestion() { o.SetQuestion("") }

// Question returns the pending question text.
func (o *Orchestrator) Question() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.question
}

// Answer returns the latest answer or status text.
func (o *Orchestrator) Answer() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.answer
}

// CopyAnswer returns the answer and whether it was non-blank. A non-blank
// answer is also written to the configured Clipboard; clipboard failures are
// logged and do not affect the result.
func (o *Orchestrator) CopyAnswer() (string, bool) {
	text := o.Answer()
	if strings.TrimSpace(text) == "" {
		return "", false
	}
	if o.clipboard != nil {
		if err := o.clipboard.WriteText(text); err != nil {
			o.log.Warn().Err(err).Msg("orchestrator event=clipboard_fail")
		}
	}
	return text, true
}

func (o *Orchestrator) isClosed() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.closed
}

// Wait blocks until no ask is running.
func (o *Orchestrator) Wait() { o.wg.Wait() }

// Close cancels in-flight work and waits for it to finish. Further submissions
// are rejected.
func (o *Orchestrator) Close() error {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil
	}
	o.closed = true
	if o.active != nil {
		o.active.cancel()
	}
	o.refreshCancel()
	o.baseCancel()
	o.mu.Unlock()
	o.wg.Wait()
	return nil
}
