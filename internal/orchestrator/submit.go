package orchestrator

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"localqa/internal/inference"
)

// request is one accepted ask. snapshot is the selected path at submission
// time and is compared against the live selection after loading.
type request struct {
	id       string
	prompt   string
	snapshot string
	model    string
	ctx      context.Context
	cancel   context.CancelFunc
	start    time.Time
}

// Ask submits the pending question.
func (o *Orchestrator) Ask() bool { return o.Submit(o.Question()) }

// Submit starts an ask for question against the selected model. It returns
// false without any effect when an ask is already running, the question is
// blank, no model is selected or the orchestrator is closed.
func (o *Orchestrator) Submit(question string) bool {
	q := strings.TrimSpace(question)
	o.mu.Lock()
	if o.closed || o.active != nil || q == "" || o.selected == nil {
		o.mu.Unlock()
		asksTotal.WithLabelValues(outcomeLabel(OutcomeNone)).Inc()
		return false
	}
	ctx, cancel := context.WithCancel(o.baseCtx)
	req := &request{
		id:       uuid.NewString(),
		prompt:   q,
		snapshot: o.selected.FilePath,
		model:    o.selected.Name,
		ctx:      ctx,
		cancel:   cancel,
		start:    time.Now(),
	}
	o.active = req
	o.requestID = req.id
	o.question = ""
	o.answer = ProcessingText
	o.state = StateLoading
	o.wg.Add(1)
	o.mu.Unlock()

	askInflight.Inc()
	o.log.Info().Str("request_id", req.id).Str("model", req.model).Str("path", req.snapshot).Msg("orchestrator event=ask_accepted")
	o.publish(Event{Name: EventAskAccepted, RequestID: req.id, Model: req.snapshot})
	go o.runAsk(req)
	return true
}

// CancelAsk cancels the in-flight ask. It reports whether there was one.
func (o *Orchestrator) CancelAsk() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.active == nil {
		return false
	}
	o.active.cancel()
	o.log.Info().Str("request_id", o.active.id).Msg("orchestrator event=ask_cancel")
	return true
}

func (o *Orchestrator) runAsk(req *request) {
	defer o.wg.Done()
	outcome, text, tokens := o.execute(req)
	o.finish(req, outcome, text, tokens)
}

// execute runs load, selection check and generation. A cancelled ask whose
// load failed settles as cancelled; otherwise a changed selection wins over
// a load error. The loaded model is released before it returns, whatever the
// outcome.
func (o *Orchestrator) execute(req *request) (outcome Outcome, text string, tokens int) {
	defer func() {
		if rec := recover(); rec != nil {
			o.log.Error().Str("request_id", req.id).Interface("panic", rec).Msg("orchestrator event=ask_panic")
			outcome, text, tokens = OutcomeFailed, fmt.Sprintf("%s%v", panicPrefix, rec), 0
		}
	}()

	loadStart := time.Now()
	m, err := o.loader.Load(req.snapshot)
	if err != nil {
		loadDuration.WithLabelValues("error").Observe(time.Since(loadStart).Seconds())
		o.log.Error().Err(err).Str("request_id", req.id).Str("path", req.snapshot).Msg("orchestrator event=load_fail")
		if req.ctx.Err() != nil {
			return OutcomeCancelled, CancelledText, 0
		}
	} else {
		defer m.Release()
		loadDuration.WithLabelValues("ok").Observe(time.Since(loadStart).Seconds())
		o.publish(Event{Name: EventLoadDone, RequestID: req.id, Model: req.snapshot, Fields: map[string]any{"dur_ms": time.Since(loadStart).Milliseconds()}})
	}

	// The selection is re-checked whether or not the load succeeded.
	if cur := o.selectedPath(); !samePath(cur, req.snapshot) {
		o.log.Warn().Str("request_id", req.id).Str("snapshot", req.snapshot).Str("selected", cur).Msg("orchestrator event=model_changed")
		o.publish(Event{Name: EventModelChanged, RequestID: req.id, Model: req.snapshot, Fields: map[string]any{"selected": cur}})
		return OutcomeModelChanged, ModelChangedText, 0
	}
	if err != nil {
		return OutcomeFailed, loadFailedPrefix + err.Error(), 0
	}
	if req.ctx.Err() != nil {
		return OutcomeCancelled, CancelledText, 0
	}

	o.mu.Lock()
	o.state = StateGenerating
	o.mu.Unlock()

	resp := o.responder.GetResponse(req.ctx, m, req.prompt)
	switch resp.Outcome {
	case inference.OutcomeCompleted:
		return OutcomeCompleted, resp.Text, resp.Tokens
	case inference.OutcomeCancelled:
		return OutcomeCancelled, CancelledText, resp.Tokens
	default:
		return OutcomeFailed, resp.Text, resp.Tokens
	}
}

// finish publishes the outcome and returns the orchestrator to idle.
func (o *Orchestrator) finish(req *request, outcome Outcome, text string, tokens int) {
	req.cancel()
	o.mu.Lock()
	o.state = StateIdle
	o.lastOutcome = outcome
	o.answer = text
	o.active = nil
	o.mu.Unlock()

	askInflight.Dec()
	asksTotal.WithLabelValues(outcomeLabel(outcome)).Inc()
	generatedTokens.Add(float64(tokens))
	dur := time.Since(req.start)
	o.log.Info().Str("request_id", req.id).Str("outcome", string(outcome)).Int("tokens", tokens).Dur("dur", dur).Msg("orchestrator event=ask_done")
	o.publish(Event{Name: EventAskDone, RequestID: req.id, Model: req.snapshot, Fields: map[string]any{"outcome": string(outcome), "tokens": tokens, "dur_ms": dur.Milliseconds()}})
}

func (o *Orchestrator) selectedPath() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.selected == nil {
		return ""
	}
	return o.selected.FilePath
}

// samePath compares model paths the way the registry keys them.
func samePath(a, b string) bool {
	if a == "" || b == "" {
		return a == b
	}
	return strings.EqualFold(filepath.Clean(a), filepath.Clean(b))
}
