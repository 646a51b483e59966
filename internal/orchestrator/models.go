package orchestrator

import (
	"context"
	"strings"

	"localqa/internal/common/fsutil"
	"localqa/internal/registry"
	"localqa/pkg/types"
)

// Models returns the known models in registry order.
func (o *Orchestrator) Models() []types.ModelDescriptor { return o.registry.List() }

// Selected returns the selected model, if any.
func (o *Orchestrator) Selected() (types.ModelDescriptor, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.selected == nil {
		return types.ModelDescriptor{}, false
	}
	return *o.selected, true
}

// Select makes the registered model at path the selection. Changing the
// selection while an ask is loading makes that ask abort with
// OutcomeModelChanged.
func (o *Orchestrator) Select(path string) error {
	d, ok := o.registry.Lookup(path)
	if !ok {
		return ErrModelNotFound(path)
	}
	o.setSelected(d)
	return nil
}

func (o *Orchestrator) setSelected(d types.ModelDescriptor) {
	o.mu.Lock()
	changed := o.selected == nil || !samePath(o.selected.FilePath, d.FilePath)
	o.selected = &d
	o.mu.Unlock()
	if changed {
		o.log.Debug().Str("model", d.Name).Str("path", d.FilePath).Msg("orchestrator event=selection_changed")
	}
}

// RefreshModels merges configured models, then models found in the models
// directory, into the registry and selects the first model when nothing is
// selected. It stops early when ctx is done or CancelLoading is called, and
// returns the descriptors that were new.
func (o *Orchestrator) RefreshModels(ctx context.Context) []types.ModelDescriptor {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return nil
	}
	rctx := o.refreshCtx
	o.loadingModels++
	o.mu.Unlock()
	defer o.doneLoadingModels()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	stop := context.AfterFunc(rctx, cancel)
	defer stop()

	added := o.registry.AddConfigured(o.slots)
	if ctx.Err() == nil {
		added = append(added, o.registry.ScanDirectory(ctx, o.modelsDir)...)
	}
	o.selectFirstIfNone()

	cancelled := ctx.Err() != nil
	o.log.Info().Int("added", len(added)).Int("total", o.registry.Len()).Bool("cancelled", cancelled).Msg("orchestrator event=models_refreshed")
	o.publish(Event{Name: EventModelsRefreshed, Fields: map[string]any{"added": len(added), "total": o.registry.Len(), "cancelled": cancelled}})
	return added
}

// CancelLoading cancels any running refresh and issues a fresh cancellation
// handle for the next one. It never touches an in-flight ask.
func (o *Orchestrator) CancelLoading() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.refreshCancel()
	o.refreshCtx, o.refreshCancel = context.WithCancel(o.baseCtx)
	o.log.Info().Msg("orchestrator event=refresh_cancel")
}

func (o *Orchestrator) doneLoadingModels() {
	o.mu.Lock()
	o.loadingModels--
	o.mu.Unlock()
}

func (o *Orchestrator) selectFirstIfNone() {
	first, ok := o.registry.First()
	if !ok {
		return
	}
	o.mu.Lock()
	if o.selected == nil {
		o.selected = &first
	}
	o.mu.Unlock()
}

// AddModelManually asks the FilePicker for a model and adds it. See AddModel
// for the resulting messages and errors. A cancelled pick is a no-op.
func (o *Orchestrator) AddModelManually(ctx context.Context) (string, error) {
	if o.isClosed() {
		return "", ErrClosed
	}
	if o.picker == nil {
		return "", nil
	}
	path, ok, err := o.picker.PickModelFile(ctx)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}
	return o.AddModel(path)
}

// AddModelPath is AddModel reduced to its message.
func (o *Orchestrator) AddModelPath(path string) string {
	msg, _ := o.AddModel(path)
	return msg
}

// AddModel registers path and selects it. A path that is already registered
// is reselected without validation; an unknown path must pass
// registry.Validate or ErrInvalidModel is returned. The returned message is
// also set as the answer. A blank path is a no-op and returns "".
func (o *Orchestrator) AddModel(path string) (string, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", nil
	}
	o.mu.Lock()
	o.loadingModels++
	o.mu.Unlock()
	defer o.doneLoadingModels()

	if abs, err := fsutil.ResolvePath(path); err == nil {
		path = abs
	}
	var (
		msg string
		err error
	)
	if d, ok := o.registry.Lookup(path); ok {
		o.setSelected(d)
		msg = existsPrefix + d.Name
	} else if !registry.Validate(path) {
		err = ErrInvalidModel(path)
		msg = err.Error()
		o.log.Warn().Str("path", path).Msg("orchestrator event=add_invalid")
	} else if d, existed := o.registry.AddManual(path); existed {
		o.setSelected(d)
		msg = existsPrefix + d.Name
	} else {
		o.setSelected(d)
		msg = addedPrefix + d.Name
		o.publish(Event{Name: EventModelAdded, Model: d.FilePath, Fields: map[string]any{"name": d.Name}})
	}
	o.mu.Lock()
	o.answer = msg
	o.mu.Unlock()
	return msg, err
}
