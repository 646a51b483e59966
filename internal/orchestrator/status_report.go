package orchestrator

import "localqa/pkg/types"

// Snapshot returns a read-only view of the observable fields.
func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	s := Snapshot{
		State:           o.state,
		LastOutcome:     o.lastOutcome,
		Question:        o.question,
		Answer:          o.answer,
		IsLoadingModels: o.loadingModels > 0,
		RequestID:       o.requestID,
	}
	if o.selected != nil {
		sel := *o.selected
		s.Selected = &sel
	}
	o.mu.Unlock()
	s.ModelCount = o.registry.Len()
	return s
}

// Status builds the state payload for GET /state.
func (o *Orchestrator) Status() types.StateResponse {
	s := o.Snapshot()
	return types.StateResponse{
		State:           string(s.State),
		LastOutcome:     string(s.LastOutcome),
		Selected:        s.Selected,
		Question:        s.Question,
		Answer:          s.Answer,
		IsProcessing:    s.IsProcessing(),
		IsLoadingModels: s.IsLoadingModels,
		RequestID:       s.RequestID,
		ModelCount:      s.ModelCount,
	}
}

// Ready reports whether a model is selected, so an ask can be accepted.
func (o *Orchestrator) Ready() bool {
	_, ok := o.Selected()
	return ok
}
