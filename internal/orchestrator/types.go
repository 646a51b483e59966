package orchestrator

import "localqa/pkg/types"

// State is the ask phase.
type State string

const (
	StateIdle       State = "idle"
	StateLoading    State = "loading"
	StateGenerating State = "generating"
)

// Outcome is the terminal result of one ask.
type Outcome string

const (
	OutcomeNone         Outcome = ""
	OutcomeCompleted    Outcome = "completed"
	OutcomeCancelled    Outcome = "cancelled"
	OutcomeFailed       Outcome = "failed"
	OutcomeModelChanged Outcome = "model_changed"
)

// User-visible answer texts.
const (
	ProcessingText   = "Processing..."
	ModelChangedText = "Model changed during processing. Please try again."
	CancelledText    = "Request cancelled."
	loadFailedPrefix = "Failed to load model: "
	panicPrefix      = "Error: "
	invalidPrefix    = "Not a valid model file: "
	existsPrefix     = "Model already exists: "
	addedPrefix      = "Model added: "
)

// Snapshot is a read-only projection of the observable fields.
type Snapshot struct {
	State           State
	LastOutcome     Outcome
	Selected        *types.ModelDescriptor
	Question        string
	Answer          string
	IsLoadingModels bool
	RequestID       string
	ModelCount      int
}

// IsProcessing reports whether an ask is loading or generating.
func (s Snapshot) IsProcessing() bool { return s.State != StateIdle }
