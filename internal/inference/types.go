package inference

import (
	"errors"
	"time"
)

// User-visible texts produced on soft-failure paths.
const (
	NotLoadedText   = "Model not loaded properly."
	FallbackText    = "Let me think about that differently..."
	errorTextPrefix = "I encountered an error: "
)

// ErrNotLoaded is returned by Stream when no usable model was supplied.
var ErrNotLoaded = errors.New("model not loaded")

// Outcome is the closed set of results of GetResponse.
type Outcome int

const (
	OutcomeCompleted Outcome = iota + 1
	OutcomeNotLoaded
	OutcomeCancelled
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCompleted:
		return "completed"
	case OutcomeNotLoaded:
		return "not_loaded"
	case OutcomeCancelled:
		return "cancelled"
	case OutcomeFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// FinishReason tells why a stream stopped producing fragments.
type FinishReason string

const (
	FinishNone      FinishReason = ""
	FinishEOS       FinishReason = "eos"
	FinishStop      FinishReason = "stop"
	FinishLength    FinishReason = "length"
	FinishCancelled FinishReason = "cancelled"
	FinishError     FinishReason = "error"
)

// Response is the whole-answer result consumed by the orchestrator. Text is
// always non-empty and safe to show to a user.
type Response struct {
	Outcome      Outcome
	Text         string
	Err          error
	Tokens       int
	FinishReason FinishReason
	Duration     time.Duration
}

// Cancelled reports whether the response ended because its context was
// cancelled.
func (r Response) Cancelled() bool { return r.Outcome == OutcomeCancelled }
