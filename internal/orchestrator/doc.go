// Package orchestrator coordinates model discovery, loading and inference for
// a single interactive user. It is structured into small files by concern:
//
//   - orchestrator.go: core Orchestrator type, constructor, question and
//     answer fields, Wait/Close.
//   - config.go: Config, collaborator interfaces and package defaults.
//   - types.go: State, Outcome and Snapshot.
//   - errors.go: error types and helpers (IsModelNotFound, IsClosed).
//   - submit.go: Submit/Ask/CancelAsk and the ask sequence
//     (load, selection check, generate, release).
//   - models.go: RefreshModels, CancelLoading, AddModelManually, Select.
//   - status_report.go: Snapshot and the API state projection.
//   - events.go, eventpub_memory.go: lifecycle event publishing.
//   - metrics.go: Prometheus collectors.
//
// At most one ask is in flight; a second Submit while busy is rejected, not
// queued. Model refresh runs in its own cancellation domain so CancelLoading
// never affects an ask.
package orchestrator
