package stores

import "time"

// RunStatus classifies a stored run.
type RunStatus string

const (
	// RunStatusOK indicates the run completed with no failed tasks.
	RunStatusOK RunStatus = "ok"

	// RunStatusFailed indicates at least one task failed.
	RunStatusFailed RunStatus = "failed"

	// RunStatusDryRun indicates a preview run.
	RunStatusDryRun RunStatus = "dry-run"
)

// Run is one stored run of the engine.
type Run struct {
	// ID is the run identifier, a UUID.
	ID string `json:"id"`

	// Status classifies the run.
	Status RunStatus `json:"status"`

	// DryRun reports whether the run was a preview.
	DryRun bool `json:"dry_run"`

	// Summary is the run's one-line outcome report.
	Summary string `json:"summary"`

	// StartedAt is when the run began.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is when the run completed.
	FinishedAt time.Time `json:"finished_at"`
}

// TaskRecord is one stored per-task outcome within a run.
type TaskRecord struct {
	// RunID is the owning run.
	RunID string `json:"run_id"`

	// Task is the task's human-readable name.
	Task string `json:"task"`

	// Outcome is the recorded outcome, e.g. "ok" or "failed".
	Outcome string `json:"outcome"`

	// Message carries the skip reason or error message, if any.
	Message string `json:"message,omitempty"`

	// DurationMs is how long the task body ran, in milliseconds.
	DurationMs int64 `json:"duration_ms"`
}
