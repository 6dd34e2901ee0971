package engine

import (
	"context"

	"github.com/dotfix-sh/dotfix/pkg/config"
	"github.com/dotfix-sh/dotfix/pkg/executil"
	"github.com/dotfix-sh/dotfix/pkg/facts"
	"github.com/dotfix-sh/dotfix/pkg/output"
	"github.com/dotfix-sh/dotfix/pkg/telemetry"
)

// TaskID is a stable, comparable token unique per kind of task. It is the
// vertex identity in the dependency graph and the unit dependencies refer to.
// Task kinds register their IDs as package-level constants; there is no
// reflection involved.
type TaskID string

// Task is a named, independently schedulable unit of work with declared
// dependencies and an applicability gate.
type Task interface {
	// ID returns the task's identity token.
	ID() TaskID

	// Name returns the human-readable task name for summaries and logs.
	Name() string

	// Dependencies returns the identities this task must wait for.
	// Identities not present in the scheduled list are treated as already
	// satisfied, not as errors.
	Dependencies() []TaskID

	// ShouldRun gates execution. A false return records the task as skipped
	// without counting as a failure.
	ShouldRun(rc *RunContext) bool

	// Run executes the task body. Errors are caught by the executor and
	// recorded as a failed outcome; they never abort the process.
	Run(ctx context.Context, rc *RunContext) (TaskResult, error)
}

// TaskResultKind classifies a task body's successful return.
type TaskResultKind string

const (
	// TaskResultOK indicates the task completed a real pass.
	TaskResultOK TaskResultKind = "ok"

	// TaskResultSkipped indicates the task declined to do its work.
	TaskResultSkipped TaskResultKind = "skipped"

	// TaskResultDryRun indicates the task completed a preview pass.
	TaskResultDryRun TaskResultKind = "dry-run"
)

// TaskResult is returned by a task body on success.
type TaskResult struct {
	// Kind classifies the result.
	Kind TaskResultKind `json:"kind"`

	// Reason explains a skipped result.
	Reason string `json:"reason,omitempty"`
}

// OkResult reports a completed real pass.
func OkResult() TaskResult {
	return TaskResult{Kind: TaskResultOK}
}

// SkippedResult reports that the task declined to do its work.
func SkippedResult(reason string) TaskResult {
	return TaskResult{Kind: TaskResultSkipped, Reason: reason}
}

// DryRunResult reports a completed preview pass.
func DryRunResult() TaskResult {
	return TaskResult{Kind: TaskResultDryRun}
}

// RunContext bundles the shared collaborators every task receives: the shared
// configuration handle, platform facts, an external-process capability, and
// the task's own private output buffer. All but the buffer are shared by
// reference across the whole run.
type RunContext struct {
	// Config is the shared configuration handle. Readers take a snapshot;
	// a reload swaps the whole snapshot, never mutating it in place.
	Config *config.Handle

	// Facts holds platform and environment facts collected at startup.
	Facts *facts.Facts

	// Exec runs external processes. Used by resources, not by the engine.
	Exec executil.Runner

	// Out is this task's private display stream. In parallel mode it is a
	// buffer flushed atomically on task completion.
	Out output.Sink

	// Metrics records reconciliation counters. May be nil.
	Metrics *telemetry.Metrics

	// DryRun selects preview mode: decisions are computed and reported but
	// nothing is mutated.
	DryRun bool

	// Bail makes every reconciliation pass abort on its first apply
	// failure, regardless of the task's own policy.
	Bail bool

	// Parallel enables per-resource fan-out inside reconciliation passes.
	Parallel bool
}

// WithOutput returns a shallow copy of the context with its own display
// stream. The scheduler uses this to give every task a private buffer.
func (rc *RunContext) WithOutput(out output.Sink) *RunContext {
	clone := *rc
	clone.Out = out
	return &clone
}
