package telemetry

import (
	"time"

	"github.com/rs/zerolog"
)

// Timeline records scheduler events the instant they happen, tagged with the
// elapsed time since the run began and the logical task name. Unlike the
// buffered display stream, timeline events are never reordered, so an
// operator can reconstruct the true interleaved execution order afterwards.
//
// A nil *Timeline is valid and records nothing; the scheduler treats the
// timeline as an optional collaborator.
type Timeline struct {
	zlog  zerolog.Logger
	start time.Time
}

// NewTimeline creates a timeline writing trace events through the given
// logger.
func NewTimeline(logger *Logger) *Timeline {
	return &Timeline{
		zlog:  logger.Zerolog().With().Str("component", "timeline").Logger(),
		start: time.Now(),
	}
}

// Waiting records that a task began blocking on one of its dependencies.
func (tl *Timeline) Waiting(task, dependency string) {
	if tl == nil {
		return
	}
	tl.zlog.Trace().
		Str("task", task).
		Str("dependency", dependency).
		Dur("elapsed", time.Since(tl.start)).
		Msg("waiting")
}

// Started records that a task body began executing.
func (tl *Timeline) Started(task string) {
	if tl == nil {
		return
	}
	tl.zlog.Trace().
		Str("task", task).
		Dur("elapsed", time.Since(tl.start)).
		Msg("started")
}

// Finished records a task's outcome the moment it completed.
func (tl *Timeline) Finished(task, outcome string) {
	if tl == nil {
		return
	}
	tl.zlog.Trace().
		Str("task", task).
		Str("outcome", outcome).
		Dur("elapsed", time.Since(tl.start)).
		Msg("finished")
}
