package engine

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Outcome is the recorded per-task result of one run. Exactly one outcome is
// recorded per scheduled task.
type Outcome string

const (
	// OutcomeOK indicates the task completed a real pass.
	OutcomeOK Outcome = "ok"

	// OutcomeSkipped indicates the task was not applicable or declined.
	OutcomeSkipped Outcome = "skipped"

	// OutcomeDryRun indicates the task completed a preview pass.
	OutcomeDryRun Outcome = "dry-run"

	// OutcomeFailed indicates the task body returned an error.
	OutcomeFailed Outcome = "failed"
)

// TaskRecord is one task's recorded outcome.
type TaskRecord struct {
	// Name is the task's human-readable name.
	Name string `json:"name"`

	// Outcome classifies the result.
	Outcome Outcome `json:"outcome"`

	// Message carries the skip reason or error message, if any.
	Message string `json:"message,omitempty"`

	// Duration is how long the task body ran.
	Duration time.Duration `json:"duration"`
}

// Summary accumulates per-task outcomes for one run. It is safe for
// concurrent recording; parallel task units all write through it.
type Summary struct {
	mu sync.Mutex

	// RunID identifies this run in logs and the history store.
	RunID string

	// StartedAt is when the run began.
	StartedAt time.Time

	records []TaskRecord
}

// NewSummary creates a summary for a fresh run.
func NewSummary() *Summary {
	return &Summary{
		RunID:     uuid.New().String(),
		StartedAt: time.Now(),
	}
}

// Record appends one task outcome.
func (s *Summary) Record(name string, outcome Outcome, message string, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, TaskRecord{
		Name:     name,
		Outcome:  outcome,
		Message:  message,
		Duration: d,
	})
}

// Records returns a copy of the recorded outcomes in recording order.
func (s *Summary) Records() []TaskRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]TaskRecord, len(s.records))
	copy(out, s.records)
	return out
}

// Counts returns the number of records per outcome category.
func (s *Summary) Counts() map[Outcome]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	counts := make(map[Outcome]int, 4)
	for _, r := range s.records {
		counts[r.Outcome]++
	}
	return counts
}

// Failed returns the number of failed tasks. The run's exit status is a
// failure iff this is non-zero.
func (s *Summary) Failed() int {
	return s.Counts()[OutcomeFailed]
}

// Line renders the final one-line report of counts by outcome category.
func (s *Summary) Line() string {
	c := s.Counts()
	return fmt.Sprintf("%d ok, %d skipped, %d previewed, %d failed",
		c[OutcomeOK], c[OutcomeSkipped], c[OutcomeDryRun], c[OutcomeFailed])
}
