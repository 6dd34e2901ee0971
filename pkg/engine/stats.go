package engine

import "fmt"

// TaskStats accumulates the three reconciliation counters for one pass.
// The zero value is the identity under Add, which is associative and
// commutative; parallel passes rely on this to merge per-resource deltas in
// any completion order.
type TaskStats struct {
	// Changed counts resources that were mutated (or would be, in preview).
	Changed uint `json:"changed"`

	// AlreadyOK counts resources that were already in the declared state.
	AlreadyOK uint `json:"already_ok"`

	// Skipped counts resources left alone, with a logged reason.
	Skipped uint `json:"skipped"`
}

// Add accumulates another stats value into s.
func (s *TaskStats) Add(o TaskStats) {
	s.Changed += o.Changed
	s.AlreadyOK += o.AlreadyOK
	s.Skipped += o.Skipped
}

// Total returns the number of resources accounted for.
func (s TaskStats) Total() uint {
	return s.Changed + s.AlreadyOK + s.Skipped
}

// Summary renders a one-line human-readable summary, e.g.
// "3 changed, 10 already ok, 1 skipped". In preview mode the first counter
// reads "would change" instead.
func (s TaskStats) Summary(dryRun bool) string {
	verb := "changed"
	if dryRun {
		verb = "would change"
	}
	return fmt.Sprintf("%d %s, %d already ok, %d skipped",
		s.Changed, verb, s.AlreadyOK, s.Skipped)
}

// Finish resolves a completed pass to a task result. The counters never
// constitute a failure by themselves; only a propagated error fails a batch.
func (s TaskStats) Finish(dryRun bool) TaskResult {
	if dryRun {
		return DryRunResult()
	}
	return OkResult()
}
