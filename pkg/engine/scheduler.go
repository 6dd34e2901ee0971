package engine

import (
	"context"
	"sync"

	"github.com/dotfix-sh/dotfix/pkg/output"
	"github.com/dotfix-sh/dotfix/pkg/telemetry"
)

// Scheduler executes a task list honoring declared dependency order,
// sequentially or in parallel.
//
// The parallel form deliberately avoids a fixed-size worker pool: a pool
// smaller than the number of blocked tasks can deadlock, because a worker
// occupies a slot while waiting on a dependency whose task needs a free slot
// to start. Instead every scheduled task gets its own goroutine and its own
// completion signal, eliminating that class of deadlock by construction.
type Scheduler struct {
	term   *output.Terminal
	trace  *telemetry.Timeline
	tracer *telemetry.Tracer
}

// NewScheduler creates a scheduler. The timeline trace and tracer are both
// optional; pass nil to disable either.
func NewScheduler(term *output.Terminal, trace *telemetry.Timeline, tracer *telemetry.Tracer) *Scheduler {
	return &Scheduler{term: term, trace: trace, tracer: tracer}
}

// Run executes the task list, recording one outcome per task into sum.
// A single task's failure never stops sibling tasks; overall failure is
// decided from the aggregate failed count after every task has finished.
//
// If the dependency graph contains a cycle the run is not failed: the
// scheduler falls back to sequential execution in declaration order and
// surfaces a warning. Cancellation of a started task is not supported; a run
// can only be aborted between tasks.
func (s *Scheduler) Run(ctx context.Context, tasks []Task, rc *RunContext, sum *Summary) error {
	graph, err := BuildGraph(tasks)
	if err != nil {
		return err
	}

	parallel := rc.Parallel && len(tasks) > 1

	if parallel && graph.HasCycle() {
		s.term.Warnf("dependency cycle detected; running tasks sequentially in declaration order")
		parallel = false
	}

	if parallel {
		s.runParallel(ctx, tasks, graph, rc, sum)
	} else {
		s.runSequential(ctx, tasks, rc, sum)
	}

	return nil
}

// runSequential executes tasks one at a time in declaration order.
func (s *Scheduler) runSequential(ctx context.Context, tasks []Task, rc *RunContext, sum *Summary) {
	for _, task := range tasks {
		if ctx.Err() != nil {
			sum.Record(task.Name(), OutcomeSkipped, "run aborted", 0)
			continue
		}
		s.runOne(ctx, task, rc, sum)
	}
}

// runParallel gives every task its own goroutine plus one closeable signal
// channel, fanned out to all of its dependents. Each unit blocks on the
// signals for its own present dependencies only, runs, flushes its buffered
// output atomically, then signals completion - success or failure alike, so
// a failed task never wedges its dependents.
func (s *Scheduler) runParallel(ctx context.Context, tasks []Task, graph *Graph, rc *RunContext, sum *Summary) {
	done := make(map[TaskID]chan struct{}, len(tasks))
	for _, task := range tasks {
		done[task.ID()] = make(chan struct{})
	}

	var wg sync.WaitGroup
	for _, task := range tasks {
		wg.Add(1)
		go func(task Task) {
			defer wg.Done()
			// Completion is signaled last, after the output flush inside
			// runOne, and regardless of the task's outcome.
			defer close(done[task.ID()])

			for _, dep := range graph.Deps(task.ID()) {
				s.trace.Waiting(task.Name(), string(dep))
				<-done[dep]
			}

			s.runOne(ctx, task, rc, sum)
		}(task)
	}
	wg.Wait()
}

// runOne executes a single task with a private output buffer and flushes the
// buffer the moment the task completes. The flush is the only point where a
// task's lines reach the terminal, so concurrent tasks never interleave.
func (s *Scheduler) runOne(ctx context.Context, task Task, rc *RunContext, sum *Summary) {
	ctx, span := s.tracer.StartTask(ctx, task.Name())
	s.trace.Started(task.Name())

	buf := output.NewBuffer()
	outcome := ExecuteTask(ctx, task, rc.WithOutput(buf), sum)
	s.term.Flush(buf)

	s.trace.Finished(task.Name(), string(outcome))
	telemetry.EndSpan(span, nil)
}
