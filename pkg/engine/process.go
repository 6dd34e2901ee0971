package engine

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ProcessOpts is the policy for one reconciliation pass.
type ProcessOpts struct {
	// Verb names the fix action for display lines, e.g. "install" or "link".
	Verb string

	// FixIncorrect allows the pass to repair resources in StateIncorrect.
	// When false, an incorrect resource is logged as unexpected and skipped.
	FixIncorrect bool

	// FixMissing allows the pass to create resources in StateMissing.
	FixMissing bool

	// BailOnError aborts the whole batch on the first apply failure. When
	// false, apply failures are downgraded to a warning plus a skip count.
	// A state-query failure always aborts regardless of this flag.
	BailOnError bool
}

// ProcessResources reconciles each resource against its declaration: it
// queries the current state itself, then applies the decision table from the
// pass policy. With rc.Parallel set and more than one resource, the
// per-resource work is fanned out concurrently.
func ProcessResources(ctx context.Context, rc *RunContext, resources []Resource, opts ProcessOpts) (TaskStats, error) {
	if rc.Parallel && len(resources) > 1 {
		return processResourcesParallel(ctx, rc, resources, opts)
	}

	var stats TaskStats
	for _, res := range resources {
		state, err := res.CurrentState()
		if err != nil {
			return stats, NewPermanentError("failed to query resource state", err).
				WithCode(ErrCodeStateQuery).
				WithResource(res.Description())
		}
		delta, err := reconcileOne(rc, res, state, opts)
		stats.Add(delta)
		if err != nil {
			return stats, err
		}
	}
	return stats, nil
}

// ProcessResourceStates reconciles resources whose states were pre-computed
// by one bulk query. This is the fast path for resources backed by slow
// external processes, e.g. one "list installed packages" call instead of one
// query per package.
func ProcessResourceStates(ctx context.Context, rc *RunContext, pairs []ResourceWithState, opts ProcessOpts) (TaskStats, error) {
	if rc.Parallel && len(pairs) > 1 {
		return processStatesParallel(ctx, rc, pairs, opts)
	}

	var stats TaskStats
	for _, pair := range pairs {
		delta, err := reconcileOne(rc, pair.Resource, pair.State, opts)
		stats.Add(delta)
		if err != nil {
			return stats, err
		}
	}
	return stats, nil
}

// ProcessResourcesRemove runs a removal pass. It only ever removes resources
// currently in StateCorrect - the engine must not delete anything it does not
// own. Everything else is left alone and counted as already ok.
func ProcessResourcesRemove(ctx context.Context, rc *RunContext, resources []Resource, verb string) (TaskStats, error) {
	var stats TaskStats
	for _, res := range resources {
		state, err := res.CurrentState()
		if err != nil {
			return stats, NewPermanentError("failed to query resource state", err).
				WithCode(ErrCodeStateQuery).
				WithResource(res.Description())
		}

		if state.Kind != StateCorrect {
			stats.Add(TaskStats{AlreadyOK: 1})
			continue
		}

		if rc.DryRun {
			rc.Out.DryRunf("would %s %s", verb, res.Description())
			stats.Add(TaskStats{Changed: 1})
			continue
		}

		change, err := res.Remove()
		if errors.Is(err, ErrRemoveUnsupported) {
			rc.Out.Warnf("cannot %s %s: not supported", verb, res.Description())
			stats.Add(TaskStats{Skipped: 1})
			continue
		}
		if err != nil {
			return stats, NewPermanentError(fmt.Sprintf("failed to %s resource", verb), err).
				WithCode(ErrCodeApplyFailed).
				WithResource(res.Description())
		}
		switch change.Kind {
		case ChangeApplied:
			rc.Out.Infof("%s %s", verb, res.Description())
			stats.Add(TaskStats{Changed: 1})
		case ChangeAlreadyCorrect:
			stats.Add(TaskStats{AlreadyOK: 1})
		case ChangeSkipped:
			rc.Out.Warnf("skipped %s of %s: %s", verb, res.Description(), change.Reason)
			stats.Add(TaskStats{Skipped: 1})
		}
	}
	return stats, nil
}

// reconcileOne applies the decision table to a single resource and returns
// the stats delta for exactly one counter. The returned error, when non-nil,
// aborts the batch.
func reconcileOne(rc *RunContext, res Resource, state ResourceState, opts ProcessOpts) (TaskStats, error) {
	switch state.Kind {
	case StateCorrect:
		return TaskStats{AlreadyOK: 1}, nil

	case StateInvalid:
		rc.Out.Warnf("skipping %s: %s", res.Description(), state.Reason)
		return TaskStats{Skipped: 1}, nil

	case StateMissing:
		if !opts.FixMissing {
			rc.Out.Debugf("missing, not fixing: %s", res.Description())
			return TaskStats{Skipped: 1}, nil
		}

	case StateIncorrect:
		if !opts.FixIncorrect {
			rc.Out.Warnf("unexpected state of %s: %s", res.Description(), state.Current)
			return TaskStats{Skipped: 1}, nil
		}
	}

	// Missing or incorrect, and the pass policy allows fixing it.
	if rc.DryRun {
		rc.Out.DryRunf("would %s %s", opts.Verb, res.Description())
		return TaskStats{Changed: 1}, nil
	}

	change, err := res.Apply()
	if err != nil {
		return fixFailure(rc, res, opts, err)
	}

	switch change.Kind {
	case ChangeApplied:
		rc.Out.Infof("%s %s", opts.Verb, res.Description())
		return TaskStats{Changed: 1}, nil
	case ChangeAlreadyCorrect:
		// Something else fixed the resource between the state check and
		// the apply call. Tolerated, not an error.
		return TaskStats{AlreadyOK: 1}, nil
	default:
		return fixFailure(rc, res, opts, fmt.Errorf("%s", change.Reason))
	}
}

// fixFailure resolves an apply failure per the bail policy: fatal to the
// batch, or a warning plus a skip.
func fixFailure(rc *RunContext, res Resource, opts ProcessOpts, cause error) (TaskStats, error) {
	if opts.BailOnError {
		return TaskStats{}, NewPermanentError(fmt.Sprintf("failed to %s", opts.Verb), cause).
			WithCode(ErrCodeApplyFailed).
			WithResource(res.Description())
	}
	rc.Out.Warnf("failed to %s %s: %v", opts.Verb, res.Description(), cause)
	return TaskStats{Skipped: 1}, nil
}

// processResourcesParallel fans the per-resource decision procedure out over
// one goroutine per resource. Each unit computes its own stats delta; deltas
// merge into the running total through a single mutex-guarded accumulation
// point. On error the pass awaits all in-flight units, then returns the first
// error observed; stats from units that completed are kept.
func processResourcesParallel(ctx context.Context, rc *RunContext, resources []Resource, opts ProcessOpts) (TaskStats, error) {
	var (
		mu       sync.Mutex
		total    TaskStats
		firstErr error
		wg       sync.WaitGroup
	)

	for _, res := range resources {
		wg.Add(1)
		go func(res Resource) {
			defer wg.Done()

			var delta TaskStats
			state, err := res.CurrentState()
			if err != nil {
				err = NewPermanentError("failed to query resource state", err).
					WithCode(ErrCodeStateQuery).
					WithResource(res.Description())
			} else {
				delta, err = reconcileOne(rc, res, state, opts)
			}

			mu.Lock()
			total.Add(delta)
			if err != nil && firstErr == nil {
				firstErr = err
			}
			mu.Unlock()
		}(res)
	}

	wg.Wait()
	return total, firstErr
}

// processStatesParallel is the pre-computed-state variant of the parallel
// fan-out.
func processStatesParallel(ctx context.Context, rc *RunContext, pairs []ResourceWithState, opts ProcessOpts) (TaskStats, error) {
	var (
		mu       sync.Mutex
		total    TaskStats
		firstErr error
		wg       sync.WaitGroup
	)

	for _, pair := range pairs {
		wg.Add(1)
		go func(pair ResourceWithState) {
			defer wg.Done()

			delta, err := reconcileOne(rc, pair.Resource, pair.State, opts)

			mu.Lock()
			total.Add(delta)
			if err != nil && firstErr == nil {
				firstErr = err
			}
			mu.Unlock()
		}(pair)
	}

	wg.Wait()
	return total, firstErr
}
