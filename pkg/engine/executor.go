package engine

import (
	"context"
	"time"
)

// ExecuteTask runs one task through its applicability gate, executes the body,
// and classifies the result into exactly one recorded outcome. Body errors are
// caught here; they never propagate as process aborts.
func ExecuteTask(ctx context.Context, task Task, rc *RunContext, sum *Summary) Outcome {
	if !task.ShouldRun(rc) {
		rc.Out.Debugf("%s: not applicable", task.Name())
		sum.Record(task.Name(), OutcomeSkipped, "not applicable", 0)
		return OutcomeSkipped
	}

	rc.Out.Stage(task.Name())

	started := time.Now()
	result, err := task.Run(ctx, rc)
	elapsed := time.Since(started)

	if err != nil {
		rc.Out.Errorf("%s: %v", task.Name(), err)
		sum.Record(task.Name(), OutcomeFailed, err.Error(), elapsed)
		return OutcomeFailed
	}

	switch result.Kind {
	case TaskResultSkipped:
		rc.Out.Infof("skipped: %s", result.Reason)
		sum.Record(task.Name(), OutcomeSkipped, result.Reason, elapsed)
		return OutcomeSkipped
	case TaskResultDryRun:
		sum.Record(task.Name(), OutcomeDryRun, "", elapsed)
		return OutcomeDryRun
	default:
		sum.Record(task.Name(), OutcomeOK, "", elapsed)
		return OutcomeOK
	}
}
