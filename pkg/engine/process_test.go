package engine

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/dotfix-sh/dotfix/pkg/output"
)

// fakeResource scripts the Resource interface for decision-table tests.
type fakeResource struct {
	mu   sync.Mutex
	desc string

	state    ResourceState
	stateErr error

	applyChange ResourceChange
	applyErr    error

	removeChange ResourceChange
	removeErr    error

	applied int
	removed int
}

func (f *fakeResource) Description() string {
	if f.desc != "" {
		return f.desc
	}
	return "fake resource"
}

func (f *fakeResource) CurrentState() (ResourceState, error) {
	return f.state, f.stateErr
}

func (f *fakeResource) Apply() (ResourceChange, error) {
	f.mu.Lock()
	f.applied++
	f.mu.Unlock()
	return f.applyChange, f.applyErr
}

func (f *fakeResource) Remove() (ResourceChange, error) {
	f.mu.Lock()
	f.removed++
	f.mu.Unlock()
	return f.removeChange, f.removeErr
}

func (f *fakeResource) applyCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.applied
}

func testRunContext() *RunContext {
	return &RunContext{Out: output.NewBuffer()}
}

func TestProcessResources_MixedStates(t *testing.T) {
	correct := &fakeResource{state: CorrectState()}
	missing := &fakeResource{state: MissingState(), applyChange: AppliedChange()}
	invalid := &fakeResource{state: InvalidState("occupied by a regular file")}

	stats, err := ProcessResources(context.Background(), testRunContext(),
		[]Resource{correct, missing, invalid},
		ProcessOpts{Verb: "link", FixMissing: true})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	want := TaskStats{Changed: 1, AlreadyOK: 1, Skipped: 1}
	if stats != want {
		t.Errorf("Expected %+v, got %+v", want, stats)
	}
	if correct.applyCalls() != 0 {
		t.Error("Apply must not be called on a correct resource")
	}
	if missing.applyCalls() != 1 {
		t.Errorf("Expected 1 apply call, got %d", missing.applyCalls())
	}
	if invalid.applyCalls() != 0 {
		t.Error("Apply must not be called on an invalid resource")
	}
}

func TestProcessResources_DryRunNeverApplies(t *testing.T) {
	missing := &fakeResource{state: MissingState(), applyChange: AppliedChange()}
	incorrect := &fakeResource{state: IncorrectState("points elsewhere"), applyChange: AppliedChange()}

	rc := testRunContext()
	rc.DryRun = true

	stats, err := ProcessResources(context.Background(), rc,
		[]Resource{missing, incorrect},
		ProcessOpts{Verb: "link", FixMissing: true, FixIncorrect: true})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if stats.Changed != 2 {
		t.Errorf("Expected 2 would-change, got %d", stats.Changed)
	}
	if missing.applyCalls() != 0 || incorrect.applyCalls() != 0 {
		t.Error("Dry run must not call Apply")
	}
}

func TestProcessResources_PolicyGatesFixing(t *testing.T) {
	missing := &fakeResource{state: MissingState(), applyChange: AppliedChange()}
	incorrect := &fakeResource{state: IncorrectState("mode 0755"), applyChange: AppliedChange()}

	stats, err := ProcessResources(context.Background(), testRunContext(),
		[]Resource{missing, incorrect},
		ProcessOpts{Verb: "set"})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	if stats.Skipped != 2 {
		t.Errorf("Expected both resources skipped, got %+v", stats)
	}
	if missing.applyCalls() != 0 || incorrect.applyCalls() != 0 {
		t.Error("Apply must not be called when the pass policy forbids fixing")
	}
}

func TestProcessResources_StateQueryFailureAlwaysAborts(t *testing.T) {
	broken := &fakeResource{stateErr: errors.New("lstat failed")}

	_, err := ProcessResources(context.Background(), testRunContext(),
		[]Resource{broken},
		ProcessOpts{Verb: "link", FixMissing: true})
	if err == nil {
		t.Fatal("Expected state query failure to abort the batch")
	}
	if !IsPermanent(err) {
		t.Errorf("Expected a permanent error, got: %v", err)
	}
}

func TestProcessResources_ApplyFailureBails(t *testing.T) {
	failing := &fakeResource{state: MissingState(), applyErr: errors.New("permission denied")}
	after := &fakeResource{state: MissingState(), applyChange: AppliedChange()}

	stats, err := ProcessResources(context.Background(), testRunContext(),
		[]Resource{failing, after},
		ProcessOpts{Verb: "install", FixMissing: true, BailOnError: true})
	if err == nil {
		t.Fatal("Expected apply failure to abort with bail enabled")
	}
	if !strings.Contains(err.Error(), "permission denied") {
		t.Errorf("Expected cause in error, got: %v", err)
	}
	if stats.Changed != 0 {
		t.Errorf("Expected no changes before abort, got %+v", stats)
	}
	if after.applyCalls() != 0 {
		t.Error("Expected the batch to stop before the second resource")
	}
}

func TestProcessResources_ApplyFailureWarnsWithoutBail(t *testing.T) {
	failing := &fakeResource{state: MissingState(), applyErr: errors.New("mirror timeout")}
	after := &fakeResource{state: MissingState(), applyChange: AppliedChange()}

	stats, err := ProcessResources(context.Background(), testRunContext(),
		[]Resource{failing, after},
		ProcessOpts{Verb: "install", FixMissing: true})
	if err != nil {
		t.Fatalf("Expected no error without bail, got: %v", err)
	}

	want := TaskStats{Changed: 1, Skipped: 1}
	if stats != want {
		t.Errorf("Expected %+v, got %+v", want, stats)
	}
}

func TestProcessResources_SkippedChangeWithBail(t *testing.T) {
	declined := &fakeResource{state: MissingState(), applyChange: SkippedChange("held back")}

	_, err := ProcessResources(context.Background(), testRunContext(),
		[]Resource{declined},
		ProcessOpts{Verb: "install", FixMissing: true, BailOnError: true})
	if err == nil {
		t.Fatal("Expected a skipped change to abort with bail enabled")
	}
	if !strings.Contains(err.Error(), "held back") {
		t.Errorf("Expected skip reason in error, got: %v", err)
	}
}

func TestProcessResources_ConcurrentFixTolerated(t *testing.T) {
	raced := &fakeResource{state: MissingState(), applyChange: AlreadyCorrectChange()}

	stats, err := ProcessResources(context.Background(), testRunContext(),
		[]Resource{raced},
		ProcessOpts{Verb: "link", FixMissing: true})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if stats.AlreadyOK != 1 {
		t.Errorf("Expected the raced fix to count as already ok, got %+v", stats)
	}
}

func TestProcessResourceStates_UsesPrecomputedStates(t *testing.T) {
	// The resource's own CurrentState would fail; the pre-computed state
	// must win.
	res := &fakeResource{stateErr: errors.New("must not be queried"), applyChange: AppliedChange()}

	stats, err := ProcessResourceStates(context.Background(), testRunContext(),
		[]ResourceWithState{{Resource: res, State: MissingState()}},
		ProcessOpts{Verb: "install", FixMissing: true})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if stats.Changed != 1 {
		t.Errorf("Expected 1 change, got %+v", stats)
	}
}

func TestProcessResources_ParallelMatchesSequential(t *testing.T) {
	build := func() []Resource {
		return []Resource{
			&fakeResource{state: CorrectState()},
			&fakeResource{state: MissingState(), applyChange: AppliedChange()},
			&fakeResource{state: IncorrectState("drifted"), applyChange: AppliedChange()},
			&fakeResource{state: InvalidState("occupied")},
			&fakeResource{state: CorrectState()},
		}
	}
	opts := ProcessOpts{Verb: "link", FixMissing: true, FixIncorrect: true}

	seq, err := ProcessResources(context.Background(), testRunContext(), build(), opts)
	if err != nil {
		t.Fatalf("Sequential pass failed: %v", err)
	}

	rc := testRunContext()
	rc.Parallel = true
	par, err := ProcessResources(context.Background(), rc, build(), opts)
	if err != nil {
		t.Fatalf("Parallel pass failed: %v", err)
	}

	if seq != par {
		t.Errorf("Parallel stats %+v differ from sequential %+v", par, seq)
	}
}

func TestProcessResources_ParallelAwaitsAllUnitsOnError(t *testing.T) {
	resources := []Resource{
		&fakeResource{state: CorrectState()},
		&fakeResource{stateErr: errors.New("query exploded")},
		&fakeResource{state: CorrectState()},
	}

	rc := testRunContext()
	rc.Parallel = true
	stats, err := ProcessResources(context.Background(), rc, resources,
		ProcessOpts{Verb: "link", FixMissing: true})
	if err == nil {
		t.Fatal("Expected the state query failure to surface")
	}
	// Units that completed keep their deltas.
	if stats.AlreadyOK != 2 {
		t.Errorf("Expected completed units to be counted, got %+v", stats)
	}
}

func TestProcessResourcesRemove_OnlyRemovesCorrect(t *testing.T) {
	correct := &fakeResource{state: CorrectState(), removeChange: AppliedChange()}
	missing := &fakeResource{state: MissingState()}
	incorrect := &fakeResource{state: IncorrectState("points elsewhere")}

	stats, err := ProcessResourcesRemove(context.Background(), testRunContext(),
		[]Resource{correct, missing, incorrect}, "unlink")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	want := TaskStats{Changed: 1, AlreadyOK: 2}
	if stats != want {
		t.Errorf("Expected %+v, got %+v", want, stats)
	}
	if correct.removed != 1 {
		t.Errorf("Expected 1 remove call, got %d", correct.removed)
	}
	if missing.removed != 0 || incorrect.removed != 0 {
		t.Error("Remove must only be called on correct resources")
	}
}

func TestProcessResourcesRemove_DryRun(t *testing.T) {
	correct := &fakeResource{state: CorrectState(), removeChange: AppliedChange()}

	rc := testRunContext()
	rc.DryRun = true
	stats, err := ProcessResourcesRemove(context.Background(), rc, []Resource{correct}, "unlink")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if stats.Changed != 1 {
		t.Errorf("Expected 1 would-change, got %+v", stats)
	}
	if correct.removed != 0 {
		t.Error("Dry run must not call Remove")
	}
}

func TestProcessResourcesRemove_UnsupportedIsSkipped(t *testing.T) {
	stubborn := &fakeResource{state: CorrectState(), removeErr: ErrRemoveUnsupported}
	after := &fakeResource{state: CorrectState(), removeChange: AppliedChange()}

	stats, err := ProcessResourcesRemove(context.Background(), testRunContext(),
		[]Resource{stubborn, after}, "unlink")
	if err != nil {
		t.Fatalf("Expected unsupported remove not to abort, got: %v", err)
	}

	want := TaskStats{Changed: 1, Skipped: 1}
	if stats != want {
		t.Errorf("Expected %+v, got %+v", want, stats)
	}
}
