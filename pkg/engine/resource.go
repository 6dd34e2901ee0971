package engine

import "errors"

// ErrRemoveUnsupported is returned by resources that cannot undo what they
// applied. Callers must not treat it as a failure of the remove pass.
var ErrRemoveUnsupported = errors.New("remove is not supported for this resource")

// StateKind classifies the live state of a resource relative to its declaration.
type StateKind string

const (
	// StateMissing indicates the resource does not exist yet.
	StateMissing StateKind = "missing"

	// StateCorrect indicates the resource matches its declaration.
	StateCorrect StateKind = "correct"

	// StateIncorrect indicates the resource exists but differs from its
	// declaration in a way the engine can fix.
	StateIncorrect StateKind = "incorrect"

	// StateInvalid indicates the resource cannot be reconciled automatically,
	// typically because the target is occupied by something the engine does
	// not own.
	StateInvalid StateKind = "invalid"
)

// ResourceState is the result of querying a resource's live state.
type ResourceState struct {
	// Kind classifies the state.
	Kind StateKind `json:"kind"`

	// Current describes the observed value for StateIncorrect.
	Current string `json:"current,omitempty"`

	// Reason explains why the resource is StateInvalid.
	Reason string `json:"reason,omitempty"`
}

// MissingState returns a state for a resource that does not exist yet.
func MissingState() ResourceState {
	return ResourceState{Kind: StateMissing}
}

// CorrectState returns a state for a resource that matches its declaration.
func CorrectState() ResourceState {
	return ResourceState{Kind: StateCorrect}
}

// IncorrectState returns a state for a fixable mismatch, recording what was
// actually observed.
func IncorrectState(current string) ResourceState {
	return ResourceState{Kind: StateIncorrect, Current: current}
}

// InvalidState returns a state for a resource the engine must not touch.
func InvalidState(reason string) ResourceState {
	return ResourceState{Kind: StateInvalid, Reason: reason}
}

// ChangeKind classifies the outcome of an apply or remove call.
type ChangeKind string

const (
	// ChangeApplied indicates the resource was mutated.
	ChangeApplied ChangeKind = "applied"

	// ChangeAlreadyCorrect indicates nothing needed to be done. Resources
	// return this when something else fixed the resource between the state
	// check and the apply call.
	ChangeAlreadyCorrect ChangeKind = "already-correct"

	// ChangeSkipped indicates the resource declined to act, with a reason.
	ChangeSkipped ChangeKind = "skipped"
)

// ResourceChange is the result of an apply or remove call.
type ResourceChange struct {
	// Kind classifies the change.
	Kind ChangeKind `json:"kind"`

	// Reason explains why the change was skipped.
	Reason string `json:"reason,omitempty"`
}

// AppliedChange reports a successful mutation.
func AppliedChange() ResourceChange {
	return ResourceChange{Kind: ChangeApplied}
}

// AlreadyCorrectChange reports that no mutation was needed.
func AlreadyCorrectChange() ResourceChange {
	return ResourceChange{Kind: ChangeAlreadyCorrect}
}

// SkippedChange reports that the resource declined to act.
func SkippedChange(reason string) ResourceChange {
	return ResourceChange{Kind: ChangeSkipped, Reason: reason}
}

// Resource is the capability every declaration type plugs into the engine:
// query current state, apply a fix, optionally remove what was applied.
type Resource interface {
	// Description returns a short human-readable identity for log lines,
	// e.g. "link ~/.vimrc -> dotfiles/vimrc".
	Description() string

	// CurrentState queries the live state. It must be called before any
	// apply or remove decision. A query error aborts the whole pass.
	CurrentState() (ResourceState, error)

	// Apply brings the resource in line with its declaration.
	Apply() (ResourceChange, error)

	// Remove undoes what Apply created. Resources that cannot undo return
	// ErrRemoveUnsupported.
	Remove() (ResourceChange, error)
}

// ResourceWithState pairs a resource with a pre-computed state so a caller can
// issue one bulk state query instead of one query per resource.
type ResourceWithState struct {
	Resource Resource
	State    ResourceState
}
