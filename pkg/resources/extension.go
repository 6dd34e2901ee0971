package resources

import (
	"context"
	"fmt"
	"strings"

	"github.com/dotfix-sh/dotfix/pkg/engine"
	"github.com/dotfix-sh/dotfix/pkg/executil"
)

// DefaultEditor is the editor command used when a declaration names none.
const DefaultEditor = "code"

// ExtensionResource manages one editor extension through the editor's own
// command line interface.
type ExtensionResource struct {
	ctx  context.Context
	exec executil.Runner

	// Editor is the editor command, e.g. "code".
	Editor string

	// ID is the extension identifier, e.g. "golang.go".
	ID string
}

// NewExtensionResource creates an extension resource.
func NewExtensionResource(ctx context.Context, runner executil.Runner, editor, id string) *ExtensionResource {
	if editor == "" {
		editor = DefaultEditor
	}
	return &ExtensionResource{ctx: ctx, exec: runner, Editor: editor, ID: id}
}

// Description implements engine.Resource.
func (r *ExtensionResource) Description() string {
	return fmt.Sprintf("%s extension %s", r.Editor, r.ID)
}

// CurrentState implements engine.Resource. Prefer QueryInstalledExtensions
// plus engine.ProcessResourceStates for batches; listing is one editor
// invocation either way.
func (r *ExtensionResource) CurrentState() (engine.ResourceState, error) {
	installed, err := QueryInstalledExtensions(r.ctx, r.exec, r.Editor)
	if err != nil {
		return engine.ResourceState{}, err
	}
	if installed[strings.ToLower(r.ID)] {
		return engine.CorrectState(), nil
	}
	return engine.MissingState(), nil
}

// Apply implements engine.Resource.
func (r *ExtensionResource) Apply() (engine.ResourceChange, error) {
	if _, err := r.exec.Run(r.ctx, r.Editor, "--install-extension", r.ID); err != nil {
		return engine.ResourceChange{}, err
	}
	return engine.AppliedChange(), nil
}

// Remove implements engine.Resource.
func (r *ExtensionResource) Remove() (engine.ResourceChange, error) {
	if _, err := r.exec.Run(r.ctx, r.Editor, "--uninstall-extension", r.ID); err != nil {
		return engine.ResourceChange{}, err
	}
	return engine.AppliedChange(), nil
}

// QueryInstalledExtensions lists the editor's installed extensions, keyed by
// lowercased identifier. Editors report identifiers case-insensitively.
func QueryInstalledExtensions(ctx context.Context, runner executil.Runner, editor string) (map[string]bool, error) {
	if editor == "" {
		editor = DefaultEditor
	}
	result, err := runner.Run(ctx, editor, "--list-extensions")
	if err != nil {
		return nil, err
	}

	installed := make(map[string]bool)
	for _, line := range strings.Split(result.Stdout, "\n") {
		id := strings.ToLower(strings.TrimSpace(line))
		if id != "" {
			installed[id] = true
		}
	}
	return installed, nil
}
