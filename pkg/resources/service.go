package resources

import (
	"context"
	"fmt"
	"strings"

	"github.com/dotfix-sh/dotfix/pkg/engine"
	"github.com/dotfix-sh/dotfix/pkg/executil"
)

// ServiceResource manages the enabled state of one systemd unit.
type ServiceResource struct {
	ctx  context.Context
	exec executil.Runner

	// Name is the unit name, e.g. "syncthing.service".
	Name string
}

// NewServiceResource creates a service resource.
func NewServiceResource(ctx context.Context, runner executil.Runner, name string) *ServiceResource {
	return &ServiceResource{ctx: ctx, exec: runner, Name: name}
}

// Description implements engine.Resource.
func (r *ServiceResource) Description() string {
	return fmt.Sprintf("service %s", r.Name)
}

// CurrentState implements engine.Resource. Units that systemd will not let us
// enable (missing, masked, static) are invalid rather than fixable.
func (r *ServiceResource) CurrentState() (engine.ResourceState, error) {
	result, err := r.exec.RunUnchecked(r.ctx, "systemctl", "is-enabled", r.Name)
	if err != nil {
		return engine.ResourceState{}, err
	}

	status := strings.TrimSpace(result.Stdout)
	switch status {
	case "enabled", "enabled-runtime", "alias":
		return engine.CorrectState(), nil
	case "disabled":
		return engine.IncorrectState("disabled"), nil
	case "masked", "masked-runtime":
		return engine.InvalidState(fmt.Sprintf("unit %s is masked", r.Name)), nil
	case "static", "indirect", "generated", "transient":
		return engine.InvalidState(fmt.Sprintf("unit %s is %s and cannot be enabled", r.Name, status)), nil
	case "":
		return engine.InvalidState(fmt.Sprintf("unit %s not found", r.Name)), nil
	default:
		return engine.IncorrectState(status), nil
	}
}

// Apply implements engine.Resource.
func (r *ServiceResource) Apply() (engine.ResourceChange, error) {
	if _, err := r.exec.Run(r.ctx, "systemctl", "enable", "--now", r.Name); err != nil {
		return engine.ResourceChange{}, err
	}
	return engine.AppliedChange(), nil
}

// Remove implements engine.Resource.
func (r *ServiceResource) Remove() (engine.ResourceChange, error) {
	if _, err := r.exec.Run(r.ctx, "systemctl", "disable", "--now", r.Name); err != nil {
		return engine.ResourceChange{}, err
	}
	return engine.AppliedChange(), nil
}
