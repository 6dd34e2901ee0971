package resources

import (
	"context"
	"fmt"
	"strings"

	"github.com/dotfix-sh/dotfix/pkg/engine"
	"github.com/dotfix-sh/dotfix/pkg/executil"
)

// PackageResource manages one system package through the host's package
// manager.
type PackageResource struct {
	ctx     context.Context
	exec    executil.Runner
	manager string

	// Name is the package name.
	Name string
}

// NewPackageResource creates a package resource bound to a detected manager.
func NewPackageResource(ctx context.Context, runner executil.Runner, manager, name string) *PackageResource {
	return &PackageResource{ctx: ctx, exec: runner, manager: manager, Name: name}
}

// Description implements engine.Resource.
func (r *PackageResource) Description() string {
	return fmt.Sprintf("package %s", r.Name)
}

// CurrentState implements engine.Resource. Prefer QueryInstalledPackages plus
// engine.ProcessResourceStates for batches; one query per package is slow.
func (r *PackageResource) CurrentState() (engine.ResourceState, error) {
	var result *executil.Result
	var err error

	switch r.manager {
	case "apt-get":
		result, err = r.exec.RunUnchecked(r.ctx, "dpkg-query", "-W", "-f=${Status}", r.Name)
		if err == nil && result.ExitCode == 0 && !strings.Contains(result.Stdout, "install ok installed") {
			return engine.MissingState(), nil
		}
	case "dnf", "yum", "zypper":
		result, err = r.exec.RunUnchecked(r.ctx, "rpm", "-q", r.Name)
	case "pacman":
		result, err = r.exec.RunUnchecked(r.ctx, "pacman", "-Qq", r.Name)
	case "apk":
		result, err = r.exec.RunUnchecked(r.ctx, "apk", "info", "-e", r.Name)
	case "brew":
		result, err = r.exec.RunUnchecked(r.ctx, "brew", "list", "--versions", r.Name)
	default:
		return engine.InvalidState(fmt.Sprintf("unsupported package manager %q", r.manager)), nil
	}

	if err != nil {
		return engine.ResourceState{}, err
	}
	if result.ExitCode == 0 {
		return engine.CorrectState(), nil
	}
	return engine.MissingState(), nil
}

// Apply implements engine.Resource.
func (r *PackageResource) Apply() (engine.ResourceChange, error) {
	var err error
	switch r.manager {
	case "apt-get":
		_, err = r.exec.Run(r.ctx, "apt-get", "install", "-y", r.Name)
	case "dnf":
		_, err = r.exec.Run(r.ctx, "dnf", "install", "-y", r.Name)
	case "yum":
		_, err = r.exec.Run(r.ctx, "yum", "install", "-y", r.Name)
	case "pacman":
		_, err = r.exec.Run(r.ctx, "pacman", "-S", "--noconfirm", "--needed", r.Name)
	case "zypper":
		_, err = r.exec.Run(r.ctx, "zypper", "install", "-y", r.Name)
	case "apk":
		_, err = r.exec.Run(r.ctx, "apk", "add", r.Name)
	case "brew":
		_, err = r.exec.Run(r.ctx, "brew", "install", r.Name)
	default:
		return engine.ResourceChange{}, fmt.Errorf("unsupported package manager %q", r.manager)
	}
	if err != nil {
		return engine.ResourceChange{}, err
	}
	return engine.AppliedChange(), nil
}

// Remove implements engine.Resource.
func (r *PackageResource) Remove() (engine.ResourceChange, error) {
	var err error
	switch r.manager {
	case "apt-get":
		_, err = r.exec.Run(r.ctx, "apt-get", "remove", "-y", r.Name)
	case "dnf":
		_, err = r.exec.Run(r.ctx, "dnf", "remove", "-y", r.Name)
	case "yum":
		_, err = r.exec.Run(r.ctx, "yum", "remove", "-y", r.Name)
	case "pacman":
		_, err = r.exec.Run(r.ctx, "pacman", "-R", "--noconfirm", r.Name)
	case "zypper":
		_, err = r.exec.Run(r.ctx, "zypper", "remove", "-y", r.Name)
	case "apk":
		_, err = r.exec.Run(r.ctx, "apk", "del", r.Name)
	case "brew":
		_, err = r.exec.Run(r.ctx, "brew", "uninstall", r.Name)
	default:
		return engine.ResourceChange{}, fmt.Errorf("unsupported package manager %q", r.manager)
	}
	if err != nil {
		return engine.ResourceChange{}, err
	}
	return engine.AppliedChange(), nil
}

// QueryInstalledPackages lists every installed package in one manager call.
// The result feeds engine.ProcessResourceStates so a batch of declarations
// costs one external process instead of one per package.
func QueryInstalledPackages(ctx context.Context, runner executil.Runner, manager string) (map[string]bool, error) {
	var result *executil.Result
	var err error

	switch manager {
	case "apt-get":
		result, err = runner.Run(ctx, "dpkg-query", "-W", "-f=${Package}\n")
	case "dnf", "yum", "zypper":
		result, err = runner.Run(ctx, "rpm", "-qa", "--qf", "%{NAME}\n")
	case "pacman":
		result, err = runner.Run(ctx, "pacman", "-Qq")
	case "apk":
		result, err = runner.Run(ctx, "apk", "info")
	case "brew":
		result, err = runner.Run(ctx, "brew", "list", "-1")
	default:
		return nil, fmt.Errorf("unsupported package manager %q", manager)
	}
	if err != nil {
		return nil, err
	}

	installed := make(map[string]bool)
	for _, line := range strings.Split(result.Stdout, "\n") {
		name := strings.TrimSpace(line)
		if name != "" {
			installed[name] = true
		}
	}
	return installed, nil
}
