package resources

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/dotfix-sh/dotfix/pkg/engine"
	"github.com/dotfix-sh/dotfix/pkg/executil"
)

// fakeRunner scripts external command results by program name plus arguments.
type fakeRunner struct {
	results map[string]*executil.Result
	calls   []string
	onPath  map[string]bool
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		results: make(map[string]*executil.Result),
		onPath:  make(map[string]bool),
	}
}

func (f *fakeRunner) stub(cmdline string, result *executil.Result) {
	f.results[cmdline] = result
}

func (f *fakeRunner) lookup(program string, args ...string) (*executil.Result, error) {
	cmdline := strings.TrimSpace(program + " " + strings.Join(args, " "))
	f.calls = append(f.calls, cmdline)
	result, ok := f.results[cmdline]
	if !ok {
		return nil, fmt.Errorf("no stub for %q", cmdline)
	}
	return result, nil
}

func (f *fakeRunner) Run(ctx context.Context, program string, args ...string) (*executil.Result, error) {
	result, err := f.lookup(program, args...)
	if err != nil {
		return nil, err
	}
	if result.ExitCode != 0 {
		return result, fmt.Errorf("%s exited with status %d", program, result.ExitCode)
	}
	return result, nil
}

func (f *fakeRunner) RunUnchecked(ctx context.Context, program string, args ...string) (*executil.Result, error) {
	return f.lookup(program, args...)
}

func (f *fakeRunner) Which(program string) bool {
	return f.onPath[program]
}

func (f *fakeRunner) called(cmdline string) bool {
	for _, c := range f.calls {
		if c == cmdline {
			return true
		}
	}
	return false
}

func TestPackageResource_CurrentState_Pacman(t *testing.T) {
	runner := newFakeRunner()
	runner.stub("pacman -Qq ripgrep", &executil.Result{ExitCode: 0, Stdout: "ripgrep\n"})
	runner.stub("pacman -Qq fzf", &executil.Result{ExitCode: 1})

	ctx := context.Background()

	state, err := NewPackageResource(ctx, runner, "pacman", "ripgrep").CurrentState()
	if err != nil {
		t.Fatalf("CurrentState failed: %v", err)
	}
	if state.Kind != engine.StateCorrect {
		t.Errorf("Expected installed package to be correct, got %s", state.Kind)
	}

	state, err = NewPackageResource(ctx, runner, "pacman", "fzf").CurrentState()
	if err != nil {
		t.Fatalf("CurrentState failed: %v", err)
	}
	if state.Kind != engine.StateMissing {
		t.Errorf("Expected absent package to be missing, got %s", state.Kind)
	}
}

func TestPackageResource_CurrentState_AptHalfInstalled(t *testing.T) {
	runner := newFakeRunner()
	runner.stub("dpkg-query -W -f=${Status} ripgrep",
		&executil.Result{ExitCode: 0, Stdout: "deinstall ok config-files"})

	state, err := NewPackageResource(context.Background(), runner, "apt-get", "ripgrep").CurrentState()
	if err != nil {
		t.Fatalf("CurrentState failed: %v", err)
	}
	if state.Kind != engine.StateMissing {
		t.Errorf("Expected a removed-but-configured package to be missing, got %s", state.Kind)
	}
}

func TestPackageResource_CurrentState_UnsupportedManager(t *testing.T) {
	state, err := NewPackageResource(context.Background(), newFakeRunner(), "portage", "ripgrep").CurrentState()
	if err != nil {
		t.Fatalf("CurrentState failed: %v", err)
	}
	if state.Kind != engine.StateInvalid {
		t.Errorf("Expected invalid state for an unsupported manager, got %s", state.Kind)
	}
}

func TestPackageResource_Apply(t *testing.T) {
	runner := newFakeRunner()
	runner.stub("apt-get install -y ripgrep", &executil.Result{ExitCode: 0})

	change, err := NewPackageResource(context.Background(), runner, "apt-get", "ripgrep").Apply()
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if change.Kind != engine.ChangeApplied {
		t.Errorf("Expected applied change, got %s", change.Kind)
	}
	if !runner.called("apt-get install -y ripgrep") {
		t.Error("Expected the install command to run")
	}
}

func TestPackageResource_ApplyFailure(t *testing.T) {
	runner := newFakeRunner()
	runner.stub("dnf install -y ripgrep", &executil.Result{ExitCode: 1, Stderr: "no match"})

	if _, err := NewPackageResource(context.Background(), runner, "dnf", "ripgrep").Apply(); err == nil {
		t.Fatal("Expected error when the install command fails")
	}
}

func TestPackageResource_Remove(t *testing.T) {
	runner := newFakeRunner()
	runner.stub("brew uninstall ripgrep", &executil.Result{ExitCode: 0})

	change, err := NewPackageResource(context.Background(), runner, "brew", "ripgrep").Remove()
	if err != nil {
		t.Fatalf("Remove failed: %v", err)
	}
	if change.Kind != engine.ChangeApplied {
		t.Errorf("Expected applied change, got %s", change.Kind)
	}
}

func TestQueryInstalledPackages(t *testing.T) {
	runner := newFakeRunner()
	runner.stub("pacman -Qq", &executil.Result{ExitCode: 0, Stdout: "ripgrep\nfzf\n\njq\n"})

	installed, err := QueryInstalledPackages(context.Background(), runner, "pacman")
	if err != nil {
		t.Fatalf("QueryInstalledPackages failed: %v", err)
	}

	if len(installed) != 3 {
		t.Errorf("Expected 3 installed packages, got %d", len(installed))
	}
	for _, name := range []string{"ripgrep", "fzf", "jq"} {
		if !installed[name] {
			t.Errorf("Expected %s to be reported installed", name)
		}
	}
}

func TestQueryInstalledPackages_UnsupportedManager(t *testing.T) {
	if _, err := QueryInstalledPackages(context.Background(), newFakeRunner(), "portage"); err == nil {
		t.Fatal("Expected error for an unsupported manager")
	}
}
