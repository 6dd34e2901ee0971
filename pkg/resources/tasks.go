package resources

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/dotfix-sh/dotfix/pkg/config"
	"github.com/dotfix-sh/dotfix/pkg/engine"
)

// Task identities. Declarations refer to these in the dependency graph; IDs
// are explicit constants, never derived from type names.
const (
	TaskLinks       engine.TaskID = "links"
	TaskPackages    engine.TaskID = "packages"
	TaskPermissions engine.TaskID = "permissions"
	TaskServices    engine.TaskID = "services"
	TaskExtensions  engine.TaskID = "extensions"
)

// BuildTasks returns the apply-pass tasks in declaration order. Tasks whose
// declaration list is empty gate themselves off through ShouldRun; the
// scheduler wires the dependency edges.
func BuildTasks() []engine.Task {
	return []engine.Task{
		&linkTask{},
		&packageTask{},
		&permissionTask{},
		&serviceTask{},
		&extensionTask{},
	}
}

// BuildRemoveTasks returns the removal-pass tasks. Only resources the engine
// can safely undo participate: links and extensions. Packages, modes and
// service states are left as they are.
func BuildRemoveTasks() []engine.Task {
	return []engine.Task{
		&linkRemoveTask{},
		&extensionRemoveTask{},
	}
}

// filterWhen drops declarations whose `when` expression is false on this
// host. A broken expression skips its declaration with a warning instead of
// failing the task.
func filterWhen[T any](ctx context.Context, rc *engine.RunContext, decls []T,
	when func(T) string, describe func(T) string) ([]T, engine.TaskStats) {

	eval := config.NewWhenEvaluator(0)
	factMap := rc.Facts.Map()

	var kept []T
	var stats engine.TaskStats
	for _, d := range decls {
		ok, err := eval.Eval(ctx, when(d), factMap)
		if err != nil {
			rc.Out.Warnf("skipping %s: %v", describe(d), err)
			stats.Add(engine.TaskStats{Skipped: 1})
			continue
		}
		if !ok {
			rc.Out.Debugf("%s: not for this host", describe(d))
			continue
		}
		kept = append(kept, d)
	}
	return kept, stats
}

// manifestDir is the directory relative manifest paths resolve against.
func manifestDir(snap *config.Snapshot) string {
	if len(snap.Sources) > 0 {
		return filepath.Dir(snap.Sources[0])
	}
	wd, err := os.Getwd()
	if err != nil {
		return "."
	}
	return wd
}

// expandPath resolves a leading ~ against the home directory and expands
// environment references.
func expandPath(p, home string) string {
	if p == "~" {
		return home
	}
	if strings.HasPrefix(p, "~/") {
		p = filepath.Join(home, p[2:])
	}
	return os.ExpandEnv(p)
}

// resolveSource makes a link source absolute, resolving relative sources
// against the manifest directory.
func resolveSource(source, baseDir, home string) string {
	source = expandPath(source, home)
	if filepath.IsAbs(source) {
		return source
	}
	return filepath.Join(baseDir, source)
}

// finishPass records a pass's counters, prints the summary line, and
// resolves the task result.
func finishPass(rc *engine.RunContext, task string, stats engine.TaskStats) engine.TaskResult {
	rc.Metrics.RecordReconcile(task, stats.Changed, stats.AlreadyOK, stats.Skipped)
	rc.Out.Info(stats.Summary(rc.DryRun))
	return stats.Finish(rc.DryRun)
}

type linkTask struct{}

func (t *linkTask) ID() engine.TaskID             { return TaskLinks }
func (t *linkTask) Name() string                  { return "links" }
func (t *linkTask) Dependencies() []engine.TaskID { return nil }

func (t *linkTask) ShouldRun(rc *engine.RunContext) bool {
	return len(rc.Config.Snapshot().Manifest.Links) > 0
}

func (t *linkTask) Run(ctx context.Context, rc *engine.RunContext) (engine.TaskResult, error) {
	snap := rc.Config.Snapshot()
	base := manifestDir(snap)

	decls, stats := filterWhen(ctx, rc, snap.Manifest.Links,
		func(d config.LinkDecl) string { return d.When },
		func(d config.LinkDecl) string { return "link " + d.Target })

	resources := make([]engine.Resource, 0, len(decls))
	for _, d := range decls {
		resources = append(resources, NewSymlinkResource(
			resolveSource(d.Source, base, rc.Facts.Home),
			expandPath(d.Target, rc.Facts.Home),
		))
	}

	delta, err := engine.ProcessResources(ctx, rc, resources, engine.ProcessOpts{
		Verb:         "link",
		FixIncorrect: true,
		FixMissing:   true,
		BailOnError:  rc.Bail,
	})
	stats.Add(delta)
	if err != nil {
		return engine.TaskResult{}, err
	}

	return finishPass(rc, t.Name(), stats), nil
}

type packageTask struct{}

func (t *packageTask) ID() engine.TaskID             { return TaskPackages }
func (t *packageTask) Name() string                  { return "packages" }
func (t *packageTask) Dependencies() []engine.TaskID { return nil }

func (t *packageTask) ShouldRun(rc *engine.RunContext) bool {
	return len(rc.Config.Snapshot().Manifest.Packages) > 0 &&
		rc.Facts.PackageManager != ""
}

func (t *packageTask) Run(ctx context.Context, rc *engine.RunContext) (engine.TaskResult, error) {
	snap := rc.Config.Snapshot()
	manager := rc.Facts.PackageManager

	decls, stats := filterWhen(ctx, rc, snap.Manifest.Packages,
		func(d config.PackageDecl) string { return d.When },
		func(d config.PackageDecl) string { return "package " + d.Name })

	if len(decls) == 0 {
		rc.Out.Info(stats.Summary(rc.DryRun))
		return stats.Finish(rc.DryRun), nil
	}

	// One listing call covers the whole batch.
	installed, err := QueryInstalledPackages(ctx, rc.Exec, manager)
	if err != nil {
		return engine.TaskResult{}, engine.NewTransientError("failed to list installed packages", err).
			WithCode(engine.ErrCodeStateQuery)
	}

	pairs := make([]engine.ResourceWithState, 0, len(decls))
	for _, d := range decls {
		state := engine.MissingState()
		if installed[d.Name] {
			state = engine.CorrectState()
		}
		pairs = append(pairs, engine.ResourceWithState{
			Resource: NewPackageResource(ctx, rc.Exec, manager, d.Name),
			State:    state,
		})
	}

	delta, err := engine.ProcessResourceStates(ctx, rc, pairs, engine.ProcessOpts{
		Verb:        "install",
		FixMissing:  true,
		BailOnError: true,
	})
	stats.Add(delta)
	if err != nil {
		return engine.TaskResult{}, err
	}

	return finishPass(rc, t.Name(), stats), nil
}

type permissionTask struct{}

func (t *permissionTask) ID() engine.TaskID { return TaskPermissions }
func (t *permissionTask) Name() string      { return "permissions" }

// Modes are often declared on files the link pass creates.
func (t *permissionTask) Dependencies() []engine.TaskID { return []engine.TaskID{TaskLinks} }

func (t *permissionTask) ShouldRun(rc *engine.RunContext) bool {
	return len(rc.Config.Snapshot().Manifest.Permissions) > 0
}

func (t *permissionTask) Run(ctx context.Context, rc *engine.RunContext) (engine.TaskResult, error) {
	snap := rc.Config.Snapshot()

	decls, stats := filterWhen(ctx, rc, snap.Manifest.Permissions,
		func(d config.PermissionDecl) string { return d.When },
		func(d config.PermissionDecl) string { return "mode on " + d.Path })

	resources := make([]engine.Resource, 0, len(decls))
	for _, d := range decls {
		res, err := NewPermissionResource(expandPath(d.Path, rc.Facts.Home), d.Mode)
		if err != nil {
			return engine.TaskResult{}, engine.NewPermanentError("invalid permission declaration", err).
				WithCode(engine.ErrCodeValidation)
		}
		resources = append(resources, res)
	}

	delta, err := engine.ProcessResources(ctx, rc, resources, engine.ProcessOpts{
		Verb:         "set",
		FixIncorrect: true,
		BailOnError:  rc.Bail,
	})
	stats.Add(delta)
	if err != nil {
		return engine.TaskResult{}, err
	}

	return finishPass(rc, t.Name(), stats), nil
}

type serviceTask struct{}

func (t *serviceTask) ID() engine.TaskID { return TaskServices }
func (t *serviceTask) Name() string      { return "services" }

// Services usually belong to packages the package pass installs.
func (t *serviceTask) Dependencies() []engine.TaskID { return []engine.TaskID{TaskPackages} }

func (t *serviceTask) ShouldRun(rc *engine.RunContext) bool {
	return len(rc.Config.Snapshot().Manifest.Services) > 0 &&
		rc.Facts.OS == "linux" &&
		rc.Exec.Which("systemctl")
}

func (t *serviceTask) Run(ctx context.Context, rc *engine.RunContext) (engine.TaskResult, error) {
	snap := rc.Config.Snapshot()

	decls, stats := filterWhen(ctx, rc, snap.Manifest.Services,
		func(d config.ServiceDecl) string { return d.When },
		func(d config.ServiceDecl) string { return "service " + d.Name })

	resources := make([]engine.Resource, 0, len(decls))
	for _, d := range decls {
		resources = append(resources, NewServiceResource(ctx, rc.Exec, d.Name))
	}

	delta, err := engine.ProcessResources(ctx, rc, resources, engine.ProcessOpts{
		Verb:         "enable",
		FixIncorrect: true,
		FixMissing:   true,
		BailOnError:  rc.Bail,
	})
	stats.Add(delta)
	if err != nil {
		return engine.TaskResult{}, err
	}

	return finishPass(rc, t.Name(), stats), nil
}

type extensionTask struct{}

func (t *extensionTask) ID() engine.TaskID { return TaskExtensions }
func (t *extensionTask) Name() string      { return "extensions" }

// Editors are frequently installed by the package pass.
func (t *extensionTask) Dependencies() []engine.TaskID { return []engine.TaskID{TaskPackages} }

func (t *extensionTask) ShouldRun(rc *engine.RunContext) bool {
	return len(rc.Config.Snapshot().Manifest.Extensions) > 0
}

func (t *extensionTask) Run(ctx context.Context, rc *engine.RunContext) (engine.TaskResult, error) {
	snap := rc.Config.Snapshot()

	decls, stats := filterWhen(ctx, rc, snap.Manifest.Extensions,
		func(d config.ExtensionDecl) string { return d.When },
		func(d config.ExtensionDecl) string { return "extension " + d.ID })

	// One listing per editor, not per extension.
	byEditor := make(map[string][]config.ExtensionDecl)
	for _, d := range decls {
		editor := d.Editor
		if editor == "" {
			editor = DefaultEditor
		}
		byEditor[editor] = append(byEditor[editor], d)
	}

	for editor, group := range byEditor {
		if !rc.Exec.Which(editor) {
			rc.Out.Warnf("editor %s not found, skipping %d extension(s)", editor, len(group))
			stats.Add(engine.TaskStats{Skipped: uint(len(group))})
			continue
		}

		installed, err := QueryInstalledExtensions(ctx, rc.Exec, editor)
		if err != nil {
			return engine.TaskResult{}, engine.NewTransientError("failed to list extensions", err).
				WithCode(engine.ErrCodeStateQuery)
		}

		pairs := make([]engine.ResourceWithState, 0, len(group))
		for _, d := range group {
			state := engine.MissingState()
			if installed[strings.ToLower(d.ID)] {
				state = engine.CorrectState()
			}
			pairs = append(pairs, engine.ResourceWithState{
				Resource: NewExtensionResource(ctx, rc.Exec, editor, d.ID),
				State:    state,
			})
		}

		delta, err := engine.ProcessResourceStates(ctx, rc, pairs, engine.ProcessOpts{
			Verb:        "install",
			FixMissing:  true,
			BailOnError: rc.Bail,
		})
		stats.Add(delta)
		if err != nil {
			return engine.TaskResult{}, err
		}
	}

	return finishPass(rc, t.Name(), stats), nil
}

type linkRemoveTask struct{}

func (t *linkRemoveTask) ID() engine.TaskID             { return TaskLinks }
func (t *linkRemoveTask) Name() string                  { return "remove links" }
func (t *linkRemoveTask) Dependencies() []engine.TaskID { return nil }

func (t *linkRemoveTask) ShouldRun(rc *engine.RunContext) bool {
	return len(rc.Config.Snapshot().Manifest.Links) > 0
}

func (t *linkRemoveTask) Run(ctx context.Context, rc *engine.RunContext) (engine.TaskResult, error) {
	snap := rc.Config.Snapshot()
	base := manifestDir(snap)

	decls, stats := filterWhen(ctx, rc, snap.Manifest.Links,
		func(d config.LinkDecl) string { return d.When },
		func(d config.LinkDecl) string { return "link " + d.Target })

	resources := make([]engine.Resource, 0, len(decls))
	for _, d := range decls {
		resources = append(resources, NewSymlinkResource(
			resolveSource(d.Source, base, rc.Facts.Home),
			expandPath(d.Target, rc.Facts.Home),
		))
	}

	delta, err := engine.ProcessResourcesRemove(ctx, rc, resources, "unlink")
	stats.Add(delta)
	if err != nil {
		return engine.TaskResult{}, err
	}

	return finishPass(rc, t.Name(), stats), nil
}

type extensionRemoveTask struct{}

func (t *extensionRemoveTask) ID() engine.TaskID             { return TaskExtensions }
func (t *extensionRemoveTask) Name() string                  { return "remove extensions" }
func (t *extensionRemoveTask) Dependencies() []engine.TaskID { return nil }

func (t *extensionRemoveTask) ShouldRun(rc *engine.RunContext) bool {
	return len(rc.Config.Snapshot().Manifest.Extensions) > 0
}

func (t *extensionRemoveTask) Run(ctx context.Context, rc *engine.RunContext) (engine.TaskResult, error) {
	snap := rc.Config.Snapshot()

	decls, stats := filterWhen(ctx, rc, snap.Manifest.Extensions,
		func(d config.ExtensionDecl) string { return d.When },
		func(d config.ExtensionDecl) string { return "extension " + d.ID })

	resources := make([]engine.Resource, 0, len(decls))
	for _, d := range decls {
		resources = append(resources, NewExtensionResource(ctx, rc.Exec, d.Editor, d.ID))
	}

	delta, err := engine.ProcessResourcesRemove(ctx, rc, resources, "uninstall")
	stats.Add(delta)
	if err != nil {
		return engine.TaskResult{}, err
	}

	return finishPass(rc, t.Name(), stats), nil
}
