package policy

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/open-policy-agent/opa/rego"

	"github.com/dotfix-sh/dotfix/pkg/config"
	"github.com/dotfix-sh/dotfix/pkg/facts"
	"github.com/dotfix-sh/dotfix/pkg/telemetry"
)

// Engine evaluates Rego policies against the manifest before a run touches
// the system.
type Engine struct {
	mu       sync.RWMutex
	policies []compiledPolicy
	logger   *telemetry.Logger
}

// compiledPolicy pairs a policy with its prepared query.
type compiledPolicy struct {
	policy Policy
	query  rego.PreparedEvalQuery
}

// NewEngine creates a policy engine with the built-in policies loaded.
func NewEngine(ctx context.Context, logger *telemetry.Logger) (*Engine, error) {
	e := &Engine{logger: logger.NewComponentLogger("policy")}
	for _, p := range builtinPolicies() {
		if err := e.compile(ctx, p); err != nil {
			return nil, fmt.Errorf("built-in policy %s: %w", p.Name, err)
		}
	}
	return e, nil
}

// LoadPolicies compiles additional .rego policies from files or directories.
func (e *Engine) LoadPolicies(ctx context.Context, paths []string) error {
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("failed to stat policy path %s: %w", path, err)
		}

		files := []string{path}
		if info.IsDir() {
			files, err = regoFilesIn(path)
			if err != nil {
				return err
			}
		}

		for _, file := range files {
			source, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read policy %s: %w", file, err)
			}
			p := Policy{
				Name: strings.TrimSuffix(filepath.Base(file), ".rego"),
				Rego: string(source),
			}
			if err := e.compile(ctx, p); err != nil {
				return fmt.Errorf("policy %s: %w", file, err)
			}
		}
	}

	e.mu.RLock()
	count := len(e.policies)
	e.mu.RUnlock()
	e.logger.WithField("policies", count).Debug("policies loaded")
	return nil
}

// compile prepares a policy's deny query and registers it.
func (e *Engine) compile(ctx context.Context, p Policy) error {
	query := fmt.Sprintf("data.%s.deny", packageName(p.Rego))

	prepared, err := rego.New(
		rego.Module(p.Name, p.Rego),
		rego.Query(query),
	).PrepareForEval(ctx)
	if err != nil {
		return err
	}

	e.mu.Lock()
	e.policies = append(e.policies, compiledPolicy{policy: p, query: prepared})
	e.mu.Unlock()
	return nil
}

// EvaluateManifest runs every loaded policy against the manifest plus the
// host facts. A policy that fails to evaluate is downgraded to a warning; a
// policy that denies with error severity blocks the run.
func (e *Engine) EvaluateManifest(ctx context.Context, manifest *config.Manifest, f *facts.Facts) (*Result, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	input := map[string]any{
		"manifest": manifest,
		"facts":    f.Map(),
	}

	result := &Result{Allowed: true}
	for _, cp := range e.policies {
		rs, err := cp.query.Eval(ctx, rego.EvalInput(input))
		if err != nil {
			e.logger.WithError(err).WithField("policy", cp.policy.Name).
				Warn("policy evaluation failed")
			result.Warnings = append(result.Warnings,
				fmt.Sprintf("policy %s failed to evaluate: %v", cp.policy.Name, err))
			continue
		}

		for _, violation := range denials(rs) {
			v := toViolation(cp.policy.Name, violation)
			result.Violations = append(result.Violations, v)
			if v.Severity == SeverityError {
				result.Allowed = false
			}
		}
	}

	return result, nil
}

// denials flattens a result set's expressions into the raw violation objects.
func denials(rs rego.ResultSet) []any {
	var out []any
	for _, result := range rs {
		for _, expr := range result.Expressions {
			set, ok := expr.Value.([]any)
			if !ok {
				continue
			}
			out = append(out, set...)
		}
	}
	return out
}

// toViolation converts one raw deny object into a Violation. Malformed
// objects become warning-severity findings rather than being dropped.
func toViolation(policyName string, raw any) Violation {
	v := Violation{Policy: policyName, Severity: SeverityWarning}

	obj, ok := raw.(map[string]any)
	if !ok {
		v.Message = fmt.Sprintf("%v", raw)
		return v
	}
	if msg, ok := obj["message"].(string); ok {
		v.Message = msg
	}
	if sev, ok := obj["severity"].(string); ok && Severity(sev) == SeverityError {
		v.Severity = SeverityError
	}
	return v
}

// packageName extracts the package declaration from Rego source.
func packageName(source string) string {
	for _, line := range strings.Split(source, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "package ") {
			return strings.TrimSpace(strings.TrimPrefix(trimmed, "package "))
		}
	}
	return "dotfix.policies"
}

func regoFilesIn(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read policy directory %s: %w", dir, err)
	}
	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".rego") {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	return files, nil
}
