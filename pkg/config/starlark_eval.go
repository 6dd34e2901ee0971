package config

import (
	"context"
	"fmt"
	"time"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
)

// WhenEvaluator evaluates declaration `when` expressions against facts.
// Expressions are Starlark, e.g. `os == "linux" and package_manager != ""`.
type WhenEvaluator struct {
	timeout time.Duration
}

// NewWhenEvaluator creates an evaluator. A zero timeout selects the default.
func NewWhenEvaluator(timeout time.Duration) *WhenEvaluator {
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &WhenEvaluator{timeout: timeout}
}

// Eval evaluates one expression against the given facts and returns its
// truth value. An empty expression is always true.
func (we *WhenEvaluator) Eval(ctx context.Context, expr string, factMap map[string]any) (bool, error) {
	if expr == "" {
		return true, nil
	}

	evalCtx, cancel := context.WithTimeout(ctx, we.timeout)
	defer cancel()

	type outcome struct {
		value bool
		err   error
	}
	ch := make(chan outcome, 1)

	thread := &starlark.Thread{Name: "when"}
	go func() {
		v, err := we.evalSync(thread, expr, factMap)
		ch <- outcome{value: v, err: err}
	}()

	select {
	case <-evalCtx.Done():
		thread.Cancel("timeout")
		return false, fmt.Errorf("when expression timed out after %v: %s", we.timeout, expr)
	case out := <-ch:
		return out.value, out.err
	}
}

// evalSync performs the actual evaluation.
func (we *WhenEvaluator) evalSync(thread *starlark.Thread, expr string, factMap map[string]any) (bool, error) {
	predeclared := starlark.StringDict{
		"struct": starlarkstruct.Default,
	}

	factDict := starlark.StringDict{}
	for key, val := range factMap {
		sval, err := toStarlarkValue(val)
		if err != nil {
			return false, fmt.Errorf("failed to convert fact %s: %w", key, err)
		}
		// Facts are reachable both as bare names and through the facts
		// struct, so `os == "linux"` and `facts.os == "linux"` both work.
		predeclared[key] = sval
		factDict[key] = sval
	}
	predeclared["facts"] = starlarkstruct.FromStringDict(starlarkstruct.Default, factDict)

	val, err := starlark.Eval(thread, "when", expr, predeclared)
	if err != nil {
		return false, fmt.Errorf("when expression failed: %w", err)
	}

	return bool(val.Truth()), nil
}

// toStarlarkValue converts a Go value to a Starlark value.
func toStarlarkValue(v any) (starlark.Value, error) {
	switch val := v.(type) {
	case nil:
		return starlark.None, nil
	case bool:
		return starlark.Bool(val), nil
	case int:
		return starlark.MakeInt(val), nil
	case int64:
		return starlark.MakeInt64(val), nil
	case float64:
		return starlark.Float(val), nil
	case string:
		return starlark.String(val), nil
	case []string:
		items := make([]starlark.Value, 0, len(val))
		for _, s := range val {
			items = append(items, starlark.String(s))
		}
		return starlark.NewList(items), nil
	case map[string]any:
		dict := starlark.NewDict(len(val))
		for k, item := range val {
			sval, err := toStarlarkValue(item)
			if err != nil {
				return nil, err
			}
			if err := dict.SetKey(starlark.String(k), sval); err != nil {
				return nil, err
			}
		}
		return dict, nil
	default:
		return nil, fmt.Errorf("unsupported fact type %T", v)
	}
}
