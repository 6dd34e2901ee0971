package engine_test

import (
	"context"
	"os"

	"github.com/dotfix-sh/dotfix/pkg/engine"
	"github.com/dotfix-sh/dotfix/pkg/output"
)

type greetTask struct {
	id   engine.TaskID
	deps []engine.TaskID
}

func (g *greetTask) ID() engine.TaskID                 { return g.id }
func (g *greetTask) Name() string                      { return string(g.id) }
func (g *greetTask) Dependencies() []engine.TaskID     { return g.deps }
func (g *greetTask) ShouldRun(*engine.RunContext) bool { return true }
func (g *greetTask) Run(_ context.Context, rc *engine.RunContext) (engine.TaskResult, error) {
	rc.Out.Infof("hello from %s", g.id)
	return engine.OkResult(), nil
}

func ExampleScheduler_Run() {
	tasks := []engine.Task{
		&greetTask{id: "first"},
		&greetTask{id: "second", deps: []engine.TaskID{"first"}},
	}

	term := output.NewTerminal(os.Stdout, false)
	sched := engine.NewScheduler(term, nil, nil)

	rc := &engine.RunContext{Out: output.NewBuffer()}
	sum := engine.NewSummary()
	if err := sched.Run(context.Background(), tasks, rc, sum); err != nil {
		panic(err)
	}

	// Output:
	// ==> first
	//     hello from first
	// ==> second
	//     hello from second
}
