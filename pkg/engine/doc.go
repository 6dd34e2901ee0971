// Package engine is the scheduling and reconciliation core. It owns three
// concerns:
//
//   - the task graph: tasks with explicit identities and declared
//     dependencies, executed sequentially or with one goroutine per task;
//   - the reconciliation passes: the decision procedure that turns resource
//     states plus a pass policy into apply calls and stats counters;
//   - run accounting: per-task outcomes, the stats algebra, and run summaries.
//
// The engine knows nothing about concrete resource types; those live in
// pkg/resources and plug in through the Task and Resource interfaces.
package engine
