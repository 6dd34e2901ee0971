package commands

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/dotfix-sh/dotfix/pkg/config"
	"github.com/dotfix-sh/dotfix/pkg/engine"
	"github.com/dotfix-sh/dotfix/pkg/executil"
	"github.com/dotfix-sh/dotfix/pkg/facts"
	"github.com/dotfix-sh/dotfix/pkg/output"
	"github.com/dotfix-sh/dotfix/pkg/policy"
	"github.com/dotfix-sh/dotfix/pkg/stores"
	"github.com/dotfix-sh/dotfix/pkg/telemetry"
)

// metricsAddr is where the Prometheus endpoint listens while a run with
// metrics enabled is in flight.
const metricsAddr = "127.0.0.1:9464"

// runtime bundles the collaborators a command needs: settings, telemetry,
// facts, the parsed manifest behind its handle, and the policy engine.
type runtime struct {
	settings config.Settings
	logger   *telemetry.Logger
	tracer   *telemetry.Tracer
	metrics  *telemetry.Metrics
	facts    *facts.Facts
	parser   *config.Parser
	handle   *config.Handle
	policy   *policy.Engine
	term     *output.Terminal

	metricsSrv *http.Server
}

// newRuntime loads settings, sets up telemetry, collects facts, and parses
// the manifest sources into a fresh configuration snapshot.
func newRuntime(ctx context.Context) (*runtime, error) {
	settings, err := config.LoadSettings(settingsPath)
	if err != nil {
		return nil, err
	}
	if sequential {
		settings.Parallel = false
	}
	if verbose {
		settings.LogLevel = "debug"
	}

	logger, err := telemetry.NewLogger(settings.LoggingConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to set up logging: %w", err)
	}

	tracer, err := telemetry.NewTracer(settings.TracingConfig(), "dotfix", appVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to set up tracing: %w", err)
	}

	metrics, err := telemetry.NewMetrics(settings.MetricsConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to set up metrics: %w", err)
	}

	machineFacts, err := facts.Collect()
	if err != nil {
		return nil, fmt.Errorf("failed to collect facts: %w", err)
	}

	sources, err := config.ExpandSources(manifests)
	if err != nil {
		return nil, err
	}

	parser := config.NewParser()
	manifest, err := parser.ParseManifest(ctx, sources)
	if err != nil {
		return nil, err
	}
	logger.NewComponentLogger("config").
		WithField("counts", manifest.Counts()).
		Debug("manifest parsed")

	handle := config.NewHandle(&config.Snapshot{
		Settings: settings,
		Manifest: *manifest,
		Sources:  sources,
		LoadedAt: time.Now(),
	})

	policyEngine, err := policy.NewEngine(ctx, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to set up policy engine: %w", err)
	}
	if len(settings.PolicyPaths) > 0 {
		if err := policyEngine.LoadPolicies(ctx, settings.PolicyPaths); err != nil {
			return nil, err
		}
	}

	rt := &runtime{
		settings: settings,
		logger:   logger,
		tracer:   tracer,
		metrics:  metrics,
		facts:    machineFacts,
		parser:   parser,
		handle:   handle,
		policy:   policyEngine,
		term:     output.NewTerminal(os.Stdout, verbose),
	}

	if handler := metrics.Handler(); handler != nil {
		mux := http.NewServeMux()
		mux.Handle("/metrics", handler)
		rt.metricsSrv = &http.Server{Addr: metricsAddr, Handler: mux}
		go func() {
			if err := rt.metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.WithError(err).Warn("metrics endpoint failed")
			}
		}()
	}

	return rt, nil
}

// close flushes telemetry and stops the metrics endpoint.
func (rt *runtime) close(ctx context.Context) {
	if rt.metricsSrv != nil {
		shutdownCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		_ = rt.metricsSrv.Shutdown(shutdownCtx)
		cancel()
	}
	if err := rt.tracer.Shutdown(ctx); err != nil {
		rt.logger.WithError(err).Warn("failed to flush spans")
	}
}

// runContext builds the shared context every task receives.
func (rt *runtime) runContext(dryRun, bail bool) *engine.RunContext {
	return &engine.RunContext{
		Config:   rt.handle,
		Facts:    rt.facts,
		Exec:     executil.NewLocalRunner(),
		Metrics:  rt.metrics,
		DryRun:   dryRun,
		Bail:     bail,
		Parallel: rt.settings.Parallel,
	}
}

// gate evaluates the policies against the manifest and reports violations.
// An error-severity violation blocks the run.
func (rt *runtime) gate(ctx context.Context) error {
	snap := rt.handle.Snapshot()
	result, err := rt.policy.EvaluateManifest(ctx, &snap.Manifest, rt.facts)
	if err != nil {
		return fmt.Errorf("policy evaluation failed: %w", err)
	}

	for _, warning := range result.Warnings {
		rt.term.Warnf("%s", warning)
	}
	for _, v := range result.Violations {
		if v.Severity == policy.SeverityError {
			rt.term.Errorf("policy %s: %s", v.Policy, v.Message)
		} else {
			rt.term.Warnf("policy %s: %s", v.Policy, v.Message)
		}
	}

	if !result.Allowed {
		return fmt.Errorf("manifest rejected by policy")
	}
	return nil
}

// executeRun is the shared body of apply, plan, and remove: policy gate,
// manifest watch, scheduled execution, history record.
func (rt *runtime) executeRun(ctx context.Context, tasks []engine.Task, dryRun, bail bool) error {
	if err := rt.gate(ctx); err != nil {
		return err
	}

	watcher, err := config.WatchManifest(rt.handle, rt.parser, rt.logger)
	if err != nil {
		rt.logger.WithError(err).Warn("manifest watch unavailable")
	} else {
		defer watcher.Close()
	}

	sum := engine.NewSummary()
	log := rt.logger.WithRunID(sum.RunID)
	log.WithField("dry_run", dryRun).WithField("parallel", rt.settings.Parallel).
		Info("run started")

	runCtx, span := rt.tracer.StartRun(ctx, sum.RunID, dryRun)
	sched := engine.NewScheduler(rt.term, telemetry.NewTimeline(rt.logger), rt.tracer)
	runErr := sched.Run(runCtx, tasks, rt.runContext(dryRun, bail), sum)
	telemetry.EndSpan(span, runErr)
	if runErr != nil {
		return runErr
	}

	for _, rec := range sum.Records() {
		rt.metrics.RecordTask(rec.Name, string(rec.Outcome), rec.Duration.Seconds())
	}

	rt.term.Infof("%s", sum.Line())

	status := stores.RunStatusOK
	switch {
	case sum.Failed() > 0:
		status = stores.RunStatusFailed
	case dryRun:
		status = stores.RunStatusDryRun
	}
	rt.metrics.RecordRun(string(status))

	if err := rt.saveHistory(ctx, sum, status, dryRun); err != nil {
		log.WithError(err).Warn("failed to record run history")
	}

	log.WithField("status", string(status)).Info("run finished")

	if sum.Failed() > 0 {
		return fmt.Errorf("%d task(s) failed", sum.Failed())
	}
	return nil
}

// saveHistory writes the run and its task records to the history store.
func (rt *runtime) saveHistory(ctx context.Context, sum *engine.Summary, status stores.RunStatus, dryRun bool) error {
	store, err := stores.NewSQLiteStore(rt.settings.StorePath)
	if err != nil {
		return err
	}
	if err := store.Init(ctx); err != nil {
		return err
	}
	defer store.Close()

	run := &stores.Run{
		ID:         sum.RunID,
		Status:     status,
		DryRun:     dryRun,
		Summary:    sum.Line(),
		StartedAt:  sum.StartedAt,
		FinishedAt: time.Now(),
	}

	records := make([]stores.TaskRecord, 0, len(sum.Records()))
	for _, rec := range sum.Records() {
		records = append(records, stores.TaskRecord{
			RunID:      sum.RunID,
			Task:       rec.Name,
			Outcome:    string(rec.Outcome),
			Message:    rec.Message,
			DurationMs: rec.Duration.Milliseconds(),
		})
	}

	return store.SaveRun(ctx, run, records)
}
