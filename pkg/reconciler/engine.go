package reconciler

import (
	"context"
	"fmt"

	"github.com/cuemby/taskctl/pkg/cloudapi"
	"github.com/cuemby/taskctl/pkg/config"
	"github.com/cuemby/taskctl/pkg/log"
	"github.com/cuemby/taskctl/pkg/metrics"
	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"
)

// Options controls which phases run and with what tuning, mirroring the
// `service` subcommand's flags.
type Options struct {
	Threads                       int
	DryRun                        bool
	DeleteUnusedService           bool
	ServiceZeroKeep               bool
	WaitDelaySeconds              int
	WaitMaxAttempts               int
	PlacementStrategyBinpackFirst bool
}

// DefaultOptions mirrors the CLI's documented defaults.
func DefaultOptions() Options {
	return Options{
		Threads:             5,
		DeleteUnusedService: true,
		WaitDelaySeconds:    10,
		WaitMaxAttempts:     30,
	}
}

// Engine drives the phased reconciliation pipeline over a desired-state
// config.Result. Each phase enqueues one job per record into a bounded
// conc/pool worker pool and blocks on Wait() before the next phase starts
// — the direct expression of "enqueue jobs, then block on drain".
type Engine struct {
	clients []*cloudapi.Client
	opts    Options
	logger  zerolog.Logger
}

// NewEngine builds an Engine around a pre-built pool of CloudAPI clients,
// one per worker goroutine the pipeline will ever run concurrently;
// runPhase lends each running job a client that no other running job
// holds. opts' wait delay and attempt count are applied to every client.
func NewEngine(clients []*cloudapi.Client, opts Options) *Engine {
	if len(clients) == 0 {
		panic("reconciler: NewEngine requires at least one cloudapi.Client")
	}
	if opts.Threads < 1 {
		opts.Threads = 1
	}
	if opts.WaitDelaySeconds <= 0 {
		opts.WaitDelaySeconds = 10
	}
	if opts.WaitMaxAttempts <= 0 {
		opts.WaitMaxAttempts = 30
	}
	for _, c := range clients {
		c.WaitDelay = opts.WaitDelaySeconds
		c.WaitAttempts = opts.WaitMaxAttempts
	}
	return &Engine{
		clients: clients,
		opts:    opts,
		logger:  log.WithComponent("reconciler"),
	}
}

// clientFor returns the worker-assigned CloudAPI handle for job index i,
// drawn round-robin from the pre-built pool.
func (e *Engine) clientFor(i int) *cloudapi.Client {
	return e.clients[i%len(e.clients)]
}

func (e *Engine) workerCount(jobs int) int {
	n := e.opts.Threads
	if jobs < n {
		n = jobs
	}
	if n < 1 {
		n = 1
	}
	return n
}

// errorRecorder is the minimal contract runPhase needs from a record:
// something to flip to StatusError when a job fails or panics.
type errorRecorder interface {
	MarkError(error)
}

// runPhase submits one job per item into a bounded worker pool and blocks
// until every job completes. fn's returned error marks the record
// errored; a panic inside fn is recovered and also marks the record
// errored rather than escaping through conc's own panic-propagating
// Wait(), so one exotic bug in one record never aborts the whole phase.
func runPhase[T errorRecorder](e *Engine, phaseName string, items []T, fn func(ctx context.Context, client *cloudapi.Client, item T) error) {
	if len(items) == 0 {
		return
	}
	phaseLog := e.logger.With().Str("phase", phaseName).Logger()
	p := pool.New().WithMaxGoroutines(e.workerCount(len(items)))

	free := make(chan *cloudapi.Client, len(e.clients))
	for _, c := range e.clients {
		free <- c
	}

	for _, item := range items {
		item := item
		p.Go(func() {
			client := <-free
			defer func() { free <- client }()
			defer func() {
				if r := recover(); r != nil {
					err := fmt.Errorf("panic in %s: %v", phaseName, r)
					item.MarkError(err)
					phaseLog.Error().Interface("recovered", r).Msg("worker panic recovered")
				}
			}()
			if err := fn(context.Background(), client, item); err != nil {
				item.MarkError(err)
				phaseLog.Error().Err(err).Msg("job failed")
			}
		})
	}
	p.Wait()
}

// notErrored filters out records a prior phase already marked
// StatusError — the pipeline's short-circuit rule.
func notErrored[T interface {
	errorRecorder
	IsErrored() bool
}](items []T) []T {
	out := make([]T, 0, len(items))
	for _, item := range items {
		if !item.IsErrored() {
			out = append(out, item)
		}
	}
	return out
}

// Run executes the full 11-phase pipeline against result, or (when
// opts.DryRun) the read-only Fetch→Classify→Check-Delete→Check-Deploy
// subset. Returns a Report summarizing the run; the caller maps
// Report.Failed() to the process exit code.
func (e *Engine) Run(ctx context.Context, result *config.Result, targetEnvironment, templateGroup string) (*Report, error) {
	timer := metrics.NewTimer()
	defer timer.ObserveDuration(metrics.ReconciliationDuration)

	observedServices, observedTasks, err := e.fetch(ctx, result, targetEnvironment)
	if err != nil {
		return nil, fmt.Errorf("reconciler: fetch: %w", err)
	}

	deleteServices, deleteScheduledTasks := e.classify(result, observedServices, observedTasks, targetEnvironment, templateGroup)

	if e.opts.DryRun {
		e.logCheckDelete(deleteServices, deleteScheduledTasks)
		e.checkDeploy(ctx, result)
		return e.buildReport(result, deleteServices, deleteScheduledTasks), nil
	}

	if e.opts.DeleteUnusedService {
		e.deleteUnused(ctx, deleteServices, deleteScheduledTasks)
	} else {
		e.logCheckDelete(deleteServices, deleteScheduledTasks)
	}

	e.checkDeploy(ctx, result)

	buckets := partition(result.DeployServices)

	e.stopScheduledTasks(ctx, result.DeployScheduledTasks)
	e.stopBeforeDeploy(ctx, buckets)
	e.deployServices(ctx, buckets)
	e.startAfterDeploy(ctx, buckets)
	e.deployScheduledTasks(ctx, result.DeployScheduledTasks)

	metrics.Report(result.AllServices, result.AllScheduledTasks)

	return e.buildReport(result, deleteServices, deleteScheduledTasks), nil
}
