// Package scheduler dispatches expanded jobs through a bounded worker pool
// and enforces single-flighting per concurrency group.
package scheduler

import (
	"context"
	"time"

	"github.com/matrixci/matrixci/internal/cache"
	"github.com/matrixci/matrixci/internal/executor"
	"github.com/matrixci/matrixci/internal/matrix"
	"github.com/matrixci/matrixci/internal/output"
	"github.com/matrixci/matrixci/internal/report"
	"github.com/matrixci/matrixci/internal/toolchain"
)

// Scheduler runs a set of jobs to terminal states under a concurrency budget.
// It exclusively owns the in-flight executors for its run; callers only ever
// see the sealed run record.
type Scheduler struct {
	resolver *toolchain.Resolver
	cache    *cache.Manager
	executor *executor.Executor
	registry *GroupRegistry
	budget   int
	out      *output.Writer
}

// New creates a scheduler. Budget is the maximum number of jobs in flight at
// once; values below one are clamped to one.
func New(resolver *toolchain.Resolver, cacheMgr *cache.Manager, exec *executor.Executor, registry *GroupRegistry, budget int, out *output.Writer) *Scheduler {
	if budget < 1 {
		budget = 1
	}
	return &Scheduler{
		resolver: resolver,
		cache:    cacheMgr,
		executor: exec,
		registry: registry,
		budget:   budget,
		out:      out,
	}
}

// Run executes all jobs and returns the sealed run record.
//
// The concurrency group is claimed before any job is dispatched; claiming
// supersedes a prior holder of the same group (its jobs are cancelled and
// awaited first). Within the run, jobs are independent: one job failing
// never cancels its siblings, and every dispatched job reaches a terminal
// state unless this run is itself superseded. Outcomes are returned in job
// order regardless of completion order.
func (s *Scheduler) Run(ctx context.Context, name, trigger, group string, jobs []matrix.JobSpec) *report.Run {
	start := time.Now()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	release := s.registry.Claim(group, cancel)
	defer release()

	outcomes := make([]executor.Outcome, len(jobs))
	sem := make(chan struct{}, s.budget)
	done := make(chan int)

	for i := range jobs {
		go func(i int, spec matrix.JobSpec) {
			sem <- struct{}{}
			defer func() { <-sem }()
			outcomes[i] = s.runJob(runCtx, spec)
			done <- i
		}(i, jobs[i])
	}
	for range jobs {
		<-done
	}

	return report.Seal(name, trigger, group, outcomes, s.cache.ExactHits(), start)
}

// runJob drives one job through the pipeline: resolve toolchain, restore
// cache, execute steps, commit cache.
func (s *Scheduler) runJob(ctx context.Context, spec matrix.JobSpec) executor.Outcome {
	s.out.JobStart(spec.ID)

	tc, err := s.resolver.Resolve(ctx, spec.Target, spec.Executor)
	if err != nil {
		// Resolution failures are attributed to this job only; the
		// executor is never invoked for an unresolved target.
		s.out.Warning("%s: %s", spec.ID, err.Error())
		return executor.Outcome{
			Job:        spec,
			Status:     executor.StatusUnresolved,
			FailedStep: -1,
			Err:        err,
		}
	}

	fingerprint := cache.FingerprintFile(spec.CacheLockfile)
	handle := s.cache.Acquire(cache.Inputs{
		Namespace:   spec.CacheNamespace,
		Fingerprint: fingerprint,
	})

	outcome := s.executor.Execute(ctx, spec, tc)
	outcome.CacheHit = handle.Hit()

	// Only a successful job leaves new state worth committing. A write
	// failure is a warning, never a job failure.
	var newState []byte
	if outcome.Status == executor.StatusSuccess {
		newState = []byte(fingerprint)
	}
	if err := s.cache.Release(handle, newState); err != nil {
		s.out.Warning("%s", err.Error())
	}

	return outcome
}
