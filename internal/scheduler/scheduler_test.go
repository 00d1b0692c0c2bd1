package scheduler

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/matrixci/matrixci/internal/cache"
	"github.com/matrixci/matrixci/internal/executor"
	"github.com/matrixci/matrixci/internal/matrix"
	"github.com/matrixci/matrixci/internal/output"
	"github.com/matrixci/matrixci/internal/report"
	"github.com/matrixci/matrixci/internal/toolchain"
)

// fakeInstaller resolves every target except those listed in fail.
type fakeInstaller struct {
	fail map[string]bool
}

func (f *fakeInstaller) Install(_ context.Context, target, kind string) (*toolchain.Executor, error) {
	if f.fail[target] {
		return nil, fmt.Errorf("no toolchain for %s", target)
	}
	return &toolchain.Executor{Target: target, Kind: kind}, nil
}

// fakeSpawner scripts exit codes per command and tracks concurrency.
type fakeSpawner struct {
	exitFor  map[string]int
	delay    time.Duration
	blockCtx bool

	started sync.Once
	running chan struct{} // Closed when the first spawn begins

	inFlight atomic.Int64
	maxSeen  atomic.Int64
	calls    atomic.Int64
}

func newFakeSpawner() *fakeSpawner {
	return &fakeSpawner{running: make(chan struct{})}
}

func (f *fakeSpawner) Spawn(ctx context.Context, command, dir string, env []string) (string, int, error) {
	f.calls.Add(1)
	f.started.Do(func() { close(f.running) })

	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		max := f.maxSeen.Load()
		if n <= max || f.maxSeen.CompareAndSwap(max, n) {
			break
		}
	}

	if f.blockCtx {
		<-ctx.Done()
		return "", -1, ctx.Err()
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return "", -1, ctx.Err()
		}
	}
	return "ran: " + command, f.exitFor[command], nil
}

func testJobs(targets ...string) []matrix.JobSpec {
	jobs := make([]matrix.JobSpec, 0, len(targets))
	for _, target := range targets {
		jobs = append(jobs, matrix.JobSpec{
			ID:             "cross/" + target,
			Group:          "cross",
			Target:         target,
			Executor:       "native",
			Steps:          []matrix.Step{{Name: "build", Run: "build " + target}},
			CacheNamespace: "deps",
		})
	}
	return jobs
}

func newTestScheduler(t *testing.T, installer toolchain.Installer, spawner executor.Spawner, registry *GroupRegistry, budget int) *Scheduler {
	t.Helper()
	store, err := cache.NewFSStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewFSStore() error = %v", err)
	}
	mgr := cache.NewManager(store)
	out := output.NewWithWriters(&bytes.Buffer{}, &bytes.Buffer{}, false)
	out.SetQuiet(true)
	return New(toolchain.NewResolver(installer), mgr, executor.New(spawner, ""), registry, budget, out)
}

func TestRun_AllJobsReachTerminalStates(t *testing.T) {
	spawner := newFakeSpawner()
	s := newTestScheduler(t, &fakeInstaller{}, spawner, NewGroupRegistry(), 2)

	jobs := testJobs("a", "b", "c")
	run := s.Run(context.Background(), "ci", "push", "ci", jobs)

	if run.Verdict != report.VerdictPass {
		t.Fatalf("Verdict = %q, want pass", run.Verdict)
	}
	if len(run.Outcomes) != len(jobs) {
		t.Fatalf("len(Outcomes) = %d, want %d", len(run.Outcomes), len(jobs))
	}
	// Outcomes keep job order regardless of completion order.
	for i, o := range run.Outcomes {
		if o.Job.ID != jobs[i].ID {
			t.Errorf("Outcomes[%d].Job.ID = %q, want %q", i, o.Job.ID, jobs[i].ID)
		}
		if !o.Status.Terminal() {
			t.Errorf("Outcomes[%d].Status = %q, not terminal", i, o.Status)
		}
	}
}

func TestRun_UnresolvedTargetDoesNotExecute(t *testing.T) {
	spawner := newFakeSpawner()
	installer := &fakeInstaller{fail: map[string]bool{"b": true}}
	s := newTestScheduler(t, installer, spawner, NewGroupRegistry(), 4)

	run := s.Run(context.Background(), "ci", "push", "ci", testJobs("a", "b", "c"))

	if run.Verdict != report.VerdictFail {
		t.Fatalf("Verdict = %q, want fail", run.Verdict)
	}
	if run.Outcomes[1].Status != executor.StatusUnresolved {
		t.Errorf("Outcomes[1].Status = %q, want unresolved", run.Outcomes[1].Status)
	}
	// Siblings complete; only the unresolved job is skipped, so exactly
	// two step commands ever spawn.
	if run.Outcomes[0].Status != executor.StatusSuccess || run.Outcomes[2].Status != executor.StatusSuccess {
		t.Errorf("sibling statuses = %q, %q, want success", run.Outcomes[0].Status, run.Outcomes[2].Status)
	}
	if got := spawner.calls.Load(); got != 2 {
		t.Errorf("spawn calls = %d, want 2", got)
	}
	if len(run.Failures) != 1 || run.Failures[0].Target != "b" {
		t.Errorf("Failures = %+v, want one entry for target b", run.Failures)
	}
}

func TestRun_JobFailureNeverCancelsSiblings(t *testing.T) {
	spawner := newFakeSpawner()
	spawner.exitFor = map[string]int{"build b": 1}
	s := newTestScheduler(t, &fakeInstaller{}, spawner, NewGroupRegistry(), 1)

	run := s.Run(context.Background(), "ci", "push", "ci", testJobs("a", "b", "c"))

	if run.Verdict != report.VerdictFail {
		t.Fatalf("Verdict = %q, want fail", run.Verdict)
	}
	// The siblings of the failing job still run to success.
	if run.Outcomes[0].Status != executor.StatusSuccess {
		t.Errorf("Outcomes[0].Status = %q, want success", run.Outcomes[0].Status)
	}
	if run.Outcomes[2].Status != executor.StatusSuccess {
		t.Errorf("Outcomes[2].Status = %q, want success", run.Outcomes[2].Status)
	}
	if got := spawner.calls.Load(); got != 3 {
		t.Errorf("spawn calls = %d, want 3", got)
	}
	if len(run.Failures) != 1 {
		t.Errorf("len(Failures) = %d, want 1", len(run.Failures))
	}
}

func TestRun_BudgetBoundsConcurrency(t *testing.T) {
	spawner := newFakeSpawner()
	spawner.delay = 20 * time.Millisecond
	s := newTestScheduler(t, &fakeInstaller{}, spawner, NewGroupRegistry(), 2)

	s.Run(context.Background(), "ci", "push", "ci", testJobs("a", "b", "c", "d", "e", "f"))

	if max := spawner.maxSeen.Load(); max > 2 {
		t.Errorf("max concurrent spawns = %d, want <= 2", max)
	}
	if got := spawner.calls.Load(); got != 6 {
		t.Errorf("spawn calls = %d, want 6", got)
	}
}

func TestRun_SupersessionCancelsPriorRun(t *testing.T) {
	registry := NewGroupRegistry()

	blocking := newFakeSpawner()
	blocking.blockCtx = true
	first := newTestScheduler(t, &fakeInstaller{}, blocking, registry, 2)

	fast := newFakeSpawner()
	second := newTestScheduler(t, &fakeInstaller{}, fast, registry, 2)

	firstDone := make(chan *report.Run, 1)
	go func() {
		firstDone <- first.Run(context.Background(), "ci", "push", "ci", testJobs("a", "b"))
	}()

	// Wait until the first run has a step in flight, then claim the group.
	<-blocking.running
	run2 := second.Run(context.Background(), "ci", "push", "ci", testJobs("a", "b"))

	run1 := <-firstDone

	// The superseded run's in-flight jobs end Cancelled, not Failed.
	for i, o := range run1.Outcomes {
		if o.Status != executor.StatusCancelled {
			t.Errorf("run1 Outcomes[%d].Status = %q, want cancelled", i, o.Status)
		}
	}
	if run1.Verdict != report.VerdictFail {
		t.Errorf("run1 Verdict = %q, want fail", run1.Verdict)
	}
	if run2.Verdict != report.VerdictPass {
		t.Errorf("run2 Verdict = %q, want pass", run2.Verdict)
	}
	if registry.Active("ci") {
		t.Error("group still held after both runs sealed")
	}
}

func TestRun_IndependentGroupsRunConcurrently(t *testing.T) {
	registry := NewGroupRegistry()

	blocking := newFakeSpawner()
	blocking.blockCtx = true
	first := newTestScheduler(t, &fakeInstaller{}, blocking, registry, 1)

	fast := newFakeSpawner()
	second := newTestScheduler(t, &fakeInstaller{}, fast, registry, 1)

	ctx1, cancel1 := context.WithCancel(context.Background())
	defer cancel1()
	firstDone := make(chan *report.Run, 1)
	go func() {
		firstDone <- first.Run(ctx1, "ci", "push", "nightly", testJobs("a"))
	}()
	<-blocking.running

	// A different group is not blocked by the nightly holder.
	run2 := second.Run(context.Background(), "ci", "push", "ci", testJobs("b"))
	if run2.Verdict != report.VerdictPass {
		t.Fatalf("run2 Verdict = %q, want pass", run2.Verdict)
	}

	cancel1()
	<-firstDone
}

func TestRun_CacheHitsOnRerun(t *testing.T) {
	dir := t.TempDir()
	jobs := testJobs("a", "b", "c")

	runOnce := func() *report.Run {
		store, err := cache.NewFSStore(dir)
		if err != nil {
			t.Fatalf("NewFSStore() error = %v", err)
		}
		out := output.NewWithWriters(&bytes.Buffer{}, &bytes.Buffer{}, false)
		out.SetQuiet(true)
		s := New(toolchain.NewResolver(&fakeInstaller{}), cache.NewManager(store), executor.New(newFakeSpawner(), ""), NewGroupRegistry(), 2, out)
		return s.Run(context.Background(), "ci", "push", "ci", jobs)
	}

	run1 := runOnce()
	if run1.CacheHits != 0 {
		t.Errorf("first run CacheHits = %d, want 0", run1.CacheHits)
	}

	// An unchanged lock state makes every job an exact hit on the rerun.
	run2 := runOnce()
	if run2.CacheHits != len(jobs) {
		t.Errorf("second run CacheHits = %d, want %d", run2.CacheHits, len(jobs))
	}
	for i, o := range run2.Outcomes {
		if !o.CacheHit {
			t.Errorf("Outcomes[%d].CacheHit = false on rerun", i)
		}
	}
}
