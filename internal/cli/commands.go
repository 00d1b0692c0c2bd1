package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"syscall"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/matrixci/matrixci/internal/cache"
	"github.com/matrixci/matrixci/internal/config"
	"github.com/matrixci/matrixci/internal/errors"
	"github.com/matrixci/matrixci/internal/executor"
	"github.com/matrixci/matrixci/internal/matrix"
	"github.com/matrixci/matrixci/internal/output"
	"github.com/matrixci/matrixci/internal/report"
	"github.com/matrixci/matrixci/internal/scheduler"
	"github.com/matrixci/matrixci/internal/schema"
	"github.com/matrixci/matrixci/internal/toolchain"
)

// matrixFile picks the document path from positional args.
func matrixFile(args []string) string {
	if len(args) > 0 {
		return args[0]
	}
	return DefaultMatrixFile
}

// loadMatrix validates and loads a matrix document, printing warnings.
func loadMatrix(path string) (*config.Matrix, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Configf("cannot read matrix file: %v", err)
	}

	if err := schema.ValidateMatrix(data); err != nil {
		return nil, errors.Configf("%v", err)
	}

	m, warnings, err := config.LoadAndValidate(path)
	for _, w := range warnings {
		out.Warning("%s", w)
	}
	if err != nil {
		return nil, errors.Configf("%v", err)
	}
	return m, nil
}

// cmdRun executes the matrix and reports a verdict.
func cmdRun(args []string, opts *GlobalOptions) int {
	path := matrixFile(args)
	m, err := loadMatrix(path)
	if err != nil {
		out.ErrorPrefix("%v", err)
		return errors.GetExitCode(err)
	}

	if !triggerMatches(m.On, opts.Event, opts.Ref) {
		if opts.Ref != "" {
			out.Info("event %q on %q does not trigger %q; nothing to run", opts.Event, opts.Ref, m.Name)
		} else {
			out.Info("event %q does not trigger %q; nothing to run", opts.Event, m.Name)
		}
		return errors.ExitSuccess
	}

	jobs := matrix.Expand(m)
	if len(jobs) == 0 {
		out.Info("matrix %q expands to no jobs", m.Name)
		return errors.ExitSuccess
	}

	if opts.DryRun {
		out.Info("matrix %q would run %d jobs:", m.Name, len(jobs))
		printJobs(jobs)
		return errors.ExitSuccess
	}

	cacheDir := opts.CacheDir
	if cacheDir == "" {
		cacheDir = defaultCacheDir()
	}
	store, err := cache.NewFSStore(cacheDir)
	if err != nil {
		out.ErrorPrefix("%v", errors.Environmentf("cache store unavailable: %v", err))
		return errors.ExitEnvironmentError
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sched := scheduler.New(
		toolchain.NewResolver(&toolchain.DefaultInstaller{Custom: m.Toolchains}),
		cache.NewManager(store),
		executor.New(executor.NewShellSpawner(), ""),
		scheduler.NewGroupRegistry(),
		opts.Jobs,
		out,
	)

	out.PhaseHeader(fmt.Sprintf("Running %s (%d jobs, budget %d)", m.Name, len(jobs), opts.Jobs))
	run := sched.Run(ctx, m.Name, opts.Event, m.Concurrency, jobs)

	report.Print(run, out)
	if run.Verdict != report.VerdictPass {
		return errors.ExitRuntimeError
	}
	return errors.ExitSuccess
}

// cmdValidate checks a matrix document and prints warnings.
func cmdValidate(args []string) int {
	path := matrixFile(args)
	m, err := loadMatrix(path)
	if err != nil {
		out.ErrorPrefix("%v", err)
		return errors.GetExitCode(err)
	}

	jobs := matrix.Expand(m)
	out.Info("%s is valid (%d groups, %d jobs)", path, len(m.Groups), len(jobs))
	return errors.ExitSuccess
}

// cmdTargets lists the expanded jobs without running them.
func cmdTargets(args []string) int {
	path := matrixFile(args)
	m, err := loadMatrix(path)
	if err != nil {
		out.ErrorPrefix("%v", err)
		return errors.GetExitCode(err)
	}

	printJobs(matrix.Expand(m))
	return errors.ExitSuccess
}

func printJobs(jobs []matrix.JobSpec) {
	items := make([]string, 0, len(jobs))
	for _, j := range jobs {
		items = append(items, fmt.Sprintf("%-44s %s, %d steps", j.ID, j.Executor, len(j.Steps)))
	}
	out.List(items)
}

// triggerMatches reports whether the named event on the given ref starts a
// run for this document. An absent event section means the event never
// triggers; an empty branch list matches any ref.
func triggerMatches(on *config.TriggerConfig, event, ref string) bool {
	if on == nil {
		return false
	}

	var ev *config.EventConfig
	switch event {
	case "push":
		ev = on.Push
	case "pull_request":
		ev = on.PullRequest
	}
	if ev == nil {
		return false
	}

	if len(ev.Branches) == 0 {
		return true
	}
	for _, branch := range ev.Branches {
		if branch == ref {
			return true
		}
	}
	return false
}

// defaultJobs is the concurrency budget when --jobs is not given.
func defaultJobs() int {
	return runtime.NumCPU()
}

// defaultCacheDir is the cache location when --cache-dir is not given.
func defaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, "matrixci")
	}
	return ".matrixci-cache"
}

func printExamples(w *output.Writer) {
	w.HelpSection("Examples:")
	titleCase := cases.Title(language.English)
	for _, cmd := range []string{"run", "validate"} {
		w.HelpExample(fmt.Sprintf("matrixci %s ci.yaml", cmd), fmt.Sprintf("%s the ci.yaml matrix", titleCase.String(cmd)))
	}
	w.HelpExample("matrixci run --jobs 4 --event pull_request", "Run with a budget of 4 as a pull request")
	w.HelpExample("matrixci targets", "List jobs from "+DefaultMatrixFile)
	w.Println("")
}
