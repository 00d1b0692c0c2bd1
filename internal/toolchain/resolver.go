package toolchain

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/matrixci/matrixci/internal/config"
	matrixerrors "github.com/matrixci/matrixci/internal/errors"
)

// Resolver resolves (target, kind) pairs to executor handles, memoized for
// the lifetime of one execution run. Installation is expensive, so repeated
// jobs for the same target within a run share a single installation; a new
// run gets a fresh resolver so stale toolchains cannot leak across runs.
type Resolver struct {
	installer Installer

	mu   sync.Mutex
	memo map[memoKey]*memoEntry
}

type memoKey struct {
	target string
	kind   string
}

type memoEntry struct {
	once sync.Once
	exec *Executor
	err  error
}

// NewResolver creates a resolver backed by the given installer.
func NewResolver(installer Installer) *Resolver {
	return &Resolver{
		installer: installer,
		memo:      make(map[memoKey]*memoEntry),
	}
}

// Resolve obtains the executor for a target, installing at most once per
// (target, kind) pair. Concurrent callers for the same pair share one
// installation. A failure is returned as an unresolved-target error
// attributed to the identifier; it is memoized so sibling jobs for the same
// target do not retry the installation within the run.
func (r *Resolver) Resolve(ctx context.Context, target, kind string) (*Executor, error) {
	key := memoKey{target: target, kind: kind}

	r.mu.Lock()
	entry, ok := r.memo[key]
	if !ok {
		entry = &memoEntry{}
		r.memo[key] = entry
	}
	r.mu.Unlock()

	entry.once.Do(func() {
		exec, err := r.installer.Install(ctx, target, kind)
		if err != nil {
			entry.err = matrixerrors.UnresolvedTarget(target, err)
			return
		}
		entry.exec = exec
	})

	return entry.exec, entry.err
}

// DefaultInstaller locates toolchains on the host: native targets resolve to
// the host toolchain, cross targets must be in the supported triple registry.
// Custom toolchain configuration overrides the executor command per kind and
// may name an install command, which runs at most once per kind when the
// executor command is not already on PATH.
type DefaultInstaller struct {
	Custom map[string]config.ToolchainConfig

	mu        sync.Mutex
	installed map[string]error

	// Overridable in tests.
	lookPath   func(file string) (string, error)
	runInstall func(ctx context.Context, command string) error
}

// Install implements the Installer boundary.
func (d *DefaultInstaller) Install(ctx context.Context, target, kind string) (*Executor, error) {
	switch kind {
	case config.ExecutorCross:
		if !KnownCrossTarget(target) {
			return nil, fmt.Errorf("target %q is not supported by the cross executor", target)
		}
		command := d.command(kind, "cross")
		if err := d.ensureCommand(ctx, kind, command); err != nil {
			return nil, err
		}
		return &Executor{
			Target:  target,
			Kind:    kind,
			Command: command,
		}, nil

	case config.ExecutorNative:
		command := d.command(kind, "")
		if err := d.ensureCommand(ctx, kind, command); err != nil {
			return nil, err
		}
		return &Executor{
			Target:  target,
			Kind:    kind,
			Command: command,
		}, nil

	default:
		return nil, fmt.Errorf("unknown executor kind %q", kind)
	}
}

// command returns the configured executor command for a kind, falling back
// to the built-in default.
func (d *DefaultInstaller) command(kind, fallback string) string {
	if tc, ok := d.Custom[kind]; ok && tc.Command != "" {
		return tc.Command
	}
	return fallback
}

// ensureCommand makes the executor command available when the kind has an
// install command configured: if the command's binary is not on PATH, the
// install command runs at most once per kind, and every target of that kind
// shares the result. Kinds without an install command resolve as-is.
func (d *DefaultInstaller) ensureCommand(ctx context.Context, kind, command string) error {
	install := ""
	if tc, ok := d.Custom[kind]; ok {
		install = tc.Install
	}
	if install == "" || command == "" {
		return nil
	}

	look := d.lookPath
	if look == nil {
		look = exec.LookPath
	}
	binary := strings.Fields(command)[0]
	if _, err := look(binary); err == nil {
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if err, done := d.installed[kind]; done {
		return err
	}

	run := d.runInstall
	if run == nil {
		run = runShell
	}
	err := run(ctx, install)
	if err != nil {
		err = fmt.Errorf("install command for %s executor failed: %w", kind, err)
	}
	if d.installed == nil {
		d.installed = make(map[string]error)
	}
	d.installed[kind] = err
	return err
}

// runShell executes an install command through the system shell.
func runShell(ctx context.Context, command string) error {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(out)))
	}
	return nil
}
