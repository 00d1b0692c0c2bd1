// Package executor runs one job's ordered step sequence to a terminal state.
package executor

import (
	"context"
	"fmt"
	"os"
	"time"

	matrixerrors "github.com/matrixci/matrixci/internal/errors"
	"github.com/matrixci/matrixci/internal/matrix"
	"github.com/matrixci/matrixci/internal/toolchain"
)

// Status is a job's terminal (or in-progress) state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusRunning    Status = "running"
	StatusSuccess    Status = "success"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
	StatusTimedOut   Status = "timed_out"
	StatusUnresolved Status = "unresolved"
)

// Terminal reports whether the status is final.
func (s Status) Terminal() bool {
	switch s {
	case StatusSuccess, StatusFailed, StatusCancelled, StatusTimedOut, StatusUnresolved:
		return true
	}
	return false
}

// StepResult captures one executed step's output, keyed by step index so a
// diagnostic trace is available for every terminal status.
type StepResult struct {
	Index    int
	Name     string
	Output   string
	ExitCode int
	Duration time.Duration
}

// Outcome is the immutable result of one job reaching a terminal state.
type Outcome struct {
	Job        matrix.JobSpec
	Status     Status
	FailedStep int // Index of the failing step; -1 when not applicable
	Steps      []StepResult
	Err        error
	Duration   time.Duration
	CacheHit   bool
}

// Spawner is the process execution boundary. Implementations must honor
// context cancellation by terminating the spawned process group.
type Spawner interface {
	Spawn(ctx context.Context, command, dir string, env []string) (output string, exitCode int, err error)
}

// Executor runs job step sequences. Steps run strictly in order; the state
// machine only moves forward through step indices or to a terminal state.
type Executor struct {
	spawner Spawner
	workDir string
}

// New creates an executor that spawns steps through the given Spawner in
// workDir (empty means the current directory).
func New(spawner Spawner, workDir string) *Executor {
	return &Executor{spawner: spawner, workDir: workDir}
}

// Execute runs the job to a terminal state.
//
// The first failing step stops the job immediately: status Failed, the
// failing step index recorded, later steps never invoked. Cancellation is
// checked at step boundaries and honored mid-step by the spawner killing
// the process group; it yields status Cancelled, distinct from Failed. An
// exceeded job timeout yields TimedOut. There are no retries at this layer.
func (e *Executor) Execute(ctx context.Context, spec matrix.JobSpec, tc *toolchain.Executor) Outcome {
	start := time.Now()
	outcome := Outcome{
		Job:        spec,
		Status:     StatusSuccess,
		FailedStep: -1,
	}

	if spec.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, spec.Timeout)
		defer cancel()
	}

	env := buildEnv(spec, tc)

	for i, step := range spec.Steps {
		// Boundary check before starting the next step.
		if ctx.Err() != nil {
			outcome.Status = interruptStatus(ctx)
			outcome.Err = ctx.Err()
			break
		}

		stepStart := time.Now()
		out, code, err := e.spawner.Spawn(ctx, step.Run, e.workDir, env)
		outcome.Steps = append(outcome.Steps, StepResult{
			Index:    i,
			Name:     step.Name,
			Output:   out,
			ExitCode: code,
			Duration: time.Since(stepStart),
		})

		if ctx.Err() != nil {
			outcome.Status = interruptStatus(ctx)
			if outcome.Status == StatusTimedOut {
				outcome.FailedStep = i
			}
			outcome.Err = ctx.Err()
			break
		}

		if err != nil || code != 0 {
			outcome.Status = StatusFailed
			outcome.FailedStep = i
			detail := fmt.Sprintf("exit status %d", code)
			if err != nil {
				detail = err.Error()
			}
			outcome.Err = matrixerrors.StepError(spec.Target, step.Name, detail)
			break
		}
	}

	outcome.Duration = time.Since(start)
	return outcome
}

// interruptStatus maps a done context to the matching terminal status.
func interruptStatus(ctx context.Context) Status {
	if ctx.Err() == context.DeadlineExceeded {
		return StatusTimedOut
	}
	return StatusCancelled
}

// buildEnv assembles the step environment. Precedence (highest last):
// inherited process env, job env, executor identification variables.
func buildEnv(spec matrix.JobSpec, tc *toolchain.Executor) []string {
	env := os.Environ()
	for k, v := range spec.Env {
		env = append(env, k+"="+v)
	}
	env = append(env, "MATRIX_TARGET="+spec.Target, "MATRIX_GROUP="+spec.Group)
	if tc != nil && tc.Command != "" {
		env = append(env, "MATRIX_EXECUTOR="+tc.Command)
	}
	return env
}
