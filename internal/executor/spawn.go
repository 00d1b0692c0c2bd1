package executor

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
)

// shellSpawner runs commands through the system shell. Each process is
// started in its own process group so cancellation can terminate the shell
// together with everything it spawned.
type shellSpawner struct{}

// NewShellSpawner creates the default process execution boundary.
func NewShellSpawner() Spawner {
	return shellSpawner{}
}

// Spawn runs command in dir, capturing interleaved stdout and stderr.
// On context cancellation the process group is killed and the partial
// output is returned alongside the context error.
func (shellSpawner) Spawn(ctx context.Context, command, dir string, env []string) (string, int, error) {
	cmd := shellCommand(command)
	cmd.Dir = dir
	cmd.Env = env

	var buf bytes.Buffer
	cmd.Stdout = &buf
	cmd.Stderr = &buf

	configureProcess(cmd)

	if err := cmd.Start(); err != nil {
		return "", -1, err
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case <-ctx.Done():
		terminateProcess(cmd)
		<-done
		return buf.String(), -1, ctx.Err()

	case err := <-done:
		code := cmd.ProcessState.ExitCode()
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			// Non-zero exit is a step failure, reported via the exit
			// code rather than as a spawn error.
			return buf.String(), code, nil
		}
		return buf.String(), code, err
	}
}
