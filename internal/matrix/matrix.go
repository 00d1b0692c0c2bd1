// Package matrix expands a matrix document into concrete job specifications.
package matrix

import "time"

// Step is one named command within a job's ordered step sequence.
type Step struct {
	Name string
	Run  string
}

// JobSpec is a single concrete job produced by matrix expansion.
// Immutable once expanded.
type JobSpec struct {
	ID       string // "group/target", unique within the run
	Group    string
	Target   string
	Executor string // config.ExecutorNative or config.ExecutorCross
	Steps    []Step
	Env      map[string]string

	// Cache key inputs.
	CacheNamespace string
	CacheLockfile  string

	// Optional per-job wall-clock timeout; zero means unbounded.
	Timeout time.Duration
}
