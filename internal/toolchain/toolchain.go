// Package toolchain resolves target identifiers to executable toolchains.
package toolchain

import "context"

// Executor is a handle to a resolved toolchain for one (target, kind) pair.
type Executor struct {
	Target  string // Target identifier (triple or channel)
	Kind    string // config.ExecutorNative or config.ExecutorCross
	Command string // Executor command prefix (e.g. "cross", "cargo")
}

// Installer obtains (installs or locates) the toolchain for a target.
// Implementations may perform network installation; failures surface as
// errors carrying the target identifier.
type Installer interface {
	Install(ctx context.Context, target, kind string) (*Executor, error)
}
