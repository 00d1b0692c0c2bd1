// Package errors provides structured error types and exit codes for matrixci.
package errors

import (
	"fmt"
)

// Exit codes reported by the CLI.
const (
	ExitSuccess          = 0 // Success (verdict Pass)
	ExitRuntimeError     = 1 // Runtime error or verdict Fail
	ExitConfigError      = 2 // Configuration error (invalid matrix document, etc.)
	ExitEnvironmentError = 3 // Environment error (cache store unavailable, missing shell, etc.)
)

// ErrorKind represents the type of error.
type ErrorKind int

const (
	KindRuntime ErrorKind = iota
	KindConfig
	KindValidation
	KindUnresolvedTarget
	KindEnvironment
)

// Error is the base error type for matrixci.
type Error struct {
	Kind    ErrorKind
	Message string
	Target  string // Target identifier if applicable
	Step    string // Step name if applicable
	Cause   error  // Underlying error
}

func (e *Error) Error() string {
	if e.Target != "" && e.Step != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Target, e.Step, e.Message)
	}
	if e.Target != "" {
		return fmt.Sprintf("[%s] %s", e.Target, e.Message)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// ExitCode returns the appropriate exit code for this error.
func (e *Error) ExitCode() int {
	switch e.Kind {
	case KindConfig, KindValidation:
		return ExitConfigError
	case KindEnvironment:
		return ExitEnvironmentError
	default:
		return ExitRuntimeError
	}
}

// New creates a new runtime error.
func New(message string) *Error {
	return &Error{
		Kind:    KindRuntime,
		Message: message,
	}
}

// Newf creates a new runtime error with formatting.
func Newf(format string, args ...interface{}) *Error {
	return New(fmt.Sprintf(format, args...))
}

// Config creates a new configuration error.
func Config(message string) *Error {
	return &Error{
		Kind:    KindConfig,
		Message: message,
	}
}

// Configf creates a new configuration error with formatting.
func Configf(format string, args ...interface{}) *Error {
	return Config(fmt.Sprintf(format, args...))
}

// Environment creates a new environment error.
func Environment(message string) *Error {
	return &Error{
		Kind:    KindEnvironment,
		Message: message,
	}
}

// Environmentf creates a new environment error with formatting.
func Environmentf(format string, args ...interface{}) *Error {
	return Environment(fmt.Sprintf(format, args...))
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) *Error {
	return &Error{
		Kind:    KindRuntime,
		Message: message,
		Cause:   err,
	}
}

// StepError creates an error for a specific step of a target's job.
func StepError(target, step, message string) *Error {
	return &Error{
		Kind:    KindRuntime,
		Target:  target,
		Step:    step,
		Message: message,
	}
}

// UnresolvedTarget creates an error for a target whose toolchain could not
// be resolved. The error is attributed to the target, never to the run.
func UnresolvedTarget(target string, cause error) *Error {
	return &Error{
		Kind:    KindUnresolvedTarget,
		Target:  target,
		Message: "toolchain unavailable",
		Cause:   cause,
	}
}

// IsUnresolvedTarget reports whether err is or wraps an UnresolvedTarget error.
func IsUnresolvedTarget(err error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok && e.Kind == KindUnresolvedTarget {
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// GetExitCode returns the exit code for an error.
func GetExitCode(err error) int {
	if err == nil {
		return ExitSuccess
	}
	if e, ok := err.(*Error); ok {
		return e.ExitCode()
	}
	return ExitRuntimeError
}
