// Package cli provides command-line interface functionality for matrixci.
package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matrixci/matrixci/internal/errors"
	"github.com/matrixci/matrixci/internal/output"
)

// Version is set at build time.
var Version = "dev"

// DefaultMatrixFile is used when no document path is given.
const DefaultMatrixFile = "matrix.yaml"

var out = output.New()

// Run executes the CLI with the given arguments and returns an exit code.
func Run(args []string) int {
	opts, remaining, err := parseGlobalFlags(args)
	if err != nil {
		out.ErrorPrefix("%v", err)
		return errors.ExitConfigError
	}

	out.SetQuiet(opts.Quiet)
	if opts.NoColor {
		out.SetColor(false)
	}

	if len(remaining) == 0 {
		printUsage(out)
		return errors.ExitSuccess
	}
	cmd := remaining[0]
	cmdArgs := remaining[1:]

	switch cmd {
	case "-h", "--help", "help":
		printUsage(out)
		return errors.ExitSuccess
	case "--version", "version":
		out.Println("matrixci %s", Version)
		return errors.ExitSuccess
	}

	switch cmd {
	case "run":
		return cmdRun(cmdArgs, opts)
	case "validate":
		return cmdValidate(cmdArgs)
	case "targets":
		return cmdTargets(cmdArgs)
	default:
		out.ErrorPrefix("unknown command %q", cmd)
		out.Errorln("Run 'matrixci help' for usage.")
		return errors.ExitConfigError
	}
}

// GlobalOptions holds parsed global flags.
type GlobalOptions struct {
	Jobs     int
	DryRun   bool
	CacheDir string
	Event    string
	Ref      string
	Quiet    bool
	NoColor  bool
}

// parseGlobalFlags manually parses global flags from arguments.
//
// Manual parsing is used instead of the stdlib flag package because flags may
// appear anywhere in the argument list, not just before the command, and
// error messages need usage hints.
func parseGlobalFlags(args []string) (*GlobalOptions, []string, error) {
	opts := &GlobalOptions{
		Jobs:  defaultJobs(),
		Event: "push",
	}
	var remaining []string

	i := 0
	for i < len(args) {
		arg := args[i]

		switch {
		case arg == "-q" || arg == "--quiet":
			opts.Quiet = true
			i++
		case arg == "--no-color":
			opts.NoColor = true
			i++
		case arg == "--dry-run":
			opts.DryRun = true
			i++
		case arg == "--jobs" || arg == "-j":
			if i+1 >= len(args) {
				return nil, nil, fmt.Errorf("--jobs requires a value")
			}
			n, err := strconv.Atoi(args[i+1])
			if err != nil || n < 1 {
				return nil, nil, fmt.Errorf("invalid --jobs value %q (want a positive integer)", args[i+1])
			}
			opts.Jobs = n
			i += 2
		case strings.HasPrefix(arg, "--jobs="):
			v := strings.TrimPrefix(arg, "--jobs=")
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 {
				return nil, nil, fmt.Errorf("invalid --jobs value %q (want a positive integer)", v)
			}
			opts.Jobs = n
			i++
		case arg == "--cache-dir":
			if i+1 >= len(args) {
				return nil, nil, fmt.Errorf("--cache-dir requires a value")
			}
			opts.CacheDir = args[i+1]
			i += 2
		case strings.HasPrefix(arg, "--cache-dir="):
			opts.CacheDir = strings.TrimPrefix(arg, "--cache-dir=")
			i++
		case arg == "--event":
			if i+1 >= len(args) {
				return nil, nil, fmt.Errorf("--event requires a value")
			}
			opts.Event = args[i+1]
			i += 2
		case strings.HasPrefix(arg, "--event="):
			opts.Event = strings.TrimPrefix(arg, "--event=")
			i++
		case arg == "--ref":
			if i+1 >= len(args) {
				return nil, nil, fmt.Errorf("--ref requires a value")
			}
			opts.Ref = args[i+1]
			i += 2
		case strings.HasPrefix(arg, "--ref="):
			opts.Ref = strings.TrimPrefix(arg, "--ref=")
			i++
		default:
			remaining = append(remaining, arg)
			i++
		}
	}

	if opts.Event != "push" && opts.Event != "pull_request" {
		return nil, nil, fmt.Errorf("invalid --event value %q\n  valid values: push, pull_request", opts.Event)
	}

	return opts, remaining, nil
}

func printUsage(w *output.Writer) {
	w.HelpTitle("matrixci - multi-target build-and-test matrix orchestration")

	w.HelpSection("Usage:")
	w.HelpExample("matrixci <command> [file] [flags]", "")

	w.HelpSection("Commands:")
	w.HelpCommand("run", "Execute the matrix and report a verdict", 10)
	w.HelpCommand("validate", "Validate a matrix document and print warnings", 10)
	w.HelpCommand("targets", "List expanded jobs without running them", 10)
	w.HelpCommand("version", "Show version information", 10)

	w.HelpSection("Flags:")
	w.HelpFlag("-j, --jobs <n>", "Concurrency budget (default: CPU count)", 18)
	w.HelpFlag("--dry-run", "Expand and print jobs without executing", 18)
	w.HelpFlag("--cache-dir <dir>", "Dependency cache location", 18)
	w.HelpFlag("--event <name>", "Trigger event to match (push, pull_request)", 18)
	w.HelpFlag("--ref <branch>", "Branch the event refers to", 18)
	w.HelpFlag("-q, --quiet", "Minimal output (errors only)", 18)
	w.HelpFlag("--no-color", "Disable colored output", 18)
	w.HelpFlag("-h, --help", "Show this help", 18)

	printExamples(w)
}
