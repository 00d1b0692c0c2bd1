package config

import (
	"fmt"
	"time"

	matrixerrors "github.com/matrixci/matrixci/internal/errors"
)

// Validate checks semantic constraints the JSON schema cannot express.
// Returns non-fatal warnings and the first fatal error encountered.
func Validate(m *Matrix) ([]string, error) {
	var warnings []string

	if len(m.Groups) == 0 {
		return warnings, matrixerrors.Config("matrix has no target groups")
	}

	groupNames := make(map[string]bool)
	for _, g := range m.Groups {
		if g.Name == "" {
			return warnings, matrixerrors.Config("group without a name")
		}
		if groupNames[g.Name] {
			return warnings, matrixerrors.Configf("duplicate group name %q", g.Name)
		}
		groupNames[g.Name] = true

		if g.Executor != ExecutorNative && g.Executor != ExecutorCross {
			return warnings, matrixerrors.Configf("group %q: invalid executor %q (want %q or %q)",
				g.Name, g.Executor, ExecutorNative, ExecutorCross)
		}

		if len(g.Targets) == 0 {
			return warnings, matrixerrors.Configf("group %q has no targets", g.Name)
		}

		// Target identifiers must be unique within a group.
		seen := make(map[string]bool)
		for _, target := range g.Targets {
			if target == "" {
				return warnings, matrixerrors.Configf("group %q: empty target identifier", g.Name)
			}
			if seen[target] {
				return warnings, matrixerrors.Configf("group %q: duplicate target %q", g.Name, target)
			}
			seen[target] = true
		}

		if len(g.Steps) == 0 {
			return warnings, matrixerrors.Configf("group %q has no steps", g.Name)
		}

		stepNames := make(map[string]bool)
		for _, s := range g.Steps {
			if s.Name == "" || s.Run == "" {
				return warnings, matrixerrors.Configf("group %q: step needs both name and run", g.Name)
			}
			if stepNames[s.Name] {
				return warnings, matrixerrors.Configf("group %q: duplicate step name %q", g.Name, s.Name)
			}
			stepNames[s.Name] = true
		}

		if g.Timeout != "" {
			d, err := time.ParseDuration(g.Timeout)
			if err != nil {
				return warnings, matrixerrors.Configf("group %q: invalid timeout %q", g.Name, g.Timeout)
			}
			if d <= 0 {
				return warnings, matrixerrors.Configf("group %q: timeout must be positive", g.Name)
			}
		}
	}

	if m.On != nil && m.On.Push == nil && m.On.PullRequest == nil {
		warnings = append(warnings, "trigger section declares no events; runs must be forced with --event")
	}

	for name, tc := range m.Toolchains {
		if tc.Install == "" && tc.Command == "" {
			warnings = append(warnings, fmt.Sprintf("toolchain %q declares neither install nor command (ignored)", name))
		}
	}

	return warnings, nil
}
