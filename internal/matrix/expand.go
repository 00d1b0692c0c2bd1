package matrix

import (
	"regexp"
	"strings"
	"time"

	"github.com/matrixci/matrixci/internal/config"
)

// varPattern matches variable references in the format ${varname}.
// Captures the variable name in group 1.
// Examples: ${target}, ${group}
var varPattern = regexp.MustCompile(`\$\{([^}]+)\}`)

// escapePlaceholder is a sentinel value used during variable interpolation
// to temporarily replace escaped variable syntax ($${var}) with a placeholder.
// NUL bytes cannot appear in shell command strings or YAML scalars parsed from
// a matrix document, so the placeholder cannot collide with user input.
const escapePlaceholder = "\x00ESCAPED\x00"

// Expand flattens a matrix document into one JobSpec per (group, target).
//
// Expansion is pure, deterministic, and total: unknown targets are never
// rejected here (resolution failures are attributed per job by the toolchain
// resolver). Emitted order follows group order, then target order within a
// group; the order matters only for deterministic reporting.
func Expand(m *config.Matrix) []JobSpec {
	var jobs []JobSpec

	cacheNamespace := ""
	cacheLockfile := ""
	if m.Cache != nil {
		cacheNamespace = m.Cache.Key
		cacheLockfile = m.Cache.Lockfile
	}

	for _, g := range m.Groups {
		var timeout time.Duration
		if g.Timeout != "" {
			// Validation guarantees the duration parses; a zero value on
			// error keeps expansion total.
			timeout, _ = time.ParseDuration(g.Timeout)
		}

		for _, target := range g.Targets {
			vars := map[string]string{
				"target":   target,
				"group":    g.Name,
				"executor": g.Executor,
			}

			steps := make([]Step, 0, len(g.Steps))
			for _, s := range g.Steps {
				steps = append(steps, Step{
					Name: s.Name,
					Run:  interpolate(s.Run, vars),
				})
			}

			var env map[string]string
			if len(g.Env) > 0 {
				env = make(map[string]string, len(g.Env))
				for k, v := range g.Env {
					env[k] = interpolate(v, vars)
				}
			}

			jobs = append(jobs, JobSpec{
				ID:             g.Name + "/" + target,
				Group:          g.Name,
				Target:         target,
				Executor:       g.Executor,
				Steps:          steps,
				Env:            env,
				CacheNamespace: cacheNamespace,
				CacheLockfile:  cacheLockfile,
				Timeout:        timeout,
			})
		}
	}

	return jobs
}

// interpolate replaces ${var} with variable values.
// Escaping: $${var} becomes ${var} (literal).
func interpolate(s string, vars map[string]string) string {
	// First, handle escaped variables: $${var} -> placeholder
	result := strings.ReplaceAll(s, "$${", escapePlaceholder)

	result = varPattern.ReplaceAllStringFunc(result, func(match string) string {
		name := match[2 : len(match)-1]
		if val, ok := vars[name]; ok {
			return val
		}
		return match // Keep unmatched variables as-is
	})

	// Restore escaped variables: placeholder -> ${var}
	return strings.ReplaceAll(result, escapePlaceholder, "${")
}
