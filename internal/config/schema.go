// Package config provides loading and validation for matrix documents.
package config

// Matrix represents the complete matrix document.
type Matrix struct {
	Name        string                     `yaml:"name,omitempty"`
	On          *TriggerConfig             `yaml:"on,omitempty"`
	Concurrency string                     `yaml:"concurrency,omitempty"`
	Cache       *CacheConfig               `yaml:"cache,omitempty"`
	Groups      []GroupConfig              `yaml:"groups"`
	Toolchains  map[string]ToolchainConfig `yaml:"toolchains,omitempty"`
}

// TriggerConfig declares which events start a run.
type TriggerConfig struct {
	Push        *EventConfig `yaml:"push,omitempty"`
	PullRequest *EventConfig `yaml:"pull_request,omitempty"`
}

// EventConfig narrows an event to specific branches. An empty branch list
// matches any branch.
type EventConfig struct {
	Branches []string `yaml:"branches,omitempty"`
}

// CacheConfig configures the shared dependency cache.
type CacheConfig struct {
	Key      string `yaml:"key,omitempty"`      // Logical cache namespace
	Lockfile string `yaml:"lockfile,omitempty"` // Fingerprint input
}

// GroupConfig defines one target group of the matrix.
type GroupConfig struct {
	Name     string            `yaml:"name"`
	Executor string            `yaml:"executor,omitempty"` // "native" or "cross"
	Targets  []string          `yaml:"targets"`
	Steps    []StepConfig      `yaml:"steps"`
	Timeout  string            `yaml:"timeout,omitempty"` // Go duration syntax
	Env      map[string]string `yaml:"env,omitempty"`
}

// StepConfig defines a single named command within a group's step template.
type StepConfig struct {
	Name string `yaml:"name"`
	Run  string `yaml:"run"`
}

// ToolchainConfig overrides how a toolchain is obtained for a target.
type ToolchainConfig struct {
	Install string `yaml:"install,omitempty"` // Installation command
	Command string `yaml:"command,omitempty"` // Executor command prefix
}

// Executor kinds accepted in group configuration.
const (
	ExecutorNative = "native"
	ExecutorCross  = "cross"
)
