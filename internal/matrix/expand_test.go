package matrix

import (
	"reflect"
	"testing"
	"time"

	"github.com/matrixci/matrixci/internal/config"
)

func sampleMatrix() *config.Matrix {
	return &config.Matrix{
		Name: "ci",
		Cache: &config.CacheConfig{
			Key:      "dependency-lock",
			Lockfile: "Cargo.lock",
		},
		Groups: []config.GroupConfig{
			{
				Name:     "cross",
				Executor: config.ExecutorCross,
				Targets:  []string{"x86_64-unknown-linux-gnu", "armv7-unknown-linux-gnueabihf"},
				Steps: []config.StepConfig{
					{Name: "build", Run: "cross build --target ${target}"},
					{Name: "test", Run: "cross test --target ${target}"},
				},
				Timeout: "30m",
			},
			{
				Name:     "native",
				Executor: config.ExecutorNative,
				Targets:  []string{"stable"},
				Steps: []config.StepConfig{
					{Name: "build", Run: "cargo build"},
					{Name: "test", Run: "cargo test"},
				},
			},
		},
	}
}

func TestExpand_JobCount(t *testing.T) {
	jobs := Expand(sampleMatrix())

	// Sum of target counts across all groups.
	if len(jobs) != 3 {
		t.Fatalf("len(jobs) = %d, want 3", len(jobs))
	}
}

func TestExpand_Ordering(t *testing.T) {
	jobs := Expand(sampleMatrix())

	wantIDs := []string{
		"cross/x86_64-unknown-linux-gnu",
		"cross/armv7-unknown-linux-gnueabihf",
		"native/stable",
	}
	for i, want := range wantIDs {
		if jobs[i].ID != want {
			t.Errorf("jobs[%d].ID = %q, want %q", i, jobs[i].ID, want)
		}
	}
}

func TestExpand_Deterministic(t *testing.T) {
	a := Expand(sampleMatrix())
	b := Expand(sampleMatrix())

	if !reflect.DeepEqual(a, b) {
		t.Error("Expand() is not deterministic for identical input")
	}
}

func TestExpand_TargetSubstitution(t *testing.T) {
	jobs := Expand(sampleMatrix())

	want := "cross build --target armv7-unknown-linux-gnueabihf"
	if jobs[1].Steps[0].Run != want {
		t.Errorf("Steps[0].Run = %q, want %q", jobs[1].Steps[0].Run, want)
	}
}

func TestExpand_UniqueTargetsWithinGroup(t *testing.T) {
	jobs := Expand(sampleMatrix())

	seen := make(map[string]bool)
	for _, j := range jobs {
		key := j.Group + "/" + j.Target
		if seen[key] {
			t.Errorf("duplicate job for %s", key)
		}
		seen[key] = true
	}
}

func TestExpand_CacheInputsAndTimeout(t *testing.T) {
	jobs := Expand(sampleMatrix())

	if jobs[0].CacheNamespace != "dependency-lock" {
		t.Errorf("CacheNamespace = %q, want dependency-lock", jobs[0].CacheNamespace)
	}
	if jobs[0].CacheLockfile != "Cargo.lock" {
		t.Errorf("CacheLockfile = %q, want Cargo.lock", jobs[0].CacheLockfile)
	}
	if jobs[0].Timeout != 30*time.Minute {
		t.Errorf("Timeout = %v, want 30m", jobs[0].Timeout)
	}
	if jobs[2].Timeout != 0 {
		t.Errorf("native Timeout = %v, want 0 (unbounded)", jobs[2].Timeout)
	}
}

func TestExpand_EnvInterpolation(t *testing.T) {
	m := sampleMatrix()
	m.Groups[0].Env = map[string]string{"CROSS_TARGET": "${target}"}

	jobs := Expand(m)
	if jobs[0].Env["CROSS_TARGET"] != "x86_64-unknown-linux-gnu" {
		t.Errorf("Env[CROSS_TARGET] = %q", jobs[0].Env["CROSS_TARGET"])
	}
}

func TestInterpolate(t *testing.T) {
	vars := map[string]string{"target": "wasm32-unknown-unknown"}

	tests := []struct {
		in   string
		want string
	}{
		{"build --target ${target}", "build --target wasm32-unknown-unknown"},
		{"echo $${target}", "echo ${target}"},
		{"echo ${unknown}", "echo ${unknown}"},
		{"no vars here", "no vars here"},
	}

	for _, tt := range tests {
		if got := interpolate(tt.in, vars); got != tt.want {
			t.Errorf("interpolate(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestExpand_EmptyMatrix(t *testing.T) {
	jobs := Expand(&config.Matrix{})
	if len(jobs) != 0 {
		t.Errorf("Expand(empty) = %d jobs, want 0", len(jobs))
	}
}
