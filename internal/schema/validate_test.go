package schema

import (
	"strings"
	"testing"
)

const validMatrix = `
name: ci
on:
  push:
    branches: [master]
concurrency: ci-global
cache:
  key: dependency-lock
  lockfile: Cargo.lock
groups:
  - name: cross
    executor: cross
    targets: [x86_64-unknown-linux-gnu, armv7-unknown-linux-gnueabihf]
    steps:
      - name: build
        run: cross build --target ${target}
      - name: test
        run: cross test --target ${target}
`

func TestValidateMatrix_Valid(t *testing.T) {
	if err := ValidateMatrix([]byte(validMatrix)); err != nil {
		t.Fatalf("ValidateMatrix() error = %v", err)
	}
}

func TestValidateMatrix_MissingGroups(t *testing.T) {
	err := ValidateMatrix([]byte("name: ci\n"))
	if err == nil {
		t.Fatal("ValidateMatrix() expected error for missing groups")
	}
}

func TestValidateMatrix_BadExecutor(t *testing.T) {
	doc := `
groups:
  - name: g
    executor: docker
    targets: [a]
    steps:
      - {name: build, run: make}
`
	err := ValidateMatrix([]byte(doc))
	if err == nil {
		t.Fatal("ValidateMatrix() expected error for unknown executor kind")
	}
}

func TestValidateMatrix_EmptySteps(t *testing.T) {
	doc := `
groups:
  - name: g
    targets: [a]
    steps: []
`
	if err := ValidateMatrix([]byte(doc)); err == nil {
		t.Fatal("ValidateMatrix() expected error for empty steps")
	}
}

func TestValidateMatrix_InvalidYAML(t *testing.T) {
	err := ValidateMatrix([]byte("groups: [unclosed"))
	if err == nil {
		t.Fatal("ValidateMatrix() expected error for invalid YAML")
	}
	if !strings.Contains(err.Error(), "invalid YAML") {
		t.Errorf("error = %v, want invalid YAML", err)
	}
}
