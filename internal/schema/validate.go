// Package schema provides JSON schema validation for matrix documents.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"

	schemafs "github.com/matrixci/matrixci/schema"
)

var (
	matrixSchema *jsonschema.Schema
	compileOnce  sync.Once
	compileErr   error
)

// compileSchema compiles the embedded matrix schema once.
func compileSchema() error {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()

		data, err := schemafs.FS.ReadFile("matrix.schema.json")
		if err != nil {
			compileErr = fmt.Errorf("read matrix schema: %w", err)
			return
		}

		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
		if err != nil {
			compileErr = fmt.Errorf("unmarshal matrix schema: %w", err)
			return
		}

		if err := compiler.AddResource("matrix.schema.json", doc); err != nil {
			compileErr = fmt.Errorf("add matrix schema resource: %w", err)
			return
		}

		matrixSchema, err = compiler.Compile("matrix.schema.json")
		if err != nil {
			compileErr = fmt.Errorf("compile matrix schema: %w", err)
			return
		}
	})

	return compileErr
}

// ValidateMatrix validates YAML data against the matrix document schema.
// The document is decoded from YAML and round-tripped through JSON so the
// validator sees the same value shapes a JSON decoder would produce.
func ValidateMatrix(data []byte) error {
	if err := compileSchema(); err != nil {
		return err
	}

	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("invalid YAML: %w", err)
	}

	jsonData, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("normalize document: %w", err)
	}

	v, err := jsonschema.UnmarshalJSON(bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("normalize document: %w", err)
	}

	if err := matrixSchema.Validate(v); err != nil {
		return fmt.Errorf("matrix validation failed: %w", err)
	}

	return nil
}
