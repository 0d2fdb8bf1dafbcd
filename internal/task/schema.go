package task

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed task.schema.json
var schemaSource string

const schemaURL = "https://github.com/nibzard/tasklist-go/task.schema.json"

// Shape selects which definition of the schema a payload is checked against.
type Shape string

const (
	ShapeTask Shape = "task"
	ShapeList Shape = "taskList"
)

// ValidationError represents a validation error with context.
type ValidationError struct {
	Path string // JSON path to the error location
	Err  error  // Underlying error
}

func (e *ValidationError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s", e.Path, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *ValidationError) Unwrap() error {
	return e.Err
}

// ValidationResult contains validation results.
type ValidationResult struct {
	Valid    bool
	Errors   []error
	Warnings []string
}

// Err joins the result's errors, or returns nil when the payload is valid.
func (r *ValidationResult) Err() error {
	if r == nil || r.Valid {
		return nil
	}
	msgs := make([]string, 0, len(r.Errors))
	for _, err := range r.Errors {
		msgs = append(msgs, err.Error())
	}
	return fmt.Errorf("schema validation failed: %s", strings.Join(msgs, "; "))
}

var (
	compileOnce sync.Once
	schemas     map[Shape]*jsonschema.Schema
	compileErr  error
)

func compiledSchemas() (map[Shape]*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiler := jsonschema.NewCompiler()
		compiler.AssertFormat = true
		if err := compiler.AddResource(schemaURL, strings.NewReader(schemaSource)); err != nil {
			compileErr = fmt.Errorf("load task schema: %w", err)
			return
		}
		compiled := make(map[Shape]*jsonschema.Schema, 2)
		for _, shape := range []Shape{ShapeTask, ShapeList} {
			s, err := compiler.Compile(schemaURL + "#/$defs/" + string(shape))
			if err != nil {
				compileErr = fmt.Errorf("compile %s schema: %w", shape, err)
				return
			}
			compiled[shape] = s
		}
		schemas = compiled
	})
	return schemas, compileErr
}

// Validate checks a raw JSON payload against the task schema.
func Validate(shape Shape, data []byte) *ValidationResult {
	result := &ValidationResult{
		Valid:    true,
		Errors:   make([]error, 0),
		Warnings: make([]string, 0),
	}

	compiled, err := compiledSchemas()
	if err != nil {
		result.Warnings = append(result.Warnings, err.Error())
		return result
	}
	schema, ok := compiled[shape]
	if !ok {
		result.Warnings = append(result.Warnings, fmt.Sprintf("unknown schema shape %q", shape))
		return result
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var doc interface{}
	if err := dec.Decode(&doc); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, &ValidationError{
			Err: fmt.Errorf("invalid JSON: %w", err),
		})
		return result
	}

	if err := schema.Validate(doc); err != nil {
		result.Valid = false
		appendSchemaErrors(result, err)
	}
	return result
}

func appendSchemaErrors(result *ValidationResult, err error) {
	if err == nil {
		return
	}

	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		result.Errors = append(result.Errors, err)
		return
	}

	collectSchemaErrors(result, ve)
}

func collectSchemaErrors(result *ValidationResult, err *jsonschema.ValidationError) {
	if err == nil {
		return
	}

	if len(err.Causes) == 0 {
		result.Errors = append(result.Errors, &ValidationError{
			Path: jsonPointerToPath(err.InstanceLocation),
			Err:  fmt.Errorf("%s", err.Message),
		})
		return
	}

	for _, cause := range err.Causes {
		collectSchemaErrors(result, cause)
	}
}

func jsonPointerToPath(ptr string) string {
	ptr = strings.TrimPrefix(ptr, "#")
	ptr = strings.TrimPrefix(ptr, "/")
	if ptr == "" {
		return ""
	}

	var path string
	for _, part := range strings.Split(ptr, "/") {
		part = strings.ReplaceAll(part, "~1", "/")
		part = strings.ReplaceAll(part, "~0", "~")
		if part == "" {
			continue
		}
		if idx, err := strconv.Atoi(part); err == nil {
			path += fmt.Sprintf("[%d]", idx)
			continue
		}
		if path == "" {
			path = part
		} else {
			path += "." + part
		}
	}
	return path
}
