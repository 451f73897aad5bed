// Package validator checks JSON documents against caller-supplied JSON Schemas
// and loads validated arrays into typed records.
package validator

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fulmenhq/gofulmen/schema"
)

// ValidationError is one failing instance node.
type ValidationError struct {
	Pointer string `json:"pointer"`
	Message string `json:"message"`
}

func (e ValidationError) String() string {
	pointer := e.Pointer
	if pointer == "" {
		pointer = "/"
	}
	return fmt.Sprintf("%s: %s", pointer, e.Message)
}

// Result is the outcome of a validation that reached the schema stage.
type Result struct {
	Errors []ValidationError `json:"errors,omitempty"`
}

// OK reports whether the document conforms.
func (r *Result) OK() bool {
	return r != nil && len(r.Errors) == 0
}

// Err returns nil for a conforming document and a *FailedError otherwise.
func (r *Result) Err() error {
	if r.OK() {
		return nil
	}
	return &FailedError{Errors: r.Errors}
}

// ReadError reports a missing or unreadable schema or data file.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string { return fmt.Sprintf("read %s: %v", e.Path, e.Err) }
func (e *ReadError) Unwrap() error { return e.Err }

// NotFound reports whether the file is missing.
func (e *ReadError) NotFound() bool { return errors.Is(e.Err, os.ErrNotExist) }

// SchemaError reports a schema that does not compile.
type SchemaError struct {
	Path string
	Err  error
}

func (e *SchemaError) Error() string { return fmt.Sprintf("compile schema %s: %v", e.Path, e.Err) }
func (e *SchemaError) Unwrap() error { return e.Err }

// ParseError reports data that is not well-formed JSON or does not decode into the target type.
type ParseError struct {
	Source string
	Err    error
}

func (e *ParseError) Error() string { return fmt.Sprintf("parse %s: %v", e.Source, e.Err) }
func (e *ParseError) Unwrap() error { return e.Err }

// FailedError carries every validation failure of a document.
type FailedError struct {
	Errors []ValidationError
}

func (e *FailedError) Error() string {
	if len(e.Errors) == 0 {
		return "schema validation failed"
	}
	if len(e.Errors) == 1 {
		return "schema validation failed: " + e.Errors[0].String()
	}
	return fmt.Sprintf("schema validation failed: %s (and %d more)", e.Errors[0].String(), len(e.Errors)-1)
}

// ValidateFile validates the JSON file at dataPath against the schema at schemaPath.
func ValidateFile(schemaPath, dataPath string) (*Result, error) {
	data, err := readFile(dataPath)
	if err != nil {
		return nil, err
	}
	return validate(schemaPath, dataPath, data)
}

// ValidateText validates jsonText against the schema at schemaPath.
func ValidateText(schemaPath, jsonText string) (*Result, error) {
	return validate(schemaPath, "<text>", []byte(jsonText))
}

// Compiled is a schema compiled once and reused across documents.
type Compiled struct {
	path  string
	check func(payload []byte) ([]ValidationError, error)
}

// Compile reads and compiles the schema at schemaPath.
func Compile(schemaPath string) (*Compiled, error) {
	raw, err := readFile(schemaPath)
	if err != nil {
		return nil, err
	}
	if !json.Valid(raw) {
		return nil, &SchemaError{Path: schemaPath, Err: errors.New("schema is not valid JSON")}
	}
	raw, err = withDefaultDraft(raw)
	if err != nil {
		return nil, &SchemaError{Path: schemaPath, Err: err}
	}
	v, err := schema.NewValidator(raw)
	if err != nil {
		return nil, &SchemaError{Path: schemaPath, Err: err}
	}
	check := func(payload []byte) ([]ValidationError, error) {
		diagnostics, err := v.ValidateJSON(payload)
		if err != nil {
			return nil, err
		}
		out := make([]ValidationError, 0, len(diagnostics))
		for _, diag := range diagnostics {
			out = append(out, ValidationError{Pointer: normalizePointer(diag.Pointer), Message: diag.Message})
		}
		return out, nil
	}
	return &Compiled{path: schemaPath, check: check}, nil
}

// draft7 is assumed for schemas that do not declare a dialect.
const draft7 = "http://json-schema.org/draft-07/schema#"

// withDefaultDraft pins an undeclared top-level schema object to Draft-7.
func withDefaultDraft(raw []byte) ([]byte, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return raw, nil
	}
	var top map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &top); err != nil {
		return nil, err
	}
	if _, ok := top["$schema"]; ok {
		return raw, nil
	}
	top["$schema"] = json.RawMessage(`"` + draft7 + `"`)
	return json.Marshal(top)
}

// Validate checks payload against the compiled schema. source names the payload in errors.
func (c *Compiled) Validate(source string, payload []byte) (*Result, error) {
	if !json.Valid(payload) {
		return nil, &ParseError{Source: source, Err: describeSyntaxError(payload)}
	}
	failures, err := c.check(payload)
	if err != nil {
		return nil, &ParseError{Source: source, Err: err}
	}
	return &Result{Errors: failures}, nil
}

// ValidateFile reads dataPath and validates it.
func (c *Compiled) ValidateFile(dataPath string) (*Result, error) {
	data, err := readFile(dataPath)
	if err != nil {
		return nil, err
	}
	return c.Validate(dataPath, data)
}

func validate(schemaPath, source string, payload []byte) (*Result, error) {
	compiled, err := Compile(schemaPath)
	if err != nil {
		return nil, err
	}
	return compiled.Validate(source, payload)
}

// LoadArray decodes the JSON array at dataPath into a slice of T.
func LoadArray[T any](dataPath string) ([]T, error) {
	data, err := readFile(dataPath)
	if err != nil {
		return nil, err
	}
	return DecodeArray[T](dataPath, data)
}

// DecodeArray decodes a JSON array payload into a slice of T.
func DecodeArray[T any](source string, payload []byte) ([]T, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, &ParseError{Source: source, Err: errors.New("expected a JSON array")}
	}
	var items []T
	if err := json.Unmarshal(trimmed, &items); err != nil {
		return nil, &ParseError{Source: source, Err: err}
	}
	return items, nil
}

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path) // #nosec G304 -- operator-supplied path
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	return data, nil
}

func describeSyntaxError(payload []byte) error {
	var v any
	err := json.Unmarshal(payload, &v)
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		return fmt.Errorf("invalid JSON at offset %d: %w", syntaxErr.Offset, err)
	}
	if err != nil {
		return err
	}
	return errors.New("invalid JSON")
}

// Path returns the schema file the validator was compiled from.
func (c *Compiled) Path() string { return c.path }

// normalizePointer strips a URI fragment prefix so pointers read "/1/difficulty".
func normalizePointer(pointer string) string {
	pointer = strings.TrimPrefix(strings.TrimSpace(pointer), "#")
	if pointer == "/" {
		return ""
	}
	return pointer
}
