// Package contract gates uploads against the session summary JSON schema.
// The schema document is loaded once; validation applies to the payload as
// supplied by the caller, before any field normalization.
package contract

import (
	"errors"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// Violation is one schema violation, safe to return to the caller.
type Violation struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}

// Result is the outcome of a contract check.
type Result struct {
	OK      bool
	Err     string
	Details []Violation
}

// Validator validates payloads against a schema document loaded lazily from
// disk. The first load's outcome, including failure, is cached, so a broken
// schema produces the same diagnostic on every call instead of retrying I/O.
type Validator struct {
	schemaPath string

	once    sync.Once
	schema  *jsonschema.Schema
	loadErr error
}

// NewValidator creates a validator for the schema at the given path.
func NewValidator(schemaPath string) *Validator {
	return &Validator{schemaPath: schemaPath}
}

// Validate checks a decoded payload against the schema.
func (v *Validator) Validate(payload any) Result {
	v.once.Do(func() {
		v.schema, v.loadErr = jsonschema.Compile(v.schemaPath)
	})

	if v.loadErr != nil {
		return Result{OK: false, Err: fmt.Sprintf("schema load failed: %v", v.loadErr)}
	}

	err := v.schema.Validate(payload)
	if err == nil {
		return Result{OK: true}
	}

	var ve *jsonschema.ValidationError
	if errors.As(err, &ve) {
		return Result{OK: false, Err: "schema validation failed", Details: flatten(ve)}
	}
	return Result{OK: false, Err: "schema validation failed"}
}

// flatten walks the violation tree and returns its leaves in order.
func flatten(ve *jsonschema.ValidationError) []Violation {
	if len(ve.Causes) == 0 {
		path := ve.InstanceLocation
		if path == "" {
			path = "/"
		}
		return []Violation{{Path: path, Message: ve.Message}}
	}

	var out []Violation
	for _, cause := range ve.Causes {
		out = append(out, flatten(cause)...)
	}
	return out
}
