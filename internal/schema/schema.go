// Package schema derives JSON Schemas from Go result records and validates
// model output against them before it is decoded.
//
// The same schema is sent to providers that support structured output and
// used locally as the deserialization boundary, so a response that is valid
// JSON but misses a required field or carries a wrong-typed value is rejected
// instead of silently defaulting.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/xeipuuv/gojsonschema"
)

// ErrInvalid is returned when a document does not satisfy its schema.
var ErrInvalid = errors.New("document does not match schema")

// For reflects a JSON Schema for v. Fields without `omitempty` are required
// and unknown properties are allowed.
func For(v any) (json.RawMessage, error) {
	r := &jsonschema.Reflector{
		DoNotReference:            true,
		AllowAdditionalProperties: true,
	}
	s := r.Reflect(v)
	// Drop the draft marker: providers reject it and gojsonschema picks its
	// own draft when it is absent.
	s.Version = ""

	raw, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal schema: %w", err)
	}
	return raw, nil
}

// Validator checks documents against one compiled schema.
type Validator struct {
	raw    json.RawMessage
	schema *gojsonschema.Schema
}

// NewValidator compiles the schema reflected from v.
func NewValidator(v any) (*Validator, error) {
	raw, err := For(v)
	if err != nil {
		return nil, err
	}
	compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}
	return &Validator{raw: raw, schema: compiled}, nil
}

// MustValidator is like NewValidator but panics on error. Use it only for
// package-level schemas built from static types.
func MustValidator(v any) *Validator {
	val, err := NewValidator(v)
	if err != nil {
		panic(fmt.Sprintf("schema: %v", err))
	}
	return val
}

// Raw returns the JSON Schema document.
func (v *Validator) Raw() json.RawMessage {
	return v.raw
}

// Validate reports whether doc satisfies the schema. Violations are joined
// into a single error wrapping ErrInvalid.
func (v *Validator) Validate(doc string) error {
	result, err := v.schema.Validate(gojsonschema.NewStringLoader(doc))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	if result.Valid() {
		return nil
	}

	msgs := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		msgs = append(msgs, e.String())
	}
	return fmt.Errorf("%w: %s", ErrInvalid, strings.Join(msgs, "; "))
}

// Decode validates doc and unmarshals it into T.
func Decode[T any](v *Validator, doc string) (T, error) {
	var out T
	if err := v.Validate(doc); err != nil {
		return out, err
	}
	if err := json.Unmarshal([]byte(doc), &out); err != nil {
		return out, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	return out, nil
}
