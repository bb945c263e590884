// Package schema validates provider payloads against JSON Schema documents
// before they are decoded into typed response structs.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/kaptinlin/jsonschema"
)

var ErrInvalid = errors.New("schema validation failed")

type Validator struct {
	name   string
	schema *jsonschema.Schema
}

func Compile(name string, raw []byte) (*Validator, error) {
	compiler := jsonschema.NewCompiler()
	s, err := compiler.Compile(raw)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", name, err)
	}
	return &Validator{name: name, schema: s}, nil
}

// MustCompile is for schemas embedded in the binary.
func MustCompile(name string, raw string) *Validator {
	v, err := Compile(name, []byte(raw))
	if err != nil {
		panic(err)
	}
	return v
}

func (v *Validator) Validate(data []byte) error {
	result := v.schema.ValidateJSON(data)
	if result.IsValid() {
		return nil
	}
	return fmt.Errorf("%s: %w: %v", v.name, ErrInvalid, result.Errors)
}

// Decode validates data and unmarshals it into out.
func (v *Validator) Decode(data []byte, out any) error {
	if v != nil {
		if err := v.Validate(data); err != nil {
			return err
		}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s: %w", v.Name(), err)
	}
	return nil
}

func (v *Validator) Name() string {
	if v == nil {
		return "payload"
	}
	return v.name
}
