// Copyright (C) 2025 StudyRobo (engineering@studyrobo.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package tools provides the assistant's capability providers.
//
// A capability is a named, schema-described external-effect operation the
// model may request: study-material search, attendance marking and
// retrieval, Gmail access, Google Calendar access, and career insights. The
// set is closed and known at build time; there is no dynamic plugin
// registration. Every capability resolves to the uniform
// datatypes.ToolResult envelope so the dispatch engine never branches on
// capability-specific shapes.
package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/StudyRobo/StudyRoboServer/services/assistant/datatypes"
)

// =============================================================================
// Schema Types
// =============================================================================

// ParamType enumerates the primitive argument types a capability may declare.
type ParamType string

const (
	ParamString  ParamType = "string"
	ParamInteger ParamType = "integer"
	ParamNumber  ParamType = "number"
	ParamBoolean ParamType = "boolean"
)

// Param declares one argument of a capability schema.
type Param struct {
	Name        string
	Type        ParamType
	Description string
	Required    bool
}

// Schema is the declared contract of a capability: its name, a description
// the model selects on, and the typed argument list.
type Schema struct {
	Name        string
	Description string
	Params      []Param
}

// Definition renders the schema as the provider-neutral tool definition
// handed to the LLM client (a JSON Schema object body).
func (s Schema) Definition() datatypes.ToolDefinition {
	properties := map[string]any{}
	required := []string{}
	for _, p := range s.Params {
		properties[p.Name] = map[string]any{
			"type":        string(p.Type),
			"description": p.Description,
		}
		if p.Required {
			required = append(required, p.Name)
		}
	}
	parameters := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		parameters["required"] = required
	}
	return datatypes.ToolDefinition{
		Name:        s.Name,
		Description: s.Description,
		Parameters:  parameters,
	}
}

// =============================================================================
// Capability Interface
// =============================================================================

// Requirements declares which credential-context fields a capability needs.
// The dispatch engine checks these before invocation and synthesizes a
// failure envelope when a prerequisite is missing, so providers can assume
// the fields they declared are present.
type Requirements struct {
	UserIdentity bool
	GoogleToken  bool
}

// Capability is the single interface every provider implements.
//
// Invoke receives arguments already validated and coerced against Schema()
// and must not panic or return a Go error: every outcome, including failure,
// is expressed through the result envelope. Implementations must be safe for
// concurrent use.
type Capability interface {
	Schema() Schema
	Requirements() Requirements
	Invoke(ctx context.Context, args map[string]any, creds datatypes.CredentialContext) datatypes.ToolResult
}

// =============================================================================
// Registry
// =============================================================================

// Registry holds the fixed capability set. Iteration order (and therefore
// the order definitions are presented to the model) is construction order.
type Registry struct {
	caps   []Capability
	byName map[string]Capability
}

// NewRegistry builds a registry from the given capabilities. Duplicate names
// are a programming error and panic at startup.
func NewRegistry(caps ...Capability) *Registry {
	r := &Registry{byName: make(map[string]Capability, len(caps))}
	for _, c := range caps {
		name := c.Schema().Name
		if _, dup := r.byName[name]; dup {
			panic(fmt.Sprintf("duplicate capability name %q", name))
		}
		r.caps = append(r.caps, c)
		r.byName[name] = c
	}
	return r
}

// Lookup returns the capability registered under name, if any.
func (r *Registry) Lookup(name string) (Capability, bool) {
	c, ok := r.byName[name]
	return c, ok
}

// Definitions returns the tool definitions for every registered capability.
func (r *Registry) Definitions() []datatypes.ToolDefinition {
	out := make([]datatypes.ToolDefinition, 0, len(r.caps))
	for _, c := range r.caps {
		out = append(out, c.Schema().Definition())
	}
	return out
}

// Names returns the registered capability names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.caps))
	for _, c := range r.caps {
		out = append(out, c.Schema().Name)
	}
	return out
}

// =============================================================================
// Argument Validation
// =============================================================================

// SchemaError reports why a model-produced argument object failed validation
// against a capability schema. It is consumed by the dispatch engine, which
// turns it into a failure envelope; it never aborts a turn.
type SchemaError struct {
	Capability string
	Param      string
	Reason     string
}

// Error implements the error interface for SchemaError.
func (e *SchemaError) Error() string {
	return fmt.Sprintf("invalid arguments for %s: %s (%s)", e.Capability, e.Param, e.Reason)
}

// ValidateArgs parses and validates a raw model-produced argument string
// against the schema.
//
// # Description
//
// The argument payload comes from the model and is untrusted: it may be
// malformed JSON, omit required parameters, or carry wrong types. This
// function parses it, checks required parameters, coerces each declared
// parameter to its primitive type, and drops anything the schema does not
// declare. Providers therefore never see malformed input.
//
// Coercions: JSON numbers arrive as float64 and are narrowed to int for
// integer params when whole; everything else must match its declared type.
func ValidateArgs(schema Schema, raw string) (map[string]any, error) {
	parsed := map[string]any{}
	if raw != "" {
		if err := json.Unmarshal([]byte(raw), &parsed); err != nil {
			return nil, &SchemaError{Capability: schema.Name, Param: "(arguments)", Reason: "not a JSON object"}
		}
	}

	out := make(map[string]any, len(schema.Params))
	for _, p := range schema.Params {
		value, present := parsed[p.Name]
		if !present || value == nil {
			if p.Required {
				return nil, &SchemaError{Capability: schema.Name, Param: p.Name, Reason: "required parameter missing"}
			}
			continue
		}
		coerced, err := coerce(p.Type, value)
		if err != nil {
			return nil, &SchemaError{Capability: schema.Name, Param: p.Name, Reason: err.Error()}
		}
		out[p.Name] = coerced
	}
	return out, nil
}

// coerce converts a decoded JSON value to the declared primitive type.
func coerce(t ParamType, value any) (any, error) {
	switch t {
	case ParamString:
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", value)
		}
		return s, nil
	case ParamInteger:
		f, ok := value.(float64)
		if !ok || f != math.Trunc(f) {
			return nil, fmt.Errorf("expected integer, got %v", value)
		}
		return int(f), nil
	case ParamNumber:
		f, ok := value.(float64)
		if !ok {
			return nil, fmt.Errorf("expected number, got %T", value)
		}
		return f, nil
	case ParamBoolean:
		b, ok := value.(bool)
		if !ok {
			return nil, fmt.Errorf("expected boolean, got %T", value)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("unknown parameter type %q", t)
	}
}

// StringArg reads a validated string argument with a default.
func StringArg(args map[string]any, name, fallback string) string {
	if v, ok := args[name].(string); ok {
		return v
	}
	return fallback
}

// IntArg reads a validated integer argument with a default.
func IntArg(args map[string]any, name string, fallback int) int {
	if v, ok := args[name].(int); ok {
		return v
	}
	return fallback
}
