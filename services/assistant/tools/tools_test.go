// Copyright (C) 2025 StudyRobo (engineering@studyrobo.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StudyRobo/StudyRoboServer/services/assistant/datatypes"
)

// testSchema covers all four primitive parameter types.
var testSchema = Schema{
	Name:        "test_cap",
	Description: "a test capability",
	Params: []Param{
		{Name: "query", Type: ParamString, Required: true},
		{Name: "limit", Type: ParamInteger},
		{Name: "threshold", Type: ParamNumber},
		{Name: "verbose", Type: ParamBoolean},
	},
}

// =============================================================================
// ValidateArgs Tests
// =============================================================================

// TestValidateArgs_Valid verifies a fully populated argument object parses
// and coerces correctly.
func TestValidateArgs_Valid(t *testing.T) {
	args, err := ValidateArgs(testSchema, `{"query":"sorting","limit":3,"threshold":0.5,"verbose":true}`)
	require.NoError(t, err)

	assert.Equal(t, "sorting", args["query"])
	assert.Equal(t, 3, args["limit"], "integers must arrive as int, not float64")
	assert.Equal(t, 0.5, args["threshold"])
	assert.Equal(t, true, args["verbose"])
}

// TestValidateArgs_MissingRequired verifies a missing required parameter is
// rejected with a SchemaError naming the parameter.
func TestValidateArgs_MissingRequired(t *testing.T) {
	_, err := ValidateArgs(testSchema, `{"limit": 3}`)
	require.Error(t, err)

	var se *SchemaError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "query", se.Param)
	assert.Equal(t, "test_cap", se.Capability)
}

// TestValidateArgs_MalformedJSON verifies non-object payloads are rejected
// rather than panicking.
func TestValidateArgs_MalformedJSON(t *testing.T) {
	for _, raw := range []string{`[1,2]`, `"text"`, `{broken`, `42`} {
		_, err := ValidateArgs(testSchema, raw)
		assert.Error(t, err, "payload %q must be rejected", raw)
	}
}

// TestValidateArgs_EmptyPayload verifies an empty argument string is fine
// for a schema with no required parameters.
func TestValidateArgs_EmptyPayload(t *testing.T) {
	schema := Schema{Name: "optional_only", Params: []Param{{Name: "limit", Type: ParamInteger}}}
	args, err := ValidateArgs(schema, "")
	require.NoError(t, err)
	assert.Empty(t, args)
}

// TestValidateArgs_TypeMismatch verifies wrongly typed values are rejected.
func TestValidateArgs_TypeMismatch(t *testing.T) {
	cases := []string{
		`{"query": 42}`,
		`{"query":"x","limit":"three"}`,
		`{"query":"x","limit":2.5}`,
		`{"query":"x","verbose":"yes"}`,
	}
	for _, raw := range cases {
		_, err := ValidateArgs(testSchema, raw)
		assert.Error(t, err, "payload %q must be rejected", raw)
	}
}

// TestValidateArgs_DropsUndeclared verifies parameters the schema does not
// declare never reach the provider.
func TestValidateArgs_DropsUndeclared(t *testing.T) {
	args, err := ValidateArgs(testSchema, `{"query":"x","injected":"value"}`)
	require.NoError(t, err)
	_, present := args["injected"]
	assert.False(t, present, "undeclared parameters must be dropped")
}

// =============================================================================
// Schema Definition Tests
// =============================================================================

// TestSchema_Definition verifies the rendered JSON Schema body.
func TestSchema_Definition(t *testing.T) {
	def := testSchema.Definition()

	assert.Equal(t, "test_cap", def.Name)
	assert.Equal(t, "object", def.Parameters["type"])

	properties, ok := def.Parameters["properties"].(map[string]any)
	require.True(t, ok)
	assert.Len(t, properties, 4)

	required, ok := def.Parameters["required"].([]string)
	require.True(t, ok)
	assert.Equal(t, []string{"query"}, required)
}

// TestSchema_DefinitionNoRequired verifies the required key is omitted when
// every parameter is optional.
func TestSchema_DefinitionNoRequired(t *testing.T) {
	schema := Schema{Name: "loose", Params: []Param{{Name: "limit", Type: ParamInteger}}}
	def := schema.Definition()
	_, present := def.Parameters["required"]
	assert.False(t, present)
}

// =============================================================================
// Registry Tests
// =============================================================================

type noopCapability struct{ name string }

func (n *noopCapability) Schema() Schema               { return Schema{Name: n.name} }
func (n *noopCapability) Requirements() Requirements   { return Requirements{} }
func (n *noopCapability) Invoke(context.Context, map[string]any, datatypes.CredentialContext) datatypes.ToolResult {
	return datatypes.ToolSuccess("ok", nil)
}

// TestRegistry_LookupAndOrder verifies lookup by name and that definitions
// keep registration order.
func TestRegistry_LookupAndOrder(t *testing.T) {
	r := NewRegistry(&noopCapability{name: "alpha"}, &noopCapability{name: "beta"})

	_, ok := r.Lookup("alpha")
	assert.True(t, ok)
	_, ok = r.Lookup("gamma")
	assert.False(t, ok)

	assert.Equal(t, []string{"alpha", "beta"}, r.Names())

	defs := r.Definitions()
	require.Len(t, defs, 2)
	assert.Equal(t, "alpha", defs[0].Name)
	assert.Equal(t, "beta", defs[1].Name)
}

// TestRegistry_DuplicatePanics verifies duplicate names fail fast at
// construction.
func TestRegistry_DuplicatePanics(t *testing.T) {
	assert.Panics(t, func() {
		NewRegistry(&noopCapability{name: "alpha"}, &noopCapability{name: "alpha"})
	})
}
