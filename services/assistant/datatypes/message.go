// Copyright (C) 2025 StudyRobo (engineering@studyrobo.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package datatypes provides data structures for the assistant service.
//
// This file contains the chat message shapes shared between the LLM client
// package and the dispatch engine. For HTTP request/response types see
// chat.go, for persistence shapes see conversation.go.
package datatypes

// Message roles. RoleTool is only ever produced by the dispatch engine when
// it feeds capability results back to the model.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// ToolCall is a capability invocation requested by the model.
//
// # Description
//
// The model produces tool calls as part of a chat completion. Arguments
// arrive as a raw JSON object string and must be treated as untrusted input:
// the dispatch engine validates them against the capability's declared
// schema before anything is executed.
//
// # Fields
//
//   - ID: Provider-assigned identifier, echoed back on the result message so
//     the model can attribute results when several tools ran.
//   - Name: Capability name as requested by the model. May not match any
//     registered capability.
//   - Arguments: JSON-encoded argument object, unvalidated.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

// Message is one entry in the conversation sent to or received from the
// model.
//
// ToolCallID and ToolName are only set on RoleTool messages; ToolCalls is
// only set on assistant messages that requested capability invocations.
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolName   string     `json:"tool_name,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
}

// ToolDefinition describes one capability to the model in provider-neutral
// form. Parameters is a JSON Schema object; the translation to a concrete
// provider wire format (e.g. the OpenAI tools array) happens inside the LLM
// client adapter, never in the engine.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}
