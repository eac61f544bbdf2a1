// Copyright (C) 2025 StudyRobo (engineering@studyrobo.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package llm provides the model-completion clients used by the assistant.
//
// The dispatch engine only ever talks to the LLMClient interface; concrete
// backends (OpenAI, Mistral) translate the provider-neutral message and tool
// shapes in datatypes to their own wire formats. Whatever mixed shapes a
// provider returns are collapsed into ChatWithToolsResult here, at the
// boundary, so the engine never inspects provider payloads.
package llm

import (
	"context"

	"github.com/StudyRobo/StudyRoboServer/services/assistant/datatypes"
)

// GenerationParams carries per-call generation options. Nil pointers mean
// "use the backend's default".
type GenerationParams struct {
	Temperature *float32 `json:"temperature"`
	TopP        *float32 `json:"top_p"`
	MaxTokens   *int     `json:"max_tokens"`
	Stop        []string `json:"stop"`
}

// ChatWithToolsResult is the collapsed outcome of one chat completion.
//
// Content holds the assistant text (may be empty when the model chose to
// call tools instead). ToolCalls holds zero or more requested capability
// invocations. StopReason is "tool_use" when calls are present, "end"
// otherwise.
type ChatWithToolsResult struct {
	Content    string
	ToolCalls  []datatypes.ToolCall
	StopReason string
}

// LLMClient defines the standard interface for any model backend.
//
// Implementations must be safe for concurrent use.
type LLMClient interface {
	// Chat performs a plain chat completion with no tools offered and
	// returns the assistant text.
	Chat(ctx context.Context, messages []datatypes.Message, params GenerationParams) (string, error)

	// ChatWithTools performs a chat completion with the given capability
	// definitions offered and automatic tool choice. An empty tools slice
	// is equivalent to Chat.
	ChatWithTools(ctx context.Context, messages []datatypes.Message, params GenerationParams,
		tools []datatypes.ToolDefinition) (*ChatWithToolsResult, error)

	// SupportsToolCalls reports whether the backend honors tool
	// definitions. Backends that do not are only ever called via Chat.
	SupportsToolCalls() bool
}
