// Copyright (C) 2025 StudyRobo (engineering@studyrobo.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package engine

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StudyRobo/StudyRoboServer/services/assistant/datatypes"
	"github.com/StudyRobo/StudyRoboServer/services/assistant/tools"
	"github.com/StudyRobo/StudyRoboServer/services/llm"
)

// =============================================================================
// Mock LLM Client
// =============================================================================

// MockLLMClient implements llm.LLMClient for testing purposes.
// It allows configuring responses and tracking calls for verification.
type MockLLMClient struct {
	// ToolsResult is returned by ChatWithTools
	ToolsResult *llm.ChatWithToolsResult
	// ToolsError is returned as error by ChatWithTools
	ToolsError error
	// ChatResponse is returned by Chat
	ChatResponse string
	// ChatError is returned as error by Chat
	ChatError error

	// ToolsCallCount tracks how many times ChatWithTools was called
	ToolsCallCount int
	// ChatCallCount tracks how many times Chat was called
	ChatCallCount int
	// LastToolDefs stores the last definitions passed to ChatWithTools
	LastToolDefs []datatypes.ToolDefinition
	// LastMessages stores the last messages passed to Chat
	LastMessages []datatypes.Message
}

// Chat implements the llm.LLMClient interface for testing.
func (m *MockLLMClient) Chat(_ context.Context, messages []datatypes.Message, _ llm.GenerationParams) (string, error) {
	m.ChatCallCount++
	m.LastMessages = messages
	return m.ChatResponse, m.ChatError
}

// ChatWithTools implements the llm.LLMClient interface for testing.
func (m *MockLLMClient) ChatWithTools(_ context.Context, _ []datatypes.Message, _ llm.GenerationParams, defs []datatypes.ToolDefinition) (*llm.ChatWithToolsResult, error) {
	m.ToolsCallCount++
	m.LastToolDefs = defs
	return m.ToolsResult, m.ToolsError
}

// SupportsToolCalls implements the llm.LLMClient interface for testing.
func (m *MockLLMClient) SupportsToolCalls() bool { return true }

// =============================================================================
// Fake Capability
// =============================================================================

// fakeCapability is a configurable capability for engine tests.
type fakeCapability struct {
	name        string
	params      []tools.Param
	requires    tools.Requirements
	result      datatypes.ToolResult
	invokeCount atomic.Int32
	panics      bool
}

func (f *fakeCapability) Schema() tools.Schema {
	return tools.Schema{Name: f.name, Description: "test capability", Params: f.params}
}

func (f *fakeCapability) Requirements() tools.Requirements { return f.requires }

func (f *fakeCapability) Invoke(_ context.Context, _ map[string]any, _ datatypes.CredentialContext) datatypes.ToolResult {
	f.invokeCount.Add(1)
	if f.panics {
		panic("provider exploded")
	}
	return f.result
}

// =============================================================================
// Respond Tests - Single Round
// =============================================================================

// TestRespond_NoToolCalls verifies the one-call path: when the model
// answers without requesting capabilities, its text is returned verbatim
// and the second round never happens.
func TestRespond_NoToolCalls(t *testing.T) {
	mockLLM := &MockLLMClient{
		ToolsResult: &llm.ChatWithToolsResult{Content: "QuickSort averages O(n log n).", StopReason: "end"},
	}
	registry := tools.NewRegistry(&fakeCapability{name: "get_study_material"})
	eng := NewEngine(mockLLM, registry, llm.GenerationParams{}, "test")

	reply, err := eng.Respond(context.Background(), "What's the time complexity of QuickSort?", datatypes.CredentialContext{UserID: "u1"}, nil)

	require.NoError(t, err, "single-round turn should succeed")
	assert.Equal(t, "QuickSort averages O(n log n).", reply, "reply should be the model text verbatim")
	assert.Equal(t, 1, mockLLM.ToolsCallCount, "exactly one model call expected")
	assert.Equal(t, 0, mockLLM.ChatCallCount, "second round should not run")
	assert.Len(t, mockLLM.LastToolDefs, 1, "full capability list should be offered")
}

// TestRespond_UpstreamFailureRoundOne verifies that a model failure in
// round one surfaces as an UpstreamModelError.
func TestRespond_UpstreamFailureRoundOne(t *testing.T) {
	mockLLM := &MockLLMClient{ToolsError: errors.New("connection refused")}
	eng := NewEngine(mockLLM, tools.NewRegistry(), llm.GenerationParams{}, "test")

	_, err := eng.Respond(context.Background(), "hello", datatypes.CredentialContext{UserID: "u1"}, nil)

	require.Error(t, err, "model failure should propagate")
	assert.True(t, IsUpstreamModelError(err), "error should be an UpstreamModelError")
}

// =============================================================================
// Respond Tests - Tool Round
// =============================================================================

// toolCallResult configures the mock to request the given capability calls
// in round one.
func toolCallResult(calls ...datatypes.ToolCall) *llm.ChatWithToolsResult {
	return &llm.ChatWithToolsResult{ToolCalls: calls, StopReason: "tool_use"}
}

// TestRespond_TwoCallBound verifies that a capability turn makes exactly
// two model calls regardless of how many capabilities were requested.
func TestRespond_TwoCallBound(t *testing.T) {
	capA := &fakeCapability{name: "cap_a", result: datatypes.ToolSuccess("a done", nil)}
	capB := &fakeCapability{name: "cap_b", result: datatypes.ToolSuccess("b done", nil)}
	mockLLM := &MockLLMClient{
		ToolsResult: toolCallResult(
			datatypes.ToolCall{ID: "1", Name: "cap_a", Arguments: "{}"},
			datatypes.ToolCall{ID: "2", Name: "cap_b", Arguments: "{}"},
		),
		ChatResponse: "Both done.",
	}
	eng := NewEngine(mockLLM, tools.NewRegistry(capA, capB), llm.GenerationParams{}, "test")

	reply, err := eng.Respond(context.Background(), "do both things", datatypes.CredentialContext{UserID: "u1"}, nil)

	require.NoError(t, err)
	assert.Equal(t, "Both done.", reply)
	assert.Equal(t, 1, mockLLM.ToolsCallCount, "one tool-offering call")
	assert.Equal(t, 1, mockLLM.ChatCallCount, "one plain completion call")
	assert.Equal(t, int32(1), capA.invokeCount.Load(), "cap_a invoked once")
	assert.Equal(t, int32(1), capB.invokeCount.Load(), "cap_b invoked once")
}

// TestRespond_ResultMessagesTagged verifies that each capability result is
// handed to round two as a tool message tagged with its originating call id.
func TestRespond_ResultMessagesTagged(t *testing.T) {
	capA := &fakeCapability{name: "cap_a", result: datatypes.ToolSuccess("done", map[string]any{"n": 1})}
	mockLLM := &MockLLMClient{
		ToolsResult:  toolCallResult(datatypes.ToolCall{ID: "call-7", Name: "cap_a", Arguments: "{}"}),
		ChatResponse: "ok",
	}
	eng := NewEngine(mockLLM, tools.NewRegistry(capA), llm.GenerationParams{}, "test")

	_, err := eng.Respond(context.Background(), "go", datatypes.CredentialContext{UserID: "u1"}, nil)
	require.NoError(t, err)

	// system, user, assistant tool-call message, one tool result
	require.Len(t, mockLLM.LastMessages, 4, "round two should carry the full exchange")
	result := mockLLM.LastMessages[3]
	assert.Equal(t, datatypes.RoleTool, result.Role)
	assert.Equal(t, "call-7", result.ToolCallID, "result must be tagged with the originating call")

	var envelope datatypes.ToolResult
	require.NoError(t, json.Unmarshal([]byte(result.Content), &envelope))
	assert.True(t, envelope.Success)
}

// TestRespond_UnknownCapability verifies that an invocation naming an
// unregistered capability never reaches any provider and the turn still
// completes with a reply.
func TestRespond_UnknownCapability(t *testing.T) {
	known := &fakeCapability{name: "cap_a", result: datatypes.ToolSuccess("ok", nil)}
	mockLLM := &MockLLMClient{
		ToolsResult:  toolCallResult(datatypes.ToolCall{ID: "1", Name: "cap_zz", Arguments: "{}"}),
		ChatResponse: "I could not do that.",
	}
	eng := NewEngine(mockLLM, tools.NewRegistry(known), llm.GenerationParams{}, "test")

	reply, err := eng.Respond(context.Background(), "go", datatypes.CredentialContext{UserID: "u1"}, nil)

	require.NoError(t, err, "unknown capability must not abort the turn")
	assert.Equal(t, "I could not do that.", reply)
	assert.Equal(t, int32(0), known.invokeCount.Load(), "no provider should run")

	var envelope datatypes.ToolResult
	require.NoError(t, json.Unmarshal([]byte(mockLLM.LastMessages[3].Content), &envelope))
	assert.False(t, envelope.Success, "unknown capability yields a failure envelope")
	assert.Equal(t, "unknown_capability", envelope.Error)
}

// TestRespond_MissingRequiredArgument verifies that schema violations are
// caught before the provider runs.
func TestRespond_MissingRequiredArgument(t *testing.T) {
	strict := &fakeCapability{
		name:   "cap_a",
		params: []tools.Param{{Name: "query", Type: tools.ParamString, Required: true}},
		result: datatypes.ToolSuccess("ok", nil),
	}
	mockLLM := &MockLLMClient{
		ToolsResult:  toolCallResult(datatypes.ToolCall{ID: "1", Name: "cap_a", Arguments: "{}"}),
		ChatResponse: "Something was missing.",
	}
	eng := NewEngine(mockLLM, tools.NewRegistry(strict), llm.GenerationParams{}, "test")

	reply, err := eng.Respond(context.Background(), "go", datatypes.CredentialContext{UserID: "u1"}, nil)

	require.NoError(t, err)
	assert.NotEmpty(t, reply)
	assert.Equal(t, int32(0), strict.invokeCount.Load(), "provider must never see malformed input")

	var envelope datatypes.ToolResult
	require.NoError(t, json.Unmarshal([]byte(mockLLM.LastMessages[3].Content), &envelope))
	assert.False(t, envelope.Success)
	assert.Equal(t, "invalid_arguments", envelope.Error)
}

// TestRespond_MissingUserIdentity verifies the credential prerequisite
// check: an identity-requiring capability with no user in the context gets
// a synthesized failure envelope and never runs.
func TestRespond_MissingUserIdentity(t *testing.T) {
	marker := &fakeCapability{
		name:     "mark_attendance",
		requires: tools.Requirements{UserIdentity: true},
		result:   datatypes.ToolSuccess("marked", nil),
	}
	mockLLM := &MockLLMClient{
		ToolsResult:  toolCallResult(datatypes.ToolCall{ID: "1", Name: "mark_attendance", Arguments: "{}"}),
		ChatResponse: "You need to log in first.",
	}
	eng := NewEngine(mockLLM, tools.NewRegistry(marker), llm.GenerationParams{}, "test")

	reply, err := eng.Respond(context.Background(), "mark me present", datatypes.CredentialContext{}, nil)

	require.NoError(t, err, "missing identity must not abort the turn")
	assert.Equal(t, "You need to log in first.", reply)
	assert.Equal(t, int32(0), marker.invokeCount.Load(), "no write may happen without an identity")

	var envelope datatypes.ToolResult
	require.NoError(t, json.Unmarshal([]byte(mockLLM.LastMessages[3].Content), &envelope))
	assert.False(t, envelope.Success)
	assert.Equal(t, "user_not_authenticated", envelope.Error)
}

// TestRespond_MissingGoogleToken verifies that token-requiring capabilities
// get an auth-flagged envelope when the context has no Google token.
func TestRespond_MissingGoogleToken(t *testing.T) {
	reader := &fakeCapability{
		name:     "get_unread_emails",
		requires: tools.Requirements{GoogleToken: true},
		result:   datatypes.ToolSuccess("emails", nil),
	}
	mockLLM := &MockLLMClient{
		ToolsResult:  toolCallResult(datatypes.ToolCall{ID: "1", Name: "get_unread_emails", Arguments: "{}"}),
		ChatResponse: "Please connect Google.",
	}
	eng := NewEngine(mockLLM, tools.NewRegistry(reader), llm.GenerationParams{}, "test")

	_, err := eng.Respond(context.Background(), "check my email", datatypes.CredentialContext{UserID: "u1"}, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(0), reader.invokeCount.Load())

	var envelope datatypes.ToolResult
	require.NoError(t, json.Unmarshal([]byte(mockLLM.LastMessages[3].Content), &envelope))
	assert.False(t, envelope.Success)
	assert.True(t, envelope.AuthRequired, "missing token must set the re-auth flag")
}

// TestRespond_ProviderPanic verifies that a panicking provider is folded
// into a failure envelope instead of crashing the turn.
func TestRespond_ProviderPanic(t *testing.T) {
	bad := &fakeCapability{name: "cap_a", panics: true}
	mockLLM := &MockLLMClient{
		ToolsResult:  toolCallResult(datatypes.ToolCall{ID: "1", Name: "cap_a", Arguments: "{}"}),
		ChatResponse: "That did not work.",
	}
	eng := NewEngine(mockLLM, tools.NewRegistry(bad), llm.GenerationParams{}, "test")

	reply, err := eng.Respond(context.Background(), "go", datatypes.CredentialContext{UserID: "u1"}, nil)

	require.NoError(t, err, "panic must not escape the engine")
	assert.Equal(t, "That did not work.", reply)

	var envelope datatypes.ToolResult
	require.NoError(t, json.Unmarshal([]byte(mockLLM.LastMessages[3].Content), &envelope))
	assert.False(t, envelope.Success)
	assert.Equal(t, "capability_panic", envelope.Error)
}

// TestRespond_IndependentFailures verifies that one failing capability does
// not prevent the others from running.
func TestRespond_IndependentFailures(t *testing.T) {
	failing := &fakeCapability{name: "cap_a", result: datatypes.ToolFailure("boom", "a failed")}
	working := &fakeCapability{name: "cap_b", result: datatypes.ToolSuccess("b done", nil)}
	mockLLM := &MockLLMClient{
		ToolsResult: toolCallResult(
			datatypes.ToolCall{ID: "1", Name: "cap_a", Arguments: "{}"},
			datatypes.ToolCall{ID: "2", Name: "cap_b", Arguments: "{}"},
		),
		ChatResponse: "Parted ways.",
	}
	eng := NewEngine(mockLLM, tools.NewRegistry(failing, working), llm.GenerationParams{}, "test")

	_, err := eng.Respond(context.Background(), "go", datatypes.CredentialContext{UserID: "u1"}, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(1), working.invokeCount.Load(), "cap_b must still run")

	var envA, envB datatypes.ToolResult
	require.NoError(t, json.Unmarshal([]byte(mockLLM.LastMessages[3].Content), &envA))
	require.NoError(t, json.Unmarshal([]byte(mockLLM.LastMessages[4].Content), &envB))
	assert.False(t, envA.Success)
	assert.True(t, envB.Success)
}

// TestRespond_UpstreamFailureRoundTwo verifies that a round-two model
// failure also surfaces as an UpstreamModelError.
func TestRespond_UpstreamFailureRoundTwo(t *testing.T) {
	capA := &fakeCapability{name: "cap_a", result: datatypes.ToolSuccess("ok", nil)}
	mockLLM := &MockLLMClient{
		ToolsResult: toolCallResult(datatypes.ToolCall{ID: "1", Name: "cap_a", Arguments: "{}"}),
		ChatError:   errors.New("timeout"),
	}
	eng := NewEngine(mockLLM, tools.NewRegistry(capA), llm.GenerationParams{}, "test")

	_, err := eng.Respond(context.Background(), "go", datatypes.CredentialContext{UserID: "u1"}, nil)

	require.Error(t, err)
	assert.True(t, IsUpstreamModelError(err))
}
