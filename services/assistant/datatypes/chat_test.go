// Copyright (C) 2025 StudyRobo (engineering@studyrobo.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestChatRequest_Validate covers the message size and presence rules.
func TestChatRequest_Validate(t *testing.T) {
	valid := ChatRequest{Message: "hello"}
	assert.NoError(t, valid.Validate())

	empty := ChatRequest{}
	assert.Error(t, empty.Validate(), "empty message must be rejected")

	atLimit := ChatRequest{Message: strings.Repeat("a", MaxMessageContentBytes)}
	assert.NoError(t, atLimit.Validate(), "message at the limit is allowed")

	oversized := ChatRequest{Message: strings.Repeat("a", MaxMessageContentBytes+1)}
	assert.Error(t, oversized.Validate(), "oversized message must be rejected")
}

// TestConversationCreateRequest_Validate covers title rules.
func TestConversationCreateRequest_Validate(t *testing.T) {
	assert.NoError(t, (&ConversationCreateRequest{Title: "Algorithms"}).Validate())
	assert.Error(t, (&ConversationCreateRequest{}).Validate())
	assert.Error(t, (&ConversationCreateRequest{Title: strings.Repeat("t", MaxTitleBytes+1)}).Validate())
}

// TestAttendanceMarkRequest_Validate covers course name rules.
func TestAttendanceMarkRequest_Validate(t *testing.T) {
	assert.NoError(t, (&AttendanceMarkRequest{CourseName: "CS101"}).Validate())
	assert.Error(t, (&AttendanceMarkRequest{}).Validate())
}

// TestToolResult_Constructors verifies the envelope invariants.
func TestToolResult_Constructors(t *testing.T) {
	ok := ToolSuccess("done", map[string]any{"n": 1})
	assert.True(t, ok.Success)
	assert.Empty(t, ok.Error)
	assert.False(t, ok.AuthRequired)

	fail := ToolFailure("bad_thing", "it broke")
	assert.False(t, fail.Success)
	assert.Equal(t, "bad_thing", fail.Error)
	assert.False(t, fail.AuthRequired)

	auth := ToolAuthFailure("reauthentication_required", "please reconnect")
	assert.False(t, auth.Success)
	assert.True(t, auth.AuthRequired, "auth failures must set the re-auth flag")
}

// TestToolResult_ToJSON verifies the wire form round-trips.
func TestToolResult_ToJSON(t *testing.T) {
	env := ToolSuccess("found it", map[string]any{"count": float64(2)})
	raw := env.ToJSON()

	var back ToolResult
	require.NoError(t, json.Unmarshal([]byte(raw), &back))
	assert.True(t, back.Success)
	assert.Equal(t, "found it", back.Message)
	assert.Equal(t, float64(2), back.Data["count"])
}

// TestCredentialContext_Stream verifies stream selection.
func TestCredentialContext_Stream(t *testing.T) {
	threaded := CredentialContext{UserID: "u1", ConversationID: "c1"}
	assert.Equal(t, ConversationStream("c1"), threaded.Stream())

	legacy := CredentialContext{UserID: "u1"}
	assert.Equal(t, LegacyStream("u1"), legacy.Stream())
	assert.True(t, legacy.Stream().IsLegacy())
}
