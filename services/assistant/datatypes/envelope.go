// Copyright (C) 2025 StudyRobo (engineering@studyrobo.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import (
	"encoding/json"
	"fmt"
)

// ToolResult is the uniform result envelope returned by every capability
// provider.
//
// # Description
//
// Every capability, whatever it does, resolves to this shape so the dispatch
// engine never branches on capability-specific results. A failed capability
// is not an error condition for the turn: the envelope is serialized and
// handed back to the model, which phrases the user-facing explanation.
//
// # Fields
//
//   - Success: Whether the capability did what was asked.
//   - Data: Capability-specific payload on success.
//   - Error: Machine-oriented failure description on failure.
//   - Message: Human-readable summary, set on both success and failure.
//   - AuthRequired: Set when the failure is authentication-class (expired or
//     invalid external token) so callers can prompt re-login instead of
//     retrying blindly.
type ToolResult struct {
	Success      bool           `json:"success"`
	Data         map[string]any `json:"data,omitempty"`
	Error        string         `json:"error,omitempty"`
	Message      string         `json:"message"`
	AuthRequired bool           `json:"auth_required,omitempty"`
}

// ToolSuccess builds a success envelope.
func ToolSuccess(message string, data map[string]any) ToolResult {
	return ToolResult{Success: true, Message: message, Data: data}
}

// ToolFailure builds a failure envelope.
func ToolFailure(errMsg, message string) ToolResult {
	return ToolResult{Success: false, Error: errMsg, Message: message}
}

// ToolAuthFailure builds an authentication-class failure envelope.
func ToolAuthFailure(errMsg, message string) ToolResult {
	return ToolResult{Success: false, Error: errMsg, Message: message, AuthRequired: true}
}

// ToJSON renders the envelope as the content of a tool result message. A
// marshal failure degrades to a minimal failure object rather than aborting
// the turn.
func (r ToolResult) ToJSON() string {
	b, err := json.Marshal(r)
	if err != nil {
		return fmt.Sprintf(`{"success":false,"error":%q}`, err.Error())
	}
	return string(b)
}
