// Copyright (C) 2025 StudyRobo (engineering@studyrobo.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package datatypes provides data structures for the assistant service.
//
// This file contains request and response types for the chat endpoint.
package datatypes

import (
	"github.com/go-playground/validator/v10"
)

// =============================================================================
// Limits
// =============================================================================

const (
	// MaxMessageContentBytes is the maximum size of a single chat message.
	// Checked in bytes, not runes, to bound memory use on hostile input.
	MaxMessageContentBytes = 32 * 1024 // 32KB

	// MaxTitleBytes is the maximum size of a conversation title.
	MaxTitleBytes = 256
)

// =============================================================================
// Shared Validator Instance
// =============================================================================

// chatValidate is the validator instance for chat datatypes.
var chatValidate *validator.Validate

func init() {
	chatValidate = validator.New()
	_ = chatValidate.RegisterValidation("maxbytes", validateMaxBytes)
}

// validateMaxBytes enforces the MaxMessageContentBytes limit on a string
// field by byte length.
func validateMaxBytes(fl validator.FieldLevel) bool {
	return len(fl.Field().String()) <= MaxMessageContentBytes
}

// =============================================================================
// Chat Request/Response Types
// =============================================================================

// ChatRequest is the body of POST /api/v1/chat.
//
// # Description
//
// Carries the raw user message for one assistant turn. Credential context
// (user identity, Google access token, conversation id) is supplied by the
// auth middleware, never by the request body.
//
// # Validation
//
//   - Message: required, non-empty, at most 32KB
type ChatRequest struct {
	Message string `json:"message" validate:"required,maxbytes"`
}

// Validate validates the ChatRequest fields. Call after binding JSON.
func (r *ChatRequest) Validate() error {
	return chatValidate.Struct(r)
}

// ChatResponse is the body returned by POST /api/v1/chat.
type ChatResponse struct {
	Reply string `json:"reply"`
}

// =============================================================================
// Conversation Request Types
// =============================================================================

// ConversationCreateRequest is the body of POST /api/v1/conversations and
// PUT /api/v1/conversations/:id.
type ConversationCreateRequest struct {
	Title string `json:"title" validate:"required,max=256"`
}

// Validate validates the ConversationCreateRequest fields.
func (r *ConversationCreateRequest) Validate() error {
	return chatValidate.Struct(r)
}

// AttendanceMarkRequest is the body of POST /api/v1/attendance.
type AttendanceMarkRequest struct {
	CourseName string `json:"course_name" validate:"required,max=128"`
}

// Validate validates the AttendanceMarkRequest fields.
func (r *AttendanceMarkRequest) Validate() error {
	return chatValidate.Struct(r)
}
