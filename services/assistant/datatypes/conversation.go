// Copyright (C) 2025 StudyRobo (engineering@studyrobo.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package datatypes

import "time"

// Conversation is the metadata record for one conversation-scoped turn
// stream. Turns are stored separately; TurnCount is derived by counting them
// at read time and is never maintained as an incremented counter.
type Conversation struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	TurnCount int       `json:"turn_count"`
}

// Turn is one message in a conversation's ordered history. Turns are
// append-only and never mutated after creation. Ordering is by CreatedAt
// with insertion order breaking ties.
type Turn struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id,omitempty"`
	UserID         string    `json:"user_id,omitempty"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// StreamRef identifies a turn stream: either a conversation-scoped stream
// (preferred) or the legacy flat per-user stream kept for backward
// compatibility. Exactly one field is set.
type StreamRef struct {
	ConversationID string
	UserID         string
}

// ConversationStream returns a StreamRef for a conversation-scoped stream.
func ConversationStream(conversationID string) StreamRef {
	return StreamRef{ConversationID: conversationID}
}

// LegacyStream returns a StreamRef for the legacy per-user stream.
func LegacyStream(userID string) StreamRef {
	return StreamRef{UserID: userID}
}

// IsLegacy reports whether the ref addresses the legacy per-user stream.
func (r StreamRef) IsLegacy() bool {
	return r.ConversationID == "" && r.UserID != ""
}

// AttendanceRecord is one attendance marking. Records are append-only.
type AttendanceRecord struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	CourseName string    `json:"course_name"`
	Status     string    `json:"status"`
	MarkedAt   time.Time `json:"marked_at"`
}

// TokenRecord holds a user's external OAuth tokens. Owned by the auth
// subsystem; the dispatch engine only ever reads AccessToken through the
// credential context and never refreshes.
type TokenRecord struct {
	ExternalID   string    `json:"external_id"`
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token,omitempty"`
	Expiry       time.Time `json:"expiry"`
}
