// Copyright (C) 2025 StudyRobo (engineering@studyrobo.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package store

import (
	"context"
	"errors"

	"github.com/StudyRobo/StudyRoboServer/services/assistant/datatypes"
)

// Store-level error kinds. Handlers and the engine branch on these with
// errors.Is; they are the only way store failures are classified.
var (
	// ErrNotFound is returned when a referenced conversation or record
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrNotOwner is returned when a valid user references a conversation
	// owned by someone else. Distinct from ErrNotFound so handlers can map
	// it to 403 rather than 404.
	ErrNotOwner = errors.New("not owner")

	// ErrEmptyContent is returned when an append is attempted with no
	// content. A turn is never created without content.
	ErrEmptyContent = errors.New("empty turn content")
)

// ConversationStore is the durable, ordered turn log.
//
// Both stream shapes — conversation-scoped and the legacy flat per-user
// stream — satisfy the same append/list contract through StreamRef.
// Implementations must be safe for concurrent use; per-stream ordering is
// arbitrated solely by the store (creation timestamp, insertion-order
// tie-break).
type ConversationStore interface {
	// CreateConversation creates an empty conversation owned by owner and
	// returns its id.
	CreateConversation(ctx context.Context, owner, title string) (string, error)

	// GetConversation returns conversation metadata with its turn count
	// recomputed from the stored turns. Returns ErrNotFound for unknown ids.
	GetConversation(ctx context.Context, id string) (*datatypes.Conversation, error)

	// ListConversations returns all conversations owned by owner, newest
	// first. An empty slice is not an error.
	ListConversations(ctx context.Context, owner string) ([]datatypes.Conversation, error)

	// RenameConversation updates the title. Returns ErrNotFound for
	// unknown ids and ErrNotOwner when requestingOwner does not match.
	RenameConversation(ctx context.Context, id, requestingOwner, title string) error

	// DeleteConversation removes the conversation and all its turns.
	// Returns ErrNotFound for unknown ids and ErrNotOwner when
	// requestingOwner does not match; on either error nothing is deleted.
	DeleteConversation(ctx context.Context, id, requestingOwner string) error

	// AppendTurn appends one turn to the referenced stream and returns it.
	// Never fails silently: a persistence fault propagates as an error.
	AppendTurn(ctx context.Context, ref datatypes.StreamRef, role, content string) (*datatypes.Turn, error)

	// ListTurns returns all turns in the referenced stream, oldest first.
	// An empty slice (not an error) when none exist.
	ListTurns(ctx context.Context, ref datatypes.StreamRef) ([]datatypes.Turn, error)
}

// AttendanceStore is the append-only attendance record log.
type AttendanceStore interface {
	// Mark appends exactly one attendance record for the user and course.
	Mark(ctx context.Context, userID, courseName string) (*datatypes.AttendanceRecord, error)

	// List returns the user's records, most recent first, optionally
	// filtered by course name (empty filter matches all).
	List(ctx context.Context, userID, courseName string) ([]datatypes.AttendanceRecord, error)
}

// TokenStore keeps external OAuth tokens keyed by external identity. The
// engine only reads access tokens through the credential context; refresh is
// the auth subsystem's business.
type TokenStore interface {
	// Get returns the token record for an external identity, or
	// ErrNotFound.
	Get(ctx context.Context, externalID string) (*datatypes.TokenRecord, error)

	// Put stores or replaces the token record.
	Put(ctx context.Context, record *datatypes.TokenRecord) error
}
