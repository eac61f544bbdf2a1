// Copyright (C) 2025 StudyRobo (engineering@studyrobo.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package engine

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/StudyRobo/StudyRoboServer/services/assistant/datatypes"
	"github.com/StudyRobo/StudyRoboServer/services/assistant/observability"
	"github.com/StudyRobo/StudyRoboServer/services/assistant/store"
)

// apologyReply is persisted and returned when the model backend fails
// mid-turn. The student sees a recoverable failure, never a stack trace.
const apologyReply = "I'm sorry, I ran into a problem while working on that. Please try again in a moment."

// ChatService runs the full turn lifecycle: persist the user turn, produce
// the reply through the Engine, persist the assistant turn.
type ChatService struct {
	engine *Engine
	store  store.ConversationStore
}

// NewChatService builds a ChatService over an engine and a conversation
// store.
func NewChatService(engine *Engine, convStore store.ConversationStore) *ChatService {
	return &ChatService{engine: engine, store: convStore}
}

// HandleTurn processes one chat turn end to end.
//
// # Description
//
// Appends the user turn, generates the reply, and appends the assistant
// turn, in that order. Both turns are persisted even when the model backend
// fails: the failure is converted to an apology reply that is stored
// best-effort and returned with a nil error, so a model outage degrades to
// a polite reply rather than a 500. Store failures are fatal: a turn whose
// user message could not be persisted is not processed.
//
// # Inputs
//
//   - ctx: Request context.
//   - message: Raw user message text.
//   - creds: Per-request credential bundle; its stream reference selects
//     the conversation-scoped or legacy per-user turn log.
//
// # Outputs
//
//   - string: The assistant reply text.
//   - error: *ValidationError for malformed input, *PersistenceError for
//     store failures, nil otherwise.
func (s *ChatService) HandleTurn(ctx context.Context, message string, creds datatypes.CredentialContext) (string, error) {
	ctx, span := tracer.Start(ctx, "engine.HandleTurn")
	defer span.End()

	intent := DetectIntent(message)
	start := time.Now()
	status := "success"
	if observability.DefaultMetrics != nil {
		observability.DefaultMetrics.ActiveTurns.Inc()
		defer func() {
			m := observability.DefaultMetrics
			m.ActiveTurns.Dec()
			m.TurnsTotal.WithLabelValues(string(intent), status).Inc()
			m.TurnDurationSeconds.WithLabelValues(string(intent)).Observe(time.Since(start).Seconds())
		}()
	}

	if strings.TrimSpace(message) == "" {
		status = "validation_error"
		return "", &ValidationError{Field: "message", Message: "must not be empty"}
	}

	ref := creds.Stream()
	span.SetAttributes(
		attribute.Bool("chat.legacy_stream", ref.IsLegacy()),
		attribute.String("chat.intent", string(intent)),
	)

	history, err := s.store.ListTurns(ctx, ref)
	if err != nil {
		status = "persistence_error"
		span.RecordError(err)
		return "", &PersistenceError{Op: "list turns", Err: err}
	}

	if _, err := s.store.AppendTurn(ctx, ref, datatypes.RoleUser, message); err != nil {
		status = "persistence_error"
		span.RecordError(err)
		return "", &PersistenceError{Op: "append user turn", Err: err}
	}

	reply, err := s.engine.Respond(ctx, message, creds, history)
	if err != nil {
		// Model failure degrades to an apology. The assistant turn is
		// still written so the conversation log stays paired, but a
		// second store fault here is not worth failing the turn over.
		status = "model_error"
		slog.Error("Chat turn failed upstream", "error", err)
		span.RecordError(err)
		if _, appendErr := s.store.AppendTurn(ctx, ref, datatypes.RoleAssistant, apologyReply); appendErr != nil {
			slog.Warn("Could not persist apology reply", "error", appendErr)
		}
		return apologyReply, nil
	}

	if _, err := s.store.AppendTurn(ctx, ref, datatypes.RoleAssistant, reply); err != nil {
		status = "persistence_error"
		span.RecordError(err)
		return "", &PersistenceError{Op: "append assistant turn", Err: err}
	}

	return reply, nil
}
