// Copyright (C) 2025 StudyRobo (engineering@studyrobo.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package engine implements the tool-augmented conversation engine.
//
// # Description
//
// The engine produces one assistant reply for one user message, using at
// most one round of capability invocation. A turn makes exactly one model
// call when the model answers directly, and exactly two when it requests
// capabilities: the first call offers the full capability schema list, the
// second folds the capability results back in and offers nothing, which
// bounds every turn at two model calls and rules out tool-call loops.
//
// Capability invocation requests come from the model and are untrusted:
// the engine validates the capability name against the fixed registry and
// the arguments against the capability's schema before anything external is
// called. Invalid requests and missing credential prerequisites resolve to
// synthesized failure envelopes that the model explains to the student in
// round two. No capability outcome, including a provider panic, aborts the
// turn.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/StudyRobo/StudyRoboServer/services/assistant/datatypes"
	"github.com/StudyRobo/StudyRoboServer/services/assistant/observability"
	"github.com/StudyRobo/StudyRoboServer/services/assistant/tools"
	"github.com/StudyRobo/StudyRoboServer/services/llm"
)

var tracer = otel.Tracer("studyrobo.engine")

// maxConcurrentInvocations bounds how many capability calls run at once.
const maxConcurrentInvocations = 4

// Engine orchestrates the model rounds and capability dispatch for one
// chat turn. Safe for concurrent use; all per-turn state lives on the
// stack of Respond.
type Engine struct {
	client   llm.LLMClient
	registry *tools.Registry
	params   llm.GenerationParams
	backend  string
}

// NewEngine builds an Engine over a model client and the fixed capability
// registry. backend is a label for metrics only.
func NewEngine(client llm.LLMClient, registry *tools.Registry, params llm.GenerationParams, backend string) *Engine {
	return &Engine{
		client:   client,
		registry: registry,
		params:   params,
		backend:  backend,
	}
}

// Respond produces the assistant reply for one user message.
//
// # Description
//
// Classifies the message intent, composes the system prompt from the
// category template and recent history, and runs the model round(s). The
// returned error is nil for every capability-level failure; a non-nil
// error is always an *UpstreamModelError and means the model backend
// itself failed.
//
// # Inputs
//
//   - ctx: Request context. Capability invocations are detached from its
//     cancellation so issued external writes complete.
//   - message: Raw user message text.
//   - creds: Per-request credential bundle.
//   - history: Prior turns of the conversation, oldest first.
//
// # Outputs
//
//   - string: The assistant reply text.
//   - error: Non-nil only when the model backend failed.
func (e *Engine) Respond(ctx context.Context, message string, creds datatypes.CredentialContext, history []datatypes.Turn) (string, error) {
	ctx, span := tracer.Start(ctx, "engine.Respond")
	defer span.End()

	intent := DetectIntent(message)
	span.SetAttributes(attribute.String("chat.intent", string(intent)))

	messages := []datatypes.Message{
		{Role: datatypes.RoleSystem, Content: ComposeSystemPrompt(intent, history)},
		{Role: datatypes.RoleUser, Content: message},
	}

	observability.RecordModelCall("one", e.backend)
	first, err := e.client.ChatWithTools(ctx, messages, e.params, e.registry.Definitions())
	if err != nil {
		span.RecordError(err)
		return "", &UpstreamModelError{Stage: "round one", Err: err}
	}

	if len(first.ToolCalls) == 0 {
		// Terminal: the model answered without capabilities.
		return first.Content, nil
	}

	slog.Info("Model requested capabilities",
		"intent", intent,
		"count", len(first.ToolCalls))
	span.SetAttributes(attribute.Int("chat.tool_calls", len(first.ToolCalls)))

	results := e.dispatch(ctx, first.ToolCalls, creds)

	// Round two: original context + the model's invocation message + one
	// tagged result message per invocation. No capabilities are offered,
	// so this round always terminates in text.
	messages = append(messages, datatypes.Message{
		Role:      datatypes.RoleAssistant,
		Content:   first.Content,
		ToolCalls: first.ToolCalls,
	})
	messages = append(messages, results...)

	observability.RecordModelCall("two", e.backend)
	reply, err := e.client.Chat(ctx, messages, e.params)
	if err != nil {
		span.RecordError(err)
		return "", &UpstreamModelError{Stage: "round two", Err: err}
	}
	return reply, nil
}

// dispatch resolves every invocation request to a tagged result message.
//
// Requests that fail name, schema, or credential-prerequisite checks get a
// synthesized failure envelope without any external call. The remainder run
// concurrently; each failure is independent and none prevents the others.
// Result order matches request order regardless of completion order.
func (e *Engine) dispatch(ctx context.Context, calls []datatypes.ToolCall, creds datatypes.CredentialContext) []datatypes.Message {
	ctx, span := tracer.Start(ctx, "engine.dispatch")
	defer span.End()

	// Capability calls side-effect external systems. A caller disconnect
	// must not abandon a write already issued, so invocations run detached
	// from the request's cancellation.
	invokeCtx := context.WithoutCancel(ctx)

	envelopes := make([]datatypes.ToolResult, len(calls))
	g, gctx := errgroup.WithContext(invokeCtx)
	g.SetLimit(maxConcurrentInvocations)

	for i, call := range calls {
		provider, ok := e.registry.Lookup(call.Name)
		if !ok {
			slog.Warn("Model requested unknown capability", "capability", call.Name)
			observability.RecordCapability(call.Name, "rejected")
			envelopes[i] = datatypes.ToolFailure("unknown_capability",
				fmt.Sprintf("No capability named %q is available.", call.Name))
			continue
		}

		args, err := tools.ValidateArgs(provider.Schema(), call.Arguments)
		if err != nil {
			slog.Warn("Capability arguments rejected", "capability", call.Name, "error", err)
			observability.RecordCapability(call.Name, "rejected")
			envelopes[i] = datatypes.ToolFailure("invalid_arguments", err.Error())
			continue
		}

		if env, ok := checkPrerequisites(provider, creds); !ok {
			observability.RecordCapability(call.Name, "rejected")
			envelopes[i] = env
			continue
		}

		g.Go(func() error {
			envelopes[i] = safeInvoke(gctx, provider, args, creds)
			outcome := "success"
			if !envelopes[i].Success {
				outcome = "failure"
			}
			observability.RecordCapability(call.Name, outcome)
			return nil
		})
	}
	// Workers never return errors; Wait is only a barrier.
	_ = g.Wait()

	results := make([]datatypes.Message, len(calls))
	for i, call := range calls {
		results[i] = datatypes.Message{
			Role:       datatypes.RoleTool,
			Content:    envelopes[i].ToJSON(),
			ToolCallID: call.ID,
			ToolName:   call.Name,
		}
	}
	return results
}

// checkPrerequisites verifies the credential fields a capability declares.
// A missing prerequisite yields the failure envelope to use in its place.
func checkPrerequisites(provider tools.Capability, creds datatypes.CredentialContext) (datatypes.ToolResult, bool) {
	req := provider.Requirements()
	if req.UserIdentity && !creds.HasUser() {
		return datatypes.ToolFailure("user_not_authenticated",
			"This action needs a signed-in student. Please log in and try again."), false
	}
	if req.GoogleToken && !creds.HasGoogleToken() {
		return datatypes.ToolAuthFailure("google_token_missing",
			"This action needs access to your Google account. Please connect your Google account and try again."), false
	}
	return datatypes.ToolResult{}, true
}

// safeInvoke calls the provider and converts a panic into a failure
// envelope so a misbehaving provider never aborts the turn.
func safeInvoke(ctx context.Context, provider tools.Capability, args map[string]any, creds datatypes.CredentialContext) (result datatypes.ToolResult) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Capability panicked", "capability", provider.Schema().Name, "panic", r)
			result = datatypes.ToolFailure("capability_panic",
				"The requested action failed unexpectedly.")
		}
	}()
	return provider.Invoke(ctx, args, creds)
}
