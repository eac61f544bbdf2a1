// Copyright (C) 2025 StudyRobo (engineering@studyrobo.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package llm

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/sashabaranov/go-openai"

	"github.com/StudyRobo/StudyRoboServer/services/assistant/datatypes"
)

const mistralBaseURL = "https://api.mistral.ai/v1"

// MistralClient talks to the Mistral chat API through its OpenAI-compatible
// endpoint. Tool calling is not enabled for this backend, so the engine
// answers every turn in a single completion when Mistral is selected.
type MistralClient struct {
	client *openai.Client
	model  string
}

// NewMistralClient creates a Mistral client from the environment.
// MISTRAL_API_KEY is required; MISTRAL_MODEL defaults to mistral-small-latest.
func NewMistralClient() (*MistralClient, error) {
	apiKey := os.Getenv("MISTRAL_API_KEY")
	if apiKey == "" {
		slog.Error("MISTRAL_API_KEY environment variable not set")
		return nil, fmt.Errorf("MISTRAL_API_KEY environment variable not set")
	}
	model := os.Getenv("MISTRAL_MODEL")
	if model == "" {
		model = "mistral-small-latest"
		slog.Warn("MISTRAL_MODEL not set, defaulting to mistral-small-latest")
	}
	config := openai.DefaultConfig(apiKey)
	config.BaseURL = mistralBaseURL
	slog.Info("Initializing Mistral client", "model", model)
	return &MistralClient{
		client: openai.NewClientWithConfig(config),
		model:  model,
	}, nil
}

// SupportsToolCalls implements the LLMClient interface.
func (m *MistralClient) SupportsToolCalls() bool { return false }

// Chat implements the LLMClient interface.
func (m *MistralClient) Chat(ctx context.Context, messages []datatypes.Message, params GenerationParams) (string, error) {
	req := openai.ChatCompletionRequest{
		Model:    m.model,
		Messages: toOpenAIMessages(messages),
	}
	if params.Temperature != nil {
		req.Temperature = *params.Temperature
	}
	if params.MaxTokens != nil {
		req.MaxTokens = *params.MaxTokens
	}

	resp, err := m.client.CreateChatCompletion(ctx, req)
	if err != nil {
		slog.Error("Mistral API call failed", "error", err)
		return "", fmt.Errorf("Mistral API call failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("Mistral returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// ChatWithTools implements the LLMClient interface. Tool definitions are
// ignored; the call degrades to a plain completion.
func (m *MistralClient) ChatWithTools(ctx context.Context, messages []datatypes.Message,
	params GenerationParams, tools []datatypes.ToolDefinition) (*ChatWithToolsResult, error) {

	if len(tools) > 0 {
		slog.Debug("Mistral backend ignoring tool definitions", "count", len(tools))
	}
	content, err := m.Chat(ctx, messages, params)
	if err != nil {
		return nil, err
	}
	return &ChatWithToolsResult{Content: content, StopReason: "end"}, nil
}
