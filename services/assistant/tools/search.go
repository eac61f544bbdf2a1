// Copyright (C) 2025 StudyRobo (engineering@studyrobo.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/weaviate/weaviate-go-client/v5/weaviate"
	"github.com/weaviate/weaviate-go-client/v5/weaviate/graphql"
	"github.com/weaviate/weaviate/entities/models"
	"go.opentelemetry.io/otel"

	"github.com/StudyRobo/StudyRoboServer/services/assistant/datatypes"
)

var searchTracer = otel.Tracer("studyrobo.tools.search")

// StudyMaterialClass is the Weaviate class holding indexed course material.
const StudyMaterialClass = "StudyMaterial"

// defaultSearchLimit caps how many passages a single search returns.
const defaultSearchLimit = 4

// =============================================================================
// Schema Management
// =============================================================================

// StudyMaterialSchema returns the Weaviate class definition for indexed
// course material.
func StudyMaterialSchema() *models.Class {
	return &models.Class{
		Class:       StudyMaterialClass,
		Description: "A passage of indexed course material",
		Vectorizer:  "text2vec-transformers",
		Properties: []*models.Property{
			{
				Name:        "content",
				DataType:    []string{"text"},
				Description: "The passage text",
			},
			{
				Name:         "source",
				DataType:     []string{"text"},
				Description:  "Document or course the passage came from",
				Tokenization: models.PropertyTokenizationField,
			},
			{
				Name:         "topic",
				DataType:     []string{"text"},
				Description:  "Topic label assigned at ingestion",
				Tokenization: models.PropertyTokenizationField,
			},
		},
	}
}

// EnsureStudyMaterialSchema creates the StudyMaterial class if it does not
// already exist. Safe to call on every startup.
func EnsureStudyMaterialSchema(ctx context.Context, client *weaviate.Client) error {
	// Check if class already exists
	_, err := client.Schema().ClassGetter().WithClassName(StudyMaterialClass).Do(ctx)
	if err == nil {
		slog.Info("StudyMaterial schema already exists")
		return nil
	}

	slog.Info("Creating StudyMaterial schema")
	if err := client.Schema().ClassCreator().WithClass(StudyMaterialSchema()).Do(ctx); err != nil {
		return fmt.Errorf("creating %s schema: %w", StudyMaterialClass, err)
	}
	return nil
}

// =============================================================================
// GraphQL Response Parsing
// =============================================================================

// studyPassage is one retrieved passage with its relevance certainty.
type studyPassage struct {
	Content    string  `json:"content"`
	Source     string  `json:"source"`
	Topic      string  `json:"topic"`
	Additional struct {
		Certainty float64 `json:"certainty"`
	} `json:"_additional"`
}

// parseGetResponse extracts the typed objects for className from a GraphQL
// Get response by round-tripping the untyped payload through JSON.
func parseGetResponse[T any](data map[string]models.JSONObject, className string) ([]T, error) {
	get, ok := data["Get"]
	if !ok {
		return nil, fmt.Errorf("response missing Get block")
	}
	raw, err := json.Marshal(get)
	if err != nil {
		return nil, fmt.Errorf("re-encoding Get block: %w", err)
	}
	var byClass map[string][]T
	if err := json.Unmarshal(raw, &byClass); err != nil {
		return nil, fmt.Errorf("decoding %s objects: %w", className, err)
	}
	return byClass[className], nil
}

// =============================================================================
// Capability
// =============================================================================

// StudyMaterialSearch answers get_study_material requests with a semantic
// search over the StudyMaterial class.
type StudyMaterialSearch struct {
	client *weaviate.Client
}

var _ Capability = (*StudyMaterialSearch)(nil)

// NewStudyMaterialSearch builds the study-material search capability over an
// established Weaviate client.
func NewStudyMaterialSearch(client *weaviate.Client) *StudyMaterialSearch {
	return &StudyMaterialSearch{client: client}
}

// Schema implements Capability.
func (s *StudyMaterialSearch) Schema() Schema {
	return Schema{
		Name:        "get_study_material",
		Description: "Search the indexed course material for passages relevant to a study question. Use this whenever the student asks about course content, concepts, or exam preparation.",
		Params: []Param{
			{
				Name:        "query",
				Type:        ParamString,
				Description: "The study question or topic to search for",
				Required:    true,
			},
			{
				Name:        "limit",
				Type:        ParamInteger,
				Description: "Maximum number of passages to return (default 4)",
			},
		},
	}
}

// Requirements implements Capability. Search needs no credentials.
func (s *StudyMaterialSearch) Requirements() Requirements {
	return Requirements{}
}

// Invoke runs a nearText query and folds the top passages into the result
// envelope. An unreachable or empty index is a failure envelope, never an
// error: the model explains the gap to the student in round two.
func (s *StudyMaterialSearch) Invoke(ctx context.Context, args map[string]any, _ datatypes.CredentialContext) datatypes.ToolResult {
	ctx, span := searchTracer.Start(ctx, "tools.StudyMaterialSearch.Invoke")
	defer span.End()

	query := StringArg(args, "query", "")
	limit := IntArg(args, "limit", defaultSearchLimit)
	if limit <= 0 || limit > 10 {
		limit = defaultSearchLimit
	}

	fields := []graphql.Field{
		{Name: "content"},
		{Name: "source"},
		{Name: "topic"},
		{Name: "_additional { certainty }"},
	}
	nearText := s.client.GraphQL().NearTextArgBuilder().
		WithConcepts([]string{query})

	resp, err := s.client.GraphQL().Get().
		WithClassName(StudyMaterialClass).
		WithFields(fields...).
		WithNearText(nearText).
		WithLimit(limit).
		Do(ctx)
	if err != nil {
		slog.Warn("Study material search failed", "error", err)
		span.RecordError(err)
		return datatypes.ToolFailure("search_failed", "The study material index is unavailable right now.")
	}
	if len(resp.Errors) > 0 {
		msg := resp.Errors[0].Message
		slog.Warn("Study material query rejected", "error", msg)
		return datatypes.ToolFailure("search_failed", "The study material search could not be completed.")
	}

	passages, err := parseGetResponse[studyPassage](resp.Data, StudyMaterialClass)
	if err != nil {
		slog.Warn("Study material response unreadable", "error", err)
		span.RecordError(err)
		return datatypes.ToolFailure("search_failed", "The study material search returned an unreadable response.")
	}
	if len(passages) == 0 {
		return datatypes.ToolSuccess(
			"No indexed material matched that question.",
			map[string]any{"passages": []any{}},
		)
	}

	out := make([]map[string]any, 0, len(passages))
	for _, p := range passages {
		out = append(out, map[string]any{
			"content":   p.Content,
			"source":    p.Source,
			"topic":     p.Topic,
			"certainty": p.Additional.Certainty,
		})
	}
	return datatypes.ToolSuccess(
		fmt.Sprintf("Found %d relevant passages.", len(out)),
		map[string]any{"passages": out},
	)
}
