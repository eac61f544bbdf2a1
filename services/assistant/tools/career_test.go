// Copyright (C) 2025 StudyRobo (engineering@studyrobo.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package tools

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/StudyRobo/StudyRoboServer/services/assistant/datatypes"
)

// TestCareerInsights_KnownField verifies keyword matching against the
// curated knowledge base.
func TestCareerInsights_KnownField(t *testing.T) {
	c := NewCareerInsights()

	result := c.Invoke(context.Background(), map[string]any{"field": "Software Development"}, datatypes.CredentialContext{})

	require.True(t, result.Success)
	assert.Equal(t, "Software Engineering", result.Data["field"])
	assert.NotEmpty(t, result.Data["outlook"])
	assert.NotEmpty(t, result.Data["common_roles"])
}

// TestCareerInsights_CaseInsensitive verifies matching ignores case.
func TestCareerInsights_CaseInsensitive(t *testing.T) {
	c := NewCareerInsights()
	result := c.Invoke(context.Background(), map[string]any{"field": "CYBERSECURITY"}, datatypes.CredentialContext{})
	require.True(t, result.Success)
	assert.Equal(t, "Cybersecurity", result.Data["field"])
}

// TestCareerInsights_UnknownField verifies an unrecognized field still
// succeeds with general guidance, never a failure envelope.
func TestCareerInsights_UnknownField(t *testing.T) {
	c := NewCareerInsights()
	result := c.Invoke(context.Background(), map[string]any{"field": "underwater basket weaving"}, datatypes.CredentialContext{})

	require.True(t, result.Success, "unknown fields must not fail the capability")
	assert.Contains(t, result.Data["outlook"], "No curated data")
}

// TestCareerInsights_NoCredentialsNeeded verifies the capability declares
// no prerequisites.
func TestCareerInsights_NoCredentialsNeeded(t *testing.T) {
	req := NewCareerInsights().Requirements()
	assert.False(t, req.UserIdentity)
	assert.False(t, req.GoogleToken)
}
