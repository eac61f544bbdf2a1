// Copyright (C) 2025 StudyRobo (engineering@studyrobo.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestDetectIntent_Categories verifies keyword routing for each category.
func TestDetectIntent_Categories(t *testing.T) {
	cases := []struct {
		name    string
		message string
		want    Intent
	}{
		{"study keyword", "Can you explain QuickSort to me?", IntentStudy},
		{"study phrase", "help me understand recursion", IntentStudy},
		{"study phrase beats career by order", "what is the job market like for nurses", IntentStudy},
		{"career keyword", "salary prospects in data science", IntentCareer},
		{"attendance keyword", "I was present today", IntentAttendance},
		{"email keyword", "any unread mail in my inbox?", IntentEmail},
		{"no match", "tell me a joke", IntentGeneral},
		{"empty message", "", IntentGeneral},
		{"case insensitive", "EXPLAIN sorting", IntentStudy},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, DetectIntent(tc.message))
		})
	}
}

// TestDetectIntent_OrderTieBreak verifies that declaration order breaks
// ties when multiple categories match.
func TestDetectIntent_OrderTieBreak(t *testing.T) {
	// "exam" (study) and "email" (email) both match; study is declared first.
	assert.Equal(t, IntentStudy, DetectIntent("email me the exam schedule"))
	// "career" (career) and "class" (attendance); career is declared first.
	assert.Equal(t, IntentCareer, DetectIntent("which class helps my career"))
}

// TestDetectIntent_Total verifies the classifier always returns a category.
func TestDetectIntent_Total(t *testing.T) {
	for _, msg := range []string{"???", "42", "\n\t", "ünïcödé"} {
		got := DetectIntent(msg)
		assert.NotEmpty(t, got, "classification must be total")
	}
}
