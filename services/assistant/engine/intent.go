// Copyright (C) 2025 StudyRobo (engineering@studyrobo.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package engine

import "strings"

// Intent is the topic category of an inbound message. It selects the system
// prompt only; it never gates which capabilities are offered to the model.
type Intent string

const (
	IntentStudy      Intent = "study"
	IntentCareer     Intent = "career"
	IntentAttendance Intent = "attendance"
	IntentEmail      Intent = "email"
	IntentGeneral    Intent = "general"
)

// intentCategory pairs a category with its trigger keywords. Declaration
// order is significant: the first category with a keyword hit wins.
type intentCategory struct {
	intent   Intent
	keywords []string
}

var intentCategories = []intentCategory{
	{IntentStudy, []string{
		"study", "learn", "explain", "what is", "help me understand",
		"exam", "topic", "concept", "algorithm", "syllabus",
		"material", "notes", "homework", "assignment",
	}},
	{IntentCareer, []string{
		"career", "job", "salary", "work", "employment",
		"profession", "field", "market", "opportunity", "growth",
	}},
	{IntentAttendance, []string{
		"attendance", "present", "absent", "mark", "class", "course",
	}},
	{IntentEmail, []string{
		"email", "gmail", "inbox", "draft", "send", "message", "unread", "check",
	}},
}

// DetectIntent classifies a message by keyword substring match against the
// ordered category list. Deterministic and total: every message maps to
// exactly one category, falling back to IntentGeneral.
func DetectIntent(message string) Intent {
	lower := strings.ToLower(message)
	for _, cat := range intentCategories {
		for _, kw := range cat.keywords {
			if strings.Contains(lower, kw) {
				return cat.intent
			}
		}
	}
	return IntentGeneral
}
