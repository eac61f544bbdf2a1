// Copyright (C) 2025 StudyRobo (engineering@studyrobo.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package engine

import (
	"strings"

	"github.com/StudyRobo/StudyRoboServer/services/assistant/datatypes"
)

// historyWindow is how many recent turns are rendered into the system
// prompt. Older turns are dropped, not summarized.
const historyWindow = 10

// systemPrompts maps each intent category to its instruction template.
var systemPrompts = map[Intent]string{
	IntentStudy:      "You are a helpful student mentor assistant. You have access to a tool that can search through study materials and documents. Use the get_study_material tool when students ask about academic topics, concepts, or need help with studying. Provide comprehensive answers based on the retrieved materials.",
	IntentCareer:     "You are a helpful career guidance assistant. You have access to a tool that can look up career insights and job market information. Use the get_career_insights tool when students ask about career prospects, job trends, salary information, or professional development. Provide helpful and realistic career advice.",
	IntentAttendance: "You are a helpful academic assistant. You have access to tools that can mark student attendance and retrieve attendance records. Use the mark_attendance tool when students need to record their presence in class. Be efficient and provide clear confirmations.",
	IntentEmail:      "You are a helpful communication assistant. You have access to tools that can fetch unread emails, draft new messages, and manage the student's calendar. Use the get_unread_emails tool to check for important messages, and use the draft_email tool to compose new emails. Help students manage their inbox efficiently.",
	IntentGeneral:    "You are a helpful student mentor assistant that provides guidance on various academic and personal topics. Be supportive, informative, and encouraging.",
}

// SystemPrompt returns the instruction template for an intent category.
func SystemPrompt(intent Intent) string {
	if p, ok := systemPrompts[intent]; ok {
		return p
	}
	return systemPrompts[IntentGeneral]
}

// ComposeSystemPrompt builds the full system prompt: the category template,
// plus a rendered window of recent history when prior turns exist. History
// is rendered oldest first so the model reads it in conversation order.
func ComposeSystemPrompt(intent Intent, history []datatypes.Turn) string {
	prompt := SystemPrompt(intent)
	if len(history) == 0 {
		return prompt
	}

	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}

	var b strings.Builder
	b.WriteString(prompt)
	b.WriteString("\n\nRecent conversation context:\n")
	for _, turn := range history {
		speaker := "Student"
		if turn.Role == datatypes.RoleAssistant {
			speaker = "Assistant"
		}
		b.WriteString(speaker)
		b.WriteString(": ")
		b.WriteString(turn.Content)
		b.WriteString("\n")
	}
	return b.String()
}
