// Copyright (C) 2025 StudyRobo (engineering@studyrobo.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package tools

import (
	"context"
	"strings"

	"github.com/StudyRobo/StudyRoboServer/services/assistant/datatypes"
)

// careerField is one curated career-path entry.
type careerField struct {
	Field    string
	Keywords []string
	Outlook  string
	Skills   []string
	Roles    []string
}

// careerKnowledge is the curated career-guidance corpus. Entries are matched
// by keyword against the requested field; the first match wins, so broader
// entries go last.
var careerKnowledge = []careerField{
	{
		Field:    "Software Engineering",
		Keywords: []string{"software", "programming", "developer", "coding", "engineering"},
		Outlook:  "Strong demand across industries, with growth concentrated in cloud infrastructure, distributed systems, and applied machine learning.",
		Skills:   []string{"data structures and algorithms", "a systems language plus a scripting language", "version control and code review", "testing and debugging discipline"},
		Roles:    []string{"Backend Engineer", "Full-Stack Developer", "Site Reliability Engineer", "Machine Learning Engineer"},
	},
	{
		Field:    "Data Science",
		Keywords: []string{"data", "analytics", "statistics", "machine learning", "ai"},
		Outlook:  "Sustained growth as organizations operationalize analytics; entry-level competition is high, so portfolio projects matter.",
		Skills:   []string{"statistics and probability", "Python or R with the standard data stack", "SQL", "communicating results to non-specialists"},
		Roles:    []string{"Data Analyst", "Data Scientist", "ML Engineer", "Analytics Engineer"},
	},
	{
		Field:    "Cybersecurity",
		Keywords: []string{"security", "cyber", "infosec", "hacking"},
		Outlook:  "Persistent talent shortage; certifications and hands-on lab experience carry significant weight with employers.",
		Skills:   []string{"networking fundamentals", "operating system internals", "threat modeling", "incident response"},
		Roles:    []string{"Security Analyst", "Penetration Tester", "Security Engineer"},
	},
	{
		Field:    "Product and Design",
		Keywords: []string{"product", "design", "ux", "ui", "management"},
		Outlook:  "Steady demand for practitioners who pair user research with measurable business outcomes.",
		Skills:   []string{"user research", "prototyping", "stakeholder communication", "basic data literacy"},
		Roles:    []string{"Product Manager", "UX Designer", "UX Researcher"},
	},
}

// CareerInsights answers get_career_insights requests from the curated
// knowledge base. No credentials and no network access are required.
type CareerInsights struct{}

var _ Capability = (*CareerInsights)(nil)

// NewCareerInsights builds the career-guidance capability.
func NewCareerInsights() *CareerInsights {
	return &CareerInsights{}
}

// Schema implements Capability.
func (c *CareerInsights) Schema() Schema {
	return Schema{
		Name:        "get_career_insights",
		Description: "Look up career guidance for a field of study or profession: job outlook, skills to build, and common entry-level roles.",
		Params: []Param{
			{
				Name:        "field",
				Type:        ParamString,
				Description: "The career field or profession the student is asking about",
				Required:    true,
			},
		},
	}
}

// Requirements implements Capability.
func (c *CareerInsights) Requirements() Requirements {
	return Requirements{}
}

// Invoke matches the requested field against the knowledge base. An
// unrecognized field still succeeds with general guidance so the model has
// something concrete to work with.
func (c *CareerInsights) Invoke(_ context.Context, args map[string]any, _ datatypes.CredentialContext) datatypes.ToolResult {
	field := strings.ToLower(StringArg(args, "field", ""))

	for _, entry := range careerKnowledge {
		for _, kw := range entry.Keywords {
			if strings.Contains(field, kw) {
				return datatypes.ToolSuccess(
					"Career guidance for "+entry.Field+".",
					map[string]any{
						"field":        entry.Field,
						"outlook":      entry.Outlook,
						"skills":       entry.Skills,
						"common_roles": entry.Roles,
					},
				)
			}
		}
	}

	return datatypes.ToolSuccess(
		"No curated entry for that field; offering general guidance.",
		map[string]any{
			"field":   StringArg(args, "field", ""),
			"outlook": "No curated data for this field. General advice: research the field's professional associations, talk to practitioners, and build demonstrable projects or internships early.",
			"skills":  []string{"written and verbal communication", "domain fundamentals", "networking within the field"},
		},
	)
}
