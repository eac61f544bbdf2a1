// Copyright (C) 2025 StudyRobo (engineering@studyrobo.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package tools

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/StudyRobo/StudyRoboServer/services/assistant/datatypes"
)

// defaultEventDuration is applied when the model schedules an event without
// an explicit end time.
const defaultEventDuration = time.Hour

// calendarService builds a Calendar client scoped to the student's token.
func calendarService(ctx context.Context, accessToken string) (*calendar.Service, error) {
	source := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken})
	return calendar.NewService(ctx, option.WithTokenSource(source))
}

// eventStart picks the display time of a calendar event, which carries
// either a timed DateTime or an all-day Date.
func eventStart(e *calendar.Event) string {
	if e.Start == nil {
		return ""
	}
	if e.Start.DateTime != "" {
		return e.Start.DateTime
	}
	return e.Start.Date
}

// =============================================================================
// get_upcoming_events
// =============================================================================

// UpcomingEventsReader answers get_upcoming_events requests against the
// student's primary Google Calendar.
type UpcomingEventsReader struct{}

var _ Capability = (*UpcomingEventsReader)(nil)

// NewUpcomingEventsReader builds the upcoming-events capability.
func NewUpcomingEventsReader() *UpcomingEventsReader {
	return &UpcomingEventsReader{}
}

// Schema implements Capability.
func (c *UpcomingEventsReader) Schema() Schema {
	return Schema{
		Name:        "get_upcoming_events",
		Description: "List the student's upcoming calendar events in start-time order. Use when the student asks about their schedule, deadlines, or what is coming up.",
		Params: []Param{
			{
				Name:        "limit",
				Type:        ParamInteger,
				Description: "Maximum number of events to return (default 5)",
			},
		},
	}
}

// Requirements implements Capability.
func (c *UpcomingEventsReader) Requirements() Requirements {
	return Requirements{GoogleToken: true}
}

// Invoke lists events from now forward on the primary calendar.
func (c *UpcomingEventsReader) Invoke(ctx context.Context, args map[string]any, creds datatypes.CredentialContext) datatypes.ToolResult {
	limit := IntArg(args, "limit", 5)
	if limit <= 0 || limit > 20 {
		limit = 5
	}

	srv, err := calendarService(ctx, creds.GoogleAccessToken)
	if err != nil {
		slog.Error("Calendar client init failed", "error", err)
		return datatypes.ToolFailure("calendar_init_failed", "Could not connect to Google Calendar.")
	}

	events, err := srv.Events.List("primary").
		TimeMin(time.Now().Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(int64(limit)).
		Context(ctx).
		Do()
	if err != nil {
		return googleFailure("calendar_list", err)
	}
	if len(events.Items) == 0 {
		return datatypes.ToolSuccess("No upcoming events.", map[string]any{"events": []any{}, "count": 0})
	}

	out := make([]map[string]any, 0, len(events.Items))
	for _, ev := range events.Items {
		out = append(out, map[string]any{
			"summary":  ev.Summary,
			"start":    eventStart(ev),
			"location": ev.Location,
		})
	}
	return datatypes.ToolSuccess(
		fmt.Sprintf("Found %d upcoming events.", len(out)),
		map[string]any{"events": out, "count": len(out)},
	)
}

// =============================================================================
// create_calendar_event
// =============================================================================

// CalendarEventCreator answers create_calendar_event requests by inserting
// an event on the student's primary calendar.
type CalendarEventCreator struct{}

var _ Capability = (*CalendarEventCreator)(nil)

// NewCalendarEventCreator builds the event-creation capability.
func NewCalendarEventCreator() *CalendarEventCreator {
	return &CalendarEventCreator{}
}

// Schema implements Capability.
func (c *CalendarEventCreator) Schema() Schema {
	return Schema{
		Name:        "create_calendar_event",
		Description: "Create an event on the student's primary calendar. Use when the student asks to schedule study time, a meeting, or a reminder at a specific time.",
		Params: []Param{
			{
				Name:        "summary",
				Type:        ParamString,
				Description: "Event title",
				Required:    true,
			},
			{
				Name:        "start_time",
				Type:        ParamString,
				Description: "Event start in RFC 3339 format, e.g. 2026-09-01T14:00:00Z",
				Required:    true,
			},
			{
				Name:        "end_time",
				Type:        ParamString,
				Description: "Event end in RFC 3339 format; defaults to one hour after the start",
			},
			{
				Name:        "description",
				Type:        ParamString,
				Description: "Optional event details",
			},
		},
	}
}

// Requirements implements Capability.
func (c *CalendarEventCreator) Requirements() Requirements {
	return Requirements{GoogleToken: true}
}

// Invoke validates the requested times and inserts the event.
func (c *CalendarEventCreator) Invoke(ctx context.Context, args map[string]any, creds datatypes.CredentialContext) datatypes.ToolResult {
	summary := StringArg(args, "summary", "")
	startRaw := StringArg(args, "start_time", "")
	endRaw := StringArg(args, "end_time", "")

	start, err := time.Parse(time.RFC3339, startRaw)
	if err != nil {
		return datatypes.ToolFailure("invalid_start_time", "The event start time must be in RFC 3339 format.")
	}
	end := start.Add(defaultEventDuration)
	if endRaw != "" {
		end, err = time.Parse(time.RFC3339, endRaw)
		if err != nil {
			return datatypes.ToolFailure("invalid_end_time", "The event end time must be in RFC 3339 format.")
		}
		if !end.After(start) {
			return datatypes.ToolFailure("invalid_end_time", "The event end time must be after the start time.")
		}
	}

	srv, err := calendarService(ctx, creds.GoogleAccessToken)
	if err != nil {
		slog.Error("Calendar client init failed", "error", err)
		return datatypes.ToolFailure("calendar_init_failed", "Could not connect to Google Calendar.")
	}

	event := &calendar.Event{
		Summary:     summary,
		Description: StringArg(args, "description", ""),
		Start:       &calendar.EventDateTime{DateTime: start.Format(time.RFC3339)},
		End:         &calendar.EventDateTime{DateTime: end.Format(time.RFC3339)},
	}
	created, err := srv.Events.Insert("primary", event).Context(ctx).Do()
	if err != nil {
		return googleFailure("calendar_create", err)
	}

	return datatypes.ToolSuccess(
		fmt.Sprintf("Event %q created.", summary),
		map[string]any{
			"event_id": created.Id,
			"summary":  created.Summary,
			"start":    eventStart(created),
			"link":     created.HtmlLink,
		},
	)
}
