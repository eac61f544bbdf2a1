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

	"github.com/StudyRobo/StudyRoboServer/services/assistant/datatypes"
	"github.com/StudyRobo/StudyRoboServer/services/assistant/store"
)

// =============================================================================
// mark_attendance
// =============================================================================

// AttendanceMarker answers mark_attendance requests by recording a presence
// entry for the authenticated student.
type AttendanceMarker struct {
	store store.AttendanceStore
}

var _ Capability = (*AttendanceMarker)(nil)

// NewAttendanceMarker builds the attendance-marking capability.
func NewAttendanceMarker(s store.AttendanceStore) *AttendanceMarker {
	return &AttendanceMarker{store: s}
}

// Schema implements Capability.
func (a *AttendanceMarker) Schema() Schema {
	return Schema{
		Name:        "mark_attendance",
		Description: "Record the student as present for a class session today. Use when the student asks to mark, log, or register their attendance.",
		Params: []Param{
			{
				Name:        "course_name",
				Type:        ParamString,
				Description: "The course or class the student attended",
				Required:    true,
			},
		},
	}
}

// Requirements implements Capability. Attendance is always tied to a known
// student identity.
func (a *AttendanceMarker) Requirements() Requirements {
	return Requirements{UserIdentity: true}
}

// Invoke records the attendance entry.
func (a *AttendanceMarker) Invoke(ctx context.Context, args map[string]any, creds datatypes.CredentialContext) datatypes.ToolResult {
	course := StringArg(args, "course_name", "")

	rec, err := a.store.Mark(ctx, creds.UserID, course)
	if err != nil {
		slog.Error("Attendance mark failed", "user_id", creds.UserID, "error", err)
		return datatypes.ToolFailure("attendance_write_failed", "Could not record attendance right now.")
	}

	return datatypes.ToolSuccess(
		fmt.Sprintf("Attendance recorded for %s.", course),
		map[string]any{
			"course_name": rec.CourseName,
			"status":      rec.Status,
			"marked_at":   rec.MarkedAt.Format(time.RFC3339),
		},
	)
}

// =============================================================================
// get_attendance_records
// =============================================================================

// AttendanceReader answers get_attendance_records requests with the
// student's attendance history, most recent first.
type AttendanceReader struct {
	store store.AttendanceStore
}

var _ Capability = (*AttendanceReader)(nil)

// NewAttendanceReader builds the attendance-history capability.
func NewAttendanceReader(s store.AttendanceStore) *AttendanceReader {
	return &AttendanceReader{store: s}
}

// Schema implements Capability.
func (a *AttendanceReader) Schema() Schema {
	return Schema{
		Name:        "get_attendance_records",
		Description: "Retrieve the student's attendance history, optionally filtered to one course. Use when the student asks how many classes they attended or wants their attendance record.",
		Params: []Param{
			{
				Name:        "course_name",
				Type:        ParamString,
				Description: "Restrict results to this course; omit for all courses",
			},
			{
				Name:        "limit",
				Type:        ParamInteger,
				Description: "Maximum number of records to return (default 20)",
			},
		},
	}
}

// Requirements implements Capability.
func (a *AttendanceReader) Requirements() Requirements {
	return Requirements{UserIdentity: true}
}

// Invoke lists attendance entries for the student.
func (a *AttendanceReader) Invoke(ctx context.Context, args map[string]any, creds datatypes.CredentialContext) datatypes.ToolResult {
	course := StringArg(args, "course_name", "")
	limit := IntArg(args, "limit", 20)
	if limit <= 0 || limit > 100 {
		limit = 20
	}

	records, err := a.store.List(ctx, creds.UserID, course)
	if err != nil {
		slog.Error("Attendance list failed", "user_id", creds.UserID, "error", err)
		return datatypes.ToolFailure("attendance_read_failed", "Could not read attendance records right now.")
	}
	if len(records) > limit {
		records = records[:limit]
	}

	out := make([]map[string]any, 0, len(records))
	for _, rec := range records {
		out = append(out, map[string]any{
			"course_name": rec.CourseName,
			"status":      rec.Status,
			"marked_at":   rec.MarkedAt.Format(time.RFC3339),
		})
	}
	return datatypes.ToolSuccess(
		fmt.Sprintf("Found %d attendance records.", len(out)),
		map[string]any{"records": out, "count": len(out)},
	)
}
