// Copyright (C) 2025 StudyRobo (engineering@studyrobo.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/StudyRobo/StudyRoboServer/services/assistant/datatypes"
	"github.com/StudyRobo/StudyRoboServer/services/assistant/middleware"
	"github.com/StudyRobo/StudyRoboServer/services/assistant/store"
)

// AttendanceHandler serves the direct attendance endpoints. The same store
// backs the chat capabilities, so records marked through chat and through
// REST land in one log.
type AttendanceHandler struct {
	store store.AttendanceStore
}

// NewAttendanceHandler builds an AttendanceHandler.
func NewAttendanceHandler(attStore store.AttendanceStore) *AttendanceHandler {
	return &AttendanceHandler{store: attStore}
}

// HandleMark processes POST /api/v1/attendance.
func (h *AttendanceHandler) HandleMark(c *gin.Context) {
	var req datatypes.AttendanceMarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	creds := middleware.GetCredentials(c)
	rec, err := h.store.Mark(c.Request.Context(), creds.UserID, req.CourseName)
	if err != nil {
		slog.Error("Attendance mark failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusCreated, rec)
}

// HandleList processes GET /api/v1/attendance. An optional ?course= query
// filters by course name.
func (h *AttendanceHandler) HandleList(c *gin.Context) {
	creds := middleware.GetCredentials(c)
	records, err := h.store.List(c.Request.Context(), creds.UserID, c.Query("course"))
	if err != nil {
		slog.Error("Attendance list failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records, "count": len(records)})
}
