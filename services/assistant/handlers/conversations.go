// Copyright (C) 2025 StudyRobo (engineering@studyrobo.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/StudyRobo/StudyRoboServer/services/assistant/datatypes"
	"github.com/StudyRobo/StudyRoboServer/services/assistant/middleware"
	"github.com/StudyRobo/StudyRoboServer/services/assistant/store"
)

// ConversationHandler serves conversation lifecycle endpoints.
type ConversationHandler struct {
	store store.ConversationStore
}

// NewConversationHandler builds a ConversationHandler.
func NewConversationHandler(convStore store.ConversationStore) *ConversationHandler {
	return &ConversationHandler{store: convStore}
}

// HandleCreate processes POST /api/v1/conversations.
func (h *ConversationHandler) HandleCreate(c *gin.Context) {
	var req datatypes.ConversationCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	creds := middleware.GetCredentials(c)
	id, err := h.store.CreateConversation(c.Request.Context(), creds.UserID, req.Title)
	if err != nil {
		slog.Error("Conversation create failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": id, "title": req.Title})
}

// HandleList processes GET /api/v1/conversations: the caller's
// conversations, newest first.
func (h *ConversationHandler) HandleList(c *gin.Context) {
	creds := middleware.GetCredentials(c)
	conversations, err := h.store.ListConversations(c.Request.Context(), creds.UserID)
	if err != nil {
		slog.Error("Conversation list failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversations": conversations})
}

// HandleGet processes GET /api/v1/conversations/:id: conversation metadata
// plus its full turn history, oldest first.
func (h *ConversationHandler) HandleGet(c *gin.Context) {
	creds := middleware.GetCredentials(c)
	id := c.Param("id")

	conv, err := h.store.GetConversation(c.Request.Context(), id)
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	if conv.OwnerID != creds.UserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your conversation"})
		return
	}

	turns, err := h.store.ListTurns(c.Request.Context(), datatypes.ConversationStream(id))
	if err != nil {
		slog.Error("Turn list failed", "conversation_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversation": conv, "turns": turns})
}

// HandleGetMessages processes GET /api/v1/conversations/:id/messages: the
// conversation's turn history alone, oldest first. The caller must own the
// conversation.
func (h *ConversationHandler) HandleGetMessages(c *gin.Context) {
	creds := middleware.GetCredentials(c)
	id := c.Param("id")

	conv, err := h.store.GetConversation(c.Request.Context(), id)
	if err != nil {
		h.writeStoreError(c, err)
		return
	}
	if conv.OwnerID != creds.UserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your conversation"})
		return
	}

	turns, err := h.store.ListTurns(c.Request.Context(), datatypes.ConversationStream(id))
	if err != nil {
		slog.Error("Turn list failed", "conversation_id", id, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": turns, "count": len(turns)})
}

// HandleRename processes PUT /api/v1/conversations/:id.
func (h *ConversationHandler) HandleRename(c *gin.Context) {
	var req datatypes.ConversationCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	creds := middleware.GetCredentials(c)
	id := c.Param("id")
	if err := h.store.RenameConversation(c.Request.Context(), id, creds.UserID, req.Title); err != nil {
		h.writeStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": id, "title": req.Title})
}

// HandleDelete processes DELETE /api/v1/conversations/:id. Deletion
// cascades to the conversation's turns; an unauthorized or unknown id
// deletes nothing.
func (h *ConversationHandler) HandleDelete(c *gin.Context) {
	creds := middleware.GetCredentials(c)
	id := c.Param("id")

	if err := h.store.DeleteConversation(c.Request.Context(), id, creds.UserID); err != nil {
		h.writeStoreError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// writeStoreError maps store error kinds to HTTP statuses: unknown id is
// 404, wrong owner is 403, anything else is 500.
func (h *ConversationHandler) writeStoreError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
	case errors.Is(err, store.ErrNotOwner):
		c.JSON(http.StatusForbidden, gin.H{"error": "not your conversation"})
	default:
		slog.Error("Conversation store operation failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
