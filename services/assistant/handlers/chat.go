// Copyright (C) 2025 StudyRobo (engineering@studyrobo.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package handlers implements the HTTP handlers for the assistant service.
//
// Handlers are thin transport glue: they bind and validate the request,
// pull the credential context placed by the auth middleware, call the
// service layer, and map service errors to HTTP statuses. No conversation
// or capability logic lives here.
package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/StudyRobo/StudyRoboServer/services/assistant/datatypes"
	"github.com/StudyRobo/StudyRoboServer/services/assistant/engine"
	"github.com/StudyRobo/StudyRoboServer/services/assistant/middleware"
	"github.com/StudyRobo/StudyRoboServer/services/assistant/store"
)

// ChatHandler serves the chat-turn endpoints.
type ChatHandler struct {
	service *engine.ChatService
	store   store.ConversationStore
}

// NewChatHandler builds a ChatHandler.
func NewChatHandler(service *engine.ChatService, convStore store.ConversationStore) *ChatHandler {
	return &ChatHandler{service: service, store: convStore}
}

// HandleChat processes POST /api/v1/chat: one chat turn on the caller's
// legacy per-user stream.
func (h *ChatHandler) HandleChat(c *gin.Context) {
	var req datatypes.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	creds := middleware.GetCredentials(c)
	if creds.UserID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	reply, err := h.service.HandleTurn(c.Request.Context(), req.Message, creds)
	if err != nil {
		h.writeTurnError(c, err)
		return
	}
	c.JSON(http.StatusOK, datatypes.ChatResponse{Reply: reply})
}

// HandleChatHistory processes GET /api/v1/chat/messages: the caller's legacy
// per-user stream, oldest first.
func (h *ChatHandler) HandleChatHistory(c *gin.Context) {
	creds := middleware.GetCredentials(c)
	if creds.UserID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	turns, err := h.store.ListTurns(c.Request.Context(), creds.Stream())
	if err != nil {
		slog.Error("History listing failed", "user_id", creds.UserID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"messages": turns, "count": len(turns)})
}

// HandleConversationChat processes POST /api/v1/conversations/:id/messages:
// one chat turn on a conversation-scoped stream. The caller must own the
// conversation.
func (h *ChatHandler) HandleConversationChat(c *gin.Context) {
	var req datatypes.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if err := req.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	creds := middleware.GetCredentials(c)
	if creds.UserID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "not authenticated"})
		return
	}

	conversationID := c.Param("id")
	conv, err := h.store.GetConversation(c.Request.Context(), conversationID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "conversation not found"})
			return
		}
		slog.Error("Conversation lookup failed", "conversation_id", conversationID, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
		return
	}
	if conv.OwnerID != creds.UserID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not your conversation"})
		return
	}

	creds.ConversationID = conversationID
	reply, err := h.service.HandleTurn(c.Request.Context(), req.Message, creds)
	if err != nil {
		h.writeTurnError(c, err)
		return
	}
	c.JSON(http.StatusOK, datatypes.ChatResponse{Reply: reply})
}

// writeTurnError maps chat-turn errors to HTTP statuses. Model failures
// never reach here: the service converts them to apology replies.
func (h *ChatHandler) writeTurnError(c *gin.Context, err error) {
	if engine.IsValidationError(err) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	slog.Error("Chat turn failed", "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
}
