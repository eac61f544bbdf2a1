// Copyright (C) 2025 StudyRobo (engineering@studyrobo.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/StudyRobo/StudyRoboServer/pkg/identity"
	"github.com/StudyRobo/StudyRoboServer/services/assistant/engine"
	"github.com/StudyRobo/StudyRoboServer/services/assistant/handlers"
	"github.com/StudyRobo/StudyRoboServer/services/assistant/middleware"
	"github.com/StudyRobo/StudyRoboServer/services/assistant/store"
)

// Deps carries everything the route table needs wired in.
type Deps struct {
	ChatService   *engine.ChatService
	Conversations store.ConversationStore
	Attendance    store.AttendanceStore
	Tokens        store.TokenStore
	Verifier      identity.Verifier
	RateLimiter   *middleware.RateLimiter
}

// SetupRoutes registers all HTTP routes on the router.
func SetupRoutes(router *gin.Engine, deps Deps) {
	router.GET("/healthz", handlers.HandleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	chat := handlers.NewChatHandler(deps.ChatService, deps.Conversations)
	conversations := handlers.NewConversationHandler(deps.Conversations)
	attendance := handlers.NewAttendanceHandler(deps.Attendance)

	// API version 1 group
	v1 := router.Group("/api/v1")
	v1.Use(middleware.AuthMiddleware(deps.Verifier, deps.Tokens))
	if deps.RateLimiter != nil {
		v1.Use(deps.RateLimiter.Middleware())
	}
	{
		v1.POST("/chat", chat.HandleChat)
		v1.GET("/chat/messages", chat.HandleChatHistory)

		convs := v1.Group("/conversations")
		{
			convs.POST("", conversations.HandleCreate)
			convs.GET("", conversations.HandleList)
			convs.GET("/:id", conversations.HandleGet)
			convs.PUT("/:id", conversations.HandleRename)
			convs.DELETE("/:id", conversations.HandleDelete)
			convs.GET("/:id/messages", conversations.HandleGetMessages)
			convs.POST("/:id/messages", chat.HandleConversationChat)
		}

		v1.POST("/attendance", attendance.HandleMark)
		v1.GET("/attendance", attendance.HandleList)
	}
}
