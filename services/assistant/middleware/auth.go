// Copyright (C) 2025 StudyRobo (engineering@studyrobo.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package middleware provides HTTP middleware for the assistant service.
//
// # Authentication Flow
//
// The auth middleware extracts a bearer credential from the Authorization
// header, verifies it through the configured identity.Verifier, and builds
// the per-request credential context stored in the Gin context for
// downstream handlers.
//
//	Request
//	   │
//	   ▼
//	AuthMiddleware
//	   │
//	   ├─► Extract credential from "Authorization: Bearer <token>"
//	   │
//	   ├─► verifier.Verify(ctx, credential)
//	   │
//	   ├─► Resolve Google access token (X-Google-Token header, then
//	   │   the token store keyed by external identity)
//	   │
//	   └─► Store CredentialContext in context
//	           │
//	           ▼
//	       Handler (retrieves via GetCredentials)
//
// # Local Development
//
// With identity.StaticVerifier (the default when no Google client ID is
// configured), every request is authenticated as "local-user" so the
// service runs without identity infrastructure.
package middleware

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/StudyRobo/StudyRoboServer/pkg/identity"
	"github.com/StudyRobo/StudyRoboServer/services/assistant/datatypes"
	"github.com/StudyRobo/StudyRoboServer/services/assistant/store"
)

// =============================================================================
// Context Keys
// =============================================================================

// credentialsKey is the context key for storing the CredentialContext.
// Using a namespaced key prevents collisions with other context values.
const credentialsKey = "studyrobo_credentials"

// googleTokenHeader lets clients supply a freshly granted Google access
// token directly; it takes precedence over the stored one.
const googleTokenHeader = "X-Google-Token"

// =============================================================================
// Context Helpers
// =============================================================================

// SetCredentials stores the per-request credential context. Called by
// AuthMiddleware after successful verification.
func SetCredentials(c *gin.Context, creds datatypes.CredentialContext) {
	c.Set(credentialsKey, creds)
}

// GetCredentials retrieves the credential context placed by AuthMiddleware.
// The zero value is returned when the request never passed the middleware.
func GetCredentials(c *gin.Context) datatypes.CredentialContext {
	if v, exists := c.Get(credentialsKey); exists {
		if creds, ok := v.(datatypes.CredentialContext); ok {
			return creds
		}
	}
	return datatypes.CredentialContext{}
}

// =============================================================================
// Auth Middleware
// =============================================================================

// AuthMiddleware creates a Gin middleware that authenticates requests and
// assembles the credential context.
//
// # Description
//
// Extracts the bearer credential from the Authorization header and
// verifies it with the identity verifier. The Google access token is
// resolved from the X-Google-Token header first, falling back to the token
// store keyed by the verified external identity; a request without either
// simply gets a context without a Google token, and capabilities that need
// one report that to the student.
//
// # Inputs
//
//   - verifier: Identity verifier. Must not be nil.
//   - tokens: Token store for persisted Google grants. May be nil.
//
// # Outputs
//
//   - gin.HandlerFunc: Middleware function ready for use with Gin
func AuthMiddleware(verifier identity.Verifier, tokens store.TokenStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		credential := extractBearerCredential(c)

		info, err := verifier.Verify(c.Request.Context(), credential)
		if err != nil {
			if errors.Is(err, identity.ErrUnauthorized) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error": "unauthorized",
				})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "authentication failed",
			})
			return
		}

		creds := datatypes.CredentialContext{UserID: info.UserID}

		if token := c.GetHeader(googleTokenHeader); token != "" {
			creds.GoogleAccessToken = token
		} else if tokens != nil && info.ExternalID != "" {
			rec, err := tokens.Get(c.Request.Context(), info.ExternalID)
			if err == nil && rec != nil {
				creds.GoogleAccessToken = rec.AccessToken
			} else if err != nil && !errors.Is(err, store.ErrNotFound) {
				slog.Warn("Token store lookup failed", "error", err)
			}
		}

		SetCredentials(c, creds)
		c.Next()
	}
}

// =============================================================================
// Helper Functions
// =============================================================================

// extractBearerCredential parses the Authorization header expecting the
// form "Bearer <token>". Returns empty string if the header is missing or
// malformed. The "Bearer" prefix is case-insensitive per RFC 7235.
func extractBearerCredential(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}

	return strings.TrimSpace(parts[1])
}
