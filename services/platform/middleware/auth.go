// Copyright (C) 2025 Not Another Coach (engineering@notanothercoach.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package middleware provides HTTP middleware for the platform service.
//
// # Session Flow
//
// The session middleware extracts a bearer token from the Authorization
// header, resolves it to a client session using the configured
// SessionProvider, and stores the resulting engagement.Session in the
// Gin context for downstream handlers.
//
//	Request
//	   │
//	   ▼
//	SessionMiddleware
//	   │
//	   ├─► Extract token from "Authorization: Bearer <token>"
//	   │
//	   ├─► provider.Resolve(ctx, token)
//	   │
//	   └─► Store engagement.Session in context
//	           │
//	           ▼
//	       Handler (retrieves via GetSession)
//
// Requests without a token are guests: the session carries an empty
// client ID and every gated surface renders its anonymous form. The
// X-Guest-Preview header forces guest rendering even when a valid
// token is present, so logged-in clients can preview public pages.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Not-Another-Coach/nac-platform/pkg/validation"
	"github.com/Not-Another-Coach/nac-platform/services/engagement"
)

// =============================================================================
// Context Keys
// =============================================================================

// sessionKey is the context key for storing the resolved session.
// Using a service-prefixed key prevents collisions with other context values.
const sessionKey = "nac_session"

// GuestPreviewHeader forces guest rendering for an authenticated request.
const GuestPreviewHeader = "X-Guest-Preview"

// ErrUnauthorized is returned by SessionProviders for tokens that are
// present but invalid. Missing tokens are not an error; they resolve
// to a guest session.
var ErrUnauthorized = errors.New("unauthorized")

// =============================================================================
// Session Provider
// =============================================================================

// SessionProvider resolves a bearer token to a client session.
//
// Implementations must treat an empty token as a guest and return a
// zero session with no error. ErrUnauthorized is reserved for tokens
// that are present but fail validation.
type SessionProvider interface {
	Resolve(ctx context.Context, token string) (engagement.Session, error)
}

// StaticProvider is the development provider: the token IS the client
// ID. Production deployments replace this with an identity-provider
// backed implementation.
type StaticProvider struct{}

// Resolve treats the token as a client ID after format validation.
func (StaticProvider) Resolve(_ context.Context, token string) (engagement.Session, error) {
	if token == "" {
		return engagement.Session{}, nil
	}
	clientID, err := validation.SanitizeID(token)
	if err != nil {
		return engagement.Session{}, ErrUnauthorized
	}
	return engagement.Session{ClientID: clientID}, nil
}

// =============================================================================
// Context Helpers
// =============================================================================

// SetSession stores the resolved session in the Gin context.
func SetSession(c *gin.Context, sess engagement.Session) {
	c.Set(sessionKey, sess)
}

// GetSession retrieves the session stored by SessionMiddleware.
// Returns a guest session if the middleware did not run.
func GetSession(c *gin.Context) engagement.Session {
	if v, exists := c.Get(sessionKey); exists {
		if sess, ok := v.(engagement.Session); ok {
			return sess
		}
	}
	return engagement.Session{}
}

// =============================================================================
// Session Middleware
// =============================================================================

// SessionMiddleware creates a Gin middleware that resolves the caller's
// session.
//
// Tokens that are present but invalid abort with 401. Missing tokens
// fall through as guests so public directory pages keep working.
func SessionMiddleware(provider SessionProvider) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractBearerToken(c)

		sess, err := provider.Resolve(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "unauthorized",
			})
			return
		}

		if c.GetHeader(GuestPreviewHeader) != "" {
			sess.ForceGuest = true
		}

		SetSession(c, sess)
		c.Next()
	}
}

// RequireClient aborts with 401 when the session is a guest. Apply to
// routes that mutate state or expose private data.
func RequireClient() gin.HandlerFunc {
	return func(c *gin.Context) {
		if GetSession(c).IsGuest() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "sign in required",
			})
			return
		}
		c.Next()
	}
}

// =============================================================================
// Helper Functions
// =============================================================================

// extractBearerToken extracts the token from the Authorization header.
//
// Expects format "Bearer <token>"; the prefix is case-insensitive per
// RFC 7235. Returns empty string if the header is missing or malformed.
func extractBearerToken(c *gin.Context) string {
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
