// Copyright (C) 2025 Not Another Coach (engineering@notanothercoach.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Not-Another-Coach/nac-platform/services/engagement"
)

// =============================================================================
// Test Setup
// =============================================================================

func init() {
	gin.SetMode(gin.TestMode)
}

// =============================================================================
// extractBearerToken Tests
// =============================================================================

func TestExtractBearerToken_ValidToken(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/", nil)
	c.Request.Header.Set("Authorization", "Bearer client-42")

	assert.Equal(t, "client-42", extractBearerToken(c))
}

func TestExtractBearerToken_CaseInsensitivePrefix(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/", nil)
	c.Request.Header.Set("Authorization", "bearer client-42")

	assert.Equal(t, "client-42", extractBearerToken(c))
}

func TestExtractBearerToken_InvalidFormat(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"no bearer prefix", "client-42"},
		{"basic auth", "Basic client-42"},
		{"only bearer", "Bearer"},
		{"missing header", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := gin.CreateTestContext(httptest.NewRecorder())
			c.Request = httptest.NewRequest("GET", "/", nil)
			if tt.header != "" {
				c.Request.Header.Set("Authorization", tt.header)
			}
			assert.Empty(t, extractBearerToken(c))
		})
	}
}

// =============================================================================
// StaticProvider Tests
// =============================================================================

func TestStaticProvider_EmptyTokenIsGuest(t *testing.T) {
	sess, err := StaticProvider{}.Resolve(t.Context(), "")
	require.NoError(t, err)
	assert.True(t, sess.IsGuest())
}

func TestStaticProvider_TokenIsClientID(t *testing.T) {
	sess, err := StaticProvider{}.Resolve(t.Context(), "client-42")
	require.NoError(t, err)
	assert.Equal(t, "client-42", sess.ClientID)
	assert.False(t, sess.IsGuest())
}

func TestStaticProvider_MalformedTokenRejected(t *testing.T) {
	_, err := StaticProvider{}.Resolve(t.Context(), "../etc/passwd")
	assert.ErrorIs(t, err, ErrUnauthorized)
}

// =============================================================================
// SessionMiddleware Tests
// =============================================================================

func sessionRouter() (*gin.Engine, *engagement.Session) {
	var captured engagement.Session
	router := gin.New()
	router.Use(SessionMiddleware(StaticProvider{}))
	router.GET("/probe", func(c *gin.Context) {
		captured = GetSession(c)
		c.Status(http.StatusOK)
	})
	return router, &captured
}

func TestSessionMiddleware_AuthenticatedClient(t *testing.T) {
	router, captured := sessionRouter()

	req := httptest.NewRequest("GET", "/probe", nil)
	req.Header.Set("Authorization", "Bearer client-7")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "client-7", captured.ClientID)
	assert.False(t, captured.IsGuest())
}

func TestSessionMiddleware_NoTokenIsGuest(t *testing.T) {
	router, captured := sessionRouter()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/probe", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, captured.IsGuest())
}

func TestSessionMiddleware_InvalidTokenRejected(t *testing.T) {
	router, _ := sessionRouter()

	req := httptest.NewRequest("GET", "/probe", nil)
	req.Header.Set("Authorization", "Bearer bad token")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestSessionMiddleware_GuestPreviewForcesGuest(t *testing.T) {
	router, captured := sessionRouter()

	req := httptest.NewRequest("GET", "/probe", nil)
	req.Header.Set("Authorization", "Bearer client-7")
	req.Header.Set(GuestPreviewHeader, "1")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "client-7", captured.ClientID)
	assert.True(t, captured.IsGuest(), "preview header should force guest rendering")
}

// =============================================================================
// RequireClient Tests
// =============================================================================

func TestRequireClient_BlocksGuests(t *testing.T) {
	router := gin.New()
	router.Use(SessionMiddleware(StaticProvider{}))
	router.GET("/private", RequireClient(), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/private", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest("GET", "/private", nil)
	req.Header.Set("Authorization", "Bearer client-7")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
}

// =============================================================================
// RateLimit Tests
// =============================================================================

func TestRateLimit_RejectsOverBurst(t *testing.T) {
	router := gin.New()
	router.Use(SessionMiddleware(StaticProvider{}))
	router.Use(RateLimit(1, 2))
	router.GET("/limited", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest("GET", "/limited", nil)
		req.Header.Set("Authorization", "Bearer client-7")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}

	assert.Equal(t, http.StatusOK, codes[0])
	assert.Equal(t, http.StatusOK, codes[1])
	assert.Equal(t, http.StatusTooManyRequests, codes[2])
}

func TestRateLimit_IsolatesClients(t *testing.T) {
	router := gin.New()
	router.Use(SessionMiddleware(StaticProvider{}))
	router.Use(RateLimit(1, 1))
	router.GET("/limited", func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	for _, client := range []string{"client-a", "client-b"} {
		req := httptest.NewRequest("GET", "/limited", nil)
		req.Header.Set("Authorization", "Bearer "+client)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusOK, w.Code, "first request for %s should pass", client)
	}
}
