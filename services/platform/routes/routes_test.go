// Copyright (C) 2025 Not Another Coach (engineering@notanothercoach.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/Not-Another-Coach/nac-platform/services/engagement"
	engstore "github.com/Not-Another-Coach/nac-platform/services/engagement/store"
	"github.com/Not-Another-Coach/nac-platform/services/messaging"
	"github.com/Not-Another-Coach/nac-platform/services/payments"
	"github.com/Not-Another-Coach/nac-platform/services/platform/middleware"
	"github.com/Not-Another-Coach/nac-platform/services/profiles"
	"github.com/Not-Another-Coach/nac-platform/services/scheduling"
	storagebadger "github.com/Not-Another-Coach/nac-platform/services/storage/badger"
)

// ============================================================================
// Test Setup
// ============================================================================

func init() {
	// Set Gin to test mode to reduce noise in test output
	gin.SetMode(gin.TestMode)
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()

	db, err := storagebadger.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	resolver, err := engagement.NewResolver()
	require.NoError(t, err)

	hub := messaging.NewHub()
	router := gin.New()
	SetupRoutes(router, Deps{
		Sessions:   middleware.StaticProvider{},
		Engagement: engagement.NewService(engstore.NewBadgerStore(db), nil, nil),
		Resolver:   resolver,
		Profiles:   profiles.NewStore(db),
		Messages:   messaging.NewService(db, hub, nil),
		Hub:        hub,
		Calls:      scheduling.NewService(db, nil),
		Payments:   payments.NewService(db, nil),
		Processor:  payments.FakeProcessor{},
		Media:      nil,
	})
	return router
}

// ============================================================================
// SetupRoutes Tests
// ============================================================================

func TestSetupRoutes_RegistersCoreRoutes(t *testing.T) {
	router := newTestRouter(t)

	registered := make(map[string]bool)
	for _, r := range router.Routes() {
		registered[r.Method+" "+r.Path] = true
	}

	coreRoutes := []string{
		"GET /health",
		"GET /metrics",
		"GET /v1/trainers",
		"GET /v1/trainers/:trainerId",
		"GET /v1/engagement/:trainerId",
		"PUT /v1/engagement/:trainerId",
		"DELETE /v1/engagement/:trainerId",
		"GET /v1/journey",
		"GET /v1/journey/:bucket",
		"GET /v1/conversations",
		"POST /v1/conversations/:trainerId/messages",
		"GET /v1/conversations/ws",
		"POST /v1/calls",
		"POST /v1/calls/:callId/complete",
		"POST /v1/payments/plans",
		"POST /v1/payments/webhook",
		"POST /v1/admin/payouts/:periodId/approve",
	}
	for _, route := range coreRoutes {
		require.True(t, registered[route], "route %s not registered", route)
	}
}

func TestSetupRoutes_HealthCheck(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/health", nil))

	require.Equal(t, http.StatusOK, w.Code)
	require.Contains(t, w.Body.String(), "ok")
}

func TestSetupRoutes_GuestsBlockedFromPrivateRoutes(t *testing.T) {
	router := newTestRouter(t)

	private := []struct {
		method string
		path   string
	}{
		{"GET", "/v1/conversations"},
		{"POST", "/v1/calls"},
		{"PUT", "/v1/engagement/trainer-1"},
		{"POST", "/v1/payments/plans"},
	}
	for _, r := range private {
		w := httptest.NewRecorder()
		router.ServeHTTP(w, httptest.NewRequest(r.method, r.path, nil))
		require.Equal(t, http.StatusUnauthorized, w.Code, "%s %s should require sign-in", r.method, r.path)
	}
}

func TestSetupRoutes_GuestsCanBrowseDirectory(t *testing.T) {
	router := newTestRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/v1/trainers", nil))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/v1/engagement/trainer-1", nil))
	require.Equal(t, http.StatusOK, w.Code)
}
