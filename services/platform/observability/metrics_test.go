// Copyright (C) 2025 Not Another Coach (engineering@notanothercoach.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

// ============================================================================
// Test Helper: Create isolated metrics for testing
// ============================================================================

// newTestMetrics creates a PlatformMetrics instance with a custom registry.
// This avoids conflicts with the global Prometheus registry and allows
// parallel testing.
func newTestMetrics(t *testing.T) *PlatformMetrics {
	t.Helper()

	reg := prometheus.NewRegistry()

	m := &PlatformMetrics{
		StageTransitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: platformSubsystem,
				Name:      "stage_transitions_total",
				Help:      "Total engagement stage writes by source and target stage",
			},
			[]string{"from", "to"},
		),
		VisibilityResolutionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: platformSubsystem,
				Name:      "visibility_resolutions_total",
				Help:      "Total disclosure decisions by content kind and resolved state",
			},
			[]string{"content", "state"},
		),
		JourneyRequestsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: platformSubsystem,
				Name:      "journey_requests_total",
				Help:      "Total journey dashboard builds",
			},
		),
		RequestDurationSeconds: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: platformSubsystem,
				Name:      "request_duration_seconds",
				Help:      "Handler latency in seconds",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
			},
			[]string{"endpoint", "status"},
		),
		ActiveWebsockets: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: platformSubsystem,
				Name:      "active_websockets",
				Help:      "Number of live messaging WebSocket connections",
			},
		),
		MessagesSentTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: platformSubsystem,
				Name:      "messages_sent_total",
				Help:      "Total chat messages appended",
			},
		),
		SweepRunsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: platformSubsystem,
				Name:      "sweep_runs_total",
				Help:      "Total discovery-call sweep executions by outcome",
			},
			[]string{"outcome"},
		),
	}

	reg.MustRegister(
		m.StageTransitionsTotal,
		m.VisibilityResolutionsTotal,
		m.JourneyRequestsTotal,
		m.RequestDurationSeconds,
		m.ActiveWebsockets,
		m.MessagesSentTotal,
		m.SweepRunsTotal,
	)

	return m
}

// ============================================================================
// Counter Tests
// ============================================================================

func TestStageTransitionsTotal_Increments(t *testing.T) {
	m := newTestMetrics(t)

	m.StageTransitionsTotal.WithLabelValues("browsing", "liked").Inc()
	m.StageTransitionsTotal.WithLabelValues("browsing", "liked").Inc()
	m.StageTransitionsTotal.WithLabelValues("liked", "shortlisted").Inc()

	got := testutil.ToFloat64(m.StageTransitionsTotal.WithLabelValues("browsing", "liked"))
	if got != 2 {
		t.Errorf("browsing->liked = %v, want 2", got)
	}
	got = testutil.ToFloat64(m.StageTransitionsTotal.WithLabelValues("liked", "shortlisted"))
	if got != 1 {
		t.Errorf("liked->shortlisted = %v, want 1", got)
	}
}

func TestVisibilityResolutionsTotal_LabelsIsolated(t *testing.T) {
	m := newTestMetrics(t)

	m.VisibilityResolutionsTotal.WithLabelValues("name", "blurred").Inc()
	m.VisibilityResolutionsTotal.WithLabelValues("gallery", "hidden").Inc()

	if got := testutil.ToFloat64(m.VisibilityResolutionsTotal.WithLabelValues("name", "blurred")); got != 1 {
		t.Errorf("name/blurred = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.VisibilityResolutionsTotal.WithLabelValues("name", "hidden")); got != 0 {
		t.Errorf("name/hidden = %v, want 0", got)
	}
}

func TestActiveWebsockets_GaugeUpDown(t *testing.T) {
	m := newTestMetrics(t)

	m.ActiveWebsockets.Inc()
	m.ActiveWebsockets.Inc()
	m.ActiveWebsockets.Dec()

	if got := testutil.ToFloat64(m.ActiveWebsockets); got != 1 {
		t.Errorf("ActiveWebsockets = %v, want 1", got)
	}
}

// ============================================================================
// Nil-Safety Tests
// ============================================================================

func TestRecordHelpers_NilSafe(t *testing.T) {
	saved := DefaultMetrics
	DefaultMetrics = nil
	defer func() { DefaultMetrics = saved }()

	// Must not panic when metrics are not initialized.
	RecordStageTransition("browsing", "liked")
	RecordVisibilityResolution("name", "visible")
	ObserveRequestDuration("/v1/journey", "200", 0.01)
	RecordSweepRun("success")
}

func TestRecordHelpers_UseDefaultMetrics(t *testing.T) {
	saved := DefaultMetrics
	DefaultMetrics = newTestMetrics(t)
	defer func() { DefaultMetrics = saved }()

	ObserveRequestDuration("/v1/journey", "200", 0.01)
	ObserveRequestDuration("/v1/journey", "200", 0.02)
	RecordSweepRun("success")
	RecordSweepRun("error")

	if got := testutil.CollectAndCount(DefaultMetrics.RequestDurationSeconds); got != 1 {
		t.Errorf("RequestDurationSeconds series = %v, want 1", got)
	}
	if got := testutil.ToFloat64(DefaultMetrics.SweepRunsTotal.WithLabelValues("success")); got != 1 {
		t.Errorf("sweep success = %v, want 1", got)
	}
	if got := testutil.ToFloat64(DefaultMetrics.SweepRunsTotal.WithLabelValues("error")); got != 1 {
		t.Errorf("sweep error = %v, want 1", got)
	}
}
