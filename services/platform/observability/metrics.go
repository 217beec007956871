// Copyright (C) 2025 Not Another Coach (engineering@notanothercoach.com)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package observability provides Prometheus metrics for the platform service.
//
// Metrics cover engagement stage transitions, visibility resolution,
// request latency, and live WebSocket connections. Exposed via the
// /metrics endpoint for Prometheus scraping.
//
// All metric operations are thread-safe via Prometheus's internal locking.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// Metric Definitions
// =============================================================================

// Namespace for all metrics
const metricsNamespace = "nac"

// Subsystem for marketplace metrics
const platformSubsystem = "platform"

// PlatformMetrics holds all Prometheus metrics for the platform service.
//
// Initialize once at startup via InitMetrics(). Registering twice
// panics (duplicate registration in the default registry).
type PlatformMetrics struct {
	// StageTransitionsTotal counts engagement stage writes.
	// Labels: from, to
	StageTransitionsTotal *prometheus.CounterVec

	// VisibilityResolutionsTotal counts disclosure decisions by outcome.
	// Labels: content (name, gallery, testimonials), state (hidden, blurred, visible)
	VisibilityResolutionsTotal *prometheus.CounterVec

	// JourneyRequestsTotal counts journey dashboard builds.
	JourneyRequestsTotal prometheus.Counter

	// RequestDurationSeconds measures handler latency.
	// Labels: endpoint, status
	RequestDurationSeconds *prometheus.HistogramVec

	// ActiveWebsockets tracks live messaging connections.
	ActiveWebsockets prometheus.Gauge

	// MessagesSentTotal counts chat messages appended.
	MessagesSentTotal prometheus.Counter

	// SweepRunsTotal counts discovery-call sweep executions.
	// Labels: outcome (success, error)
	SweepRunsTotal *prometheus.CounterVec
}

// DefaultMetrics is the singleton instance of PlatformMetrics.
// Initialized by InitMetrics().
var DefaultMetrics *PlatformMetrics

// InitMetrics creates and registers all Prometheus metrics. Call once
// at application startup.
func InitMetrics() *PlatformMetrics {
	DefaultMetrics = &PlatformMetrics{
		StageTransitionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: platformSubsystem,
				Name:      "stage_transitions_total",
				Help:      "Total engagement stage writes by source and target stage",
			},
			[]string{"from", "to"},
		),

		VisibilityResolutionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: platformSubsystem,
				Name:      "visibility_resolutions_total",
				Help:      "Total disclosure decisions by content kind and resolved state",
			},
			[]string{"content", "state"},
		),

		JourneyRequestsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: platformSubsystem,
				Name:      "journey_requests_total",
				Help:      "Total journey dashboard builds",
			},
		),

		RequestDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: platformSubsystem,
				Name:      "request_duration_seconds",
				Help:      "Handler latency in seconds",
				Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
			},
			[]string{"endpoint", "status"},
		),

		ActiveWebsockets: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: platformSubsystem,
				Name:      "active_websockets",
				Help:      "Number of live messaging WebSocket connections",
			},
		),

		MessagesSentTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: platformSubsystem,
				Name:      "messages_sent_total",
				Help:      "Total chat messages appended",
			},
		),

		SweepRunsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: platformSubsystem,
				Name:      "sweep_runs_total",
				Help:      "Total discovery-call sweep executions by outcome",
			},
			[]string{"outcome"},
		),
	}

	return DefaultMetrics
}

// RecordStageTransition increments the transition counter if metrics
// are initialized. Safe to call when DefaultMetrics is nil (tests).
func RecordStageTransition(from, to string) {
	if DefaultMetrics == nil {
		return
	}
	DefaultMetrics.StageTransitionsTotal.WithLabelValues(from, to).Inc()
}

// RecordVisibilityResolution increments the disclosure counter if
// metrics are initialized.
func RecordVisibilityResolution(content, state string) {
	if DefaultMetrics == nil {
		return
	}
	DefaultMetrics.VisibilityResolutionsTotal.WithLabelValues(content, state).Inc()
}

// ObserveRequestDuration records one handler latency sample if metrics
// are initialized.
func ObserveRequestDuration(endpoint, status string, seconds float64) {
	if DefaultMetrics == nil {
		return
	}
	DefaultMetrics.RequestDurationSeconds.WithLabelValues(endpoint, status).Observe(seconds)
}

// RecordSweepRun increments the sweep counter if metrics are
// initialized. outcome is "success" or "error".
func RecordSweepRun(outcome string) {
	if DefaultMetrics == nil {
		return
	}
	DefaultMetrics.SweepRunsTotal.WithLabelValues(outcome).Inc()
}
