// Copyright (C) 2025 StudyRobo (engineering@studyrobo.app)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

// Package observability provides metrics and instrumentation for the
// assistant service.
//
// # Description
//
// This package implements Prometheus metrics for monitoring chat turns.
// Metrics include:
//   - Turn counters (by intent and status)
//   - Model call counters (by round and backend)
//   - Capability invocation counters (by capability and outcome)
//   - Turn duration histograms
//   - In-flight turn gauge
//
// # Integration
//
// Metrics are exposed via /metrics endpoint. Use with Prometheus + Grafana
// for dashboards and alerting.
//
// # Thread Safety
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
const metricsNamespace = "studyrobo"

// Subsystem for chat metrics
const chatSubsystem = "chat"

// ChatMetrics holds all Prometheus metrics for chat turn processing.
//
// # Fields
//
//   - TurnsTotal: Counter of chat turns by intent and status
//   - ModelCallsTotal: Counter of model calls by round and backend
//   - CapabilityInvocationsTotal: Counter of capability calls by name and outcome
//   - TurnDurationSeconds: Histogram of end-to-end turn duration
//   - ActiveTurns: Gauge of turns currently being processed
//
// # Thread Safety
//
// All operations are thread-safe.
type ChatMetrics struct {
	// TurnsTotal counts chat turns by intent and terminal status.
	// Labels: intent (study, career, attendance, email, general),
	// status (success, validation_error, model_error, persistence_error)
	TurnsTotal *prometheus.CounterVec

	// ModelCallsTotal counts model completions by round and backend.
	// Labels: round (one, two), backend (openai, mistral)
	ModelCallsTotal *prometheus.CounterVec

	// CapabilityInvocationsTotal counts capability dispatches.
	// Labels: capability, outcome (success, failure, rejected)
	CapabilityInvocationsTotal *prometheus.CounterVec

	// TurnDurationSeconds measures end-to-end turn latency.
	// Labels: intent
	TurnDurationSeconds *prometheus.HistogramVec

	// ActiveTurns tracks turns currently in flight.
	ActiveTurns prometheus.Gauge
}

// DefaultMetrics is the singleton instance of ChatMetrics.
// Initialized by InitMetrics().
var DefaultMetrics *ChatMetrics

// InitMetrics creates and registers all Prometheus metrics. Call once at
// application startup; calling twice panics on duplicate registration.
func InitMetrics() *ChatMetrics {
	DefaultMetrics = &ChatMetrics{
		TurnsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: chatSubsystem,
				Name:      "turns_total",
				Help:      "Total chat turns by intent and terminal status",
			},
			[]string{"intent", "status"},
		),

		ModelCallsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: chatSubsystem,
				Name:      "model_calls_total",
				Help:      "Total model completion calls by round and backend",
			},
			[]string{"round", "backend"},
		),

		CapabilityInvocationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Subsystem: chatSubsystem,
				Name:      "capability_invocations_total",
				Help:      "Total capability invocations by capability and outcome",
			},
			[]string{"capability", "outcome"},
		),

		TurnDurationSeconds: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Subsystem: chatSubsystem,
				Name:      "turn_duration_seconds",
				Help:      "End-to-end chat turn duration in seconds",
				Buckets:   []float64{0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0},
			},
			[]string{"intent"},
		),

		ActiveTurns: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Subsystem: chatSubsystem,
				Name:      "active_turns",
				Help:      "Number of chat turns currently being processed",
			},
		),
	}
	return DefaultMetrics
}

// RecordCapability increments the capability counter if metrics are
// initialized. Safe to call from tests that skip InitMetrics.
func RecordCapability(capability, outcome string) {
	if DefaultMetrics != nil {
		DefaultMetrics.CapabilityInvocationsTotal.WithLabelValues(capability, outcome).Inc()
	}
}

// RecordModelCall increments the model-call counter if metrics are
// initialized.
func RecordModelCall(round, backend string) {
	if DefaultMetrics != nil {
		DefaultMetrics.ModelCallsTotal.WithLabelValues(round, backend).Inc()
	}
}
