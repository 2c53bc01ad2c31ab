// Copyright 2026 Divvun
//
// SPDX-License-Identifier: AGPL-3.0-only

// Package metrics holds the runtime's Prometheus instrumentation: build
// and forward counts/durations, per-stage invocation counts, suggestion
// emission counts, and asset-extraction counts. It follows the teacher's
// metricsIngestion pattern (pkg/ingestion/metrics.go): a package-global
// struct of counters/histograms, lazily registered once via sync.Once so
// importing the package never double-registers against the default
// registry in tests that construct multiple pipelines.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

type metricsRuntime struct {
	once sync.Once

	buildsTotal        prometheus.Counter
	buildFailures      prometheus.Counter
	forwardsTotal      prometheus.Counter
	forwardFailures    prometheus.Counter
	forwardCancelled   prometheus.Counter
	stageInvocations   *prometheus.CounterVec
	stageFailures      *prometheus.CounterVec
	suggestionsEmitted prometheus.Counter
	streamWarnings     prometheus.Counter
	assetExtractions   prometheus.Counter

	buildDuration   prometheus.Histogram
	forwardDuration prometheus.Histogram
	stageDuration   *prometheus.HistogramVec
}

var m metricsRuntime

func (m *metricsRuntime) init() {
	m.once.Do(func() {
		buckets := []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5}

		m.buildsTotal = prometheus.NewCounter(prometheus.CounterOpts{Name: "drt_builds_total", Help: "Pipeline builds attempted"})
		m.buildFailures = prometheus.NewCounter(prometheus.CounterOpts{Name: "drt_build_failures_total", Help: "Pipeline builds that failed"})
		m.forwardsTotal = prometheus.NewCounter(prometheus.CounterOpts{Name: "drt_forwards_total", Help: "Forward invocations attempted"})
		m.forwardFailures = prometheus.NewCounter(prometheus.CounterOpts{Name: "drt_forward_failures_total", Help: "Forward invocations that failed"})
		m.forwardCancelled = prometheus.NewCounter(prometheus.CounterOpts{Name: "drt_forward_cancelled_total", Help: "Forward invocations cancelled before completion"})
		m.suggestionsEmitted = prometheus.NewCounter(prometheus.CounterOpts{Name: "drt_suggestions_emitted_total", Help: "Suggestion entries emitted by divvun::suggest"})
		m.streamWarnings = prometheus.NewCounter(prometheus.CounterOpts{Name: "drt_stream_warnings_total", Help: "Non-fatal stream warnings raised during forward"})
		m.assetExtractions = prometheus.NewCounter(prometheus.CounterOpts{Name: "drt_asset_extractions_total", Help: "Bundle assets extracted to a temp path"})

		m.stageInvocations = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "drt_stage_invocations_total", Help: "Per-stage forward invocations"}, []string{"command"})
		m.stageFailures = prometheus.NewCounterVec(prometheus.CounterOpts{Name: "drt_stage_failures_total", Help: "Per-stage forward failures"}, []string{"command"})

		m.buildDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "drt_build_seconds", Help: "Pipeline build duration", Buckets: buckets})
		m.forwardDuration = prometheus.NewHistogram(prometheus.HistogramOpts{Name: "drt_forward_seconds", Help: "Forward invocation duration", Buckets: buckets})
		m.stageDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: "drt_stage_seconds", Help: "Per-stage forward duration", Buckets: buckets}, []string{"command"})

		prometheus.MustRegister(
			m.buildsTotal, m.buildFailures,
			m.forwardsTotal, m.forwardFailures, m.forwardCancelled,
			m.suggestionsEmitted, m.streamWarnings, m.assetExtractions,
			m.stageInvocations, m.stageFailures,
			m.buildDuration, m.forwardDuration, m.stageDuration,
		)
	})
}

// RecordBuild records one pipeline build attempt and its duration. ok is
// false when the build failed.
func RecordBuild(seconds float64, ok bool) {
	m.init()
	m.buildsTotal.Inc()
	m.buildDuration.Observe(seconds)
	if !ok {
		m.buildFailures.Inc()
	}
}

// RecordForward records one Forward invocation's outcome and duration.
func RecordForward(seconds float64, ok bool, cancelled bool) {
	m.init()
	m.forwardsTotal.Inc()
	m.forwardDuration.Observe(seconds)
	if cancelled {
		m.forwardCancelled.Inc()
		return
	}
	if !ok {
		m.forwardFailures.Inc()
	}
}

// RecordStage records one stage's forward invocation.
func RecordStage(command string, seconds float64, ok bool) {
	m.init()
	m.stageInvocations.WithLabelValues(command).Inc()
	m.stageDuration.WithLabelValues(command).Observe(seconds)
	if !ok {
		m.stageFailures.WithLabelValues(command).Inc()
	}
}

// RecordSuggestionsEmitted adds n to the suggestion-emission counter.
func RecordSuggestionsEmitted(n int) {
	m.init()
	m.suggestionsEmitted.Add(float64(n))
}

// RecordStreamWarning increments the stream-warning counter.
func RecordStreamWarning() {
	m.init()
	m.streamWarnings.Inc()
}

// RecordAssetExtraction increments the asset-extraction counter.
func RecordAssetExtraction() {
	m.init()
	m.assetExtractions.Inc()
}
