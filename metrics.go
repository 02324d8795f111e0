// Copyright 2021-2024 Nokia
// Licensed under the BSD 3-Clause License.
// SPDX-License-Identifier: BSD-3-Clause

package covtrace

import (
	"strconv"

	"github.com/nokia/covtrace/coverage"
	"github.com/prometheus/client_golang/prometheus"
)

// Values of the result label of coverage captures.
const (
	captureOK      = "captured"
	captureSkipped = "skipped"
)

var (
	tracedRequestCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "covtrace_http_requests_total",
			Help: "Total number of traced HTTP requests, by coverage sampling decision.",
		},
		[]string{"sampled"},
	)

	coverageCaptureCount = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "covtrace_coverage_captures_total",
			Help: "Total number of coverage capture attempts, by result.",
		},
		[]string{"result"},
	)

	coveragePayloadBytes = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "covtrace_coverage_payload_bytes",
			Help:    "Size of encoded coverage payloads attached to spans.",
			Buckets: prometheus.ExponentialBuckets(1024, 4, 8),
		},
	)
)

func init() {
	prometheus.MustRegister(tracedRequestCount)
	prometheus.MustRegister(coverageCaptureCount)
	prometheus.MustRegister(coveragePayloadBytes)
}

func recordSampling(sampled bool) {
	tracedRequestCount.WithLabelValues(strconv.FormatBool(sampled)).Inc()
}

func recordCapture(payloadLen int) {
	coverageCaptureCount.WithLabelValues(captureOK).Inc()
	coveragePayloadBytes.Observe(float64(payloadLen))
}

// recordCaptureError counts a failed capture under its phase, e.g. "start".
func recordCaptureError(err error) {
	result := "error"
	if phase, ok := coverage.PhaseOf(err); ok {
		result = string(phase)
	}
	coverageCaptureCount.WithLabelValues(result).Inc()
}

func recordCaptureSkipped() {
	coverageCaptureCount.WithLabelValues(captureSkipped).Inc()
}
