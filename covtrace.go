// Copyright 2021-2024 Nokia
// Licensed under the BSD 3-Clause License.
// SPDX-License-Identifier: BSD-3-Clause

// Package covtrace is an HTTP server middleware that wraps requests in OpenTelemetry spans,
// and attaches the code coverage of a sampled fraction of requests to their spans.
//
//	mw := covtrace.New(tp.Tracer("my-service")).SampleRate(5)
//	http.ListenAndServe(":8080", mw.Wrap(handler))
//
// Coverage is recorded only if the binary was built with -cover (-covermode=atomic), see package coverage.
package covtrace

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/nokia/covtrace/coverage"
	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/trace"
)

// Middleware traces HTTP requests. Also known as request tracer.
// Configure it before serving. Serving is safe for concurrent use.
type Middleware struct {
	tracer        trace.Tracer
	sampler       sampler
	lineExecution bool
	facility      coverage.Facility
	guard         *coverage.Guard
	codec         coverage.Codec
	coverageWait  time.Duration
	includeMeta   bool
	skipPaths     map[string]bool
}

// DefaultCoverageWait is the default time a sampled request waits for an ongoing coverage session.
const DefaultCoverageWait = 100 * time.Millisecond

// New creates a new Middleware instance.
// If tracer is nil then requests are not traced, just passed to the next handler.
//
// By default no request is sampled for coverage. See SampleRate.
func New(tracer trace.Tracer) *Middleware {
	return &Middleware{
		tracer:        tracer,
		sampler:       newSampler(0),
		lineExecution: true,
		facility:      coverage.Runtime(),
		guard:         coverage.DefaultGuard(),
		codec:         coverage.CodecJSON,
		coverageWait:  DefaultCoverageWait,
		includeMeta:   true,
	}
}

// NewFromConfig creates a new Middleware instance configured by cfg.
func NewFromConfig(tracer trace.Tracer, cfg Config) *Middleware {
	return New(tracer).
		SampleRate(cfg.SampleRate).
		LineExecution(cfg.LineExecution).
		Codec(coverage.Codec(cfg.Codec)).
		CoverageWait(cfg.CoverageWait).
		IncludeMeta(cfg.IncludeMeta).
		Skip(cfg.SkipPaths...)
}

// SampleRate sets the percentage of requests recording coverage, between 0 and 100.
// Values out of range are clamped.
func (m *Middleware) SampleRate(rate float64) *Middleware {
	m.sampler.rate = clampRate(rate)
	return m
}

// LineExecution enables or disables coverage recording. Enabled by default.
// If disabled, sampling has no effect.
func (m *Middleware) LineExecution(enabled bool) *Middleware {
	m.lineExecution = enabled
	return m
}

// Coverage sets the coverage facility. Default is coverage.Runtime().
// Nil disables coverage.
func (m *Middleware) Coverage(facility coverage.Facility) *Middleware {
	m.facility = facility
	return m
}

// Guard sets the guard serializing coverage sessions. Default is coverage.DefaultGuard().
// Middleware instances sharing a facility must share the guard, too.
func (m *Middleware) Guard(guard *coverage.Guard) *Middleware {
	if guard != nil {
		m.guard = guard
	}
	return m
}

// Codec sets the structured encoding of coverage snapshots. Default is JSON.
// Unknown codecs are ignored.
func (m *Middleware) Codec(codec coverage.Codec) *Middleware {
	if codec.Valid() {
		m.codec = codec
	} else {
		log.Warnf("Unknown coverage codec %q, using %q", codec, m.codec)
	}
	return m
}

// CoverageWait sets how long a sampled request waits for the coverage session of another request.
// When the wait is over, the request is served without coverage. Zero means no waiting.
func (m *Middleware) CoverageWait(wait time.Duration) *Middleware {
	if wait < 0 {
		wait = 0
	}
	m.coverageWait = wait
	return m
}

// IncludeMeta tells whether coverage meta-data is attached along with counters. Enabled by default.
// Meta-data grows with the binary. If disabled, only its hash is attached.
func (m *Middleware) IncludeMeta(enabled bool) *Middleware {
	m.includeMeta = enabled
	return m
}

// Skip excludes request paths from tracing, e.g. "/healthz".
func (m *Middleware) Skip(paths ...string) *Middleware {
	if len(paths) == 0 {
		return m
	}
	if m.skipPaths == nil {
		m.skipPaths = make(map[string]bool, len(paths))
	}
	for _, path := range paths {
		m.skipPaths[path] = true
	}
	return m
}

// Draw sets the random source of sampling. It must return uniform values in [0, 100).
func (m *Middleware) Draw(draw func() float64) *Middleware {
	if draw != nil {
		m.sampler.draw = draw
	}
	return m
}

// Wrap returns a handler tracing requests before passing them to next.
// Compatible with gorilla/mux Router.Use.
func (m *Middleware) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.handle(w, r, next)
	})
}

func (m *Middleware) coverageEnabled() bool {
	return m.lineExecution && m.facility != nil && m.facility.Available()
}

func (m *Middleware) handle(w http.ResponseWriter, r *http.Request, next http.Handler) {
	if m.tracer == nil || m.skipPaths[r.URL.Path] {
		next.ServeHTTP(w, r)
		return
	}

	sampled := m.sampler.sample()
	recordSampling(sampled)

	var session *coverage.Session
	if sampled && m.coverageEnabled() {
		session = m.beginCoverage(r.Context())
	}

	ctx, span := m.tracer.Start(traceHeadersToContext(r), spanName(r.Method), trace.WithSpanKind(trace.SpanKindServer))

	var monitor statusMonitor
	completed := false
	defer func() {
		if completed {
			return
		}
		p := recover()
		m.abort(span, session, r, &monitor, p)
		if p != nil {
			panic(p)
		}
	}()

	next.ServeHTTP(monitor.wrap(w), r.WithContext(ctx))

	if session != nil {
		m.attachCoverage(span, session)
	}
	setSpanStatus(span, monitor.status())
	span.SetAttributes(requestAttributes(r, monitor.status())...)
	completed = true
	span.End()
}

func (m *Middleware) beginCoverage(ctx context.Context) *coverage.Session {
	var session *coverage.Session
	var err error
	if m.coverageWait > 0 {
		waitCtx, cancel := context.WithTimeout(ctx, m.coverageWait)
		session, err = coverage.Begin(waitCtx, m.guard, m.facility)
		cancel()
	} else {
		session, err = coverage.TryBegin(m.guard, m.facility)
	}
	if err != nil {
		log.Warn("Coverage not recorded: ", err)
		recordCaptureError(err)
		return nil
	}
	log.Debug("Found coverage facility, recording")
	return session
}

func (m *Middleware) attachCoverage(span trace.Span, session *coverage.Session) {
	snapshot, err := session.End()
	if err != nil {
		log.Warn("Coverage not collected: ", err)
		recordCaptureError(err)
		return
	}
	if !m.includeMeta {
		snapshot.Meta = nil
	}

	payload, err := coverage.Encode(snapshot, m.codec)
	if err != nil {
		log.Warn("Coverage not encoded: ", err)
		recordCaptureError(err)
		return
	}

	span.SetAttributes(
		attrCoverageType.String(coverageType),
		attrCoverageEncoding.String(string(m.codec)),
		attrCoverage.String(payload),
	)
	recordCapture(len(payload))
	log.Debugf("Coverage of %d bytes attached to span %s", len(payload), span.SpanContext().SpanID())
}

// abort completes the span and the coverage session when the handler did not return, e.g. it panicked.
// No coverage is attached then.
func (m *Middleware) abort(span trace.Span, session *coverage.Session, r *http.Request, monitor *statusMonitor, p any) {
	if session != nil {
		if err := session.Abort(); err != nil {
			log.Warn("Coverage not stopped: ", err)
		}
		recordCaptureSkipped()
	}

	statusCode := monitor.status()
	if !monitor.written() {
		statusCode = http.StatusInternalServerError
	}

	if p != nil {
		if err, ok := p.(error); ok {
			span.RecordError(err)
		} else {
			span.RecordError(fmt.Errorf("panic: %v", p))
		}
		setStatus(span, StatusError)
	} else {
		setSpanStatus(span, statusCode)
	}
	span.SetAttributes(requestAttributes(r, statusCode)...)
	span.End()
}
