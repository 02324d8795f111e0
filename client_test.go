// Copyright 2021-2024 Nokia
// Licensed under the BSD 3-Clause License.
// SPDX-License-Identifier: BSD-3-Clause

package covtrace

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace"
)

func TestClientPropagatesTrace(t *testing.T) {
	assert := assert.New(t)
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	mw := New(tp.Tracer("test"))
	client := NewClient(otelhttp.WithTracerProvider(tp))

	var downstreamTraceID string
	downstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		downstreamTraceID = trace.SpanContextFromContext(traceHeadersToContext(r)).TraceID().String()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer downstream.Close()

	upstream := httptest.NewServer(mw.Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req, _ := http.NewRequestWithContext(r.Context(), http.MethodGet, downstream.URL, nil)
		resp, err := client.Do(req)
		if err != nil {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		resp.Body.Close()
		w.WriteHeader(resp.StatusCode)
	})))
	defer upstream.Close()

	resp, err := http.Get(upstream.URL + "/relay")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(http.StatusNoContent, resp.StatusCode)

	var server sdktrace.ReadOnlySpan
	for _, span := range sr.Ended() {
		if span.Name() == "http_get" {
			server = span
		}
	}
	require.NotNil(t, server)
	assert.Len(sr.Ended(), 2)
	assert.Equal(server.SpanContext().TraceID().String(), downstreamTraceID)
}
