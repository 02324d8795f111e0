// Copyright 2021-2024 Nokia
// Licensed under the BSD 3-Clause License.
// SPDX-License-Identifier: BSD-3-Clause

package covtrace

import (
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// DialTimeout defines the default timeout for dialing connections.
var DialTimeout = 2 * time.Second

// ClientTimeout defines the default timeout of a request sent by a client made by NewClient.
var ClientTimeout = 10 * time.Second

// NewClient creates an HTTP client for calls made while serving a traced request.
// Requests sent with the context of the served request continue its trace,
// i.e. a client span is created and trace headers are sent.
//
//	req, _ := http.NewRequestWithContext(r.Context(), http.MethodGet, url, nil)
//	resp, err := client.Do(req)
func NewClient(opts ...otelhttp.Option) *http.Client {
	t := http.DefaultTransport.(*http.Transport).Clone()
	t.MaxIdleConns = 100
	t.MaxConnsPerHost = 1000
	t.MaxIdleConnsPerHost = 100
	dialer := &net.Dialer{Timeout: DialTimeout, KeepAlive: 30 * time.Second}
	t.DialContext = dialer.DialContext

	return &http.Client{
		Timeout:   ClientTimeout,
		Transport: otelhttp.NewTransport(t, opts...),
	}
}
