// Copyright 2021-2024 Nokia
// Licensed under the BSD 3-Clause License.
// SPDX-License-Identifier: BSD-3-Clause

package covtrace

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitHostPort(t *testing.T) {
	assert := assert.New(t)

	host, port := splitHostPort("10.0.0.1:8080")
	assert.Equal("10.0.0.1", host)
	assert.Equal(8080, port)

	host, port = splitHostPort("example.com")
	assert.Equal("example.com", host)
	assert.Equal(0, port)

	host, port = splitHostPort("example.com:http")
	assert.Equal("example.com:http", host)
	assert.Equal(0, port)
}

func TestLocalHostPort(t *testing.T) {
	assert := assert.New(t)

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	addr := &net.TCPAddr{IP: net.ParseIP("10.1.2.3"), Port: 9090}
	r = r.WithContext(context.WithValue(r.Context(), http.LocalAddrContextKey, addr))
	host, port := localHostPort(r, "http")
	assert.Equal("10.1.2.3", host)
	assert.Equal(9090, port)

	r = httptest.NewRequest(http.MethodGet, "https://secure.example.com/", nil)
	host, port = localHostPort(r, "https")
	assert.Equal("secure.example.com", host)
	assert.Equal(443, port)
}

func TestRequestTarget(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("/", requestTarget(&http.Request{}))
	r := httptest.NewRequest(http.MethodGet, "/a/b?c=d", nil)
	assert.Equal("/a/b", requestTarget(r))
	r.URL.Path = "relative"
	assert.Equal("/relative", requestTarget(r))
}

func TestEmptyUserAgent(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	var ua string
	found := false
	for _, kv := range requestAttributes(r, 200) {
		if kv.Key == "http.user_agent" {
			ua = kv.Value.AsString()
			found = true
		}
	}
	assert.True(t, found)
	assert.Equal(t, "", ua)
}
