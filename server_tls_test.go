// Copyright 2021-2024 Nokia
// Licensed under the BSD 3-Clause License.
// SPDX-License-Identifier: BSD-3-Clause

package covtrace

import (
	"crypto/tls"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPSScheme(t *testing.T) {
	assert := assert.New(t)
	sr, tracer := newRecorder()
	srv := httptest.NewTLSServer(New(tracer).Wrap(statusHandler(http.StatusOK)))
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL + "/secure")
	require.NoError(t, err)
	resp.Body.Close()

	a := attrs(sr.Ended()[0])
	assert.Equal("https", a["http.scheme"].AsString())
	assert.Equal("https://"+srv.Listener.Addr().String(), a["http.host"].AsString())
	assert.Equal("/secure", a["http.target"].AsString())
}

func TestServeTLSMissingCert(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	s := NewServer().TLSServerCert("no/such/tls.crt", "no/such/tls.key")
	assert.Equal(t, uint16(tls.VersionTLS12), s.TLSConfig().MinVersion)
	assert.Error(t, s.Serve(l))
}
