// Copyright 2021-2024 Nokia
// Licensed under the BSD 3-Clause License.
// SPDX-License-Identifier: BSD-3-Clause

package covtrace

import (
	"crypto/tls"
)

// TLSConfig returns raw TLS config used by the server.
// Set before serving, e.g. to require client certs.
func (s *Server) TLSConfig() *tls.Config {
	if s.server.TLSConfig == nil {
		s.server.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	return s.server.TLSConfig
}

// TLSServerCert sets server cert + key. Then the server serves HTTPS, and spans tell https scheme.
func (s *Server) TLSServerCert(certFile, keyFile string) *Server {
	s.certFile = certFile
	s.keyFile = keyFile
	return s
}

func (s *Server) isTLS() bool {
	return s.certFile != "" && s.keyFile != ""
}
