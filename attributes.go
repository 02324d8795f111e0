// Copyright 2021-2024 Nokia
// Licensed under the BSD 3-Clause License.
// SPDX-License-Identifier: BSD-3-Clause

package covtrace

import (
	"net"
	"net/http"
	"strconv"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	semconv "go.opentelemetry.io/otel/semconv/v1.4.0"
)

const (
	attrCoverage         = attribute.Key("codecov.coverage")
	attrCoverageType     = attribute.Key("codecov.type")
	attrCoverageEncoding = attribute.Key("codecov.encoding")
	attrCanonicalStatus  = attribute.Key("status.canonical_code")
)

// coverageType is the value of codecov.type. Payload is base64 of a codec's bytes.
const coverageType = "bytes"

// requestAttributes returns the descriptive attributes of a served request.
func requestAttributes(r *http.Request, statusCode int) []attribute.KeyValue {
	scheme := requestScheme(r)
	serverName, hostPort := localHostPort(r, scheme)
	peerIP, peerPort := splitHostPort(r.RemoteAddr)

	return []attribute.KeyValue{
		semconv.HTTPStatusCodeKey.Int(statusCode),
		semconv.HTTPMethodKey.String(r.Method),
		semconv.HTTPHostKey.String(scheme + "://" + requestHost(r)),
		semconv.HTTPTargetKey.String(requestTarget(r)),
		semconv.HTTPSchemeKey.String(scheme),
		semconv.HTTPFlavorKey.String(r.Proto),
		semconv.HTTPServerNameKey.String(serverName),
		semconv.HTTPUserAgentKey.String(r.UserAgent()),
		semconv.NetHostPortKey.Int(hostPort),
		semconv.NetPeerIPKey.String(peerIP),
		semconv.NetPeerPortKey.Int(peerPort),
	}
}

func spanName(method string) string {
	return "http_" + strings.ToLower(method)
}

func requestScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	return "http"
}

func requestHost(r *http.Request) string {
	if r.Host != "" {
		return r.Host
	}
	if r.URL != nil {
		return r.URL.Host
	}
	return ""
}

// requestTarget is the path of the request, always with a leading slash.
func requestTarget(r *http.Request) string {
	path := ""
	if r.URL != nil {
		path = r.URL.Path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return path
}

// localHostPort returns the address and port the server accepted the request on.
// Falls back to the Host header, then to the default port of the scheme.
func localHostPort(r *http.Request, scheme string) (string, int) {
	if addr, ok := r.Context().Value(http.LocalAddrContextKey).(net.Addr); ok && addr != nil {
		if host, port := splitHostPort(addr.String()); port != 0 {
			return host, port
		}
	}

	host, port := splitHostPort(requestHost(r))
	if port == 0 {
		host = requestHost(r)
		if scheme == "https" {
			port = 443
		} else {
			port = 80
		}
	}
	return host, port
}

// splitHostPort splits host:port. Port is 0 if missing or invalid, then host is the whole input.
func splitHostPort(hostport string) (string, int) {
	host, portStr, err := net.SplitHostPort(hostport)
	if err != nil {
		return hostport, 0
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return hostport, 0
	}
	return host, port
}
