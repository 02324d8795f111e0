// Copyright 2021-2024 Nokia
// Licensed under the BSD 3-Clause License.
// SPDX-License-Identifier: BSD-3-Clause

package covtrace

import (
	"net/http"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Status is the canonical outcome of a traced request.
type Status int

// Canonical statuses derived from HTTP status codes.
const (
	StatusOK Status = iota
	StatusFailedPrecondition
	StatusUnauthenticated
	StatusPermissionDenied
	StatusNotFound
	StatusError
)

var statusNames = [...]string{
	StatusOK:                 "OK",
	StatusFailedPrecondition: "FAILED_PRECONDITION",
	StatusUnauthenticated:    "UNAUTHENTICATED",
	StatusPermissionDenied:   "PERMISSION_DENIED",
	StatusNotFound:           "NOT_FOUND",
	StatusError:              "ERROR",
}

var statusDescriptions = [...]string{
	StatusOK:                 "Not an error; returned on success.",
	StatusFailedPrecondition: "The operation was rejected because the system is not in a state required for the operation's execution.",
	StatusUnauthenticated:    "The request does not have valid authentication credentials for the operation.",
	StatusPermissionDenied:   "The caller does not have permission to execute the specified operation.",
	StatusNotFound:           "Some requested entity (e.g., file or directory) was not found.",
	StatusError:              "The operation contains an error.",
}

// String returns the canonical name, e.g. "NOT_FOUND".
func (s Status) String() string {
	if s < 0 || int(s) >= len(statusNames) {
		return "UNSET"
	}
	return statusNames[s]
}

// Description returns the fixed human readable description of the status.
func (s Status) Description() string {
	if s < 0 || int(s) >= len(statusDescriptions) {
		return ""
	}
	return statusDescriptions[s]
}

// Code returns the OpenTelemetry status code the status is reported with.
// OpenTelemetry knows success and error only.
func (s Status) Code() codes.Code {
	if s == StatusOK {
		return codes.Ok
	}
	return codes.Error
}

// StatusFromHTTP maps HTTP status code to span status.
// Returns false if the code maps to no status, e.g. 3xx or 418.
func StatusFromHTTP(httpStatusCode int) (Status, bool) {
	switch httpStatusCode {
	case http.StatusBadRequest:
		return StatusFailedPrecondition, true
	case http.StatusUnauthorized:
		return StatusUnauthenticated, true
	case http.StatusForbidden:
		return StatusPermissionDenied, true
	case http.StatusNotFound:
		return StatusNotFound, true
	}

	if httpStatusCode >= 500 && httpStatusCode <= 599 {
		return StatusError, true
	}
	if httpStatusCode >= 200 && httpStatusCode <= 299 {
		return StatusOK, true
	}
	return 0, false
}

func setSpanStatus(span trace.Span, httpStatusCode int) {
	status, ok := StatusFromHTTP(httpStatusCode)
	if !ok {
		return
	}
	setStatus(span, status)
}

func setStatus(span trace.Span, status Status) {
	span.SetStatus(status.Code(), status.Description())
	span.SetAttributes(attrCanonicalStatus.String(status.String()))
}
