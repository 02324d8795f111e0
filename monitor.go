// Copyright 2021-2024 Nokia
// Licensed under the BSD 3-Clause License.
// SPDX-License-Identifier: BSD-3-Clause

package covtrace

import (
	"io"
	"net/http"

	"github.com/felixge/httpsnoop"
)

// statusMonitor observes the status code a handler sends.
// Headers and body are passed through as-is.
type statusMonitor struct {
	statusCode int
}

// wrap returns a writer that reports to the monitor.
// Optional interfaces of w, such as http.Flusher and http.Hijacker, are kept.
func (m *statusMonitor) wrap(w http.ResponseWriter) http.ResponseWriter {
	return httpsnoop.Wrap(w, httpsnoop.Hooks{
		WriteHeader: func(next httpsnoop.WriteHeaderFunc) httpsnoop.WriteHeaderFunc {
			return func(statusCode int) {
				m.writeHeader(statusCode)
				next(statusCode)
			}
		},
		Write: func(next httpsnoop.WriteFunc) httpsnoop.WriteFunc {
			return func(b []byte) (int, error) {
				m.writeHeader(http.StatusOK)
				return next(b)
			}
		},
		ReadFrom: func(next httpsnoop.ReadFromFunc) httpsnoop.ReadFromFunc {
			return func(src io.Reader) (int64, error) {
				m.writeHeader(http.StatusOK)
				return next(src)
			}
		},
	})
}

func (m *statusMonitor) writeHeader(statusCode int) {
	if m.statusCode != 0 {
		return
	}
	// Informational responses precede the final one, except for protocol switch.
	if statusCode >= 100 && statusCode < 200 && statusCode != http.StatusSwitchingProtocols {
		return
	}
	m.statusCode = statusCode
}

// written tells if the final status was sent.
func (m *statusMonitor) written() bool {
	return m.statusCode != 0
}

// status returns the status code sent, or 200 if the handler sent nothing, as net/http does then.
func (m *statusMonitor) status() int {
	if m.statusCode == 0 {
		return http.StatusOK
	}
	return m.statusCode
}
