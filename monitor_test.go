// Copyright 2021-2024 Nokia
// Licensed under the BSD 3-Clause License.
// SPDX-License-Identifier: BSD-3-Clause

package covtrace

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMonitorStatus(t *testing.T) {
	assert := assert.New(t)

	var m statusMonitor
	assert.False(m.written())
	assert.Equal(http.StatusOK, m.status())

	w := m.wrap(httptest.NewRecorder())
	w.WriteHeader(http.StatusEarlyHints)
	assert.False(m.written())
	w.WriteHeader(http.StatusAccepted)
	w.WriteHeader(http.StatusInternalServerError)
	assert.True(m.written())
	assert.Equal(http.StatusAccepted, m.status())
}

func TestMonitorWriteImpliesOK(t *testing.T) {
	var m statusMonitor
	rr := httptest.NewRecorder()
	w := m.wrap(rr)
	w.Write([]byte("x"))
	assert.Equal(t, http.StatusOK, m.status())
	assert.Equal(t, "x", rr.Body.String())
}

func TestMonitorKeepsFlusher(t *testing.T) {
	var m statusMonitor
	w := m.wrap(httptest.NewRecorder())
	_, ok := w.(http.Flusher)
	assert.True(t, ok)
}
