// Copyright 2021-2024 Nokia
// Licensed under the BSD 3-Clause License.
// SPDX-License-Identifier: BSD-3-Clause

package coverage

import (
	"errors"
)

// Phase names the step of a coverage session an error belongs to.
type Phase string

// Session phases.
const (
	PhaseAcquire Phase = "acquire"
	PhaseStart   Phase = "start"
	PhaseStop    Phase = "stop"
	PhaseCollect Phase = "collect"
	PhaseEncode  Phase = "encode"
)

var (
	// ErrUnavailable is returned when the binary carries no coverage instrumentation.
	ErrUnavailable = errors.New("coverage facility not available")

	// ErrNotStopped is returned by Collect if there was no Stop since the last Start.
	ErrNotStopped = errors.New("coverage recording not stopped")

	// ErrBusy is returned by TryBegin when another session is ongoing.
	ErrBusy = errors.New("coverage session ongoing")

	// ErrSessionClosed is returned when a session is ended twice.
	ErrSessionClosed = errors.New("coverage session already closed")
)

// Error is a coverage session error, telling the phase it happened at.
type Error struct {
	Phase Phase
	Err   error
}

func newError(phase Phase, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Phase: phase, Err: err}
}

// Error returns error string.
func (e *Error) Error() string {
	if e.Err == nil {
		return "coverage " + string(e.Phase)
	}
	return "coverage " + string(e.Phase) + ": " + e.Err.Error()
}

// Unwrap returns wrapped error.
func (e *Error) Unwrap() error {
	return e.Err
}

// PhaseOf returns the phase of a coverage error.
// If err is not or does not wrap an *Error, then returns false.
func PhaseOf(err error) (Phase, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Phase, true
	}
	return "", false
}
