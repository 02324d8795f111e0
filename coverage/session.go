// Copyright 2021-2024 Nokia
// Licensed under the BSD 3-Clause License.
// SPDX-License-Identifier: BSD-3-Clause

package coverage

import (
	"context"
	"sync"

	"golang.org/x/sync/semaphore"
)

// Guard grants exclusive ownership of coverage recording.
// Coverage counters are process-wide, so there should be a single Guard per process, see DefaultGuard.
type Guard struct {
	sem *semaphore.Weighted
}

// NewGuard creates a new Guard.
func NewGuard() *Guard {
	return &Guard{sem: semaphore.NewWeighted(1)}
}

var defaultGuard = NewGuard()

// DefaultGuard returns the process-wide guard.
func DefaultGuard() *Guard {
	return defaultGuard
}

// TryAcquire takes the guard if free. Returns false if a session is ongoing.
func (g *Guard) TryAcquire() bool {
	return g.sem.TryAcquire(1)
}

// Acquire waits for the guard, or till ctx is done.
func (g *Guard) Acquire(ctx context.Context) error {
	return g.sem.Acquire(ctx, 1)
}

// Release frees the guard.
func (g *Guard) Release() {
	g.sem.Release(1)
}

// Session is one exclusive coverage recording.
type Session struct {
	guard    *Guard
	facility Facility
	mu       sync.Mutex
	closed   bool
}

// Begin acquires the guard and starts recording.
// If the guard cannot be acquired before ctx is done, or start fails, then the guard is not held on return.
func Begin(ctx context.Context, guard *Guard, facility Facility) (*Session, error) {
	if err := guard.Acquire(ctx); err != nil {
		return nil, newError(PhaseAcquire, err)
	}
	return start(guard, facility)
}

// TryBegin starts recording if no other session holds the guard, without waiting.
// Returns ErrBusy otherwise.
func TryBegin(guard *Guard, facility Facility) (*Session, error) {
	if !guard.TryAcquire() {
		return nil, newError(PhaseAcquire, ErrBusy)
	}
	return start(guard, facility)
}

func start(guard *Guard, facility Facility) (*Session, error) {
	if err := facility.Start(); err != nil {
		guard.Release()
		return nil, newError(PhaseStart, err)
	}
	return &Session{guard: guard, facility: facility}, nil
}

// End stops recording, collects the snapshot and releases the guard.
func (s *Session) End() (Snapshot, error) {
	if !s.close() {
		return Snapshot{}, newError(PhaseStop, ErrSessionClosed)
	}
	defer s.guard.Release()

	if err := s.facility.Stop(); err != nil {
		return Snapshot{}, newError(PhaseStop, err)
	}
	snapshot, err := s.facility.Collect()
	if err != nil {
		return Snapshot{}, newError(PhaseCollect, err)
	}
	return snapshot, nil
}

// Abort stops recording without collecting, and releases the guard.
// Calling Abort on an ended session does nothing.
func (s *Session) Abort() error {
	if !s.close() {
		return nil
	}
	defer s.guard.Release()
	return newError(PhaseStop, s.facility.Stop())
}

func (s *Session) close() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.closed = true
	return true
}
