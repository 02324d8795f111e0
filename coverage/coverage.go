// Copyright 2021-2024 Nokia
// Licensed under the BSD 3-Clause License.
// SPDX-License-Identifier: BSD-3-Clause

// Package coverage gives access to the process-wide code coverage counters of the running binary.
//
// Counters are global to the process, hence a recording is a session that must be held exclusively.
// See Begin and Guard.
package coverage

// Facility is a source of code coverage data.
// Start, Stop and Collect are not reentrant. Callers serialize sessions with a Guard.
type Facility interface {
	// Available tells whether the facility can record anything in this process.
	Available() bool

	// Start begins recording, discarding counters accumulated so far.
	Start() error

	// Stop ends recording and freezes the counters recorded since Start.
	Stop() error

	// Collect returns the snapshot frozen by the last Stop.
	Collect() (Snapshot, error)
}

// Snapshot is an opaque record of executed code between a Start and a Stop.
// Its content is implementation defined and never interpreted here.
//
// Meta describes the instrumented code and grows with the binary, while MetaHash identifies it.
// Consumers may cache Meta by MetaHash, so that it can be left out of most snapshots.
type Snapshot struct {
	Meta     []byte `json:"meta,omitempty"`
	Counters []byte `json:"counters"`
	MetaHash string `json:"meta_hash,omitempty"`
}

// Size returns the number of raw bytes the snapshot holds.
func (s Snapshot) Size() int {
	return len(s.Meta) + len(s.Counters)
}
