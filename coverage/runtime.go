// Copyright 2021-2024 Nokia
// Licensed under the BSD 3-Clause License.
// SPDX-License-Identifier: BSD-3-Clause

package coverage

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	rtcoverage "runtime/coverage"
	"sync"

	log "github.com/sirupsen/logrus"
)

// runtimeFacility reads the counters the Go toolchain emits for binaries built with -cover.
// Start needs -covermode=atomic, as counters cannot be cleared otherwise.
type runtimeFacility struct {
	available bool
	meta      []byte
	metaHash  string
	counters  []byte
	recording bool
}

var (
	runtimeOnce     sync.Once
	runtimeInstance *runtimeFacility
)

// Runtime returns the facility of the running binary.
// Not available unless the binary was built with -cover -covermode=atomic.
// Detecting the mode clears the counters accumulated before the first call.
func Runtime() Facility {
	runtimeOnce.Do(func() {
		runtimeInstance = &runtimeFacility{}
		var meta bytes.Buffer
		if err := rtcoverage.WriteMeta(&meta); err != nil {
			log.Debug("Coverage facility not found: ", err)
			return
		}
		if err := rtcoverage.ClearCounters(); err != nil {
			log.Warn("Coverage facility not usable, build with -covermode=atomic: ", err)
			return
		}
		sum := sha256.Sum256(meta.Bytes())
		runtimeInstance.available = true
		runtimeInstance.meta = meta.Bytes()
		runtimeInstance.metaHash = hex.EncodeToString(sum[:])
		log.Debugf("Found coverage facility, %d bytes of meta-data", meta.Len())
	})
	return runtimeInstance
}

func (f *runtimeFacility) Available() bool {
	return f.available
}

func (f *runtimeFacility) Start() error {
	if !f.available {
		return ErrUnavailable
	}
	if err := rtcoverage.ClearCounters(); err != nil {
		return err
	}
	f.counters = nil
	f.recording = true
	return nil
}

func (f *runtimeFacility) Stop() error {
	if !f.available {
		return ErrUnavailable
	}
	var counters bytes.Buffer
	if err := rtcoverage.WriteCounters(&counters); err != nil {
		return err
	}
	f.counters = counters.Bytes()
	f.recording = false
	return nil
}

func (f *runtimeFacility) Collect() (Snapshot, error) {
	if !f.available {
		return Snapshot{}, ErrUnavailable
	}
	if f.recording || f.counters == nil {
		return Snapshot{}, ErrNotStopped
	}
	snapshot := Snapshot{Meta: f.meta, Counters: f.counters, MetaHash: f.metaHash}
	f.counters = nil
	return snapshot, nil
}
