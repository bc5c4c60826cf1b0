// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"sync"
	"time"
)

// Sink receives samples as they arrive from a sensor source.
type Sink interface {
	OnOrientation(OrientationSample)
	OnMotion(MotionSample)
}

// State holds the latest orientation and motion samples. Writers and the
// per-frame reader may live on different goroutines; the newest sample
// always wins and nothing is buffered.
type State struct {
	mu sync.RWMutex

	orientation     OrientationSample
	motion          MotionSample
	haveOrientation bool
	haveMotion      bool
	lastUpdate      time.Time
}

// NewState returns a State with every field at its zero default.
func NewState() *State {
	return &State{}
}

// OnOrientation stores s as the current orientation.
func (st *State) OnOrientation(s OrientationSample) {
	s = s.Sanitized()
	st.mu.Lock()
	st.orientation = s
	st.haveOrientation = true
	st.lastUpdate = time.Now()
	st.mu.Unlock()
}

// OnMotion stores s as the current motion sample.
func (st *State) OnMotion(s MotionSample) {
	s = s.Sanitized()
	st.mu.Lock()
	st.motion = s
	st.haveMotion = true
	st.lastUpdate = time.Now()
	st.mu.Unlock()
}

// Snapshot returns the most recent samples. Missing samples read as zero.
func (st *State) Snapshot() Snapshot {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return Snapshot{Orientation: st.orientation, Motion: st.motion}
}

// Have reports which sample kinds have been received at least once.
func (st *State) Have() (orientation, motion bool) {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.haveOrientation, st.haveMotion
}

// LastUpdate is the wall-clock time of the latest write, zero if none.
func (st *State) LastUpdate() time.Time {
	st.mu.RLock()
	defer st.mu.RUnlock()
	return st.lastUpdate
}
