// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package marker

import (
	"sort"
	"sync"
)

// Event is a marker change forwarded to remote renderers.
type Event struct {
	Type   string `json:"type"` // "attach" or "release"
	Marker Marker `json:"marker"`
}

// Registry is an in-memory Host. It tracks which markers are in the scene
// and forwards each change to OnEvent, which must not block.
type Registry struct {
	mu       sync.RWMutex
	attached map[uint64]Marker
	released uint64

	OnEvent func(Event)
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{attached: make(map[uint64]Marker)}
}

// AttachMarker implements Host.
func (r *Registry) AttachMarker(m Marker) {
	r.mu.Lock()
	r.attached[m.ID] = m
	r.mu.Unlock()
	r.emit(Event{Type: "attach", Marker: m})
}

// ReleaseMarker implements Host.
func (r *Registry) ReleaseMarker(m Marker) {
	r.mu.Lock()
	delete(r.attached, m.ID)
	r.released++
	r.mu.Unlock()
	r.emit(Event{Type: "release", Marker: m})
}

func (r *Registry) emit(e Event) {
	if r.OnEvent != nil {
		r.OnEvent(e)
	}
}

// Attached returns the markers in the scene ordered by ID.
func (r *Registry) Attached() []Marker {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Marker, 0, len(r.attached))
	for _, m := range r.attached {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Released is the number of markers released so far.
func (r *Registry) Released() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.released
}
