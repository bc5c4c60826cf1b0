// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package marker manages the short-lived markers dropped on the panorama
// where the user picked.
//
// Every marker goes Created → Active → Removed. It is attached to the
// host scene when spawned and released exactly once when its lifetime
// has elapsed. There is no cancellation; a later pick never shortens an
// earlier marker's life unless a cap on active markers is configured.
// Expiry is an explicit schedule swept by the frame loop (or Run), not a
// timer per marker.
package marker

import (
	"context"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"

	"github.com/relabs-tech/panorama_viewer/internal/panorama"
	"github.com/relabs-tech/panorama_viewer/internal/timeutil"
)

// Phase is a marker's position in its lifecycle.
type Phase int

const (
	// PhaseCreated only exists inside Spawn, before the host has the
	// marker; Phase never reports it.
	PhaseCreated Phase = iota
	PhaseActive
	PhaseRemoved
)

func (p Phase) String() string {
	switch p {
	case PhaseCreated:
		return "created"
	case PhaseActive:
		return "active"
	case PhaseRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Marker is one visual marker instance.
type Marker struct {
	ID        uint64     `json:"id"`
	Position  mgl64.Vec3 `json:"position"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt time.Time  `json:"expires_at"`
}

// Host is the scene side of a marker: AttachMarker makes it visible,
// ReleaseMarker detaches it and frees whatever the renderer allocated.
// Host methods must not call back into the Lifecycle.
type Host interface {
	AttachMarker(Marker)
	ReleaseMarker(Marker)
}

// Options configure a Lifecycle.
type Options struct {
	Lifetime  time.Duration // how long a marker stays, 1s by default
	Offset    float64       // distance off the surface towards the viewer
	MaxActive int           // 0 = unbounded
}

type entry struct {
	marker Marker
	phase  Phase
}

// Lifecycle spawns markers and retires them when they expire.
// It is safe for concurrent use.
type Lifecycle struct {
	mu     sync.Mutex
	clock  timeutil.Clock
	host   Host
	opts   Options
	log    zerolog.Logger
	nextID uint64
	active []*entry // in creation order, so expiry order too
}

// NewLifecycle creates a Lifecycle. A nil clock means the real clock.
func NewLifecycle(host Host, clock timeutil.Clock, opts Options, log zerolog.Logger) *Lifecycle {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	if opts.Lifetime <= 0 {
		opts.Lifetime = time.Second
	}
	return &Lifecycle{clock: clock, host: host, opts: opts, log: log, nextID: 1}
}

// Spawn creates a marker just off the picked surface point and attaches
// it to the host.
func (l *Lifecycle) Spawn(pick panorama.PickResult) Marker {
	now := l.clock.Now()

	l.mu.Lock()
	e := &entry{
		marker: Marker{
			ID:        l.nextID,
			Position:  pick.Point.Sub(pick.Normal.Mul(l.opts.Offset)),
			CreatedAt: now,
			ExpiresAt: now.Add(l.opts.Lifetime),
		},
		phase: PhaseCreated,
	}
	l.nextID++

	var evicted []Marker
	if l.opts.MaxActive > 0 {
		for len(l.active) >= l.opts.MaxActive {
			evicted = append(evicted, l.retireLocked(0))
		}
	}

	// attach before the entry becomes visible to Sweep
	if l.host != nil {
		l.host.AttachMarker(e.marker)
	}
	e.phase = PhaseActive
	l.active = append(l.active, e)
	l.mu.Unlock()

	for _, m := range evicted {
		l.release(m, "evicted")
	}

	l.log.Debug().Uint64("marker", e.marker.ID).Time("expires_at", e.marker.ExpiresAt).Msg("marker spawned")
	return e.marker
}

// Sweep retires every marker whose lifetime has elapsed at now and returns
// how many were removed.
func (l *Lifecycle) Sweep(now time.Time) int {
	l.mu.Lock()
	var expired []Marker
	for len(l.active) > 0 && !now.Before(l.active[0].marker.ExpiresAt) {
		expired = append(expired, l.retireLocked(0))
	}
	l.mu.Unlock()

	for _, m := range expired {
		l.release(m, "expired")
	}
	return len(expired)
}

// retireLocked removes active[i] and marks it removed. Once an entry has
// left the slice nothing can retire it again.
func (l *Lifecycle) retireLocked(i int) Marker {
	e := l.active[i]
	e.phase = PhaseRemoved
	l.active = append(l.active[:i], l.active[i+1:]...)
	return e.marker
}

func (l *Lifecycle) release(m Marker, reason string) {
	if l.host != nil {
		l.host.ReleaseMarker(m)
	}
	l.log.Debug().Uint64("marker", m.ID).Str("reason", reason).Msg("marker released")
}

// Active returns the markers currently attached, oldest first.
func (l *Lifecycle) Active() []Marker {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Marker, 0, len(l.active))
	for _, e := range l.active {
		out = append(out, e.marker)
	}
	return out
}

// Phase reports the lifecycle phase of marker id as of the last Sweep,
// which is what the host shows. A marker past ExpiresAt stays PhaseActive
// until a Sweep releases it. IDs never issued report false.
func (l *Lifecycle) Phase(id uint64) (Phase, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if id == 0 || id >= l.nextID {
		return 0, false
	}
	for _, e := range l.active {
		if e.marker.ID == id {
			return e.phase, true
		}
	}
	return PhaseRemoved, true
}

// Run sweeps on its own ticker until ctx is done, so markers still expire
// when no frames are being rendered.
func (l *Lifecycle) Run(ctx context.Context, interval time.Duration) error {
	ticker := l.clock.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C():
			l.Sweep(now)
		}
	}
}
