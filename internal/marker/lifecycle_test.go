package marker

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/panorama_viewer/internal/panorama"
	"github.com/relabs-tech/panorama_viewer/internal/timeutil"
)

type recordingHost struct {
	mu       sync.Mutex
	attached map[uint64]int
	released map[uint64]int
	order    []string
}

func newRecordingHost() *recordingHost {
	return &recordingHost{attached: map[uint64]int{}, released: map[uint64]int{}}
}

func (h *recordingHost) AttachMarker(m Marker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.attached[m.ID]++
	h.order = append(h.order, "attach")
}

func (h *recordingHost) ReleaseMarker(m Marker) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.released[m.ID]++
	h.order = append(h.order, "release")
}

func (h *recordingHost) inScene(id uint64) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.attached[id] > h.released[id]
}

var wallPick = panorama.PickResult{
	U:      0.25,
	V:      0.5,
	Point:  mgl64.Vec3{20, 0, 0},
	Normal: mgl64.Vec3{1, 0, 0},
}

func newTestLifecycle(host Host, opts Options) (*Lifecycle, *timeutil.MockClock) {
	clock := timeutil.NewMockClock(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	return NewLifecycle(host, clock, opts, zerolog.Nop()), clock
}

func TestSpawn_PlacesMarkerOffTheSurface(t *testing.T) {
	host := newRecordingHost()
	lc, clock := newTestLifecycle(host, Options{Lifetime: time.Second, Offset: 0.02})

	m := lc.Spawn(wallPick)

	assert.Equal(t, uint64(1), m.ID)
	assertVecNear(t, mgl64.Vec3{19.98, 0, 0}, m.Position)
	assert.Equal(t, clock.Now(), m.CreatedAt)
	assert.Equal(t, clock.Now().Add(time.Second), m.ExpiresAt)
	assert.True(t, host.inScene(m.ID))

	phase, ok := lc.Phase(m.ID)
	require.True(t, ok)
	assert.Equal(t, PhaseActive, phase)
}

func TestLifecycle_PresentForExactlyItsLifetime(t *testing.T) {
	host := newRecordingHost()
	lc, clock := newTestLifecycle(host, Options{Lifetime: time.Second})

	m := lc.Spawn(wallPick)

	// frames at 0, 16ms, ... up to just before expiry
	for elapsed := time.Duration(0); elapsed < time.Second; elapsed += 16 * time.Millisecond {
		lc.Sweep(m.CreatedAt.Add(elapsed))
		require.True(t, host.inScene(m.ID), "missing at %v", elapsed)
	}
	lc.Sweep(m.CreatedAt.Add(999 * time.Millisecond))
	assert.True(t, host.inScene(m.ID))

	clock.Advance(time.Second)
	assert.Equal(t, 1, lc.Sweep(clock.Now()))
	assert.False(t, host.inScene(m.ID))

	for i := 0; i < 5; i++ {
		clock.Advance(time.Second)
		assert.Zero(t, lc.Sweep(clock.Now()))
	}
	assert.Equal(t, 1, host.released[m.ID], "released exactly once")
	assert.Equal(t, []string{"attach", "release"}, host.order)

	phase, ok := lc.Phase(m.ID)
	require.True(t, ok)
	assert.Equal(t, PhaseRemoved, phase)
	assert.Empty(t, lc.Active())
}

func TestLifecycle_IndependentMarkers(t *testing.T) {
	host := newRecordingHost()
	lc, clock := newTestLifecycle(host, Options{Lifetime: time.Second})

	first := lc.Spawn(wallPick)
	clock.Advance(300 * time.Millisecond)
	second := lc.Spawn(wallPick)
	third := lc.Spawn(wallPick)

	assert.Len(t, lc.Active(), 3)

	clock.Advance(700 * time.Millisecond)
	assert.Equal(t, 1, lc.Sweep(clock.Now()))
	assert.False(t, host.inScene(first.ID))
	assert.True(t, host.inScene(second.ID))
	assert.True(t, host.inScene(third.ID))

	clock.Advance(300 * time.Millisecond)
	assert.Equal(t, 2, lc.Sweep(clock.Now()))
	assert.Empty(t, lc.Active())
	for _, id := range []uint64{first.ID, second.ID, third.ID} {
		assert.Equal(t, 1, host.attached[id])
		assert.Equal(t, 1, host.released[id])
	}
}

func TestLifecycle_MaxActiveEvictsOldest(t *testing.T) {
	host := newRecordingHost()
	lc, _ := newTestLifecycle(host, Options{Lifetime: time.Second, MaxActive: 2})

	a := lc.Spawn(wallPick)
	b := lc.Spawn(wallPick)
	c := lc.Spawn(wallPick)

	active := lc.Active()
	require.Len(t, active, 2)
	assert.Equal(t, b.ID, active[0].ID)
	assert.Equal(t, c.ID, active[1].ID)
	assert.False(t, host.inScene(a.ID))
	assert.Equal(t, 1, host.released[a.ID])

	// the evicted marker is not released again at its expiry
	lc.Sweep(a.ExpiresAt.Add(time.Hour))
	assert.Equal(t, 1, host.released[a.ID])
}

func TestLifecycle_DefaultLifetimeAndNilHost(t *testing.T) {
	lc := NewLifecycle(nil, nil, Options{}, zerolog.Nop())

	m := lc.Spawn(wallPick)
	assert.Equal(t, time.Second, m.ExpiresAt.Sub(m.CreatedAt))
	assert.Equal(t, 1, lc.Sweep(m.ExpiresAt))
}

func TestLifecycle_PhaseUnknownID(t *testing.T) {
	lc, _ := newTestLifecycle(nil, Options{})

	_, ok := lc.Phase(0)
	assert.False(t, ok)
	_, ok = lc.Phase(1)
	assert.False(t, ok)
}

func TestLifecycle_RunSweepsOnTicker(t *testing.T) {
	host := newRecordingHost()
	lc, clock := newTestLifecycle(host, Options{Lifetime: time.Second})
	m := lc.Spawn(wallPick)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- lc.Run(ctx, 100*time.Millisecond) }()

	require.Eventually(t, func() bool {
		clock.Advance(100 * time.Millisecond)
		return !host.inScene(m.ID)
	}, 2*time.Second, time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Equal(t, 1, host.released[m.ID])
}

func TestLifecycle_PhaseFollowsSweepNotWallClock(t *testing.T) {
	host := newRecordingHost()
	lc, clock := newTestLifecycle(host, Options{Lifetime: time.Second})
	m := lc.Spawn(wallPick)

	clock.Advance(1500 * time.Millisecond)
	phase, ok := lc.Phase(m.ID)
	require.True(t, ok)
	assert.Equal(t, PhaseActive, phase, "not swept yet")
	assert.True(t, host.inScene(m.ID))

	lc.Sweep(clock.Now())
	phase, _ = lc.Phase(m.ID)
	assert.Equal(t, PhaseRemoved, phase)
	assert.False(t, host.inScene(m.ID))
}

func TestPhase_String(t *testing.T) {
	assert.Equal(t, "created", PhaseCreated.String())
	assert.Equal(t, "active", PhaseActive.String())
	assert.Equal(t, "removed", PhaseRemoved.String())
	assert.Equal(t, "unknown", Phase(9).String())
}
