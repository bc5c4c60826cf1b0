package marker

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/panorama_viewer/internal/timeutil"
)

func TestRegistry_TracksLifecycle(t *testing.T) {
	reg := NewRegistry()
	var events []Event
	reg.OnEvent = func(e Event) { events = append(events, e) }

	clock := timeutil.NewMockClock(time.Unix(100, 0))
	lc := NewLifecycle(reg, clock, Options{Lifetime: time.Second}, zerolog.Nop())

	a := lc.Spawn(wallPick)
	b := lc.Spawn(wallPick)

	attached := reg.Attached()
	require.Len(t, attached, 2)
	assert.Equal(t, a.ID, attached[0].ID)
	assert.Equal(t, b.ID, attached[1].ID)

	lc.Sweep(clock.Now().Add(time.Second))
	assert.Empty(t, reg.Attached())
	assert.Equal(t, uint64(2), reg.Released())

	require.Len(t, events, 4)
	assert.Equal(t, "attach", events[0].Type)
	assert.Equal(t, "attach", events[1].Type)
	assert.Equal(t, "release", events[2].Type)
	assert.Equal(t, a.ID, events[2].Marker.ID)
	assert.Equal(t, "release", events[3].Type)
}
