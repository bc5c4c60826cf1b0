package app

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/panorama_viewer/internal/engine"
	"github.com/relabs-tech/panorama_viewer/internal/panorama"
	"github.com/relabs-tech/panorama_viewer/internal/sensors"
	"github.com/relabs-tech/panorama_viewer/internal/timeutil"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestFormatPick(t *testing.T) {
	assert.Equal(t, "[PICK] miss", formatPick(panorama.PickResult{}, false, 2800, 1400))

	line := formatPick(panorama.PickResult{U: 0.5, V: 0.25, Distance: 20}, true, 2800, 1400)
	assert.Equal(t, "[PICK] u=0.5000 v=0.2500  px=(1400, 1050)  dist=20.00", line)
}

func TestFormatPose(t *testing.T) {
	line := formatPose(engine.Frame{Seq: 7})
	assert.True(t, strings.HasPrefix(line, "[POSE] #7"), line)
	assert.Contains(t, line, "FOV=  0.00")
}

func TestConsoleLoop_PrintsPoseAndPick(t *testing.T) {
	clock := timeutil.NewMockClock(time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC))
	eng := engine.New(engine.Options{Clock: clock})
	eng.OnOrientation(sensors.OrientationSample{Beta: 90})

	var out syncBuffer
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- consoleLoop(ctx, &out, eng, clock, 10*time.Millisecond, 50*time.Millisecond, 2800, 1400)
	}()

	require.Eventually(t, func() bool {
		clock.Advance(10 * time.Millisecond)
		return strings.Contains(out.String(), "[PICK] u=")
	}, 2*time.Second, time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	assert.Contains(t, out.String(), "[POSE]")
	assert.NotEmpty(t, eng.Markers().Active())
}
