package sensors

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/panorama_viewer/internal/timeutil"
)

type scriptedSource struct {
	readings []Reading
	errs     []error
	calls    int
}

func (s *scriptedSource) Next() (Reading, error) {
	i := s.calls
	s.calls++
	if i >= len(s.readings) {
		return Reading{}, io.EOF
	}
	return s.readings[i], s.errs[i]
}

type recordingSink struct {
	orientations []OrientationSample
	motions      []MotionSample
}

func (r *recordingSink) OnOrientation(s OrientationSample) { r.orientations = append(r.orientations, s) }
func (r *recordingSink) OnMotion(s MotionSample)           { r.motions = append(r.motions, s) }

func TestReading_DeliverPartial(t *testing.T) {
	sink := &recordingSink{}

	Reading{Orientation: &OrientationSample{Alpha: 3}}.Deliver(sink)
	Reading{Motion: &MotionSample{ZAcc: 9}}.Deliver(sink)
	Reading{}.Deliver(sink)

	assert.Equal(t, []OrientationSample{{Alpha: 3}}, sink.orientations)
	assert.Equal(t, []MotionSample{{ZAcc: 9}}, sink.motions)
}

func TestPump_StreamStopsAtEOF(t *testing.T) {
	src := &scriptedSource{
		readings: []Reading{
			{Orientation: &OrientationSample{Alpha: 1}},
			{},
			{Motion: &MotionSample{GRate: 2}},
		},
		errs: []error{nil, ErrNoData, nil},
	}
	sink := &recordingSink{}

	err := Pump(context.Background(), src, sink, nil, 0, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, []OrientationSample{{Alpha: 1}}, sink.orientations)
	assert.Equal(t, []MotionSample{{GRate: 2}}, sink.motions)
}

func TestPump_StreamFailsOnReadError(t *testing.T) {
	boom := errors.New("port unplugged")
	src := &scriptedSource{readings: []Reading{{}}, errs: []error{boom}}

	err := Pump(context.Background(), src, &recordingSink{}, nil, 0, zerolog.Nop())
	assert.ErrorIs(t, err, boom)
}

func TestPump_PacedSkipsReadErrors(t *testing.T) {
	src := &scriptedSource{
		readings: []Reading{{}, {Motion: &MotionSample{ZAcc: 1}}},
		errs:     []error{errors.New("spi glitch"), nil},
	}
	sink := &recordingSink{}

	err := Pump(context.Background(), src, sink, nil, time.Millisecond, zerolog.Nop())
	require.NoError(t, err)
	assert.Equal(t, []MotionSample{{ZAcc: 1}}, sink.motions)
}

func TestPump_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Pump(ctx, NewMockSource(nil), &recordingSink{}, nil, time.Millisecond, zerolog.Nop())
	assert.ErrorIs(t, err, context.Canceled)
}

type countingSource struct {
	polls atomic.Int32
}

func (s *countingSource) Next() (Reading, error) {
	n := s.polls.Add(1)
	return Reading{Motion: &MotionSample{GRate: float64(n)}}, nil
}

type lockedSink struct {
	mu      sync.Mutex
	motions []MotionSample
}

func (s *lockedSink) OnOrientation(OrientationSample) {}

func (s *lockedSink) OnMotion(m MotionSample) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.motions = append(s.motions, m)
}

func (s *lockedSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.motions)
}

func TestPump_PacedByClock(t *testing.T) {
	clock := timeutil.NewMockClock(time.Date(2026, 4, 1, 8, 0, 0, 0, time.UTC))
	src := &countingSource{}
	sink := &lockedSink{}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Pump(ctx, src, sink, clock, 50*time.Millisecond, zerolog.Nop()) }()

	// wall time alone never advances a mock clock
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, src.polls.Load())

	advances := 0
	require.Eventually(t, func() bool {
		clock.Advance(50 * time.Millisecond)
		advances++
		return sink.count() >= 3
	}, 2*time.Second, time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)

	assert.LessOrEqual(t, int(src.polls.Load()), advances)
	assert.Equal(t, int(src.polls.Load()), sink.count())
}

func TestUnknownSource(t *testing.T) {
	err := UnknownSource("kinect")
	assert.ErrorIs(t, err, ErrUnknownSource)
	assert.Contains(t, err.Error(), "kinect")
}
