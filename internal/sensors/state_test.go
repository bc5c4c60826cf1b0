package sensors

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestState_DefaultsToZero(t *testing.T) {
	st := NewState()

	assert.Equal(t, Snapshot{}, st.Snapshot())
	o, m := st.Have()
	assert.False(t, o)
	assert.False(t, m)
	assert.True(t, st.LastUpdate().IsZero())
}

func TestState_LastWriteWins(t *testing.T) {
	st := NewState()

	st.OnOrientation(OrientationSample{Alpha: 1, Beta: 2, Gamma: 3})
	st.OnOrientation(OrientationSample{Alpha: 10, Beta: 20, Gamma: 30})
	st.OnMotion(MotionSample{GRate: 5, ZAcc: 9})
	st.OnMotion(MotionSample{GRate: -5})

	snap := st.Snapshot()
	assert.Equal(t, OrientationSample{Alpha: 10, Beta: 20, Gamma: 30}, snap.Orientation)
	assert.Equal(t, MotionSample{GRate: -5}, snap.Motion)

	o, m := st.Have()
	assert.True(t, o)
	assert.True(t, m)
	assert.False(t, st.LastUpdate().IsZero())
}

func TestState_MalformedFieldsBecomeZero(t *testing.T) {
	st := NewState()

	st.OnOrientation(OrientationSample{Alpha: math.NaN(), Beta: 45, Gamma: math.Inf(1)})
	st.OnMotion(MotionSample{GRate: math.Inf(-1), ZAcc: math.NaN(), XAcc: 1})

	snap := st.Snapshot()
	assert.Equal(t, OrientationSample{Beta: 45}, snap.Orientation)
	assert.Equal(t, MotionSample{XAcc: 1}, snap.Motion)
}

func TestState_ConcurrentWriters(t *testing.T) {
	st := NewState()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				st.OnOrientation(OrientationSample{Alpha: float64(i)})
				st.OnMotion(MotionSample{GRate: float64(j)})
				_ = st.Snapshot()
			}
		}(i)
	}
	wg.Wait()

	snap := st.Snapshot()
	assert.GreaterOrEqual(t, snap.Orientation.Alpha, 0.0)
	assert.Less(t, snap.Orientation.Alpha, 8.0)
	assert.Equal(t, 99.0, snap.Motion.GRate)
}
