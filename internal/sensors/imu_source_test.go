package sensors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/panorama_viewer/internal/imu"
)

func TestReadingFromRaw(t *testing.T) {
	// upright, spinning about the chip's Y axis at 10°/s
	raw := imu.IMURaw{Ay: 16384, Gy: 1310, Gx: -131}

	r := ReadingFromRaw(raw, 0, 0)
	require.NotNil(t, r.Orientation)
	require.NotNil(t, r.Motion)

	assert.InDelta(t, 90, r.Orientation.Beta, 1e-9)
	assert.InDelta(t, 0, r.Orientation.Gamma, 1e-9)
	assert.Zero(t, r.Orientation.Alpha)

	assert.InDelta(t, 10, r.Motion.GRate, 1e-9)
	assert.InDelta(t, -1, r.Motion.BRate, 1e-9)
	assert.InDelta(t, 9.80665, r.Motion.YAcc, 1e-9)
	assert.Zero(t, r.Motion.ZAcc)
}
