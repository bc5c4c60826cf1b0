package camera

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relabs-tech/panorama_viewer/internal/sensors"
)

func TestRig_InitialPose(t *testing.T) {
	rig := NewRig(DefaultParams())

	pose := rig.Pose()
	assert.Equal(t, 100.0, pose.FOV)
	assertVecNear(t, mgl64.Vec3{0, 0, -1}, pose.Forward())
	assert.Equal(t, mgl64.Vec3{0, 0, 0}, pose.Eye())
}

func TestRig_PositionClampedAtTravelLimit(t *testing.T) {
	rig := NewRig(DefaultParams())
	pull := sensors.Snapshot{Motion: sensors.MotionSample{ZAcc: -12}}

	var pose Pose
	for i := 0; i < 200; i++ {
		pose = rig.Step(pull, 0.016)
	}
	assert.Equal(t, 50.0, pose.Position)

	push := sensors.Snapshot{Motion: sensors.MotionSample{ZAcc: 12}}
	for i := 0; i < 400; i++ {
		pose = rig.Step(push, 0.016)
	}
	assert.Equal(t, -50.0, pose.Position)
	assert.Equal(t, mgl64.Vec3{0, 0, -50}, pose.Eye())
}

func TestRig_ZoomFromSpin(t *testing.T) {
	rig := NewRig(DefaultParams())
	spin := sensors.Snapshot{Motion: sensors.MotionSample{GRate: 180}}

	// π/2 rad of accumulated rotation → t = π/4
	var pose Pose
	for i := 0; i < 5; i++ {
		pose = rig.Step(spin, 0.1)
	}
	assert.InDelta(t, math.Pi/2, rig.State().CurrentRotation, 1e-9)
	assert.InDelta(t, 100-80*math.Pi/4, pose.FOV, 1e-9)

	// keep spinning and the zoom saturates
	for i := 0; i < 50; i++ {
		pose = rig.Step(spin, 0.1)
	}
	assert.Equal(t, 20.0, pose.FOV)
}

func TestPose_JSONRoundTripKeepsOrientation(t *testing.T) {
	rig := NewRig(DefaultParams())
	pose := rig.Step(sensors.Snapshot{Orientation: sensors.OrientationSample{Alpha: 30, Beta: 80, Gamma: -20}}, 0.016)

	payload, err := json.Marshal(pose)
	require.NoError(t, err)

	var back Pose
	require.NoError(t, json.Unmarshal(payload, &back))
	assertQuatNear(t, pose.Orientation(), back.Orientation())
	assert.InDelta(t, -30, back.PanoramaRoll, 1e-9)
	assert.InDelta(t, 80, back.Pitch, 1e-9)
	assert.InDelta(t, -20, back.Yaw, 1e-9)
}
