// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package camera turns sensor samples into a bounded camera pose.
//
// The frame update is a pure function: Integrate takes the previous
// State, the latest sensor Snapshot and the frame's elapsed time and
// returns the next State plus the pose Targets. Nothing here touches a
// renderer.
//
// Orientation follows the device directly (pitch from beta, yaw from
// gamma). A hard push along the screen normal moves the camera along the
// panorama axis, and a sustained spin about the device's Y axis narrows
// the field of view. Both signals are crude by intent; there is no drift
// correction or filtering.
package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/relabs-tech/panorama_viewer/internal/sensors"
)

var (
	axisX = mgl64.Vec3{1, 0, 0}
	axisY = mgl64.Vec3{0, 1, 0}
	axisZ = mgl64.Vec3{0, 0, 1}
)

// State is what the integrator carries from one frame to the next.
type State struct {
	// CurrentRotation is the time integral of the gamma rate, radians.
	// It is always finite.
	CurrentRotation float64 `json:"current_rotation"`
}

// Targets are the per-frame outputs. PositionDelta is not clamped; the
// caller adds it to the current position and applies ClampPosition.
type Targets struct {
	Orientation mgl64.Quat `json:"-"`
	Pitch       float64    `json:"pitch"` // radians, about X
	Yaw         float64    `json:"yaw"`   // radians, about Y

	Accel         float64 `json:"accel"`
	Speed         float64 `json:"speed"`
	PositionDelta float64 `json:"position_delta"`

	FOV float64 `json:"fov"` // degrees

	// PanoramaRoll is the counter-rotation applied to the panorama about
	// its own axis so the horizon stays level, radians.
	PanoramaRoll     float64    `json:"panorama_roll"`
	PanoramaRotation mgl64.Quat `json:"-"`
}

// Integrate advances the integrator by one frame of dt seconds.
// Long or irregular dt values are accepted as-is; NaN, infinite or
// negative dt counts as 0.
func Integrate(st State, in sensors.Snapshot, dt float64, p Params) (State, Targets) {
	in = in.Sanitized()
	if math.IsNaN(dt) || math.IsInf(dt, 0) || dt < 0 {
		dt = 0
	}

	alpha := mgl64.DegToRad(in.Orientation.Alpha)
	beta := mgl64.DegToRad(in.Orientation.Beta)
	gamma := mgl64.DegToRad(in.Orientation.Gamma)

	var out Targets
	out.Pitch = beta
	out.Yaw = gamma
	out.Orientation = EulerXYZ(beta, gamma, 0)

	rotation := st.CurrentRotation + mgl64.DegToRad(in.Motion.GRate)*dt
	if math.IsNaN(rotation) || math.IsInf(rotation, 0) {
		rotation = 0
	}

	out.Accel = AccelSignal(in.Motion.ZAcc, p)
	out.Speed = out.Accel * p.MaxSpeed
	out.PositionDelta = out.Speed * dt
	if math.IsInf(out.PositionDelta, 0) {
		out.PositionDelta = math.Copysign(math.MaxFloat64, out.PositionDelta)
	}
	if out.Accel != 0 {
		// moving and zooming are exclusive within a frame
		rotation = 0
	}

	out.FOV = FieldOfView(math.Abs(rotation)/2, p.BaseFOV, p.MinFOV)

	out.PanoramaRoll = -alpha
	out.PanoramaRotation = mgl64.QuatRotate(-alpha, axisZ)

	return State{CurrentRotation: rotation}, out
}

// AccelSignal maps zAcc through the two-sided dead zone and ramp and clamps
// the result to ±AccelLimit. Pushing the screen away (large positive zAcc)
// gives a negative signal.
func AccelSignal(zAcc float64, p Params) float64 {
	var accel float64
	switch {
	case zAcc < -p.GRange:
		accel = (p.GRange + zAcc) / (p.GRange - p.Gravity)
	case zAcc > p.GRange:
		accel = (p.GRange - zAcc) / (p.Gravity - p.GRange)
	}
	if math.IsNaN(accel) {
		return 0
	}
	return ClampAccel(accel, p.AccelLimit)
}

// EulerXYZ composes intrinsic rotations about X, then Y, then Z.
func EulerXYZ(x, y, z float64) mgl64.Quat {
	return mgl64.QuatRotate(x, axisX).
		Mul(mgl64.QuatRotate(y, axisY)).
		Mul(mgl64.QuatRotate(z, axisZ))
}
