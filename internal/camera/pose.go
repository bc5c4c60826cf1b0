// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package camera

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/relabs-tech/panorama_viewer/internal/sensors"
)

// Pose is the bounded camera pose for one frame, in the form handed to the
// renderer and published on the wire. Angles are degrees.
type Pose struct {
	Quaternion [4]float64 `json:"quaternion"` // w, x, y, z
	Pitch      float64    `json:"pitch"`
	Yaw        float64    `json:"yaw"`
	Roll       float64    `json:"roll"`

	Position float64 `json:"position"` // along the panorama axis
	FOV      float64 `json:"fov"`

	PanoramaRoll    float64 `json:"panorama_roll"`
	CurrentRotation float64 `json:"current_rotation"` // radians
}

// Orientation returns the camera rotation as a quaternion.
func (p Pose) Orientation() mgl64.Quat {
	return mgl64.Quat{W: p.Quaternion[0], V: mgl64.Vec3{p.Quaternion[1], p.Quaternion[2], p.Quaternion[3]}}
}

// Eye is the camera position in world space. The camera only travels
// along the panorama axis (world Z).
func (p Pose) Eye() mgl64.Vec3 {
	return mgl64.Vec3{0, 0, p.Position}
}

// Forward is the unit view direction: local -Z rotated by the orientation.
func (p Pose) Forward() mgl64.Vec3 {
	return p.Orientation().Rotate(mgl64.Vec3{0, 0, -1}).Normalize()
}

// Rig owns the integrator state and the current position between frames.
// It is not safe for concurrent use.
type Rig struct {
	params   Params
	state    State
	position float64
	last     Pose
}

// NewRig creates a rig at the origin looking down -Z with the base FOV.
func NewRig(p Params) *Rig {
	r := &Rig{params: p}
	r.last = Pose{Quaternion: [4]float64{1, 0, 0, 0}, FOV: p.BaseFOV}
	return r
}

// Step integrates one frame and returns the clamped pose.
func (r *Rig) Step(in sensors.Snapshot, dt float64) Pose {
	next, t := Integrate(r.state, in, dt, r.params)
	r.state = next
	r.position = ClampPosition(r.position+t.PositionDelta, r.params.TravelLimit)

	q := t.Orientation.Normalize()
	r.last = Pose{
		Quaternion:      [4]float64{q.W, q.V[0], q.V[1], q.V[2]},
		Pitch:           mgl64.RadToDeg(t.Pitch),
		Yaw:             mgl64.RadToDeg(t.Yaw),
		Roll:            0,
		Position:        r.position,
		FOV:             t.FOV,
		PanoramaRoll:    mgl64.RadToDeg(t.PanoramaRoll),
		CurrentRotation: next.CurrentRotation,
	}
	return r.last
}

// Pose returns the pose computed by the most recent Step.
func (r *Rig) Pose() Pose { return r.last }

// State returns the integrator state after the most recent Step.
func (r *Rig) State() State { return r.state }
