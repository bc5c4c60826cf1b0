// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package panorama models the surface the panorama image is mapped onto
// and answers "what texture point is the camera looking at".
package panorama

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// hitEpsilon rejects intersections at or behind the ray origin.
const hitEpsilon = 1e-9

// Ray is a half-line. Direction need not be normalized; Distance in a Hit
// is measured in units of Direction's length.
type Ray struct {
	Origin    mgl64.Vec3
	Direction mgl64.Vec3
}

// At returns the point t along the ray.
func (r Ray) At(t float64) mgl64.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// Hit is a ray-surface intersection.
type Hit struct {
	Distance float64
	Point    mgl64.Vec3 // world space
	Normal   mgl64.Vec3 // outward unit normal, world space
	U, V     float64    // texture parameterization, [0,1]
}

// Surface is anything a pick ray can be cast against.
type Surface interface {
	// Intersect returns the nearest hit in front of the ray origin.
	Intersect(r Ray) (Hit, bool)
}

// Cylinder is an open-ended cylinder (no caps) centred on the origin with
// its axis along world Z, viewed from inside. Rotation spins the mesh
// about its own axis.
//
// The texture wraps around the axis: u = atan2(x, y)/2π in mesh-local
// coordinates, and v runs from 0 at z = +Height/2 to 1 at z = -Height/2.
type Cylinder struct {
	Radius   float64
	Height   float64
	Rotation mgl64.Quat
}

// NewCylinder returns an unrotated cylinder.
func NewCylinder(radius, height float64) *Cylinder {
	return &Cylinder{Radius: radius, Height: height, Rotation: mgl64.QuatIdent()}
}

// SetRoll rotates the cylinder by angle radians about its axis.
func (c *Cylinder) SetRoll(angle float64) {
	c.Rotation = mgl64.QuatRotate(angle, mgl64.Vec3{0, 0, 1})
}

// Intersect implements Surface.
func (c *Cylinder) Intersect(r Ray) (Hit, bool) {
	toLocal := c.Rotation.Inverse()
	o := toLocal.Rotate(r.Origin)
	d := toLocal.Rotate(r.Direction)

	// x² + y² = R² along o + t·d
	a := d[0]*d[0] + d[1]*d[1]
	if a < hitEpsilon {
		// parallel to the axis, passes out through an open end
		return Hit{}, false
	}
	b := 2 * (o[0]*d[0] + o[1]*d[1])
	cc := o[0]*o[0] + o[1]*o[1] - c.Radius*c.Radius

	disc := b*b - 4*a*cc
	if disc < 0 {
		return Hit{}, false
	}
	sq := math.Sqrt(disc)
	half := c.Height / 2

	for _, t := range [2]float64{(-b - sq) / (2 * a), (-b + sq) / (2 * a)} {
		if t <= hitEpsilon {
			continue
		}
		p := o.Add(d.Mul(t))
		if p[2] < -half || p[2] > half {
			continue
		}
		u, v := c.uv(p)
		n := mgl64.Vec3{p[0], p[1], 0}.Normalize()
		return Hit{
			Distance: t,
			Point:    c.Rotation.Rotate(p),
			Normal:   c.Rotation.Rotate(n),
			U:        u,
			V:        v,
		}, true
	}
	return Hit{}, false
}

func (c *Cylinder) uv(p mgl64.Vec3) (u, v float64) {
	theta := math.Atan2(p[0], p[1])
	if theta < 0 {
		theta += 2 * math.Pi
	}
	u = theta / (2 * math.Pi)
	if u >= 1 {
		u = 0
	}
	v = mgl64.Clamp((c.Height/2-p[2])/c.Height, 0, 1)
	return u, v
}

// Surfaces is a group of surfaces; Intersect returns the nearest hit
// across all of them.
type Surfaces []Surface

// Intersect implements Surface.
func (s Surfaces) Intersect(r Ray) (Hit, bool) {
	var best Hit
	found := false
	for _, surf := range s {
		h, ok := surf.Intersect(r)
		if ok && (!found || h.Distance < best.Distance) {
			best, found = h, true
		}
	}
	return best, found
}
