// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package panorama

import (
	"github.com/go-gl/mathgl/mgl64"
)

// PickResult is the texture coordinate under the screen centre plus the
// world-space hit used to place a marker.
type PickResult struct {
	U        float64    `json:"u"`
	V        float64    `json:"v"`
	Point    mgl64.Vec3 `json:"point"`
	Normal   mgl64.Vec3 `json:"normal"`
	Distance float64    `json:"distance"`
}

// Pick casts ray against s. A miss returns false and nothing else happens.
func Pick(ray Ray, s Surface) (PickResult, bool) {
	if s == nil || ray.Direction.Len() == 0 {
		return PickResult{}, false
	}
	hit, ok := s.Intersect(ray)
	if !ok {
		return PickResult{}, false
	}
	return PickResult{
		U:        hit.U,
		V:        hit.V,
		Point:    hit.Point,
		Normal:   hit.Normal,
		Distance: hit.Distance,
	}, true
}

// TexelCoords scales a [0,1] texture coordinate to pixels of a
// width×height image with the origin at the top-left.
func TexelCoords(u, v float64, width, height int) (x, y float64) {
	return u * float64(width), (1 - v) * float64(height)
}
