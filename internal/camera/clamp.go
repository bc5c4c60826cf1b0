// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package camera

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// ClampPosition restricts a forward-axis position to [-limit, limit].
// NaN maps to 0.
func ClampPosition(x, limit float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	return mgl64.Clamp(x, -limit, limit)
}

// ClampAccel restricts the normalized acceleration to [-limit, limit].
func ClampAccel(a, limit float64) float64 {
	return mgl64.Clamp(a, -limit, limit)
}

// FieldOfView interpolates from base (t=0) to min (t=1). t is clamped to
// [0,1] first so the result never leaves [min, base].
func FieldOfView(t, base, min float64) float64 {
	if math.IsNaN(t) {
		t = 0
	}
	t = mgl64.Clamp(t, 0, 1)
	return base + (min-base)*t
}
