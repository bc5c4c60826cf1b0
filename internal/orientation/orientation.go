// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package orientation

import (
	"math"
)

// Tilt is the device attitude that can be recovered from gravity alone,
// in degrees. Beta is the front/back tilt (0 flat, 90 upright), Gamma the
// left/right tilt.
type Tilt struct {
	Beta  float64 `json:"beta"`
	Gamma float64 `json:"gamma"`
}

// TiltFromAccel computes beta and gamma from accelerometer data only, in
// any consistent unit. Rotation about the gravity vector is not observable
// this way.
//
// Uses simple tilt formulas:
//
//	beta  = atan2(ay, az)
//	gamma = atan2(-ax, sqrt(ay² + az²))
func TiltFromAccel(ax, ay, az float64) Tilt {
	if ax == 0 && ay == 0 && az == 0 {
		return Tilt{}
	}
	betaRad := math.Atan2(ay, az)
	gammaRad := math.Atan2(-ax, math.Sqrt(ay*ay+az*az))

	return Tilt{
		Beta:  betaRad * 180.0 / math.Pi,
		Gamma: gammaRad * 180.0 / math.Pi,
	}
}
