// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import "math"

// OrientationSample is the device attitude in degrees relative to a fixed
// reference frame. Alpha rotates about the screen normal, Beta is the
// front/back tilt, Gamma the left/right tilt.
type OrientationSample struct {
	Alpha float64 `json:"alpha"`
	Beta  float64 `json:"beta"`
	Gamma float64 `json:"gamma"`
}

// MotionSample carries angular rates in deg/s and accelerations including
// gravity in m/s², both in device-local axes.
type MotionSample struct {
	ARate float64 `json:"a_rate"`
	BRate float64 `json:"b_rate"`
	GRate float64 `json:"g_rate"`
	XAcc  float64 `json:"x_acc"`
	YAcc  float64 `json:"y_acc"`
	ZAcc  float64 `json:"z_acc"`
}

// Snapshot is the pair of most recent samples read once per frame.
type Snapshot struct {
	Orientation OrientationSample `json:"orientation"`
	Motion      MotionSample      `json:"motion"`
}

// Sanitized replaces NaN and infinite fields with 0.
func (s OrientationSample) Sanitized() OrientationSample {
	return OrientationSample{
		Alpha: finiteOrZero(s.Alpha),
		Beta:  finiteOrZero(s.Beta),
		Gamma: finiteOrZero(s.Gamma),
	}
}

// Sanitized replaces NaN and infinite fields with 0.
func (s MotionSample) Sanitized() MotionSample {
	return MotionSample{
		ARate: finiteOrZero(s.ARate),
		BRate: finiteOrZero(s.BRate),
		GRate: finiteOrZero(s.GRate),
		XAcc:  finiteOrZero(s.XAcc),
		YAcc:  finiteOrZero(s.YAcc),
		ZAcc:  finiteOrZero(s.ZAcc),
	}
}

// Sanitized applies Sanitized to both samples.
func (s Snapshot) Sanitized() Snapshot {
	return Snapshot{
		Orientation: s.Orientation.Sanitized(),
		Motion:      s.Motion.Sanitized(),
	}
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
