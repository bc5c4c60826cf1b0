// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package imu

// IMURaw represents a single raw accelerometer + gyroscope sample in
// device counts.
type IMURaw struct {
	Source string `json:"source"`

	Ax int16 `json:"ax"` // accel
	Ay int16 `json:"ay"`
	Az int16 `json:"az"`

	Gx int16 `json:"gx"` // gyro
	Gy int16 `json:"gy"`
	Gz int16 `json:"gz"`
}

const standardGravity = 9.80665 // m/s²

// Sensitivities for the MPU-9250 full-scale range codes 0..3.
var (
	accelLSBPerG  = [4]float64{16384, 8192, 4096, 2048}
	gyroLSBPerDPS = [4]float64{131, 65.5, 32.8, 16.4}
)

// AccelMS2 converts the raw accelerometer counts to m/s² for the given
// range code (0=±2g ... 3=±16g). Out-of-range codes are treated as 0.
func (r IMURaw) AccelMS2(rangeCode byte) (x, y, z float64) {
	scale := standardGravity / accelLSBPerG[clampCode(rangeCode)]
	return float64(r.Ax) * scale, float64(r.Ay) * scale, float64(r.Az) * scale
}

// GyroDPS converts the raw gyroscope counts to deg/s for the given range
// code (0=±250°/s ... 3=±2000°/s). Out-of-range codes are treated as 0.
func (r IMURaw) GyroDPS(rangeCode byte) (x, y, z float64) {
	lsb := gyroLSBPerDPS[clampCode(rangeCode)]
	return float64(r.Gx) / lsb, float64(r.Gy) / lsb, float64(r.Gz) / lsb
}

func clampCode(c byte) byte {
	if c > 3 {
		return 0
	}
	return c
}
