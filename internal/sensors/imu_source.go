// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"fmt"

	"github.com/rs/zerolog"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/devices/v3/mpu9250"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/panorama_viewer/internal/imu"
	"github.com/relabs-tech/panorama_viewer/internal/orientation"
)

// IMUOptions selects the SPI wiring and full-scale ranges of an MPU-9250.
type IMUOptions struct {
	SPIDevice  string
	CSPin      string
	AccelRange byte // 0=±2g, 1=±4g, 2=±8g, 3=±16g
	GyroRange  byte // 0=±250°/s, 1=±500°/s, 2=±1000°/s, 3=±2000°/s
}

type imuSource struct {
	imu  *mpu9250.MPU9250
	opts IMUOptions
}

// NewIMUSource initializes an MPU9250 over SPI. Beta and gamma come from
// the accelerometer tilt; alpha stays 0 because there is no heading
// reference without the magnetometer.
func NewIMUSource(opts IMUOptions, log zerolog.Logger) (Source, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("IMU: periph host init: %w", err)
	}

	cs := gpioreg.ByName(opts.CSPin)
	if cs == nil {
		return nil, fmt.Errorf("IMU: CS pin %q not found", opts.CSPin)
	}

	tr, err := mpu9250.NewSpiTransport(opts.SPIDevice, cs)
	if err != nil {
		return nil, fmt.Errorf("IMU: SPI transport (%s): %w", opts.SPIDevice, err)
	}

	dev, err := mpu9250.New(tr)
	if err != nil {
		return nil, fmt.Errorf("IMU: device creation: %w", err)
	}

	if err := dev.Init(); err != nil {
		return nil, fmt.Errorf("IMU: initialization: %w", err)
	}

	if err := dev.SetAccelRange(opts.AccelRange); err != nil {
		return nil, fmt.Errorf("IMU: set accel range: %w", err)
	}
	if err := dev.SetGyroRange(opts.GyroRange); err != nil {
		return nil, fmt.Errorf("IMU: set gyro range: %w", err)
	}
	log.Info().
		Int("accel_g", []int{2, 4, 8, 16}[opts.AccelRange&3]).
		Int("gyro_dps", []int{250, 500, 1000, 2000}[opts.GyroRange&3]).
		Msg("IMU ranges configured")

	if _, err := dev.SelfTest(); err != nil {
		log.Warn().Err(err).Msg("IMU self-test failed")
	}
	if err := dev.Calibrate(); err != nil {
		log.Warn().Err(err).Msg("IMU calibration failed")
	} else {
		log.Info().Msg("IMU calibration complete")
	}

	return &imuSource{imu: dev, opts: opts}, nil
}

func (s *imuSource) readRaw() (imu.IMURaw, error) {
	ax, err := s.imu.GetAccelerationX()
	if err != nil {
		return imu.IMURaw{}, fmt.Errorf("IMU accel X: %w", err)
	}
	ay, err := s.imu.GetAccelerationY()
	if err != nil {
		return imu.IMURaw{}, fmt.Errorf("IMU accel Y: %w", err)
	}
	az, err := s.imu.GetAccelerationZ()
	if err != nil {
		return imu.IMURaw{}, fmt.Errorf("IMU accel Z: %w", err)
	}

	gx, err := s.imu.GetRotationX()
	if err != nil {
		return imu.IMURaw{}, fmt.Errorf("IMU gyro X: %w", err)
	}
	gy, err := s.imu.GetRotationY()
	if err != nil {
		return imu.IMURaw{}, fmt.Errorf("IMU gyro Y: %w", err)
	}
	gz, err := s.imu.GetRotationZ()
	if err != nil {
		return imu.IMURaw{}, fmt.Errorf("IMU gyro Z: %w", err)
	}

	return imu.IMURaw{Source: s.opts.SPIDevice, Ax: ax, Ay: ay, Az: az, Gx: gx, Gy: gy, Gz: gz}, nil
}

// Next reads one accelerometer + gyroscope sample.
func (s *imuSource) Next() (Reading, error) {
	raw, err := s.readRaw()
	if err != nil {
		return Reading{}, err
	}
	return ReadingFromRaw(raw, s.opts.AccelRange, s.opts.GyroRange), nil
}

// ReadingFromRaw converts raw MPU-9250 counts into samples. The chip's
// X/Y/Z gyro axes map onto the beta/gamma/alpha rates respectively.
func ReadingFromRaw(raw imu.IMURaw, accelRange, gyroRange byte) Reading {
	ax, ay, az := raw.AccelMS2(accelRange)
	gx, gy, gz := raw.GyroDPS(gyroRange)
	tilt := orientation.TiltFromAccel(ax, ay, az)

	o := OrientationSample{Beta: tilt.Beta, Gamma: tilt.Gamma}
	m := MotionSample{
		ARate: gz,
		BRate: gx,
		GRate: gy,
		XAcc:  ax,
		YAcc:  ay,
		ZAcc:  az,
	}
	return Reading{Orientation: &o, Motion: &m}
}
