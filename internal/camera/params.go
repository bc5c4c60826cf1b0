// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package camera

import "github.com/relabs-tech/panorama_viewer/internal/config"

// Params are the tuning constants of the motion integrator.
type Params struct {
	GRange      float64 // |zAcc| at or below this is the dead zone, m/s²
	Gravity     float64 // |zAcc| that maps to unit acceleration, m/s²
	AccelLimit  float64 // normalized acceleration is clamped to ±AccelLimit
	MaxSpeed    float64 // travel speed at unit acceleration, units/s
	TravelLimit float64 // position is clamped to ±TravelLimit
	BaseFOV     float64 // degrees
	MinFOV      float64 // degrees
}

// DefaultParams returns the reference tuning.
func DefaultParams() Params {
	return Params{
		GRange:      8.2,
		Gravity:     9.4,
		AccelLimit:  1.5,
		MaxSpeed:    25,
		TravelLimit: 50,
		BaseFOV:     100,
		MinFOV:      20,
	}
}

// ParamsFromConfig copies the integrator section of cfg.
func ParamsFromConfig(cfg *config.Config) Params {
	return Params{
		GRange:      cfg.GRange,
		Gravity:     cfg.Gravity,
		AccelLimit:  cfg.AccelLimit,
		MaxSpeed:    cfg.MaxSpeed,
		TravelLimit: cfg.TravelLimit,
		BaseFOV:     cfg.BaseFOV,
		MinFOV:      cfg.MinFOV,
	}
}
