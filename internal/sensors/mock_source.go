// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"math"
	"time"

	"github.com/relabs-tech/panorama_viewer/internal/timeutil"
)

const standardGravity = 9.80665

type mockSource struct {
	clock timeutil.Clock
	start time.Time
}

// NewMockSource creates a sensor source that sways the device smoothly
// and gives it a short forward shake every eight seconds.
func NewMockSource(clock timeutil.Clock) Source {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	return &mockSource{clock: clock, start: clock.Now()}
}

func (m *mockSource) Next() (Reading, error) {
	elapsed := m.clock.Since(m.start).Seconds()

	o := OrientationSample{
		Alpha: 20 * math.Sin(elapsed),
		Beta:  75 + 15*math.Cos(elapsed*0.7),
		Gamma: 40 * math.Sin(elapsed*0.3),
	}

	betaRad := o.Beta * math.Pi / 180
	mo := MotionSample{
		ARate: 20 * math.Cos(elapsed),
		BRate: -10.5 * math.Sin(elapsed*0.7),
		GRate: 12 * math.Cos(elapsed*0.3),
		YAcc:  standardGravity * math.Sin(betaRad),
		ZAcc:  standardGravity * math.Cos(betaRad),
	}

	// half-second push away from the user
	if math.Mod(elapsed, 8) >= 7.5 {
		mo.ZAcc = 11
	}

	return Reading{Orientation: &o, Motion: &mo}, nil
}
