// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/rs/zerolog"

	"github.com/relabs-tech/panorama_viewer/internal/timeutil"
)

// Reading is one poll of a sensor source. Either sample may be absent when
// the hardware only provides part of the picture.
type Reading struct {
	Orientation *OrientationSample
	Motion      *MotionSample
}

// Source is anything that can provide sensor readings over time:
// the mock generator, an SPI IMU, a serial heading sensor.
type Source interface {
	Next() (Reading, error)
}

// Deliver forwards the present parts of r to sink.
func (r Reading) Deliver(sink Sink) {
	if r.Orientation != nil {
		sink.OnOrientation(*r.Orientation)
	}
	if r.Motion != nil {
		sink.OnMotion(*r.Motion)
	}
}

// ErrNoData marks a poll that produced nothing usable, such as an unknown
// NMEA sentence. Pump skips it silently.
var ErrNoData = errors.New("no sensor data")

// Pump polls src and delivers each reading to sink until ctx is done or the
// source reports io.EOF. With interval > 0 polls are paced by a clock ticker and
// read errors are logged and skipped; with interval <= 0 Next is expected to
// block on a stream and any error other than ErrNoData ends the pump.
// A nil clock means the real clock.
func Pump(ctx context.Context, src Source, sink Sink, clock timeutil.Clock, interval time.Duration, log zerolog.Logger) error {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	var tick <-chan time.Time
	if interval > 0 {
		ticker := clock.NewTicker(interval)
		defer ticker.Stop()
		tick = ticker.C()
	}

	for {
		if tick != nil {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-tick:
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}

		r, err := src.Next()
		switch {
		case err == nil:
			r.Deliver(sink)
		case errors.Is(err, io.EOF):
			return nil
		case errors.Is(err, ErrNoData):
		case tick == nil:
			return err
		default:
			log.Warn().Err(err).Msg("sensor read error")
		}
	}
}

// ErrUnknownSource is returned by callers that select a source by name.
var ErrUnknownSource = errors.New("unknown sensor source")

// UnknownSource wraps ErrUnknownSource with the offending name.
func UnknownSource(name string) error {
	return fmt.Errorf("%w: %q", ErrUnknownSource, name)
}
