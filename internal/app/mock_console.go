// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/relabs-tech/panorama_viewer/internal/config"
	"github.com/relabs-tech/panorama_viewer/internal/engine"
	"github.com/relabs-tech/panorama_viewer/internal/logging"
	"github.com/relabs-tech/panorama_viewer/internal/panorama"
	"github.com/relabs-tech/panorama_viewer/internal/sensors"
	"github.com/relabs-tech/panorama_viewer/internal/timeutil"
)

func formatPose(p engine.Frame) string {
	return fmt.Sprintf(
		"[POSE] #%-6d PITCH=%7.2f  YAW=%7.2f  PANO=%7.2f  POS=%7.2f  FOV=%6.2f  ROT=%6.3f",
		p.Seq, p.Pose.Pitch, p.Pose.Yaw, p.Pose.PanoramaRoll, p.Pose.Position, p.Pose.FOV, p.Pose.CurrentRotation,
	)
}

func formatPick(res panorama.PickResult, ok bool, width, height int) string {
	if !ok {
		return "[PICK] miss"
	}
	x, y := panorama.TexelCoords(res.U, res.V, width, height)
	return fmt.Sprintf("[PICK] u=%.4f v=%.4f  px=(%.0f, %.0f)  dist=%.2f", res.U, res.V, x, y, res.Distance)
}

// consoleLoop runs frames on the clock and every logEvery prints the pose
// and tries a pick, so the whole pipeline shows up in the terminal.
func consoleLoop(ctx context.Context, out io.Writer, eng *engine.Engine, clock timeutil.Clock,
	frame, logEvery time.Duration, width, height int) error {
	frames := clock.NewTicker(frame)
	defer frames.Stop()
	prints := clock.NewTicker(logEvery)
	defer prints.Stop()

	last := clock.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case t := <-frames.C():
			eng.AdvanceFrame(t.Sub(last).Seconds())
			last = t
		case <-prints.C():
			fmt.Fprintln(out, formatPose(eng.LastFrame()))
			res, ok := eng.TriggerPick()
			fmt.Fprintln(out, formatPick(res, ok, width, height))
		}
	}
}

// RunMockConsole drives a local engine from the mock sensor and prints
// poses and picks, no broker needed.
func RunMockConsole(ctx context.Context) error {
	cfg := config.Get()
	log := logging.For("console")
	clock := timeutil.RealClock{}

	opts := engine.OptionsFromConfig(cfg)
	opts.Clock = clock
	opts.Log = log
	eng := engine.New(opts)

	go func() {
		err := sensors.Pump(ctx, sensors.NewMockSource(clock), eng.Sensors(), clock, cfg.SampleDuration(), log)
		if err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("mock source stopped")
		}
	}()

	logEvery := time.Duration(cfg.ConsoleLogInterval) * time.Millisecond
	err := consoleLoop(ctx, os.Stdout, eng, clock, cfg.FrameDuration(), logEvery, cfg.TextureWidth, cfg.TextureHeight)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
