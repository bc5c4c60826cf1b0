// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package engine wires sensor samples, the camera rig, the panorama
// surface and the marker lifecycle into one per-frame update.
package engine

import (
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/rs/zerolog"

	"github.com/relabs-tech/panorama_viewer/internal/camera"
	"github.com/relabs-tech/panorama_viewer/internal/config"
	"github.com/relabs-tech/panorama_viewer/internal/marker"
	"github.com/relabs-tech/panorama_viewer/internal/panorama"
	"github.com/relabs-tech/panorama_viewer/internal/sensors"
	"github.com/relabs-tech/panorama_viewer/internal/timeutil"
)

// PoseApplier receives the pose computed for each frame. It is the only
// way a renderer learns about the camera.
type PoseApplier interface {
	ApplyPose(Frame)
}

// PoseApplierFunc adapts a function to PoseApplier.
type PoseApplierFunc func(Frame)

// ApplyPose implements PoseApplier.
func (f PoseApplierFunc) ApplyPose(fr Frame) { f(fr) }

// CoordinateSink receives the texture coordinate of each successful pick.
type CoordinateSink func(u, v float64)

// TexelSink adapts fn to a CoordinateSink that reports pixel coordinates
// of a width×height texture, origin top-left.
func TexelSink(width, height int, fn func(x, y float64)) CoordinateSink {
	return func(u, v float64) {
		fn(panorama.TexelCoords(u, v, width, height))
	}
}

// Frame is the result of one AdvanceFrame call.
type Frame struct {
	Seq     uint64      `json:"seq"`
	Time    time.Time   `json:"time"`
	DT      float64     `json:"dt"`
	Pose    camera.Pose `json:"pose"`
	Markers int         `json:"markers"`
}

// Options configure an Engine. Zero values fall back to the defaults of
// the reference viewer.
type Options struct {
	Params         camera.Params
	CylinderRadius float64
	CylinderHeight float64
	Marker         marker.Options

	Clock   timeutil.Clock
	Host    marker.Host
	Applier PoseApplier
	Sink    CoordinateSink
	Log     zerolog.Logger
}

// OptionsFromConfig fills Options from the process configuration.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Params:         camera.ParamsFromConfig(cfg),
		CylinderRadius: cfg.CylinderRadius,
		CylinderHeight: cfg.CylinderHeight,
		Marker: marker.Options{
			Lifetime:  cfg.MarkerLifetime(),
			Offset:    cfg.MarkerOffset,
			MaxActive: cfg.MarkerMaxActive,
		},
	}
}

// Engine is the motion-driven viewer core. Sensor callbacks may arrive on
// any goroutine; AdvanceFrame and TriggerPick are serialized internally.
type Engine struct {
	sensors *sensors.State
	markers *marker.Lifecycle
	clock   timeutil.Clock
	applier PoseApplier
	sink    CoordinateSink
	log     zerolog.Logger

	mu        sync.Mutex
	rig       *camera.Rig
	cylinder  *panorama.Cylinder
	seq       uint64
	lastFrame Frame
	lastPick  *panorama.PickResult
}

// New creates an Engine.
func New(opts Options) *Engine {
	if opts.Params == (camera.Params{}) {
		opts.Params = camera.DefaultParams()
	}
	if opts.CylinderRadius <= 0 {
		opts.CylinderRadius = 20
	}
	if opts.CylinderHeight <= 0 {
		opts.CylinderHeight = 60
	}
	if opts.Marker.Offset == 0 {
		opts.Marker.Offset = 0.02
	}
	if opts.Clock == nil {
		opts.Clock = timeutil.RealClock{}
	}

	rig := camera.NewRig(opts.Params)
	return &Engine{
		sensors:   sensors.NewState(),
		markers:   marker.NewLifecycle(opts.Host, opts.Clock, opts.Marker, opts.Log),
		clock:     opts.Clock,
		applier:   opts.Applier,
		sink:      opts.Sink,
		log:       opts.Log,
		rig:       rig,
		cylinder:  panorama.NewCylinder(opts.CylinderRadius, opts.CylinderHeight),
		lastFrame: Frame{Pose: rig.Pose()},
	}
}

// Sensors exposes the sample holder so sources can write into it directly.
func (e *Engine) Sensors() *sensors.State { return e.sensors }

// Markers exposes the marker lifecycle, e.g. for Run.
func (e *Engine) Markers() *marker.Lifecycle { return e.markers }

// OnOrientation stores the latest orientation sample.
func (e *Engine) OnOrientation(s sensors.OrientationSample) { e.sensors.OnOrientation(s) }

// OnMotion stores the latest motion sample.
func (e *Engine) OnMotion(s sensors.MotionSample) { e.sensors.OnMotion(s) }

// AdvanceFrame integrates the latest samples over dt seconds, rolls the
// panorama, retires expired markers and hands the pose to the applier.
func (e *Engine) AdvanceFrame(dt float64) Frame {
	snap := e.sensors.Snapshot()
	now := e.clock.Now()

	e.mu.Lock()
	pose := e.rig.Step(snap, dt)
	e.cylinder.SetRoll(mgl64.DegToRad(pose.PanoramaRoll))
	e.seq++
	fr := Frame{Seq: e.seq, Time: now, DT: dt, Pose: pose}
	e.mu.Unlock()

	e.markers.Sweep(now)
	fr.Markers = len(e.markers.Active())

	e.mu.Lock()
	e.lastFrame = fr
	e.mu.Unlock()

	if e.applier != nil {
		e.applier.ApplyPose(fr)
	}
	return fr
}

// LastFrame returns the most recent frame, or the initial pose before the
// first AdvanceFrame.
func (e *Engine) LastFrame() Frame {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.lastFrame
}

// LastPick returns the most recent successful pick.
func (e *Engine) LastPick() (panorama.PickResult, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.lastPick == nil {
		return panorama.PickResult{}, false
	}
	return *e.lastPick, true
}

// TriggerPick casts the screen-centre ray of the current pose against the
// panorama. On a hit it spawns a marker and reports the coordinate to the
// sink; a miss changes nothing.
func (e *Engine) TriggerPick() (panorama.PickResult, bool) {
	e.mu.Lock()
	pose := e.rig.Pose()
	ray := panorama.Ray{Origin: pose.Eye(), Direction: pose.Forward()}
	res, ok := panorama.Pick(ray, e.cylinder)
	if ok {
		e.lastPick = &res
	}
	e.mu.Unlock()

	if !ok {
		e.log.Debug().Float64("pitch", pose.Pitch).Float64("yaw", pose.Yaw).Msg("pick missed")
		return panorama.PickResult{}, false
	}

	m := e.markers.Spawn(res)
	if e.sink != nil {
		e.sink(res.U, res.V)
	}
	e.log.Debug().
		Float64("u", res.U).
		Float64("v", res.V).
		Uint64("marker", m.ID).
		Msg("pick")
	return res, true
}
