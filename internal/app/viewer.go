// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/relabs-tech/panorama_viewer/internal/config"
	"github.com/relabs-tech/panorama_viewer/internal/engine"
	"github.com/relabs-tech/panorama_viewer/internal/logging"
	"github.com/relabs-tech/panorama_viewer/internal/marker"
	"github.com/relabs-tech/panorama_viewer/internal/timeutil"
)

// Viewer runs the engine for one panorama and fans its output out to MQTT
// and websocket clients.
type Viewer struct {
	cfg      *config.Config
	clock    timeutil.Clock
	log      zerolog.Logger
	engine   *engine.Engine
	registry *marker.Registry
	hub      *hub

	mu       sync.RWMutex
	client   mqtt.Client
	lastPick *PickMessage
}

// NewViewer builds a viewer from cfg. It does not connect to anything
// until Run.
func NewViewer(cfg *config.Config, clock timeutil.Clock, log zerolog.Logger) *Viewer {
	if clock == nil {
		clock = timeutil.RealClock{}
	}
	v := &Viewer{
		cfg:      cfg,
		clock:    clock,
		log:      log,
		registry: marker.NewRegistry(),
		hub:      newHub(log),
	}
	v.registry.OnEvent = func(e marker.Event) {
		v.hub.broadcast(ViewerEvent{Type: "marker", Marker: &e})
	}

	opts := engine.OptionsFromConfig(cfg)
	opts.Clock = clock
	opts.Host = v.registry
	opts.Applier = engine.PoseApplierFunc(v.applyPose)
	opts.Sink = engine.TexelSink(cfg.TextureWidth, cfg.TextureHeight, func(x, y float64) {
		v.log.Info().Float64("x", x).Float64("y", y).Msg("picked texel")
	})
	opts.Log = log
	v.engine = engine.New(opts)
	return v
}

// Engine returns the viewer's engine.
func (v *Viewer) Engine() *engine.Engine { return v.engine }

// Registry returns the markers currently in the scene.
func (v *Viewer) Registry() *marker.Registry { return v.registry }

func (v *Viewer) mqttClient() mqtt.Client {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.client
}

func (v *Viewer) applyPose(fr engine.Frame) {
	v.hub.broadcast(ViewerEvent{Type: "frame", Frame: &fr})
	if c := v.mqttClient(); c != nil {
		if err := publishJSON(c, v.cfg.TopicPose, false, fr); err != nil {
			v.log.Warn().Err(err).Msg("pose publish failed")
		}
	}
}

// Pick triggers a pick at the screen centre and reports the outcome on
// every output.
func (v *Viewer) Pick(source string) PickMessage {
	res, ok := v.engine.TriggerPick()
	msg := newPickMessage(res, ok, v.cfg.TextureWidth, v.cfg.TextureHeight, v.clock.Now())

	v.mu.Lock()
	v.lastPick = &msg
	v.mu.Unlock()

	v.log.Info().Str("source", source).Bool("hit", ok).Float64("u", res.U).Float64("v", res.V).Msg("pick")
	v.hub.broadcast(ViewerEvent{Type: "pick", Pick: &msg})
	if c := v.mqttClient(); c != nil {
		if err := publishJSON(c, v.cfg.TopicPickResult, false, msg); err != nil {
			v.log.Warn().Err(err).Msg("pick publish failed")
		}
	}
	return msg
}

// LastPick returns the most recent pick attempt.
func (v *Viewer) LastPick() (PickMessage, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.lastPick == nil {
		return PickMessage{}, false
	}
	return *v.lastPick, true
}

// subscribe wires the sensor and pick request topics into the engine.
func (v *Viewer) subscribe(client mqtt.Client) error {
	st := v.engine.Sensors()
	if err := subscribeJSON(client, v.cfg.TopicOrientation, v.log, st.OnOrientation); err != nil {
		return err
	}
	if err := subscribeJSON(client, v.cfg.TopicMotion, v.log, st.OnMotion); err != nil {
		return err
	}
	return subscribeJSON(client, v.cfg.TopicPickRequest, v.log, func(req PickRequest) {
		src := req.Source
		if src == "" {
			src = "mqtt"
		}
		v.Pick(src)
	})
}

// runFrames advances the engine on every tick with the measured frame time.
func (v *Viewer) runFrames(ctx context.Context, interval time.Duration) error {
	ticker := v.clock.NewTicker(interval)
	defer ticker.Stop()

	last := v.clock.Now()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case t := <-ticker.C():
			dt := t.Sub(last).Seconds()
			last = t
			v.engine.AdvanceFrame(dt)
		}
	}
}

// Run connects to MQTT when withMQTT is set, then runs the frame loop,
// the marker sweeper and the HTTP server until ctx is done.
func (v *Viewer) Run(ctx context.Context, withMQTT bool) error {
	if withMQTT {
		client, err := connectMQTT(v.cfg.MQTTBroker, v.cfg.MQTTClientIDViewer, v.log)
		if err != nil {
			return err
		}
		defer client.Disconnect(250)
		v.mu.Lock()
		v.client = client
		v.mu.Unlock()
		if err := v.subscribe(client); err != nil {
			return err
		}
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(v.cfg.WebServerPort),
		Handler:           v.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 3)
	go func() { errCh <- v.runFrames(ctx, v.cfg.FrameDuration()) }()
	go func() { errCh <- v.engine.Markers().Run(ctx, v.cfg.FrameDuration()) }()
	go func() {
		v.log.Info().Str("addr", srv.Addr).Msg("web server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("web server: %w", err)
			return
		}
		errCh <- nil
	}()

	var err error
	select {
	case <-ctx.Done():
	case err = <-errCh:
	}
	cancel()

	shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
	defer done()
	if serr := srv.Shutdown(shutdownCtx); serr != nil {
		v.log.Warn().Err(serr).Msg("web server shutdown")
	}
	v.hub.close()

	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// RunViewer is the viewer binary: engine, MQTT bridge and web server.
func RunViewer(ctx context.Context) error {
	cfg := config.Get()
	log := logging.For("viewer")

	v := NewViewer(cfg, timeutil.RealClock{}, log)
	log.Info().
		Float64("radius", cfg.CylinderRadius).
		Float64("height", cfg.CylinderHeight).
		Dur("frame", cfg.FrameDuration()).
		Msg("starting panorama viewer")
	return v.Run(ctx, true)
}
