// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/relabs-tech/panorama_viewer/internal/config"
	"github.com/relabs-tech/panorama_viewer/internal/engine"
	"github.com/relabs-tech/panorama_viewer/internal/logging"
	"github.com/relabs-tech/panorama_viewer/internal/panorama"
	"github.com/relabs-tech/panorama_viewer/internal/sensors"
)

// RunConsoleMQTT prints what the viewer publishes: poses (throttled to
// the console interval), pick results and the raw sensor samples.
func RunConsoleMQTT(ctx context.Context) error {
	cfg := config.Get()
	log := logging.For("console_mqtt")

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDConsole, log)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	every := time.Duration(cfg.ConsoleLogInterval) * time.Millisecond
	var lastPrint atomic.Int64

	if err := subscribeJSON(client, cfg.TopicPose, log, func(fr engine.Frame) {
		now := time.Now().UnixNano()
		if now-lastPrint.Load() < int64(every) {
			return
		}
		lastPrint.Store(now)
		fmt.Println(formatPose(fr))
	}); err != nil {
		return err
	}

	if err := subscribeJSON(client, cfg.TopicPickResult, log, func(msg PickMessage) {
		var res panorama.PickResult
		if msg.Result != nil {
			res = *msg.Result
		}
		fmt.Println(formatPick(res, msg.Hit && msg.Result != nil, cfg.TextureWidth, cfg.TextureHeight))
	}); err != nil {
		return err
	}

	if err := subscribeJSON(client, cfg.TopicMotion, log, func(m sensors.MotionSample) {
		log.Debug().
			Float64("g_rate", m.GRate).
			Float64("z_acc", m.ZAcc).
			Msg("motion")
	}); err != nil {
		return err
	}

	<-ctx.Done()
	log.Info().Msg("shutting down")
	return nil
}
