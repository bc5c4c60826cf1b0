// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/relabs-tech/panorama_viewer/internal/app"
	"github.com/relabs-tech/panorama_viewer/internal/config"
	"github.com/relabs-tech/panorama_viewer/internal/logging"
)

func main() {
	log := logging.Setup(os.Stderr, os.Getenv("PANORAMA_LOG_LEVEL"))
	log.Info().Msg("starting sensor producer")

	if err := config.InitGlobal("panorama_config.txt"); err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	log = logging.Setup(os.Stderr, config.Get().LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.RunSensorProducer(ctx); err != nil {
		log.Fatal().Err(err).Msg("fatal")
	}
}
