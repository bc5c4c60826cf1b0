// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/relabs-tech/panorama_viewer/internal/config"
	"github.com/relabs-tech/panorama_viewer/internal/logging"
	"github.com/relabs-tech/panorama_viewer/internal/sensors"
	"github.com/relabs-tech/panorama_viewer/internal/timeutil"
)

// openSource builds the sensor source named by cfg.SensorSource. The
// returned interval is how Pump should pace it: 0 means the source blocks
// on its own stream. The closer may be nil.
func openSource(cfg *config.Config, clock timeutil.Clock, log zerolog.Logger) (sensors.Source, time.Duration, io.Closer, error) {
	switch strings.ToLower(cfg.SensorSource) {
	case "mock":
		log.Info().Msg("using mock sensor source")
		return sensors.NewMockSource(clock), cfg.SampleDuration(), nil, nil

	case "imu":
		src, err := sensors.NewIMUSource(sensors.IMUOptions{
			SPIDevice:  cfg.IMUSPIDevice,
			CSPin:      cfg.IMUCSPin,
			AccelRange: cfg.IMUAccelRange,
			GyroRange:  cfg.IMUGyroRange,
		}, log)
		if err != nil {
			return nil, 0, nil, err
		}
		log.Info().Str("spi", cfg.IMUSPIDevice).Msg("using MPU9250 sensor source")
		return src, cfg.SampleDuration(), nil, nil

	case "nmea":
		src, err := sensors.OpenNMEASource(cfg.NMEASerialPort, cfg.NMEABaudRate)
		if err != nil {
			return nil, 0, nil, err
		}
		log.Info().Str("port", cfg.NMEASerialPort).Int("baud", cfg.NMEABaudRate).Msg("using NMEA heading source")
		return src, 0, src, nil

	default:
		return nil, 0, nil, sensors.UnknownSource(cfg.SensorSource)
	}
}

// RunSensorProducer reads the configured sensor and publishes every sample
// on the orientation and motion topics.
func RunSensorProducer(ctx context.Context) error {
	cfg := config.Get()
	log := logging.For("sensor_producer")

	src, interval, closer, err := openSource(cfg, timeutil.RealClock{}, log)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer.Close()
	}

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDProducer, log)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	sink := &mqttSink{
		client:           client,
		orientationTopic: cfg.TopicOrientation,
		motionTopic:      cfg.TopicMotion,
		log:              log,
	}

	log.Info().Dur("interval", interval).Msg("starting publish loop")
	err = sensors.Pump(ctx, src, sink, timeutil.RealClock{}, interval, log)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
