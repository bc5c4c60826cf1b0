// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/rs/zerolog"

	"github.com/relabs-tech/panorama_viewer/internal/sensors"
)

func connectMQTT(broker, clientID string, log zerolog.Logger) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("connect to MQTT broker %s: %w", broker, token.Error())
	}
	log.Info().Str("broker", broker).Str("client_id", clientID).Msg("connected to MQTT broker")
	return client, nil
}

// subscribeJSON decodes every message on topic into a T and hands it to fn.
// Malformed payloads are logged and dropped.
func subscribeJSON[T any](client mqtt.Client, topic string, log zerolog.Logger, fn func(T)) error {
	token := client.Subscribe(topic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var v T
		if err := json.Unmarshal(msg.Payload(), &v); err != nil {
			log.Warn().Err(err).Str("topic", msg.Topic()).Msg("payload unmarshal error")
			return
		}
		fn(v)
	})
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("subscribe %s: %w", topic, token.Error())
	}
	log.Info().Str("topic", topic).Msg("subscribed")
	return nil
}

func publishJSON(client mqtt.Client, topic string, retained bool, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s payload: %w", topic, err)
	}
	if token := client.Publish(topic, 0, retained, payload); token.Wait() && token.Error() != nil {
		return fmt.Errorf("publish %s: %w", topic, token.Error())
	}
	return nil
}

// mqttSink publishes every sample it receives. It implements sensors.Sink.
type mqttSink struct {
	client           mqtt.Client
	orientationTopic string
	motionTopic      string
	log              zerolog.Logger
}

func (s *mqttSink) OnOrientation(o sensors.OrientationSample) {
	if err := publishJSON(s.client, s.orientationTopic, false, o); err != nil {
		s.log.Warn().Err(err).Msg("orientation publish failed")
	}
}

func (s *mqttSink) OnMotion(m sensors.MotionSample) {
	if err := publishJSON(s.client, s.motionTopic, false, m); err != nil {
		s.log.Warn().Err(err).Msg("motion publish failed")
	}
}
