// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"time"

	"github.com/relabs-tech/panorama_viewer/internal/engine"
	"github.com/relabs-tech/panorama_viewer/internal/marker"
	"github.com/relabs-tech/panorama_viewer/internal/panorama"
	"github.com/relabs-tech/panorama_viewer/internal/sensors"
)

// PickRequest asks the viewer to pick at the screen centre. The payload is
// informational; any message on the request topic triggers a pick.
type PickRequest struct {
	Source string `json:"source,omitempty"`
}

// PickMessage is published for every pick attempt.
type PickMessage struct {
	Hit    bool                 `json:"hit"`
	Result *panorama.PickResult `json:"result,omitempty"`
	TexelX float64              `json:"texel_x"`
	TexelY float64              `json:"texel_y"`
	Time   time.Time            `json:"time"`
}

// DeviceMessage is what a browser sends over /ws/device. Type is one of
// "orientation", "motion" or "pick".
type DeviceMessage struct {
	Type        string                     `json:"type"`
	Orientation *sensors.OrientationSample `json:"orientation,omitempty"`
	Motion      *sensors.MotionSample      `json:"motion,omitempty"`
}

// ViewerEvent is pushed to websocket clients.
type ViewerEvent struct {
	Type   string        `json:"type"` // frame, pick, marker, error
	Frame  *engine.Frame `json:"frame,omitempty"`
	Pick   *PickMessage  `json:"pick,omitempty"`
	Marker *marker.Event `json:"marker,omitempty"`
	Error  string        `json:"error,omitempty"`
}

func newPickMessage(res panorama.PickResult, ok bool, width, height int, now time.Time) PickMessage {
	msg := PickMessage{Hit: ok, Time: now}
	if ok {
		msg.Result = &res
		msg.TexelX, msg.TexelY = panorama.TexelCoords(res.U, res.V, width, height)
	}
	return msg
}
