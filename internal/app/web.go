// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // phones on the LAN load the page from another origin
	},
}

const (
	clientQueue  = 64
	writeTimeout = 2 * time.Second
)

// hub fans viewer events out to websocket clients. Slow clients lose
// events rather than stall the frame loop.
type hub struct {
	mu      sync.Mutex
	clients map[*wsClient]struct{}
	closed  bool
	log     zerolog.Logger
}

type wsClient struct {
	conn *websocket.Conn
	send chan ViewerEvent
}

func newHub(log zerolog.Logger) *hub {
	return &hub{clients: make(map[*wsClient]struct{}), log: log}
}

func (h *hub) add(c *wsClient) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.clients[c] = struct{}{}
	return true
}

func (h *hub) remove(c *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

func (h *hub) broadcast(e ViewerEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- e:
		default:
		}
	}
}

func (h *hub) sendTo(c *wsClient, e ViewerEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c]; !ok {
		return
	}
	select {
	case c.send <- e:
	default:
	}
}

func (h *hub) close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for c := range h.clients {
		delete(h.clients, c)
		close(c.send)
	}
}

// Handler serves the JSON API, the device websocket and the static page.
func (v *Viewer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/pose", v.handlePose)
	mux.HandleFunc("/api/pick", v.handlePick)
	mux.HandleFunc("/api/markers", v.handleMarkers)
	mux.HandleFunc("/ws/device", v.handleDeviceWS)
	mux.Handle("/", http.FileServer(http.Dir(v.cfg.WebStaticDir)))
	return mux
}

func (v *Viewer) writeJSON(w http.ResponseWriter, body any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		v.log.Warn().Err(err).Msg("json encode error")
	}
}

func (v *Viewer) handlePose(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	v.writeJSON(w, v.engine.LastFrame())
}

func (v *Viewer) handlePick(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		v.writeJSON(w, v.Pick("http"))
	case http.MethodGet:
		msg, ok := v.LastPick()
		if !ok {
			http.Error(w, "no pick yet", http.StatusNotFound)
			return
		}
		v.writeJSON(w, msg)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (v *Viewer) handleMarkers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	v.writeJSON(w, v.registry.Attached())
}

// handleDeviceWS bridges a browser: it reads deviceorientation,
// devicemotion and pick messages and streams viewer events back.
func (v *Viewer) handleDeviceWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		v.log.Warn().Err(err).Msg("websocket upgrade error")
		return
	}
	defer conn.Close()

	c := &wsClient{conn: conn, send: make(chan ViewerEvent, clientQueue)}
	if !v.hub.add(c) {
		return
	}
	defer v.hub.remove(c)

	go v.writeLoop(c)

	st := v.engine.Sensors()
	for {
		var msg DeviceMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				v.log.Warn().Err(err).Msg("websocket read error")
			}
			return
		}

		switch msg.Type {
		case "orientation":
			if msg.Orientation != nil {
				st.OnOrientation(*msg.Orientation)
			}
		case "motion":
			if msg.Motion != nil {
				st.OnMotion(*msg.Motion)
			}
		case "pick":
			v.Pick("websocket")
		default:
			v.hub.sendTo(c, ViewerEvent{Type: "error", Error: "unknown message type " + msg.Type})
		}
	}
}

func (v *Viewer) writeLoop(c *wsClient) {
	for e := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteJSON(e); err != nil {
			v.log.Debug().Err(err).Msg("websocket write error")
			return
		}
	}
}
