// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"context"
	"fmt"
	"image"
	"sync"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/panorama_viewer/internal/config"
	"github.com/relabs-tech/panorama_viewer/internal/engine"
	"github.com/relabs-tech/panorama_viewer/internal/logging"
)

const (
	oledWidth  = 128
	oledHeight = 64
)

// DisplayData holds the latest viewer output for the OLEDs.
type DisplayData struct {
	mu sync.RWMutex

	frame     engine.Frame
	haveFrame bool

	pick     PickMessage
	havePick bool
	picks    int
}

func (d *DisplayData) setFrame(fr engine.Frame) {
	d.mu.Lock()
	d.frame = fr
	d.haveFrame = true
	d.mu.Unlock()
}

func (d *DisplayData) setPick(p PickMessage) {
	d.mu.Lock()
	d.pick = p
	d.havePick = true
	d.picks++
	d.mu.Unlock()
}

type displaySnapshot struct {
	frame     engine.Frame
	haveFrame bool
	pick      PickMessage
	havePick  bool
	picks     int
}

func (d *DisplayData) snapshot() displaySnapshot {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return displaySnapshot{
		frame:     d.frame,
		haveFrame: d.haveFrame,
		pick:      d.pick,
		havePick:  d.havePick,
		picks:     d.picks,
	}
}

func newCanvas() (*image1bit.VerticalLSB, *font.Drawer) {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, oledWidth, oledHeight))
	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	return img, drawer
}

func drawLines(d *font.Drawer, lines ...string) {
	for i, l := range lines {
		d.Dot = fixed.P(0, 13*(i+1))
		d.DrawString(l)
	}
}

// renderPose draws the camera pose for the left display.
func renderPose(s displaySnapshot) *image1bit.VerticalLSB {
	img, d := newCanvas()
	if !s.haveFrame {
		drawLines(d, "", "Camera pose", "Waiting...")
		return img
	}
	p := s.frame.Pose
	drawLines(d,
		fmt.Sprintf("P:%6.1f Y:%6.1f", p.Pitch, p.Yaw),
		fmt.Sprintf("Pano: %7.1f", p.PanoramaRoll),
		fmt.Sprintf("Pos:  %7.2f", p.Position),
		fmt.Sprintf("FOV:  %7.1f", p.FOV),
	)
	return img
}

// renderPick draws the last pick and the live marker count for the right
// display.
func renderPick(s displaySnapshot) *image1bit.VerticalLSB {
	img, d := newCanvas()
	markers := fmt.Sprintf("Markers: %d", s.frame.Markers)
	switch {
	case !s.havePick:
		drawLines(d, "", "Last pick", "None yet", markers)
	case !s.pick.Hit || s.pick.Result == nil:
		drawLines(d, fmt.Sprintf("Pick #%d", s.picks), "miss", "", markers)
	default:
		r := s.pick.Result
		drawLines(d,
			fmt.Sprintf("Pick #%d", s.picks),
			fmt.Sprintf("u=%.3f v=%.3f", r.U, r.V),
			fmt.Sprintf("px %4.0f,%4.0f", s.pick.TexelX, s.pick.TexelY),
			markers,
		)
	}
	return img
}

func renderSplash(lines ...string) *image1bit.VerticalLSB {
	img, d := newCanvas()
	drawLines(d, lines...)
	return img
}

// addrBus pins every transaction to one device address so that a second
// panel strapped to 0x3D can be driven by the stock 0x3C driver.
type addrBus struct {
	i2c.Bus
	addr uint16
}

func (b *addrBus) Tx(_ uint16, w, r []byte) error {
	return b.Bus.Tx(b.addr, w, r)
}

func openDisplay(bus i2c.Bus, addr uint16) (*ssd1306.Dev, error) {
	opts := ssd1306.DefaultOpts
	dev, err := ssd1306.NewI2C(&addrBus{Bus: bus, addr: addr}, &opts)
	if err != nil {
		return nil, fmt.Errorf("init display at 0x%02X: %w", addr, err)
	}
	return dev, nil
}

func show(dev *ssd1306.Dev, img *image1bit.VerticalLSB) error {
	return dev.Draw(dev.Bounds(), img, image.Point{})
}

// RunDisplay mirrors the viewer on two SSD1306 OLEDs: the pose on the
// left, picks and markers on the right.
func RunDisplay(ctx context.Context) error {
	cfg := config.Get()
	log := logging.For("display")

	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	bus, err := i2creg.Open(cfg.DisplayI2CBus)
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	left, err := openDisplay(bus, cfg.DisplayLeftI2CAddr)
	if err != nil {
		return err
	}
	right, err := openDisplay(bus, cfg.DisplayRightI2CAddr)
	if err != nil {
		return err
	}
	log.Info().
		Uint16("left", cfg.DisplayLeftI2CAddr).
		Uint16("right", cfg.DisplayRightI2CAddr).
		Msg("displays initialized")

	if err := show(left, renderSplash("", "  Panorama", "  viewer")); err != nil {
		log.Warn().Err(err).Msg("left splash")
	}
	if err := show(right, renderSplash("", "  Waiting for", "  broker")); err != nil {
		log.Warn().Err(err).Msg("right splash")
	}

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDDisplay, log)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	data := &DisplayData{}
	if err := subscribeJSON(client, cfg.TopicPose, log, data.setFrame); err != nil {
		return err
	}
	if err := subscribeJSON(client, cfg.TopicPickResult, log, data.setPick); err != nil {
		return err
	}

	ticker := time.NewTicker(time.Duration(cfg.DisplayUpdateInterval) * time.Millisecond)
	defer ticker.Stop()
	log.Info().Msg("starting update loop")

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		s := data.snapshot()
		if err := show(left, renderPose(s)); err != nil {
			log.Warn().Err(err).Msg("left display update")
		}
		if err := show(right, renderPick(s)); err != nil {
			log.Warn().Err(err).Msg("right display update")
		}
	}
}
