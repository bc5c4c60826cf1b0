// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package sensors

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	nmea "github.com/adrianmo/go-nmea"
	serial "github.com/jacobsa/go-serial/serial"
)

// NMEASource reads heading sensors that speak NMEA 0183 (gyrocompasses,
// marine AHRS units). HDT headings become alpha and ROT rates become the
// gamma rate. Other sentences are ignored.
type NMEASource struct {
	reader *bufio.Reader
	closer io.Closer
}

// NewNMEASource reads sentences from r.
func NewNMEASource(r io.Reader) *NMEASource {
	s := &NMEASource{reader: bufio.NewReader(r)}
	if c, ok := r.(io.Closer); ok {
		s.closer = c
	}
	return s
}

// OpenNMEASource opens a serial port at 8N1 and reads sentences from it.
func OpenNMEASource(portName string, baudRate int) (*NMEASource, error) {
	port, err := serial.Open(serial.OpenOptions{
		PortName:              portName,
		BaudRate:              uint(baudRate),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", portName, err)
	}
	return NewNMEASource(port), nil
}

// Close releases the underlying port, if any.
func (s *NMEASource) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer.Close()
}

// Next blocks until one line has been read. Lines that are not a usable
// HDT or ROT sentence yield ErrNoData.
func (s *NMEASource) Next() (Reading, error) {
	line, err := s.reader.ReadString('\n')
	if err != nil && (line == "" || err != io.EOF) {
		return Reading{}, err
	}

	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "$") {
		return Reading{}, ErrNoData
	}

	sentence, err := nmea.Parse(line)
	if err != nil {
		return Reading{}, fmt.Errorf("%w: %v", ErrNoData, err)
	}

	switch sentence.DataType() {
	case nmea.TypeHDT:
		m := sentence.(nmea.HDT)
		return Reading{Orientation: &OrientationSample{Alpha: m.Heading}}, nil

	case nmea.TypeROT:
		m := sentence.(nmea.ROT)
		if !m.Valid {
			return Reading{}, ErrNoData
		}
		// ROT is degrees per minute
		return Reading{Motion: &MotionSample{GRate: m.RateOfTurn / 60}}, nil

	default:
		return Reading{}, ErrNoData
	}
}
