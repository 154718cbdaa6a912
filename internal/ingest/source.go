// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package ingest

import (
	"bufio"
	"fmt"
	"io"

	serial "github.com/jacobsa/go-serial/serial"
)

// LineSource is one line-oriented byte source: a spawned process pipe or a
// serial link. ReadLine blocks until a full line is available, the source
// ends (io.EOF), or a read error occurs.
type LineSource interface {
	ReadLine() ([]byte, error)
	Close() error
}

// PipeSource reads newline-terminated text from a process pipe.
type PipeSource struct {
	r      *bufio.Reader
	closer io.Closer
}

// NewPipeSource wraps a reader, typically the worker's stdout pipe.
func NewPipeSource(rc io.ReadCloser) *PipeSource {
	return &PipeSource{r: bufio.NewReader(rc), closer: rc}
}

func (p *PipeSource) ReadLine() ([]byte, error) {
	line, err := p.r.ReadBytes('\n')
	if len(line) > 0 {
		return line, nil
	}
	return nil, err
}

func (p *PipeSource) Close() error { return p.closer.Close() }

// SerialSource reads newline-terminated bytes from a serial port. The port
// is opened with a per-read inter-character timeout so the reader goroutine
// stays live and notices a closed port; the timeout carries no data meaning.
type SerialSource struct {
	port io.ReadWriteCloser
	buf  []byte
	rd   []byte
}

// OpenSerialSource opens the ground-truth device.
func OpenSerialSource(portName string, baudRate uint) (*SerialSource, error) {
	opts := serial.OpenOptions{
		PortName:              portName,
		BaudRate:              baudRate,
		DataBits:              8,
		StopBits:              1,
		ParityMode:            serial.PARITY_NONE,
		MinimumReadSize:       0,
		InterCharacterTimeout: 1000,
	}
	port, err := serial.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("serial: open %s at %d baud: %w", portName, baudRate, err)
	}
	return &SerialSource{port: port, rd: make([]byte, 256)}, nil
}

func (s *SerialSource) ReadLine() ([]byte, error) {
	for {
		// Look for a complete line in what we have buffered already.
		for i, b := range s.buf {
			if b == '\n' {
				line := append([]byte(nil), s.buf[:i+1]...)
				s.buf = s.buf[i+1:]
				return line, nil
			}
		}

		n, err := s.port.Read(s.rd)
		if n > 0 {
			s.buf = append(s.buf, s.rd[:n]...)
			continue
		}
		if err != nil {
			return nil, err
		}
		// Zero-byte read: the inter-character timeout fired with the line
		// still incomplete. Keep polling.
	}
}

func (s *SerialSource) Close() error { return s.port.Close() }
