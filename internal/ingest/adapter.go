package ingest

import (
	"log"
	"strconv"
	"strings"
	"sync/atomic"

	nmea "github.com/adrianmo/go-nmea"
)

// adapterQueueSize bounds each per-source queue. The source side of the
// queue never blocks: when the coordinator falls this far behind, the
// oldest-unread policy of a channel cannot apply, so the newest sample is
// dropped and counted instead of growing memory without bound.
const adapterQueueSize = 4096

// Adapter turns one LineSource into a stream of parsed float values. It runs
// in its own goroutine; an I/O error or end-of-stream ends the goroutine and
// closes Out without touching the coordinator.
type Adapter struct {
	Source string
	Out    chan float64

	src      LineSource
	nmeaOK   bool
	done     chan struct{}
	produced atomic.Uint64
	dropped  atomic.Uint64
}

// NewAdapter builds the text-mode adapter used for the worker's stdout pipe.
func NewAdapter(source string, src LineSource) *Adapter {
	return &Adapter{
		Source: source,
		Out:    make(chan float64, adapterQueueSize),
		src:    src,
		done:   make(chan struct{}),
	}
}

// NewSerialAdapter builds the permissive byte-mode adapter for the serial
// device. It additionally understands NMEA $--MWV wind sentences, since
// several bench anemometers report over NMEA.
func NewSerialAdapter(source string, src LineSource) *Adapter {
	a := NewAdapter(source, src)
	a.nmeaOK = true
	return a
}

// Start launches the read loop.
func (a *Adapter) Start() {
	go a.run()
}

// Done is closed once the read loop has consumed its source to the end and
// Out is closed. For a process pipe this means the stream hit EOF, so the
// process can be reaped without discarding buffered output.
func (a *Adapter) Done() <-chan struct{} { return a.done }

func (a *Adapter) run() {
	defer func() {
		close(a.Out)
		close(a.done)
	}()
	for {
		line, err := a.src.ReadLine()
		if err != nil {
			log.Printf("%s: stream finished: %v", a.Source, err)
			return
		}
		v, ok := ParseValue(string(line), a.nmeaOK)
		if !ok {
			continue
		}
		select {
		case a.Out <- v:
			a.produced.Add(1)
		default:
			a.dropped.Add(1)
		}
	}
}

// Stats reports how many samples were enqueued and how many were dropped on
// a full queue.
func (a *Adapter) Stats() (produced, dropped uint64) {
	return a.produced.Load(), a.dropped.Load()
}

// ParseValue extracts the numeric measurement from one raw line. Invalid
// byte sequences are dropped rather than rejected; surplus comma-separated
// fields are discarded, keeping only the last as the value. Lines that do
// not yield a float produce (0, false) and are never fatal.
func ParseValue(line string, allowNMEA bool) (float64, bool) {
	s := strings.TrimSpace(strings.ToValidUTF8(line, ""))
	if s == "" {
		return 0, false
	}

	if allowNMEA && strings.HasPrefix(s, "$") {
		if v, ok := parseMWV(s); ok {
			return v, true
		}
		// Not a usable wind sentence; fall through to the generic form in
		// case the device prefixes plain values with '$'.
	}

	parts := strings.Split(s, ",")
	v, err := strconv.ParseFloat(strings.TrimSpace(parts[len(parts)-1]), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

// parseMWV extracts wind speed in m/s from an MWV sentence.
func parseMWV(s string) (float64, bool) {
	sentence, err := nmea.Parse(s)
	if err != nil {
		return 0, false
	}
	mwv, ok := sentence.(nmea.MWV)
	if !ok || !mwv.StatusValid {
		return 0, false
	}
	switch mwv.WindSpeedUnit {
	case "M":
		return mwv.WindSpeed, true
	case "N":
		return mwv.WindSpeed * 0.514444, true
	case "K":
		return mwv.WindSpeed / 3.6, true
	}
	return 0, false
}
