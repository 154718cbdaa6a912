package ingest

import (
	"fmt"
	"time"

	"github.com/relabs-tech/windtunnel_calibrator/internal/datalog"
	"github.com/relabs-tech/windtunnel_calibrator/internal/sample"
)

const (
	defaultWindowSize = 500
	refreshInterval   = 200 * time.Millisecond
	pollSleep         = time.Millisecond
)

// RefreshFunc receives the current per-source live snapshots at most once
// per refresh interval. It runs on the coordinator goroutine.
type RefreshFunc func(snapshots []sample.LiveSnapshot)

// Coordinator drains all source adapters fairly, stamps each sample with its
// own capture-time clock, and appends one log row per sample in drain order.
// Drain order may interleave sources independently of their true relative
// timestamps; log readers sort by the timestamp column.
type Coordinator struct {
	Log       *datalog.Writer
	OnRefresh RefreshFunc // nil disables the live display

	// Now is the capture clock; tests may replace it.
	Now func() time.Time

	adapters []*Adapter
	windows  map[string]*Window
	counts   map[string]uint64
}

func NewCoordinator(logw *datalog.Writer, adapters ...*Adapter) *Coordinator {
	return &Coordinator{
		Log:      logw,
		Now:      time.Now,
		adapters: adapters,
		windows:  make(map[string]*Window),
		counts:   make(map[string]uint64),
	}
}

// Run polls every source once per iteration until stop is closed or every
// adapter has finished, then drains whatever is left in the queues. A log
// write failure aborts the loop; the caller runs the same shutdown sequence
// either way.
func (c *Coordinator) Run(stop <-chan struct{}) error {
	open := make([]*Adapter, len(c.adapters))
	copy(open, c.adapters)

	lastRefresh := c.Now()
	newData := false

	for {
		select {
		case <-stop:
			return c.drain(open)
		default:
		}

		anyOpen := false
		for i, a := range open {
			if a == nil {
				continue
			}
			select {
			case v, ok := <-a.Out:
				if !ok {
					open[i] = nil
					continue
				}
				anyOpen = true
				if err := c.record(a.Source, v); err != nil {
					return err
				}
				newData = true
			default:
				anyOpen = true
			}
		}
		if !anyOpen {
			return nil
		}

		if c.OnRefresh != nil && newData {
			if now := c.Now(); now.Sub(lastRefresh) > refreshInterval {
				lastRefresh = now
				newData = false
				c.OnRefresh(c.snapshots())
			}
		}

		time.Sleep(pollSleep)
	}
}

// drain empties each queue once after a stop request so parsed samples are
// not lost between the stop signal and shutdown.
func (c *Coordinator) drain(open []*Adapter) error {
	for _, a := range open {
		if a == nil {
			continue
		}
		for done := false; !done; {
			select {
			case v, ok := <-a.Out:
				if !ok {
					done = true
					continue
				}
				if err := c.record(a.Source, v); err != nil {
					return err
				}
			default:
				done = true
			}
		}
	}
	return nil
}

func (c *Coordinator) record(source string, v float64) error {
	s := sample.Sample{Source: source, Time: c.Now(), Value: v}
	if err := c.Log.Append(datalog.Row{Time: s.Time, Source: s.Source, Value: s.Value}); err != nil {
		return fmt.Errorf("coordinator: %w", err)
	}
	c.counts[source]++
	if c.OnRefresh != nil {
		w := c.windows[source]
		if w == nil {
			w = NewWindow(defaultWindowSize)
			c.windows[source] = w
		}
		w.Push(s)
	}
	return nil
}

func (c *Coordinator) snapshots() []sample.LiveSnapshot {
	out := make([]sample.LiveSnapshot, 0, len(c.adapters))
	for _, a := range c.adapters {
		w := c.windows[a.Source]
		if w == nil || w.Len() == 0 {
			continue
		}
		win := w.Snapshot()
		out = append(out, sample.LiveSnapshot{
			Source: a.Source,
			Count:  c.counts[a.Source],
			Latest: win[len(win)-1].Value,
			Window: win,
		})
	}
	return out
}
