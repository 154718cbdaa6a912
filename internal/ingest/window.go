package ingest

import "github.com/relabs-tech/windtunnel_calibrator/internal/sample"

// Window is a fixed-capacity sliding record of recent samples for the live
// display. When full, the oldest sample is evicted. Only the coordinator
// goroutine touches it.
type Window struct {
	capacity int
	samples  []sample.Sample
}

func NewWindow(capacity int) *Window {
	return &Window{capacity: capacity}
}

func (w *Window) Push(s sample.Sample) {
	if len(w.samples) == w.capacity {
		copy(w.samples, w.samples[1:])
		w.samples[len(w.samples)-1] = s
		return
	}
	w.samples = append(w.samples, s)
}

func (w *Window) Len() int { return len(w.samples) }

// Snapshot returns a copy safe to hand to display code.
func (w *Window) Snapshot() []sample.Sample {
	return append([]sample.Sample(nil), w.samples...)
}
