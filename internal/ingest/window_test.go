package ingest

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/relabs-tech/windtunnel_calibrator/internal/sample"
)

func TestWindowEvictsOldest(t *testing.T) {
	w := NewWindow(3)
	for i := 1; i <= 5; i++ {
		w.Push(sample.Sample{Value: float64(i)})
	}

	snap := w.Snapshot()
	assert.Equal(t, 3, w.Len())
	assert.Equal(t, 3.0, snap[0].Value)
	assert.Equal(t, 5.0, snap[2].Value)
}

func TestWindowSnapshotIsCopy(t *testing.T) {
	w := NewWindow(2)
	w.Push(sample.Sample{Value: 1})
	snap := w.Snapshot()
	w.Push(sample.Sample{Value: 2})
	w.Push(sample.Sample{Value: 3})

	assert.Equal(t, 1.0, snap[0].Value)
	assert.Len(t, snap, 1)
}
