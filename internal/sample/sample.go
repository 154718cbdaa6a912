package sample

import "time"

// Source tags used in log rows and telemetry topics.
const (
	SourceVision      = "vision_sensor"
	SourceGroundTruth = "ground_truth_serial"
)

// Sample is one parsed reading plus its capture time. The timestamp is
// assigned by the ingestion coordinator when the sample is drained, not by
// the adapter that parsed it.
type Sample struct {
	Source string    `json:"source"`
	Time   time.Time `json:"time"`
	Value  float64   `json:"value"`
}

// LiveSnapshot is what the coordinator publishes on each display refresh:
// the sliding window of recent samples for one source.
type LiveSnapshot struct {
	Source string   `json:"source"`
	Count  uint64   `json:"count"` // total samples drained so far
	Latest float64  `json:"latest"`
	Window []Sample `json:"window"`
}
