package datalog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteReadRoundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.csv")
	w, err := NewWriter(path)
	require.NoError(t, err)

	base := time.Date(2026, 8, 28, 12, 0, 0, 123456789, time.UTC)
	require.NoError(t, w.Append(Row{Time: base, Source: "vision_sensor", Value: 1.23456}))
	require.NoError(t, w.Append(Row{Time: base.Add(time.Second), Source: "ground_truth_serial", Value: -2.5}))
	assert.Equal(t, uint64(2), w.Rows())
	require.NoError(t, w.Close())

	rows, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, "vision_sensor", rows[0].Source)
	assert.InDelta(t, 1.2346, rows[0].Value, 1e-9) // 4 decimal places on disk
	assert.True(t, rows[0].Time.Equal(base))
	assert.Equal(t, "ground_truth_serial", rows[1].Source)
}

func TestWriterHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.csv")
	w, err := NewWriter(path)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "timestamp,source,measurement\n"))
}

func TestReadFileEpochTimestamps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.csv")
	content := "timestamp,source,measurement\n" +
		"1700000000.5,vision_sensor,3.0000\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	rows, err := ReadFile(path)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(1700000000), rows[0].Time.Unix())
	assert.Equal(t, 3.0, rows[0].Value)
}

func TestReadFileRejectsMalformedRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "log.csv")
	content := "timestamp,source,measurement\n" +
		"not-a-time,vision_sensor,1.0\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := ReadFile(path)
	assert.Error(t, err)
}
