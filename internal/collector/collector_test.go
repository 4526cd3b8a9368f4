package collector

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airmon-data/airmon/internal/store"
	"github.com/airmon-data/airmon/internal/transport"
)

func TestFlushWritesChunkAndArchives(t *testing.T) {
	dir := t.TempDir()
	archive, err := store.Open(filepath.Join(dir, "archive.db"))
	require.NoError(t, err)
	defer archive.Close()

	c, err := New(filepath.Join(dir, "csv"), archive)
	require.NoError(t, err)

	c.Append(transport.Measurement{
		Timestamp: "2026-08-20T12:00:01.000Z",
		DeviceID:  "sensor-01",
		PM25Atm:   17,
	})
	c.Append(transport.Measurement{
		Timestamp: "2026-08-20T12:00:02.000Z",
		DeviceID:  "sensor-01",
		PM25Atm:   18,
	})

	path, err := c.Flush()
	require.NoError(t, err)
	assert.Equal(t, "airquality_20260820_1200_001.csv", filepath.Base(path))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3) // header + 2 records
	assert.Equal(t, "timestamp", rows[0][0])
	assert.Equal(t, "17", rows[1][6]) // pm2_5_atm column

	n, err := archive.Count()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	assert.Zero(t, c.Pending())
}

func TestFlushEmptyBufferIsNoop(t *testing.T) {
	c, err := New(t.TempDir(), nil)
	require.NoError(t, err)

	path, err := c.Flush()
	require.NoError(t, err)
	assert.Empty(t, path)
}

func TestChunkSequenceNumbersAdvance(t *testing.T) {
	c, err := New(t.TempDir(), nil)
	require.NoError(t, err)

	c.Append(transport.Measurement{Timestamp: "2026-08-20T12:00:00.000Z"})
	p1, err := c.Flush()
	require.NoError(t, err)

	c.Append(transport.Measurement{Timestamp: "2026-08-20T12:00:30.000Z"})
	p2, err := c.Flush()
	require.NoError(t, err)

	assert.NotEqual(t, p1, p2)
	assert.Contains(t, filepath.Base(p2), "_002.csv")
}
