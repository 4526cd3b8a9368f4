// Package collector buffers measurements arriving over the message bus and
// flushes them on a fixed interval to timestamped CSV chunk files and the
// sqlite archive.
package collector

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/airmon-data/airmon/internal/monitoring"
	"github.com/airmon-data/airmon/internal/store"
	"github.com/airmon-data/airmon/internal/transport"
)

// csvHeaders is the chunk file column order, matching the measurement wire
// field names.
var csvHeaders = []string{
	"timestamp", "device_id", "pm1_0_cf1", "pm2_5_cf1", "pm10_cf1",
	"pm1_0_atm", "pm2_5_atm", "pm10_atm", "particles_03", "particles_05",
	"particles_10", "particles_25", "particles_50", "particles_100",
	"version", "error_code",
}

// Collector accumulates measurements between flushes. It is safe for
// concurrent Append from the transport callback while Flush runs on the
// flush ticker goroutine.
type Collector struct {
	mu      sync.Mutex
	buffer  []transport.Measurement
	counter int

	dir     string
	archive *store.Store
}

// New returns a Collector writing CSV chunks under dir and archiving into
// the given store. The store may be nil to disable archiving.
func New(dir string, archive *store.Store) (*Collector, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return &Collector{dir: dir, archive: archive, counter: 1}, nil
}

// Append buffers one measurement.
func (c *Collector) Append(m transport.Measurement) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.buffer = append(c.buffer, m)
	if len(c.buffer)%100 == 0 {
		monitoring.Logf("buffer: %d | PM2.5: %d µg/m³ | time: %s",
			len(c.buffer), m.PM25Atm, m.Timestamp)
	}
}

// Pending returns the number of buffered measurements.
func (c *Collector) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.buffer)
}

// Flush writes all buffered measurements to a new CSV chunk and the archive,
// then clears the buffer. An empty buffer flushes to nothing. The chunk
// filename carries the first record's timestamp plus a sequence number so
// multiple flushes within the same minute stay distinct.
func (c *Collector) Flush() (string, error) {
	c.mu.Lock()
	batch := c.buffer
	c.buffer = nil
	seq := c.counter
	c.counter++
	c.mu.Unlock()

	if len(batch) == 0 {
		return "", nil
	}

	stamp := time.Now().UTC()
	if t, err := time.Parse(transport.TimestampFormat, batch[0].Timestamp); err == nil {
		stamp = t
	}
	name := fmt.Sprintf("airquality_%s_%03d.csv", stamp.Format("20060102_1504"), seq)
	path := filepath.Join(c.dir, name)

	if err := writeChunk(path, batch); err != nil {
		// put the batch back so records are not lost on a failed flush
		c.mu.Lock()
		c.buffer = append(batch, c.buffer...)
		c.mu.Unlock()
		return "", err
	}

	if c.archive != nil {
		if err := c.archive.InsertBatch(batch); err != nil {
			monitoring.Logf("failed to archive %d measurements: %v", len(batch), err)
		}
	}

	monitoring.Logf("saved %d records to %s", len(batch), path)
	return path, nil
}

func writeChunk(path string, batch []transport.Measurement) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chunk file: %w", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(csvHeaders); err != nil {
		return err
	}
	for _, m := range batch {
		row := []string{
			m.Timestamp, m.DeviceID,
			itoa(m.PM1CF1), itoa(m.PM25CF1), itoa(m.PM10CF1),
			itoa(m.PM1Atm), itoa(m.PM25Atm), itoa(m.PM10Atm),
			itoa(m.Particles03), itoa(m.Particles05), itoa(m.Particles10),
			itoa(m.Particles25), itoa(m.Particles50), itoa(m.Particles100),
			strconv.Itoa(int(m.Version)), strconv.Itoa(int(m.ErrorCode)),
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func itoa(v uint16) string {
	return strconv.Itoa(int(v))
}
