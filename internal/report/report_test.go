package report

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airmon-data/airmon/internal/transport"
)

func series(pm25 ...uint16) []transport.Measurement {
	ms := make([]transport.Measurement, len(pm25))
	for i, v := range pm25 {
		ms[i] = transport.Measurement{
			Timestamp: "2026-08-20T12:00:00.000Z",
			PM25Atm:   v,
			PM10Atm:   v * 2,
		}
	}
	return ms
}

func TestSummarize(t *testing.T) {
	s := Summarize(series(10, 20, 30, 40))
	assert.Equal(t, 4, s.Count)
	assert.InDelta(t, 25, s.MeanPM25, 1e-9)
	assert.InDelta(t, 50, s.MeanPM10, 1e-9)
	assert.Equal(t, 40.0, s.MaxPM25)
	assert.Equal(t, 80.0, s.MaxPM10)
}

func TestSummarizeEmpty(t *testing.T) {
	s := Summarize(nil)
	assert.Zero(t, s.Count)
	assert.Zero(t, s.MeanPM25)
}

func TestRenderHTML(t *testing.T) {
	var buf bytes.Buffer
	err := RenderHTML(&buf, series(5, 15, 25), "balcony air quality")
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "balcony air quality")
	assert.Contains(t, out, "PM2.5 (atm)")
	assert.Contains(t, out, "PM10 (atm)")
}
