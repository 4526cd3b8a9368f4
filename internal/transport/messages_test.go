package transport

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/airmon-data/airmon/internal/pms"
)

func TestMeasurementWireFieldNames(t *testing.T) {
	at := time.Date(2026, 3, 14, 9, 26, 53, 589*int(time.Millisecond), time.UTC)
	m := NewMeasurement("sensor-01", pms.Record{PM25Atm: 17, Particles03: 4200, Version: 0x97}, at)

	payload, err := json.Marshal(m)
	require.NoError(t, err)

	// The collector and dashboard key on these exact names.
	var raw map[string]any
	require.NoError(t, json.Unmarshal(payload, &raw))
	for _, key := range []string{
		"timestamp", "device_id",
		"pm1_0_cf1", "pm2_5_cf1", "pm10_cf1",
		"pm1_0_atm", "pm2_5_atm", "pm10_atm",
		"particles_03", "particles_05", "particles_10",
		"particles_25", "particles_50", "particles_100",
		"version", "error_code",
	} {
		assert.Contains(t, raw, key)
	}
	assert.Equal(t, "2026-03-14T09:26:53.589Z", raw["timestamp"])
	assert.Equal(t, float64(17), raw["pm2_5_atm"])
}

func TestDecodeCommand(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		wantErr bool
		check   func(t *testing.T, cmd Command)
	}{
		{
			name:    "complete buzzer command",
			payload: `{"id":"alerter_1712","type":"buzzer","duty_cycle":0.2,"period":1.0}`,
			check: func(t *testing.T, cmd Command) {
				assert.Equal(t, CommandBuzzer, cmd.Type)
				require.NotNil(t, cmd.DutyCycle)
				assert.Equal(t, 0.2, *cmd.DutyCycle)
				require.NotNil(t, cmd.Period)
				assert.Equal(t, 1.0, *cmd.Period)
			},
		},
		{
			name:    "missing period is decodable but nil",
			payload: `{"id":"x","type":"buzzer","duty_cycle":0.5}`,
			check: func(t *testing.T, cmd Command) {
				assert.Nil(t, cmd.Period)
				require.NotNil(t, cmd.DutyCycle)
			},
		},
		{
			name:    "explicit zero duty is present, not missing",
			payload: `{"id":"x","type":"buzzer","duty_cycle":0,"period":1}`,
			check: func(t *testing.T, cmd Command) {
				require.NotNil(t, cmd.DutyCycle)
				assert.Equal(t, 0.0, *cmd.DutyCycle)
			},
		},
		{
			name:    "malformed payload",
			payload: `{"id":"x","type":`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, err := DecodeCommand([]byte(tt.payload))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			tt.check(t, cmd)
		})
	}
}
