// Package transport carries decoded measurements and actuator commands over
// MQTT. The JSON schemas here are shared with the host-side collector,
// alerter and dashboard tools; field names are part of the wire contract and
// must not change.
package transport

import (
	"encoding/json"
	"time"

	"github.com/airmon-data/airmon/internal/pms"
)

// Default topic layout. The device publishes data and status and listens for
// commands; responses to commands go out on their own topic.
const (
	DefaultDataTopic     = "airquality/sensor/data"
	DefaultStatusTopic   = "airquality/sensor/status"
	DefaultCommandTopic  = "airquality/sensor/command"
	DefaultResponseTopic = "airquality/sensor/response"
)

// TimestampFormat renders UTC timestamps with millisecond precision, the
// format the collector normalizes everything to.
const TimestampFormat = "2006-01-02T15:04:05.000Z"

// Measurement is the outbound sensor data message.
type Measurement struct {
	Timestamp string `json:"timestamp"`
	DeviceID  string `json:"device_id"`

	PM1CF1  uint16 `json:"pm1_0_cf1"`
	PM25CF1 uint16 `json:"pm2_5_cf1"`
	PM10CF1 uint16 `json:"pm10_cf1"`

	PM1Atm  uint16 `json:"pm1_0_atm"`
	PM25Atm uint16 `json:"pm2_5_atm"`
	PM10Atm uint16 `json:"pm10_atm"`

	Particles03  uint16 `json:"particles_03"`
	Particles05  uint16 `json:"particles_05"`
	Particles10  uint16 `json:"particles_10"`
	Particles25  uint16 `json:"particles_25"`
	Particles50  uint16 `json:"particles_50"`
	Particles100 uint16 `json:"particles_100"`

	Version   uint8 `json:"version"`
	ErrorCode uint8 `json:"error_code"`
}

// NewMeasurement builds the outbound message for a decoded record.
func NewMeasurement(deviceID string, rec pms.Record, at time.Time) Measurement {
	return Measurement{
		Timestamp: at.UTC().Format(TimestampFormat),
		DeviceID:  deviceID,

		PM1CF1:  rec.PM1CF1,
		PM25CF1: rec.PM25CF1,
		PM10CF1: rec.PM10CF1,

		PM1Atm:  rec.PM1Atm,
		PM25Atm: rec.PM25Atm,
		PM10Atm: rec.PM10Atm,

		Particles03:  rec.Particles03,
		Particles05:  rec.Particles05,
		Particles10:  rec.Particles10,
		Particles25:  rec.Particles25,
		Particles50:  rec.Particles50,
		Particles100: rec.Particles100,

		Version:   rec.Version,
		ErrorCode: rec.ErrorCode,
	}
}

// Status is the outbound device status message, emitted at startup and on
// every transport connect.
type Status struct {
	DeviceID  string `json:"device_id"`
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// Command is an inbound control message. DutyCycle and Period are pointers
// so a missing parameter is distinguishable from an explicit zero: the
// actuator-update path requires both and answers a failure response when
// either is absent.
type Command struct {
	ID        string   `json:"id"`
	Type      string   `json:"type"`
	DutyCycle *float64 `json:"duty_cycle,omitempty"`
	Period    *float64 `json:"period,omitempty"`
}

// CommandBuzzer is the actuator-update command type tag.
const CommandBuzzer = "buzzer"

// Response statuses.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Response echoes a command's identifier with the outcome of handling it.
type Response struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

// DecodeCommand parses an inbound command payload. Malformed payloads return
// an error; per the device's error taxonomy the caller drops them without a
// response.
func DecodeCommand(payload []byte) (Command, error) {
	var cmd Command
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return Command{}, err
	}
	return cmd, nil
}
