package transport

import "time"

// Transport is the messaging collaborator as seen from the agent's scheduler
// loop. Implementations may block; the loop tolerates a stalled call at the
// cost of actuator jitter, by design.
type Transport interface {
	// Housekeep runs once per scheduler iteration. It attempts reconnection
	// on a fixed interval when disconnected and otherwise keeps the session
	// alive. It never returns an error: disconnection is not fatal and is
	// retried indefinitely.
	Housekeep(now time.Time)

	// Connected reports whether the session is currently usable.
	Connected() bool

	// PublishMeasurement sends a decoded record downstream.
	PublishMeasurement(m Measurement) error

	// PublishStatus sends a device status message.
	PublishStatus(status string, at time.Time) error

	// PublishResponse answers an inbound command.
	PublishResponse(r Response) error

	// Commands returns the stream of decoded inbound commands. Malformed
	// payloads never appear here; they are dropped at the session layer
	// with no response.
	Commands() <-chan Command

	// Close tears the session down.
	Close() error
}
