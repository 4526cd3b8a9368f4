package transport

import (
	"encoding/json"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/airmon-data/airmon/internal/monitoring"
)

// ReconnectInterval is the fixed spacing between connection attempts while
// disconnected. There is deliberately no backoff and no retry cap: the
// device must eventually resume on its own without operator intervention.
const ReconnectInterval = 5 * time.Second

// connectTimeout bounds a single connection attempt so a dead broker costs
// one bounded stall per interval rather than hanging the loop forever.
const connectTimeout = 3 * time.Second

// MQTTConfig configures the broker session.
type MQTTConfig struct {
	BrokerURL string // e.g. "tcp://192.168.1.114:1883"
	ClientID  string
	Username  string
	Password  string
	DeviceID  string

	DataTopic     string
	StatusTopic   string
	CommandTopic  string
	ResponseTopic string
}

// withDefaults fills in the standard topic layout for any unset topic.
func (c MQTTConfig) withDefaults() MQTTConfig {
	if c.DataTopic == "" {
		c.DataTopic = DefaultDataTopic
	}
	if c.StatusTopic == "" {
		c.StatusTopic = DefaultStatusTopic
	}
	if c.CommandTopic == "" {
		c.CommandTopic = DefaultCommandTopic
	}
	if c.ResponseTopic == "" {
		c.ResponseTopic = DefaultResponseTopic
	}
	if c.ClientID == "" {
		c.ClientID = c.DeviceID
	}
	return c
}

// MQTTTransport implements Transport over an eclipse/paho session. The
// paho network machinery runs on its own goroutines, but all interaction
// with this type happens from the agent's scheduler goroutine except the
// inbound message callback, which only writes to the buffered command
// channel.
type MQTTTransport struct {
	cfg    MQTTConfig
	client mqtt.Client

	commands    chan Command
	lastAttempt time.Time
	wasUp       bool
}

// NewMQTT builds an MQTT transport. No connection is attempted until the
// first Housekeep call.
func NewMQTT(cfg MQTTConfig) *MQTTTransport {
	cfg = cfg.withDefaults()
	t := &MQTTTransport{
		cfg:      cfg,
		commands: make(chan Command, 16),
	}

	opts := mqtt.NewClientOptions().
		AddBroker(cfg.BrokerURL).
		SetClientID(cfg.ClientID).
		SetAutoReconnect(false). // reconnect cadence is owned by Housekeep
		SetConnectTimeout(connectTimeout).
		SetKeepAlive(60 * time.Second)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username).SetPassword(cfg.Password)
	}
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		monitoring.Logf("mqtt connection lost: %v", err)
	})

	t.client = mqtt.NewClient(opts)
	return t
}

// Housekeep attempts a reconnect at most once per ReconnectInterval while
// disconnected. Inbound messages are pumped by paho's own reader; nothing
// else is needed per iteration.
func (t *MQTTTransport) Housekeep(now time.Time) {
	if t.client.IsConnected() {
		t.wasUp = true
		return
	}
	if t.wasUp {
		t.wasUp = false
		monitoring.Logf("mqtt session down; retrying every %v", ReconnectInterval)
	}
	if !t.lastAttempt.IsZero() && now.Sub(t.lastAttempt) < ReconnectInterval {
		return
	}
	t.lastAttempt = now

	if err := t.connect(now); err != nil {
		monitoring.Logf("mqtt connect failed: %v", err)
	}
}

func (t *MQTTTransport) connect(now time.Time) error {
	token := t.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return fmt.Errorf("connect to %s timed out", t.cfg.BrokerURL)
	}
	if err := token.Error(); err != nil {
		return err
	}

	sub := t.client.Subscribe(t.cfg.CommandTopic, 0, t.onCommand)
	if sub.WaitTimeout(connectTimeout) && sub.Error() != nil {
		monitoring.Logf("mqtt subscribe %s failed: %v", t.cfg.CommandTopic, sub.Error())
	}

	monitoring.Logf("mqtt connected to %s", t.cfg.BrokerURL)
	if err := t.PublishStatus("connected", now); err != nil {
		monitoring.Logf("failed to publish connect status: %v", err)
	}
	return nil
}

// onCommand decodes inbound command payloads. Malformed JSON is dropped
// silently with no response; a full command channel drops the command
// rather than blocking the paho reader.
func (t *MQTTTransport) onCommand(_ mqtt.Client, msg mqtt.Message) {
	cmd, err := DecodeCommand(msg.Payload())
	if err != nil {
		return
	}
	select {
	case t.commands <- cmd:
	default:
		monitoring.Logf("command queue full; dropping command %q", cmd.ID)
	}
}

// Connected reports whether the broker session is up.
func (t *MQTTTransport) Connected() bool {
	return t.client.IsConnected()
}

func (t *MQTTTransport) publishJSON(topic string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", topic, err)
	}
	token := t.client.Publish(topic, 0, false, payload)
	if !token.WaitTimeout(connectTimeout) {
		return fmt.Errorf("publish to %s timed out", topic)
	}
	return token.Error()
}

// PublishMeasurement sends a measurement to the data topic.
func (t *MQTTTransport) PublishMeasurement(m Measurement) error {
	return t.publishJSON(t.cfg.DataTopic, m)
}

// PublishStatus sends a status message to the status topic.
func (t *MQTTTransport) PublishStatus(status string, at time.Time) error {
	return t.publishJSON(t.cfg.StatusTopic, Status{
		DeviceID:  t.cfg.DeviceID,
		Status:    status,
		Timestamp: at.UTC().Format(TimestampFormat),
	})
}

// PublishResponse answers a command on the response topic.
func (t *MQTTTransport) PublishResponse(r Response) error {
	return t.publishJSON(t.cfg.ResponseTopic, r)
}

// Commands returns the inbound command stream.
func (t *MQTTTransport) Commands() <-chan Command {
	return t.commands
}

// Close disconnects from the broker.
func (t *MQTTTransport) Close() error {
	if t.client.IsConnected() {
		t.client.Disconnect(250)
	}
	return nil
}
