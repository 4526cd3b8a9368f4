// Package config loads the agent's runtime configuration from a JSON file.
// Fields omitted from the file keep their defaults, so partial configs are
// safe; flag overrides are applied by the callers on top of the loaded
// values.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/airmon-data/airmon/internal/transport"
)

// Config holds everything the device agent needs to come up. The sensor link
// parameters (9600 8N1, frame geometry, marker bytes) are fixed properties
// of the hardware and intentionally absent here.
type Config struct {
	DeviceID   string `json:"device_id"`
	SerialPath string `json:"serial_path"`

	BrokerURL string `json:"broker_url"`
	Username  string `json:"username,omitempty"`
	Password  string `json:"password,omitempty"`

	DataTopic     string `json:"data_topic"`
	StatusTopic   string `json:"status_topic"`
	CommandTopic  string `json:"command_topic"`
	ResponseTopic string `json:"response_topic"`

	// GPIO pin names for the indicator pair, e.g. "GPIO18".
	BuzzerPin string `json:"buzzer_pin"`
	LEDPin    string `json:"led_pin"`
}

// Default returns the stock configuration for a Raspberry Pi deployment.
func Default() Config {
	return Config{
		DeviceID:   "airmon-01",
		SerialPath: "/dev/serial0",
		BrokerURL:  "tcp://localhost:1883",

		DataTopic:     transport.DefaultDataTopic,
		StatusTopic:   transport.DefaultStatusTopic,
		CommandTopic:  transport.DefaultCommandTopic,
		ResponseTopic: transport.DefaultResponseTopic,

		BuzzerPin: "GPIO18",
		LEDPin:    "GPIO23",
	}
}

// Load reads a JSON config file on top of the defaults. The file must have a
// .json extension and stay under 1MB.
func Load(path string) (Config, error) {
	cfg := Default()

	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return cfg, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	info, err := os.Stat(cleanPath)
	if err != nil {
		return cfg, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 << 20
	if info.Size() > maxFileSize {
		return cfg, fmt.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate rejects configurations the agent cannot start with.
func (c Config) Validate() error {
	if c.DeviceID == "" {
		return fmt.Errorf("device_id must not be empty")
	}
	if c.SerialPath == "" {
		return fmt.Errorf("serial_path must not be empty")
	}
	if c.BrokerURL == "" {
		return fmt.Errorf("broker_url must not be empty")
	}
	for name, topic := range map[string]string{
		"data_topic":     c.DataTopic,
		"status_topic":   c.StatusTopic,
		"command_topic":  c.CommandTopic,
		"response_topic": c.ResponseTopic,
	} {
		if topic == "" {
			return fmt.Errorf("%s must not be empty", name)
		}
	}
	if c.BuzzerPin == "" || c.LEDPin == "" {
		return fmt.Errorf("buzzer_pin and led_pin must not be empty")
	}
	return nil
}

// MQTT derives the transport configuration.
func (c Config) MQTT() transport.MQTTConfig {
	return transport.MQTTConfig{
		BrokerURL: c.BrokerURL,
		ClientID:  c.DeviceID,
		Username:  c.Username,
		Password:  c.Password,
		DeviceID:  c.DeviceID,

		DataTopic:     c.DataTopic,
		StatusTopic:   c.StatusTopic,
		CommandTopic:  c.CommandTopic,
		ResponseTopic: c.ResponseTopic,
	}
}
