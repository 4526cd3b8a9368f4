// Command airmon is the device agent: it decodes the particulate sensor's
// serial stream, publishes measurements over MQTT, and drives the alert
// buzzer and status LED from inbound duty-cycle commands.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/airmon-data/airmon/internal/actuator"
	"github.com/airmon-data/airmon/internal/agent"
	"github.com/airmon-data/airmon/internal/config"
	"github.com/airmon-data/airmon/internal/pms"
	"github.com/airmon-data/airmon/internal/serialport"
	"github.com/airmon-data/airmon/internal/transport"
	"github.com/airmon-data/airmon/internal/version"
)

var (
	configPath = flag.String("config", "", "Path to JSON config file (defaults apply when empty)")
	serialPath = flag.String("serial", "", "Serial port override (e.g. /dev/serial0)")
	brokerURL  = flag.String("broker", "", "MQTT broker URL override (e.g. tcp://192.168.1.114:1883)")
	deviceID   = flag.String("device", "", "Device identifier override")
	devMode    = flag.Bool("dev", false, "Replay a canned sensor frame instead of opening real hardware")
	resyncFix  = flag.Bool("resync-fix", false, "Use the corrected marker resynchronization instead of the firmware-observed behavior")
)

func main() {
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}
	}
	if *serialPath != "" {
		cfg.SerialPath = *serialPath
	}
	if *brokerURL != "" {
		cfg.BrokerURL = *brokerURL
	}
	if *deviceID != "" {
		cfg.DeviceID = *deviceID
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid configuration: %v", err)
	}

	var (
		port   serialport.Porter
		driver actuator.Driver
	)
	if *devMode {
		port = serialport.NewReplayPort(devFrame(), time.Second)
		driver = actuator.NopDriver{}
		log.Print("dev mode: replaying canned frames, actuator output discarded")
	} else {
		var err error
		port, err = serialport.Open(cfg.SerialPath, serialport.Options{BaudRate: pms.BaudRate})
		if err != nil {
			log.Fatalf("failed to open sensor port: %v", err)
		}
		driver, err = actuator.NewGPIODriver(cfg.BuzzerPin, cfg.LEDPin)
		if err != nil {
			log.Fatalf("failed to open gpio driver: %v", err)
		}
	}
	defer port.Close()
	defer driver.Close()

	trans := transport.NewMQTT(cfg.MQTT())
	defer trans.Close()

	policy := pms.DropMismatchedByte
	if *resyncFix {
		policy = pms.ReconsiderMismatchedByte
	}

	a := agent.New(agent.Config{
		Port:         port,
		Actuator:     actuator.New(driver),
		Trans:        trans,
		DeviceID:     cfg.DeviceID,
		ResyncPolicy: policy,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("airmon %s (%s) starting: device=%s sensor=%s broker=%s",
		version.Version, version.GitSHA, cfg.DeviceID, cfg.SerialPath, cfg.BrokerURL)
	if err := a.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatalf("agent loop failed: %v", err)
	}
	log.Print("airmon stopped")
}

// devFrame builds one plausible sensor frame for dev-mode replay.
func devFrame() []byte {
	b := make([]byte, pms.FrameLen)
	b[0] = pms.Marker1
	b[1] = pms.Marker2
	b[3] = 28
	for i, v := range []uint16{8, 14, 21, 7, 13, 19, 1320, 410, 92, 14, 4, 1} {
		b[4+2*i] = byte(v >> 8)
		b[5+2*i] = byte(v)
	}
	b[28] = 0x97
	sum := pms.Checksum(b)
	b[30] = byte(sum >> 8)
	b[31] = byte(sum)
	return b
}
