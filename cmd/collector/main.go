// Command collector subscribes to the sensor data topic and archives
// measurements in timestamped CSV chunks plus a sqlite database.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/airmon-data/airmon/internal/collector"
	"github.com/airmon-data/airmon/internal/store"
	"github.com/airmon-data/airmon/internal/transport"
)

var (
	brokerURL   = flag.String("broker", "tcp://localhost:1883", "MQTT broker URL")
	username    = flag.String("username", "", "MQTT username (empty for no auth)")
	password    = flag.String("password", "", "MQTT password")
	dataTopic   = flag.String("data-topic", transport.DefaultDataTopic, "Topic carrying measurement messages")
	statusTopic = flag.String("status-topic", transport.DefaultStatusTopic, "Topic carrying device status messages")
	dataDir     = flag.String("data-dir", "data/csv", "Directory for CSV chunk files")
	archivePath = flag.String("archive", "data/airquality.db", "sqlite archive path (empty to disable)")
	interval    = flag.Duration("interval", time.Minute, "Flush interval for CSV chunks")
)

func main() {
	flag.Parse()

	var archive *store.Store
	if *archivePath != "" {
		var err error
		archive, err = store.Open(*archivePath)
		if err != nil {
			log.Fatalf("failed to open archive: %v", err)
		}
		defer archive.Close()
	}

	coll, err := collector.New(*dataDir, archive)
	if err != nil {
		log.Fatalf("failed to create collector: %v", err)
	}

	opts := mqtt.NewClientOptions().
		AddBroker(*brokerURL).
		SetClientID("airmon-collector").
		SetAutoReconnect(true)
	if *username != "" {
		opts.SetUsername(*username).SetPassword(*password)
	}
	opts.SetOnConnectHandler(func(client mqtt.Client) {
		log.Printf("connected to %s", *brokerURL)
		client.Subscribe(*dataTopic, 0, func(_ mqtt.Client, msg mqtt.Message) {
			var m transport.Measurement
			if err := json.Unmarshal(msg.Payload(), &m); err != nil {
				log.Printf("failed to parse measurement: %v", err)
				return
			}
			coll.Append(m)
		})
		client.Subscribe(*statusTopic, 0, func(_ mqtt.Client, msg mqtt.Message) {
			var s transport.Status
			if err := json.Unmarshal(msg.Payload(), &s); err != nil {
				return
			}
			log.Printf("device %s status: %s", s.DeviceID, s.Status)
		})
	})
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		log.Printf("disconnected from broker: %v (will auto-reconnect)", err)
	})

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalf("failed to connect to %s: %v", *brokerURL, token.Error())
	}
	defer client.Disconnect(250)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("collecting into %s (flush every %v)", *dataDir, *interval)
	ticker := time.NewTicker(*interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := coll.Flush(); err != nil {
				log.Printf("flush failed: %v", err)
			}
		case <-ctx.Done():
			log.Print("shutting down; saving remaining data")
			if _, err := coll.Flush(); err != nil {
				log.Printf("final flush failed: %v", err)
			}
			return
		}
	}
}
