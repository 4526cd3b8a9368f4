// Command alerter watches the sensor data topic and sounds the device buzzer
// when the PM10 concentration crosses a threshold, with a cooldown between
// alarms.
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
	"github.com/google/uuid"

	"github.com/airmon-data/airmon/internal/alerter"
	"github.com/airmon-data/airmon/internal/transport"
)

var (
	brokerURL    = flag.String("broker", "tcp://localhost:1883", "MQTT broker URL")
	dataTopic    = flag.String("data-topic", transport.DefaultDataTopic, "Topic carrying measurement messages")
	commandTopic = flag.String("command-topic", transport.DefaultCommandTopic, "Topic for buzzer commands")
	threshold    = flag.Float64("threshold", 50.0, "PM10 concentration threshold in µg/m³")
	dutyCycle    = flag.Float64("duty-cycle", 0.2, "Buzzer duty cycle while the alarm sounds")
	holdFor      = flag.Duration("hold", 5*time.Second, "How long the buzzer sounds per alarm")
	cooldown     = flag.Duration("cooldown", alerter.DefaultCooldown, "Rest period between alarms")
)

func sendBuzzerCommand(client mqtt.Client, duty, period float64) {
	cmd := transport.Command{
		ID:        "alerter_" + uuid.NewString(),
		Type:      transport.CommandBuzzer,
		DutyCycle: &duty,
		Period:    &period,
	}
	payload, err := json.Marshal(cmd)
	if err != nil {
		log.Printf("failed to encode buzzer command: %v", err)
		return
	}
	token := client.Publish(*commandTopic, 0, false, payload)
	if token.Wait() && token.Error() != nil {
		log.Printf("failed to send buzzer command: %v", token.Error())
		return
	}
	log.Printf("sent buzzer command: duty_cycle=%.2f period=%.2f", duty, period)
}

func main() {
	flag.Parse()

	monitor := alerter.NewMonitor(*threshold, *cooldown)

	opts := mqtt.NewClientOptions().
		AddBroker(*brokerURL).
		SetClientID("airmon-alerter").
		SetAutoReconnect(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		log.Fatalf("failed to connect to %s: %v", *brokerURL, token.Error())
	}
	defer client.Disconnect(250)

	// make sure the buzzer starts silent
	sendBuzzerCommand(client, 0, 1)

	alarms := make(chan float64, 1)
	client.Subscribe(*dataTopic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		var m transport.Measurement
		if err := json.Unmarshal(msg.Payload(), &m); err != nil {
			return
		}
		pm10 := float64(m.PM10Atm)
		log.Printf("PM10: %.0f µg/m³ (threshold %.0f)", pm10, *threshold)
		if !monitor.Decide(pm10, time.Now()) {
			if end, active := monitor.CooldownEnd(time.Now()); active {
				log.Printf("in cooldown until %s", end.Format(time.TimeOnly))
			}
			return
		}
		select {
		case alarms <- pm10:
		default: // alarm already in progress
		}
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("monitoring %s for PM10 >= %.0f µg/m³", *dataTopic, *threshold)
	for {
		select {
		case pm10 := <-alarms:
			log.Printf("PM10 threshold exceeded (%.0f): sounding buzzer for %v", pm10, *holdFor)
			sendBuzzerCommand(client, *dutyCycle, 1)
			select {
			case <-time.After(*holdFor):
			case <-ctx.Done():
			}
			sendBuzzerCommand(client, 0, 1)
		case <-ctx.Done():
			// leave the buzzer off on the way out
			sendBuzzerCommand(client, 0, 1)
			log.Print("alerter stopped")
			return
		}
	}
}
