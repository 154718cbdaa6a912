// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/windtunnel_calibrator/internal/config"
	"github.com/relabs-tech/windtunnel_calibrator/internal/sample"
)

// RunMonitor subscribes to the live telemetry topics and prints each
// snapshot until interrupted.
func RunMonitor(cfg *config.Config) error {
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker()).
		SetClientID("windtunnel-monitor")

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	log.Printf("monitor: connected to MQTT broker at %s", cfg.MQTTBroker())

	token := client.Subscribe("windtunnel/live/#", 0, func(_ mqtt.Client, msg mqtt.Message) {
		var snap sample.LiveSnapshot
		if err := json.Unmarshal(msg.Payload(), &snap); err != nil {
			log.Printf("monitor: snapshot unmarshal error: %v", err)
			return
		}
		fmt.Printf("[%-19s] n=%-6d latest=%8.4f window=%d\n",
			snap.Source, snap.Count, snap.Latest, len(snap.Window))
	})
	token.Wait()
	if token.Error() != nil {
		return token.Error()
	}
	log.Println("monitor: subscribed to windtunnel/live/#")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	log.Println("monitor: shutting down")
	client.Disconnect(250)
	return nil
}
