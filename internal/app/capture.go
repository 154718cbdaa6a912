// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package app

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/relabs-tech/windtunnel_calibrator/internal/config"
	"github.com/relabs-tech/windtunnel_calibrator/internal/datalog"
	"github.com/relabs-tech/windtunnel_calibrator/internal/ingest"
	"github.com/relabs-tech/windtunnel_calibrator/internal/sample"
)

// workerSettle is how long the vision worker gets to warm up the camera
// before the serial device is opened.
const workerSettle = 3 * time.Second

// CaptureOptions come from the capture subcommand.
type CaptureOptions struct {
	Side        string
	OutputFile  string
	Duration    time.Duration // 0 means run until Ctrl+C or worker exit
	Live        bool          // console live display
	VisionDebug bool          // keep the worker's UI on
	Calibration bool          // archive+install the result as the side's calibration log
}

// RunCapture merges the vision worker's stdout stream and the ground-truth
// serial stream into one CSV log. Shutdown runs the same sequence on every
// exit path: stop telemetry, terminate and await the worker, close the
// serial device, close the log.
func RunCapture(cfg *config.Config, opt CaptureOptions) error {
	outputFile := opt.OutputFile
	if opt.Calibration {
		outputFile = "datalogger.csv"
		if opt.Duration == 0 {
			opt.Duration = 40 * time.Second
		}
	}

	// ---- 1) Spawn the vision worker ----
	args := append(append([]string{}, cfg.VisionArgs()...), "--output", cfg.VisionMode())
	if !opt.VisionDebug {
		log.Println("capture: starting headless vision worker")
		args = append(args, "--no-ui")
	} else {
		log.Println("capture: starting vision worker in DEBUG mode (UI enabled)")
	}
	worker := exec.Command(cfg.VisionProgram(), args...)

	stdout, err := worker.StdoutPipe()
	if err != nil {
		return fmt.Errorf("capture: worker stdout: %w", err)
	}
	stderr, err := worker.StderrPipe()
	if err != nil {
		return fmt.Errorf("capture: worker stderr: %w", err)
	}
	if err := worker.Start(); err != nil {
		return fmt.Errorf("capture: start vision worker: %w", err)
	}

	// Forward the worker's diagnostic stream verbatim, never parsed.
	go func() {
		sc := bufio.NewScanner(stderr)
		for sc.Scan() {
			fmt.Printf("[%s ERROR] %s\n", sample.SourceVision, sc.Text())
		}
	}()

	time.Sleep(workerSettle)
	log.Println("capture: vision worker started")

	// ---- 2) Open the ground-truth serial device ----
	log.Printf("capture: connecting to serial port %s at %d bps", cfg.SerialPort(), cfg.BaudRate())
	serialSrc, err := ingest.OpenSerialSource(cfg.SerialPort(), cfg.BaudRate())
	if err != nil {
		// The worker is already running; release it before aborting.
		terminateWorker(worker)
		return fmt.Errorf("capture: %w", err)
	}
	log.Println("capture: serial port connected")

	// ---- 3) Open the log and start the adapters ----
	logw, err := datalog.NewWriter(outputFile)
	if err != nil {
		terminateWorker(worker)
		serialSrc.Close()
		return fmt.Errorf("capture: %w", err)
	}

	visionAdapter := ingest.NewAdapter(sample.SourceVision, ingest.NewPipeSource(stdout))
	serialAdapter := ingest.NewSerialAdapter(sample.SourceGroundTruth, serialSrc)
	visionAdapter.Start()
	serialAdapter.Start()

	coord := ingest.NewCoordinator(logw, visionAdapter, serialAdapter)
	telemetry := startTelemetry(cfg, opt.Live, coord)

	// ---- 4) Stop conditions: interrupt, worker exit, duration elapsed ----
	stop := make(chan struct{})
	var stopOnce sync.Once
	requestStop := func(reason string) {
		stopOnce.Do(func() {
			log.Printf("capture: stopping (%s)", reason)
			close(stop)
		})
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)
	go notifyInterrupt(sigCh, stop, requestStop)

	// Worker exit shows up as EOF on its stdout. The process is reaped only
	// in shutdown, after the adapter has read the pipe to its end; calling
	// Wait earlier would close the read side and discard final measurements.
	go func() {
		<-visionAdapter.Done()
		requestStop("vision stream ended")
	}()

	if opt.Duration > 0 {
		timer := time.AfterFunc(opt.Duration, func() { requestStop("duration elapsed") })
		defer timer.Stop()
	}

	log.Printf("capture: logging to %s, press Ctrl+C to stop", outputFile)
	runErr := coord.Run(stop)

	// ---- 5) Shutdown, identical on every path ----
	if telemetry != nil {
		telemetry.close()
	}
	select {
	case <-visionAdapter.Done():
	default:
		log.Println("capture: terminating vision worker")
		_ = worker.Process.Signal(syscall.SIGTERM)
		select {
		case <-visionAdapter.Done():
		case <-time.After(5 * time.Second):
			_ = worker.Process.Kill()
			<-visionAdapter.Done()
		}
	}
	// Reap after the stdout pipe has hit EOF; a termination exit status here
	// is the normal case.
	_ = worker.Wait()
	if err := serialSrc.Close(); err != nil {
		log.Printf("capture: serial close: %v", err)
	} else {
		log.Println("capture: serial port closed")
	}
	if err := logw.Close(); err != nil {
		log.Printf("capture: log close: %v", err)
	}

	for _, a := range []*ingest.Adapter{visionAdapter, serialAdapter} {
		produced, dropped := a.Stats()
		log.Printf("capture: %s produced=%d dropped=%d", a.Source, produced, dropped)
	}
	log.Printf("capture: %d rows written to %s", logw.Rows(), outputFile)

	if runErr != nil {
		return runErr
	}
	if opt.Calibration {
		return installCalibrationLog(outputFile, opt.Side)
	}
	return nil
}

// notifyInterrupt asks for a stop on the first interrupt and returns once the
// run stops for any reason, so the watcher never outlives the capture.
func notifyInterrupt(sigCh <-chan os.Signal, stop <-chan struct{}, requestStop func(reason string)) {
	select {
	case <-sigCh:
		requestStop("interrupt")
	case <-stop:
	}
}

// terminateWorker asks the worker to exit and reaps it, escalating to a hard
// kill if it ignores the request. Only used on startup error paths, before
// anything reads the worker's stdout.
func terminateWorker(worker *exec.Cmd) {
	if worker.Process == nil {
		return
	}
	log.Println("capture: terminating vision worker")
	_ = worker.Process.Signal(syscall.SIGTERM)
	done := make(chan struct{})
	go func() {
		worker.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		_ = worker.Process.Kill()
		<-done
	}
}

// installCalibrationLog archives any previous calibration log for the side
// and moves the fresh capture into place.
func installCalibrationLog(captured, side string) error {
	dir := "calibration"
	target := filepath.Join(dir, side+"_tunnel_calibration.csv")

	if _, err := os.Stat(target); err == nil {
		archiveDir := filepath.Join(dir, "old_"+side)
		if err := os.MkdirAll(archiveDir, 0o755); err != nil {
			return fmt.Errorf("capture: create archive dir: %w", err)
		}
		stamp := time.Now().Format("20060102_150405")
		archived := filepath.Join(archiveDir, stamp+"_"+side+"_tunnel_calibration.csv")
		log.Printf("capture: archiving old calibration log to %s", archived)
		if err := os.Rename(target, archived); err != nil {
			return fmt.Errorf("capture: archive old calibration log: %w", err)
		}
	} else if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("capture: create calibration dir: %w", err)
	}

	if err := os.Rename(captured, target); err != nil {
		return fmt.Errorf("capture: install calibration log: %w", err)
	}
	log.Printf("capture: calibration log installed at %s", target)
	return nil
}

// liveTelemetry pushes throttled window snapshots to the console and, when
// enabled, to MQTT for the monitor and web viewers.
type liveTelemetry struct {
	client mqtt.Client
	live   bool
}

func startTelemetry(cfg *config.Config, live bool, coord *ingest.Coordinator) *liveTelemetry {
	t := &liveTelemetry{live: live}

	if cfg.MQTTEnabled() {
		opts := mqtt.NewClientOptions().
			AddBroker(cfg.MQTTBroker()).
			SetClientID("windtunnel-capture")
		client := mqtt.NewClient(opts)
		if token := client.Connect(); token.Wait() && token.Error() != nil {
			log.Printf("capture: MQTT connect error, telemetry disabled: %v", token.Error())
		} else {
			log.Printf("capture: publishing live telemetry to %s", cfg.MQTTBroker())
			t.client = client
		}
	}

	if t.client == nil && !t.live {
		return nil
	}

	coord.OnRefresh = func(snapshots []sample.LiveSnapshot) {
		for _, snap := range snapshots {
			if t.live {
				fmt.Printf("[LIVE] %-19s n=%-6d latest=%8.4f\n", snap.Source, snap.Count, snap.Latest)
			}
			if t.client != nil {
				payload, err := json.Marshal(snap)
				if err != nil {
					log.Printf("capture: snapshot marshal error: %v", err)
					continue
				}
				t.client.Publish("windtunnel/live/"+snap.Source, 0, true, payload)
			}
		}
	}
	return t
}

func (t *liveTelemetry) close() {
	if t.client != nil {
		t.client.Disconnect(250)
	}
}
