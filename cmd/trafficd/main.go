// Command trafficd estimates per-direction congestion at an intersection
// from an external vehicle detector and adapts the green signal to it,
// exposing a JSON API for monitoring and manual override.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/totally-not-vj/tempo-traffic-control/internal/control"
	"github.com/totally-not-vj/tempo-traffic-control/internal/detect"
	"github.com/totally-not-vj/tempo-traffic-control/internal/led"
	"github.com/totally-not-vj/tempo-traffic-control/internal/mqtt"
	"github.com/totally-not-vj/tempo-traffic-control/internal/state"
	"github.com/totally-not-vj/tempo-traffic-control/internal/traffic"
	"github.com/totally-not-vj/tempo-traffic-control/internal/web"
)

func main() {
	cycle := flag.Duration("cycle", 100*time.Millisecond, "Detection cycle period")
	backoff := flag.Duration("backoff", time.Second, "Pause after a detector failure")
	maxGreen := flag.Duration("max-green", 30*time.Second, "Ceiling on any green phase")
	minGreen := flag.Duration("min-green", 8*time.Second, "Floor before a normal automatic switch")
	highThreshold := flag.Int("high-threshold", 15, "Smoothed count considered congested")
	lowThreshold := flag.Int("low-threshold", 3, "Smoothed count considered idle")
	broker := flag.String("broker", "tcp://192.168.1.200:1883", "MQTT broker address")
	countsTopic := flag.String("counts-topic", detect.DefaultTopic, "MQTT topic carrying detector counts")
	staleAfter := flag.Duration("stale-after", 2*time.Second, "Detector counts older than this count as missing")
	heartbeat := flag.Duration("heartbeat", 15*time.Minute, "Heartbeat interval (0 to disable)")
	httpAddr := flag.String("http", ":5000", "HTTP API address (empty to disable)")
	pinDetection := flag.Int("led-detection", led.DefaultPinDetection, "BCM pin for the detection LED (-1 disables both)")
	pinOverride := flag.Int("led-override", led.DefaultPinOverride, "BCM pin for the override LED")
	printState := flag.Bool("print-state", false, "Print current detector counts and exit")

	flag.Parse()

	policy := traffic.Policy{
		MaxGreen:      *maxGreen,
		MinGreen:      *minGreen,
		HighThreshold: *highThreshold,
		LowThreshold:  *lowThreshold,
	}

	err := run(policy, *cycle, *backoff, *broker, *countsTopic, *staleAfter,
		*heartbeat, *httpAddr, *pinDetection, *pinOverride, *printState)
	if err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(policy traffic.Policy, cycle, backoff time.Duration, broker, countsTopic string,
	staleAfter, heartbeat time.Duration, httpAddr string, pinDetection, pinOverride int, printState bool) error {

	// Connect to the detector feed
	source, err := detect.NewEdgeSource(broker, countsTopic, staleAfter)
	if err != nil {
		return fmt.Errorf("init detector feed: %w", err)
	}

	// Print state mode
	if printState {
		defer source.Close()
		counts, err := readCounts(source, 3*staleAfter, cycle)
		if err != nil {
			return fmt.Errorf("read counts: %w", err)
		}
		fmt.Printf("N:%d S:%d E:%d W:%d\n", counts.North, counts.South, counts.East, counts.West)
		return nil
	}

	// Initialize MQTT publishing
	publisher := mqtt.NewRealPublisher(broker)
	defer publisher.Close()

	// Initialize the shared state (before STARTUP so a snapshot is available)
	store := state.New(time.Now(), state.Config{
		CycleMs:     cycle.Milliseconds(),
		BackoffMs:   backoff.Milliseconds(),
		HeartbeatMs: heartbeat.Milliseconds(),
		Broker:      broker,
		CountsTopic: countsTopic,
		HTTPAddr:    httpAddr,
	})

	// Indicator LEDs are best-effort: a dev box without GPIO still runs.
	var leds led.Driver
	if pinDetection >= 0 {
		driver, err := led.NewRealDriver(pinDetection, pinOverride)
		if err != nil {
			log.Printf("led init: %v (continuing without indicators)", err)
		} else {
			leds = driver
			defer driver.Close()
		}
	}

	// Publish startup event with full status snapshot
	snap := store.Snapshot()
	startupEvent := mqtt.SystemEvent{
		Timestamp:  snap.Now,
		Event:      "STARTUP",
		Retained:   true,
		RawPayload: state.FormatStatusEvent(snap, "STARTUP", ""),
	}
	if err := publisher.PublishSystem(startupEvent); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	gateway := control.NewGateway(store, publisher, nil)

	// Start HTTP API server
	if httpAddr != "" {
		srv := web.New(httpAddr, store, gateway, policy)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http api listening on %s", httpAddr)
	}

	log.Printf("started: cycle=%v max-green=%v min-green=%v high=%d low=%d broker=%s",
		cycle, policy.MaxGreen, policy.MinGreen, policy.HighThreshold, policy.LowThreshold, broker)

	ticker := time.NewTicker(cycle)
	defer ticker.Stop()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	return control.RunLoop(control.LoopConfig{
		Source:    source,
		Publisher: publisher,
		Status:    publisher,
		Store:     store,
		LEDs:      leds,
		Policy:    policy,
		Backoff:   backoff,
		Heartbeat: heartbeat,
	}, ticker.C, sigCh)
}

// readCounts polls the source until it produces a reading or the timeout
// expires. Used by -print-state, where the subscription may need a moment
// to receive its first message.
func readCounts(source detect.Source, timeout, poll time.Duration) (traffic.Counts, error) {
	deadline := time.Now().Add(timeout)
	for {
		counts, err := source.Counts()
		if err == nil {
			return counts, nil
		}
		if time.Now().After(deadline) {
			return traffic.Counts{}, err
		}
		time.Sleep(poll)
	}
}
