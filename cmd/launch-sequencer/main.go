// Command launch-sequencer drives a model rocket launch tower: a pulse
// encoder arms the system, three lit buttons collect go/no-go
// confirmations, and three valve relays generate, transfer, and ignite
// the fuel. Every step is narrated over MQTT and on an HTTP status page.
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

	"github.com/sweeney/launch-sequencer/internal/gpio"
	"github.com/sweeney/launch-sequencer/internal/launch"
	"github.com/sweeney/launch-sequencer/internal/mqtt"
	"github.com/sweeney/launch-sequencer/internal/status"
	"github.com/sweeney/launch-sequencer/internal/web"
)

type options struct {
	pins gpio.Pins

	armPulses      int
	armDebounce    time.Duration
	buttonDebounce time.Duration
	blink          time.Duration
	confirmTimeout time.Duration
	fuelGenHold    time.Duration
	transferHold   time.Duration
	fireHold       time.Duration
	cooldown       time.Duration
	idlePoll       time.Duration
	heartbeat      time.Duration

	broker     string
	httpAddr   string
	backend    string
	printState bool
}

func main() {
	var opts options

	flag.IntVar(&opts.pins.Encoder, "pin-encoder", gpio.DefaultPinEncoder, "BCM pin for the arming key encoder")
	flag.IntVar(&opts.pins.GreenButton, "pin-green-button", gpio.DefaultPinGreenButton, "BCM pin for the green confirm button")
	flag.IntVar(&opts.pins.GreenLED, "pin-green-led", gpio.DefaultPinGreenLED, "BCM pin for the green indicator LED")
	flag.IntVar(&opts.pins.BlueButton, "pin-blue-button", gpio.DefaultPinBlueButton, "BCM pin for the blue confirm button")
	flag.IntVar(&opts.pins.BlueLED, "pin-blue-led", gpio.DefaultPinBlueLED, "BCM pin for the blue indicator LED")
	flag.IntVar(&opts.pins.RedButton, "pin-red-button", gpio.DefaultPinRedButton, "BCM pin for the red launch button")
	flag.IntVar(&opts.pins.RedLED, "pin-red-led", gpio.DefaultPinRedLED, "BCM pin for the red indicator LED")
	flag.IntVar(&opts.pins.FuelValve, "pin-fuel-valve", gpio.DefaultPinFuelValve, "BCM pin for the fuel generation valve relay")
	flag.IntVar(&opts.pins.TransferValve, "pin-transfer-valve", gpio.DefaultPinTransferValve, "BCM pin for the fuel transfer valve relay")
	flag.IntVar(&opts.pins.FireValve, "pin-fire-valve", gpio.DefaultPinFireValve, "BCM pin for the ignition valve relay")

	flag.IntVar(&opts.armPulses, "arm-pulses", 2, "encoder pulses required to arm")
	flag.DurationVar(&opts.armDebounce, "arm-debounce", time.Millisecond, "minimum spacing between encoder edges")
	flag.DurationVar(&opts.buttonDebounce, "button-debounce", 50*time.Millisecond, "button debounce window")
	flag.DurationVar(&opts.blink, "blink", 500*time.Millisecond, "indicator blink half-period")
	flag.DurationVar(&opts.confirmTimeout, "confirm-timeout", 60*time.Second, "how long to wait for each confirmation")
	flag.DurationVar(&opts.fuelGenHold, "fuel-gen-hold", 5*time.Second, "fuel generation valve open time")
	flag.DurationVar(&opts.transferHold, "transfer-hold", 5*time.Second, "fuel transfer valve open time")
	flag.DurationVar(&opts.fireHold, "fire-hold", 2*time.Second, "ignition valve open time")
	flag.DurationVar(&opts.cooldown, "cooldown", 5*time.Second, "pause before re-arming after a launch")
	flag.DurationVar(&opts.idlePoll, "idle-poll", 100*time.Millisecond, "arming poll interval while idle")
	flag.DurationVar(&opts.heartbeat, "heartbeat", 15*time.Minute, "heartbeat interval (0 to disable)")
	flag.StringVar(&opts.broker, "broker", "tcp://192.168.1.200:1883", "MQTT broker address")
	flag.StringVar(&opts.httpAddr, "http", ":80", "HTTP status address (empty to disable)")
	flag.StringVar(&opts.backend, "gpio-backend", "chardev", "GPIO backend: chardev or periph")
	flag.BoolVar(&opts.printState, "print-state", false, "Print current input levels and exit")

	flag.Parse()

	if err := run(opts); err != nil {
		log.Fatalf("fatal: %v", err)
	}
}

func run(opts options) error {
	lines, err := openLines(opts.backend, opts.pins)
	if err != nil {
		return fmt.Errorf("init gpio: %w", err)
	}
	defer lines.Close()

	// Print state mode
	if opts.printState {
		fmt.Printf("encoder: %s  green: %s  blue: %s  red: %s\n",
			levelString(lines.Encoder.ReadLevel()),
			levelString(lines.GreenButton.ReadLevel()),
			levelString(lines.BlueButton.ReadLevel()),
			levelString(lines.RedButton.ReadLevel()))
		return nil
	}

	publisher, err := mqtt.NewRealPublisher(opts.broker)
	if err != nil {
		return fmt.Errorf("init mqtt: %w", err)
	}
	defer publisher.Close()

	startTime := time.Now()
	tracker := status.NewTracker(startTime, statusConfig(opts))
	netInfo := readNetworkInfo()
	if netInfo != nil {
		tracker.SetNetwork(netInfo)
	}
	tracker.SetMQTTConnected(publisher.IsConnected())

	// STARTUP is retained so the broker remembers the running config.
	startup := mqtt.SystemEvent{
		Timestamp: startTime,
		Event:     "STARTUP",
		Retained:  true,
		Config:    systemConfig(opts),
		Network:   mqttNetwork(netInfo),
	}
	if err := publisher.PublishSystem(startup); err != nil {
		log.Printf("failed to publish startup event: %v", err)
	} else {
		log.Printf("published startup event")
	}

	// Start HTTP status server
	if opts.httpAddr != "" {
		srv := web.New(opts.httpAddr, tracker)
		go func() {
			if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Printf("http server error: %v", err)
			}
		}()
		defer srv.Shutdown(context.Background())
		log.Printf("http status server listening on %s", opts.httpAddr)
	}

	log.Printf("started: pulses=%d confirm-timeout=%v broker=%s heartbeat=%v backend=%s",
		opts.armPulses, opts.confirmTimeout, opts.broker, opts.heartbeat, opts.backend)

	report := func(ev launch.Event) {
		logEvent(ev)
		tracker.Record(ev)
		tracker.SetMQTTConnected(publisher.IsConnected())

		if ev.Type == launch.EventHeartbeat {
			// Refresh network info for heartbeat
			net := readNetworkInfo()
			if net != nil {
				tracker.SetNetwork(net)
			}
			hb := mqtt.SystemEvent{
				Timestamp: ev.Timestamp,
				Event:     "HEARTBEAT",
				Heartbeat: heartbeatInfo(ev, startTime),
				Network:   mqttNetwork(net),
			}
			if err := publisher.PublishSystem(hb); err != nil {
				log.Printf("heartbeat publish error: %v", err)
			}
			return
		}

		if err := publisher.Publish(ev); err != nil {
			log.Printf("publish error: %v", err)
			// Don't crash on publish failure
		}
	}

	seq := buildSequencer(lines, opts, report)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	reason := make(chan string, 1)
	go func() {
		s := <-sigCh
		log.Printf("received %v, shutting down", s)
		reason <- signalName(s)
		cancel()
	}()

	if err := seq.Run(ctx); err != nil {
		return fmt.Errorf("sequencer: %w", err)
	}

	why := "UNKNOWN"
	select {
	case why = <-reason:
	default:
	}

	shutdown := mqtt.SystemEvent{
		Timestamp: time.Now(),
		Event:     "SHUTDOWN",
		Reason:    why,
		Retained:  true,
	}
	if err := publisher.PublishSystem(shutdown); err != nil {
		log.Printf("failed to publish shutdown event: %v", err)
	} else {
		log.Printf("published shutdown event")
	}
	return nil
}

// buildSequencer wires the control surface hardware into the protocol.
func buildSequencer(lines *gpio.Lines, opts options, report launch.Reporter) *launch.Sequencer {
	clock := launch.SystemClock{}

	green := launch.NewConfirmationStep("green",
		launch.NewDebouncedInput(lines.GreenButton, opts.buttonDebounce, clock),
		lines.GreenLED, opts.blink, clock, report)
	blue := launch.NewConfirmationStep("blue",
		launch.NewDebouncedInput(lines.BlueButton, opts.buttonDebounce, clock),
		lines.BlueLED, opts.blink, clock, report)
	red := launch.NewConfirmationStep("red",
		launch.NewDebouncedInput(lines.RedButton, opts.buttonDebounce, clock),
		lines.RedLED, opts.blink, clock, report)

	return launch.NewSequencer(launch.Config{
		Arming: launch.NewArmingDetector(lines.Encoder, opts.armPulses, opts.armDebounce),

		FuelGen:  launch.NewActuator("fuel-gen", lines.FuelValve, clock, report),
		Transfer: launch.NewActuator("transfer", lines.TransferValve, clock, report),
		Ignition: launch.NewActuator("ignition", lines.FireValve, clock, report),

		Green: green,
		Blue:  blue,
		Red:   red,

		Timings: launch.Timings{
			FuelGenHold:    opts.fuelGenHold,
			TransferHold:   opts.transferHold,
			FireHold:       opts.fireHold,
			ConfirmTimeout: opts.confirmTimeout,
			Cooldown:       opts.cooldown,
			IdlePoll:       opts.idlePoll,
			Heartbeat:      opts.heartbeat,
		},
		Clock:  clock,
		Report: report,
	})
}

func openLines(backend string, pins gpio.Pins) (*gpio.Lines, error) {
	switch backend {
	case "chardev":
		return gpio.NewChardevLines(pins)
	case "periph":
		return gpio.NewPeriphLines(pins)
	default:
		return nil, fmt.Errorf("unknown gpio backend %q (want chardev or periph)", backend)
	}
}

func logEvent(ev launch.Event) {
	switch {
	case ev.Type == launch.EventHeartbeat:
		if ev.Counts != nil {
			log.Printf("heartbeat: state=%s started=%d completed=%d aborted=%d",
				ev.State, ev.Counts.Started, ev.Counts.Completed, ev.Counts.Aborted)
			return
		}
		log.Printf("heartbeat: state=%s", ev.State)
	case ev.Name != "" && ev.State != "":
		log.Printf("event: %s %s (state=%s)", ev.Type, ev.Name, ev.State)
	case ev.Name != "":
		log.Printf("event: %s %s", ev.Type, ev.Name)
	default:
		log.Printf("event: %s %s", ev.Type, ev.State)
	}
}

func heartbeatInfo(ev launch.Event, start time.Time) *mqtt.HeartbeatInfo {
	info := &mqtt.HeartbeatInfo{
		UptimeSeconds: int64(ev.Timestamp.Sub(start).Truncate(time.Second).Seconds()),
		State:         string(ev.State),
	}
	if ev.Counts != nil {
		info.Sequences = mqtt.SequenceCounts{
			Started:   ev.Counts.Started,
			Completed: ev.Counts.Completed,
			Aborted:   ev.Counts.Aborted,
		}
	}
	return info
}

func statusConfig(opts options) status.Config {
	return status.Config{
		PulsesToArm:      opts.armPulses,
		ArmDebounceMs:    opts.armDebounce.Milliseconds(),
		ButtonDebounceMs: opts.buttonDebounce.Milliseconds(),
		BlinkMs:          opts.blink.Milliseconds(),
		ConfirmTimeoutMs: opts.confirmTimeout.Milliseconds(),
		FuelGenHoldMs:    opts.fuelGenHold.Milliseconds(),
		TransferHoldMs:   opts.transferHold.Milliseconds(),
		FireHoldMs:       opts.fireHold.Milliseconds(),
		CooldownMs:       opts.cooldown.Milliseconds(),
		IdlePollMs:       opts.idlePoll.Milliseconds(),
		HeartbeatMs:      opts.heartbeat.Milliseconds(),
		Broker:           opts.broker,
		HTTPAddr:         opts.httpAddr,
	}
}

func systemConfig(opts options) *mqtt.SystemConfig {
	return &mqtt.SystemConfig{
		PulsesToArm:      opts.armPulses,
		ArmDebounceMs:    opts.armDebounce.Milliseconds(),
		ButtonDebounceMs: opts.buttonDebounce.Milliseconds(),
		BlinkMs:          opts.blink.Milliseconds(),
		ConfirmTimeoutMs: opts.confirmTimeout.Milliseconds(),
		FuelGenHoldMs:    opts.fuelGenHold.Milliseconds(),
		TransferHoldMs:   opts.transferHold.Milliseconds(),
		FireHoldMs:       opts.fireHold.Milliseconds(),
		CooldownMs:       opts.cooldown.Milliseconds(),
		IdlePollMs:       opts.idlePoll.Milliseconds(),
		HeartbeatMs:      opts.heartbeat.Milliseconds(),
		Broker:           opts.broker,
	}
}

// pi-helper env var names (written to /run/pi-helper.env).
const (
	envNetworkType       = "NETWORK_TYPE"
	envNetworkIP         = "NETWORK_IP"
	envNetworkStatus     = "NETWORK_STATUS"
	envNetworkGateway    = "NETWORK_GATEWAY"
	envNetworkWifiStatus = "NETWORK_WIFI_STATUS"
	envNetworkWifiSSID   = "NETWORK_WIFI_SSID"
)

func readNetworkInfo() *status.NetworkInfo {
	s := os.Getenv(envNetworkStatus)
	if s == "" {
		return nil
	}
	return &status.NetworkInfo{
		Type:       os.Getenv(envNetworkType),
		IP:         os.Getenv(envNetworkIP),
		Status:     s,
		Gateway:    os.Getenv(envNetworkGateway),
		WifiStatus: os.Getenv(envNetworkWifiStatus),
		SSID:       os.Getenv(envNetworkWifiSSID),
	}
}

func mqttNetwork(info *status.NetworkInfo) *mqtt.NetworkInfo {
	if info == nil {
		return nil
	}
	return &mqtt.NetworkInfo{
		Type:       info.Type,
		IP:         info.IP,
		Status:     info.Status,
		Gateway:    info.Gateway,
		WifiStatus: info.WifiStatus,
		SSID:       info.SSID,
	}
}

func signalName(s os.Signal) string {
	switch s {
	case syscall.SIGINT:
		return "SIGINT"
	case syscall.SIGTERM:
		return "SIGTERM"
	}
	return "UNKNOWN"
}

func levelString(high bool) string {
	if high {
		return "HIGH"
	}
	return "LOW"
}
