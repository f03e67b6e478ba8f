// Package mqtt publishes launch events and system lifecycle messages to
// an MQTT broker. The Publisher interface keeps the broker out of the
// control loop's way: the real implementation buffers while the broker
// is unreachable, and tests swap in a fake.
package mqtt

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/sweeney/launch-sequencer/internal/launch"
)

// Topic is where launch events (state changes, actuator activity,
// confirmations, aborts) are published.
const Topic = "launch/sequencer/events"

// TopicSystem is where system lifecycle events (startup, shutdown,
// heartbeat, reconnect) are published.
const TopicSystem = "launch/sequencer/system"

// Publisher publishes messages to the broker.
type Publisher interface {
	// Publish sends a launch event. Implementations must not block the
	// caller for longer than a bounded publish timeout.
	Publish(event launch.Event) error

	// PublishSystem sends a system lifecycle event.
	PublishSystem(event SystemEvent) error

	// Close releases the underlying connection.
	Close() error
}

// ConnectionStatus reports broker connectivity for status displays.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent is a lifecycle message for the system topic.
type SystemEvent struct {
	Timestamp time.Time
	Event     string // STARTUP, SHUTDOWN, HEARTBEAT, RECONNECTED
	Reason    string // for SHUTDOWN: the signal that triggered it

	// Config rides along on STARTUP so the broker retains the running
	// configuration.
	Config *SystemConfig

	// Heartbeat rides along on HEARTBEAT.
	Heartbeat *HeartbeatInfo

	// Network describes the host's connectivity when known.
	Network *NetworkInfo

	// Retained marks the message for broker retention.
	Retained bool
}

// SystemConfig mirrors the flags the process was started with.
type SystemConfig struct {
	PulsesToArm      int    `json:"pulses_to_arm"`
	ArmDebounceMs    int64  `json:"arm_debounce_ms"`
	ButtonDebounceMs int64  `json:"button_debounce_ms"`
	BlinkMs          int64  `json:"blink_ms"`
	ConfirmTimeoutMs int64  `json:"confirm_timeout_ms"`
	FuelGenHoldMs    int64  `json:"fuel_gen_hold_ms"`
	TransferHoldMs   int64  `json:"transfer_hold_ms"`
	FireHoldMs       int64  `json:"fire_hold_ms"`
	CooldownMs       int64  `json:"cooldown_ms"`
	IdlePollMs       int64  `json:"idle_poll_ms"`
	HeartbeatMs      int64  `json:"heartbeat_ms"`
	Broker           string `json:"broker"`
}

// HeartbeatInfo carries liveness data on HEARTBEAT events.
type HeartbeatInfo struct {
	UptimeSeconds int64          `json:"uptime_seconds"`
	State         string         `json:"state"`
	Sequences     SequenceCounts `json:"sequences"`
}

// SequenceCounts totals sequence outcomes since startup.
type SequenceCounts struct {
	Started   int `json:"started"`
	Completed int `json:"completed"`
	Aborted   int `json:"aborted"`
}

// NetworkInfo describes the host's network connection.
type NetworkInfo struct {
	Type       string `json:"type"`
	IP         string `json:"ip"`
	Status     string `json:"status"`
	Gateway    string `json:"gateway"`
	WifiStatus string `json:"wifi_status"`
	SSID       string `json:"ssid"`
}

// Payload is the JSON envelope for the events topic.
type Payload struct {
	Launch LaunchPayload `json:"launch"`
}

// LaunchPayload is the body of an events message. State and Name are
// omitted when the event does not carry them.
type LaunchPayload struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	State     string `json:"state,omitempty"`
	Name      string `json:"name,omitempty"`
}

// SystemPayload is the JSON envelope for the system topic.
type SystemPayload struct {
	System SystemBody `json:"system"`
}

// SystemBody is the body of a system message. Optional sections are
// omitted when absent so consumers can switch on presence.
type SystemBody struct {
	Timestamp string         `json:"timestamp"`
	Event     string         `json:"event"`
	Reason    string         `json:"reason,omitempty"`
	Config    *SystemConfig  `json:"config,omitempty"`
	Heartbeat *HeartbeatInfo `json:"heartbeat,omitempty"`
	Network   *NetworkInfo   `json:"network,omitempty"`
}

// FormatPayload renders a launch event as JSON for the events topic.
// Timestamps are normalized to UTC RFC3339.
func FormatPayload(event launch.Event) ([]byte, error) {
	payload := Payload{
		Launch: LaunchPayload{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     string(event.Type),
			State:     string(event.State),
			Name:      event.Name,
		},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return data, nil
}

// FormatSystemPayload renders a system event as JSON for the system
// topic.
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	payload := SystemPayload{
		System: SystemBody{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
			Config:    event.Config,
			Heartbeat: event.Heartbeat,
			Network:   event.Network,
		},
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal system payload: %w", err)
	}
	return data, nil
}
